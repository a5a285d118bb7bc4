// Package storage owns the object-store layout: uploaded audio under
// audio/, one transcript JSON artifact per call under transcripts/.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"call-insights/transcript"
)

const (
	audioPrefix      = "audio"
	transcriptPrefix = "transcripts"
)

type Store interface {
	PutAudio(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
	AudioExists(ctx context.Context, objectPath string) (bool, error)
	FetchAudio(ctx context.Context, objectPath, localPath string) error
	RemoveAudio(ctx context.Context, objectPath string) error
	AudioPathFor(filename string) string

	SaveTranscript(ctx context.Context, callID uuid.UUID, t *transcript.Transcript) error
	LoadTranscript(ctx context.Context, callID uuid.UUID) (*transcript.Transcript, error)
	RemoveTranscript(ctx context.Context, callID uuid.UUID) error
}

type store struct {
	client *minio.Client
	bucket string
}

func NewStore(client *minio.Client, bucket string) Store {
	return &store{client: client, bucket: bucket}
}

// AudioPathFor is the canonical object path for an uploaded filename; also
// the fallback location probed when a call's recorded path is gone.
func (s *store) AudioPathFor(filename string) string {
	return path.Join(audioPrefix, filename)
}

func (s *store) PutAudio(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	objectPath := s.AudioPathFor(objectName)
	_, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return objectPath, nil
}

func (s *store) AudioExists(ctx context.Context, objectPath string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *store) FetchAudio(ctx context.Context, objectPath, localPath string) error {
	return s.client.FGetObject(ctx, s.bucket, objectPath, localPath, minio.GetObjectOptions{})
}

func (s *store) RemoveAudio(ctx context.Context, objectPath string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{})
}

func transcriptPath(callID uuid.UUID) string {
	return path.Join(transcriptPrefix, callID.String()+".json")
}

func (s *store) SaveTranscript(ctx context.Context, callID uuid.UUID, t *transcript.Transcript) error {
	buf, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, transcriptPath(callID), bytes.NewReader(buf), int64(len(buf)), minio.PutObjectOptions{ContentType: "application/json"})
	return err
}

func (s *store) LoadTranscript(ctx context.Context, callID uuid.UUID) (*transcript.Transcript, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, transcriptPath(callID), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	buf, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", callID, err)
	}
	var t transcript.Transcript
	if err := json.Unmarshal(buf, &t); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", callID, err)
	}
	return &t, nil
}

func (s *store) RemoveTranscript(ctx context.Context, callID uuid.UUID) error {
	return s.client.RemoveObject(ctx, s.bucket, transcriptPath(callID), minio.RemoveObjectOptions{})
}
