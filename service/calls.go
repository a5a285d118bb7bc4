package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"call-insights/constant"
	"call-insights/entities"
	"call-insights/repository"
	"call-insights/storage"
	"call-insights/transcript"
)

var audioContentTypes = map[string]string{
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
}

// CallService covers call lifecycle outside the pipeline: upload, listing,
// transcript retrieval and deletion.
type CallService struct {
	repo  repository.Repository
	store storage.Store
}

func NewCallService(repo repository.Repository, store storage.Store) *CallService {
	return &CallService{repo: repo, store: store}
}

// Upload stores one audio file and creates its call record. A filename
// collision gets a timestamp suffix instead of overwriting the earlier
// upload.
func (s *CallService) Upload(ctx context.Context, filename string, r io.Reader, size int64) (*entities.Call, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := audioContentTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	exists, err := s.store.AudioExists(ctx, s.store.AudioPathFor(filename))
	if err != nil {
		return nil, err
	}
	if exists {
		stem := strings.TrimSuffix(filename, ext)
		filename = fmt.Sprintf("%s_%d%s", stem, time.Now().UTC().Unix(), ext)
	}

	objectPath, err := s.store.PutAudio(ctx, filename, r, size, contentType)
	if err != nil {
		return nil, err
	}

	call := &entities.Call{
		ID:          uuid.New(),
		Filename:    filename,
		StoragePath: objectPath,
		SizeBytes:   size,
		Status:      constant.CallStatusNew,
	}
	if err := s.repo.CreateCall(ctx, call); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("call_id", call.ID.String()).Str("object", objectPath).Msg("call uploaded")
	return call, nil
}

func (s *CallService) List(ctx context.Context, status constant.CallStatus, search string) ([]*entities.Call, error) {
	return s.repo.ListCalls(ctx, status, search)
}

func (s *CallService) Get(ctx context.Context, id uuid.UUID) (*entities.Call, error) {
	call, err := s.repo.FindCallByID(ctx, id)
	if err != nil {
		return nil, ErrCallNotFound
	}
	return call, nil
}

// GetTranscript returns the persisted transcript artifact. The call must
// have at least entered processing.
func (s *CallService) GetTranscript(ctx context.Context, id uuid.UUID) (*transcript.Transcript, error) {
	call, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if call.Status != constant.CallStatusProcessed && call.Status != constant.CallStatusProcessing {
		return nil, fmt.Errorf("%w: status is %s", ErrCallNotProcessed, call.Status)
	}

	t, err := s.store.LoadTranscript(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptMissing, id)
	}
	return t, nil
}

// Delete removes the audio object, the transcript artifact and all
// database rows of a call. Storage errors are logged but do not keep the
// rows around.
func (s *CallService) Delete(ctx context.Context, id uuid.UUID) error {
	call, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	log := zerolog.Ctx(ctx).With().Str("call_id", id.String()).Logger()
	if err := s.store.RemoveAudio(ctx, call.StoragePath); err != nil {
		log.Warn().Err(err).Msg("failed to remove audio object")
	}
	if err := s.store.RemoveTranscript(ctx, id); err != nil {
		log.Warn().Err(err).Msg("failed to remove transcript artifact")
	}
	return s.repo.DeleteCall(ctx, id)
}
