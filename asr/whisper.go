package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"call-insights/transcript"
)

type whisperClient struct {
	baseURL  string
	language string
	client   *http.Client
}

// NewWhisperClient talks to a whisper-compatible transcription server.
// POST {base}/transcribe with a multipart audio file returns
// {text, segments[{start,end,text}], language}.
func NewWhisperClient(baseURL, language string, timeout time.Duration) Transcriber {
	return &whisperClient{
		baseURL:  baseURL,
		language: language,
		client:   &http.Client{Timeout: timeout},
	}
}

type whisperResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (w *whisperClient) Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	body, contentType, err := multipartAudio(audioPath, map[string]string{"language": w.language})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/transcribe", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcriber http %d: %s", resp.StatusCode, string(b))
	}

	var wr whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, err
	}

	segments := make([]transcript.Segment, len(wr.Segments))
	for i, seg := range wr.Segments {
		segments[i] = transcript.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return &transcript.Transcript{
		Text:     wr.Text,
		Segments: segments,
		Language: wr.Language,
	}, nil
}

func multipartAudio(audioPath string, fields map[string]string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", err
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &body, mw.FormDataContentType(), nil
}
