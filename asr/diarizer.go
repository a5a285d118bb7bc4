package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"call-insights/transcript"
)

type diarizerClient struct {
	baseURL string
	client  *http.Client
}

// NewDiarizerClient talks to a pyannote-style diarization server.
// POST {base}/diarize with a multipart audio file and optional
// min_speakers/max_speakers fields returns
// {segments[{start,end,speaker,speaker_id}], speakers[], num_speakers}.
// An empty baseURL means the runtime has no diarizer.
func NewDiarizerClient(baseURL string, timeout time.Duration) Diarizer {
	return &diarizerClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (d *diarizerClient) Available() bool {
	return d.baseURL != ""
}

func (d *diarizerClient) Diarize(ctx context.Context, audioPath string, minSpeakers, maxSpeakers int) (*transcript.DiarizationResult, error) {
	if !d.Available() {
		return nil, fmt.Errorf("diarizer not configured")
	}

	fields := map[string]string{}
	if minSpeakers > 0 {
		fields["min_speakers"] = strconv.Itoa(minSpeakers)
	}
	if maxSpeakers > 0 {
		fields["max_speakers"] = strconv.Itoa(maxSpeakers)
	}

	body, contentType, err := multipartAudio(audioPath, fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/diarize", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("diarizer http %d: %s", resp.StatusCode, string(b))
	}

	var result transcript.DiarizationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Speakers) == 0 {
		result.Speakers = transcript.SortedSpeakers(result.Turns)
		result.NumSpeakers = len(result.Speakers)
	}
	return &result, nil
}
