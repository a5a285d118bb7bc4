// Package llm is a thin client for an Ollama-compatible chat endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrUnavailable marks transport-level failures: the model endpoint could
// not be reached or kept returning server errors.
var ErrUnavailable = errors.New("llm unavailable")

// Generator produces raw model output for a prompt. jsonMode asks the
// backend to constrain the response to a JSON object; parsing is still the
// caller's problem.
type Generator interface {
	Generate(ctx context.Context, prompt string, jsonMode bool) (string, error)
}

type client struct {
	baseURL string
	model   string
	http    *http.Client
	timeout time.Duration
}

// NewClient builds a Generator against {baseURL}/api/chat. Each request is
// bounded by timeout so a hung model cannot stall a batch.
func NewClient(baseURL, model string, timeout time.Duration) Generator {
	return &client{
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func (c *client) Generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	if jsonMode {
		payload.Format = "json"
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	operation := func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(buf))
		if err != nil {
			return "", backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			b, _ := io.ReadAll(resp.Body)
			return "", fmt.Errorf("llm http %d: %s", resp.StatusCode, string(b))
		}
		if resp.StatusCode >= 300 {
			b, _ := io.ReadAll(resp.Body)
			return "", backoff.Permanent(fmt.Errorf("llm http %d: %s", resp.StatusCode, string(b)))
		}

		var cr chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return "", backoff.Permanent(err)
		}
		return cr.Message.Content, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 5 * time.Second
	content, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3))
	if err != nil {
		return "", errors.Join(ErrUnavailable, err)
	}
	return content, nil
}
