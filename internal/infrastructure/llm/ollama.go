// Package llm contains the Ollama-backed generation and embedding adapters.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/ports"
)

// OllamaClient implements ports.Generator against an Ollama server. Calls go
// through a rate limiter so a burst of scoring work cannot swamp the local
// inference service.
type OllamaClient struct {
	baseURL string
	model   string
	limiter *rate.Limiter
	client  *http.Client
}

var _ ports.Generator = (*OllamaClient)(nil)

// NewOllamaClient builds a client from configuration. rpm bounds requests per
// minute; zero disables limiting.
func NewOllamaClient(baseURL, model string, timeout time.Duration, rpm float64, burst int) *OllamaClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rpm > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rpm/60), burst)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		limiter: limiter,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt and returns the raw completion text.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.baseURL == "" || c.model == "" {
		return "", fmt.Errorf("%w: ollama client misconfigured", domain.ErrConfiguration)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}

	var resp generateResponse
	err := postJSON(ctx, c.client, c.baseURL+"/api/generate",
		generateRequest{Model: c.model, Prompt: prompt, Stream: false}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Response, nil
}

// postJSON sends the payload and decodes the reply, mapping transport and
// server failures onto domain.ErrUnavailable.
func postJSON(ctx context.Context, client *http.Client, url string, payload, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %s: %s", domain.ErrUnavailable,
			resp.Status, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
