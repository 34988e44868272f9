package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/ports"
)

// EmbeddingClient implements ports.Embedder against the Ollama embeddings
// endpoint. Ollama is deterministic for identical input, which the relevance
// cache relies on.
type EmbeddingClient struct {
	baseURL string
	model   string
	client  *http.Client
}

var _ ports.Embedder = (*EmbeddingClient)(nil)

// NewEmbeddingClient builds the adapter.
func NewEmbeddingClient(baseURL, model string, timeout time.Duration) *EmbeddingClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &EmbeddingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed maps text into the model's vector space.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.baseURL == "" || c.model == "" {
		return nil, fmt.Errorf("%w: embedding client misconfigured", domain.ErrConfiguration)
	}

	var resp embeddingResponse
	err := postJSON(ctx, c.client, c.baseURL+"/api/embeddings",
		embeddingRequest{Model: c.model, Prompt: text}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", domain.ErrUnavailable)
	}
	return resp.Embedding, nil
}
