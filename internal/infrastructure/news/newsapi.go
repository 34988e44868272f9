// Package news contains the HTTP adapters for the upstream article sources.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/ports"
)

// NewsAPIClient pulls articles from the NewsAPI "everything" endpoint.
type NewsAPIClient struct {
	baseURL    string
	apiKey     string
	maxResults int
	enricher   *Enricher
	logger     *slog.Logger
	client     *http.Client

	// now is injectable for tests.
	now func() time.Time
}

var _ ports.ArticleProvider = (*NewsAPIClient)(nil)

// NewNewsAPIClient builds the adapter. enricher may be nil.
func NewNewsAPIClient(baseURL, apiKey string, maxResults int, enricher *Enricher, logger *slog.Logger) *NewsAPIClient {
	if maxResults <= 0 {
		maxResults = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsAPIClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxResults: maxResults,
		enricher:   enricher,
		logger:     logger.With("component", "newsapi"),
		client:     &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// Name identifies the source in logs and article records.
func (c *NewsAPIClient) Name() string { return "NewsAPI" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch queries the source for trade-disruption coverage of the route.
func (c *NewsAPIClient) Fetch(ctx context.Context, q domain.Query) ([]domain.RawArticle, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: newsapi key not configured", domain.ErrProviderUnavailable)
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("%q AND %q AND (port OR customs OR tariff OR trade OR shipping)", q.Product, q.Country))
	params.Set("apiKey", c.apiKey)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(c.maxResults))
	params.Set("from", c.now().AddDate(0, 0, -q.DaysBack).Format("2006-01-02"))

	var payload newsAPIResponse
	if err := getJSON(ctx, c.client, c.baseURL+"?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}

	articles := make([]domain.RawArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		articles = append(articles, domain.RawArticle{
			Source:      c.Name(),
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}

	c.logger.Debug("fetched articles", "count", len(articles))
	return c.enricher.EnrichAll(ctx, articles), nil
}

// getJSON performs a GET and decodes the body, mapping rate-limit and server
// failures onto the provider error kinds.
func getJSON(ctx context.Context, client *http.Client, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: unexpected status %s", domain.ErrProviderUnavailable, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
