package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/ports"
)

// GNewsClient pulls articles from the GNews search endpoint.
type GNewsClient struct {
	baseURL    string
	apiKey     string
	maxResults int
	enricher   *Enricher
	logger     *slog.Logger
	client     *http.Client
}

var _ ports.ArticleProvider = (*GNewsClient)(nil)

// NewGNewsClient builds the adapter. enricher may be nil.
func NewGNewsClient(baseURL, apiKey string, maxResults int, enricher *Enricher, logger *slog.Logger) *GNewsClient {
	if maxResults <= 0 || maxResults > 100 {
		maxResults = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GNewsClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxResults: maxResults,
		enricher:   enricher,
		logger:     logger.With("component", "gnews"),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Name identifies the source in logs and article records.
func (c *GNewsClient) Name() string { return "GNews" }

type gnewsResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch queries the source for trade-disruption coverage of the route.
func (c *GNewsClient) Fetch(ctx context.Context, q domain.Query) ([]domain.RawArticle, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: gnews key not configured", domain.ErrProviderUnavailable)
	}

	params := url.Values{}
	params.Set("q", strings.Join([]string{q.Product, q.Country, "port customs tariff trade"}, " "))
	params.Set("token", c.apiKey)
	params.Set("lang", "en")
	params.Set("max", strconv.Itoa(c.maxResults))

	var payload gnewsResponse
	if err := getJSON(ctx, c.client, c.baseURL+"?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("gnews: %w", err)
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
