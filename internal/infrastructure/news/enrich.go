package news

import (
	"context"
	"log/slog"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"GeoTradeAI/internal/domain"
)

// descriptionFloor is the length below which a provider description is too
// thin to score on and the article page is worth fetching.
const descriptionFloor = 80

// excerptLimit caps how much extracted text is carried into the description.
const excerptLimit = 600

// Enricher replaces thin provider descriptions with readable text extracted
// from the article page. A nil Enricher passes articles through unchanged.
type Enricher struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewEnricher builds the full-text enricher.
func NewEnricher(timeout time.Duration, logger *slog.Logger) *Enricher {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{timeout: timeout, logger: logger.With("component", "enricher")}
}

// EnrichAll upgrades descriptions where possible. Extraction failures leave
// the original record untouched.
func (e *Enricher) EnrichAll(ctx context.Context, articles []domain.RawArticle) []domain.RawArticle {
	if e == nil {
		return articles
	}
	for i, art := range articles {
		if ctx.Err() != nil {
			return articles
		}
		if len(strings.TrimSpace(art.Description)) >= descriptionFloor || art.URL == "" {
			continue
		}
		articles[i] = e.enrich(art)
	}
	return articles
}

func (e *Enricher) enrich(art domain.RawArticle) domain.RawArticle {
	parsed, err := readability.FromURL(art.URL, e.timeout)
	if err != nil {
		e.logger.Debug("full-text extraction failed", "url", art.URL, "error", err)
		return art
	}

	text := strings.TrimSpace(parsed.TextContent)
	if len(text) <= len(art.Description) {
		return art
	}
	if len(text) > excerptLimit {
		text = text[:excerptLimit]
	}
	art.Description = text
	return art
}
