package ports

import (
	"context"

	"GeoTradeAI/internal/domain"
)

// ArticleProvider pulls raw article records for a query from one upstream
// news source. Fetch failures are wrapped as domain.ErrProviderUnavailable
// or domain.ErrRateLimited.
type ArticleProvider interface {
	Name() string
	Fetch(ctx context.Context, query domain.Query) ([]domain.RawArticle, error)
}

// Embedder maps text into a fixed-length vector space. Deterministic for
// identical input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator sends a prompt to a language-generation service and returns the
// raw text. May fail with domain.ErrUnavailable or domain.ErrTimeout.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// WeatherSource fetches raw weather metrics for a location. May fail with
// domain.ErrProviderUnavailable.
type WeatherSource interface {
	Fetch(ctx context.Context, location string) (domain.WeatherMetrics, error)
}

// ReportRepository persists finished risk reports for history and audit.
type ReportRepository interface {
	Save(ctx context.Context, report domain.RiskReport) error
	ListRecent(ctx context.Context, limit int) ([]domain.RiskReport, error)
}

// Notifier pushes high-risk alerts to an outbound channel (Telegram, etc.).
type Notifier interface {
	PublishAlert(ctx context.Context, message string) error
}

// Scheduler controls when recurring assessments execute.
type Scheduler interface {
	Start(ctx context.Context, job func()) error
	Stop(ctx context.Context) error
}
