// Package app wires configuration into the assessment pipeline and its
// driven adapters.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"GeoTradeAI/internal/aggregate"
	"GeoTradeAI/internal/anomaly"
	"GeoTradeAI/internal/config"
	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/infrastructure/llm"
	"GeoTradeAI/internal/infrastructure/news"
	"GeoTradeAI/internal/infrastructure/scheduler"
	"GeoTradeAI/internal/infrastructure/storage"
	"GeoTradeAI/internal/infrastructure/telegram"
	"GeoTradeAI/internal/infrastructure/weatherapi"
	"GeoTradeAI/internal/logging"
	"GeoTradeAI/internal/normalize"
	"GeoTradeAI/internal/ports"
	"GeoTradeAI/internal/relevance"
	"GeoTradeAI/internal/severity"
	"GeoTradeAI/internal/usecase"
	"GeoTradeAI/internal/weather"
)

// Application holds the wired use cases and owned resources.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	assessor *usecase.Assessor
	watcher  *usecase.RouteWatcher
	history  *usecase.HistoryAnalyzer
	db       *sql.DB
}

// New builds a runnable application instance. Optional adapters (database,
// Telegram, second news source) are wired only when configured.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var db *sql.DB
	var repository ports.ReportRepository
	if cfg.Database.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repository = storage.NewPostgresRepository(db)
	}

	var enricher *news.Enricher
	if cfg.Providers.EnrichContent {
		enricher = news.NewEnricher(8*time.Second, baseLogger)
	}

	var providers []ports.ArticleProvider
	if cfg.Providers.NewsAPI.APIKey != "" {
		providers = append(providers, news.NewNewsAPIClient(
			cfg.Providers.NewsAPI.BaseURL, cfg.Providers.NewsAPI.APIKey,
			cfg.Providers.MaxResults, enricher, baseLogger))
	}
	if cfg.Providers.GNews.APIKey != "" {
		providers = append(providers, news.NewGNewsClient(
			cfg.Providers.GNews.BaseURL, cfg.Providers.GNews.APIKey,
			cfg.Providers.MaxResults, enricher, baseLogger))
	}

	embedder := llm.NewEmbeddingClient(cfg.Embedding.BaseURL, cfg.Embedding.Model,
		time.Duration(cfg.Embedding.TimeoutSeconds)*time.Second)
	filter := relevance.New(embedder, relevance.Config{
		Threshold:      cfg.Relevance.Threshold,
		CountryBoost:   cfg.Relevance.CountryBoost,
		NoiseCountries: cfg.Relevance.NoiseCountries,
	}, boostKeywords(cfg.Scoring.Destination), baseLogger.With("component", "relevance"))

	generator := llm.NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Model,
		cfg.LLMTimeout(), cfg.LLM.RPM, cfg.LLM.Burst)
	scorer := severity.NewFallbackChain(baseLogger.With("component", "severity"),
		severity.NewModelStrategy(generator, cfg.LLMTimeout(), baseLogger.With("component", "severity.model")),
		severity.NewRuleStrategy(ruleConfig(cfg.Scoring)),
	)

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(
			cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	assessor := usecase.NewAssessor(usecase.AssessorDeps{
		Providers:  providers,
		Normalizer: normalize.New(cfg.Dedup.TitleSimilarity),
		Filter:     filter,
		Scorer:     scorer,
		Weather:    weatherapi.NewClient(cfg.Weather.BaseURL, cfg.Weather.APIKey),
		Evaluator:  weather.New(thresholds(cfg.Weather.Thresholds)),
		Aggregator: aggregate.New(aggregateConfig(cfg.Aggregation)),
		Repository: repository,
		Notifier:   notifier,
		Logger:     baseLogger,

		ScoringConcurrency: cfg.Pipeline.ScoringConcurrency,
		Timeout:            cfg.PipelineTimeout(),
	})

	watcher := usecase.NewRouteWatcher(assessor,
		scheduler.NewTickerScheduler(time.Duration(cfg.Scheduler.IntervalHours)*time.Hour),
		routes(cfg.Scheduler.Routes), baseLogger)

	history := usecase.NewHistoryAnalyzer(repository, anomaly.New(anomaly.Config{
		Threshold: cfg.History.AnomalyThreshold,
		MinPoints: cfg.History.MinPoints,
	}), baseLogger)

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		assessor: assessor,
		watcher:  watcher,
		history:  history,
		db:       db,
	}, nil
}

// Assess runs one assessment for the given route.
func (a *Application) Assess(ctx context.Context, q domain.Query) (domain.RiskReport, error) {
	return a.assessor.Assess(ctx, q)
}

// ReviewHistory loads recent reports and flags risk scores that break from
// the route's pattern.
func (a *Application) ReviewHistory(ctx context.Context) ([]domain.RiskReport, []anomaly.Finding, error) {
	return a.history.Review(ctx, a.cfg.History.Limit)
}

// Watch re-assesses the configured routes on the scheduler cadence, blocking
// until the context is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	if err := a.watcher.Run(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return a.watcher.Stop(context.Background())
}

// Close releases owned resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func boostKeywords(dst config.DestinationConfig) []string {
	keywords := make([]string, 0, len(dst.Ports)+len(dst.Keywords))
	keywords = append(keywords, dst.Ports...)
	keywords = append(keywords, dst.Keywords...)
	return keywords
}

func ruleConfig(s config.ScoringConfig) severity.RuleConfig {
	return severity.RuleConfig{
		RecencyWindowDays:   s.RecencyWindowDays,
		DestinationCountry:  s.Destination.Country,
		DestinationPorts:    s.Destination.Ports,
		DestinationKeywords: s.Destination.Keywords,
		NoiseCountries:      s.NoiseCountries,
		NoiseMultiplier:     s.Multipliers.Noise,
		PortMultiplier:      s.Multipliers.Port,
		CountryMultiplier:   s.Multipliers.Country,
		ContainerMultiplier: s.Multipliers.Container,
	}
}

func thresholds(t config.WeatherThresholds) weather.Thresholds {
	return weather.Thresholds{
		WindStrong:       t.WindStrong,
		WindSevere:       t.WindSevere,
		GustSevere:       t.GustSevere,
		PrecipitationMM:  t.PrecipitationMM,
		VisibilityPoorKM: t.VisibilityPoorKM,
		HeatExtremeC:     t.HeatExtremeC,
		ColdExtremeC:     t.ColdExtremeC,
		LowMaxPoints:     t.LowMaxPoints,
		MediumMaxPoints:  t.MediumMaxPoints,
	}
}

func aggregateConfig(a config.AggregationConfig) aggregate.Config {
	return aggregate.Config{
		TopK:           a.TopK,
		WeatherLowAdd:  a.WeatherLowAdd,
		WeatherMedAdd:  a.WeatherMedAdd,
		WeatherHighAdd: a.WeatherHighAdd,
		BreakpointLow:  a.BreakpointLow,
		BreakpointMed:  a.BreakpointMed,
		BreakpointHigh: a.BreakpointHigh,
		MaxConcerns:    a.MaxConcerns,
		MaxActions:     a.MaxActions,
	}
}

func routes(configured []config.RouteConfig) []domain.Query {
	queries := make([]domain.Query, 0, len(configured))
	for _, r := range configured {
		queries = append(queries, domain.Query{
			Product:  r.Product,
			Country:  r.Country,
			DaysBack: r.DaysBack,
		})
	}
	return queries
}
