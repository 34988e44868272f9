package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"GeoTradeAI/internal/aggregate"
	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/normalize"
	"GeoTradeAI/internal/ports"
	"GeoTradeAI/internal/relevance"
	"GeoTradeAI/internal/severity"
	"GeoTradeAI/internal/weather"
)

// AssessorDeps wires all pipeline stages and driven adapters.
type AssessorDeps struct {
	Providers  []ports.ArticleProvider
	Normalizer *normalize.Normalizer
	Filter     *relevance.Filter
	Scorer     severity.Strategy
	Weather    ports.WeatherSource
	Evaluator  *weather.Evaluator
	Aggregator *aggregate.Aggregator
	Repository ports.ReportRepository
	Notifier   ports.Notifier
	Logger     *slog.Logger

	// ScoringConcurrency bounds parallel severity calls; a local inference
	// service usually serializes requests, so 1 is the safe default.
	ScoringConcurrency int
	// Timeout is the whole-assessment deadline. On expiry, partially scored
	// results are still aggregated and the rest counted as unscored.
	Timeout time.Duration
}

// Assessor implements the trade-disruption assessment workflow:
// fetch -> normalize/dedup -> relevance filter -> severity scoring
// (with weather evaluation in parallel) -> aggregation -> persist/notify.
type Assessor struct {
	providers  []ports.ArticleProvider
	normalizer *normalize.Normalizer
	filter     *relevance.Filter
	scorer     severity.Strategy
	weather    ports.WeatherSource
	evaluator  *weather.Evaluator
	aggregator *aggregate.Aggregator
	repository ports.ReportRepository
	notifier   ports.Notifier
	logger     *slog.Logger

	concurrency int
	timeout     time.Duration
}

// NewAssessor constructs the orchestration component.
func NewAssessor(deps AssessorDeps) *Assessor {
	concurrency := deps.ScoringConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{
		providers:   deps.Providers,
		normalizer:  deps.Normalizer,
		filter:      deps.Filter,
		scorer:      deps.Scorer,
		weather:     deps.Weather,
		evaluator:   deps.Evaluator,
		aggregator:  deps.Aggregator,
		repository:  deps.Repository,
		notifier:    deps.Notifier,
		logger:      logger.With("component", "assessor"),
		concurrency: concurrency,
		timeout:     deps.Timeout,
	}
}

// Assess runs the full pipeline for one query. Every stage degrades locally:
// a failed provider, embedding service, model, or weather source narrows the
// report instead of aborting it. The only hard error is a nil query.
func (a *Assessor) Assess(ctx context.Context, q domain.Query) (domain.RiskReport, error) {
	if q.Product == "" || q.Country == "" {
		return domain.RiskReport{}, fmt.Errorf("%w: product and country are required", domain.ErrConfiguration)
	}
	if q.DaysBack <= 0 {
		q.DaysBack = 7
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	started := time.Now()
	a.logger.Info("assessment started", "product", q.Product, "country", q.Country, "daysBack", q.DaysBack)

	// Weather is independent of article scoring; run it alongside.
	weatherCh := make(chan domain.WeatherSignal, 1)
	go func() {
		weatherCh <- a.evaluateWeather(ctx, q.Country)
	}()

	raw, degraded := a.fetchAll(ctx, q)
	normalized := a.normalizer.Normalize(raw)

	relevant, irrelevant := a.filterRelevant(ctx, q, normalized.Articles)
	scored, unscored := a.scoreAll(ctx, q, relevant)

	report := a.aggregator.Aggregate(q, scored, <-weatherCh, aggregate.Diagnostics{
		Irrelevant:      irrelevant,
		Duplicates:      len(normalized.Duplicates),
		Unscored:        unscored,
		DegradedSources: degraded,
	})
	report.ID = uuid.NewString()
	report.GeneratedAt = time.Now().UTC()

	a.logger.Info("assessment finished",
		"report", report.ID,
		"risk", report.OverallRisk,
		"score", report.RiskScore,
		"events", report.TotalEvents,
		"status", report.Status,
		"elapsed", time.Since(started))

	a.persist(ctx, report)
	a.alert(ctx, report)

	return report, nil
}

// fetchAll queries every provider concurrently and joins the results.
// Provider failures degrade to an empty contribution.
func (a *Assessor) fetchAll(ctx context.Context, q domain.Query) ([]domain.RawArticle, int) {
	var (
		mu       sync.Mutex
		raw      []domain.RawArticle
		degraded int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, provider := range a.providers {
		provider := provider
		g.Go(func() error {
			articles, err := provider.Fetch(gctx, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				degraded++
				a.logger.Warn("provider fetch failed, continuing without it",
					"provider", provider.Name(), "error", err)
				return nil
			}
			raw = append(raw, articles...)
			return nil
		})
	}
	_ = g.Wait()

	a.logger.Debug("providers joined", "articles", len(raw), "degraded", degraded)
	return raw, degraded
}

func (a *Assessor) filterRelevant(ctx context.Context, q domain.Query, articles []domain.NormalizedArticle) ([]scoredCandidate, int) {
	verdicts, err := a.filter.Score(ctx, q, articles)
	if err != nil {
		// The filter degrades internally; an error here means nothing could
		// be scored at all, so keep everything rather than drop everything.
		a.logger.Warn("relevance filtering failed, keeping all articles", "error", err)
		candidates := make([]scoredCandidate, 0, len(articles))
		for _, art := range articles {
			candidates = append(candidates, scoredCandidate{article: art})
		}
		return candidates, 0
	}

	byID := make(map[string]domain.RelevanceVerdict, len(verdicts))
	for _, v := range verdicts {
		byID[v.ArticleID] = v
	}

	var (
		relevant   []scoredCandidate
		irrelevant int
	)
	for _, art := range articles {
		v := byID[art.ID]
		if !v.IsRelevant {
			irrelevant++
			continue
		}
		relevant = append(relevant, scoredCandidate{article: art, relevance: v.Score})
	}
	return relevant, irrelevant
}

type scoredCandidate struct {
	article   domain.NormalizedArticle
	relevance float64
}

// scoreAll runs severity scoring under the concurrency bound. Once the
// deadline expires, remaining articles are dropped with a diagnostic count
// rather than blocking the report.
func (a *Assessor) scoreAll(ctx context.Context, q domain.Query, candidates []scoredCandidate) ([]domain.ScoredArticle, int) {
	results := make([]*domain.ScoredArticle, len(candidates))
	var unscored atomic.Int64

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			if ctx.Err() != nil {
				unscored.Add(1)
				return nil
			}
			assessment, err := a.scorer.Score(ctx, q, candidate.article)
			if err != nil {
				unscored.Add(1)
				a.logger.Warn("article left unscored", "article", candidate.article.Title, "error", err)
				return nil
			}
			results[i] = &domain.ScoredArticle{
				Article:    candidate.article,
				Assessment: assessment,
				Relevance:  candidate.relevance,
			}
			return nil
		})
	}
	_ = g.Wait()

	scored := make([]domain.ScoredArticle, 0, len(candidates))
	for _, r := range results {
		if r != nil {
			scored = append(scored, *r)
		}
	}
	return scored, int(unscored.Load())
}

func (a *Assessor) evaluateWeather(ctx context.Context, country string) domain.WeatherSignal {
	if a.weather == nil || a.evaluator == nil {
		return weather.Unavailable()
	}
	metrics, err := a.weather.Fetch(ctx, country)
	if err != nil {
		a.logger.Warn("weather source unavailable", "location", country, "error", err)
		return weather.Unavailable()
	}
	return a.evaluator.Evaluate(metrics)
}

func (a *Assessor) persist(ctx context.Context, report domain.RiskReport) {
	if a.repository == nil {
		return
	}
	if err := a.repository.Save(ctx, report); err != nil {
		a.logger.Warn("report persistence failed", "report", report.ID, "error", err)
	}
}

// alert pushes high and critical reports to the notification channel.
func (a *Assessor) alert(ctx context.Context, report domain.RiskReport) {
	if a.notifier == nil {
		return
	}
	if report.OverallRisk != domain.RiskHigh && report.OverallRisk != domain.RiskCritical {
		return
	}
	message := fmt.Sprintf("%s risk %.1f/10 for %s from %s: %s",
		report.OverallRisk, report.RiskScore, report.Product, report.Country, report.Message)
	if err := a.notifier.PublishAlert(ctx, message); err != nil {
		a.logger.Warn("alert delivery failed", "report", report.ID, "error", err)
	}
}
