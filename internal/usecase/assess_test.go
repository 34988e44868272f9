package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"GeoTradeAI/internal/aggregate"
	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/normalize"
	"GeoTradeAI/internal/ports"
	"GeoTradeAI/internal/relevance"
	"GeoTradeAI/internal/weather"
)

type fakeProvider struct {
	name     string
	articles []domain.RawArticle
	err      error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Fetch(context.Context, domain.Query) ([]domain.RawArticle, error) {
	return p.articles, p.err
}

// uniformEmbedder maps every text to the same vector, so cosine similarity is
// always 1.0 and only the keyword veto can reject an article.
type uniformEmbedder struct{}

func (uniformEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{1, 0, 0}, nil
}

type titleScorer struct {
	scores map[string]float64
	err    error

	mu    sync.Mutex
	calls int
}

func (s *titleScorer) Name() string { return "title-scorer" }

func (s *titleScorer) Score(_ context.Context, _ domain.Query, art domain.NormalizedArticle) (domain.SeverityAssessment, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return domain.SeverityAssessment{}, s.err
	}
	score := 5.0
	for fragment, v := range s.scores {
		if strings.Contains(art.Title, fragment) {
			score = v
			break
		}
	}
	return domain.SeverityAssessment{
		ArticleID: art.ID,
		Score:     score,
		Category:  domain.CategorySupplyChain,
		Actions:   []string{"Monitor destination port for unloading delays"},
	}, nil
}

// stallingScorer answers its first call immediately and blocks every later
// call until the context expires.
type stallingScorer struct {
	mu    sync.Mutex
	calls int
}

func (s *stallingScorer) Name() string { return "stalling-scorer" }

func (s *stallingScorer) Score(ctx context.Context, _ domain.Query, art domain.NormalizedArticle) (domain.SeverityAssessment, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()
	if !first {
		<-ctx.Done()
		return domain.SeverityAssessment{}, ctx.Err()
	}
	return domain.SeverityAssessment{
		ArticleID: art.ID,
		Score:     6.0,
		Category:  domain.CategorySupplyChain,
	}, nil
}

type fakeWeatherSource struct {
	metrics domain.WeatherMetrics
	err     error
}

func (s *fakeWeatherSource) Fetch(context.Context, string) (domain.WeatherMetrics, error) {
	return s.metrics, s.err
}

type fakeRepository struct {
	mu    sync.Mutex
	saved []domain.RiskReport
	err   error
}

func (r *fakeRepository) Save(_ context.Context, report domain.RiskReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, report)
	return r.err
}

func (r *fakeRepository) ListRecent(context.Context, int) ([]domain.RiskReport, error) {
	return nil, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) PublishAlert(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func calmWeatherSource() *fakeWeatherSource {
	return &fakeWeatherSource{metrics: domain.WeatherMetrics{
		Location: "Shanghai", Condition: "Sunny", WindSpeed: 3, Visibility: 10, Temperature: 20,
	}}
}

func stormyWeatherSource() *fakeWeatherSource {
	return &fakeWeatherSource{metrics: domain.WeatherMetrics{
		Location: "Shanghai", Condition: "Thundery outbreaks",
		WindSpeed: 24, WindGust: 30, Precipitation: 80, Visibility: 0.5, Temperature: 20,
	}}
}

func testDeps(providers []domain.RawArticle, scorer *titleScorer, weatherSrc *fakeWeatherSource) AssessorDeps {
	return AssessorDeps{
		Providers: []ports.ArticleProvider{
			&fakeProvider{name: "newsapi", articles: providers},
		},
		Normalizer: normalize.New(0.85),
		Filter: relevance.New(uniformEmbedder{}, relevance.Config{
			Threshold:      0.35,
			CountryBoost:   0.25,
			NoiseCountries: []string{"india"},
		}, []string{"tanger med", "morocco"}, nil),
		Scorer:  scorer,
		Weather: weatherSrc,
		Evaluator: weather.New(weather.Thresholds{
			WindStrong: 10, WindSevere: 20, GustSevere: 25,
			PrecipitationMM: 50, VisibilityPoorKM: 1,
			HeatExtremeC: 40, ColdExtremeC: -10,
			LowMaxPoints: 3, MediumMaxPoints: 6,
		}),
		Aggregator: aggregate.New(aggregate.Config{
			TopK: 3, WeatherLowAdd: 0.5, WeatherMedAdd: 1.0, WeatherHighAdd: 2.0,
			BreakpointLow: 3, BreakpointMed: 6, BreakpointHigh: 8,
			MaxConcerns: 5, MaxActions: 5,
		}),
		ScoringConcurrency: 1,
		Timeout:            5 * time.Second,
	}
}

func testQuery() domain.Query {
	return domain.Query{Product: "Electronics", Country: "China", DaysBack: 7}
}

func TestAssessHappyPath(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	articles := []domain.RawArticle{
		{Source: "Reuters", Title: "Port strike halts Tanger Med operations",
			PublishedAt: now.Format(time.RFC3339)},
		{Source: "Reuters", Title: "Port strike halts Tanger Med operations",
			PublishedAt: now.Add(-24 * time.Hour).Format(time.RFC3339)},
		{Source: "GNews", Title: "China announces new export tariff on electronics",
			PublishedAt: now.Format(time.RFC3339)},
	}
	scorer := &titleScorer{scores: map[string]float64{"strike": 7.0, "tariff": 5.0}}
	repo := &fakeRepository{}

	deps := testDeps(articles, scorer, calmWeatherSource())
	deps.Repository = repo
	report, err := NewAssessor(deps).Assess(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Assess error: %v", err)
	}

	if report.TotalEvents != 2 {
		t.Fatalf("expected 2 events after dedup, got %d", report.TotalEvents)
	}
	if report.DuplicateCount != 1 {
		t.Fatalf("expected 1 duplicate, got %d", report.DuplicateCount)
	}
	if report.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", report.Status, report.Message)
	}
	// (7 + 5) / 2 = 6.0, calm weather adds nothing.
	if report.RiskScore != 6.0 {
		t.Fatalf("expected 6.0, got %v", report.RiskScore)
	}
	if report.ID == "" || report.GeneratedAt.IsZero() {
		t.Fatalf("report identity not stamped: %+v", report)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected 1 persisted report, got %d", len(repo.saved))
	}
}

func TestAssessProviderFailureDegrades(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Format(time.RFC3339)
	scorer := &titleScorer{scores: map[string]float64{"strike": 6.0}}
	deps := testDeps(nil, scorer, calmWeatherSource())
	deps.Providers = []ports.ArticleProvider{
		&fakeProvider{name: "newsapi", err: domain.ErrProviderUnavailable},
		&fakeProvider{name: "gnews", articles: []domain.RawArticle{
			{Source: "GNews", Title: "Dock strike slows Shanghai port", PublishedAt: now},
		}},
	}

	report, err := NewAssessor(deps).Assess(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("provider failure must not abort: %v", err)
	}
	if report.Status != domain.StatusWarning {
		t.Fatalf("expected warning on degraded source, got %s", report.Status)
	}
	if report.TotalEvents != 1 {
		t.Fatalf("expected surviving provider's article, got %d events", report.TotalEvents)
	}
}

func TestAssessNothingProducedIsErrorStatus(t *testing.T) {
	t.Parallel()

	scorer := &titleScorer{}
	deps := testDeps(nil, scorer, &fakeWeatherSource{err: domain.ErrProviderUnavailable})
	deps.Providers = []ports.ArticleProvider{
		&fakeProvider{name: "newsapi", err: domain.ErrProviderUnavailable},
	}

	report, err := NewAssessor(deps).Assess(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("degradation is a status, not an error: %v", err)
	}
	if report.Status != domain.StatusError {
		t.Fatalf("expected error status, got %s", report.Status)
	}
	if report.Weather.Status != domain.WeatherUnavailable {
		t.Fatalf("expected unavailable weather, got %s", report.Weather.Status)
	}
}

func TestAssessNotifiesOnHighRisk(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Format(time.RFC3339)
	scorer := &titleScorer{scores: map[string]float64{"attack": 9.0}}
	notifier := &fakeNotifier{}

	deps := testDeps([]domain.RawArticle{
		{Source: "Reuters", Title: "Armed attack closes shipping lane", PublishedAt: now},
	}, scorer, stormyWeatherSource())
	deps.Notifier = notifier

	report, err := NewAssessor(deps).Assess(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Assess error: %v", err)
	}
	// 9.0 + 2.0 clamps at 10.0 -> critical.
	if report.OverallRisk != domain.RiskCritical {
		t.Fatalf("expected critical, got %s", report.OverallRisk)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], "critical") {
		t.Fatalf("alert must name the risk level: %q", notifier.messages[0])
	}
}

func TestAssessNoAlertOnLowRisk(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Format(time.RFC3339)
	scorer := &titleScorer{scores: map[string]float64{"delay": 2.0}}
	notifier := &fakeNotifier{}

	deps := testDeps([]domain.RawArticle{
		{Source: "Reuters", Title: "Minor delay at Shanghai port", PublishedAt: now},
	}, scorer, calmWeatherSource())
	deps.Notifier = notifier

	if _, err := NewAssessor(deps).Assess(context.Background(), testQuery()); err != nil {
		t.Fatalf("Assess error: %v", err)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("low risk must not alert, got %v", notifier.messages)
	}
}

func TestAssessNoiseArticleCountedIrrelevant(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Format(time.RFC3339)
	scorer := &titleScorer{scores: map[string]float64{"strike": 6.0}}
	deps := testDeps([]domain.RawArticle{
		{Source: "Reuters", Title: "Dock strike slows Shanghai port", PublishedAt: now},
		{Source: "Reuters", Title: "Monsoon season starts in India", PublishedAt: now},
	}, scorer, calmWeatherSource())

	report, err := NewAssessor(deps).Assess(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Assess error: %v", err)
	}
	if report.TotalEvents != 1 {
		t.Fatalf("expected noise article filtered, got %d events", report.TotalEvents)
	}
	if report.IrrelevantCount != 1 {
		t.Fatalf("expected 1 irrelevant, got %d", report.IrrelevantCount)
	}
}

func TestAssessScoringFailureCountsUnscored(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Format(time.RFC3339)
	scorer := &titleScorer{err: errors.New("all strategies down")}
	deps := testDeps([]domain.RawArticle{
		{Source: "Reuters", Title: "Dock strike slows Shanghai port", PublishedAt: now},
	}, scorer, calmWeatherSource())

	report, err := NewAssessor(deps).Assess(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Assess error: %v", err)
	}
	if report.UnscoredCount != 1 {
		t.Fatalf("expected 1 unscored, got %d", report.UnscoredCount)
	}
	if report.Status != domain.StatusWarning {
		t.Fatalf("expected warning, got %s", report.Status)
	}
	if report.TotalEvents != 0 {
		t.Fatalf("unscored articles must not reach the report, got %d", report.TotalEvents)
	}
}

func TestAssessDeadlineAggregatesPartialResults(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Format(time.RFC3339)
	articles := []domain.RawArticle{
		{Source: "Reuters", Title: "Dock strike slows Shanghai port", PublishedAt: now},
		{Source: "GNews", Title: "Typhoon closes Ningbo container terminal", PublishedAt: now},
		{Source: "Reuters", Title: "Customs outage delays export clearance", PublishedAt: now},
	}
	deps := testDeps(articles, &titleScorer{}, calmWeatherSource())
	deps.Scorer = &stallingScorer{}
	deps.Timeout = 50 * time.Millisecond

	report, err := NewAssessor(deps).Assess(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("deadline expiry must not abort: %v", err)
	}
	if report.TotalEvents != 1 {
		t.Fatalf("expected the article scored before the deadline, got %d events", report.TotalEvents)
	}
	if report.UnscoredCount != 2 {
		t.Fatalf("expected 2 unscored after deadline, got %d", report.UnscoredCount)
	}
	if report.Status != domain.StatusWarning {
		t.Fatalf("expected warning on partial scoring, got %s", report.Status)
	}
}

func TestAssessRejectsIncompleteQuery(t *testing.T) {
	t.Parallel()

	deps := testDeps(nil, &titleScorer{}, calmWeatherSource())
	_, err := NewAssessor(deps).Assess(context.Background(), domain.Query{Product: "Electronics"})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
