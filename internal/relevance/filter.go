package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/ports"
)

// Config controls the semantic filter thresholds.
type Config struct {
	// Threshold is the inclusive cosine-similarity boundary: an article
	// scoring exactly the threshold is relevant.
	Threshold float64
	// CountryBoost is added to the similarity when destination keywords
	// appear in the article text.
	CountryBoost float64
	// NoiseCountries veto articles that concern unrelated third countries
	// without mentioning the destination.
	NoiseCountries []string
}

// Filter scores articles against the (product, country) query in embedding
// space, with a keyword pass boosting destination mentions and vetoing
// third-country noise. It performs no network calls beyond the injected
// embedder and never mutates articles.
type Filter struct {
	embedder ports.Embedder
	cfg      Config
	boosts   []string
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string][]float64
}

// New wires the embedding port with filter configuration. boostKeywords are
// the destination's ports and regulatory vocabulary.
func New(embedder ports.Embedder, cfg Config, boostKeywords []string, logger *slog.Logger) *Filter {
	lowered := make([]string, 0, len(boostKeywords))
	for _, kw := range boostKeywords {
		lowered = append(lowered, strings.ToLower(kw))
	}
	return &Filter{
		embedder: embedder,
		cfg:      cfg,
		boosts:   lowered,
		logger:   logger,
		cache:    map[string][]float64{},
	}
}

// Score produces one verdict per article. Articles with empty bodies are
// scored on title alone; nothing is dropped without a verdict.
func (f *Filter) Score(ctx context.Context, q domain.Query, articles []domain.NormalizedArticle) ([]domain.RelevanceVerdict, error) {
	queryVec, err := f.embed(ctx, f.queryText(q))
	if err != nil {
		f.debug("query embedding failed, using keyword fallback", "error", err)
		return f.keywordFallback(q, articles), nil
	}

	verdicts := make([]domain.RelevanceVerdict, 0, len(articles))
	for _, art := range articles {
		verdicts = append(verdicts, f.scoreOne(ctx, q, queryVec, art))
	}
	return verdicts, nil
}

func (f *Filter) scoreOne(ctx context.Context, q domain.Query, queryVec []float64, art domain.NormalizedArticle) domain.RelevanceVerdict {
	text := strings.ToLower(art.Text())

	if f.isNoise(text) {
		return domain.RelevanceVerdict{ArticleID: art.ID, Score: 0, IsRelevant: false}
	}

	vec, err := f.embed(ctx, art.Text())
	if err != nil {
		f.debug("article embedding failed, keyword-only score", "article", art.Title, "error", err)
		return f.keywordVerdict(q, art)
	}

	sim := clamp01(cosine(queryVec, vec))
	if f.hasBoost(text) || containsCountry(text, q.Country) {
		sim = math.Min(0.99, sim+f.cfg.CountryBoost)
	}

	return domain.RelevanceVerdict{
		ArticleID:  art.ID,
		Score:      round1(sim * 10),
		IsRelevant: sim >= f.cfg.Threshold,
	}
}

// queryText builds the semantic query representation: product and source
// country framed by the destination's logistics vocabulary.
func (f *Filter) queryText(q domain.Query) string {
	return fmt.Sprintf(
		"Trade disruption affecting imports of %s from %s: port congestion, "+
			"customs clearance delay, tariff or regulatory change, export ban, "+
			"strike or factory closure, shipping lane disruption, supply chain risk. %s",
		q.Product, q.Country, strings.Join(f.boosts, " "),
	)
}

func (f *Filter) isNoise(text string) bool {
	for _, kw := range f.boosts {
		if strings.Contains(text, kw) {
			return false
		}
	}
	for _, noise := range f.cfg.NoiseCountries {
		if strings.Contains(text, strings.ToLower(noise)) {
			return true
		}
	}
	return false
}

func (f *Filter) hasBoost(text string) bool {
	for _, kw := range f.boosts {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func containsCountry(text, country string) bool {
	country = strings.ToLower(strings.TrimSpace(country))
	return country != "" && strings.Contains(text, country)
}

// keywordFallback scores every article from keywords alone when the
// embedding service is down, so the pipeline still produces verdicts.
func (f *Filter) keywordFallback(q domain.Query, articles []domain.NormalizedArticle) []domain.RelevanceVerdict {
	verdicts := make([]domain.RelevanceVerdict, 0, len(articles))
	for _, art := range articles {
		verdicts = append(verdicts, f.keywordVerdict(q, art))
	}
	return verdicts
}

func (f *Filter) keywordVerdict(q domain.Query, art domain.NormalizedArticle) domain.RelevanceVerdict {
	text := strings.ToLower(art.Text())
	if f.isNoise(text) {
		return domain.RelevanceVerdict{ArticleID: art.ID, Score: 0, IsRelevant: false}
	}
	if f.hasBoost(text) || containsCountry(text, q.Country) {
		return domain.RelevanceVerdict{ArticleID: art.ID, Score: 5, IsRelevant: true}
	}
	return domain.RelevanceVerdict{ArticleID: art.ID, Score: 1, IsRelevant: false}
}

// embed consults the process-scoped cache before calling the service; the
// cache is only written under the mutex and never evicted within a run.
func (f *Filter) embed(ctx context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	if vec, ok := f.cache[text]; ok {
		f.mu.Unlock()
		return vec, nil
	}
	f.mu.Unlock()

	vec, err := f.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.cache[text] = vec
	f.mu.Unlock()
	return vec, nil
}

func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (f *Filter) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
