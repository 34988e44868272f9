// Package aggregate merges per-article severities and the weather signal into
// the final risk report. Aggregation is a pure function of its inputs and
// performs no I/O; the caller stamps report identity and timestamps.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"GeoTradeAI/internal/domain"
)

// Config parameterizes the report computation. The risk score is the average
// of the top-k article severities plus a weather addend, clamped to [0, 10];
// the overall level derives from the breakpoints.
type Config struct {
	TopK int

	WeatherLowAdd  float64
	WeatherMedAdd  float64
	WeatherHighAdd float64

	BreakpointLow  float64 // below: low
	BreakpointMed  float64 // below: medium
	BreakpointHigh float64 // below: high, at or above: critical

	MaxConcerns int
	MaxActions  int
}

// Diagnostics carries the counts of records dropped earlier in the pipeline.
// They drive the report status and are surfaced for observability only.
type Diagnostics struct {
	Irrelevant      int
	Duplicates      int
	Unscored        int
	DegradedSources int
}

// Aggregator builds risk reports.
type Aggregator struct {
	cfg Config
}

// New builds an aggregator.
func New(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate computes the report body. Output is independent of the input
// order: articles are ranked by severity with stable tie-breaking before any
// list field is derived. ID and GeneratedAt are left for the caller.
func (a *Aggregator) Aggregate(q domain.Query, scored []domain.ScoredArticle, weather domain.WeatherSignal, diag Diagnostics) domain.RiskReport {
	ranked := rankBySeverity(scored)

	score := a.riskScore(ranked, weather)
	level := a.riskLevel(score)
	status, message := a.status(q, len(ranked), weather, diag)

	return domain.RiskReport{
		Product: q.Product,
		Country: q.Country,

		OverallRisk: level,
		RiskScore:   score,
		TotalEvents: len(ranked),

		TopConcerns:        a.topConcerns(ranked),
		RecommendedActions: a.recommendedActions(ranked),

		Articles: ranked,
		Weather:  weather,

		Status:  status,
		Message: message,

		IrrelevantCount: diag.Irrelevant,
		DuplicateCount:  diag.Duplicates,
		UnscoredCount:   diag.Unscored,
	}
}

// rankBySeverity orders a copy of the input by severity descending, breaking
// ties on title and then article id so permuted inputs rank identically.
func rankBySeverity(scored []domain.ScoredArticle) []domain.ScoredArticle {
	ranked := make([]domain.ScoredArticle, len(scored))
	copy(ranked, scored)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Assessment.Score != ranked[j].Assessment.Score {
			return ranked[i].Assessment.Score > ranked[j].Assessment.Score
		}
		if ranked[i].Article.Title != ranked[j].Article.Title {
			return ranked[i].Article.Title < ranked[j].Article.Title
		}
		return ranked[i].Article.ID < ranked[j].Article.ID
	})
	return ranked
}

func (a *Aggregator) riskScore(ranked []domain.ScoredArticle, weather domain.WeatherSignal) float64 {
	var base float64
	if len(ranked) > 0 {
		k := a.cfg.TopK
		if k > len(ranked) {
			k = len(ranked)
		}
		var sum float64
		for _, art := range ranked[:k] {
			sum += art.Assessment.Score
		}
		base = sum / float64(k)
	}

	score := base + a.weatherAddend(weather)
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return math.Round(score*10) / 10
}

// weatherAddend only applies to real observations; an unavailable source must
// not nudge the score.
func (a *Aggregator) weatherAddend(weather domain.WeatherSignal) float64 {
	if weather.Status != domain.WeatherOK {
		return 0
	}
	switch weather.Impact {
	case domain.ImpactLow:
		return a.cfg.WeatherLowAdd
	case domain.ImpactMedium:
		return a.cfg.WeatherMedAdd
	case domain.ImpactHigh:
		return a.cfg.WeatherHighAdd
	default:
		return 0
	}
}

func (a *Aggregator) riskLevel(score float64) domain.RiskLevel {
	switch {
	case score < a.cfg.BreakpointLow:
		return domain.RiskLow
	case score < a.cfg.BreakpointMed:
		return domain.RiskMedium
	case score < a.cfg.BreakpointHigh:
		return domain.RiskHigh
	default:
		return domain.RiskCritical
	}
}

// topConcerns lists the highest-severity article titles, deduplicated by
// near-identical text and capped.
func (a *Aggregator) topConcerns(ranked []domain.ScoredArticle) []string {
	var concerns []string
	seen := make(map[string]struct{})
	for _, art := range ranked {
		title := strings.TrimSpace(art.Article.Title)
		if title == "" {
			continue
		}
		key := textKey(title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		concerns = append(concerns, title)
		if len(concerns) == a.cfg.MaxConcerns {
			break
		}
	}
	return concerns
}

// recommendedActions merges per-article recommendations in severity order,
// deduplicated and capped.
func (a *Aggregator) recommendedActions(ranked []domain.ScoredArticle) []string {
	var actions []string
	seen := make(map[string]struct{})
	for _, art := range ranked {
		for _, action := range art.Assessment.Actions {
			action = strings.TrimSpace(action)
			if action == "" {
				continue
			}
			key := textKey(action)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			actions = append(actions, action)
			if len(actions) == a.cfg.MaxActions {
				return actions
			}
		}
	}
	return actions
}

func (a *Aggregator) status(q domain.Query, events int, weather domain.WeatherSignal, diag Diagnostics) (domain.ReportStatus, string) {
	weatherDown := weather.Status == domain.WeatherUnavailable

	if events == 0 && weatherDown {
		return domain.StatusError, "no articles and no weather data could be produced"
	}

	var degradations []string
	if weatherDown {
		degradations = append(degradations, "weather data unavailable")
	}
	if diag.Unscored > 0 {
		degradations = append(degradations, fmt.Sprintf("%d articles left unscored", diag.Unscored))
	}
	if diag.DegradedSources > 0 {
		degradations = append(degradations, fmt.Sprintf("%d news sources unavailable", diag.DegradedSources))
	}
	if len(degradations) > 0 {
		return domain.StatusWarning, fmt.Sprintf("partial assessment of %s from %s: %s",
			q.Product, q.Country, strings.Join(degradations, ", "))
	}

	return domain.StatusSuccess, fmt.Sprintf("assessed %d events for %s from %s", events, q.Product, q.Country)
}

// textKey canonicalizes a phrase for near-identical deduplication.
func textKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
