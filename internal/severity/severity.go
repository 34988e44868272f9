// Package severity assigns each relevant article a 0-10 disruption score.
//
// Two interchangeable strategies implement the same contract: a deterministic
// rule engine (keyword base score, geographic multiplier, recency urgency)
// and a model-assisted scorer that prompts a generation service and repairs
// its semi-structured output. A fallback chain prefers the model and degrades
// to the rules so the pipeline never blocks on an unreachable dependency.
package severity

import (
	"context"
	"math"

	"GeoTradeAI/internal/domain"
)

// Strategy maps one article to a severity assessment.
type Strategy interface {
	Name() string
	Score(ctx context.Context, q domain.Query, art domain.NormalizedArticle) (domain.SeverityAssessment, error)
}

func clampScore(v float64) float64 {
	return math.Round(math.Max(0, math.Min(10, v))*10) / 10
}
