package severity

import (
	"context"
	"fmt"
	"log/slog"

	"GeoTradeAI/internal/domain"
)

// FallbackChain tries strategies in order and returns the first successful
// assessment. Typical wiring is model first, rules last: the rules strategy
// never fails, so the chain always produces an assessment.
type FallbackChain struct {
	strategies []Strategy
	logger     *slog.Logger
}

var _ Strategy = (*FallbackChain)(nil)

// NewFallbackChain wires strategies in priority order.
func NewFallbackChain(logger *slog.Logger, strategies ...Strategy) *FallbackChain {
	return &FallbackChain{strategies: strategies, logger: logger}
}

// Name identifies the chain in logs.
func (c *FallbackChain) Name() string { return "fallback-chain" }

// Score runs each strategy until one succeeds. Degradation is silent apart
// from a debug log: an unreachable model must not block the pipeline.
func (c *FallbackChain) Score(ctx context.Context, q domain.Query, art domain.NormalizedArticle) (domain.SeverityAssessment, error) {
	var lastErr error
	for _, strategy := range c.strategies {
		assessment, err := strategy.Score(ctx, q, art)
		if err == nil {
			return assessment, nil
		}
		lastErr = err
		if c.logger != nil {
			c.logger.Debug("severity strategy failed, trying next",
				"strategy", strategy.Name(), "article", art.Title, "error", err)
		}
	}
	return domain.SeverityAssessment{}, fmt.Errorf("all severity strategies failed: %w", lastErr)
}
