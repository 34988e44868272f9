package usecase

import (
	"context"
	"log/slog"

	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/ports"
)

// RouteWatcher re-assesses a fixed set of (product, country) routes on the
// scheduler's cadence. Failures on one route never stop the others.
type RouteWatcher struct {
	assessor  *Assessor
	scheduler ports.Scheduler
	routes    []domain.Query
	logger    *slog.Logger
}

// NewRouteWatcher wires the recurring assessment job.
func NewRouteWatcher(assessor *Assessor, scheduler ports.Scheduler, routes []domain.Query, logger *slog.Logger) *RouteWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteWatcher{
		assessor:  assessor,
		scheduler: scheduler,
		routes:    routes,
		logger:    logger.With("component", "route-watcher"),
	}
}

// Run registers the recurring job and blocks until the scheduler stops.
func (w *RouteWatcher) Run(ctx context.Context) error {
	if len(w.routes) == 0 {
		w.logger.Info("no routes configured, watcher idle")
		return nil
	}
	return w.scheduler.Start(ctx, func() {
		w.assessAll(ctx)
	})
}

// Stop shuts the scheduler down.
func (w *RouteWatcher) Stop(ctx context.Context) error {
	return w.scheduler.Stop(ctx)
}

func (w *RouteWatcher) assessAll(ctx context.Context) {
	for _, route := range w.routes {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.assessor.Assess(ctx, route); err != nil {
			w.logger.Error("scheduled assessment failed",
				"product", route.Product, "country", route.Country, "error", err)
		}
	}
}
