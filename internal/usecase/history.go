package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"GeoTradeAI/internal/anomaly"
	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/ports"
)

// HistoryAnalyzer reviews persisted reports and flags risk scores that break
// from the recent pattern.
type HistoryAnalyzer struct {
	repository ports.ReportRepository
	detector   *anomaly.Detector
	logger     *slog.Logger
}

// NewHistoryAnalyzer wires the report history to the anomaly detector.
func NewHistoryAnalyzer(repository ports.ReportRepository, detector *anomaly.Detector, logger *slog.Logger) *HistoryAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryAnalyzer{
		repository: repository,
		detector:   detector,
		logger:     logger.With("component", "history"),
	}
}

// Review loads the most recent reports and runs anomaly detection over them
// in chronological order.
func (h *HistoryAnalyzer) Review(ctx context.Context, limit int) ([]domain.RiskReport, []anomaly.Finding, error) {
	if h.repository == nil {
		return nil, nil, fmt.Errorf("%w: no report history configured", domain.ErrConfiguration)
	}

	reports, err := h.repository.ListRecent(ctx, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("load report history: %w", err)
	}

	// ListRecent returns newest first; the detector needs oldest first so
	// each report is judged against the history that preceded it.
	chronological := make([]domain.RiskReport, len(reports))
	for i, report := range reports {
		chronological[len(reports)-1-i] = report
	}

	findings := h.detector.Detect(chronological)
	h.logger.Info("history reviewed", "reports", len(reports), "anomalies", len(findings))
	return chronological, findings, nil
}
