// Package storage persists finished risk reports into Postgres.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/ports"
)

// PostgresRepository stores risk reports for history and audit. Article and
// weather details go into a JSONB column; the scalar report fields are
// first-class columns so history queries stay cheap.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ReportRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// reportDetails is the JSONB payload holding the non-scalar report parts.
type reportDetails struct {
	Articles []domain.ScoredArticle `json:"articles"`
	Weather  domain.WeatherSignal   `json:"weather"`

	IrrelevantCount int `json:"irrelevantCount"`
	DuplicateCount  int `json:"duplicateCount"`
	UnscoredCount   int `json:"unscoredCount"`
}

// Save inserts the report; saving the same report id twice is an upsert.
func (r *PostgresRepository) Save(ctx context.Context, report domain.RiskReport) error {
	if r.db == nil {
		return nil
	}

	details, err := json.Marshal(reportDetails{
		Articles:        report.Articles,
		Weather:         report.Weather,
		IrrelevantCount: report.IrrelevantCount,
		DuplicateCount:  report.DuplicateCount,
		UnscoredCount:   report.UnscoredCount,
	})
	if err != nil {
		return fmt.Errorf("marshal report details: %w", err)
	}

	query, args, err := r.builder.
		Insert("risk_reports").
		Columns("id", "product", "country", "generated_at",
			"overall_risk", "risk_score", "total_events",
			"top_concerns", "recommended_actions",
			"status", "message", "details").
		Values(report.ID, report.Product, report.Country, report.GeneratedAt,
			string(report.OverallRisk), report.RiskScore, report.TotalEvents,
			pq.StringArray(report.TopConcerns), pq.StringArray(report.RecommendedActions),
			string(report.Status), report.Message, details).
		Suffix(`ON CONFLICT (id) DO UPDATE
			SET overall_risk = EXCLUDED.overall_risk,
			    risk_score = EXCLUDED.risk_score,
			    total_events = EXCLUDED.total_events,
			    top_concerns = EXCLUDED.top_concerns,
			    recommended_actions = EXCLUDED.recommended_actions,
			    status = EXCLUDED.status,
			    message = EXCLUDED.message,
			    details = EXCLUDED.details`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListRecent returns the newest reports, most recent first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]domain.RiskReport, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query, args, err := r.builder.
		Select("id", "product", "country", "generated_at",
			"overall_risk", "risk_score", "total_events",
			"top_concerns", "recommended_actions",
			"status", "message", "details").
		From("risk_reports").
		OrderBy("generated_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.RiskReport
	for rows.Next() {
		var (
			report   domain.RiskReport
			concerns pq.StringArray
			actions  pq.StringArray
			rawJSON  []byte
		)
		err := rows.Scan(&report.ID, &report.Product, &report.Country, &report.GeneratedAt,
			&report.OverallRisk, &report.RiskScore, &report.TotalEvents,
			&concerns, &actions,
			&report.Status, &report.Message, &rawJSON)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}

		report.TopConcerns = concerns
		report.RecommendedActions = actions

		var details reportDetails
		if err := json.Unmarshal(rawJSON, &details); err != nil {
			return nil, fmt.Errorf("unmarshal report details: %w", err)
		}
		report.Articles = details.Articles
		report.Weather = details.Weather
		report.IrrelevantCount = details.IrrelevantCount
		report.DuplicateCount = details.DuplicateCount
		report.UnscoredCount = details.UnscoredCount

		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return reports, nil
}
