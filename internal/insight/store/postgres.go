package store

import (
	"context"
	"database/sql"
	"fmt"

	"insighthub/internal/insight/models"
	"insighthub/pkg/platform/sentinel"
	"insighthub/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListCurrent(ctx context.Context, category models.Category) ([]*models.Insight, error) {
	query := `
		SELECT insight_id, age_group, region, risk_score, insight_category, insight_text, generated_at
		FROM analytics.current_ai_insights
		WHERE ($1 = '' OR UPPER(insight_category) = $1)
		ORDER BY risk_score DESC, insight_id
	`
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, string(category))
	if err != nil {
		return nil, fmt.Errorf("list insights: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []*models.Insight
	for rows.Next() {
		var in models.Insight
		var cat string
		if err := rows.Scan(&in.InsightID, &in.AgeGroup, &in.Region, &in.RiskScore, &cat, &in.Text, &in.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		in.Category = models.Category(cat)
		out = append(out, &in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insights: %w: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

// Insert is used by fixtures; production rows come from the batch procedure.
func (s *PostgresStore) Insert(ctx context.Context, in *models.Insight) error {
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO analytics.current_ai_insights
			(insight_id, age_group, region, risk_score, insight_category, insight_text, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, in.InsightID, in.AgeGroup, in.Region, in.RiskScore, string(in.Category), in.Text, in.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}
