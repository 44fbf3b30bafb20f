package store

import (
	"context"
	"database/sql"
	"fmt"

	"insighthub/internal/segment/models"
	"insighthub/pkg/platform/sentinel"
	"insighthub/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Segment, error) {
	query := `
		SELECT age_group, region, combined_risk_score, bank_risk_score, agency_risk_score,
			bank_customers, agency_beneficiaries, refreshed_at
		FROM analytics.combined_risk_insights
		ORDER BY combined_risk_score DESC, age_group, region
	`
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []*models.Segment
	for rows.Next() {
		var seg models.Segment
		if err := rows.Scan(&seg.AgeGroup, &seg.Region, &seg.CombinedRiskScore, &seg.BankRiskScore,
			&seg.AgencyRiskScore, &seg.BankCustomers, &seg.AgencyBeneficiaries, &seg.RefreshedAt); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		out = append(out, &seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

func (s *PostgresStore) Totals(ctx context.Context) (models.Totals, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE combined_risk_score > $1),
			COALESCE(AVG(combined_risk_score), 0),
			COALESCE(SUM(agency_beneficiaries), 0)::BIGINT
		FROM analytics.combined_risk_insights
	`
	var t models.Totals
	err := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, models.HighRiskThreshold).
		Scan(&t.TotalSegments, &t.HighRiskSegments, &t.AverageRiskScore, &t.TotalBeneficiaries)
	if err != nil {
		return models.Totals{}, fmt.Errorf("segment totals: %w: %w", sentinel.ErrUnavailable, err)
	}
	t.HighRiskPercent = models.Percent(t.HighRiskSegments, t.TotalSegments)
	return t, nil
}

func (s *PostgresStore) GroupMeans(ctx context.Context, dim models.Dimension) ([]models.GroupMean, error) {
	var column string
	switch dim {
	case models.ByAgeGroup:
		column = "age_group"
	case models.ByRegion:
		column = "region"
	default:
		return nil, fmt.Errorf("unknown dimension %q", dim)
	}

	// column comes from the switch above, never from input.
	query := `
		SELECT ` + column + `, AVG(combined_risk_score), COUNT(*)
		FROM analytics.combined_risk_insights
		GROUP BY ` + column + `
		ORDER BY ` + column
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("segment means: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	out := []models.GroupMean{}
	for rows.Next() {
		var g models.GroupMean
		if err := rows.Scan(&g.Key, &g.MeanScore, &g.Segments); err != nil {
			return nil, fmt.Errorf("scan segment mean: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segment means: %w: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

// Upsert loads fixture rows; the combiner owns production writes.
func (s *PostgresStore) Upsert(ctx context.Context, seg *models.Segment) error {
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO analytics.combined_risk_insights
			(age_group, region, combined_risk_score, bank_risk_score, agency_risk_score,
			 bank_customers, agency_beneficiaries, refreshed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (age_group, region) DO UPDATE SET
			combined_risk_score = EXCLUDED.combined_risk_score,
			bank_risk_score = EXCLUDED.bank_risk_score,
			agency_risk_score = EXCLUDED.agency_risk_score,
			bank_customers = EXCLUDED.bank_customers,
			agency_beneficiaries = EXCLUDED.agency_beneficiaries,
			refreshed_at = EXCLUDED.refreshed_at
	`, seg.AgeGroup, seg.Region, seg.CombinedRiskScore, seg.BankRiskScore, seg.AgencyRiskScore,
		seg.BankCustomers, seg.AgencyBeneficiaries, seg.RefreshedAt)
	if err != nil {
		return fmt.Errorf("upsert segment: %w", err)
	}
	return nil
}
