package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"insighthub/internal/alert/models"
	"insighthub/pkg/platform/sentinel"
	"insighthub/pkg/platform/tx"
)

// PostgresStore reads and transitions rows in analytics.anomaly_alerts.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const alertColumns = `alert_id, alert_type, age_group, region, metric_name, current_value,
	description, severity, detected_at, is_acknowledged, acknowledged_at`

// Insert writes one alert row; a duplicate id returns ErrConflict. Alerts are
// produced by the external detector procedure; this is for fixtures and tests.
func (s *PostgresStore) Insert(ctx context.Context, a *models.Alert) error {
	if a == nil {
		return fmt.Errorf("alert is required")
	}
	query := `
		INSERT INTO analytics.anomaly_alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var ackAt sql.NullTime
	if a.AcknowledgedAt != nil {
		ackAt = sql.NullTime{Time: *a.AcknowledgedAt, Valid: true}
	}
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		a.AlertID, a.AlertType, a.AgeGroup, a.Region, a.MetricName, a.CurrentValue,
		a.Description, string(a.Severity), a.DetectedAt, a.IsAcknowledged, ackAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListOpen(ctx context.Context) ([]*models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM analytics.anomaly_alerts
		WHERE NOT is_acknowledged
		ORDER BY
			CASE UPPER(severity) WHEN 'CRITICAL' THEN 1 WHEN 'HIGH' THEN 2 WHEN 'MEDIUM' THEN 3 ELSE 4 END,
			detected_at DESC
	`
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list open alerts: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	out := []*models.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

// Acknowledge flips the flag and stamps the time in one conditional UPDATE,
// so concurrent callers race on the row lock and exactly one wins.
func (s *PostgresStore) Acknowledge(ctx context.Context, alertID string, now time.Time) (*models.Alert, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	query := `
		UPDATE analytics.anomaly_alerts
		SET is_acknowledged = TRUE, acknowledged_at = $2
		WHERE alert_id = $1 AND NOT is_acknowledged
		RETURNING ` + alertColumns
	a, err := scanAlert(exec.QueryRowContext(ctx, query, alertID, now.UTC()))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM analytics.anomaly_alerts WHERE alert_id = $1)`, alertID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check alert existence: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	var severity string
	var ackAt sql.NullTime
	err := row.Scan(&a.AlertID, &a.AlertType, &a.AgeGroup, &a.Region, &a.MetricName, &a.CurrentValue,
		&a.Description, &severity, &a.DetectedAt, &a.IsAcknowledged, &ackAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	a.Severity = models.Severity(severity)
	a.DetectedAt = a.DetectedAt.UTC()
	if ackAt.Valid {
		t := ackAt.Time.UTC()
		a.AcknowledgedAt = &t
	}
	return &a, nil
}
