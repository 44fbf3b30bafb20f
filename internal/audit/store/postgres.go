package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"insighthub/internal/audit/models"
	"insighthub/pkg/platform/sentinel"
	"insighthub/pkg/platform/tx"
)

// PostgresStore writes to audit.query_audit_log. The table rejects UPDATE and
// DELETE by trigger, so the store exposes no mutation besides Append.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, rec *models.ExecutionAttempt) error {
	if rec == nil {
		return fmt.Errorf("audit record is required")
	}
	query := `
		INSERT INTO audit.query_audit_log (
			audit_id, playbook_name, executed_by, organization,
			purpose, execution_timestamp, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		rec.AuditID,
		rec.PlaybookName,
		rec.ExecutedBy,
		rec.Organization,
		rec.Purpose,
		rec.Timestamp,
		string(rec.Status),
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *PostgresStore) Query(ctx context.Context, f models.Filter) ([]*models.ExecutionAttempt, error) {
	query := `
		SELECT audit_id, playbook_name, executed_by, organization,
			purpose, execution_timestamp, status
		FROM audit.query_audit_log
		WHERE ($1 = '' OR status = $1)
			AND (executed_by ILIKE $2 ESCAPE '\' OR playbook_name ILIKE $2 ESCAPE '\')
		ORDER BY execution_timestamp DESC, audit_id DESC
		LIMIT $3 OFFSET $4
	`
	pattern := "%" + likeEscaper.Replace(f.Search) + "%"
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, string(f.Status), pattern, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	out := []*models.ExecutionAttempt{}
	for rows.Next() {
		var rec models.ExecutionAttempt
		var status string
		if err := rows.Scan(&rec.AuditID, &rec.PlaybookName, &rec.ExecutedBy, &rec.Organization,
			&rec.Purpose, &rec.Timestamp, &status); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.Status = models.Status(status)
		rec.Timestamp = rec.Timestamp.UTC()
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

func (s *PostgresStore) Summary(ctx context.Context) (*models.Summary, error) {
	query := `
		SELECT COUNT(*),
			COUNT(DISTINCT executed_by),
			COUNT(DISTINCT playbook_name),
			COUNT(*) FILTER (WHERE status = 'SUCCESS'),
			COUNT(*) FILTER (WHERE status = 'FAILED')
		FROM audit.query_audit_log
	`
	var sum models.Summary
	err := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query).Scan(
		&sum.Total, &sum.DistinctUsers, &sum.DistinctPlaybooks, &sum.SuccessCount, &sum.FailedCount)
	if err != nil {
		return nil, fmt.Errorf("summarize audit log: %w: %w", sentinel.ErrUnavailable, err)
	}
	return &sum, nil
}
