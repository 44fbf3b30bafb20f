package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"insighthub/internal/playbook/models"
	"insighthub/pkg/platform/sentinel"
	"insighthub/pkg/platform/tx"
)

// PostgresStore reads the catalog from playbooks.playbook_registry.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const playbookColumns = `playbook_id, playbook_name, category, description, query_template, is_active`

func (s *PostgresStore) Save(ctx context.Context, p *models.Playbook) error {
	if p == nil {
		return fmt.Errorf("playbook is required")
	}
	query := `
		INSERT INTO playbooks.playbook_registry (` + playbookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (playbook_id) DO UPDATE SET
			playbook_name = EXCLUDED.playbook_name,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			query_template = EXCLUDED.query_template,
			is_active = EXCLUDED.is_active
	`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		p.ID, p.Name, p.Category, p.Description, p.QueryTemplate, p.IsActive)
	if err != nil {
		return fmt.Errorf("save playbook: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context, category string) ([]*models.Playbook, error) {
	query := `
		SELECT ` + playbookColumns + `
		FROM playbooks.playbook_registry
		WHERE is_active AND ($1 = '' OR category = $1)
		ORDER BY category, playbook_name
	`
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("list playbooks: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []*models.Playbook
	for rows.Next() {
		p, err := scanPlaybook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playbooks: %w: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

func (s *PostgresStore) FindActiveByID(ctx context.Context, id string) (*models.Playbook, error) {
	query := `
		SELECT ` + playbookColumns + `
		FROM playbooks.playbook_registry
		WHERE playbook_id = $1 AND is_active
	`
	p, err := scanPlaybook(tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) Categories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category
		FROM playbooks.playbook_registry
		WHERE is_active
		ORDER BY category
	`
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaybook(row rowScanner) (*models.Playbook, error) {
	var p models.Playbook
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.QueryTemplate, &p.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan playbook: %w", err)
	}
	return &p, nil
}
