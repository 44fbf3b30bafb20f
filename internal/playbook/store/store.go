// Package store persists the playbook catalog. The gateway treats it as
// read-only; writes happen only when seeding.
package store

import (
	"context"

	"insighthub/internal/playbook/models"
)

// Store is the read surface shared by every catalog backend.
type Store interface {
	ListActive(ctx context.Context, category string) ([]*models.Playbook, error)
	FindActiveByID(ctx context.Context, id string) (*models.Playbook, error)
	Categories(ctx context.Context) ([]string, error)
}

// Saver writes catalog entries; used by seeding.
type Saver interface {
	Save(ctx context.Context, p *models.Playbook) error
}
