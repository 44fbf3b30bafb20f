// Package store reads batch-generated insights. The warehouse procedure owns
// the rows; this module never writes them outside tests.
package store

import (
	"context"

	"insighthub/internal/insight/models"
)

type Store interface {
	// ListCurrent returns insights ordered by risk score, highest first.
	// An empty category selects all.
	ListCurrent(ctx context.Context, category models.Category) ([]*models.Insight, error)
}
