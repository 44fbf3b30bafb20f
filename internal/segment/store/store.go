// Package store reads the combined risk snapshot written by the external
// insight combiner. It is read-only to this module.
package store

import (
	"context"

	"insighthub/internal/segment/models"
)

type Store interface {
	// List returns every segment, highest combined score first.
	List(ctx context.Context) ([]*models.Segment, error)
	Totals(ctx context.Context) (models.Totals, error)
	GroupMeans(ctx context.Context, dim models.Dimension) ([]models.GroupMean, error)
}
