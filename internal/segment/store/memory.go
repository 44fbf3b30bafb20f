package store

import (
	"context"
	"sync"

	"insighthub/internal/segment/models"
)

// InMemory holds one snapshot; Replace swaps it atomically like a refresh.
type InMemory struct {
	mu       sync.RWMutex
	segments []*models.Segment
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Replace(_ context.Context, segments []*models.Segment) {
	cp := make([]*models.Segment, len(segments))
	for i, seg := range segments {
		v := *seg
		cp[i] = &v
	}
	s.mu.Lock()
	s.segments = cp
	s.mu.Unlock()
}

func (s *InMemory) snapshot() []*models.Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Segment, len(s.segments))
	for i, seg := range s.segments {
		v := *seg
		out[i] = &v
	}
	return out
}

func (s *InMemory) List(_ context.Context) ([]*models.Segment, error) {
	out := s.snapshot()
	models.SortByRisk(out)
	return out, nil
}

func (s *InMemory) Totals(_ context.Context) (models.Totals, error) {
	return models.ComputeTotals(s.snapshot()), nil
}

func (s *InMemory) GroupMeans(_ context.Context, dim models.Dimension) ([]models.GroupMean, error) {
	return models.ComputeGroupMeans(s.snapshot(), dim), nil
}
