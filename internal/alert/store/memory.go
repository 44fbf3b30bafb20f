package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"insighthub/internal/alert/models"
	"insighthub/pkg/platform/sentinel"
)

// InMemory holds alerts under a single mutex, which serializes acknowledgements.
type InMemory struct {
	mu     sync.RWMutex
	alerts map[string]*models.Alert
}

func NewInMemory() *InMemory {
	return &InMemory{alerts: make(map[string]*models.Alert)}
}

// Insert records an alert; a duplicate id returns ErrConflict. In production the
// external detector writes alerts; the service never calls Insert, so without
// a detector this store stays empty. Insert exists for fixtures and tests.
func (s *InMemory) Insert(_ context.Context, a *models.Alert) error {
	if a == nil {
		return fmt.Errorf("alert is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.alerts[a.AlertID]; exists {
		return sentinel.ErrConflict
	}
	cp := *a
	s.alerts[a.AlertID] = &cp
	return nil
}

func (s *InMemory) ListOpen(_ context.Context) ([]*models.Alert, error) {
	s.mu.RLock()
	out := make([]*models.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if !a.IsAcknowledged {
			cp := *a
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()
	models.SortForTriage(out)
	return out, nil
}

// Acknowledge transitions an open alert. Returns ErrNotFound for unknown ids
// and ErrInvalidState when the alert was already acknowledged.
func (s *InMemory) Acknowledge(_ context.Context, alertID string, now time.Time) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[alertID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if a.CanAcknowledge() != nil {
		return nil, sentinel.ErrInvalidState
	}
	a.ApplyAcknowledgement(now)
	cp := *a
	return &cp, nil
}
