package store

import (
	"context"
	"fmt"
	"sync"

	"insighthub/internal/audit/models"
)

// InMemory is an append-only ledger held in process memory.
type InMemory struct {
	mu      sync.RWMutex
	records []models.ExecutionAttempt
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, rec *models.ExecutionAttempt) error {
	if rec == nil {
		return fmt.Errorf("audit record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

func (s *InMemory) Query(_ context.Context, f models.Filter) ([]*models.ExecutionAttempt, error) {
	s.mu.RLock()
	matched := make([]*models.ExecutionAttempt, 0, len(s.records))
	for i := range s.records {
		if s.records[i].Matches(f) {
			cp := s.records[i]
			matched = append(matched, &cp)
		}
	}
	s.mu.RUnlock()

	models.SortNewestFirst(matched)
	if f.Offset >= len(matched) {
		return []*models.ExecutionAttempt{}, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (s *InMemory) Summary(_ context.Context) (*models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string]struct{})
	playbooks := make(map[string]struct{})
	sum := &models.Summary{Total: len(s.records)}
	for _, r := range s.records {
		users[r.ExecutedBy] = struct{}{}
		playbooks[r.PlaybookName] = struct{}{}
		switch r.Status {
		case models.StatusSuccess:
			sum.SuccessCount++
		case models.StatusFailed:
			sum.FailedCount++
		}
	}
	sum.DistinctUsers = len(users)
	sum.DistinctPlaybooks = len(playbooks)
	return sum, nil
}
