package store

import (
	"context"
	"fmt"
	"sync"

	"insighthub/internal/playbook/models"
	"insighthub/pkg/platform/sentinel"
	platformstrings "insighthub/pkg/platform/strings"
)

// InMemory is a mutex-guarded catalog for development and tests.
type InMemory struct {
	mu        sync.RWMutex
	playbooks map[string]*models.Playbook
}

func NewInMemory() *InMemory {
	return &InMemory{playbooks: make(map[string]*models.Playbook)}
}

// Save inserts or replaces a playbook by id.
func (s *InMemory) Save(_ context.Context, p *models.Playbook) error {
	if p == nil {
		return fmt.Errorf("playbook is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.playbooks[p.ID] = &cp
	return nil
}

func (s *InMemory) ListActive(_ context.Context, category string) ([]*models.Playbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Playbook, 0, len(s.playbooks))
	for _, p := range s.playbooks {
		if !p.IsActive || (category != "" && p.Category != category) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	models.SortForListing(out)
	return out, nil
}

func (s *InMemory) FindActiveByID(_ context.Context, id string) (*models.Playbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.playbooks[id]
	if !ok || !p.IsActive {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cats := make([]string, 0, len(s.playbooks))
	for _, p := range s.playbooks {
		if p.IsActive {
			cats = append(cats, p.Category)
		}
	}
	return platformstrings.SortedDistinct(cats), nil
}
