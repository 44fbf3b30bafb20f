package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"insighthub/internal/insight/models"
)

type InMemory struct {
	mu       sync.RWMutex
	insights map[string]*models.Insight
}

func NewInMemory() *InMemory {
	return &InMemory{insights: make(map[string]*models.Insight)}
}

// Put replaces the insight with the same id.
func (s *InMemory) Put(_ context.Context, in *models.Insight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *in
	s.insights[in.InsightID] = &cp
}

func (s *InMemory) ListCurrent(_ context.Context, category models.Category) ([]*models.Insight, error) {
	s.mu.RLock()
	out := make([]*models.Insight, 0, len(s.insights))
	for _, in := range s.insights {
		if category != "" && !strings.EqualFold(string(in.Category), string(category)) {
			continue
		}
		cp := *in
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RiskScore != out[j].RiskScore {
			return out[i].RiskScore > out[j].RiskScore
		}
		return out[i].InsightID < out[j].InsightID
	})
	return out, nil
}
