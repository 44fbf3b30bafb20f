package models

import (
	"sort"
	"strings"

	dErrors "insighthub/pkg/domain-errors"
)

// Playbook is a pre-approved query template.
//
// Invariants:
//   - ID, Name, Category and QueryTemplate are non-empty
//   - inactive playbooks are hidden from listing and execution, never deleted
//   - QueryTemplate is opaque to the gateway and never serialized to clients
type Playbook struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Category      string `json:"category" yaml:"category"`
	Description   string `json:"description" yaml:"description"`
	QueryTemplate string `json:"-" yaml:"query"`
	IsActive      bool   `json:"is_active" yaml:"active"`
}

// NewPlaybook builds a Playbook, trimming text fields and enforcing invariants.
func NewPlaybook(id, name, category, description, queryTemplate string, active bool) (*Playbook, error) {
	p := &Playbook{
		ID:            strings.TrimSpace(id),
		Name:          strings.TrimSpace(name),
		Category:      strings.TrimSpace(category),
		Description:   strings.TrimSpace(description),
		QueryTemplate: strings.TrimSpace(queryTemplate),
		IsActive:      active,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Playbook) Validate() error {
	switch {
	case p.ID == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "playbook id is required")
	case p.Name == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "playbook name is required")
	case p.Category == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "playbook category is required")
	case p.QueryTemplate == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "playbook query template is required")
	}
	return nil
}

// SortForListing orders playbooks by category, then name.
func SortForListing(playbooks []*Playbook) {
	sort.SliceStable(playbooks, func(i, j int) bool {
		if playbooks[i].Category != playbooks[j].Category {
			return playbooks[i].Category < playbooks[j].Category
		}
		return playbooks[i].Name < playbooks[j].Name
	})
}
