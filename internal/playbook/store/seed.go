package store

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"insighthub/internal/playbook/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Playbooks []catalogEntry `yaml:"playbooks"`
}

type catalogEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Query       string `yaml:"query"`
	Active      *bool  `yaml:"active"`
}

// LoadCatalog decodes a YAML catalog. Entries default to active; unknown keys
// are rejected so typos do not silently drop fields.
func LoadCatalog(r io.Reader) ([]*models.Playbook, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode playbook catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Playbooks))
	out := make([]*models.Playbook, 0, len(file.Playbooks))
	for i, e := range file.Playbooks {
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		p, err := models.NewPlaybook(e.ID, e.Name, e.Category, e.Description, e.Query, active)
		if err != nil {
			return nil, fmt.Errorf("playbook %d: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("playbook %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// LoadCatalogFile reads path, or the built-in catalog when path is empty.
func LoadCatalogFile(path string) ([]*models.Playbook, error) {
	if path == "" {
		return LoadCatalog(bytes.NewReader(defaultCatalog))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playbook catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Transactor runs fn inside a single transaction carried by ctx.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SeedCatalog upserts every playbook into the store. With a non-nil txr the
// whole catalog lands in one transaction, so a failing entry leaves the
// previous catalog untouched.
func SeedCatalog(ctx context.Context, txr Transactor, saver Saver, playbooks []*models.Playbook) error {
	seed := func(ctx context.Context) error {
		for _, p := range playbooks {
			if err := saver.Save(ctx, p); err != nil {
				return fmt.Errorf("seed playbook %s: %w", p.ID, err)
			}
		}
		return nil
	}
	if txr == nil {
		return seed(ctx)
	}
	return txr.RunInTx(ctx, seed)
}
