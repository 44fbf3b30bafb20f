//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"insighthub/internal/playbook/models"
	"insighthub/internal/playbook/store"
	"insighthub/pkg/platform/sentinel"
	"insighthub/pkg/platform/tx"
	"insighthub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "playbooks.playbook_registry"))

	playbooks, err := store.LoadCatalogFile("")
	s.Require().NoError(err)
	s.Require().NoError(store.SeedCatalog(ctx, tx.NewRunner(s.postgres.DB), s.store, playbooks))
}

func (s *PostgresStoreSuite) TestListActiveOrdering() {
	got, err := s.store.ListActive(context.Background(), "")
	s.Require().NoError(err)
	s.Require().NotEmpty(got)

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		s.True(prev.Category < cur.Category ||
			(prev.Category == cur.Category && prev.Name <= cur.Name),
			"%s/%s before %s/%s", prev.Category, prev.Name, cur.Category, cur.Name)
		s.True(cur.IsActive)
	}
}

func (s *PostgresStoreSuite) TestCategoryFilterAndInactive() {
	ctx := context.Background()

	risk, err := s.store.ListActive(ctx, "Risk Assessment")
	s.Require().NoError(err)
	for _, p := range risk {
		s.Equal("Risk Assessment", p.Category)
	}

	_, err = s.store.FindActiveByID(ctx, "PB099")
	s.ErrorIs(err, sentinel.ErrNotFound)

	cats, err := s.store.Categories(ctx)
	s.Require().NoError(err)
	s.Contains(cats, "Risk Assessment")
}

func (s *PostgresStoreSuite) TestSaveIsUpsert() {
	ctx := context.Background()
	p, err := models.NewPlaybook("PB001", "Renamed", "Risk Assessment", "", "SELECT 2", true)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(ctx, p))

	found, err := s.store.FindActiveByID(ctx, "PB001")
	s.Require().NoError(err)
	s.Equal("Renamed", found.Name)
	s.Equal("SELECT 2", found.QueryTemplate)
}

type failingSaver struct {
	next   store.Saver
	failOn string
}

func (f failingSaver) Save(ctx context.Context, p *models.Playbook) error {
	if p.ID == f.failOn {
		return errors.New("rejected")
	}
	return f.next.Save(ctx, p)
}

func (s *PostgresStoreSuite) TestFailedSeedRollsBack() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "playbooks.playbook_registry"))

	first, err := models.NewPlaybook("PX1", "First", "Rollback", "", "SELECT 1", true)
	s.Require().NoError(err)
	second, err := models.NewPlaybook("PX2", "Second", "Rollback", "", "SELECT 2", true)
	s.Require().NoError(err)

	err = store.SeedCatalog(ctx, tx.NewRunner(s.postgres.DB),
		failingSaver{next: s.store, failOn: "PX2"}, []*models.Playbook{first, second})
	s.Require().ErrorContains(err, "seed playbook PX2")

	_, err = s.store.FindActiveByID(ctx, "PX1")
	s.ErrorIs(err, sentinel.ErrNotFound, "the first upsert must not survive the failed seed")

	got, err := s.store.ListActive(ctx, "")
	s.Require().NoError(err)
	s.Empty(got)
}
