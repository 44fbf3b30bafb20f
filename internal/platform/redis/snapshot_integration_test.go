//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	platformredis "insighthub/internal/platform/redis"
	"insighthub/pkg/testutil/containers"
)

type SnapshotCacheSuite struct {
	suite.Suite
	rc  *containers.RedisContainer
	ctx context.Context
}

func TestSnapshotCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	suite.Run(t, new(SnapshotCacheSuite))
}

func (s *SnapshotCacheSuite) SetupSuite() {
	s.rc = containers.GetManager().GetRedis(s.T())
	s.ctx = context.Background()
}

func (s *SnapshotCacheSuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(s.ctx))
}

type snapshot struct {
	Total int     `json:"total"`
	Avg   float64 `json:"avg"`
}

func (s *SnapshotCacheSuite) TestRoundTripAndMiss() {
	c := platformredis.NewSnapshotCache(s.rc.Client, "segments", time.Minute)

	var got snapshot
	hit, err := c.Load(s.ctx, "overview", &got)
	s.Require().NoError(err)
	s.False(hit)

	s.Require().NoError(c.Store(s.ctx, "overview", snapshot{Total: 36, Avg: 41.5}))
	hit, err = c.Load(s.ctx, "overview", &got)
	s.Require().NoError(err)
	s.True(hit)
	s.Equal(snapshot{Total: 36, Avg: 41.5}, got)

	ttl, err := s.rc.Client.TTL(s.ctx, "segments:overview").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *SnapshotCacheSuite) TestInvalidateOnlyTouchesPrefix() {
	segments := platformredis.NewSnapshotCache(s.rc.Client, "segments", time.Minute)
	insights := platformredis.NewSnapshotCache(s.rc.Client, "insights", time.Minute)
	s.Require().NoError(segments.Store(s.ctx, "list", []int{1}))
	s.Require().NoError(insights.Store(s.ctx, "list", []int{2}))

	s.Require().NoError(segments.Invalidate(s.ctx))

	var v []int
	hit, err := segments.Load(s.ctx, "list", &v)
	s.Require().NoError(err)
	s.False(hit)
	hit, err = insights.Load(s.ctx, "list", &v)
	s.Require().NoError(err)
	s.True(hit)
}
