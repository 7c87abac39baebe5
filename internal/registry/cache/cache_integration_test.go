//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"foodtrust/internal/domain"
	"foodtrust/internal/registry/cache"
	"foodtrust/pkg/platform/sentinel"
	"foodtrust/pkg/testutil/containers"
)

type RecordCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.RecordCache
}

func TestRecordCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RecordCacheSuite))
}

func (s *RecordCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = cache.New(s.redis.Client, time.Minute)
}

func (s *RecordCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func honeyRecord() domain.ProductRecord {
	return domain.ProductRecord{
		ID:             "P100",
		Name:           "Organic Honey",
		Ingredients:    "honey, water",
		Manufacturer:   "ACME Foods",
		ManufacturedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		RegisteredAt:   time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

func (s *RecordCacheSuite) TestSetAndGet() {
	ctx := context.Background()
	record := honeyRecord()

	s.Require().NoError(s.cache.Set(ctx, record))

	cached, err := s.cache.Get(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record, cached)
}

func (s *RecordCacheSuite) TestGetMiss() {
	_, err := s.cache.Get(context.Background(), "P-missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestCorruptEntryBehavesAsMiss verifies that an unparseable value falls back
// to a miss instead of surfacing a decode error to the caller.
func (s *RecordCacheSuite) TestCorruptEntryBehavesAsMiss() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.Set(ctx, "product:P100", "not json", time.Minute).Err())

	_, err := s.cache.Get(ctx, "P100")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RecordCacheSuite) TestEntryExpires() {
	ctx := context.Background()
	shortLived := cache.New(s.redis.Client, 50*time.Millisecond)

	s.Require().NoError(shortLived.Set(ctx, honeyRecord()))
	time.Sleep(100 * time.Millisecond)

	_, err := shortLived.Get(ctx, "P100")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
