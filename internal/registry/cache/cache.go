// Package cache provides a Redis read-through cache for verification lookups.
// Registered records are immutable, so cached entries can never go stale in
// content; the TTL only bounds memory, not correctness.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"foodtrust/internal/domain"
	"foodtrust/pkg/platform/sentinel"
)

const keyPrefix = "product:"

// RecordCache caches product records in Redis.
type RecordCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a record cache with the given TTL.
func New(client *redis.Client, ttl time.Duration) *RecordCache {
	return &RecordCache{client: client, ttl: ttl}
}

// cachedRecord is the JSON wire form of a product record in Redis.
type cachedRecord struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Ingredients    string    `json:"ingredients"`
	Manufacturer   string    `json:"manufacturer"`
	ManufacturedAt time.Time `json:"manufactured_at"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// Get returns the cached record or sentinel.ErrNotFound on a miss. Transport
// errors are reported as ErrUnavailable so callers can fall through to the
// authoritative store.
func (c *RecordCache) Get(ctx context.Context, id domain.ProductID) (domain.ProductRecord, error) {
	raw, err := c.client.Get(ctx, keyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ProductRecord{}, sentinel.ErrNotFound
		}
		return domain.ProductRecord{}, fmt.Errorf("%w: cache get: %v", sentinel.ErrUnavailable, err)
	}

	var cached cachedRecord
	if err := json.Unmarshal(raw, &cached); err != nil {
		// A corrupt entry behaves like a miss; the store backfills it.
		return domain.ProductRecord{}, sentinel.ErrNotFound
	}

	return domain.ProductRecord{
		ID:             domain.ProductID(cached.ID),
		Name:           cached.Name,
		Ingredients:    cached.Ingredients,
		Manufacturer:   cached.Manufacturer,
		ManufacturedAt: cached.ManufacturedAt,
		RegisteredAt:   cached.RegisteredAt,
	}, nil
}

// Set stores a record with the configured TTL.
func (c *RecordCache) Set(ctx context.Context, record domain.ProductRecord) error {
	payload, err := json.Marshal(cachedRecord{
		ID:             record.ID.String(),
		Name:           record.Name,
		Ingredients:    record.Ingredients,
		Manufacturer:   record.Manufacturer,
		ManufacturedAt: record.ManufacturedAt,
		RegisteredAt:   record.RegisteredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal cached record: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+record.ID.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: cache set: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}
