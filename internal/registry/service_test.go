package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodtrust/internal/audit"
	"foodtrust/internal/domain"
	"foodtrust/internal/registry/store"
	dErrors "foodtrust/pkg/domain-errors"
	"foodtrust/pkg/platform/sentinel"
	"foodtrust/pkg/requestcontext"
)

func newTestService(t *testing.T) (*Service, *store.InMemoryStore, *audit.InMemoryStore) {
	t.Helper()
	productStore := store.NewInMemoryStore()
	auditStore := audit.NewInMemoryStore()
	svc := NewService(
		productStore,
		audit.NewPublisher(auditStore),
		NoopTxRunner{},
		slog.New(slog.DiscardHandler),
		nil,
	)
	return svc, productStore, auditStore
}

func honeyInput() RegisterInput {
	return RegisterInput{
		ProductID:      "P100",
		Name:           "Organic Honey",
		Ingredients:    "honey, water",
		Manufacturer:   "ACME Foods",
		ManufacturedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRegister_ReadAfterWrite(t *testing.T) {
	svc, _, _ := newTestService(t)
	now := time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	record, err := svc.Register(ctx, honeyInput())
	require.NoError(t, err)
	assert.Equal(t, now, record.RegisteredAt)

	got, err := svc.Verify(ctx, "P100")
	require.NoError(t, err)
	assert.Equal(t, "Organic Honey", got.Name)
	assert.Equal(t, "honey, water", got.Ingredients)
	assert.Equal(t, "ACME Foods", got.Manufacturer)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got.ManufacturedAt)

	authentic, err := svc.IsAuthentic(ctx, "P100")
	require.NoError(t, err)
	assert.True(t, authentic)
}

func TestRegister_DuplicateLeavesOriginalUntouched(t *testing.T) {
	svc, _, auditStore := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, honeyInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{
		ProductID:      "P100",
		Name:           "Fake Honey",
		Ingredients:    "sugar syrup",
		Manufacturer:   "Unknown",
		ManufacturedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeAlreadyRegistered))

	// The stored record keeps the original fields.
	got, err := svc.Verify(ctx, "P100")
	require.NoError(t, err)
	assert.Equal(t, "Organic Honey", got.Name)
	assert.Equal(t, "ACME Foods", got.Manufacturer)

	// Exactly one audit event for the identifier, carrying the original data.
	events, err := auditStore.ListByProduct(ctx, domain.ProductID("P100"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionProductRegistered, events[0].Action)
	assert.Equal(t, "Organic Honey", events[0].ProductName)
	assert.Equal(t, "ACME Foods", events[0].Manufacturer)
}

func TestVerify_UnknownProduct(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Verify(context.Background(), "P999")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	authentic, err := svc.IsAuthentic(context.Background(), "P999")
	require.NoError(t, err)
	assert.False(t, authentic)
}

func TestVerify_DegenerateIDIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Identifiers that could never be registered answer like any other
	// unknown product, not with a validation error.
	for _, rawID := range []string{"", string(make([]byte, 200))} {
		_, err := svc.Verify(ctx, rawID)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	}
}

func TestRegister_RejectsEmptyProductID(t *testing.T) {
	svc, _, auditStore := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "No ID"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))

	// Nothing was written.
	events, err := auditStore.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestIsAuthentic_DegenerateIDIsFalseNotError(t *testing.T) {
	svc, _, _ := newTestService(t)

	authentic, err := svc.IsAuthentic(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, authentic)
}

type failingAuditor struct{}

func (failingAuditor) Emit(context.Context, audit.Event) error {
	return errors.New("audit sink down")
}
func (failingAuditor) ListByProduct(context.Context, domain.ProductID) ([]audit.Event, error) {
	return nil, nil
}

func TestRegister_FailsClosedWhenAuditFails(t *testing.T) {
	productStore := store.NewInMemoryStore()
	svc := NewService(
		productStore,
		failingAuditor{},
		NoopTxRunner{},
		slog.New(slog.DiscardHandler),
		nil,
	)

	_, err := svc.Register(context.Background(), honeyInput())
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInternal))
}

func TestRegister_ConcurrentSameID(t *testing.T) {
	svc, _, auditStore := newTestService(t)
	ctx := context.Background()
	const goroutines = 32

	var wg sync.WaitGroup
	var successes, duplicates atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, honeyInput())
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.Is(err, dErrors.CodeAlreadyRegistered):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(goroutines-1), duplicates.Load())

	events, err := auditStore.ListByProduct(ctx, domain.ProductID("P100"))
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEvents_ReturnsTrailForProduct(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	ctx = requestcontext.WithManufacturerID(ctx, "acme")

	_, err := svc.Register(ctx, honeyInput())
	require.NoError(t, err)

	events, err := svc.Events(ctx, "P100")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-42", events[0].RequestID)
	assert.Equal(t, "acme", events[0].ActorID)
}

// stubCache counts interactions so the fall-through behavior is observable.
type stubCache struct {
	mu      sync.Mutex
	records map[domain.ProductID]domain.ProductRecord
	gets    int
	sets    int
	fail    bool
}

func newStubCache() *stubCache {
	return &stubCache{records: make(map[domain.ProductID]domain.ProductRecord)}
}

func (c *stubCache) Get(_ context.Context, id domain.ProductID) (domain.ProductRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.fail {
		return domain.ProductRecord{}, sentinel.ErrUnavailable
	}
	if record, ok := c.records[id]; ok {
		return record, nil
	}
	return domain.ProductRecord{}, sentinel.ErrNotFound
}

func (c *stubCache) Set(_ context.Context, record domain.ProductRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.fail {
		return sentinel.ErrUnavailable
	}
	c.records[record.ID] = record
	return nil
}

func TestVerify_CacheBackfillAndHit(t *testing.T) {
	productStore := store.NewInMemoryStore()
	cache := newStubCache()
	svc := NewService(
		productStore,
		audit.NewPublisher(audit.NewInMemoryStore()),
		NoopTxRunner{},
		slog.New(slog.DiscardHandler),
		nil,
		WithCache(cache),
	)
	ctx := context.Background()

	_, err := svc.Register(ctx, honeyInput())
	require.NoError(t, err)

	// First verify misses the cache and backfills it.
	_, err = svc.Verify(ctx, "P100")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Second verify is served from the cache.
	got, err := svc.Verify(ctx, "P100")
	require.NoError(t, err)
	assert.Equal(t, "Organic Honey", got.Name)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.sets)
}

func TestVerify_CacheCircuitOpensAndRecovers(t *testing.T) {
	productStore := store.NewInMemoryStore()
	cache := newStubCache()
	svc := NewService(
		productStore,
		audit.NewPublisher(audit.NewInMemoryStore()),
		NoopTxRunner{},
		slog.New(slog.DiscardHandler),
		nil,
		WithCache(cache),
	)
	ctx := context.Background()

	_, err := svc.Register(ctx, honeyInput())
	require.NoError(t, err)

	// Each verify against a broken cache records two failures (lookup and
	// backfill); the default threshold of five opens the circuit during the
	// third verify, so the fourth skips the cache lookup entirely.
	cache.fail = true
	for i := 0; i < 4; i++ {
		_, err := svc.Verify(ctx, "P100")
		require.NoError(t, err)
	}
	assert.True(t, svc.cacheBreaker.IsOpen())
	assert.Equal(t, 3, cache.gets)

	// Backfill writes keep probing. Two successes close the circuit and
	// lookups return to the cache.
	cache.fail = false
	for i := 0; i < 2; i++ {
		_, err := svc.Verify(ctx, "P100")
		require.NoError(t, err)
	}
	assert.False(t, svc.cacheBreaker.IsOpen())

	got, err := svc.Verify(ctx, "P100")
	require.NoError(t, err)
	assert.Equal(t, "Organic Honey", got.Name)
	assert.Equal(t, 4, cache.gets)
}

func TestVerify_CacheFailureFallsThroughToStore(t *testing.T) {
	productStore := store.NewInMemoryStore()
	cache := newStubCache()
	cache.fail = true
	svc := NewService(
		productStore,
		audit.NewPublisher(audit.NewInMemoryStore()),
		NoopTxRunner{},
		slog.New(slog.DiscardHandler),
		nil,
		WithCache(cache),
	)
	ctx := context.Background()

	_, err := svc.Register(ctx, honeyInput())
	require.NoError(t, err)

	got, err := svc.Verify(ctx, "P100")
	require.NoError(t, err)
	assert.Equal(t, "Organic Honey", got.Name)
}
