// Package registry is the single source of truth for product authenticity
// data. It enforces the one-registration-per-identifier invariant and keeps an
// auditable trail of every accepted registration.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"foodtrust/internal/audit"
	"foodtrust/internal/domain"
	"foodtrust/internal/platform/metrics"
	"foodtrust/internal/registry/store"
	dErrors "foodtrust/pkg/domain-errors"
	"foodtrust/pkg/platform/circuit"
	"foodtrust/pkg/platform/sentinel"
	"foodtrust/pkg/requestcontext"
)

// Auditor emits and queries the append-only registration trail.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
	ListByProduct(ctx context.Context, productID domain.ProductID) ([]audit.Event, error)
}

// Cache is an optional read-through cache for verification lookups. It is
// never consulted for registration decisions; the store stays authoritative.
type Cache interface {
	Get(ctx context.Context, id domain.ProductID) (domain.ProductRecord, error)
	Set(ctx context.Context, record domain.ProductRecord) error
}

// TxRunner executes fn atomically. The Postgres runner wraps fn in a SQL
// transaction carried through context; the no-op runner backs the in-memory
// stores, whose appends cannot fail partway.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTxRunner runs fn directly. Used with in-memory stores.
type NoopTxRunner struct{}

func (NoopTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// RegisterInput carries the caller-supplied fields for one registration.
// All fields except ProductID are opaque text; validating their content is
// the registering tooling's responsibility, not the registry's.
type RegisterInput struct {
	ProductID      string
	Name           string
	Ingredients    string
	Manufacturer   string
	ManufacturedAt time.Time
}

// Service implements the registry operations.
type Service struct {
	store        store.Store
	auditor      Auditor
	tx           TxRunner
	cache        Cache
	cacheBreaker *circuit.Breaker
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithCache attaches a read-through cache for verification lookups. A circuit
// breaker shields lookups from a struggling cache; backfill writes keep
// probing so the circuit can close again once the cache recovers.
func WithCache(cache Cache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
		s.cacheBreaker = circuit.New("record-cache")
	}
}

// NewService wires the registry service.
func NewService(st store.Store, auditor Auditor, tx TxRunner, logger *slog.Logger, m *metrics.Metrics, opts ...ServiceOption) *Service {
	s := &Service{
		store:   st,
		auditor: auditor,
		tx:      tx,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("foodtrust/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register stores a new product record and appends its audit event
// atomically. A second registration under the same ID fails with
// CodeAlreadyRegistered and leaves the stored record untouched.
func (s *Service) Register(ctx context.Context, input RegisterInput) (domain.ProductRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Register",
		trace.WithAttributes(attribute.String("product.id", input.ProductID)))
	defer span.End()

	productID, err := domain.ParseProductID(input.ProductID)
	if err != nil {
		return domain.ProductRecord{}, err
	}

	record := domain.ProductRecord{
		ID:             productID,
		Name:           input.Name,
		Ingredients:    input.Ingredients,
		Manufacturer:   input.Manufacturer,
		ManufacturedAt: input.ManufacturedAt,
		RegisteredAt:   requestcontext.Now(ctx),
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, record); err != nil {
			return err
		}
		// Same transaction as the insert: an observer of the audit log can
		// always read the corresponding record, and vice versa.
		return s.auditor.Emit(ctx, audit.Event{
			Action:       audit.ActionProductRegistered,
			ProductID:    record.ID.String(),
			ProductName:  record.Name,
			Manufacturer: record.Manufacturer,
		})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil && s.metrics.DuplicateRegistrationsTotal != nil {
				s.metrics.DuplicateRegistrationsTotal.Inc()
			}
			return domain.ProductRecord{}, dErrors.New(dErrors.CodeAlreadyRegistered, "product already registered")
		}
		s.logger.ErrorContext(ctx, "registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"product_id", record.ID,
			"error", err,
		)
		return domain.ProductRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register product")
	}

	if s.metrics != nil && s.metrics.RegistrationsTotal != nil {
		s.metrics.RegistrationsTotal.Inc()
	}
	s.logger.InfoContext(ctx, "product registered",
		"request_id", requestcontext.RequestID(ctx),
		"product_id", record.ID,
		"manufacturer", record.Manufacturer,
	)
	return record, nil
}

// Verify returns the stored record for an ID, or CodeNotFound. Purely
// observational: safe for concurrent and repeated invocation.
func (s *Service) Verify(ctx context.Context, rawID string) (domain.ProductRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Verify",
		trace.WithAttributes(attribute.String("product.id", rawID)))
	defer span.End()

	productID, err := domain.ParseProductID(rawID)
	if err != nil {
		// Lookups know two answers: the record, or not registered. An
		// identifier that could never be registered is simply not registered.
		return domain.ProductRecord{}, dErrors.New(dErrors.CodeNotFound, "product not registered")
	}

	start := time.Now()

	if record, ok := s.cacheGet(ctx, productID); ok {
		s.metrics.RecordLookup("verify", "found", time.Since(start).Seconds())
		return record, nil
	}

	record, err := s.store.Find(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.RecordLookup("verify", "not_found", time.Since(start).Seconds())
			return domain.ProductRecord{}, dErrors.New(dErrors.CodeNotFound, "product not registered")
		}
		return domain.ProductRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify product")
	}

	s.cacheBackfill(ctx, record)

	s.metrics.RecordLookup("verify", "found", time.Since(start).Seconds())
	return record, nil
}

// IsAuthentic reports whether a record exists for an ID. Absence is a valid
// boolean answer, not an error; identifiers that could never be registered
// (empty, over-long) are simply not authentic.
func (s *Service) IsAuthentic(ctx context.Context, rawID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "registry.IsAuthentic",
		trace.WithAttributes(attribute.String("product.id", rawID)))
	defer span.End()

	productID, err := domain.ParseProductID(rawID)
	if err != nil {
		return false, nil
	}

	start := time.Now()

	if _, ok := s.cacheGet(ctx, productID); ok {
		s.metrics.RecordLookup("is_authentic", "found", time.Since(start).Seconds())
		return true, nil
	}

	exists, err := s.store.Exists(ctx, productID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check product")
	}

	result := "not_found"
	if exists {
		result = "found"
	}
	s.metrics.RecordLookup("is_authentic", result, time.Since(start).Seconds())
	return exists, nil
}

// cacheGet returns a cached record when the cache is configured, reachable,
// and holds the ID. Any other outcome sends the caller to the store. A miss
// still proves the cache is reachable, so it counts as a breaker success.
func (s *Service) cacheGet(ctx context.Context, id domain.ProductID) (domain.ProductRecord, bool) {
	if s.cache == nil || s.cacheBreaker.IsOpen() {
		return domain.ProductRecord{}, false
	}

	record, err := s.cache.Get(ctx, id)
	switch {
	case err == nil:
		s.recordCacheOutcome(ctx, nil)
		s.metrics.RecordCacheHit()
		return record, true
	case errors.Is(err, sentinel.ErrNotFound):
		s.recordCacheOutcome(ctx, nil)
	default:
		s.recordCacheOutcome(ctx, err)
	}
	s.metrics.RecordCacheMiss()
	return domain.ProductRecord{}, false
}

// cacheBackfill stores a record after a store lookup. Records are immutable,
// so a failed backfill costs a future miss, nothing more. Backfills run even
// while the circuit is open; their successes are what close it again.
func (s *Service) cacheBackfill(ctx context.Context, record domain.ProductRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, record); err != nil {
		s.recordCacheOutcome(ctx, err)
		s.logger.WarnContext(ctx, "record cache backfill failed",
			"product_id", record.ID,
			"error", err,
		)
		return
	}
	s.recordCacheOutcome(ctx, nil)
}

func (s *Service) recordCacheOutcome(ctx context.Context, err error) {
	if err != nil {
		if _, change := s.cacheBreaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "record cache circuit opened", "error", err)
		}
		return
	}
	if _, change := s.cacheBreaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "record cache circuit closed")
	}
}

// Events returns the audit trail for one product, newest first.
func (s *Service) Events(ctx context.Context, rawID string) ([]audit.Event, error) {
	productID, err := domain.ParseProductID(rawID)
	if err != nil {
		return nil, err
	}
	events, err := s.auditor.ListByProduct(ctx, productID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return events, nil
}
