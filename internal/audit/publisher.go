package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"foodtrust/internal/domain"
	"foodtrust/internal/platform/metrics"
	"foodtrust/pkg/requestcontext"
)

// Publisher emits audit events with fail-closed semantics. The caller blocks
// until the append succeeds; if it fails, the registration that triggered it
// must fail too. An unauditable registration is not a registration.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// NewPublisher creates a fail-closed audit publisher over the given store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously appends an audit event. The event ID and timestamp are
// assigned here so memory and PostgreSQL stores behave identically.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires an action")
	}
	if event.ProductID == "" {
		return fmt.Errorf("audit event requires a product id")
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.ManufacturerID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil && p.metrics.AuditAppendFailuresTotal != nil {
			p.metrics.AuditAppendFailuresTotal.Inc()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit append failed",
				"action", event.Action,
				"product_id", event.ProductID,
				"error", err,
			)
		}
		return fmt.Errorf("audit append failed: %w", err)
	}
	return nil
}

// ListByProduct returns the audit trail for one product.
func (p *Publisher) ListByProduct(ctx context.Context, productID domain.ProductID) ([]Event, error) {
	return p.store.ListByProduct(ctx, productID)
}

// ListRecent returns the most recent events across all products.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
