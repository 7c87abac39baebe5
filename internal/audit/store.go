package audit

import (
	"context"

	"foodtrust/internal/domain"
)

// Store persists audit events. Append-only: implementations expose no update
// or delete surface.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByProduct(ctx context.Context, productID domain.ProductID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
