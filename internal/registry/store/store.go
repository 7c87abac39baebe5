// Package store persists product records. Stores are interface-driven so the
// registry service stays testable and persistence can move between in-memory
// and PostgreSQL without rewiring business code.
package store

import (
	"context"

	"foodtrust/internal/domain"
	"foodtrust/pkg/platform/sentinel"
)

// Storage-boundary sentinels, re-exported for call-site brevity.
var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)

// Store persists product records. Create is insert-if-absent: the existence
// check and the insert happen as one atomic operation so two concurrent
// registrations of the same ID resolve to exactly one winner.
type Store interface {
	// Create stores a new record. Returns ErrConflict if a record already
	// exists under the same ID; the stored record is left untouched.
	Create(ctx context.Context, record domain.ProductRecord) error

	// Find returns the record for an ID, or ErrNotFound.
	Find(ctx context.Context, id domain.ProductID) (domain.ProductRecord, error)

	// Exists reports whether a record exists for an ID. Absence is a valid
	// answer, not an error.
	Exists(ctx context.Context, id domain.ProductID) (bool, error)
}
