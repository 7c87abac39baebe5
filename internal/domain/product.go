package domain

import (
	"time"

	dErrors "foodtrust/pkg/domain-errors"
)

// ProductID identifies one registered product. The value is chosen by the
// registering manufacturer and opaque to the registry; it is typically the
// identifier later encoded into a scannable code.
//
// Usage: construct via ParseProductID at trust boundaries; direct casting
// bypasses validation.
type ProductID string

// maxProductIDLength bounds identifiers so they stay usable as storage keys
// and cache keys. Manufacturers own the format beyond that.
const maxProductIDLength = 128

// ParseProductID constructs a ProductID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or exceeds the
// length bound; no other errors are expected.
func ParseProductID(s string) (ProductID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "product id cannot be empty")
	}
	if len(s) > maxProductIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "product id too long")
	}
	return ProductID(s), nil
}

// String returns the string representation of the product ID.
func (p ProductID) String() string {
	return string(p)
}

// ProductRecord is the immutable set of descriptive fields for one registered
// product. Once stored, a record is never updated or deleted; the only state
// transition a product ID makes is unregistered -> registered.
type ProductRecord struct {
	ID           ProductID
	Name         string
	Ingredients  string
	Manufacturer string
	// ManufacturedAt is caller-supplied and intentionally not validated
	// against the clock; date policy belongs to the registering tooling.
	ManufacturedAt time.Time
	// RegisteredAt is set by the registry when the record is accepted.
	RegisteredAt time.Time
}
