// Package audit records the registry's tamper-evident trail. The log is
// append-only: events are never updated or deleted, and every successful
// registration produces exactly one event in the same transaction as the
// record insert.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names what happened. Registration is the only state transition the
// registry has, so it is the only action with compliance weight.
type Action string

const (
	ActionProductRegistered Action = "product_registered"
)

// Event is one append-only audit log entry. Keep it transport-agnostic so
// stores and the outbox relay can fan out without converting.
type Event struct {
	ID           uuid.UUID
	Timestamp    time.Time
	Action       Action
	ProductID    string
	ProductName  string
	Manufacturer string
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
	// ActorID is the authenticated manufacturer identity that performed the
	// registration, when different from the record's free-text manufacturer.
	ActorID string
}
