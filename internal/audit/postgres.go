package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"foodtrust/internal/domain"
	txcontext "foodtrust/pkg/platform/tx"
)

// PostgresStore implements Store using the transactional outbox pattern.
// Append writes the queryable audit_events row and an outbox row in the same
// transaction as the product insert, so an observer of the log can always
// read the corresponding record: no event without a record, no record without
// an event.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure the relay publishes to Kafka.
type outboxPayload struct {
	ID           string `json:"id"`
	Timestamp    string `json:"timestamp"`
	Action       string `json:"action"`
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	Manufacturer string `json:"manufacturer"`
	RequestID    string `json:"request_id,omitempty"`
	ActorID      string `json:"actor_id,omitempty"`
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload := outboxPayload{
		ID:           event.ID.String(),
		Timestamp:    event.Timestamp.Format(time.RFC3339Nano),
		Action:       string(event.Action),
		ProductID:    event.ProductID,
		ProductName:  event.ProductName,
		Manufacturer: event.Manufacturer,
		RequestID:    event.RequestID,
		ActorID:      event.ActorID,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	execer := s.execer(ctx)

	query := `
		INSERT INTO audit_events (id, timestamp, action, product_id, product_name, manufacturer, request_id, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := execer.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		string(event.Action),
		event.ProductID,
		event.ProductName,
		event.Manufacturer,
		event.RequestID,
		event.ActorID,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	outboxQuery := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := execer.ExecContext(ctx, outboxQuery,
		uuid.New(),
		"product",
		event.ProductID,
		string(event.Action),
		payloadBytes,
		time.Now(),
	); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByProduct(ctx context.Context, productID domain.ProductID) ([]Event, error) {
	query := `
		SELECT id, timestamp, action, product_id, product_name, manufacturer, request_id, actor_id
		FROM audit_events
		WHERE product_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, productID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, timestamp, action, product_id, product_name, manufacturer, request_id, actor_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			event  Event
			action string
		)
		err := rows.Scan(
			&event.ID,
			&event.Timestamp,
			&action,
			&event.ProductID,
			&event.ProductName,
			&event.Manufacturer,
			&event.RequestID,
			&event.ActorID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
