// Package outbox relays committed audit events to Kafka. Events become
// durable inside the registration transaction (audit store writes an outbox
// row); this relay drains unpublished rows so downstream consumers (consumer
// apps, analytics, compliance archives) see the same trail without the
// registry ever blocking on the broker.
package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"foodtrust/internal/platform/metrics"
)

const defaultBatchSize = 100

// Relay polls the outbox table and publishes rows to Kafka. Rows are marked
// published only after the broker acknowledges, so delivery is at-least-once;
// consumers deduplicate on the event ID inside the payload.
type Relay struct {
	db       *sql.DB
	client   *kgo.Client
	topic    string
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewRelay connects to the brokers and constructs a relay for the topic.
func NewRelay(db *sql.DB, brokers []string, topic string, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) (*Relay, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Relay{
		db:       db,
		client:   client,
		topic:    topic,
		interval: interval,
		logger:   logger,
		metrics:  m,
	}, nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func (r *Relay) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(r.client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, r.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", r.topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Run drains the outbox until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.publishBatch(ctx); err != nil {
				// Rows stay unpublished and get retried on the next tick.
				r.logger.WarnContext(ctx, "outbox publish batch failed", "error", err)
			}
		}
	}
}

// Close releases the Kafka client.
func (r *Relay) Close() {
	r.client.Close()
}

type outboxRow struct {
	id          uuid.UUID
	aggregateID string
	payload     []byte
}

func (r *Relay) publishBatch(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, defaultBatchSize)
	if err != nil {
		return fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var pending []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.id, &row.aggregateID, &row.payload); err != nil {
			return fmt.Errorf("scan outbox row: %w", err)
		}
		pending = append(pending, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox rows: %w", err)
	}

	for _, row := range pending {
		record := &kgo.Record{
			Topic: r.topic,
			Key:   []byte(row.aggregateID),
			Value: row.payload,
		}
		if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			if r.metrics != nil && r.metrics.OutboxPublishFailuresTotal != nil {
				r.metrics.OutboxPublishFailuresTotal.Inc()
			}
			return fmt.Errorf("produce outbox row %s: %w", row.id, err)
		}

		if _, err := r.db.ExecContext(ctx,
			`UPDATE outbox SET published_at = $1 WHERE id = $2`,
			time.Now(), row.id,
		); err != nil {
			// The row was produced but not marked; it will be produced
			// again. Consumers must treat the payload ID as idempotency key.
			return fmt.Errorf("mark outbox row %s published: %w", row.id, err)
		}
		if r.metrics != nil && r.metrics.OutboxPublishedTotal != nil {
			r.metrics.OutboxPublishedTotal.Inc()
		}
	}
	return nil
}
