package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodtrust/internal/domain"
	txcontext "foodtrust/pkg/platform/tx"
)

// PostgresStore persists product records in PostgreSQL. Uniqueness is enforced
// by the primary key: ON CONFLICT DO NOTHING makes Create a single atomic
// insert-if-absent instead of a racy check-then-insert.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed product store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, record domain.ProductRecord) error {
	query := `
		INSERT INTO products (product_id, name, ingredients, manufacturer, manufactured_at, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id) DO NOTHING
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		record.ID.String(),
		record.Name,
		record.Ingredients,
		record.Manufacturer,
		record.ManufacturedAt,
		record.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert product rows affected: %w", err)
	}
	if rows == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id domain.ProductID) (domain.ProductRecord, error) {
	query := `
		SELECT product_id, name, ingredients, manufacturer, manufactured_at, registered_at
		FROM products
		WHERE product_id = $1
	`
	var (
		record    domain.ProductRecord
		productID string
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, id.String()).Scan(
		&productID,
		&record.Name,
		&record.Ingredients,
		&record.Manufacturer,
		&record.ManufacturedAt,
		&record.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProductRecord{}, ErrNotFound
		}
		return domain.ProductRecord{}, fmt.Errorf("find product: %w", err)
	}
	record.ID = domain.ProductID(productID)
	return record, nil
}

func (s *PostgresStore) Exists(ctx context.Context, id domain.ProductID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE product_id = $1)`
	if err := s.execer(ctx).QueryRowContext(ctx, query, id.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return exists, nil
}
