package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// PostgresStore implements DocumentStore on PostgreSQL, keeping each
// document as a JSONB body.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn, verifies connectivity and creates the
// schema. maxConns of zero keeps the pgxpool default.
func NewPostgresStore(ctx context.Context, dsn string, maxConns int) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = int32(maxConns)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	retry := utils.DefaultRetryConfig()
	retry.MaxAttempts = 5
	if err := utils.Retry(ctx, retry, func() error { return pool.Ping(ctx) }); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS journal_documents (
			key TEXT PRIMARY KEY,
			body JSONB NOT NULL,
			starting_capital NUMERIC(20, 2) NOT NULL DEFAULT 0,
			trade_count INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Backend implements DocumentStore.
func (s *PostgresStore) Backend() string { return "postgres" }

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Load implements DocumentStore.
func (s *PostgresStore) Load(ctx context.Context, key string) (*models.Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, "SELECT body FROM journal_documents WHERE key = $1", key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(s.Backend(), key)
	}
	if err != nil {
		return nil, s.dbErr("load", key, err)
	}

	doc, err := Decode(body)
	if err != nil {
		return nil, apperrors.NewStoreError(s.Backend(), "load", key, err)
	}
	return doc, nil
}

// Save implements DocumentStore.
func (s *PostgresStore) Save(ctx context.Context, key string, doc *models.Document) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	data, err := Encode(doc)
	if err != nil {
		return apperrors.NewStoreError(s.Backend(), "save", key, err)
	}

	capital, trades := decimal.Zero, 0
	if doc != nil {
		capital = decimal.NewFromFloat(doc.StartingCapital).Round(2)
		trades = len(doc.Trades)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO journal_documents (key, body, starting_capital, trade_count, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			body = EXCLUDED.body,
			starting_capital = EXCLUDED.starting_capital,
			trade_count = EXCLUDED.trade_count,
			updated_at = EXCLUDED.updated_at
	`, key, data, capital, trades, time.Now().UTC())
	if err != nil {
		return s.dbErr("save", key, err)
	}
	return nil
}

// Delete implements DocumentStore.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM journal_documents WHERE key = $1", key); err != nil {
		return s.dbErr("delete", key, err)
	}
	return nil
}

// Keys implements DocumentStore.
func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT key FROM journal_documents ORDER BY key")
	if err != nil {
		return nil, s.dbErr("keys", "", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, s.dbErr("keys", "", err)
	}
	return keys, nil
}

// StartingCapital reads the indexed capital column without decoding the
// document body.
func (s *PostgresStore) StartingCapital(ctx context.Context, key string) (decimal.Decimal, error) {
	var capital decimal.Decimal
	err := s.pool.QueryRow(ctx, "SELECT starting_capital FROM journal_documents WHERE key = $1", key).Scan(&capital)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, notFound(s.Backend(), key)
	}
	if err != nil {
		return decimal.Zero, s.dbErr("load", key, err)
	}
	return capital, nil
}

func (s *PostgresStore) dbErr(op, key string, err error) error {
	return apperrors.NewStoreError(s.Backend(), op, key, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
}
