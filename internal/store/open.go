package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"trade-journal/internal/config"
	"trade-journal/internal/logging"
)

// Open creates the document store selected by cfg, wrapped with debug
// logging. Postgres is additionally guarded by a circuit breaker.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (DocumentStore, error) {
	var (
		s   DocumentStore
		err error
	)

	switch cfg.Storage.Backend {
	case config.BackendFile, "":
		s, err = NewFileStore(cfg.StoragePath())
	case config.BackendSQLite:
		path := cfg.StoragePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		s, err = NewSQLiteStore(path)
	case config.BackendPostgres:
		var pg *PostgresStore
		pg, err = NewPostgresStore(ctx, cfg.Storage.DSN, cfg.Storage.MaxConns)
		if err != nil {
			logger.Error().Err(err).Str("dsn", logging.RedactDSN(cfg.Storage.DSN)).Msg("Failed to connect to postgres")
			return nil, err
		}
		s = WithCircuitBreaker(pg, NewStoreBreaker("postgres"))
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("backend", s.Backend()).Msg("Document store opened")
	return WithLogging(s, logger), nil
}

// CapitalReader is implemented by stores that index a journal's starting
// capital outside the document body.
type CapitalReader interface {
	StartingCapital(ctx context.Context, key string) (decimal.Decimal, error)
}

// AuditLogOf returns the audit log behind s when the backend keeps one.
func AuditLogOf(s DocumentStore) (AuditLog, bool) {
	return find[AuditLog](s)
}

// CapitalReaderOf returns the capital index behind s when the backend keeps one.
func CapitalReaderOf(s DocumentStore) (CapitalReader, bool) {
	return find[CapitalReader](s)
}

// find walks the decorator chain of s looking for a T.
func find[T any](s DocumentStore) (T, bool) {
	for {
		if v, ok := s.(T); ok {
			return v, true
		}
		u, ok := s.(interface{ Unwrap() DocumentStore })
		if !ok {
			var zero T
			return zero, false
		}
		s = u.Unwrap()
	}
}
