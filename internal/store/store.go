// Package store provides document persistence interfaces and implementations.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
)

// DocumentStore loads and saves whole journal documents by key.
// Load returns an error matching apperrors.ErrDataNotFound when no document
// exists for the key.
type DocumentStore interface {
	Load(ctx context.Context, key string) (*models.Document, error)
	Save(ctx context.Context, key string, doc *models.Document) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Backend() string
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateKey rejects keys that are empty, too long or not filename-safe.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return apperrors.NewValidationError("key", key, "must be 1-128 letters, digits, '.', '_' or '-'")
	}
	return nil
}

// Encode serializes a document in its persisted JSON shape.
func Encode(doc *models.Document) ([]byte, error) {
	if doc == nil {
		doc = models.NewDocument(0)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// Decode parses a persisted document and normalizes it. Malformed fields
// fall back to their defaults; only a body that is not a JSON object fails.
func Decode(data []byte) (*models.Document, error) {
	doc := models.NewDocument(0)
	if len(data) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
	}
	models.Normalize(doc)
	return doc, nil
}

// loggedStore records every call at debug level.
type loggedStore struct {
	next   DocumentStore
	logger zerolog.Logger
}

// WithLogging wraps s so each call is logged with its duration.
func WithLogging(s DocumentStore, logger zerolog.Logger) DocumentStore {
	return &loggedStore{next: s, logger: logger}
}

func (l *loggedStore) Load(ctx context.Context, key string) (*models.Document, error) {
	start := time.Now()
	doc, err := l.next.Load(ctx, key)
	logging.LogStore(l.logger, l.next.Backend(), "load", key, time.Since(start), err)
	return doc, err
}

func (l *loggedStore) Save(ctx context.Context, key string, doc *models.Document) error {
	start := time.Now()
	err := l.next.Save(ctx, key, doc)
	logging.LogStore(l.logger, l.next.Backend(), "save", key, time.Since(start), err)
	return err
}

func (l *loggedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := l.next.Delete(ctx, key)
	logging.LogStore(l.logger, l.next.Backend(), "delete", key, time.Since(start), err)
	return err
}

func (l *loggedStore) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := l.next.Keys(ctx)
	logging.LogStore(l.logger, l.next.Backend(), "keys", "", time.Since(start), err)
	return keys, err
}

func (l *loggedStore) Backend() string {
	return l.next.Backend()
}

func (l *loggedStore) Close() error {
	return l.next.Close()
}

// Unwrap returns the decorated store.
func (l *loggedStore) Unwrap() DocumentStore {
	return l.next
}

func notFound(backend, key string) error {
	return apperrors.NewStoreError(backend, "load", key, apperrors.ErrDataNotFound)
}
