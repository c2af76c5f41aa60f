package store

import (
	"context"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/resilience"
)

// guardedStore sends calls to a remote backend through a circuit breaker so
// an unreachable database fails fast instead of stalling every command.
type guardedStore struct {
	next DocumentStore
	cb   *resilience.CircuitBreaker
}

// WithCircuitBreaker wraps s with cb. Missing documents and invalid keys do
// not count as backend failures.
func WithCircuitBreaker(s DocumentStore, cb *resilience.CircuitBreaker) DocumentStore {
	return &guardedStore{next: s, cb: cb}
}

// NewStoreBreaker returns a breaker configured for a document backend.
func NewStoreBreaker(name string) *resilience.CircuitBreaker {
	cfg := resilience.DefaultCircuitBreakerConfig()
	cfg.IsFailure = isBackendFailure
	return resilience.NewCircuitBreaker(name, cfg)
}

func isBackendFailure(err error) bool {
	switch {
	case apperrors.Is(err, apperrors.ErrDataNotFound),
		apperrors.Is(err, apperrors.ErrInputValidation),
		apperrors.Is(err, context.Canceled):
		return false
	}
	return true
}

func (g *guardedStore) Load(ctx context.Context, key string) (*models.Document, error) {
	doc, err := resilience.ExecuteWithResult(g.cb, ctx, func(ctx context.Context) (*models.Document, error) {
		return g.next.Load(ctx, key)
	})
	return doc, g.wrap("load", key, err)
}

func (g *guardedStore) Save(ctx context.Context, key string, doc *models.Document) error {
	err := g.cb.Execute(ctx, func(ctx context.Context) error {
		return g.next.Save(ctx, key, doc)
	})
	return g.wrap("save", key, err)
}

func (g *guardedStore) Delete(ctx context.Context, key string) error {
	err := g.cb.Execute(ctx, func(ctx context.Context) error {
		return g.next.Delete(ctx, key)
	})
	return g.wrap("delete", key, err)
}

func (g *guardedStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := resilience.ExecuteWithResult(g.cb, ctx, g.next.Keys)
	return keys, g.wrap("keys", "", err)
}

func (g *guardedStore) wrap(op, key string, err error) error {
	if apperrors.Is(err, resilience.ErrCircuitOpen) {
		return apperrors.NewStoreError(g.next.Backend(), op, key, err)
	}
	return err
}

func (g *guardedStore) Backend() string {
	return g.next.Backend()
}

func (g *guardedStore) Close() error {
	return g.next.Close()
}

// Unwrap returns the guarded store.
func (g *guardedStore) Unwrap() DocumentStore {
	return g.next
}
