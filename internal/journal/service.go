// Package journal owns one journal document and exposes trade, goal and
// analytics operations over it.
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trade-journal/internal/analytics"
	"trade-journal/internal/cache"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

// Options configures a Service.
type Options struct {
	Key                    string
	DefaultStartingCapital float64
	Resolver               analytics.Resolver
	MinGroupTrades         int
	Cache                  *cache.Cache
	Logger                 zerolog.Logger
	Now                    func() time.Time
}

// Service serializes access to one journal document. Every mutation is
// applied to a copy, achievements are revalidated, and the copy is saved
// before it replaces the in-memory document.
type Service struct {
	store store.DocumentStore
	opts  Options

	mu  sync.Mutex
	doc *models.Document
}

// New creates a service over st. The document is loaded on first use.
func New(st store.DocumentStore, opts Options) *Service {
	if opts.Key == "" {
		opts.Key = "default"
	}
	if opts.MinGroupTrades < 1 {
		opts.MinGroupTrades = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: st, opts: opts}
}

// log returns the logger carried by ctx, falling back to the service
// logger, tagged with the journal key.
func (s *Service) log(ctx context.Context) zerolog.Logger {
	return logging.WithJournal(logging.FromContext(ctx, s.opts.Logger), s.opts.Key)
}

// Key returns the document key.
func (s *Service) Key() string { return s.opts.Key }

// Resolver returns the period resolver.
func (s *Service) Resolver() analytics.Resolver { return s.opts.Resolver }

// MinGroupTrades returns the default group size threshold.
func (s *Service) MinGroupTrades() int { return s.opts.MinGroupTrades }

// Now returns the service clock in the resolver's time zone.
func (s *Service) Now() time.Time { return s.opts.Now().In(s.opts.Resolver.Loc()) }

// load fills s.doc from the store. Callers hold s.mu.
func (s *Service) load(ctx context.Context) error {
	if s.doc != nil {
		return nil
	}
	doc, err := s.store.Load(ctx, s.opts.Key)
	switch {
	case apperrors.Is(err, apperrors.ErrDataNotFound):
		doc = models.NewDocument(s.opts.DefaultStartingCapital)
		l := s.log(ctx)
		l.Debug().Msg("Starting new journal")
	case err != nil:
		return apperrors.Wrap(err, "failed to load journal")
	}
	s.doc = doc
	return nil
}

// Reload discards the in-memory document and cached views.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = nil
	s.opts.Cache.Invalidate()
	return s.load(ctx)
}

// Document returns a copy of the current document.
func (s *Service) Document(ctx context.Context) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s.doc.Clone(), nil
}

// commit revalidates achievements on next, saves it and makes it current.
// Callers hold s.mu.
func (s *Service) commit(ctx context.Context, next *models.Document) error {
	before := s.doc.Achievements
	tracker := analytics.NewGoalTracker(s.opts.Resolver, &documentAchievements{doc: next})
	if _, err := tracker.Revalidate(ctx, analytics.Score(next.Trades), next.Goals); err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.opts.Key, next); err != nil {
		return apperrors.Wrap(err, "failed to save journal")
	}
	s.doc = next
	s.opts.Cache.Invalidate()
	s.logAchievementChanges(ctx, before, next.Achievements)
	return nil
}

// track runs fn with a goal tracker bound to a copy of the document and
// saves the copy if fn changed its achievements. Callers hold s.mu.
func (s *Service) track(ctx context.Context, fn func(t *analytics.GoalTracker, trades []analytics.ScoredTrade, goals models.GoalSet) error) error {
	if err := s.load(ctx); err != nil {
		return err
	}
	next := s.doc.Clone()
	adapter := &documentAchievements{doc: next}
	tracker := analytics.NewGoalTracker(s.opts.Resolver, adapter)

	if err := fn(tracker, s.scored(), next.Goals); err != nil {
		return err
	}
	if !adapter.dirty {
		return nil
	}
	if err := s.store.Save(ctx, s.opts.Key, next); err != nil {
		return apperrors.Wrap(err, "failed to save achievements")
	}
	before := s.doc.Achievements
	s.doc = next
	s.opts.Cache.Invalidate()
	s.logAchievementChanges(ctx, before, next.Achievements)
	return nil
}

func (s *Service) logAchievementChanges(ctx context.Context, before, after []models.Achievement) {
	logger := s.log(ctx)
	for _, ev := range store.DiffAchievements(before, after) {
		logging.LogAchievement(logger, ev.Action, string(ev.Granularity), ev.ReferenceDate, ev.GoalValue)
	}
}

// scored returns the current trades with metrics, memoized per revision.
// Callers hold s.mu with the document loaded.
func (s *Service) scored() []analytics.ScoredTrade {
	c := s.opts.Cache
	return cache.Memo(c, c.Key("scored"), func() []analytics.ScoredTrade {
		return analytics.Score(s.doc.Trades)
	})
}

// documentAchievements adapts a document's achievement list to
// analytics.AchievementStore.
type documentAchievements struct {
	doc   *models.Document
	dirty bool
}

func (d *documentAchievements) LoadAchievements(context.Context) ([]models.Achievement, error) {
	return append([]models.Achievement{}, d.doc.Achievements...), nil
}

func (d *documentAchievements) SaveAchievements(_ context.Context, a []models.Achievement) error {
	d.doc.Achievements = append([]models.Achievement{}, a...)
	d.dirty = true
	return nil
}
