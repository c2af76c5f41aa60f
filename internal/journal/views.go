package journal

import (
	"context"
	"time"

	"trade-journal/internal/analytics"
	"trade-journal/internal/cache"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

// Range limits a view to trades dated within [From, To]. Zero bounds are open.
type Range struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the range is unbounded.
func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

func (r Range) key() string {
	return r.From.Format(models.DateLayout) + ".." + r.To.Format(models.DateLayout)
}

// view loads the document and runs fn under the lock. Callers receive
// memoized scored trades for the range.
func (s *Service) view(ctx context.Context, rng Range, fn func(trades []analytics.ScoredTrade, doc *models.Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	trades := s.scored()
	if !rng.IsZero() {
		c := s.opts.Cache
		trades = cache.Memo(c, c.Key("range", rng.key()), func() []analytics.ScoredTrade {
			return analytics.FilterRange(trades, rng.From, rng.To, s.opts.Resolver.Loc())
		})
	}
	fn(trades, s.doc)
	return nil
}

// Summary returns headline statistics for the range.
func (s *Service) Summary(ctx context.Context, rng Range) (analytics.Summary, error) {
	var out analytics.Summary
	err := s.view(ctx, rng, func(trades []analytics.ScoredTrade, _ *models.Document) {
		c := s.opts.Cache
		out = cache.Memo(c, c.Key("summary", rng.key()), func() analytics.Summary {
			return analytics.Summarize(trades, s.opts.Resolver.Loc())
		})
	})
	return out, err
}

// GroupReport is a breakdown of trades along one dimension.
type GroupReport struct {
	Dimension analytics.Dimension `json:"dimension"`
	MinTrades int                 `json:"minTrades"`
	// Groups lists every group in first-seen order, small ones included.
	Groups []analytics.Group `json:"groups"`
	// Ranked lists groups meeting MinTrades, best total P/L first.
	Ranked        []analytics.Group `json:"ranked"`
	BestByProfit  *analytics.Group  `json:"bestByProfit,omitempty"`
	BestByWinRate *analytics.Group  `json:"bestByWinRate,omitempty"`
	TotalPnL      float64           `json:"totalPnl"`
}

// Groups breaks trades down by dimension. minTrades below 1 uses the
// configured default.
func (s *Service) Groups(ctx context.Context, dim analytics.Dimension, minTrades int, rng Range) (GroupReport, error) {
	key, err := analytics.KeyFor(dim, s.opts.Resolver)
	if err != nil {
		return GroupReport{}, err
	}
	if minTrades < 1 {
		minTrades = s.opts.MinGroupTrades
	}

	var out GroupReport
	err = s.view(ctx, rng, func(trades []analytics.ScoredTrade, _ *models.Document) {
		c := s.opts.Cache
		out = cache.Memo(c, c.Key("groups", dim, minTrades, rng.key()), func() GroupReport {
			groups := analytics.Aggregate(trades, key)
			eligible := groups.Eligible(minTrades)
			report := GroupReport{
				Dimension: dim,
				MinTrades: minTrades,
				Groups:    groups.All(),
				Ranked:    analytics.Rank(eligible, analytics.ByProfit),
				TotalPnL:  groups.TotalPnL(),
			}
			if g, ok := analytics.BestByProfit(eligible); ok {
				report.BestByProfit = &g
			}
			if g, ok := analytics.BestByWinRate(eligible); ok {
				report.BestByWinRate = &g
			}
			return report
		})
	})
	return out, err
}

// Equity builds the equity curve for the range. An empty mode means
// absolute for the full history and incremental for a bounded range.
func (s *Service) Equity(ctx context.Context, mode analytics.EquityMode, rng Range) (analytics.EquityCurve, error) {
	if mode == "" {
		mode = analytics.EquityAbsolute
		if !rng.IsZero() {
			mode = analytics.EquityIncremental
		}
	}

	var out analytics.EquityCurve
	err := s.view(ctx, rng, func(trades []analytics.ScoredTrade, doc *models.Document) {
		c := s.opts.Cache
		out = cache.Memo(c, c.Key("equity", mode, rng.key()), func() analytics.EquityCurve {
			return analytics.BuildEquityCurve(trades, doc.StartingCapital, mode, s.opts.Resolver.Loc())
		})
	})
	return out, err
}

// Calendar returns the day-by-day view of one month.
func (s *Service) Calendar(ctx context.Context, year int, month time.Month) (analytics.CalendarMonth, error) {
	if month < time.January || month > time.December {
		return analytics.CalendarMonth{}, apperrors.NewValidationError("month", int(month), "must be 1-12")
	}

	var out analytics.CalendarMonth
	err := s.view(ctx, Range{}, func(trades []analytics.ScoredTrade, _ *models.Document) {
		c := s.opts.Cache
		out = cache.Memo(c, c.Key("calendar", year, int(month)), func() analytics.CalendarMonth {
			return analytics.BuildCalendarMonth(trades, year, month, s.opts.Resolver)
		})
	})
	return out, err
}

// YearOverview returns twelve month summaries judged against the current
// monthly goal.
func (s *Service) YearOverview(ctx context.Context, year int) (analytics.YearOverview, error) {
	var out analytics.YearOverview
	err := s.view(ctx, Range{}, func(trades []analytics.ScoredTrade, doc *models.Document) {
		c := s.opts.Cache
		out = cache.Memo(c, c.Key("year", year), func() analytics.YearOverview {
			return analytics.BuildYearOverview(trades, year, doc.Goals, s.opts.Resolver.Loc())
		})
	})
	return out, err
}

// Goals returns the current goal set.
func (s *Service) Goals(ctx context.Context) (models.GoalSet, error) {
	var out models.GoalSet
	err := s.view(ctx, Range{}, func(_ []analytics.ScoredTrade, doc *models.Document) {
		out = doc.Goals
	})
	return out, err
}

// Progress reports the goal period of g containing ref. Stored
// achievements are revalidated and a completed period is recorded.
func (s *Service) Progress(ctx context.Context, g models.Granularity, ref time.Time) (analytics.Progress, error) {
	if !g.Valid() {
		return analytics.Progress{}, apperrors.Wrapf(apperrors.ErrUnknownGranularity, "%q", string(g))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out analytics.Progress
	err := s.track(ctx, func(t *analytics.GoalTracker, trades []analytics.ScoredTrade, goals models.GoalSet) error {
		p, _, err := t.Update(ctx, trades, goals, g, ref)
		out = p
		return err
	})
	return out, err
}

// AllProgress reports every granularity at ref.
func (s *Service) AllProgress(ctx context.Context, ref time.Time) (map[models.Granularity]analytics.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out map[models.Granularity]analytics.Progress
	err := s.track(ctx, func(t *analytics.GoalTracker, trades []analytics.ScoredTrade, goals models.GoalSet) error {
		p, _, err := t.UpdateAll(ctx, trades, goals, ref)
		out = p
		return err
	})
	return out, err
}

// Achievements returns the stored achievements after revalidating them
// against the current trades and goals.
func (s *Service) Achievements(ctx context.Context) ([]models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Achievement
	err := s.track(ctx, func(t *analytics.GoalTracker, trades []analytics.ScoredTrade, goals models.GoalSet) error {
		a, err := t.Revalidate(ctx, trades, goals)
		out = a
		return err
	})
	return out, err
}

// AchievementHistory returns audit events when the backend records them.
// ok is false for backends without an audit trail.
func (s *Service) AchievementHistory(ctx context.Context, limit int) (events []store.AchievementEvent, ok bool, err error) {
	audit, ok := store.AuditLogOf(s.store)
	if !ok {
		return nil, false, nil
	}
	events, err = audit.AchievementEvents(ctx, s.opts.Key, limit)
	return events, true, err
}
