package journal

import (
	"context"
	"math"
	"strings"
	"time"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
	"trade-journal/pkg/utils"
)

// TradeQuery filters and orders a trade listing.
type TradeQuery struct {
	From     time.Time
	To       time.Time
	Strategy string
	Symbol   string
	Limit    int
	// Newest lists the most recent trades first.
	Newest bool
}

// Trades returns scored trades matching q in chronological order.
func (s *Service) Trades(ctx context.Context, q TradeQuery) ([]analytics.ScoredTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	loc := s.opts.Resolver.Loc()
	trades := analytics.SortChronological(analytics.FilterRange(s.scored(), q.From, q.To, loc), loc)

	out := make([]analytics.ScoredTrade, 0, len(trades))
	for _, t := range trades {
		if q.Strategy != "" && t.Trade.Strategy() != q.Strategy {
			continue
		}
		if q.Symbol != "" && !strings.EqualFold(strings.TrimSpace(t.Trade.Symbol), strings.TrimSpace(q.Symbol)) {
			continue
		}
		out = append(out, t)
	}
	if q.Newest {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Trade returns one scored trade by ID.
func (s *Service) Trade(ctx context.Context, id string) (analytics.ScoredTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return analytics.ScoredTrade{}, err
	}
	i := s.doc.FindTrade(id)
	if i < 0 {
		return analytics.ScoredTrade{}, apperrors.Wrapf(apperrors.ErrTradeNotFound, "trade %s", id)
	}
	return s.scored()[i], nil
}

// prepare fills defaults on a trade about to be stored.
func prepare(t models.Trade) models.Trade {
	if t.ID == "" {
		t.ID = utils.NewID()
	}
	t = analytics.ResolveLegs(t)
	t.StrategyLabel = t.Strategy()
	if !utils.IsFinite(t.Fees) {
		t.Fees = 0
	}
	return t
}

// AddTrade stores a new trade and records any goal it completes.
func (s *Service) AddTrade(ctx context.Context, t models.Trade) (analytics.ScoredTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return analytics.ScoredTrade{}, err
	}

	t = prepare(t)
	if s.doc.FindTrade(t.ID) >= 0 {
		return analytics.ScoredTrade{}, apperrors.Wrapf(apperrors.ErrDuplicateTrade, "trade %s", t.ID)
	}

	next := s.doc.Clone()
	next.Trades = append(next.Trades, t)
	if err := s.commitWithGoals(ctx, next, t); err != nil {
		return analytics.ScoredTrade{}, err
	}

	scored := analytics.ScoredTrade{Trade: t, Metrics: analytics.Compute(t)}
	logging.LogTrade(logging.WithTradeID(s.log(ctx), t.ID), "added", t.Symbol, scored.Metrics.PnL)
	return scored, nil
}

// ReplaceTrade replaces the stored trade with the same ID.
func (s *Service) ReplaceTrade(ctx context.Context, t models.Trade) (analytics.ScoredTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return analytics.ScoredTrade{}, err
	}

	i := s.doc.FindTrade(t.ID)
	if t.ID == "" || i < 0 {
		return analytics.ScoredTrade{}, apperrors.Wrapf(apperrors.ErrTradeNotFound, "trade %s", t.ID)
	}

	t = prepare(t)
	next := s.doc.Clone()
	next.Trades[i] = t
	if err := s.commitWithGoals(ctx, next, t); err != nil {
		return analytics.ScoredTrade{}, err
	}

	scored := analytics.ScoredTrade{Trade: t, Metrics: analytics.Compute(t)}
	logging.LogTrade(logging.WithTradeID(s.log(ctx), t.ID), "replaced", t.Symbol, scored.Metrics.PnL)
	return scored, nil
}

// DeleteTrade removes a trade. Achievements that depended on it are
// withdrawn.
func (s *Service) DeleteTrade(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}

	i := s.doc.FindTrade(id)
	if i < 0 {
		return apperrors.Wrapf(apperrors.ErrTradeNotFound, "trade %s", id)
	}
	removed := s.doc.Trades[i]

	next := s.doc.Clone()
	next.Trades = append(next.Trades[:i], next.Trades[i+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	logging.LogTrade(logging.WithTradeID(s.log(ctx), removed.ID), "deleted", removed.Symbol, 0)
	return nil
}

// commitWithGoals records achievements for every period containing t's
// date, then commits. Callers hold s.mu.
func (s *Service) commitWithGoals(ctx context.Context, next *models.Document, t models.Trade) error {
	if day, ok := t.Day(s.opts.Resolver.Loc()); ok {
		tracker := analytics.NewGoalTracker(s.opts.Resolver, &documentAchievements{doc: next})
		if _, _, err := tracker.UpdateAll(ctx, analytics.Score(next.Trades), next.Goals, day); err != nil {
			return err
		}
	}
	return s.commit(ctx, next)
}

// SetGoal sets the target for one granularity. A zero amount clears it.
func (s *Service) SetGoal(ctx context.Context, g models.Granularity, amount float64) (models.GoalSet, error) {
	if !g.Valid() {
		return models.GoalSet{}, apperrors.Wrapf(apperrors.ErrUnknownGranularity, "%q", string(g))
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.GoalSet{}, apperrors.NewValidationError("goal", amount, "must be a non-negative number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return models.GoalSet{}, err
	}
	return s.setGoals(ctx, s.doc.Goals.With(g, amount))
}

// SetGoals replaces the whole goal set.
func (s *Service) SetGoals(ctx context.Context, goals models.GoalSet) (models.GoalSet, error) {
	for _, g := range models.Granularities {
		if v := goals.Get(g); v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.GoalSet{}, apperrors.NewValidationError(g.GoalKey(), v, "must be a non-negative number")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return models.GoalSet{}, err
	}
	return s.setGoals(ctx, goals)
}

// setGoals commits a goal change and records achievements for the
// current periods. Callers hold s.mu.
func (s *Service) setGoals(ctx context.Context, goals models.GoalSet) (models.GoalSet, error) {
	next := s.doc.Clone()
	next.Goals = goals
	tracker := analytics.NewGoalTracker(s.opts.Resolver, &documentAchievements{doc: next})
	if _, _, err := tracker.UpdateAll(ctx, analytics.Score(next.Trades), goals, s.Now()); err != nil {
		return models.GoalSet{}, err
	}
	if err := s.commit(ctx, next); err != nil {
		return models.GoalSet{}, err
	}
	l := s.log(ctx)
	l.Info().
		Float64("daily", goals.Daily).
		Float64("weekly", goals.Weekly).
		Float64("monthly", goals.Monthly).
		Float64("yearly", goals.Yearly).
		Msg("Goals updated")
	return goals, nil
}

// StartingCapital returns the capital the equity curve starts from. When
// the document is not loaded yet and the backend indexes the value, it is
// read from the index instead of decoding the document.
func (s *Service) StartingCapital(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		if r, ok := store.CapitalReaderOf(s.store); ok {
			capital, err := r.StartingCapital(ctx, s.opts.Key)
			switch {
			case err == nil:
				return capital.InexactFloat64(), nil
			case apperrors.Is(err, apperrors.ErrDataNotFound):
				return s.opts.DefaultStartingCapital, nil
			default:
				return 0, apperrors.Wrap(err, "failed to read starting capital")
			}
		}
	}
	if err := s.load(ctx); err != nil {
		return 0, err
	}
	return s.doc.StartingCapital, nil
}

// SetStartingCapital sets the capital the equity curve starts from.
func (s *Service) SetStartingCapital(ctx context.Context, amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return apperrors.NewValidationError("startingCapital", amount, "must be a non-negative number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}

	next := s.doc.Clone()
	next.StartingCapital = amount
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	l := s.log(ctx)
	l.Info().Float64("starting_capital", amount).Msg("Starting capital updated")
	return nil
}
