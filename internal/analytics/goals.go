package analytics

import (
	"context"
	"math"
	"time"

	"trade-journal/internal/models"
)

// Progress is the state of one goal period.
type Progress struct {
	Period          Period  `json:"period"`
	ReferenceDate   string  `json:"referenceDate"`
	Goal            float64 `json:"goal"`
	Trades          int     `json:"trades"`
	GrossProfit     float64 `json:"grossProfit"`
	GrossLoss       float64 `json:"grossLoss"`
	NetProfit       float64 `json:"netProfit"`
	ProgressPercent float64 `json:"progressPercent"`
	Remaining       float64 `json:"remaining"`
	IsCompleted     bool    `json:"isCompleted"`
}

// ComputeProgress measures the period of granularity g containing ref
// against the matching goal in goals.
func ComputeProgress(trades []ScoredTrade, goals models.GoalSet, g models.Granularity, ref time.Time, r Resolver) Progress {
	return progressFor(trades, goals, r.Bounds(g, ref), r)
}

func progressFor(trades []ScoredTrade, goals models.GoalSet, period Period, r Resolver) Progress {
	goal := goals.Get(period.Granularity)
	loc := r.Loc()

	p := Progress{Period: period, ReferenceDate: period.Key(), Goal: goal}
	for _, t := range trades {
		day, ok := t.Trade.Day(loc)
		if !ok || !period.Contains(day) {
			continue
		}
		p.Trades++
		switch pnl := t.PnL(); {
		case pnl > 0:
			p.GrossProfit += pnl
		case pnl < 0:
			p.GrossLoss += -pnl
		}
	}
	p.NetProfit = p.GrossProfit - p.GrossLoss
	p.ProgressPercent = progressPercent(p.NetProfit, goal)
	p.Remaining = math.Max(goal-p.NetProfit, 0)
	p.IsCompleted = goalMet(p.NetProfit, goal)
	return p
}

func progressPercent(net, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return math.Min(math.Max(net/goal*100, 0), 100)
}

func goalMet(net, goal float64) bool {
	return goal > 0 && net >= goal
}

// Revalidate keeps only achievements whose period still meets the current
// goal for its granularity. Achievements with an unknown granularity, an
// unusable date or a zero goal are dropped. Weekly achievements are checked
// against the week they recorded, so changing the week start does not
// discard them. The input is not modified.
func Revalidate(achievements []models.Achievement, trades []ScoredTrade, goals models.GoalSet, r Resolver) []models.Achievement {
	kept := make([]models.Achievement, 0, len(achievements))
	for _, a := range achievements {
		if !a.Granularity.Valid() {
			continue
		}
		ref, ok := models.ParseDay(a.ReferenceDate, r.Loc())
		if !ok {
			continue
		}
		if progressFor(trades, goals, r.Recorded(a.Granularity, ref), r).IsCompleted {
			kept = append(kept, a)
		}
	}
	return kept
}

// Record adds an achievement for p when it is completed and none exists for
// its period yet. It reports whether the set changed.
func Record(achievements []models.Achievement, p Progress, now time.Time) ([]models.Achievement, bool) {
	if !p.IsCompleted {
		return achievements, false
	}
	a := models.Achievement{
		Granularity:   p.Period.Granularity,
		ReferenceDate: p.ReferenceDate,
		GoalValue:     p.Goal,
		AchievedAt:    now,
	}
	for _, existing := range achievements {
		if existing.Key() == a.Key() {
			return achievements, false
		}
	}
	return append(achievements, a), true
}

// AchievementStore persists the achievement set.
type AchievementStore interface {
	LoadAchievements(ctx context.Context) ([]models.Achievement, error)
	SaveAchievements(ctx context.Context, achievements []models.Achievement) error
}

// GoalTracker computes goal progress and keeps the stored achievement set
// consistent with the current trades and goals.
type GoalTracker struct {
	resolver Resolver
	store    AchievementStore
	now      func() time.Time
}

// NewGoalTracker creates a tracker backed by store.
func NewGoalTracker(r Resolver, store AchievementStore) *GoalTracker {
	return &GoalTracker{resolver: r, store: store, now: time.Now}
}

// Resolver returns the tracker's period resolver.
func (gt *GoalTracker) Resolver() Resolver {
	return gt.resolver
}

// Revalidate reloads the stored achievements, drops those no longer met,
// and saves the result when it differs.
func (gt *GoalTracker) Revalidate(ctx context.Context, trades []ScoredTrade, goals models.GoalSet) ([]models.Achievement, error) {
	current, err := gt.store.LoadAchievements(ctx)
	if err != nil {
		return nil, err
	}
	next := Revalidate(current, trades, goals, gt.resolver)
	if len(next) != len(current) {
		if err := gt.store.SaveAchievements(ctx, next); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// Update revalidates stored achievements, computes progress for the period
// of g containing ref, and records a new achievement when it is completed.
func (gt *GoalTracker) Update(ctx context.Context, trades []ScoredTrade, goals models.GoalSet, g models.Granularity, ref time.Time) (Progress, []models.Achievement, error) {
	current, err := gt.store.LoadAchievements(ctx)
	if err != nil {
		return Progress{}, nil, err
	}

	next := Revalidate(current, trades, goals, gt.resolver)
	changed := len(next) != len(current)

	p := ComputeProgress(trades, goals, g, ref, gt.resolver)
	var added bool
	next, added = Record(next, p, gt.now())
	changed = changed || added

	if changed {
		if err := gt.store.SaveAchievements(ctx, next); err != nil {
			return Progress{}, nil, err
		}
	}
	return p, next, nil
}

// UpdateAll runs Update for every granularity at ref.
func (gt *GoalTracker) UpdateAll(ctx context.Context, trades []ScoredTrade, goals models.GoalSet, ref time.Time) (map[models.Granularity]Progress, []models.Achievement, error) {
	out := make(map[models.Granularity]Progress, len(models.Granularities))
	var achievements []models.Achievement
	for _, g := range models.Granularities {
		p, a, err := gt.Update(ctx, trades, goals, g, ref)
		if err != nil {
			return nil, nil, err
		}
		out[g] = p
		achievements = a
	}
	return out, achievements, nil
}
