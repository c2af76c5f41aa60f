// Package analytics derives performance figures from a list of trades.
//
// Every function here is a pure computation over its inputs. Malformed
// numbers, dates and times never cause an error: they contribute zero or
// fall into the Unknown bucket. The only state the package touches is the
// achievement set, and only through an injected AchievementStore.
package analytics

import (
	"time"

	"trade-journal/internal/models"
)

// ScoredTrade pairs a trade (with legs resolved) and its derived metrics.
type ScoredTrade struct {
	Trade   models.Trade `json:"trade"`
	Metrics Metrics      `json:"metrics"`
}

// PnL is shorthand for the trade's net P/L.
func (s ScoredTrade) PnL() float64 {
	return s.Metrics.PnL
}

// Score resolves legs and computes metrics for every trade, keeping order.
func Score(trades []models.Trade) []ScoredTrade {
	out := make([]ScoredTrade, len(trades))
	for i, t := range trades {
		resolved := ResolveLegs(t)
		out[i] = ScoredTrade{Trade: resolved, Metrics: Compute(resolved)}
	}
	return out
}

// FilterRange keeps trades whose date falls within [from, to], both
// inclusive by calendar day. A zero bound is open. Trades without a usable
// date are dropped whenever a bound is set.
func FilterRange(trades []ScoredTrade, from, to time.Time, loc *time.Location) []ScoredTrade {
	if from.IsZero() && to.IsZero() {
		return trades
	}
	if loc == nil {
		loc = time.Local
	}
	lo := truncateDay(from, loc)
	hi := truncateDay(to, loc)

	out := make([]ScoredTrade, 0, len(trades))
	for _, t := range trades {
		day, ok := t.Trade.Day(loc)
		if !ok {
			continue
		}
		if !from.IsZero() && day.Before(lo) {
			continue
		}
		if !to.IsZero() && day.After(hi) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// TotalPnL sums the net P/L of trades.
func TotalPnL(trades []ScoredTrade) float64 {
	var total float64
	for _, t := range trades {
		total += t.PnL()
	}
	return total
}
