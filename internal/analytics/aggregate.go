package analytics

import (
	"sort"
	"strings"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// Group is the performance summary of trades sharing one key.
type Group struct {
	Key      string  `json:"key"`
	Count    int     `json:"count"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	TotalPnL float64 `json:"totalPnl"`
	WinRate  float64 `json:"winRate"`
	AvgR     float64 `json:"avgR"`

	sumR float64
}

// KeyFunc maps a trade to its group key. Empty keys group under Unknown.
type KeyFunc func(ScoredTrade) string

// Groups is an insertion-ordered mapping from key to Group.
type Groups struct {
	order []string
	index map[string]*Group
}

func newGroups() *Groups {
	return &Groups{index: make(map[string]*Group)}
}

// Aggregate groups trades by key, preserving first-encountered key order.
func Aggregate(trades []ScoredTrade, key KeyFunc) *Groups {
	groups := newGroups()
	for _, t := range trades {
		k := strings.TrimSpace(key(t))
		if k == "" {
			k = models.UnknownLabel
		}
		groups.add(k, t.Metrics)
	}
	for _, g := range groups.index {
		g.finalize()
	}
	return groups
}

func (gs *Groups) add(key string, m Metrics) {
	g, ok := gs.index[key]
	if !ok {
		g = &Group{Key: key}
		gs.index[key] = g
		gs.order = append(gs.order, key)
	}
	g.Count++
	switch {
	case m.PnL > 0:
		g.Wins++
	case m.PnL < 0:
		g.Losses++
	}
	g.TotalPnL += m.PnL
	g.sumR += m.RMultiple
}

func (g *Group) finalize() {
	if g.Count == 0 {
		g.WinRate, g.AvgR = 0, 0
		return
	}
	g.WinRate = float64(g.Wins) / float64(g.Count) * 100
	g.AvgR = g.sumR / float64(g.Count)
}

// Len returns the number of distinct keys.
func (gs *Groups) Len() int {
	return len(gs.order)
}

// Keys returns keys in insertion order.
func (gs *Groups) Keys() []string {
	out := make([]string, len(gs.order))
	copy(out, gs.order)
	return out
}

// Get returns the group for key.
func (gs *Groups) Get(key string) (Group, bool) {
	g, ok := gs.index[key]
	if !ok {
		return Group{}, false
	}
	return *g, true
}

// All returns every group in insertion order.
func (gs *Groups) All() []Group {
	out := make([]Group, 0, len(gs.order))
	for _, k := range gs.order {
		out = append(out, *gs.index[k])
	}
	return out
}

// Eligible returns groups with at least minCount trades, in insertion order.
// A minCount below 1 is treated as 1.
func (gs *Groups) Eligible(minCount int) []Group {
	if minCount < 1 {
		minCount = 1
	}
	out := make([]Group, 0, len(gs.order))
	for _, k := range gs.order {
		if g := gs.index[k]; g.Count >= minCount {
			out = append(out, *g)
		}
	}
	return out
}

// TotalPnL sums TotalPnL across every group regardless of size.
func (gs *Groups) TotalPnL() float64 {
	var total float64
	for _, k := range gs.order {
		total += gs.index[k].TotalPnL
	}
	return total
}

// Ranking orders groups for best-performer selection. It reports whether
// a ranks strictly ahead of b.
type Ranking func(a, b Group) bool

// ByProfit ranks by total P/L, highest first.
func ByProfit(a, b Group) bool {
	return a.TotalPnL > b.TotalPnL
}

// ByWinRate ranks by win rate, then total P/L, highest first.
func ByWinRate(a, b Group) bool {
	if a.WinRate != b.WinRate {
		return a.WinRate > b.WinRate
	}
	return a.TotalPnL > b.TotalPnL
}

// Rank returns a copy of groups stably sorted by ranking. Groups that tie
// keep their input order.
func Rank(groups []Group, ranking Ranking) []Group {
	ranked := make([]Group, len(groups))
	copy(ranked, groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranking(ranked[i], ranked[j])
	})
	return ranked
}

// Best returns the top group under ranking, or false when groups is empty.
func Best(groups []Group, ranking Ranking) (Group, bool) {
	if len(groups) == 0 {
		return Group{}, false
	}
	return Rank(groups, ranking)[0], true
}

// BestByProfit selects the group with the highest total P/L.
func BestByProfit(groups []Group) (Group, bool) {
	return Best(groups, ByProfit)
}

// BestByWinRate selects the group with the highest win rate, breaking ties
// on total P/L.
func BestByWinRate(groups []Group) (Group, bool) {
	return Best(groups, ByWinRate)
}

// Dimension names a built-in grouping key.
type Dimension string

const (
	DimensionStrategy    Dimension = "strategy"
	DimensionDirection   Dimension = "direction"
	DimensionMentalState Dimension = "mental"
	DimensionWeekday     Dimension = "weekday"
	DimensionHour        Dimension = "hour"
	DimensionSymbol      Dimension = "symbol"
)

// Dimensions lists the built-in grouping keys.
var Dimensions = []Dimension{
	DimensionStrategy, DimensionDirection, DimensionMentalState,
	DimensionWeekday, DimensionHour, DimensionSymbol,
}

// ParseDimension accepts a dimension name and a few common aliases.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strategy", "strategies", "setup":
		return DimensionStrategy, nil
	case "direction", "side":
		return DimensionDirection, nil
	case "mental", "mentalstate", "mental-state", "mood":
		return DimensionMentalState, nil
	case "weekday", "day", "dow":
		return DimensionWeekday, nil
	case "hour", "time":
		return DimensionHour, nil
	case "symbol", "ticker":
		return DimensionSymbol, nil
	default:
		return "", apperrors.Wrapf(apperrors.ErrUnknownDimension, "%q", s)
	}
}

// KeyFor returns the key function for d. Weekday keys use r's time zone.
func KeyFor(d Dimension, r Resolver) (KeyFunc, error) {
	switch d {
	case DimensionStrategy:
		return ByStrategy, nil
	case DimensionDirection:
		return ByDirection, nil
	case DimensionMentalState:
		return ByMentalState, nil
	case DimensionWeekday:
		return ByWeekday(r), nil
	case DimensionHour:
		return ByHour, nil
	case DimensionSymbol:
		return BySymbol, nil
	default:
		return nil, apperrors.Wrapf(apperrors.ErrUnknownDimension, "%q", string(d))
	}
}

// ByStrategy groups by strategy label.
func ByStrategy(t ScoredTrade) string {
	return t.Trade.Strategy()
}

// ByDirection groups by long or short.
func ByDirection(t ScoredTrade) string {
	return string(t.Trade.Direction)
}

// ByMentalState groups by mental-state tag.
func ByMentalState(t ScoredTrade) string {
	return string(t.Trade.MentalStateTag)
}

// BySymbol groups by upper-cased symbol.
func BySymbol(t ScoredTrade) string {
	return strings.ToUpper(strings.TrimSpace(t.Trade.Symbol))
}

// ByHour groups by the trade's hour-of-day bucket.
func ByHour(t ScoredTrade) string {
	return HourBucket(t.Trade.Time)
}

// ByWeekday groups by weekday name in r's time zone.
func ByWeekday(r Resolver) KeyFunc {
	loc := r.Loc()
	return func(t ScoredTrade) string {
		day, ok := t.Trade.Day(loc)
		if !ok {
			return models.UnknownLabel
		}
		return DayOfWeekKey(day)
	}
}
