package analytics

import (
	"sort"
	"strings"
	"time"

	"trade-journal/pkg/utils"
)

// EquityMode selects how point values are expressed.
type EquityMode string

const (
	// EquityAbsolute starts the running balance at the starting capital.
	EquityAbsolute EquityMode = "absolute"
	// EquityIncremental starts at zero and tracks P/L within the window.
	EquityIncremental EquityMode = "incremental"
)

// ParseEquityMode accepts "absolute" and "incremental"; blank means absolute.
func ParseEquityMode(s string) (EquityMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "absolute", "abs":
		return EquityAbsolute, true
	case "incremental", "inc", "window":
		return EquityIncremental, true
	default:
		return "", false
	}
}

// EquityPoint is the account state after one trade. Index 0 is the
// synthetic start point with an empty date.
type EquityPoint struct {
	Index   int     `json:"index"`
	Date    string  `json:"date"`
	TradeID string  `json:"tradeId,omitempty"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
	PnL     float64 `json:"pnl"`

	Peak            float64 `json:"peak"`
	Drawdown        float64 `json:"drawdown"`
	DrawdownPercent float64 `json:"drawdownPercent"`
}

// EquityCurve is the chronological balance series for a trade set.
type EquityCurve struct {
	Mode               EquityMode    `json:"mode"`
	StartingCapital    float64       `json:"startingCapital"`
	Points             []EquityPoint `json:"points"`
	MaxDrawdown        float64       `json:"maxDrawdown"`
	MaxDrawdownPercent float64       `json:"maxDrawdownPercent"`
}

// Final returns the last point of the curve.
func (c EquityCurve) Final() EquityPoint {
	if len(c.Points) == 0 {
		return EquityPoint{}
	}
	return c.Points[len(c.Points)-1]
}

// SortChronological returns trades ordered by date then time. Trades
// without a time sort at the start of their day; trades without a usable
// date sort first. Equal instants keep input order.
func SortChronological(trades []ScoredTrade, loc *time.Location) []ScoredTrade {
	type keyed struct {
		at time.Time
		t  ScoredTrade
	}
	ks := make([]keyed, len(trades))
	for i, t := range trades {
		at, _ := t.Trade.Instant(loc)
		ks[i] = keyed{at: at, t: t}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		return ks[i].at.Before(ks[j].at)
	})
	out := make([]ScoredTrade, len(ks))
	for i, k := range ks {
		out[i] = k.t
	}
	return out
}

// BuildEquityCurve replays trades in chronological order.
//
// Percent is always measured against the starting capital, in either mode,
// and is 0 when the starting capital is 0. Drawdown is tracked on absolute
// equity.
func BuildEquityCurve(trades []ScoredTrade, startingCapital float64, mode EquityMode, loc *time.Location) EquityCurve {
	if mode != EquityIncremental {
		mode = EquityAbsolute
	}
	if !utils.IsFinite(startingCapital) {
		startingCapital = 0
	}

	sorted := SortChronological(trades, loc)
	curve := EquityCurve{
		Mode:            mode,
		StartingCapital: startingCapital,
		Points:          make([]EquityPoint, 0, len(sorted)+1),
	}

	start := EquityPoint{Index: 0, Peak: startingCapital}
	if mode == EquityAbsolute {
		start.Value = startingCapital
	}
	curve.Points = append(curve.Points, start)

	var cumulative float64
	peak := startingCapital
	for i, t := range sorted {
		pnl := t.PnL()
		cumulative += pnl
		absolute := startingCapital + cumulative
		if absolute > peak {
			peak = absolute
		}

		p := EquityPoint{
			Index:   i + 1,
			Date:    t.Trade.Date,
			TradeID: t.Trade.ID,
			PnL:     pnl,
			Percent: utils.SafeDiv(absolute-startingCapital, startingCapital) * 100,
			Peak:    peak,
		}
		if mode == EquityAbsolute {
			p.Value = absolute
		} else {
			p.Value = cumulative
		}
		p.Drawdown = peak - absolute
		if peak > 0 {
			p.DrawdownPercent = p.Drawdown / peak * 100
		}
		if p.Drawdown > curve.MaxDrawdown {
			curve.MaxDrawdown = p.Drawdown
		}
		if p.DrawdownPercent > curve.MaxDrawdownPercent {
			curve.MaxDrawdownPercent = p.DrawdownPercent
		}
		curve.Points = append(curve.Points, p)
	}
	return curve
}
