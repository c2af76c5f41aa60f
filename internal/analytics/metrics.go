package analytics

import (
	"fmt"
	"math"

	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// ZeroRiskReward is shown when a trade has no defined risk.
const ZeroRiskReward = "0:0"

// Metrics are the figures derived from a single trade.
type Metrics struct {
	PnL        float64 `json:"pnl"`
	TotalRisk  float64 `json:"totalRisk"`
	RMultiple  float64 `json:"rMultiple"`
	RiskReward string  `json:"riskRewardRatioDisplay"`
}

var zeroMetrics = Metrics{RiskReward: ZeroRiskReward}

// Compute derives P/L, risk and R-multiple for one trade whose prices are
// already resolved from legs.
//
// A non-finite quantity, entry or exit yields all-zero metrics. A missing
// stop loss yields zero risk and a zero R-multiple.
func Compute(t models.Trade) Metrics {
	qty, entry, exit := t.Quantity, t.EntryPrice, t.ExitPrice
	if !utils.IsFinite(qty) || !utils.IsFinite(entry) || !utils.IsFinite(exit) {
		return zeroMetrics
	}

	var gross float64
	if t.Direction == models.DirectionShort {
		gross = (entry - exit) * qty
	} else {
		gross = (exit - entry) * qty
	}

	fees := t.Fees
	if !utils.IsFinite(fees) {
		fees = 0
	}

	m := Metrics{
		PnL:        utils.Round2(gross - fees),
		RiskReward: ZeroRiskReward,
	}
	if t.StopLoss != nil && utils.IsFinite(*t.StopLoss) {
		m.TotalRisk = utils.Round2(math.Abs(entry-*t.StopLoss) * qty)
	}
	if m.TotalRisk > 0 {
		m.RMultiple = m.PnL / m.TotalRisk
		m.RiskReward = fmt.Sprintf("1:%.2f", m.RMultiple)
	}
	return m
}

// WeightedAverage returns the quantity-weighted mean price and total
// quantity of legs. Legs missing either field are ignored. ok is false when
// no usable leg exists or the usable quantities sum to zero.
func WeightedAverage(legs []models.Leg) (price, quantity float64, ok bool) {
	var sumPQ, sumQ float64
	n := 0
	for _, l := range legs {
		if l.Price == nil || l.Quantity == nil {
			continue
		}
		p, q := *l.Price, *l.Quantity
		if !utils.IsFinite(p) || !utils.IsFinite(q) {
			continue
		}
		sumPQ += p * q
		sumQ += q
		n++
	}
	if n == 0 || sumQ == 0 {
		return 0, 0, false
	}
	return sumPQ / sumQ, sumQ, true
}

// ResolveLegs replaces entry price and quantity with the entry-leg average,
// and exit price with the exit-leg average. Fields without usable legs are
// left unchanged.
func ResolveLegs(t models.Trade) models.Trade {
	if price, qty, ok := WeightedAverage(t.EntryLegs); ok {
		t.EntryPrice = price
		t.Quantity = qty
	}
	if price, _, ok := WeightedAverage(t.ExitLegs); ok {
		t.ExitPrice = price
	}
	return t
}
