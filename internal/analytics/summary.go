package analytics

import (
	"math"
	"time"

	"trade-journal/pkg/utils"
)

// Summary holds headline statistics for a trade set.
type Summary struct {
	TotalTrades int     `json:"totalTrades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Breakeven   int     `json:"breakeven"`
	WinRate     float64 `json:"winRate"`

	TotalPnL     float64 `json:"totalPnl"`
	GrossProfit  float64 `json:"grossProfit"`
	GrossLoss    float64 `json:"grossLoss"`
	TotalFees    float64 `json:"totalFees"`
	ProfitFactor float64 `json:"profitFactor"`
	Expectancy   float64 `json:"expectancy"`

	AvgWin      float64 `json:"avgWin"`
	AvgLoss     float64 `json:"avgLoss"`
	LargestWin  float64 `json:"largestWin"`
	LargestLoss float64 `json:"largestLoss"`
	AvgR        float64 `json:"avgR"`

	MaxConsecutiveWins   int `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses int `json:"maxConsecutiveLosses"`
}

// Summarize computes headline statistics. Streaks follow chronological
// order in loc; breakeven trades end both streaks. Averages and ratios with
// an empty denominator are 0.
func Summarize(trades []ScoredTrade, loc *time.Location) Summary {
	var s Summary
	var sumR float64
	var winStreak, lossStreak int

	for _, t := range SortChronological(trades, loc) {
		pnl := t.PnL()
		s.TotalTrades++
		s.TotalPnL += pnl
		sumR += t.Metrics.RMultiple
		if utils.IsFinite(t.Trade.Fees) {
			s.TotalFees += t.Trade.Fees
		}

		switch {
		case pnl > 0:
			s.Wins++
			s.GrossProfit += pnl
			s.LargestWin = math.Max(s.LargestWin, pnl)
			winStreak++
			lossStreak = 0
		case pnl < 0:
			s.Losses++
			s.GrossLoss += -pnl
			s.LargestLoss = math.Min(s.LargestLoss, pnl)
			lossStreak++
			winStreak = 0
		default:
			s.Breakeven++
			winStreak, lossStreak = 0, 0
		}
		if winStreak > s.MaxConsecutiveWins {
			s.MaxConsecutiveWins = winStreak
		}
		if lossStreak > s.MaxConsecutiveLosses {
			s.MaxConsecutiveLosses = lossStreak
		}
	}

	n := float64(s.TotalTrades)
	s.WinRate = utils.SafeDiv(float64(s.Wins), n) * 100
	s.AvgR = utils.SafeDiv(sumR, n)
	s.Expectancy = utils.SafeDiv(s.TotalPnL, n)
	s.AvgWin = utils.SafeDiv(s.GrossProfit, float64(s.Wins))
	s.AvgLoss = utils.SafeDiv(s.GrossLoss, float64(s.Losses))
	s.ProfitFactor = utils.SafeDiv(s.GrossProfit, s.GrossLoss)
	return s
}
