package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

func TestAggregateGroupsInInsertionOrder(t *testing.T) {
	trades := []ScoredTrade{
		scored("2024-06-03", "", 100, "breakout"),
		scored("2024-06-03", "", -40, ""),
		scored("2024-06-04", "", 60, "breakout"),
		scored("2024-06-05", "", 0, "pullback"),
		scored("2024-06-06", "", -10, "breakout"),
	}
	trades[0].Metrics.RMultiple = 2
	trades[2].Metrics.RMultiple = 1

	groups := Aggregate(trades, ByStrategy)
	require.Equal(t, []string{"breakout", models.UnknownLabel, "pullback"}, groups.Keys())

	b, ok := groups.Get("breakout")
	require.True(t, ok)
	assert.Equal(t, 3, b.Count)
	assert.Equal(t, 2, b.Wins)
	assert.Equal(t, 1, b.Losses)
	assert.Equal(t, 150.0, b.TotalPnL)
	assert.InDelta(t, 66.666, b.WinRate, 0.001)
	assert.InDelta(t, 1.0, b.AvgR, 1e-9)

	p, _ := groups.Get("pullback")
	assert.Zero(t, p.Wins)
	assert.Zero(t, p.Losses)
	assert.Zero(t, p.WinRate)

	assert.Equal(t, 110.0, groups.TotalPnL())
}

func TestEligibleFiltersSmallGroupsOnly(t *testing.T) {
	trades := []ScoredTrade{
		scored("2024-06-03", "", 900, "lucky"),
		scored("2024-06-03", "", 50, "steady"),
		scored("2024-06-04", "", 60, "steady"),
	}
	groups := Aggregate(trades, ByStrategy)

	eligible := groups.Eligible(2)
	require.Len(t, eligible, 1)
	assert.Equal(t, "steady", eligible[0].Key)

	best, ok := BestByProfit(eligible)
	require.True(t, ok)
	assert.Equal(t, "steady", best.Key)

	assert.Len(t, groups.Eligible(0), 2)
	assert.Equal(t, 1010.0, groups.TotalPnL())
}

func TestBestByWinRateTieBreaksOnProfit(t *testing.T) {
	trades := []ScoredTrade{
		scored("2024-06-03", "", 300, "A"),
		scored("2024-06-03", "", 500, "B"),
	}
	groups := Aggregate(trades, ByStrategy).All()

	best, ok := BestByWinRate(groups)
	require.True(t, ok)
	assert.Equal(t, "B", best.Key)
	assert.Equal(t, 500.0, best.TotalPnL)
}

func TestBestRankingsDiffer(t *testing.T) {
	groups := []Group{
		{Key: "volume", Count: 10, WinRate: 40, TotalPnL: 900},
		{Key: "sniper", Count: 3, WinRate: 100, TotalPnL: 200},
	}

	byProfit, _ := BestByProfit(groups)
	byRate, _ := BestByWinRate(groups)
	assert.Equal(t, "volume", byProfit.Key)
	assert.Equal(t, "sniper", byRate.Key)
}

func TestRankIsStableOnFullTies(t *testing.T) {
	groups := []Group{
		{Key: "first", WinRate: 50, TotalPnL: 100},
		{Key: "second", WinRate: 50, TotalPnL: 100},
		{Key: "third", WinRate: 50, TotalPnL: 100},
	}

	for _, ranking := range []Ranking{ByProfit, ByWinRate} {
		ranked := Rank(groups, ranking)
		assert.Equal(t, "first", ranked[0].Key)
		assert.Equal(t, "second", ranked[1].Key)
		assert.Equal(t, "third", ranked[2].Key)
	}
	assert.Equal(t, "first", groups[0].Key)
}

func TestBestOfNothing(t *testing.T) {
	_, ok := BestByProfit(nil)
	assert.False(t, ok)
}

func TestKeyFunctions(t *testing.T) {
	r := NewResolver(time.Sunday, utc)
	tr := scored("2024-06-15", "14:20", 1, "gap")
	tr.Trade.Symbol = " aapl "
	tr.Trade.MentalStateTag = models.MentalEmotional

	cases := map[Dimension]string{
		DimensionStrategy:    "gap",
		DimensionDirection:   "Long",
		DimensionMentalState: "emotional",
		DimensionWeekday:     "saturday",
		DimensionHour:        "14:00–15:00",
		DimensionSymbol:      "AAPL",
	}
	for d, want := range cases {
		fn, err := KeyFor(d, r)
		require.NoError(t, err)
		assert.Equal(t, want, fn(tr), string(d))
	}

	bad := scored("yesterday", "", 1, "")
	weekday, _ := KeyFor(DimensionWeekday, r)
	assert.Equal(t, models.UnknownLabel, weekday(bad))

	groups := Aggregate([]ScoredTrade{bad}, ByMentalState)
	assert.Equal(t, []string{models.UnknownLabel}, groups.Keys())
}

func TestParseDimension(t *testing.T) {
	d, err := ParseDimension("Mood")
	require.NoError(t, err)
	assert.Equal(t, DimensionMentalState, d)

	_, err = ParseDimension("moon-phase")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnknownDimension))

	_, err = KeyFor("moon-phase", NewResolver(time.Sunday, utc))
	assert.Error(t, err)
}
