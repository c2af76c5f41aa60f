package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"trade-journal/internal/models"
)

func ptr(f float64) *float64 { return &f }

func TestComputeLong(t *testing.T) {
	m := Compute(models.Trade{
		Direction:  models.DirectionLong,
		Quantity:   10,
		EntryPrice: 100,
		ExitPrice:  110,
		StopLoss:   ptr(95),
		Fees:       5,
	})

	assert.Equal(t, 95.0, m.PnL)
	assert.Equal(t, 50.0, m.TotalRisk)
	assert.InDelta(t, 1.9, m.RMultiple, 1e-9)
	assert.Equal(t, "1:1.90", m.RiskReward)
}

func TestComputeShort(t *testing.T) {
	m := Compute(models.Trade{
		Direction:  models.DirectionShort,
		Quantity:   5,
		EntryPrice: 100,
		ExitPrice:  90,
		StopLoss:   ptr(104),
	})

	assert.Equal(t, 50.0, m.PnL)
	assert.Equal(t, 20.0, m.TotalRisk)
	assert.Equal(t, "1:2.50", m.RiskReward)
}

func TestComputeLosingTradeHasNegativeR(t *testing.T) {
	m := Compute(models.Trade{
		Direction:  models.DirectionLong,
		Quantity:   1,
		EntryPrice: 50,
		ExitPrice:  45,
		StopLoss:   ptr(48),
	})

	assert.Equal(t, -5.0, m.PnL)
	assert.InDelta(t, -2.5, m.RMultiple, 1e-9)
	assert.Equal(t, "1:-2.50", m.RiskReward)
}

func TestComputeDegradesOnMissingInputs(t *testing.T) {
	for name, tr := range map[string]models.Trade{
		"no entry":    {Quantity: 1, EntryPrice: math.NaN(), ExitPrice: 10},
		"no exit":     {Quantity: 1, EntryPrice: 10, ExitPrice: math.NaN()},
		"no quantity": {Quantity: math.NaN(), EntryPrice: 10, ExitPrice: 11},
		"infinite":    {Quantity: 1, EntryPrice: math.Inf(1), ExitPrice: 11},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, zeroMetrics, Compute(tr))
		})
	}
}

func TestComputeIgnoresNonFiniteFeesAndStop(t *testing.T) {
	m := Compute(models.Trade{
		Quantity:   2,
		EntryPrice: 10,
		ExitPrice:  12,
		Fees:       math.NaN(),
		StopLoss:   ptr(math.NaN()),
	})

	assert.Equal(t, 4.0, m.PnL)
	assert.Zero(t, m.TotalRisk)
	assert.Equal(t, ZeroRiskReward, m.RiskReward)
}

func TestComputeRoundsToCents(t *testing.T) {
	m := Compute(models.Trade{Quantity: 3, EntryPrice: 10.1, ExitPrice: 10.2})
	assert.Equal(t, 0.3, m.PnL)
}

func TestResolveLegsWeightedAverage(t *testing.T) {
	tr := ResolveLegs(models.Trade{
		Quantity:   1,
		EntryPrice: 1,
		ExitPrice:  1,
		EntryLegs:  []models.Leg{models.NewLeg(100, 10), models.NewLeg(110, 10)},
		ExitLegs:   []models.Leg{models.NewLeg(120, 5), models.NewLeg(130, 15), {Price: ptr(999)}},
	})

	assert.Equal(t, 105.0, tr.EntryPrice)
	assert.Equal(t, 20.0, tr.Quantity)
	assert.Equal(t, 127.5, tr.ExitPrice)
}

func TestResolveLegsKeepsFieldsWithoutUsableLegs(t *testing.T) {
	tr := ResolveLegs(models.Trade{
		Quantity:   7,
		EntryPrice: 50,
		ExitPrice:  55,
		EntryLegs:  []models.Leg{{Quantity: ptr(3)}},
		ExitLegs:   []models.Leg{models.NewLeg(60, 0)},
	})

	assert.Equal(t, 7.0, tr.Quantity)
	assert.Equal(t, 50.0, tr.EntryPrice)
	assert.Equal(t, 55.0, tr.ExitPrice)
}

func TestScoreKeepsOrderAndResolvesLegs(t *testing.T) {
	out := Score([]models.Trade{
		{ID: "a", Quantity: 1, EntryPrice: 10, ExitPrice: 12},
		{ID: "b", ExitPrice: 110, EntryLegs: []models.Leg{models.NewLeg(100, 10), models.NewLeg(110, 10)}},
	})

	assert.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Trade.ID)
	assert.Equal(t, 2.0, out[0].PnL())
	assert.Equal(t, 105.0, out[1].Trade.EntryPrice)
	assert.Equal(t, 100.0, out[1].PnL())
}

func TestFilterRange(t *testing.T) {
	trades := []ScoredTrade{
		scored("2024-01-31", "", 1, ""),
		scored("2024-02-01", "", 2, ""),
		scored("2024-02-29", "23:59", 3, ""),
		scored("2024-03-01", "", 4, ""),
		scored("bad", "", 5, ""),
	}

	got := FilterRange(trades, day("2024-02-01"), day("2024-02-29"), utc)
	assert.Len(t, got, 2)
	assert.Equal(t, 5.0, TotalPnL(got))

	assert.Len(t, FilterRange(trades, day("2024-03-01"), time0, utc), 1)
	assert.Len(t, FilterRange(trades, time0, time0, utc), 5)
}
