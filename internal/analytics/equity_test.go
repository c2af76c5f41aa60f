package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equityFixture() []ScoredTrade {
	return []ScoredTrade{
		scored("2024-06-02", "10:00", 100, ""),
		scored("2024-06-01", "", -50, ""),
		scored("2024-06-02", "09:00", 200, ""),
		scored("", "", 10, ""),
	}
}

func values(c EquityCurve) []float64 {
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Value
	}
	return out
}

func TestEquityAbsolute(t *testing.T) {
	curve := BuildEquityCurve(equityFixture(), 10000, EquityAbsolute, utc)

	require.Len(t, curve.Points, 5)
	assert.Equal(t, []float64{10000, 10010, 9960, 10160, 10260}, values(curve))

	start := curve.Points[0]
	assert.Equal(t, 0, start.Index)
	assert.Empty(t, start.Date)
	assert.Zero(t, start.Percent)

	assert.Equal(t, "2024-06-01", curve.Points[2].Date)
	assert.Equal(t, "2024-06-02", curve.Points[3].Date)
	assert.Equal(t, 200.0, curve.Points[3].PnL)
	assert.InDelta(t, 2.6, curve.Final().Percent, 1e-9)
}

func TestEquityIncrementalKeepsPercentOfCapital(t *testing.T) {
	abs := BuildEquityCurve(equityFixture(), 10000, EquityAbsolute, utc)
	inc := BuildEquityCurve(equityFixture(), 10000, EquityIncremental, utc)

	assert.Equal(t, []float64{0, 10, -40, 160, 260}, values(inc))
	for i := range inc.Points {
		assert.InDelta(t, abs.Points[i].Percent, inc.Points[i].Percent, 1e-9)
	}
}

func TestEquityZeroCapitalHasZeroPercent(t *testing.T) {
	curve := BuildEquityCurve(equityFixture(), 0, EquityAbsolute, utc)
	for _, p := range curve.Points {
		assert.Zero(t, p.Percent)
	}
	assert.Equal(t, 260.0, curve.Final().Value)
}

func TestEquityDrawdown(t *testing.T) {
	curve := BuildEquityCurve(equityFixture(), 10000, EquityAbsolute, utc)

	p := curve.Points[2]
	assert.Equal(t, 10010.0, p.Peak)
	assert.Equal(t, 50.0, p.Drawdown)
	assert.InDelta(t, 50.0/10010*100, p.DrawdownPercent, 1e-9)

	assert.Equal(t, 50.0, curve.MaxDrawdown)
	assert.Zero(t, curve.Final().Drawdown)
}

func TestEquityEmpty(t *testing.T) {
	curve := BuildEquityCurve(nil, 500, "", utc)
	require.Len(t, curve.Points, 1)
	assert.Equal(t, EquityAbsolute, curve.Mode)
	assert.Equal(t, 500.0, curve.Final().Value)
}

func TestParseEquityMode(t *testing.T) {
	m, ok := ParseEquityMode("Incremental")
	assert.True(t, ok)
	assert.Equal(t, EquityIncremental, m)

	_, ok = ParseEquityMode("log")
	assert.False(t, ok)
}
