package analytics

import (
	"context"
	"time"

	"trade-journal/internal/models"
)

var utc = time.UTC

var time0 time.Time

func day(s string) time.Time {
	d, err := time.ParseInLocation(models.DateLayout, s, utc)
	if err != nil {
		panic(err)
	}
	return d
}

// scored builds a trade with a fixed P/L; prices are not consulted by the
// aggregators.
func scored(date, clock string, pnl float64, strategy string) ScoredTrade {
	return ScoredTrade{
		Trade: models.Trade{
			ID:            date + "@" + clock,
			Date:          date,
			Time:          clock,
			Direction:     models.DirectionLong,
			StrategyLabel: strategy,
		},
		Metrics: Metrics{PnL: pnl, RiskReward: ZeroRiskReward},
	}
}

type memAchievements struct {
	items []models.Achievement
	saves int
}

func (m *memAchievements) LoadAchievements(context.Context) ([]models.Achievement, error) {
	out := make([]models.Achievement, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memAchievements) SaveAchievements(_ context.Context, a []models.Achievement) error {
	m.items = append([]models.Achievement(nil), a...)
	m.saves++
	return nil
}
