package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/models"
)

func TestComputeProgressDailyGoal(t *testing.T) {
	r := NewResolver(time.Sunday, utc)
	trades := []ScoredTrade{
		scored("2024-05-10", "09:30", 600, ""),
		scored("2024-05-10", "14:00", 500, ""),
		scored("2024-05-11", "", 5000, ""),
	}

	p := ComputeProgress(trades, models.GoalSet{Daily: 1000}, models.GranularityDay, day("2024-05-10"), r)

	assert.Equal(t, 2, p.Trades)
	assert.Equal(t, 1100.0, p.GrossProfit)
	assert.Zero(t, p.GrossLoss)
	assert.Equal(t, 1100.0, p.NetProfit)
	assert.True(t, p.IsCompleted)
	assert.Equal(t, 100.0, p.ProgressPercent)
	assert.Zero(t, p.Remaining)
	assert.Equal(t, "2024-05-10", p.ReferenceDate)
}

func TestComputeProgressPartialAndNegative(t *testing.T) {
	r := NewResolver(time.Sunday, utc)
	goals := models.GoalSet{Weekly: 1000}

	p := ComputeProgress([]ScoredTrade{
		scored("2024-05-06", "", 700, ""),
		scored("2024-05-07", "", -450, ""),
	}, goals, models.GranularityWeek, day("2024-05-09"), r)
	assert.Equal(t, 700.0, p.GrossProfit)
	assert.Equal(t, 450.0, p.GrossLoss)
	assert.Equal(t, 250.0, p.NetProfit)
	assert.Equal(t, 25.0, p.ProgressPercent)
	assert.Equal(t, 750.0, p.Remaining)
	assert.False(t, p.IsCompleted)
	assert.Equal(t, "2024-05-05", p.ReferenceDate)

	p = ComputeProgress([]ScoredTrade{scored("2024-05-06", "", -100, "")}, goals, models.GranularityWeek, day("2024-05-06"), r)
	assert.Zero(t, p.ProgressPercent)
	assert.Equal(t, 1100.0, p.Remaining)
}

func TestComputeProgressWithoutGoal(t *testing.T) {
	p := ComputeProgress([]ScoredTrade{scored("2024-05-10", "", 50, "")}, models.GoalSet{},
		models.GranularityDay, day("2024-05-10"), NewResolver(time.Sunday, utc))

	assert.False(t, p.IsCompleted)
	assert.Zero(t, p.ProgressPercent)
	assert.Zero(t, p.Remaining)
}

func TestGoalTrackerRecordsAndInvalidates(t *testing.T) {
	ctx := context.Background()
	store := &memAchievements{}
	tracker := NewGoalTracker(NewResolver(time.Sunday, utc), store)
	tracker.now = func() time.Time { return time.Date(2024, 5, 10, 16, 0, 0, 0, utc) }

	goals := models.GoalSet{Daily: 1000}
	trades := []ScoredTrade{
		scored("2024-05-10", "09:30", 600, ""),
		scored("2024-05-10", "14:00", 500, ""),
	}

	_, achievements, err := tracker.Update(ctx, trades, goals, models.GranularityDay, day("2024-05-10"))
	require.NoError(t, err)
	require.Len(t, achievements, 1)
	assert.Equal(t, models.Achievement{
		Granularity:   models.GranularityDay,
		ReferenceDate: "2024-05-10",
		GoalValue:     1000,
		AchievedAt:    tracker.now(),
	}, achievements[0])
	assert.Equal(t, 1, store.saves)

	// Checking again in the same period does not duplicate or resave.
	_, achievements, err = tracker.Update(ctx, trades, goals, models.GranularityDay, day("2024-05-10").Add(5*time.Hour))
	require.NoError(t, err)
	assert.Len(t, achievements, 1)
	assert.Equal(t, 1, store.saves)

	achievements, err = tracker.Revalidate(ctx, trades[:1], goals)
	require.NoError(t, err)
	assert.Empty(t, achievements)
	assert.Empty(t, store.items)
}

func TestRevalidateUsesCurrentGoal(t *testing.T) {
	r := NewResolver(time.Sunday, utc)
	trades := []ScoredTrade{scored("2024-05-10", "", 1100, "")}
	stored := []models.Achievement{
		{Granularity: models.GranularityDay, ReferenceDate: "2024-05-10", GoalValue: 1000},
		{Granularity: models.GranularityMonth, ReferenceDate: "2024-05-01", GoalValue: 1000},
	}

	kept := Revalidate(stored, trades, models.GoalSet{Daily: 1000, Monthly: 1000}, r)
	assert.Len(t, kept, 2)

	kept = Revalidate(stored, trades, models.GoalSet{Daily: 1200, Monthly: 1000}, r)
	require.Len(t, kept, 1)
	assert.Equal(t, models.GranularityMonth, kept[0].Granularity)

	assert.Len(t, stored, 2)
}

func TestRevalidateDropsUnusableAchievements(t *testing.T) {
	r := NewResolver(time.Sunday, utc)
	trades := []ScoredTrade{scored("2024-05-10", "", 1100, "")}
	stored := []models.Achievement{
		{Granularity: models.GranularityDay, ReferenceDate: "2024-05-10"},
		{Granularity: "fortnight", ReferenceDate: "2024-05-10"},
		{Granularity: models.GranularityDay, ReferenceDate: "soon"},
	}

	assert.Empty(t, Revalidate(stored, trades, models.GoalSet{}, r))
	assert.NotNil(t, Revalidate(nil, trades, models.GoalSet{}, r))
}

func TestUpdateAllCoversEveryGranularity(t *testing.T) {
	store := &memAchievements{}
	tracker := NewGoalTracker(NewResolver(time.Sunday, utc), store)
	trades := []ScoredTrade{scored("2024-05-10", "", 1500, "")}
	goals := models.GoalSet{Daily: 1000, Weekly: 1000, Monthly: 2000, Yearly: 1000}

	progress, achievements, err := tracker.UpdateAll(context.Background(), trades, goals, day("2024-05-10"))
	require.NoError(t, err)
	assert.Len(t, progress, 4)
	assert.False(t, progress[models.GranularityMonth].IsCompleted)
	assert.Len(t, achievements, 3)
}

type failingStore struct{ err error }

func (f failingStore) LoadAchievements(context.Context) ([]models.Achievement, error) {
	return nil, f.err
}

func (f failingStore) SaveAchievements(context.Context, []models.Achievement) error {
	return f.err
}

func TestGoalTrackerPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	tracker := NewGoalTracker(NewResolver(time.Sunday, utc), failingStore{err: boom})

	_, _, err := tracker.Update(context.Background(), nil, models.GoalSet{}, models.GranularityDay, day("2024-05-10"))
	assert.ErrorIs(t, err, boom)

	_, err = tracker.Revalidate(context.Background(), nil, models.GoalSet{})
	assert.ErrorIs(t, err, boom)
}

func TestRevalidateKeepsRecordedWeekAfterWeekStartChange(t *testing.T) {
	sunday := NewResolver(time.Sunday, utc)
	monday := NewResolver(time.Monday, utc)
	goals := models.GoalSet{Weekly: 1000}
	trades := []ScoredTrade{scored("2024-03-05", "", 1200, "")}

	p := ComputeProgress(trades, goals, models.GranularityWeek, day("2024-03-05"), sunday)
	require.True(t, p.IsCompleted)
	require.Equal(t, "2024-03-03", p.ReferenceDate)
	recorded, _ := Record(nil, p, day("2024-03-05"))

	kept := Revalidate(recorded, trades, goals, monday)
	require.Len(t, kept, 1)
	assert.Equal(t, "2024-03-03", kept[0].ReferenceDate)

	// The recorded week still has to meet the goal on its own trades.
	assert.Empty(t, Revalidate(recorded, []ScoredTrade{scored("2024-03-10", "", 1200, "")}, goals, monday))
	assert.Len(t, Revalidate(recorded, []ScoredTrade{scored("2024-03-09", "", 1200, "")}, goals, monday), 1)
}
