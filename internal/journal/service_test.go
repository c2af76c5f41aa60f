package journal

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/analytics"
	"trade-journal/internal/cache"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

var clock = time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, c *cache.Cache) (*Service, store.DocumentStore) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc := New(st, Options{
		Key:                    "test",
		DefaultStartingCapital: 10000,
		Resolver:               analytics.NewResolver(time.Sunday, time.UTC),
		MinGroupTrades:         1,
		Cache:                  c,
		Logger:                 zerolog.Nop(),
		Now:                    func() time.Time { return clock },
	})
	return svc, st
}

func longTrade(id, date string, entry, exit float64) models.Trade {
	return models.Trade{
		ID:            id,
		Date:          date,
		Direction:     models.DirectionLong,
		Symbol:        "AAPL",
		Quantity:      10,
		EntryPrice:    entry,
		ExitPrice:     exit,
		StrategyLabel: "breakout",
	}
}

func hasAchievement(list []models.Achievement, g models.Granularity, ref string) bool {
	for _, a := range list {
		if a.Granularity == g && a.ReferenceDate == ref {
			return true
		}
	}
	return false
}

func TestDailyGoalAchievedAndWithdrawn(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, nil)

	_, err := svc.SetGoal(ctx, models.GranularityDay, 1000)
	require.NoError(t, err)

	_, err = svc.AddTrade(ctx, longTrade("a", "2024-05-10", 100, 160))
	require.NoError(t, err)
	_, err = svc.AddTrade(ctx, longTrade("b", "2024-05-10", 100, 150))
	require.NoError(t, err)

	p, err := svc.Progress(ctx, models.GranularityDay, clock)
	require.NoError(t, err)
	assert.Equal(t, 1100.0, p.NetProfit)
	assert.True(t, p.IsCompleted)
	assert.Equal(t, 100.0, p.ProgressPercent)
	assert.Zero(t, p.Remaining)

	achievements, err := svc.Achievements(ctx)
	require.NoError(t, err)
	assert.True(t, hasAchievement(achievements, models.GranularityDay, "2024-05-10"))

	require.NoError(t, svc.DeleteTrade(ctx, "b"))

	achievements, err = svc.Achievements(ctx)
	require.NoError(t, err)
	assert.False(t, hasAchievement(achievements, models.GranularityDay, "2024-05-10"))

	stored, err := st.Load(ctx, "test")
	require.NoError(t, err)
	assert.Len(t, stored.Trades, 1)
	assert.Empty(t, stored.Achievements)
}

func TestLoweringGoalRecordsAchievement(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.SetGoal(ctx, models.GranularityDay, 1000)
	require.NoError(t, err)
	_, err = svc.AddTrade(ctx, longTrade("a", "2024-05-10", 100, 160))
	require.NoError(t, err)

	achievements, err := svc.Achievements(ctx)
	require.NoError(t, err)
	assert.Empty(t, achievements)

	_, err = svc.SetGoal(ctx, models.GranularityDay, 500)
	require.NoError(t, err)

	achievements, err = svc.Achievements(ctx)
	require.NoError(t, err)
	assert.True(t, hasAchievement(achievements, models.GranularityDay, "2024-05-10"))
}

func TestAddTradeRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.AddTrade(ctx, longTrade("a", "2024-05-10", 100, 110))
	require.NoError(t, err)

	_, err = svc.AddTrade(ctx, longTrade("a", "2024-05-11", 100, 120))
	assert.ErrorIs(t, err, apperrors.ErrDuplicateTrade)
}

func TestAddTradeAssignsIDAndResolvesLegs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	tr := longTrade("", "2024-05-10", 0, 115)
	tr.StrategyLabel = ""
	tr.EntryLegs = []models.Leg{models.NewLeg(100, 10), models.NewLeg(110, 10)}

	got, err := svc.AddTrade(ctx, tr)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Trade.ID)
	assert.Equal(t, 105.0, got.Trade.EntryPrice)
	assert.Equal(t, 20.0, got.Trade.Quantity)
	assert.Equal(t, models.UnknownLabel, got.Trade.StrategyLabel)
	assert.Equal(t, 200.0, got.PnL())
}

func TestReplaceAndDeleteMissingTrade(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.ReplaceTrade(ctx, longTrade("nope", "2024-05-10", 100, 110))
	assert.ErrorIs(t, err, apperrors.ErrTradeNotFound)

	assert.ErrorIs(t, svc.DeleteTrade(ctx, "nope"), apperrors.ErrTradeNotFound)

	_, err = svc.Trade(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrTradeNotFound)
}

func TestReplaceTrade(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.AddTrade(ctx, longTrade("a", "2024-05-10", 100, 110))
	require.NoError(t, err)

	_, err = svc.ReplaceTrade(ctx, longTrade("a", "2024-05-10", 100, 90))
	require.NoError(t, err)

	got, err := svc.Trade(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, -100.0, got.PnL())
}

func TestGoalValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.SetGoal(ctx, models.Granularity("fortnight"), 100)
	assert.ErrorIs(t, err, apperrors.ErrUnknownGranularity)

	_, err = svc.SetGoal(ctx, models.GranularityWeek, -1)
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)

	_, err = svc.SetGoals(ctx, models.GoalSet{Monthly: -5})
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)

	assert.ErrorIs(t, svc.SetStartingCapital(ctx, -1), apperrors.ErrInputValidation)

	goals, err := svc.SetGoals(ctx, models.GoalSet{Daily: 100, Yearly: 50000})
	require.NoError(t, err)
	assert.Equal(t, 100.0, goals.Daily)

	stored, err := svc.Goals(ctx)
	require.NoError(t, err)
	assert.Equal(t, goals, stored)
}

func TestTradesQuery(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	for _, tr := range []models.Trade{
		longTrade("a", "2024-05-08", 100, 110),
		longTrade("b", "2024-05-09", 100, 90),
		longTrade("c", "2024-05-10", 100, 120),
	} {
		_, err := svc.AddTrade(ctx, tr)
		require.NoError(t, err)
	}
	msft := longTrade("d", "2024-05-07", 50, 55)
	msft.Symbol = "MSFT"
	_, err := svc.AddTrade(ctx, msft)
	require.NoError(t, err)

	all, err := svc.Trades(ctx, TradeQuery{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "d", all[0].Trade.ID)

	newest, err := svc.Trades(ctx, TradeQuery{Symbol: "aapl", Newest: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "c", newest[0].Trade.ID)
	assert.Equal(t, "b", newest[1].Trade.ID)

	ranged, err := svc.Trades(ctx, TradeQuery{
		From: time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "b", ranged[0].Trade.ID)
}

func TestViewsWithCache(t *testing.T) {
	ctx := context.Background()
	c, err := cache.New(1000, time.Minute)
	require.NoError(t, err)
	defer c.Close()
	svc, _ := newTestService(t, c)

	_, err = svc.AddTrade(ctx, longTrade("a", "2024-05-08", 100, 110))
	require.NoError(t, err)

	sum, err := svc.Summary(ctx, Range{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalTrades)
	c.Wait()

	_, err = svc.AddTrade(ctx, longTrade("b", "2024-05-09", 100, 90))
	require.NoError(t, err)

	sum, err = svc.Summary(ctx, Range{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalTrades)
	assert.Equal(t, 0.0, sum.TotalPnL)

	curve, err := svc.Equity(ctx, "", Range{})
	require.NoError(t, err)
	assert.Equal(t, analytics.EquityAbsolute, curve.Mode)
	assert.Equal(t, 10000.0, curve.Final().Value)

	ranged, err := svc.Equity(ctx, "", Range{From: time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, analytics.EquityIncremental, ranged.Mode)
	assert.Equal(t, -100.0, ranged.Final().Value)

	report, err := svc.Groups(ctx, analytics.DimensionStrategy, 0, Range{})
	require.NoError(t, err)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "breakout", report.Groups[0].Key)
	require.NotNil(t, report.BestByProfit)

	month, err := svc.Calendar(ctx, 2024, time.May)
	require.NoError(t, err)
	assert.Equal(t, 2, month.ActiveDays)

	_, err = svc.Calendar(ctx, 2024, 13)
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)

	year, err := svc.YearOverview(ctx, 2024)
	require.NoError(t, err)
	assert.Len(t, year.Months, 12)
}

func TestGroupsUnknownDimension(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Groups(context.Background(), analytics.Dimension("colour"), 1, Range{})
	assert.ErrorIs(t, err, apperrors.ErrUnknownDimension)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestService(t, nil)

	_, err := src.SetGoal(ctx, models.GranularityDay, 100)
	require.NoError(t, err)
	_, err = src.AddTrade(ctx, longTrade("a", "2024-05-10", 100, 120))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf, store.FormatJSON))

	dst, _ := newTestService(t, nil)
	res, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()), store.FormatJSON, true)
	require.NoError(t, err)
	assert.True(t, res.Replaced)
	assert.Equal(t, 1, res.Trades)

	achievements, err := dst.Achievements(ctx)
	require.NoError(t, err)
	assert.True(t, hasAchievement(achievements, models.GranularityDay, "2024-05-10"))

	buf.Reset()
	require.NoError(t, src.Export(ctx, &buf, store.FormatCSV))
	res, err = dst.Import(ctx, strings.NewReader(buf.String()), store.FormatCSV, false)
	require.NoError(t, err)
	assert.False(t, res.Replaced)
	assert.Equal(t, 0, res.Trades)
	assert.Equal(t, 1, res.Skipped)
}

func TestAchievementHistoryWithoutAudit(t *testing.T) {
	svc, _ := newTestService(t, nil)
	events, ok, err := svc.AchievementHistory(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, events)
}

func TestMutationsLogThroughContextLogger(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	svc, _ := newTestService(t, nil)

	var buf bytes.Buffer
	reqLogger := zerolog.New(&buf).With().Str("operation", "POST /api/trades").Logger()
	ctx := logging.WithLogger(context.Background(), reqLogger)

	_, err := svc.AddTrade(ctx, longTrade("t1", "2024-05-10", 100, 160))
	require.NoError(t, err)

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, `"event":"trade"`) {
			continue
		}
		found = true
		assert.Contains(t, line, `"trade_id":"t1"`)
		assert.Contains(t, line, `"operation":"POST /api/trades"`)
		assert.Contains(t, line, `"journal":"test"`)
		assert.Contains(t, line, `"action":"added"`)
	}
	assert.True(t, found, "trade event not logged: %s", buf.String())

	// Without a context logger nothing reaches the request buffer.
	buf.Reset()
	_, err = svc.AddTrade(context.Background(), longTrade("t2", "2024-05-10", 100, 101))
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

// indexedStore reports a capital index distinct from the document body so
// tests can tell which one was read.
type indexedStore struct {
	store.DocumentStore
	capital decimal.Decimal
	err     error
	reads   int
}

func (s *indexedStore) StartingCapital(context.Context, string) (decimal.Decimal, error) {
	s.reads++
	return s.capital, s.err
}

func TestStartingCapitalUsesIndexBeforeLoad(t *testing.T) {
	ctx := context.Background()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	idx := &indexedStore{DocumentStore: fs, capital: decimal.RequireFromString("25000.50")}

	svc := New(store.WithLogging(idx, zerolog.Nop()), Options{
		Key:                    "test",
		DefaultStartingCapital: 10000,
		Resolver:               analytics.NewResolver(time.Sunday, time.UTC),
		Now:                    func() time.Time { return clock },
	})

	capital, err := svc.StartingCapital(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25000.5, capital)
	assert.Equal(t, 1, idx.reads)

	idx.err = apperrors.ErrDataNotFound
	capital, err = svc.StartingCapital(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, capital)

	idx.err = apperrors.ErrDatabaseError
	_, err = svc.StartingCapital(ctx)
	assert.ErrorIs(t, err, apperrors.ErrDatabaseError)

	// Once the document is loaded it is the source of truth.
	require.NoError(t, svc.SetStartingCapital(ctx, 5000))
	capital, err = svc.StartingCapital(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, capital)
	assert.Equal(t, 3, idx.reads)
}

func TestStartingCapitalWithoutIndex(t *testing.T) {
	svc, _ := newTestService(t, nil)
	capital, err := svc.StartingCapital(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10000.0, capital)
}
