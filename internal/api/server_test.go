package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/analytics"
	"trade-journal/internal/journal"
	"trade-journal/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc := journal.New(st, journal.Options{
		Key:                    "api",
		DefaultStartingCapital: 5000,
		Resolver:               analytics.NewResolver(time.Sunday, time.UTC),
		Logger:                 zerolog.Nop(),
		Now:                    func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) },
	})
	return NewServer(svc, zerolog.Nop(), gin.TestMode)
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.R.ServeHTTP(w, req)
	return w
}

const tradeBody = `{"id":"t1","date":"2024-05-10","time":"09:45","direction":"long","symbol":"AAPL",
"quantity":10,"entryPrice":100,"exitPrice":160,"stopLoss":95,"strategy":"breakout"}`

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestTradeLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := do(s, http.MethodPost, "/api/trades", tradeBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var added analytics.ScoredTrade
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	assert.Equal(t, 600.0, added.Metrics.PnL)
	assert.Equal(t, 12.0, added.Metrics.RMultiple)
	assert.Equal(t, "1:12.00", added.Metrics.RiskReward)

	w = do(s, http.MethodPost, "/api/trades", tradeBody)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(s, http.MethodGet, "/api/trades/t1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodGet, "/api/trades?symbol=aapl&order=newest", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list tradesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Rows, 1)

	w = do(s, http.MethodPut, "/api/trades/missing", tradeBody)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, http.MethodDelete, "/api/trades/t1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(s, http.MethodGet, "/api/trades/t1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostTradeValidation(t *testing.T) {
	s := newTestServer(t)

	w := do(s, http.MethodPost, "/api/trades", `{"date":"yesterday","direction":"long","quantity":1,"entryPrice":1,"exitPrice":2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPost, "/api/trades", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoalsAndAchievements(t *testing.T) {
	s := newTestServer(t)

	w := do(s, http.MethodPut, "/api/goals/daily", `{"amount":500}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(s, http.MethodPut, "/api/goals/fortnight", `{"amount":500}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPut, "/api/goals/daily", `{"amount":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusCreated, do(s, http.MethodPost, "/api/trades", tradeBody).Code)

	w = do(s, http.MethodGet, "/api/goals/day?date=2024-05-10", "")
	require.Equal(t, http.StatusOK, w.Code)
	var p analytics.Progress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.True(t, p.IsCompleted)
	assert.Equal(t, 600.0, p.NetProfit)

	w = do(s, http.MethodGet, "/api/achievements", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"referenceDate":"2024-05-10"`)

	w = do(s, http.MethodGet, "/api/achievements/history", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(s, http.MethodPost, "/api/trades", tradeBody).Code)

	cases := []struct {
		path   string
		status int
	}{
		{"/api/summary", http.StatusOK},
		{"/api/summary?from=2024-05-01&to=2024-05-31", http.StatusOK},
		{"/api/summary?from=May", http.StatusBadRequest},
		{"/api/groups/strategy", http.StatusOK},
		{"/api/groups/weekday?min=2", http.StatusOK},
		{"/api/groups/colour", http.StatusBadRequest},
		{"/api/equity?mode=incremental", http.StatusOK},
		{"/api/equity?mode=sideways", http.StatusBadRequest},
		{"/api/calendar/2024/5", http.StatusOK},
		{"/api/calendar/2024/13", http.StatusBadRequest},
		{"/api/year/2024", http.StatusOK},
		{"/api/year/next", http.StatusBadRequest},
		{"/api/goals", http.StatusOK},
		{"/api/export?format=csv", http.StatusOK},
		{"/api/export?format=xml", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := do(s, http.MethodGet, tc.path, "")
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}

	w := do(s, http.MethodGet, "/api/equity", "")
	var curve analytics.EquityCurve
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &curve))
	assert.Equal(t, 5600.0, curve.Final().Value)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRequestLoggerReachesJournal(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc := journal.New(st, journal.Options{
		Key:      "api",
		Resolver: analytics.NewResolver(time.Sunday, time.UTC),
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) },
	})

	var buf strings.Builder
	s := NewServer(svc, zerolog.New(&buf), gin.TestMode)

	w := do(s, http.MethodPost, "/api/trades", tradeBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tradeLine, requestLine map[string]interface{}
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		switch {
		case line["event"] == "trade":
			tradeLine = line
		case line["message"] == "http_request":
			requestLine = line
		}
	}
	require.NotNil(t, tradeLine, buf.String())
	assert.Equal(t, "t1", tradeLine["trade_id"])
	assert.Equal(t, "POST /api/trades", tradeLine["operation"])
	assert.Equal(t, "api", tradeLine["journal"])

	require.NotNil(t, requestLine, buf.String())
	assert.Equal(t, "POST /api/trades", requestLine["operation"])
	assert.Equal(t, 201.0, requestLine["status"])
}
