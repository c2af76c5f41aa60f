package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/journal"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

// --- Helpers ---

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

// fail maps a service error to a status code.
func (s *Server) fail(c *gin.Context, where string, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrTradeNotFound), apperrors.Is(err, apperrors.ErrDataNotFound):
		c.JSON(http.StatusNotFound, apiError{Code: "not_found", Message: err.Error()})
	case apperrors.Is(err, apperrors.ErrDuplicateTrade):
		c.JSON(http.StatusConflict, apiError{Code: "conflict", Message: err.Error()})
	case apperrors.Is(err, apperrors.ErrInputValidation),
		apperrors.Is(err, apperrors.ErrUnknownGranularity),
		apperrors.Is(err, apperrors.ErrUnknownDimension),
		apperrors.Is(err, apperrors.ErrUnsupportedFormat):
		s.badRequest(c, err.Error())
	default:
		s.Logger.Error().Err(err).Str("where", where).Msg("internal_error")
		c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
	}
}

func parseLimit(v string, def, min, max int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}

// parseDate reads an optional YYYY-MM-DD query parameter.
func (s *Server) parseDate(c *gin.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, true
	}
	d, ok := models.ParseDay(raw, s.Journal.Resolver().Loc())
	if !ok {
		s.badRequest(c, fmt.Sprintf("invalid %s (use YYYY-MM-DD)", name))
		return time.Time{}, false
	}
	return d, true
}

func (s *Server) parseRange(c *gin.Context) (journal.Range, bool) {
	from, ok := s.parseDate(c, "from")
	if !ok {
		return journal.Range{}, false
	}
	to, ok := s.parseDate(c, "to")
	if !ok {
		return journal.Range{}, false
	}
	return journal.Range{From: from, To: to}, true
}

func (s *Server) parseGranularity(c *gin.Context) (models.Granularity, bool) {
	g, ok := models.ParseGranularity(c.Param("granularity"))
	if !ok {
		s.badRequest(c, "invalid granularity (use day, week, month or year)")
	}
	return g, ok
}

func (s *Server) bindTrade(c *gin.Context) (models.Trade, bool) {
	var t models.Trade
	if err := c.ShouldBindJSON(&t); err != nil {
		s.badRequest(c, "invalid trade body: "+err.Error())
		return t, false
	}
	t = analytics.ResolveLegs(t)
	if err := models.ValidateTrade(t); err != nil {
		s.badRequest(c, err.Error())
		return t, false
	}
	return t, true
}

// --- Handlers ---

func (s *Server) getSummary(c *gin.Context) {
	rng, ok := s.parseRange(c)
	if !ok {
		return
	}
	sum, err := s.Journal.Summary(c.Request.Context(), rng)
	if err != nil {
		s.fail(c, "Summary", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

type tradesResponse struct {
	Rows []analytics.ScoredTrade `json:"rows"`
}

func (s *Server) getTrades(c *gin.Context) {
	rng, ok := s.parseRange(c)
	if !ok {
		return
	}
	rows, err := s.Journal.Trades(c.Request.Context(), journal.TradeQuery{
		From:     rng.From,
		To:       rng.To,
		Strategy: strings.TrimSpace(c.Query("strategy")),
		Symbol:   strings.TrimSpace(c.Query("symbol")),
		Limit:    parseLimit(c.Query("limit"), 0, 1, 10000),
		Newest:   c.Query("order") == "newest",
	})
	if err != nil {
		s.fail(c, "Trades", err)
		return
	}
	c.JSON(http.StatusOK, tradesResponse{Rows: rows})
}

func (s *Server) getTrade(c *gin.Context) {
	t, err := s.Journal.Trade(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, "Trade", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) postTrade(c *gin.Context) {
	t, ok := s.bindTrade(c)
	if !ok {
		return
	}
	added, err := s.Journal.AddTrade(c.Request.Context(), t)
	if err != nil {
		s.fail(c, "AddTrade", err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (s *Server) putTrade(c *gin.Context) {
	t, ok := s.bindTrade(c)
	if !ok {
		return
	}
	t.ID = c.Param("id")
	replaced, err := s.Journal.ReplaceTrade(c.Request.Context(), t)
	if err != nil {
		s.fail(c, "ReplaceTrade", err)
		return
	}
	c.JSON(http.StatusOK, replaced)
}

func (s *Server) deleteTrade(c *gin.Context) {
	if err := s.Journal.DeleteTrade(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, "DeleteTrade", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getGroups(c *gin.Context) {
	dim, err := analytics.ParseDimension(c.Param("dimension"))
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	rng, ok := s.parseRange(c)
	if !ok {
		return
	}
	report, err := s.Journal.Groups(c.Request.Context(), dim, parseLimit(c.Query("min"), 0, 1, 1000), rng)
	if err != nil {
		s.fail(c, "Groups", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) getEquity(c *gin.Context) {
	var mode analytics.EquityMode
	if raw := c.Query("mode"); raw != "" {
		m, ok := analytics.ParseEquityMode(raw)
		if !ok {
			s.badRequest(c, "invalid mode (use absolute or incremental)")
			return
		}
		mode = m
	}
	rng, ok := s.parseRange(c)
	if !ok {
		return
	}
	curve, err := s.Journal.Equity(c.Request.Context(), mode, rng)
	if err != nil {
		s.fail(c, "Equity", err)
		return
	}
	c.JSON(http.StatusOK, curve)
}

func (s *Server) getCalendar(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		s.badRequest(c, "invalid year")
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		s.badRequest(c, "invalid month (use 1-12)")
		return
	}
	cal, err := s.Journal.Calendar(c.Request.Context(), year, time.Month(month))
	if err != nil {
		s.fail(c, "Calendar", err)
		return
	}
	c.JSON(http.StatusOK, cal)
}

func (s *Server) getYear(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		s.badRequest(c, "invalid year")
		return
	}
	ov, err := s.Journal.YearOverview(c.Request.Context(), year)
	if err != nil {
		s.fail(c, "YearOverview", err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

func (s *Server) getGoals(c *gin.Context) {
	goals, err := s.Journal.Goals(c.Request.Context())
	if err != nil {
		s.fail(c, "Goals", err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (s *Server) getProgress(c *gin.Context) {
	g, ok := s.parseGranularity(c)
	if !ok {
		return
	}
	ref, ok := s.parseDate(c, "date")
	if !ok {
		return
	}
	if ref.IsZero() {
		ref = s.Journal.Now()
	}
	p, err := s.Journal.Progress(c.Request.Context(), g, ref)
	if err != nil {
		s.fail(c, "Progress", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type goalRequest struct {
	Amount *float64 `json:"amount"`
}

func (s *Server) putGoal(c *gin.Context) {
	g, ok := s.parseGranularity(c)
	if !ok {
		return
	}
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount == nil {
		s.badRequest(c, "body must be {\"amount\": <number>}")
		return
	}
	goals, err := s.Journal.SetGoal(c.Request.Context(), g, *req.Amount)
	if err != nil {
		s.fail(c, "SetGoal", err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (s *Server) getAchievements(c *gin.Context) {
	list, err := s.Journal.Achievements(c.Request.Context())
	if err != nil {
		s.fail(c, "Achievements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": list})
}

func (s *Server) getAchievementHistory(c *gin.Context) {
	events, ok, err := s.Journal.AchievementHistory(c.Request.Context(), parseLimit(c.Query("limit"), 50, 1, 1000))
	if err != nil {
		s.fail(c, "AchievementHistory", err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotImplemented, apiError{Code: "not_supported", Message: "storage backend keeps no achievement history"})
		return
	}
	if events == nil {
		events = []store.AchievementEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"rows": events})
}

func (s *Server) getExport(c *gin.Context) {
	format, err := store.ParseFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	contentType := map[store.Format]string{
		store.FormatJSON: "application/json",
		store.FormatYAML: "application/yaml",
		store.FormatCSV:  "text/csv",
	}[format]
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.Journal.Key()+"."+string(format)))
	if err := s.Journal.Export(c.Request.Context(), c.Writer, format); err != nil {
		s.fail(c, "Export", err)
	}
}
