// Package api serves a journal over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"trade-journal/internal/journal"
	"trade-journal/internal/logging"
)

// Server exposes a journal service as a JSON API.
type Server struct {
	R       *gin.Engine
	Journal *journal.Service
	Logger  zerolog.Logger
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer wires the router and middleware. mode is a gin mode
// (debug, release or test); empty keeps gin's current mode.
func NewServer(svc *journal.Service, logger zerolog.Logger, mode string) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	g := gin.New()

	g.Use(func(c *gin.Context) {
		start := time.Now()
		reqLogger := logging.WithOperation(logger, c.Request.Method+" "+c.FullPath())
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), reqLogger))
		c.Next()
		reqLogger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("http_request")
	})
	g.Use(gin.Recovery())

	s := &Server{R: g, Journal: svc, Logger: logger}

	g.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := g.Group("/api")
	api.GET("/summary", s.getSummary)
	api.GET("/trades", s.getTrades)
	api.POST("/trades", s.postTrade)
	api.GET("/trades/:id", s.getTrade)
	api.PUT("/trades/:id", s.putTrade)
	api.DELETE("/trades/:id", s.deleteTrade)
	api.GET("/groups/:dimension", s.getGroups)
	api.GET("/equity", s.getEquity)
	api.GET("/calendar/:year/:month", s.getCalendar)
	api.GET("/year/:year", s.getYear)
	api.GET("/goals", s.getGoals)
	api.GET("/goals/:granularity", s.getProgress)
	api.PUT("/goals/:granularity", s.putGoal)
	api.GET("/achievements", s.getAchievements)
	api.GET("/achievements/history", s.getAchievementHistory)
	api.GET("/export", s.getExport)

	return s
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.R}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info().Str("addr", addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShut); err != nil {
		return err
	}
	s.Logger.Info().Msg("shutdown complete")
	return nil
}
