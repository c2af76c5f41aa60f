package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
	assert.True(t, ValidLevel("error"))
	assert.False(t, ValidLevel("chatty"))
}

func TestContextRoundTrip(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), WithOperation(logger, "POST /api/trades"))
	fromCtx := FromContext(ctx, zerolog.Nop())
	fromCtx.Info().Msg("hello")
	line := decodeLine(t, &buf)
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "POST /api/trades", line["operation"])

	// A bare context yields the fallback.
	buf.Reset()
	fallback := FromContext(context.Background(), zerolog.Nop())
	fallback.Info().Msg("dropped")
	assert.Empty(t, buf.String())
}

func TestEventHelpers(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	logger := WithJournal(zerolog.New(&buf), "default")

	LogTrade(WithTradeID(logger, "01HX"), "added", "AAPL", 95)
	line := decodeLine(t, &buf)
	assert.Equal(t, "trade", line["event"])
	assert.Equal(t, "01HX", line["trade_id"])
	assert.Equal(t, "default", line["journal"])
	assert.Equal(t, 95.0, line["pnl"])

	buf.Reset()
	LogAchievement(logger, "withdrawn", "day", "2024-05-10", 1000)
	line = decodeLine(t, &buf)
	assert.Equal(t, "withdrawn", line["action"])
	assert.Equal(t, "2024-05-10", line["reference_date"])

	buf.Reset()
	LogStore(logger, "sqlite", "save", "default", time.Millisecond, errors.New("locked"))
	line = decodeLine(t, &buf)
	assert.Equal(t, "locked", line["error"])
	assert.Equal(t, "debug", line["level"])
}

func TestNewLoggerWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "journal.log")
	logger := NewLoggerWithConfig(LogConfig{Level: "info", File: true, FilePath: path, MaxSize: 1})
	logger.Info().Msg("written")

	assert.FileExists(t, path)
}
