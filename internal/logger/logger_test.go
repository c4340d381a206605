package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/slidekit/internal/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("bogus"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, slog.LevelInfo, logger.ParseFormat("json"))

	log.Debug("hidden")
	log.Info("copied", "entry", "css")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "copied", rec["msg"])
	assert.Equal(t, "css", rec["entry"])
	assert.Contains(t, rec, "source")
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, slog.LevelDebug, logger.ParseFormat("TEXT"))

	log.Debug("watching", "pattern", "css/**/*.css")

	assert.Contains(t, buf.String(), "msg=watching")
	assert.Contains(t, buf.String(), "pattern=css/**/*.css")
}
