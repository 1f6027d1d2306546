package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"rssaggregator/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDispatcherHandler_RoutesByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	log := slog.New(NewLevelDispatcherHandler(&out, &errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.Info("cycle completed", slog.Int("items", 3))
	log.Error("refresh failed", slog.Any("error", errors.New("boom")))

	assert.Contains(t, out.String(), "INFO: cycle completed | items=3")
	assert.NotContains(t, out.String(), "refresh failed")
	assert.Contains(t, errOut.String(), `ERROR: refresh failed | error="boom"`)
}

func TestReadableHandler_WithAttrsKeepsComponent(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(NewReadableHandler(&out, nil)).With(
		slog.String("component", "aggregator"),
		slog.String("source", "lenta.ru"),
	)

	log.Info("source fetched", slog.String("op", "fetch"), slog.Duration("duration", 1234567*time.Microsecond))

	line := out.String()
	assert.Contains(t, line, "INFO [aggregator] (fetch): source fetched")
	assert.Contains(t, line, "source=lenta.ru")
	assert.Contains(t, line, "duration=1.235s")
}

func TestReadableHandler_LevelFilter(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(NewReadableHandler(&out, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "WARN: shown")
}

func TestReadableHandler_GroupPrefixesKeys(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(NewReadableHandler(&out, nil)).WithGroup("http").With(slog.Int("status", 200))

	log.Info("request completed", slog.String("path", "/rss"))

	assert.Contains(t, out.String(), "http.status=200, http.path=/rss")
}

func TestShortenURL(t *testing.T) {
	assert.Equal(t, "https://lenta.ru/rss", shortenURL("https://lenta.ru/rss"))
	long := "https://tass.ru/rss/anews.xml?sections=NDczMA%3D%3D&extra=parameter"
	assert.Equal(t, "https://tass.ru/...", shortenURL(long))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_WritesToFiles(t *testing.T) {
	dir := t.TempDir()
	log, closeFn, err := New(config.LoggerConfig{
		Level:     "info",
		File:      filepath.Join(dir, "rss.log"),
		ErrorFile: filepath.Join(dir, "rss_error.log"),
	})
	require.NoError(t, err)
	log.Info("started")
	require.NoError(t, closeFn())
}

func TestOpenWriter_StreamNames(t *testing.T) {
	w, closeFn, err := openWriter("stderr", os.Stdout)
	require.NoError(t, err)
	assert.Same(t, os.Stderr, w)
	assert.NoError(t, closeFn())

	w, _, err = openWriter("", os.Stderr)
	require.NoError(t, err)
	assert.Same(t, os.Stderr, w)
}
