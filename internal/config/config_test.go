package config

import (
	"os"
	"path/filepath"
	"rssaggregator/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
	"server": {"address": ":8081", "allowed_origins": ["https://example.github.io"]},
	"app": {
		"feed_urls": [{"name": "Lenta", "url": "https://lenta.ru/rss/news"}],
		"refresh_interval": "2m"
	}
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8081", cfg.Server.Address)
	assert.Equal(t, []string{"https://example.github.io"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.RefreshEvery())
	assert.Equal(t, 10*time.Second, cfg.FetchTimeoutDuration())
	assert.Equal(t, "Europe/Moscow", cfg.App.DisplayTimezone)
	assert.Equal(t, 4, cfg.App.MaxConcurrentFetches)
	assert.False(t, cfg.App.InsecureSkipVerify)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
app:
  feed_urls:
    - url: https://www.vedomosti.ru/rss/news.xml
  refresh_interval: 30s
  output_file: /tmp/feed.xml
logger:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "/tmp/feed.xml", cfg.App.OutputFile)
	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, []domain.Source{{Name: "vedomosti.ru", URL: "https://www.vedomosti.ru/rss/news.xml"}}, cfg.Sources())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"app": `)
	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := New()
		cfg.App.FeedURLs = []FeedURL{{URL: "https://tass.ru/rss/anews.xml"}}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no feeds", mutate: func(c *Config) { c.App.FeedURLs = nil }, wantErr: "no feed sources"},
		{name: "relative url", mutate: func(c *Config) { c.App.FeedURLs[0].URL = "news.xml" }, wantErr: "invalid url"},
		{name: "ftp scheme", mutate: func(c *Config) { c.App.FeedURLs[0].URL = "ftp://example.com/rss" }, wantErr: "scheme"},
		{name: "bad interval", mutate: func(c *Config) { c.App.RefreshInterval = "soon" }, wantErr: "refresh_interval"},
		{name: "zero interval", mutate: func(c *Config) { c.App.RefreshInterval = "0s" }, wantErr: "refresh_interval"},
		{name: "bad timeout", mutate: func(c *Config) { c.App.FetchTimeout = "-1s" }, wantErr: "fetch_timeout"},
		{name: "zero concurrency", mutate: func(c *Config) { c.App.MaxConcurrentFetches = 0 }, wantErr: "max_concurrent_fetches"},
		{name: "bad timezone", mutate: func(c *Config) { c.App.DisplayTimezone = "Mars/Olympus" }, wantErr: "display_timezone"},
		{name: "db without user", mutate: func(c *Config) { c.Database.Enabled = true }, wantErr: "username"},
		{name: "db disabled ignores credentials", mutate: func(c *Config) { c.Database.Enabled = false; c.Database.Host = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NoSourcesIsSentinel(t *testing.T) {
	err := New().Validate()
	assert.ErrorIs(t, err, domain.ErrNoSources)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, Username: "feeds", Password: "p@ss", DBName: "rss", SSLMode: "disable"}
	assert.Equal(t, "postgres://feeds:p%40ss@db:5433/rss?sslmode=disable", db.DSN())
}
