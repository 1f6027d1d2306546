package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Source A</title>
<item><title>Older</title><link>https://a.example.com/1</link><pubDate>Mon, 04 Mar 2024 09:00:00 +0000</pubDate></item>
<item><title>Newer</title><link>https://a.example.com/2</link><pubDate>Tue, 05 Mar 2024 09:07:00 +0000</pubDate></item>
</channel></rss>`

func writeConfig(t *testing.T, dir string, feedURL string) string {
	t.Helper()
	cfg := map[string]any{
		"logger": map[string]any{"file": filepath.Join(dir, "app.log"), "error_file": filepath.Join(dir, "error.log")},
		"app": map[string]any{
			"feed_urls":        []map[string]string{{"name": "A", "url": feedURL}},
			"display_timezone": "Europe/Moscow",
		},
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "rssaggregator dev (commit: none, built: unknown)\n", out.String())
}

func TestRenderCommand_WritesMergedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sourceFeed))
	}))
	defer srv.Close()

	dir := t.TempDir()
	configPath := writeConfig(t, dir, srv.URL+"/rss")
	outPath := filepath.Join(dir, "feed.xml")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"render", "--config", configPath, "--output", outPath})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "<description>Source A</description>")
	assert.Contains(t, body, "Mar 05 2024 | 12:07")
	assert.Less(t, strings.Index(body, "Newer"), strings.Index(body, "Older"))
}

func TestRenderCommand_Stdout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sourceFeed))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"render", "--config", writeConfig(t, dir, srv.URL)})
	require.NoError(t, cmd.Execute())

	assert.True(t, strings.HasPrefix(out.String(), "<?xml"))
	assert.Contains(t, out.String(), "<title>Newer</title>")
}

func TestRenderCommand_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app": {"feed_urls": []}}`), 0o644))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"render", "--config", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestRenderCommand_FailedRefreshKeepsPreviousOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sourceFeed))
	}))
	defer srv.Close()

	dir := t.TempDir()
	outPath := filepath.Join(dir, "feed.xml")
	require.NoError(t, os.WriteFile(outPath, []byte("<rss>previous</rss>"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"render", "--config", writeConfig(t, dir, srv.URL), "--output", outPath})

	require.Error(t, cmd.ExecuteContext(ctx))
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "<rss>previous</rss>", string(data))
}
