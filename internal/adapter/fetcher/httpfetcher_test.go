package fetcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"rssaggregator/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(opts Options) *HTTPFetcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHTTPFetcher(opts, logger)
}

func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	var gotUA, gotAccept string
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response data"))
	}))
	defer testServer.Close()
	fetcher := newTestFetcher(Options{})

	reader, err := fetcher.Fetch(context.Background(), testServer.URL)

	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "test response data", string(data))
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, AcceptHeader, gotAccept)
}

func TestHTTPFetcher_Fetch_CustomUserAgent(t *testing.T) {
	var gotUA string
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
	}))
	defer testServer.Close()

	reader, err := newTestFetcher(Options{UserAgent: "feeds-bot/2.0"}).Fetch(context.Background(), testServer.URL)
	require.NoError(t, err)
	reader.Close()
	assert.Equal(t, "feeds-bot/2.0", gotUA)
}

func TestHTTPFetcher_Fetch_NotFound(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer testServer.Close()

	reader, err := newTestFetcher(Options{}).Fetch(context.Background(), testServer.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 404")
	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
	assert.Nil(t, reader)
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	reader, err := newTestFetcher(Options{}).Fetch(context.Background(), "invalid://url")

	var netErr *domain.NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.Nil(t, reader)
}

func TestHTTPFetcher_ContextCancelled(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("slow response"))
	}))
	defer testServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader, err := newTestFetcher(Options{}).Fetch(ctx, testServer.URL)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, reader)
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer testServer.Close()
	defer close(release)

	reader, err := newTestFetcher(Options{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), testServer.URL)

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.StatusCode)
	assert.Nil(t, reader)
}

func TestHTTPFetcher_BodyLimit(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer testServer.Close()

	reader, err := newTestFetcher(Options{MaxBodyBytes: 4}).Fetch(context.Background(), testServer.URL)

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.StatusCode)
	assert.Contains(t, err.Error(), "response body exceeds 4 bytes")
	assert.Nil(t, reader)
}

func TestHTTPFetcher_BodyExactlyAtLimit(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123"))
	}))
	defer testServer.Close()

	reader, err := newTestFetcher(Options{MaxBodyBytes: 4}).Fetch(context.Background(), testServer.URL)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(data))
}
