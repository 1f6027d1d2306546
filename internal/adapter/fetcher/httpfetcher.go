package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"rssaggregator/internal/domain"
	"time"
)

const (
	// DefaultUserAgent идентифицирует агрегатор перед источниками.
	DefaultUserAgent = "RSSFetcher/1.0"
	// AcceptHeader перечисляет ожидаемые MIME-типы лент.
	AcceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8"

	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 10 << 20
)

// Options задает параметры HTTP-клиента для загрузки лент.
// InsecureSkipVerify отключает проверку TLS-сертификатов и предназначен только
// для источников с заведомо некорректными сертификатами.
type Options struct {
	Timeout            time.Duration
	UserAgent          string
	InsecureSkipVerify bool
	MaxBodyBytes       int64
}

// HTTPFetcher реализует интерфейс FeedFetcher для загрузки RSS-лент по HTTP.
// Использует клиент с keep-alive и ограниченным таймаутом, повторных попыток не делает.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	log          *slog.Logger
}

// NewHTTPFetcher создает новый экземпляр HTTPFetcher.
// Нулевые значения в opts заменяются значениями по умолчанию.
func NewHTTPFetcher(opts Options, log *slog.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4
	transport.IdleConnTimeout = 90 * time.Second
	if opts.InsecureSkipVerify {
		log.Warn("TLS certificate verification is disabled for feed sources",
			slog.String("component", "fetcher"),
		)
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in
	}
	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		log:          log,
	}
}

// Fetch выполняет HTTP-запрос для получения RSS-ленты по указанному URL.
// Тело ответа читается целиком; его нужно закрыть после использования.
// Ошибки соединения, таймауты, неуспешные статусы и тело больше maxBodyBytes
// возвращаются как *domain.NetworkError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	log := f.log.With(slog.String("component", "fetcher"), slog.String("url", url))
	log.Debug("Fetching URL")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, &domain.NetworkError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", AcceptHeader)
	resp, err := f.client.Do(req)
	if err != nil {
		log.Error("HTTP request failed", slog.Any("error", err))
		return nil, &domain.NetworkError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		log.Error("Unexpected status code", slog.Int("status_code", resp.StatusCode))
		return nil, &domain.NetworkError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("http status %s", resp.Status),
		}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		log.Error("Failed to read response body", slog.Any("error", err))
		return nil, &domain.NetworkError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if int64(len(body)) > f.maxBodyBytes {
		log.Error("Response body too large", slog.Int64("max_body_bytes", f.maxBodyBytes))
		return nil, &domain.NetworkError{URL: url, Err: fmt.Errorf("response body exceeds %d bytes", f.maxBodyBytes)}
	}
	log.Debug("Successfully fetched URL",
		slog.Int("status_code", resp.StatusCode),
		slog.Int("bytes", len(body)),
	)
	return io.NopCloser(bytes.NewReader(body)), nil
}
