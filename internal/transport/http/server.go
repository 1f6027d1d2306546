package http

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// ServerOptions задает политику CORS и ограничение частоты запросов.
// RateLimit <= 0 отключает ограничение.
type ServerOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	RateLimit      float64
	RateBurst      int
}

// NewServer создает и настраивает HTTP-роутер с middleware.
// Регистрирует эндпоинты ленты и health-check.
func NewServer(log *slog.Logger, h *Handler, opts ServerOptions) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rss", h.getFeed)
	mux.HandleFunc("/api/health", h.healthCheck)

	var handler http.Handler = mux
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		handler = rateLimitMiddleware(rate.NewLimiter(rate.Limit(opts.RateLimit), burst))(handler)
	}
	handler = corsMiddleware(opts.AllowedOrigins, opts.AllowedMethods)(handler)
	handler = loggingMiddleware(log)(handler)
	handler = requestIDMiddleware()(handler)
	return handler
}
