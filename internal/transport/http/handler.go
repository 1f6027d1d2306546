package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"rssaggregator/internal/domain"
	"rssaggregator/internal/usecase"
	"strconv"
	"time"
)

// ContentTypeRSS - тип содержимого агрегированной ленты.
const ContentTypeRSS = "application/rss+xml; charset=utf-8"

// feedReader - источник текущего документа ленты и статуса обновлений.
type feedReader interface {
	Read() *domain.Document
	Status() usecase.Status
}

// Handler содержит HTTP-обработчики ленты и health-check.
type Handler struct {
	log        *slog.Logger
	feedReader feedReader
	staleAfter time.Duration
}

// NewHandler создает обработчики HTTP. staleAfter задает, через сколько времени
// без успешного обновления health-check сообщает об устаревшей ленте.
func NewHandler(log *slog.Logger, reader feedReader, staleAfter time.Duration) *Handler {
	return &Handler{
		log:        log,
		feedReader: reader,
		staleAfter: staleAfter,
	}
}

// getFeed - хендлер для эндпоинта GET /rss.
// Всегда отдает текущий документ из кэша, даже устаревший или пустой.
func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getFeed"
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.log.Warn("method not allowed",
			slog.String("op", op),
			slog.String("method", r.Method),
			slog.String("request_id", RequestID(r.Context())),
		)
		w.Header().Set("Allow", "GET, HEAD")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	doc := h.feedReader.Read()
	w.Header().Set("Content-Type", ContentTypeRSS)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.Header().Set("Cache-Control", "no-cache")
	if doc.Valid {
		w.Header().Set("Last-Modified", doc.GeneratedAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	w.Write(doc.Body)
}

type healthResponse struct {
	State string `json:"status"`
	Stale bool   `json:"stale"`
	usecase.Status
}

// healthCheck - хендлер для проверки состояния сервиса.
// Возвращает 200 даже для устаревшей ленты: устаревание отражается полем stale.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.feedReader.Status()
	resp := healthResponse{
		State:  "ok",
		Stale:  status.Stale(time.Now(), h.staleAfter),
		Status: status,
	}
	if resp.Stale {
		resp.State = "stale"
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
