// Package dashboard is the local web page for watching a store and
// changing session settings.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pauljones0/stockwatch/internal/models"
	"github.com/pauljones0/stockwatch/internal/monitor"
	"github.com/pauljones0/stockwatch/internal/store"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const maxBodyBytes = 1 << 10

// Monitor is the part of the engine the dashboard drives.
type Monitor interface {
	Snapshot() monitor.Snapshot
	SelectStore(code string) (models.StoreSelection, error)
	SetSoundEnabled(enabled bool)
	TestNotification(ctx context.Context)
}

// StatusView is the payload behind /api/status and the page itself.
type StatusView struct {
	monitor.Snapshot
	Rows   []HistoryRow         `json:"rows"`
	Alerts []FeedItem           `json:"alerts"`
	Stores []store.CatalogEntry `json:"-"`
}

type Handler struct {
	monitor     Monitor
	catalog     []store.CatalogEntry
	feed        *Feed
	logger      *slog.Logger
	location    *time.Location
	testLimiter *rate.Limiter
}

func NewHandler(m Monitor, catalog []store.CatalogEntry, feed *Feed, logger *slog.Logger) *Handler {
	if feed == nil {
		feed = NewFeed()
	}
	return &Handler{
		monitor:     m,
		catalog:     catalog,
		feed:        feed,
		logger:      logger.With("component", "dashboard"),
		location:    time.Local,
		testLimiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// RegisterRoutes mounts the page and its JSON API on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Get("/stores", h.Stores)
		r.Post("/store", h.SelectStore)
		r.Post("/sound", h.SetSound)
		r.Post("/test-notification", h.TestNotification)
		r.Post("/alerts/{id}/open", h.OpenAlert)
	})
}

func (h *Handler) view() StatusView {
	snap := h.monitor.Snapshot()
	return StatusView{
		Snapshot: snap,
		Rows:     Render(snap.History, h.location),
		Alerts:   h.feed.Items(),
		Stores:   h.catalog,
	}
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, h.view()); err != nil {
		h.loggerWithReqID(r).Error("Failed to render dashboard", "error", err)
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.loggerWithReqID(r), http.StatusOK, h.view())
}

func (h *Handler) Stores(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.loggerWithReqID(r), http.StatusOK, h.catalog)
}

type selectStoreRequest struct {
	Code string `json:"code"`
}

func (h *Handler) SelectStore(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r)

	var req selectStoreRequest
	if !decodeJSON(w, r, logger, &req) {
		return
	}
	sel, err := h.monitor.SelectStore(req.Code)
	if err != nil {
		if errors.Is(err, models.ErrInvalidSelection) {
			respondError(w, logger, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Failed to switch store", "code", req.Code, "error", err)
		respondError(w, logger, http.StatusInternalServerError, "failed to switch store")
		return
	}
	respondJSON(w, logger, http.StatusOK, sel)
}

type soundRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *Handler) SetSound(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r)

	var req soundRequest
	if !decodeJSON(w, r, logger, &req) {
		return
	}
	if req.Enabled == nil {
		respondError(w, logger, http.StatusBadRequest, "missing field: enabled")
		return
	}
	h.monitor.SetSoundEnabled(*req.Enabled)
	respondJSON(w, logger, http.StatusOK, map[string]bool{"enabled": *req.Enabled})
}

func (h *Handler) TestNotification(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r)
	if !h.testLimiter.Allow() {
		respondError(w, logger, http.StatusTooManyRequests, "test notification rate limited")
		return
	}
	h.monitor.TestNotification(r.Context())
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) OpenAlert(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r)
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, logger, http.StatusBadRequest, "invalid alert id")
		return
	}
	if !h.feed.Click(id.String()) {
		respondError(w, logger, http.StatusNotFound, "alert not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", middleware.GetReqID(r.Context()))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, logger, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}
