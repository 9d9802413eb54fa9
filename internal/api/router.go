// Package api serves the normalized price history over a read-only HTTP API.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Alibek88alarko/LogiGo2/internal/model"
	"github.com/Alibek88alarko/LogiGo2/internal/store"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// Querier is the read side of the store the API needs.
type Querier interface {
	Stats(ctx context.Context) (*model.Stats, error)
	ListPrices(ctx context.Context, filter store.PriceFilter) ([]model.PriceRow, error)
}

type handler struct {
	q   Querier
	log *zap.Logger
}

// NewRouter builds the HTTP handler for the API.
func NewRouter(q Querier, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{q: q, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.stats)
		r.Get("/prices", h.prices)
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.q.Stats(r.Context())
	if err != nil {
		h.log.Error("api: stats failed", zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) prices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.PriceFilter{
		Origin:        q.Get("origin"),
		Destination:   q.Get("destination"),
		TransportType: q.Get("transport_type"),
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), defaultPageSize); err != nil || filter.Limit < 1 || filter.Limit > maxPageSize {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil || filter.Offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	rows, err := h.q.ListPrices(r.Context(), filter)
	if err != nil {
		h.log.Error("api: list prices failed", zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "prices unavailable")
		return
	}
	if rows == nil {
		rows = []model.PriceRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"prices": rows,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
