// Package api serves health, metrics and signal endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oracle/models"
)

// LatestSource returns the newest signal per instrument.
type LatestSource interface {
	Latest() []*models.Signal
	LastCycle() time.Time
}

// History returns stored signals for one instrument.
type History interface {
	RecentSignals(ctx context.Context, symbol string, limit int) ([]*models.Signal, error)
}

// Options configures the router. History and Gatherer are optional.
type Options struct {
	Latest   LatestSource
	History  History
	Gatherer prometheus.Gatherer
	// StaleAfter marks the service unhealthy when no cycle finished within it.
	StaleAfter time.Duration
}

// NewRouter builds the HTTP handler.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler(opts))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/signals", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, opts.Latest.Latest())
	})
	r.Get("/signals/history", historyHandler(opts.History))

	return r
}

func healthHandler(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		last := opts.Latest.LastCycle()
		status := http.StatusOK
		state := "ok"
		switch {
		case last.IsZero():
			state = "starting"
		case opts.StaleAfter > 0 && time.Since(last) > opts.StaleAfter:
			status, state = http.StatusServiceUnavailable, "stale"
		}

		body := map[string]any{"status": state}
		if !last.IsZero() {
			body["last_cycle"] = last.UTC()
		}
		writeJSON(w, status, body)
	}
}

func historyHandler(h History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil {
			writeError(w, http.StatusNotImplemented, "signal history is not configured")
			return
		}

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			writeError(w, http.StatusBadRequest, "symbol is required")
			return
		}
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 500 {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
				return
			}
			limit = n
		}

		signals, err := h.RecentSignals(r.Context(), symbol, limit)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("Failed to load signal history")
			writeError(w, http.StatusInternalServerError, "failed to load signals")
			return
		}
		writeJSON(w, http.StatusOK, signals)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
