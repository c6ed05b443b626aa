// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package api exposes the bridge's operational HTTP surface: liveness,
// Prometheus metrics, and the event statistics endpoint.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slavpilus/ring-automation-bridge/internal/events"
	"github.com/slavpilus/ring-automation-bridge/internal/logging"
)

// NewRouter builds the ops router.
func NewRouter(stats *events.Stats) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", handleStats(stats))
	})
	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleStats(stats *events.Stats) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, stats.Snapshot())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}
