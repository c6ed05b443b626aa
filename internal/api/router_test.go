// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/slavpilus/ring-automation-bridge/internal/events"
)

func TestHealthz(t *testing.T) {
	router := NewRouter(events.NewStats())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	stats := events.NewStats()
	stats.Track(events.StatReceived, "motion_detected")
	stats.Track(events.StatReceived, "motion_detected")
	stats.Track(events.StatSent, "motion_detected")
	stats.Track(events.StatBlocked, "duplicate_motion_detected")

	router := NewRouter(stats)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var snap events.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if snap.Received["motion_detected"] != 2 {
		t.Errorf("received = %d, want 2", snap.Received["motion_detected"])
	}
	if snap.Sent["motion_detected"] != 1 {
		t.Errorf("sent = %d, want 1", snap.Sent["motion_detected"])
	}
	if snap.Blocked["duplicate_motion_detected"] != 1 {
		t.Errorf("blocked = %d, want 1", snap.Blocked["duplicate_motion_detected"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(events.NewStats())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body is empty")
	}
}
