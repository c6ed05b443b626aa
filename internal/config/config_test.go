// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package config

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RING_REFRESH_TOKEN", "tok-123")
	t.Setenv("WEBHOOK_URL", "https://n8n.example.com/webhook/ring")
	t.Setenv("WEBHOOK_AUTH_HEADER", "Bearer abc")
	t.Setenv("RING_LOCATION_IDS", "123, 456")
	t.Setenv("EXCLUDED_EVENTS", "camera_status_update,active_ding")
	t.Setenv("POLLING_INTERVAL", "5000")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Ring.RefreshToken != "tok-123" {
		t.Errorf("RefreshToken = %q", cfg.Ring.RefreshToken)
	}
	if cfg.Webhook.URL != "https://n8n.example.com/webhook/ring" {
		t.Errorf("Webhook.URL = %q", cfg.Webhook.URL)
	}
	if cfg.Webhook.AuthHeader != "Bearer abc" {
		t.Errorf("Webhook.AuthHeader = %q", cfg.Webhook.AuthHeader)
	}
	if want := []string{"123", "456"}; !reflect.DeepEqual(cfg.Ring.LocationIDs, want) {
		t.Errorf("LocationIDs = %v, want %v", cfg.Ring.LocationIDs, want)
	}
	if want := []string{"camera_status_update", "active_ding"}; !reflect.DeepEqual(cfg.ExcludedEvents, want) {
		t.Errorf("ExcludedEvents = %v, want %v", cfg.ExcludedEvents, want)
	}
	if cfg.PollingInterval != 5*time.Second {
		t.Errorf("PollingInterval = %v, want 5s (bare ms form)", cfg.PollingInterval)
	}
	if !cfg.Debug {
		t.Error("Debug not set")
	}
}

func TestLoadPollingIntervalDurationForm(t *testing.T) {
	t.Setenv("RING_REFRESH_TOKEN", "tok")
	t.Setenv("WEBHOOK_URL", "https://sink.example.com")
	t.Setenv("POLLING_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollingInterval != 30*time.Second {
		t.Errorf("PollingInterval = %v, want 30s", cfg.PollingInterval)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		url     string
		wantErr error
	}{
		{"missing token", "", "https://sink.example.com", ErrMissingRefreshToken},
		{"missing url", "tok", "", ErrMissingWebhookURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RING_REFRESH_TOKEN", tt.token)
			t.Setenv("WEBHOOK_URL", tt.url)

			_, err := Load()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateInvalidLocationIDsDegrade(t *testing.T) {
	cfg := defaultConfig()
	cfg.Ring.RefreshToken = "tok"
	cfg.Webhook.URL = "https://sink.example.com"
	cfg.Ring.LocationIDs = []string{"not-a-number", "also bad"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Ring.LocationIDs != nil {
		t.Errorf("invalid location IDs should degrade to nil, got %v", cfg.Ring.LocationIDs)
	}
}

func TestValidateMixedLocationIDs(t *testing.T) {
	cfg := defaultConfig()
	cfg.Ring.RefreshToken = "tok"
	cfg.Webhook.URL = "https://sink.example.com"
	cfg.Ring.LocationIDs = []string{"12345", "oops", " 678 "}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if want := []string{"12345", "678"}; !reflect.DeepEqual(cfg.Ring.LocationIDs, want) {
		t.Errorf("LocationIDs = %v, want %v", cfg.Ring.LocationIDs, want)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"RING_REFRESH_TOKEN", "ring.refresh_token"},
		{"RING_LOCATION_IDS", "ring.location_ids"},
		{"WEBHOOK_URL", "webhook.url"},
		{"N8N_WEBHOOK_URL", "webhook.url"},
		{"WEBHOOK_AUTH_HEADER", "webhook.auth_header"},
		{"EXCLUDED_EVENTS", "excluded_events"},
		{"POLLING_INTERVAL", "polling_interval"},
		{"DEBUG", "debug"},
		{"LOG_LEVEL", "logging.level"},
		{"HTTP_PORT", "server.port"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := envTransform(tt.key); got != tt.want {
				t.Errorf("envTransform(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestDefaultsApplied(t *testing.T) {
	t.Setenv("RING_REFRESH_TOKEN", "tok")
	t.Setenv("WEBHOOK_URL", "https://sink.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollingInterval != 10*time.Second {
		t.Errorf("default PollingInterval = %v, want 10s", cfg.PollingInterval)
	}
	if cfg.Ring.APIBaseURL != "https://api.ring.com" {
		t.Errorf("default APIBaseURL = %q", cfg.Ring.APIBaseURL)
	}
	if cfg.Server.Port != 9310 {
		t.Errorf("default Server.Port = %d", cfg.Server.Port)
	}
}
