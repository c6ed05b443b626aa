// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package config loads and validates bridge configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//  1. Environment variables (RING_REFRESH_TOKEN, WEBHOOK_URL, ...)
//  2. Optional YAML config file (config.yaml)
//  3. Built-in defaults
//
// All configuration is immutable after startup.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slavpilus/ring-automation-bridge/internal/logging"
)

// Config is the root configuration for the bridge.
type Config struct {
	// Debug enables debug-level logging of raw event payloads.
	Debug bool `koanf:"debug"`

	// PollingInterval is the period of the polling sweep.
	// The POLLING_INTERVAL env var accepts either a Go duration ("10s")
	// or a bare millisecond count ("10000") for parity with older
	// deployments.
	PollingInterval time.Duration `koanf:"polling_interval"`

	// ExcludedEvents lists event types that are never forwarded.
	ExcludedEvents []string `koanf:"excluded_events"`

	Ring    RingConfig    `koanf:"ring"`
	Webhook WebhookConfig `koanf:"webhook"`
	Logging LoggingConfig `koanf:"logging"`
	Server  ServerConfig  `koanf:"server"`
}

// RingConfig holds Ring API client settings.
type RingConfig struct {
	// RefreshToken is the long-lived Ring OAuth refresh token. Required.
	RefreshToken string `koanf:"refresh_token"`

	// LocationIDs optionally restricts monitoring to specific locations.
	// Entries must be numeric; if none are, the list is treated as unset
	// and all locations are monitored.
	LocationIDs []string `koanf:"location_ids"`

	// APIBaseURL and AuthBaseURL override the Ring endpoints (tests).
	APIBaseURL  string `koanf:"api_base_url"`
	AuthBaseURL string `koanf:"auth_base_url"`

	// CameraStatusPollingSeconds and LocationModePollingSeconds are
	// passed through to the Ring client's own internal refresh cadence.
	CameraStatusPollingSeconds int `koanf:"camera_status_polling_seconds"`
	LocationModePollingSeconds int `koanf:"location_mode_polling_seconds"`
}

// WebhookConfig holds the outbound sink settings.
type WebhookConfig struct {
	// URL is the sink endpoint. Required.
	URL string `koanf:"url"`

	// AuthHeader, when set, is sent verbatim as the Authorization header.
	AuthHeader string `koanf:"auth_header"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ServerConfig holds the ops HTTP server settings.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
}

// ErrMissingRefreshToken and ErrMissingWebhookURL are the two startup
// validation failures; either one terminates the process with a non-zero
// exit status.
var (
	ErrMissingRefreshToken = errors.New("RING_REFRESH_TOKEN is required but not set")
	ErrMissingWebhookURL   = errors.New("WEBHOOK_URL is required but not set")
)

// Validate checks required settings and normalizes optional ones.
func (c *Config) Validate() error {
	var errs []error

	if c.Ring.RefreshToken == "" {
		errs = append(errs, ErrMissingRefreshToken)
	}
	if c.Webhook.URL == "" {
		errs = append(errs, ErrMissingWebhookURL)
	}

	c.Ring.LocationIDs = validLocationIDs(c.Ring.LocationIDs)

	if c.PollingInterval <= 0 {
		c.PollingInterval = 10 * time.Second
	}

	return errors.Join(errs...)
}

// validLocationIDs keeps only numeric entries. A provided-but-invalid
// list degrades to "monitor all locations" rather than failing startup.
func validLocationIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, err := strconv.ParseInt(id, 10, 64); err == nil {
			valid = append(valid, id)
		}
	}

	if len(valid) == 0 {
		logging.Warn().Strs("provided", ids).Msg("RING_LOCATION_IDS contains no valid numeric IDs, monitoring all locations")
		return nil
	}
	return valid
}

// LogConfig logs the effective configuration without exposing secrets.
func (c *Config) LogConfig() {
	logging.Info().
		Bool("refresh_token_set", c.Ring.RefreshToken != "").
		Bool("webhook_url_set", c.Webhook.URL != "").
		Bool("webhook_auth_header_set", c.Webhook.AuthHeader != "").
		Strs("location_ids", c.Ring.LocationIDs).
		Strs("excluded_events", c.ExcludedEvents).
		Dur("polling_interval", c.PollingInterval).
		Bool("debug", c.Debug).
		Msg("Environment configuration")

	if len(c.Ring.LocationIDs) == 0 {
		logging.Info().Msg("No location allowlist set, monitoring all locations")
	}
	if len(c.ExcludedEvents) > 0 {
		logging.Info().Str("excluded", fmt.Sprintf("%v", c.ExcludedEvents)).Msg("Excluded event types will not be sent")
	}
}
