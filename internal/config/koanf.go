// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ring-bridge/config.yaml",
	"/etc/ring-bridge/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults, applied first and then
// overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Debug:           false,
		PollingInterval: 10 * time.Second,
		ExcludedEvents:  nil,
		Ring: RingConfig{
			RefreshToken:               "",
			LocationIDs:                nil,
			APIBaseURL:                 "https://api.ring.com",
			AuthBaseURL:                "https://oauth.ring.com",
			CameraStatusPollingSeconds: 20,
			LocationModePollingSeconds: 20,
		},
		Webhook: WebhookConfig{
			URL:        "",
			AuthHeader: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Port: 9310,
			Host: "0.0.0.0",
		},
	}
}

// Load loads configuration with layered sources: defaults, optional YAML
// file, environment variables. Validation failures are returned so main
// can exit non-zero.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Environment variables have the highest priority.
	// RING_REFRESH_TOKEN -> ring.refresh_token, WEBHOOK_URL -> webhook.url
	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := normalizeScalarFields(k); err != nil {
		return nil, fmt.Errorf("normalize fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envVarPaths maps flat environment variable names to koanf paths.
// The N8N_* aliases are kept for backwards compatibility with earlier
// deployments of the bridge.
var envVarPaths = map[string]string{
	"debug":               "debug",
	"polling_interval":    "polling_interval",
	"excluded_events":     "excluded_events",
	"webhook_url":         "webhook.url",
	"webhook_auth_header": "webhook.auth_header",
	"n8n_webhook_url":     "webhook.url",
	"n8n_auth_header":     "webhook.auth_header",
	"log_level":           "logging.level",
	"log_format":          "logging.format",
	"http_port":           "server.port",
	"http_host":           "server.host",
	"config_path":         "", // consumed by findConfigFile, not koanf
}

// envTransform converts an environment variable name to a koanf path.
// Returning "" skips the variable, so unrelated environment noise never
// leaks into the configuration tree.
func envTransform(key string) string {
	lower := strings.ToLower(key)

	if path, ok := envVarPaths[lower]; ok {
		return path
	}
	if strings.HasPrefix(lower, "ring_") {
		return "ring." + strings.TrimPrefix(lower, "ring_")
	}
	return ""
}

// normalizeScalarFields converts env-sourced scalars into the shapes the
// Config struct expects: comma-separated strings become slices, and a
// bare numeric polling interval is interpreted as milliseconds.
func normalizeScalarFields(k *koanf.Koanf) error {
	for _, path := range []string{"excluded_events", "ring.location_ids"} {
		if raw, ok := k.Get(path).(string); ok {
			if err := k.Set(path, splitCommaList(raw)); err != nil {
				return err
			}
		}
	}

	if raw, ok := k.Get("polling_interval").(string); ok {
		if _, err := strconv.Atoi(raw); err == nil {
			if err := k.Set("polling_interval", raw+"ms"); err != nil {
				return err
			}
		}
	}

	return nil
}

// splitCommaList splits a comma-separated value, dropping empty entries.
func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
