// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Command bridge runs the Ring to webhook event bridge: it
// authenticates against the Ring API, attaches push listeners to every
// discovered device, runs the polling fallback sweep, and posts each
// admitted event to the configured webhook endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slavpilus/ring-automation-bridge/internal/api"
	"github.com/slavpilus/ring-automation-bridge/internal/bridge"
	"github.com/slavpilus/ring-automation-bridge/internal/config"
	"github.com/slavpilus/ring-automation-bridge/internal/dedup"
	"github.com/slavpilus/ring-automation-bridge/internal/events"
	"github.com/slavpilus/ring-automation-bridge/internal/gate"
	"github.com/slavpilus/ring-automation-bridge/internal/logging"
	"github.com/slavpilus/ring-automation-bridge/internal/pipeline"
	"github.com/slavpilus/ring-automation-bridge/internal/polling"
	"github.com/slavpilus/ring-automation-bridge/internal/ring"
	"github.com/slavpilus/ring-automation-bridge/internal/subscription"
	"github.com/slavpilus/ring-automation-bridge/internal/supervisor"
	"github.com/slavpilus/ring-automation-bridge/internal/supervisor/services"
	"github.com/slavpilus/ring-automation-bridge/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Bridge exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet; stderr is all we have.
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Debug:  cfg.Debug,
	})
	cfg.LogConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ring.NewClient(ring.Options{
		RefreshToken: cfg.Ring.RefreshToken,
		APIBaseURL:   cfg.Ring.APIBaseURL,
		AuthBaseURL:  cfg.Ring.AuthBaseURL,
		LocationIDs:  cfg.Ring.LocationIDs,
	})
	logging.Debug().Str("instanceId", client.InstanceID()).Msg("Ring client created")

	stats := events.NewStats()
	store := dedup.NewStore()
	resolver := events.NewResolver()
	admission := gate.New(cfg.ExcludedEvents, store, resolver, stats)
	sink := webhook.NewSink(cfg.Webhook.URL, cfg.Webhook.AuthHeader, stats)
	pipe := pipeline.New(admission, sink, stats)
	attacher := subscription.New(pipe)

	locations, err := bridge.New(client, attacher).Setup(ctx)
	if err != nil {
		return err
	}

	sweeper := polling.NewSweeper(client, locations, pipe,
		polling.WithInterval(cfg.PollingInterval))

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddIngestService(services.NewStartStopService("dedup-janitor", store))
	tree.AddIngestService(services.NewStartStopService("polling-sweeper", sweeper))
	tree.AddIngestService(services.NewRunnerService("push-feed", client.PushFeed()))
	tree.AddIngestService(services.NewRunnerService("status-poller",
		client.NewStatusPoller(cfg.Ring.CameraStatusPollingSeconds, cfg.Ring.LocationModePollingSeconds)))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(stats),
		ReadHeaderTimeout: 10 * time.Second,
	}
	tree.AddOpsService(services.NewHTTPServerService(server, 10*time.Second))

	logging.Info().Str("addr", server.Addr).Msg("Starting Ring automation bridge")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("Shutting down Ring webhook bridge")
	return nil
}
