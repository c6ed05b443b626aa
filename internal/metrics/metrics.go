// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package metrics provides Prometheus instrumentation for the bridge.
//
// Counters mirror the in-process event statistics (received/sent/blocked/
// errors per event type) and add operational detail the flat counters
// cannot carry: sweep timing, webhook latency, dedup store size.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event pipeline metrics
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ring_events_received_total",
			Help: "Total number of events received from any ingestion channel",
		},
		[]string{"event_type"},
	)

	EventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ring_events_sent_total",
			Help: "Total number of events delivered to the webhook sink",
		},
		[]string{"event_type"},
	)

	EventsBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ring_events_blocked_total",
			Help: "Total number of events dropped by the admission gate",
		},
		[]string{"event_type", "reason"}, // "excluded", "duplicate"
	)

	EventsErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ring_events_errors_total",
			Help: "Total number of webhook delivery failures",
		},
		[]string{"event_type"},
	)

	// Webhook sink metrics
	WebhookDeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_delivery_duration_seconds",
			Help:    "Duration of webhook POST requests in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Polling sweep metrics
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "polling_sweep_duration_seconds",
			Help:    "Duration of one full polling sweep tick in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SweepStepErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polling_sweep_step_errors_total",
			Help: "Total number of isolated sweep step failures",
		},
		[]string{"step"}, // "active_dings", "history", "camera_health", "camera_events"
	)

	// Dedup store metrics
	DedupStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedup_store_entries",
			Help: "Current number of identity keys held in the dedup window store",
		},
	)

	DedupEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_store_evictions_total",
			Help: "Total number of entries evicted by the dedup janitor",
		},
	)

	// Subscription metrics
	ListenersActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscription_listeners_active",
			Help: "Number of attached push listeners by channel",
		},
		[]string{"channel"}, // "doorbell", "motion", "active_dings", "data", "alarm"
	)
)
