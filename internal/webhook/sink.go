// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package webhook implements the outbound event delivery sink.
//
// Delivery is fire-and-forget: one HTTP POST per admitted event, no
// retry, no backoff, no batching. Failure is an observable Result value,
// not an exception - ingestion call sites treat it as non-fatal.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/slavpilus/ring-automation-bridge/internal/events"
	"github.com/slavpilus/ring-automation-bridge/internal/logging"
	"github.com/slavpilus/ring-automation-bridge/internal/metrics"
)

// ErrNotConfigured is returned when no webhook URL is set. Delivery is a
// no-op in that case; the process stays alive so polling and stats keep
// working.
var ErrNotConfigured = errors.New("webhook URL is not configured")

// Outcome classifies the result of one delivery attempt.
type Outcome int

const (
	// OutcomeSent means the sink accepted the event with a 2xx status.
	OutcomeSent Outcome = iota
	// OutcomeNotConfigured means no URL is set and no call was attempted.
	OutcomeNotConfigured
	// OutcomeFailed means a transport error or non-2xx response.
	OutcomeFailed
)

// Result is the explicit outcome of a delivery attempt.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Err        error
}

// Delivered reports whether the event reached the sink.
func (r Result) Delivered() bool { return r.Outcome == OutcomeSent }

// Sink posts admitted events to the configured webhook endpoint.
type Sink struct {
	url        string
	authHeader string
	httpClient *http.Client
	stats      *events.Stats
	now        func() time.Time
}

// Option customizes a Sink.
type Option func(*Sink)

// WithHTTPClient overrides the HTTP client (tests, custom timeouts).
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sink) { s.httpClient = c }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) { s.now = now }
}

// NewSink creates a delivery sink. url may be empty, in which case every
// Deliver is a recorded no-op. authHeader, when non-empty, is sent
// verbatim as the Authorization header.
func NewSink(url, authHeader string, stats *events.Stats, opts ...Option) *Sink {
	s := &Sink{
		url:        url,
		authHeader: authHeader,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		stats:      stats,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver posts one event to the sink and returns the outcome.
//
// On success a "sent" statistic is recorded; on any failure an "errors"
// statistic. The caller decides what a failure means - ingestion paths
// log and continue.
func (s *Sink) Deliver(ctx context.Context, eventType string, data events.Data) Result {
	if s.url == "" {
		logging.Error().Str("event_type", eventType).Msg("Cannot send event: webhook URL is not configured")
		s.stats.Track(events.StatErrors, eventType)
		return Result{Outcome: OutcomeNotConfigured, Err: ErrNotConfigured}
	}

	payload := events.NewPayload(eventType, data, s.now())
	body, err := json.Marshal(payload)
	if err != nil {
		s.stats.Track(events.StatErrors, eventType)
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.stats.Track(events.StatErrors, eventType)
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authHeader != "" {
		req.Header.Set("Authorization", s.authHeader)
	}

	logging.Debug().Str("event_type", eventType).Str("url", s.url).Msg("Sending event to webhook")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	metrics.WebhookDeliveryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		logging.Error().Err(err).Str("event_type", eventType).Msg("Failed to send event to webhook")
		s.stats.Track(events.StatErrors, eventType)
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("webhook post: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Error().Int("status", resp.StatusCode).Str("event_type", eventType).Msg("Webhook rejected event")
		s.stats.Track(events.StatErrors, eventType)
		return Result{
			Outcome:    OutcomeFailed,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("webhook returned status %d", resp.StatusCode),
		}
	}

	logging.Info().Str("event_type", eventType).Msg("Sent event to webhook")
	s.stats.Track(events.StatSent, eventType)
	return Result{Outcome: OutcomeSent, StatusCode: resp.StatusCode}
}
