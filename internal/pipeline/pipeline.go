// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package pipeline is the ingestion boundary every producer feeds into:
// normalize, count, gate, deliver. Subscription callbacks and the polling
// sweep both call Process and nothing else.
package pipeline

import (
	"context"
	"time"

	"github.com/slavpilus/ring-automation-bridge/internal/events"
	"github.com/slavpilus/ring-automation-bridge/internal/gate"
	"github.com/slavpilus/ring-automation-bridge/internal/logging"
	"github.com/slavpilus/ring-automation-bridge/internal/webhook"
)

// Pipeline runs one event through the admission gate and, if admitted,
// the delivery sink.
type Pipeline struct {
	gate  *gate.Gate
	sink  *webhook.Sink
	stats *events.Stats
	now   func() time.Time
}

// New creates a pipeline.
func New(g *gate.Gate, sink *webhook.Sink, stats *events.Stats) *Pipeline {
	return &Pipeline{
		gate:  g,
		sink:  sink,
		stats: stats,
		now:   time.Now,
	}
}

// Process ingests one normalized event. It returns true when the event
// was delivered to the sink.
//
// The "received" statistic is recorded at first sight, before any
// filtering - gate drops and delivery failures still count as received.
// A delivery failure is logged and swallowed here: one failed POST must
// never crash a listener or stop a sweep.
func (p *Pipeline) Process(ctx context.Context, eventType string, data events.Data) bool {
	data = events.Normalize(data, p.now())

	p.stats.Track(events.StatReceived, eventType)
	logging.Debug().Str("event_type", eventType).Msg("Received event")

	if !p.gate.ShouldAdmit(eventType, data) {
		return false
	}

	res := p.sink.Deliver(ctx, eventType, data)
	if !res.Delivered() {
		logging.Warn().Err(res.Err).Str("event_type", eventType).Msg("Event delivery failed, continuing")
		return false
	}
	return true
}
