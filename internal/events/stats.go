// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package events

import (
	"sync"

	"github.com/slavpilus/ring-automation-bridge/internal/metrics"
)

// StatKind identifies one of the four per-type counter families.
type StatKind string

// Counter families. Process-lifetime, reset only on restart; purely
// observational and never consulted for control decisions.
const (
	StatReceived StatKind = "received"
	StatSent     StatKind = "sent"
	StatBlocked  StatKind = "blocked"
	StatErrors   StatKind = "errors"
)

// Stats tracks per-event-type counters for debugging and the ops stats
// endpoint. Increments are mirrored to Prometheus.
type Stats struct {
	mu       sync.Mutex
	received map[string]int64
	sent     map[string]int64
	blocked  map[string]int64
	errors   map[string]int64
}

// NewStats creates an empty statistics tracker.
func NewStats() *Stats {
	return &Stats{
		received: make(map[string]int64),
		sent:     make(map[string]int64),
		blocked:  make(map[string]int64),
		errors:   make(map[string]int64),
	}
}

// Track increments the counter for an event type in the given family.
// The eventType for blocked events may carry a sub-reason prefix
// ("duplicate_motion_detected") to distinguish dedup drops from exclusions.
func (s *Stats) Track(kind StatKind, eventType string) {
	s.mu.Lock()
	switch kind {
	case StatReceived:
		s.received[eventType]++
	case StatSent:
		s.sent[eventType]++
	case StatBlocked:
		s.blocked[eventType]++
	case StatErrors:
		s.errors[eventType]++
	}
	s.mu.Unlock()

	switch kind {
	case StatReceived:
		metrics.EventsReceived.WithLabelValues(eventType).Inc()
	case StatSent:
		metrics.EventsSent.WithLabelValues(eventType).Inc()
	case StatBlocked:
		// Prometheus reason label is attached by the gate; the flat
		// counter here keeps the sub-reason in the key instead.
	case StatErrors:
		metrics.EventsErrors.WithLabelValues(eventType).Inc()
	}
}

// Count returns the current value of one counter.
func (s *Stats) Count(kind StatKind, eventType string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case StatReceived:
		return s.received[eventType]
	case StatSent:
		return s.sent[eventType]
	case StatBlocked:
		return s.blocked[eventType]
	case StatErrors:
		return s.errors[eventType]
	}
	return 0
}

// Snapshot is a point-in-time copy of all counters, safe to serialize.
type Snapshot struct {
	Received map[string]int64 `json:"received"`
	Sent     map[string]int64 `json:"sent"`
	Blocked  map[string]int64 `json:"blocked"`
	Errors   map[string]int64 `json:"errors"`
}

// Snapshot returns a copy of all counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Received: copyCounts(s.received),
		Sent:     copyCounts(s.sent),
		Blocked:  copyCounts(s.blocked),
		Errors:   copyCounts(s.errors),
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
