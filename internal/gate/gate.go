// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package gate implements the event admission gate: the single decision
// point every normalized event passes through before delivery.
package gate

import (
	"github.com/slavpilus/ring-automation-bridge/internal/dedup"
	"github.com/slavpilus/ring-automation-bridge/internal/events"
	"github.com/slavpilus/ring-automation-bridge/internal/logging"
	"github.com/slavpilus/ring-automation-bridge/internal/metrics"
)

// Gate composes exclusion-list filtering with the dedup window store.
//
// The two checks run in a fixed order: exclusion first (static policy,
// no shared state), dedup second (contended store access). Excluded
// types never compute an identity and never touch the store.
type Gate struct {
	excluded map[string]struct{}
	store    *dedup.Store
	resolver *events.Resolver
	stats    *events.Stats
}

// New creates an admission gate. excludedTypes membership is immutable
// after construction.
func New(excludedTypes []string, store *dedup.Store, resolver *events.Resolver, stats *events.Stats) *Gate {
	excluded := make(map[string]struct{}, len(excludedTypes))
	for _, t := range excludedTypes {
		excluded[t] = struct{}{}
	}
	return &Gate{
		excluded: excluded,
		store:    store,
		resolver: resolver,
		stats:    stats,
	}
}

// IsExcluded reports whether an event type is configured out entirely.
func (g *Gate) IsExcluded(eventType string) bool {
	_, ok := g.excluded[eventType]
	return ok
}

// ShouldAdmit decides whether an event may be delivered.
//
// An excluded type is dropped before identity is ever computed, so the
// dedup store is not mutated for it. A duplicate is dropped with a
// distinct blocked sub-reason. Admission records the key in the store as
// a side effect, which is what suppresses the next sighting.
func (g *Gate) ShouldAdmit(eventType string, data events.Data) bool {
	if g.IsExcluded(eventType) {
		g.stats.Track(events.StatBlocked, eventType)
		metrics.EventsBlocked.WithLabelValues(eventType, "excluded").Inc()
		logging.Debug().Str("event_type", eventType).Msg("Event type is excluded from processing")
		return false
	}

	key := g.resolver.Resolve(eventType, data)
	if g.store.IsDuplicate(key) {
		g.stats.Track(events.StatBlocked, "duplicate_"+eventType)
		metrics.EventsBlocked.WithLabelValues(eventType, "duplicate").Inc()
		logging.Debug().Str("event_type", eventType).Str("key", key).Msg("Skipping duplicate event")
		return false
	}

	return true
}
