// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package dedup implements the time-bounded deduplication window store.
//
// The store is the single synchronization point between the concurrent
// ingestion channels: the push subscription callbacks and the polling
// sweep may race on the same identity key, and the atomic check-and-record
// in IsDuplicate is what guarantees at-most-one admission per key per
// window. Each store is an explicitly constructed instance with its own
// eviction lifecycle so tests never share process state.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/slavpilus/ring-automation-bridge/internal/logging"
	"github.com/slavpilus/ring-automation-bridge/internal/metrics"
)

const (
	// DefaultTTL is the window during which a repeated identity key is
	// suppressed.
	DefaultTTL = 60 * time.Second

	// DefaultSweepInterval is how often the janitor physically evicts
	// expired entries. Expiry is also checked at lookup time, so the
	// janitor only bounds memory; it does not affect correctness.
	DefaultSweepInterval = 30 * time.Second
)

// Store is a thread-safe identity-key membership set with a TTL window
// and background eviction.
type Store struct {
	mu      sync.Mutex
	entries map[string]time.Time

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	runMu    sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// Option customizes a Store.
type Option func(*Store)

// WithTTL overrides the suppression window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithSweepInterval overrides the janitor interval.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Store) { s.sweepInterval = interval }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a dedup store. Call Start to run the janitor.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries:       make(map[string]time.Time),
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsDuplicate reports whether key was seen within the TTL window.
//
// Semantics:
//   - empty key: always false, nothing recorded (cannot dedup without identity)
//   - key seen and younger than TTL: true; the first-seen timestamp is NOT
//     refreshed, so suppression is measured from first sight
//   - key unseen or expired: false, and now is recorded as first-seen
//
// The check and the record are one critical section per key, so two
// near-simultaneous producers cannot both observe "not a duplicate".
func (s *Store) IsDuplicate(key string) bool {
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if seen, ok := s.entries[key]; ok && now.Sub(seen) < s.ttl {
		logging.Debug().Str("key", key).Msg("Duplicate event detected")
		return true
	}

	s.entries[key] = now
	metrics.DedupStoreSize.Set(float64(len(s.entries)))
	return false
}

// Len returns the number of physically retained entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start launches the background janitor. It stops when ctx is cancelled
// or Stop is called. Starting an already running store is a no-op.
func (s *Store) Start(ctx context.Context) error {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return nil
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.runMu.Unlock()

	s.wg.Add(1)
	go s.janitorLoop(ctx)
	return nil
}

// Stop halts the janitor and waits for it to exit.
func (s *Store) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.runMu.Unlock()

	s.wg.Wait()
}

// janitorLoop periodically evicts expired entries.
func (s *Store) janitorLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Evict()
		}
	}
}

// Evict removes every entry older than the TTL and returns how many were
// removed. Exposed so tests can drive eviction without the ticker.
func (s *Store) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, seen := range s.entries {
		if now.Sub(seen) > s.ttl {
			delete(s.entries, key)
			removed++
		}
	}

	if removed > 0 {
		metrics.DedupEvictions.Add(float64(removed))
		logging.Debug().Int("removed", removed).Int("remaining", len(s.entries)).Msg("Dedup janitor evicted expired entries")
	}
	metrics.DedupStoreSize.Set(float64(len(s.entries)))
	return removed
}
