// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package dedup

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testClock is a manually advanced clock for TTL tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestIsDuplicateWindow(t *testing.T) {
	clock := newTestClock()
	store := NewStore(WithTTL(time.Minute), WithClock(clock.Now))

	// First sight is never a duplicate.
	if store.IsDuplicate("motion-1") {
		t.Fatal("first sight reported as duplicate")
	}

	// Repeat within the window is suppressed.
	clock.Advance(30 * time.Second)
	if !store.IsDuplicate("motion-1") {
		t.Fatal("repeat within TTL not suppressed")
	}

	// Suppression measures from FIRST sight - the duplicate lookup above
	// must not have refreshed the timestamp.
	clock.Advance(31 * time.Second)
	if store.IsDuplicate("motion-1") {
		t.Fatal("key should have expired 61s after first sight")
	}
}

func TestIsDuplicateEmptyKey(t *testing.T) {
	store := NewStore()

	if store.IsDuplicate("") {
		t.Error("empty key must never be a duplicate")
	}
	if store.IsDuplicate("") {
		t.Error("empty key must not be recorded")
	}
	if store.Len() != 0 {
		t.Errorf("empty key was recorded, len = %d", store.Len())
	}
}

func TestIsDuplicateDistinctKeys(t *testing.T) {
	store := NewStore()

	if store.IsDuplicate("active_ding-42") {
		t.Error("first key reported duplicate")
	}
	if store.IsDuplicate("motion-42") {
		t.Error("distinct key reported duplicate")
	}
}

func TestEvict(t *testing.T) {
	clock := newTestClock()
	store := NewStore(WithTTL(time.Minute), WithClock(clock.Now))

	store.IsDuplicate("old-1")
	store.IsDuplicate("old-2")
	clock.Advance(45 * time.Second)
	store.IsDuplicate("young")

	clock.Advance(20 * time.Second) // old-* now 65s, young 20s

	if removed := store.Evict(); removed != 2 {
		t.Errorf("Evict() removed %d, want 2", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}

	// Young entry still suppresses.
	if !store.IsDuplicate("young") {
		t.Error("surviving entry should still suppress")
	}
}

func TestJanitorLifecycle(t *testing.T) {
	store := NewStore(WithTTL(10*time.Millisecond), WithSweepInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Second Start is a no-op.
	if err := store.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	store.IsDuplicate("ephemeral")
	time.Sleep(40 * time.Millisecond)

	if store.Len() != 0 {
		t.Errorf("janitor did not evict: len = %d", store.Len())
	}

	store.Stop()
	store.Stop() // idempotent
}

func TestIsDuplicateAtomicUnderConcurrency(t *testing.T) {
	store := NewStore()

	const producers = 16
	var admitted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	// Simulates the subscription callback and polling sweep racing on
	// the same doorbell press. Exactly one producer may win.
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if !store.IsDuplicate("doorbell_pressed-ding-1") {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Errorf("admitted %d producers for one key, want exactly 1", got)
	}
}
