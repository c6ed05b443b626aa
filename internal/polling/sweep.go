// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package polling implements the recurring sweep that covers devices
// whose push channels are silent or unattached. Each tick checks active
// dings, per-location history, and per-camera state, and feeds every
// observation through the same admission pipeline as live pushes.
package polling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slavpilus/ring-automation-bridge/internal/events"
	"github.com/slavpilus/ring-automation-bridge/internal/logging"
	"github.com/slavpilus/ring-automation-bridge/internal/metrics"
	"github.com/slavpilus/ring-automation-bridge/internal/ring"
	"github.com/slavpilus/ring-automation-bridge/internal/subscription"
)

// DefaultInterval is the sweep cadence when none is configured.
const DefaultInterval = 10 * time.Second

const historyLimit = 10

// DingSource lists account-wide active dings. Satisfied by ring.Client.
type DingSource interface {
	GetActiveDings(ctx context.Context) ([]ring.Ding, error)
}

// Sweeper runs the polling fallback loop.
type Sweeper struct {
	source    DingSource
	locations []ring.Location
	pub       subscription.Publisher
	interval  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// Option configures a Sweeper.
type Option func(*Sweeper)

func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock is for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

func NewSweeper(source DingSource, locations []ring.Location, pub subscription.Publisher, opts ...Option) *Sweeper {
	s := &Sweeper{
		source:    source,
		locations: locations,
		pub:       pub,
		interval:  DefaultInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the sweep loop: one tick immediately, then one per
// interval. With zero known locations there is nothing to sweep and
// Start is a logged no-op.
func (s *Sweeper) Start(ctx context.Context) error {
	if len(s.locations) == 0 {
		logging.Warn().Msg("Cannot start polling: no Ring locations found")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	logging.Info().Dur("interval", s.interval).Msg("Starting event polling")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Tick(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Tick(ctx)
			case <-s.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop halts future ticks. A tick already in progress runs to
// completion.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()
	s.wg.Wait()
}

// Tick runs one full sweep. Steps are isolated: a failure in one is
// logged and counted, and the remaining steps still run.
func (s *Sweeper) Tick(ctx context.Context) {
	start := s.now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	s.sweepActiveDings(ctx)
	logging.Debug().Msg("Polling for Ring events")
	for _, loc := range s.locations {
		s.sweepLocationHistory(ctx, loc)
		for _, cam := range loc.Cameras() {
			s.sweepCamera(ctx, cam, loc)
		}
	}
}

// sweepActiveDings normalizes the account-wide active occurrences into
// motion or doorbell events.
func (s *Sweeper) sweepActiveDings(ctx context.Context) {
	dings, err := s.source.GetActiveDings(ctx)
	if err != nil {
		metrics.SweepStepErrors.WithLabelValues("active_dings").Inc()
		logging.Warn().Err(err).Msg("Error fetching active dings")
		return
	}

	for _, ding := range dings {
		if ding.Kind != ring.KindMotion && ding.Kind != ring.KindDing {
			continue
		}
		logging.Info().Str("kind", ding.Kind).Str("device", ding.DoorbotDescription).
			Msg("Event detected via direct API polling")

		eventType := events.TypeDoorbellPress
		if ding.Kind == ring.KindMotion {
			eventType = events.TypeMotionDetected
		}

		id := ding.IDStr
		if id == "" && ding.ID != 0 {
			id = fmt.Sprintf("%d", ding.ID)
		}
		s.pub.Process(ctx, eventType, events.Data{
			"id":              id,
			"deviceName":      ding.DoorbotDescription,
			"deviceId":        ding.DoorbotID,
			"kind":            ding.Kind,
			"timestamp":       s.occurrenceTime(ding.CreatedAt),
			"detectionMethod": events.MethodDirectAPIPolling,
			"dingData":        ding,
		})
	}
}

// sweepLocationHistory classifies recent history entries by kind.
// Entries without any usable identifier are skipped rather than risk an
// unstable dedup key.
func (s *Sweeper) sweepLocationHistory(ctx context.Context, loc ring.Location) {
	history, err := loc.GetHistory(ctx, historyLimit)
	if err != nil {
		metrics.SweepStepErrors.WithLabelValues("history").Inc()
		logging.Warn().Err(err).Str("location", loc.Name()).
			Msg("Error polling location history")
		return
	}
	if len(history) == 0 {
		logging.Debug().Str("location", loc.Name()).Msg("No history events found")
		return
	}
	logging.Debug().Str("location", loc.Name()).Int("count", len(history)).
		Msg("Found history events")

	for _, ev := range history {
		if !ev.HasUsableID() {
			logging.Debug().Str("kind", ev.Kind).
				Msg("Skipping history event with insufficient properties")
			continue
		}

		eventType := "unknown_event"
		switch {
		case ev.Kind == ring.KindMotion:
			eventType = events.TypeMotionDetected
		case ev.Kind == ring.KindDing:
			eventType = events.TypeDoorbellPress
		case ev.Kind != "":
			eventType = ev.Kind
		}

		deviceName := ev.DoorbotDescription
		if deviceName == "" {
			deviceName = "unknown"
		}
		s.pub.Process(ctx, eventType, events.Data{
			"id":              ev.ID,
			"dingId":          ev.DingIDStr,
			"deviceId":        ev.DoorbotID,
			"locationName":    loc.Name(),
			"deviceName":      deviceName,
			"kind":            ev.Kind,
			"createdAt":       ev.CreatedAt,
			"timestamp":       s.now().UTC().Format(time.RFC3339Nano),
			"detectionMethod": events.MethodHistoryPolling,
			"eventData":       ev,
		})
	}
}

// sweepCamera checks one camera's health, snapshot availability, motion
// heuristics, and recent motion history. Errors are contained to the
// camera being checked.
func (s *Sweeper) sweepCamera(ctx context.Context, cam ring.Camera, loc ring.Location) {
	logging.Debug().Str("camera", cam.Name()).Msg("Checking camera")

	health, err := cam.GetHealth(ctx)
	if err != nil {
		metrics.SweepStepErrors.WithLabelValues("camera_health").Inc()
		logging.Debug().Err(err).Str("camera", cam.Name()).
			Msg("Error fetching camera health")
	}

	// Snapshot availability is probed but failure never blocks the rest
	// of the check.
	if _, err := cam.GetSnapshot(ctx); err != nil {
		logging.Debug().Err(err).Str("camera", cam.Name()).Msg("Could not get snapshot")
	}

	hasMotion := cam.HasMotion() ||
		subscription.MotionSignal(cam.Data()) ||
		(health != nil && health.Motion)

	if hasMotion {
		logging.Info().Str("camera", cam.Name()).
			Msg("Motion detected via direct camera check")
		// Identity is fresh per tick on purpose; the dedup window's time
		// bucket is the only suppression for sustained motion here.
		s.pub.Process(ctx, events.TypeMotionDetected, events.Data{
			"id":              fmt.Sprintf("direct-motion-%s-%d", cam.ID(), s.now().UnixMilli()),
			"cameraName":      cam.Name(),
			"cameraId":        cam.ID(),
			"locationName":    loc.Name(),
			"timestamp":       s.now().UTC().Format(time.RFC3339Nano),
			"detectionMethod": events.MethodDirectCameraCheck,
		})
	}

	s.sweepCameraEvents(ctx, cam, loc)
}

// sweepCameraEvents emits a motion event for the camera's most recent
// motion-kind history entry, keyed by that entry's own creation time.
func (s *Sweeper) sweepCameraEvents(ctx context.Context, cam ring.Camera, loc ring.Location) {
	motionEvents, err := cam.GetEvents(ctx, ring.KindMotion, 0)
	if err != nil {
		metrics.SweepStepErrors.WithLabelValues("camera_events").Inc()
		logging.Debug().Err(err).Str("camera", cam.Name()).
			Msg("Could not get camera events")
		return
	}
	if len(motionEvents) == 0 {
		return
	}
	logging.Debug().Str("camera", cam.Name()).Int("count", len(motionEvents)).
		Msg("Found motion events")

	latest := motionEvents[0]
	createdAt := latest.CreatedAt
	if createdAt == "" {
		createdAt = fmt.Sprintf("%d", s.now().UnixMilli())
	}
	logging.Info().Str("camera", cam.Name()).Msg("Motion detected via event history")

	s.pub.Process(ctx, events.TypeMotionDetected, events.Data{
		"id":              fmt.Sprintf("event-motion-%s-%s", cam.ID(), createdAt),
		"cameraName":      cam.Name(),
		"cameraId":        cam.ID(),
		"locationName":    loc.Name(),
		"timestamp":       s.now().UTC().Format(time.RFC3339Nano),
		"eventCreatedAt":  latest.CreatedAt,
		"detectionMethod": events.MethodCameraEvents,
	})
}

func (s *Sweeper) occurrenceTime(createdAt string) string {
	if createdAt != "" {
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			return t.UTC().Format(time.RFC3339Nano)
		}
		return createdAt
	}
	return s.now().UTC().Format(time.RFC3339Nano)
}
