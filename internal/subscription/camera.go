// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package subscription attaches live push listeners to discovered Ring
// devices and turns each push into a canonical event on the pipeline.
// Every listener is independent; one that cannot attach is logged and
// skipped, leaving the device covered by the polling sweep.
package subscription

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slavpilus/ring-automation-bridge/internal/events"
	"github.com/slavpilus/ring-automation-bridge/internal/logging"
	"github.com/slavpilus/ring-automation-bridge/internal/metrics"
	"github.com/slavpilus/ring-automation-bridge/internal/ring"
)

// Publisher admits and delivers one canonical event. Satisfied by
// pipeline.Pipeline.
type Publisher interface {
	Process(ctx context.Context, eventType string, data events.Data) bool
}

// Attacher wires push listeners for cameras and alarms into a Publisher.
type Attacher struct {
	pub Publisher
	now func() time.Time
}

func New(pub Publisher) *Attacher {
	return &Attacher{pub: pub, now: time.Now}
}

// NewWithClock is for tests.
func NewWithClock(pub Publisher, now func() time.Time) *Attacher {
	return &Attacher{pub: pub, now: now}
}

// AttachCamera registers all four camera listeners. Attach failures are
// per-listener and non-fatal.
func (a *Attacher) AttachCamera(ctx context.Context, cam ring.Camera, loc ring.Location) {
	logging.Info().Str("camera", cam.Name()).Str("location", loc.Name()).
		Msg("Setting up camera listeners")

	a.attachDoorbell(ctx, cam, loc)
	a.attachMotion(ctx, cam, loc)
	a.attachActiveDings(ctx, cam, loc)
	a.attachData(ctx, cam, loc)
}

func (a *Attacher) attachDoorbell(ctx context.Context, cam ring.Camera, loc ring.Location) {
	err := cam.OnDoorbellPressed(func(ding ring.Ding) {
		logging.Info().Str("camera", cam.Name()).Msg("Doorbell pressed")
		data := events.Data{
			"cameraName":   cam.Name(),
			"cameraId":     cam.ID(),
			"locationName": loc.Name(),
			"batteryLevel": cam.BatteryLevel(),
			"timestamp":    dingTimestamp(ding, a.now),
			"dingId":       ding.IDStr,
			"kind":         ding.Kind,
		}
		if ding.SnapshotURL != "" {
			data["snapshotUrl"] = ding.SnapshotURL
		}
		a.pub.Process(ctx, events.TypeDoorbellPressed, data)
	})
	if err != nil {
		if cam.IsDoorbot() {
			logging.Warn().Err(err).Str("camera", cam.Name()).
				Msg("Could not subscribe to doorbell events")
		}
		return
	}
	metrics.ListenersActive.WithLabelValues("doorbell").Inc()
	logging.Debug().Str("camera", cam.Name()).Msg("Subscribed to doorbell events")
}

func (a *Attacher) attachMotion(ctx context.Context, cam ring.Camera, loc ring.Location) {
	err := cam.OnMotionDetected(func(motion bool) {
		if !motion {
			return
		}
		logging.Info().Str("camera", cam.Name()).Msg("Motion detected")
		data := events.Data{
			"cameraName":      cam.Name(),
			"cameraId":        cam.ID(),
			"locationName":    loc.Name(),
			"batteryLevel":    cam.BatteryLevel(),
			"timestamp":       a.now().UTC().Format(time.RFC3339Nano),
			"detectionMethod": events.MethodOnMotionDetected,
		}
		if last := cam.LastMotion(); last != nil {
			data["lastMotion"] = last
		}
		a.pub.Process(ctx, events.TypeMotionDetected, data)
	})
	if err != nil {
		logging.Warn().Err(err).Str("camera", cam.Name()).
			Msg("Could not subscribe to motion events")
		return
	}
	metrics.ListenersActive.WithLabelValues("motion").Inc()
	logging.Debug().Str("camera", cam.Name()).Msg("Subscribed to motion events")
}

func (a *Attacher) attachActiveDings(ctx context.Context, cam ring.Camera, loc ring.Location) {
	err := cam.OnActiveDings(func(dings []ring.Ding) {
		for _, ding := range dings {
			logging.Info().Str("camera", cam.Name()).Str("kind", ding.Kind).
				Msg("Active event")

			data := events.Data{
				"cameraName":      cam.Name(),
				"cameraId":        cam.ID(),
				"locationName":    loc.Name(),
				"dingId":          ding.IDStr,
				"kind":            ding.Kind,
				"timestamp":       dingTimestamp(ding, a.now),
				"detectionMethod": events.MethodOnActiveDings,
			}
			if ding.SnapshotURL != "" {
				data["snapshotUrl"] = ding.SnapshotURL
			}
			a.pub.Process(ctx, events.TypeActiveDing, data)

			// Motion-kind dings feed the motion stream as well. Two gate
			// calls with two identities, not a duplicate.
			if ding.Kind == ring.KindMotion || ding.Kind == events.TypeMotionDetected {
				motionData := make(events.Data, len(data))
				for k, v := range data {
					motionData[k] = v
				}
				motionData["detectionMethod"] = events.MethodOnActiveDingsMot
				a.pub.Process(ctx, events.TypeMotionDetected, motionData)
			}
		}
	})
	if err != nil {
		logging.Warn().Err(err).Str("camera", cam.Name()).
			Msg("Could not subscribe to active ding events")
		return
	}
	metrics.ListenersActive.WithLabelValues("active_dings").Inc()
	logging.Debug().Str("camera", cam.Name()).Msg("Subscribed to active ding events")
}

// attachData is the alternative motion path. It keeps a per-camera edge
// flag so motion fires only on the false to true transition, and emits a
// status snapshot on every data tick.
func (a *Attacher) attachData(ctx context.Context, cam ring.Camera, loc ring.Location) {
	var mu sync.Mutex
	lastMotionState := false

	err := cam.OnData(func(data map[string]any) {
		hasMotion := MotionSignal(data)

		mu.Lock()
		fire := hasMotion && !lastMotionState
		if fire {
			lastMotionState = true
		} else if data["motion"] == false {
			lastMotionState = false
		}
		mu.Unlock()

		if fire {
			logging.Info().Str("camera", cam.Name()).
				Msg("Motion detected via data change")
			a.pub.Process(ctx, events.TypeMotionDetected, events.Data{
				"id":              fmt.Sprintf("motion-%s-%d", cam.ID(), a.now().UnixMilli()),
				"cameraName":      cam.Name(),
				"cameraId":        cam.ID(),
				"locationName":    loc.Name(),
				"batteryLevel":    cam.BatteryLevel(),
				"timestamp":       a.now().UTC().Format(time.RFC3339Nano),
				"detectionMethod": events.MethodOnData,
			})
		}

		// Status snapshot on every tick. High frequency by nature; only
		// the gate's exclusion list holds it back.
		a.pub.Process(ctx, events.TypeCameraStatusUpdate, events.Data{
			"cameraName":   cam.Name(),
			"cameraId":     cam.ID(),
			"locationName": loc.Name(),
			"batteryLevel": cam.BatteryLevel(),
			"hasLight":     cam.HasLight(),
			"hasSiren":     cam.HasSiren(),
			"isOffline":    cam.IsOffline(),
			"isCharging":   cam.IsCharging(),
			"hasMotion":    data["motion"] == true,
			"timestamp":    a.now().UTC().Format(time.RFC3339Nano),
		})
	})
	if err != nil {
		logging.Warn().Err(err).Str("camera", cam.Name()).
			Msg("Could not subscribe to data events")
		return
	}
	metrics.ListenersActive.WithLabelValues("data").Inc()
	logging.Debug().Str("camera", cam.Name()).Msg("Subscribed to data events")
}

// MotionSignal reports whether a raw data object indicates motion by any
// of the known field conventions.
func MotionSignal(data map[string]any) bool {
	if data == nil {
		return false
	}
	if data["motion"] == true {
		return true
	}
	if data["motion_status"] == "detected" {
		return true
	}
	if data["motion_detected"] == true {
		return true
	}
	return data["motion_state"] == "active"
}

func dingTimestamp(ding ring.Ding, now func() time.Time) string {
	if ding.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, ding.CreatedAt); err == nil {
			return t.UTC().Format(time.RFC3339Nano)
		}
		return ding.CreatedAt
	}
	return now().UTC().Format(time.RFC3339Nano)
}
