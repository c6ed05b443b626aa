// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/slavpilus/ring-automation-bridge/internal/events"
	"github.com/slavpilus/ring-automation-bridge/internal/logging"
	"github.com/slavpilus/ring-automation-bridge/internal/metrics"
	"github.com/slavpilus/ring-automation-bridge/internal/ring"
)

// AttachAlarms finds security panels at the location, emits an initial
// mode snapshot for each, and subscribes to mode changes. Errors here
// are logged, never fatal.
func (a *Attacher) AttachAlarms(ctx context.Context, loc ring.Location) {
	devices, err := loc.GetDevices(ctx)
	if err != nil {
		logging.Warn().Err(err).Str("location", loc.Name()).
			Msg("Error accessing alarm devices")
		return
	}

	var alarms []ring.Alarm
	for _, dev := range devices {
		if alarm, ok := dev.(ring.Alarm); ok {
			alarms = append(alarms, alarm)
		}
	}
	if len(alarms) == 0 {
		logging.Info().Str("location", loc.Name()).Msg("No alarm devices found")
		return
	}
	logging.Info().Str("location", loc.Name()).Int("count", len(alarms)).
		Msg("Found alarm devices")

	for _, alarm := range alarms {
		a.attachAlarm(ctx, alarm, loc)
	}
}

func (a *Attacher) attachAlarm(ctx context.Context, alarm ring.Alarm, loc ring.Location) {
	logging.Info().Str("alarm", alarm.Name()).Str("location", loc.Name()).
		Msg("Setting up alarm device")

	var mu sync.Mutex
	previousMode := alarm.Mode()
	logging.Debug().Str("location", loc.Name()).Str("mode", previousMode).
		Msg("Initial alarm mode")

	// Initial snapshot fires once regardless of change.
	a.pub.Process(ctx, events.TypeAlarmModeState, events.Data{
		"locationName": loc.Name(),
		"alarmId":      alarm.ID(),
		"mode":         previousMode,
		"timestamp":    a.now().UTC().Format(time.RFC3339Nano),
		"initial":      true,
	})

	err := alarm.OnData(func(data map[string]any) {
		mode, ok := data["mode"].(string)
		if !ok {
			return
		}

		mu.Lock()
		if mode == previousMode {
			mu.Unlock()
			return
		}
		prev := previousMode
		previousMode = mode
		mu.Unlock()

		logging.Info().Str("from", prev).Str("to", mode).
			Msg("Alarm mode changed")
		a.pub.Process(ctx, events.TypeAlarmModeChanged, events.Data{
			"locationName": loc.Name(),
			"alarmId":      alarm.ID(),
			"mode":         mode,
			"previousMode": prev,
			"timestamp":    a.now().UTC().Format(time.RFC3339Nano),
		})
	})
	if err != nil {
		logging.Warn().Err(err).Str("alarm", alarm.Name()).
			Msg("Could not subscribe to alarm mode changes")
		return
	}
	metrics.ListenersActive.WithLabelValues("alarm").Inc()
	logging.Debug().Str("alarm", alarm.Name()).Msg("Subscribed to alarm mode changes")
}
