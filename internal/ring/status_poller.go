// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package ring

import (
	"context"
	"time"

	"github.com/slavpilus/ring-automation-bridge/internal/logging"
)

// StatusPoller periodically refreshes device state over REST and feeds
// the results to push subscribers as data frames. The push socket only
// carries occurrence events; camera status and alarm mode are pull-only
// upstream, so this poller is what drives the data-changed listeners
// between occurrences.
type StatusPoller struct {
	client         *Client
	cameraInterval time.Duration
	modeInterval   time.Duration
}

// NewStatusPoller creates the poller. Intervals are in seconds; zero or
// negative values fall back to 20s.
func (c *Client) NewStatusPoller(cameraSeconds, modeSeconds int) *StatusPoller {
	if cameraSeconds <= 0 {
		cameraSeconds = 20
	}
	if modeSeconds <= 0 {
		modeSeconds = 20
	}
	return &StatusPoller{
		client:         c,
		cameraInterval: time.Duration(cameraSeconds) * time.Second,
		modeInterval:   time.Duration(modeSeconds) * time.Second,
	}
}

// Run polls until ctx is cancelled. It satisfies suture.Service via the
// runner adapter.
func (p *StatusPoller) Run(ctx context.Context) error {
	cameraTicker := time.NewTicker(p.cameraInterval)
	defer cameraTicker.Stop()
	modeTicker := time.NewTicker(p.modeInterval)
	defer modeTicker.Stop()

	logging.Debug().
		Dur("camera_interval", p.cameraInterval).
		Dur("mode_interval", p.modeInterval).
		Msg("Status poller started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cameraTicker.C:
			p.pollCameras(ctx)
		case <-modeTicker.C:
			p.pollAlarmModes(ctx)
		}
	}
}

// pollCameras refreshes each known camera's health and publishes it as
// a data frame, waking that camera's data-changed subscribers.
func (p *StatusPoller) pollCameras(ctx context.Context) {
	for _, cam := range p.client.trackedCameras() {
		health, err := cam.GetHealth(ctx)
		if err != nil {
			logging.Debug().Err(err).Str("camera", cam.Name()).
				Msg("Status poll failed for camera")
			continue
		}
		data := map[string]any{
			"motion":          health.Motion,
			"battery_life":    health.BatteryPercentage,
			"firmware":        health.FirmwareVersion,
			"signal_strength": health.WifiSignal,
		}
		p.client.push.dispatch(pushFrame{
			Subject:  string(chanData),
			DeviceID: cam.ID(),
			Data:     data,
		})
	}
}

// pollAlarmModes re-reads each location's security panels and publishes
// mode frames, waking the alarm listeners. It works on raw records, not
// typed devices; constructing an Alarm registers a push subscription and
// doing that per tick would grow the handler table forever.
func (p *StatusPoller) pollAlarmModes(ctx context.Context) {
	for _, loc := range p.client.trackedLocations() {
		l, ok := loc.(*location)
		if !ok {
			continue
		}
		recs, err := l.deviceRecords(ctx)
		if err != nil {
			logging.Debug().Err(err).Str("location", loc.Name()).
				Msg("Mode poll failed for location")
			continue
		}
		for _, rec := range recs {
			if rec.DeviceType != DeviceTypeSecurityPanel {
				continue
			}
			p.client.push.dispatch(pushFrame{
				Subject:  string(chanData),
				DeviceID: rec.ID,
				Data:     map[string]any{"mode": rec.Mode},
			})
		}
	}
}
