// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package subscription

import (
	"context"

	"github.com/slavpilus/ring-automation-bridge/internal/events"
	"github.com/slavpilus/ring-automation-bridge/internal/logging"
	"github.com/slavpilus/ring-automation-bridge/internal/ring"
)

// ProcessDiscoveredDevices reports every raw device as a discovery
// event, with extra events for base stations and cameras. Used on the
// zero-locations fallback path where per-device listeners cannot attach.
func (a *Attacher) ProcessDiscoveredDevices(ctx context.Context, devices []ring.DeviceRecord) {
	logging.Info().Int("total", len(devices)).Msg("Ring devices found")
	if len(devices) == 0 {
		return
	}

	byKind := make(map[string]int)
	for _, dev := range devices {
		kind := dev.Kind
		if kind == "" {
			kind = "unknown"
		}
		byKind[kind]++
	}
	for kind, count := range byKind {
		logging.Info().Str("kind", kind).Int("count", count).Msg("Device type")
	}

	for _, dev := range devices {
		logging.Info().
			Str("device", dev.Description).
			Int64("id", dev.ID).
			Str("kind", dev.Kind).
			Str("status", dev.HealthStatus).
			Msg("Device")

		a.pub.Process(ctx, events.TypeDeviceFound, events.Data{
			"id":               dev.ID,
			"description":      dev.Description,
			"kind":             dev.Kind,
			"health_status":    dev.HealthStatus,
			"battery_life":     dev.BatteryLife,
			"firmware_version": dev.FirmwareVersion,
		})
	}

	for _, dev := range devices {
		if !ring.IsBaseStationKind(dev.Kind) {
			continue
		}
		logging.Info().Str("device", dev.Description).Int64("id", dev.ID).
			Msg("Found alarm base station")
		a.pub.Process(ctx, events.TypeBaseStationFound, events.Data{
			"id":          dev.ID,
			"description": dev.Description,
			"location_id": dev.LocationID,
			"device_id":   dev.DeviceID,
			"time_zone":   dev.TimeZone,
			"latitude":    dev.Latitude,
			"longitude":   dev.Longitude,
		})
	}

	for _, dev := range devices {
		if !ring.IsCameraKind(dev.Kind) {
			continue
		}
		logging.Info().Str("device", dev.Description).Int64("id", dev.ID).
			Str("kind", dev.Kind).Msg("Found camera")
		a.pub.Process(ctx, events.TypeCameraFound, events.Data{
			"id":            dev.ID,
			"description":   dev.Description,
			"kind":          dev.Kind,
			"health_status": dev.HealthStatus,
			"battery_life":  dev.BatteryLife,
		})
	}

	logging.Info().Msg("Listening for Ring events using direct device access")
}
