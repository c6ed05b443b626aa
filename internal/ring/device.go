// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package ring

import (
	"context"
	"errors"
)

// ErrCapabilityUnsupported is returned when a listener registration is
// attempted on a device that does not expose the capability. Callers log
// and skip the listener rather than treating this as fatal.
var ErrCapabilityUnsupported = errors.New("ring: device does not support capability")

// Device is the minimal surface shared by all discovered devices.
type Device interface {
	ID() string
	Name() string
	DeviceType() string
}

// Camera is a doorbell or camera device. Listener registrations return
// ErrCapabilityUnsupported when the device lacks the capability, for
// example doorbell-press listeners on a non-doorbot camera.
type Camera interface {
	Device

	IsDoorbot() bool
	BatteryLevel() *float64
	HasLight() bool
	HasSiren() bool
	IsOffline() bool
	IsCharging() bool

	// HasMotion reports the camera's current motion flag as last seen on
	// the push feed or health poll.
	HasMotion() bool
	// LastMotion returns the most recent motion ding, if any.
	LastMotion() *Ding
	// Data returns the camera's raw state snapshot.
	Data() map[string]any

	OnDoorbellPressed(fn func(Ding)) error
	OnMotionDetected(fn func(bool)) error
	OnActiveDings(fn func([]Ding)) error
	OnData(fn func(map[string]any)) error

	GetHealth(ctx context.Context) (*HealthData, error)
	GetSnapshot(ctx context.Context) ([]byte, error)
	// GetEvents returns recent events for this camera, optionally
	// filtered by kind ("" means all kinds).
	GetEvents(ctx context.Context, kind string, limit int) ([]HistoryEvent, error)
}

// Alarm is an alarm hub (security panel) device.
type Alarm interface {
	Device

	// Mode returns the current alarm mode as last reported.
	Mode() string
	OnData(fn func(map[string]any)) error
}

// Location groups the devices registered at one Ring location.
type Location interface {
	ID() string
	Name() string
	Cameras() []Camera
	GetDevices(ctx context.Context) ([]Device, error)
	GetHistory(ctx context.Context, limit int) ([]HistoryEvent, error)
}
