// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package events defines the canonical event model shared by every
// ingestion channel, plus identity resolution and event statistics.
//
// Raw Ring payloads have no fixed schema; every source normalizes its
// payload into an event type string and a Data mapping carrying whatever
// identifying and contextual fields were available. Everything downstream
// of normalization (admission, delivery) operates only on this shape.
package events

import (
	"time"
)

// Source is the fixed source tag attached to every outbound payload.
const Source = "ring-doorbell"

// Event types produced by the bridge.
const (
	TypeDoorbellPressed    = "doorbell_pressed"
	TypeDoorbellPress      = "doorbell_press" // polled variant, kept distinct for parity with the push path
	TypeMotionDetected     = "motion_detected"
	TypeActiveDing         = "active_ding"
	TypeAlarmModeChanged   = "alarm_mode_changed"
	TypeAlarmModeState     = "alarm_mode_state"
	TypeCameraStatusUpdate = "camera_status_update"
	TypeDeviceFound        = "device_found"
	TypeBaseStationFound   = "base_station_found"
	TypeCameraFound        = "camera_found"
)

// Detection method tags identifying which channel produced an event.
const (
	MethodOnMotionDetected  = "onMotionDetected"
	MethodOnActiveDings     = "onActiveDings"
	MethodOnActiveDingsMot  = "onActiveDings_motion"
	MethodOnData            = "onData"
	MethodDirectAPIPolling  = "direct_api_polling"
	MethodHistoryPolling    = "history_polling"
	MethodDirectCameraCheck = "direct_camera_check"
	MethodCameraEvents      = "camera_events_history"
)

// Data is the loosely-typed field mapping of a canonical event.
// Values are whatever the source had: strings, numbers, booleans,
// nested maps for raw ding/history records.
type Data map[string]any

// Payload is the outbound webhook body built from an admitted event.
type Payload struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"eventType"`
	Source    string `json:"source"`
	Data      Data   `json:"data"`
}

// NewPayload builds an outbound payload for the given event at time now.
func NewPayload(eventType string, data Data, now time.Time) Payload {
	return Payload{
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		EventType: eventType,
		Source:    Source,
		Data:      data,
	}
}

// Normalize guarantees the canonical event invariant: data is never empty.
// If no identifying fields were known a timestamp is injected so that the
// generic identity fallback still has something to work with.
func Normalize(data Data, now time.Time) Data {
	if data == nil {
		data = Data{}
	}
	if len(data) == 0 {
		data["timestamp"] = now.UTC().Format(time.RFC3339Nano)
	}
	return data
}
