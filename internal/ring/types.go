// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package ring

import "strings"

// Wire records returned by the Ring REST API. Fields not consumed by the
// bridge are omitted.

// Ding is an active event record (doorbell press or motion occurrence).
type Ding struct {
	ID                 int64  `json:"id"`
	IDStr              string `json:"id_str"`
	Kind               string `json:"kind"` // "ding" or "motion"
	CreatedAt          string `json:"created_at"`
	DoorbotID          int64  `json:"doorbot_id"`
	DoorbotDescription string `json:"doorbot_description"`
	SnapshotURL        string `json:"snapshot_url,omitempty"`
}

// HistoryEvent is one entry of a location's or camera's recent history.
type HistoryEvent struct {
	ID                 int64  `json:"id"`
	DingIDStr          string `json:"ding_id_str"`
	DoorbotID          int64  `json:"doorbot_id"`
	DoorbotDescription string `json:"doorbot_description"`
	Kind               string `json:"kind"`
	CreatedAt          string `json:"created_at"`
}

// HasUsableID reports whether the entry carries any identifier the
// dedup engine can key on. Entries without one are skipped.
func (h HistoryEvent) HasUsableID() bool {
	return h.ID != 0 || h.DingIDStr != "" || h.DoorbotID != 0
}

// DeviceRecord is a flat device as returned by the raw device endpoints.
type DeviceRecord struct {
	ID              int64    `json:"id"`
	Description     string   `json:"description"`
	Kind            string   `json:"kind"`
	HealthStatus    string   `json:"health_status"`
	BatteryLife     *float64 `json:"battery_life"`
	FirmwareVersion string   `json:"firmware_version"`
	LocationID      string   `json:"location_id"`
	DeviceID        string   `json:"device_id"`
	TimeZone        string   `json:"time_zone"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

// HealthData is the per-camera health report.
type HealthData struct {
	BatteryPercentage *float64 `json:"battery_percentage"`
	FirmwareVersion   string   `json:"firmware"`
	WifiSignal        *int     `json:"latest_signal_strength"`
	Motion            bool     `json:"motion"`
}

// Profile is the authenticated account's profile.
type Profile struct {
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	UserID    int64          `json:"user_id"`
	Status    string         `json:"status"`
	Features  map[string]any `json:"features"`
	CreatedAt string         `json:"created_at"`
}

// locationRecord is the per-location metadata record.
type locationRecord struct {
	LocationID string `json:"location_id"`
	Name       string `json:"name"`
}

// alarmRecord is a flat alarm-hub device within a location.
type alarmRecord struct {
	ID         string `json:"zid"`
	Name       string `json:"name"`
	DeviceType string `json:"device_type"`
	Mode       string `json:"mode"`
}

// Device kinds with special handling during discovery.
const (
	// DeviceTypeSecurityPanel marks alarm hub devices.
	DeviceTypeSecurityPanel = "security-panel"

	// KindDing and KindMotion classify dings and history entries.
	KindDing   = "ding"
	KindMotion = "motion"
)

// IsBaseStationKind reports whether a raw device kind is an alarm base
// station variant.
func IsBaseStationKind(kind string) bool {
	return strings.Contains(kind, "base_station")
}

// IsCameraKind reports whether a raw device kind is a doorbell or camera.
func IsCameraKind(kind string) bool {
	return IsDoorbotKind(kind) || strings.Contains(kind, "stickup_cam")
}

// IsDoorbotKind reports whether a raw device kind is a doorbell.
func IsDoorbotKind(kind string) bool {
	return strings.Contains(kind, "doorbot") || strings.Contains(kind, "doorbell")
}
