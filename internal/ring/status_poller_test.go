// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package ring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusPollerCameraFrames(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at-1","expires_in":3600}`))
	})
	mux.HandleFunc("/devices/v2/locations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user_locations":[{"location_id":"loc-a","name":"Home"}]}`))
	})
	mux.HandleFunc("/clients_api/ring_devices", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"doorbots":[{"id":77,"description":"Front Door","kind":"doorbot_v4","location_id":"loc-a"}]}`))
	})
	mux.HandleFunc("/clients_api/doorbots/77/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"device_health":{"motion":true,"firmware":"1.2.3"}}`))
	})
	mux.HandleFunc("/devices/v2/locations/loc-a/devices", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"devices":[{"zid":"panel-1","name":"Alarm","device_type":"security-panel","mode":"away"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(srv)
	locations, err := c.GetLocations(context.Background())
	if err != nil {
		t.Fatalf("GetLocations() error = %v", err)
	}
	if len(locations) != 1 || len(locations[0].Cameras()) != 1 {
		t.Fatalf("unexpected discovery: %+v", locations)
	}

	var frames []map[string]any
	cam := locations[0].Cameras()[0]
	if err := cam.OnData(func(data map[string]any) { frames = append(frames, data) }); err != nil {
		t.Fatalf("OnData() error = %v", err)
	}

	poller := c.NewStatusPoller(20, 20)
	poller.pollCameras(context.Background())

	if len(frames) != 1 {
		t.Fatalf("data frames = %d, want 1", len(frames))
	}
	if frames[0]["motion"] != true || frames[0]["firmware"] != "1.2.3" {
		t.Errorf("unexpected frame: %+v", frames[0])
	}
	// The camera's own feed subscription saw the same frame.
	if !cam.HasMotion() {
		t.Error("HasMotion() = false after health reported motion")
	}
}

func TestStatusPollerAlarmModeFrames(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at-1","expires_in":3600}`))
	})
	mux.HandleFunc("/devices/v2/locations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user_locations":[{"location_id":"loc-a","name":"Home"}]}`))
	})
	mux.HandleFunc("/clients_api/ring_devices", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"doorbots":[]}`))
	})
	mux.HandleFunc("/devices/v2/locations/loc-a/devices", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"devices":[{"zid":"panel-1","name":"Alarm","device_type":"security-panel","mode":"home"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(srv)
	locations, err := c.GetLocations(context.Background())
	if err != nil {
		t.Fatalf("GetLocations() error = %v", err)
	}

	// A long-lived alarm handle, as the orchestrator would hold.
	devices, err := locations[0].GetDevices(context.Background())
	if err != nil || len(devices) != 1 {
		t.Fatalf("GetDevices() = (%v, %v), want one device", devices, err)
	}
	alarm := devices[0].(Alarm)

	var modes []any
	if err := alarm.OnData(func(data map[string]any) { modes = append(modes, data["mode"]) }); err != nil {
		t.Fatalf("OnData() error = %v", err)
	}

	poller := c.NewStatusPoller(20, 20)
	poller.pollAlarmModes(context.Background())

	if len(modes) != 1 || modes[0] != "home" {
		t.Errorf("mode frames = %v, want [home]", modes)
	}
}

func TestStatusPollerAlarmModeDoesNotAccumulateHandlers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at-1","expires_in":3600}`))
	})
	mux.HandleFunc("/devices/v2/locations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user_locations":[{"location_id":"loc-a","name":"Home"}]}`))
	})
	mux.HandleFunc("/clients_api/ring_devices", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"doorbots":[]}`))
	})
	mux.HandleFunc("/devices/v2/locations/loc-a/devices", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"devices":[{"zid":"panel-1","name":"Alarm","device_type":"security-panel","mode":"away"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(srv)
	if _, err := c.GetLocations(context.Background()); err != nil {
		t.Fatalf("GetLocations() error = %v", err)
	}

	devices, err := c.trackedLocations()[0].GetDevices(context.Background())
	if err != nil || len(devices) != 1 {
		t.Fatalf("GetDevices() = (%v, %v), want one device", devices, err)
	}
	alarm := devices[0].(Alarm)
	var frames int
	if err := alarm.OnData(func(map[string]any) { frames++ }); err != nil {
		t.Fatalf("OnData() error = %v", err)
	}

	c.push.mu.RLock()
	before := len(c.push.subs["panel-1"][chanData])
	c.push.mu.RUnlock()

	poller := c.NewStatusPoller(20, 20)
	for i := 0; i < 5; i++ {
		poller.pollAlarmModes(context.Background())
	}

	c.push.mu.RLock()
	after := len(c.push.subs["panel-1"][chanData])
	c.push.mu.RUnlock()
	if after != before {
		t.Errorf("data handlers for panel-1 = %d after 5 polls, want %d", after, before)
	}
	if frames != 5 {
		t.Errorf("mode frames delivered = %d, want 5", frames)
	}
}
