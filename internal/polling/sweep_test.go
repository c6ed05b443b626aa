// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package polling

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slavpilus/ring-automation-bridge/internal/events"
	"github.com/slavpilus/ring-automation-bridge/internal/ring"
)

type processed struct {
	eventType string
	data      events.Data
}

type recordingPublisher struct {
	mu    sync.Mutex
	calls []processed
}

func (r *recordingPublisher) Process(_ context.Context, eventType string, data events.Data) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, processed{eventType: eventType, data: data})
	return true
}

func (r *recordingPublisher) ofType(eventType string) []processed {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []processed
	for _, c := range r.calls {
		if c.eventType == eventType {
			out = append(out, c)
		}
	}
	return out
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeSource struct {
	dings []ring.Ding
	err   error
}

func (f *fakeSource) GetActiveDings(context.Context) ([]ring.Ding, error) {
	return f.dings, f.err
}

type fakeCamera struct {
	id        string
	name      string
	hasMotion bool
	data      map[string]any
	health    *ring.HealthData
	healthErr error
	events    []ring.HistoryEvent
	eventsErr error
}

func (f *fakeCamera) ID() string             { return f.id }
func (f *fakeCamera) Name() string           { return f.name }
func (f *fakeCamera) DeviceType() string     { return "stickup_cam_v3" }
func (f *fakeCamera) IsDoorbot() bool        { return false }
func (f *fakeCamera) BatteryLevel() *float64 { return nil }
func (f *fakeCamera) HasLight() bool         { return false }
func (f *fakeCamera) HasSiren() bool         { return false }
func (f *fakeCamera) IsOffline() bool        { return false }
func (f *fakeCamera) IsCharging() bool       { return false }
func (f *fakeCamera) HasMotion() bool        { return f.hasMotion }
func (f *fakeCamera) LastMotion() *ring.Ding { return nil }
func (f *fakeCamera) Data() map[string]any   { return f.data }

func (f *fakeCamera) OnDoorbellPressed(func(ring.Ding)) error { return ring.ErrCapabilityUnsupported }
func (f *fakeCamera) OnMotionDetected(func(bool)) error       { return ring.ErrCapabilityUnsupported }
func (f *fakeCamera) OnActiveDings(func([]ring.Ding)) error   { return ring.ErrCapabilityUnsupported }
func (f *fakeCamera) OnData(func(map[string]any)) error       { return ring.ErrCapabilityUnsupported }

func (f *fakeCamera) GetHealth(context.Context) (*ring.HealthData, error) {
	return f.health, f.healthErr
}
func (f *fakeCamera) GetSnapshot(context.Context) ([]byte, error) {
	return nil, errors.New("snapshot unavailable")
}
func (f *fakeCamera) GetEvents(_ context.Context, kind string, _ int) ([]ring.HistoryEvent, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	var out []ring.HistoryEvent
	for _, ev := range f.events {
		if kind == "" || ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeLocation struct {
	id         string
	name       string
	cameras    []ring.Camera
	history    []ring.HistoryEvent
	historyErr error
}

func (f *fakeLocation) ID() string             { return f.id }
func (f *fakeLocation) Name() string           { return f.name }
func (f *fakeLocation) Cameras() []ring.Camera { return f.cameras }
func (f *fakeLocation) GetDevices(context.Context) ([]ring.Device, error) {
	return nil, nil
}
func (f *fakeLocation) GetHistory(context.Context, int) ([]ring.HistoryEvent, error) {
	return f.history, f.historyErr
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestSweepActiveDings(t *testing.T) {
	pub := &recordingPublisher{}
	source := &fakeSource{dings: []ring.Ding{
		{IDStr: "m-1", Kind: "motion", DoorbotID: 77, DoorbotDescription: "Front Door"},
		{IDStr: "d-1", Kind: "ding", DoorbotID: 77, DoorbotDescription: "Front Door"},
		{IDStr: "x-1", Kind: "on_demand"},
	}}
	s := NewSweeper(source, []ring.Location{&fakeLocation{name: "Home"}}, pub, WithClock(fixedClock()))

	s.Tick(context.Background())

	motion := pub.ofType(events.TypeMotionDetected)
	if len(motion) != 1 {
		t.Fatalf("motion_detected events = %d, want 1", len(motion))
	}
	if motion[0].data["id"] != "m-1" || motion[0].data["detectionMethod"] != events.MethodDirectAPIPolling {
		t.Errorf("unexpected motion data: %+v", motion[0].data)
	}
	press := pub.ofType(events.TypeDoorbellPress)
	if len(press) != 1 {
		t.Fatalf("doorbell_press events = %d, want 1", len(press))
	}
	if press[0].data["deviceId"] != int64(77) {
		t.Errorf("deviceId = %v, want 77", press[0].data["deviceId"])
	}
}

func TestSweepActiveDingsErrorDoesNotAbortHistory(t *testing.T) {
	pub := &recordingPublisher{}
	source := &fakeSource{err: errors.New("upstream down")}
	loc := &fakeLocation{name: "Home", history: []ring.HistoryEvent{
		{ID: 1, Kind: "motion", DoorbotDescription: "Front Door"},
	}}
	s := NewSweeper(source, []ring.Location{loc}, pub, WithClock(fixedClock()))

	s.Tick(context.Background())

	if got := len(pub.ofType(events.TypeMotionDetected)); got != 1 {
		t.Errorf("motion_detected from history = %d, want 1", got)
	}
}

func TestSweepHistoryClassification(t *testing.T) {
	pub := &recordingPublisher{}
	loc := &fakeLocation{name: "Home", history: []ring.HistoryEvent{
		{ID: 1, Kind: "motion", DoorbotDescription: "Front Door"},
		{ID: 2, Kind: "ding"},
		{ID: 3, Kind: "on_demand"},
		{Kind: "motion"}, // no usable identifier, skipped
	}}
	s := NewSweeper(&fakeSource{}, []ring.Location{loc}, pub, WithClock(fixedClock()))

	s.Tick(context.Background())

	if got := len(pub.ofType(events.TypeMotionDetected)); got != 1 {
		t.Errorf("motion_detected events = %d, want 1", got)
	}
	if got := len(pub.ofType(events.TypeDoorbellPress)); got != 1 {
		t.Errorf("doorbell_press events = %d, want 1", got)
	}
	passthrough := pub.ofType("on_demand")
	if len(passthrough) != 1 {
		t.Fatalf("passthrough events = %d, want 1", len(passthrough))
	}
	if passthrough[0].data["deviceName"] != "unknown" {
		t.Errorf("deviceName = %v, want unknown", passthrough[0].data["deviceName"])
	}
	if passthrough[0].data["detectionMethod"] != events.MethodHistoryPolling {
		t.Errorf("detectionMethod = %v", passthrough[0].data["detectionMethod"])
	}
}

func TestSweepCameraMotionHeuristics(t *testing.T) {
	tests := []struct {
		name string
		cam  *fakeCamera
		want bool
	}{
		{"cached flag", &fakeCamera{id: "1", hasMotion: true}, true},
		{"data field", &fakeCamera{id: "2", data: map[string]any{"motion": true}}, true},
		{"health field", &fakeCamera{id: "3", health: &ring.HealthData{Motion: true}}, true},
		{"no signal", &fakeCamera{id: "4", health: &ring.HealthData{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			loc := &fakeLocation{name: "Home", cameras: []ring.Camera{tt.cam}}
			s := NewSweeper(&fakeSource{}, []ring.Location{loc}, pub, WithClock(fixedClock()))

			s.Tick(context.Background())

			var direct []processed
			for _, c := range pub.ofType(events.TypeMotionDetected) {
				if c.data["detectionMethod"] == events.MethodDirectCameraCheck {
					direct = append(direct, c)
				}
			}
			if got := len(direct) == 1; got != tt.want {
				t.Fatalf("direct camera motion emitted = %v, want %v", got, tt.want)
			}
			if tt.want {
				id, _ := direct[0].data["id"].(string)
				if !strings.HasPrefix(id, "direct-motion-"+tt.cam.id+"-") {
					t.Errorf("synthetic id = %q", id)
				}
			}
		})
	}
}

func TestSweepCameraEventsHistory(t *testing.T) {
	pub := &recordingPublisher{}
	cam := &fakeCamera{id: "5", name: "Garage", events: []ring.HistoryEvent{
		{ID: 10, Kind: "motion", CreatedAt: "2026-03-01T11:55:00Z"},
		{ID: 11, Kind: "motion", CreatedAt: "2026-03-01T11:50:00Z"},
	}}
	loc := &fakeLocation{name: "Home", cameras: []ring.Camera{cam}}
	s := NewSweeper(&fakeSource{}, []ring.Location{loc}, pub, WithClock(fixedClock()))

	s.Tick(context.Background())

	var viaHistory []processed
	for _, c := range pub.ofType(events.TypeMotionDetected) {
		if c.data["detectionMethod"] == events.MethodCameraEvents {
			viaHistory = append(viaHistory, c)
		}
	}
	// Only the most recent motion entry is emitted.
	if len(viaHistory) != 1 {
		t.Fatalf("camera event history emissions = %d, want 1", len(viaHistory))
	}
	if viaHistory[0].data["id"] != "event-motion-5-2026-03-01T11:55:00Z" {
		t.Errorf("id = %v", viaHistory[0].data["id"])
	}
	if viaHistory[0].data["eventCreatedAt"] != "2026-03-01T11:55:00Z" {
		t.Errorf("eventCreatedAt = %v", viaHistory[0].data["eventCreatedAt"])
	}
}

func TestSweepCameraErrorsIsolated(t *testing.T) {
	pub := &recordingPublisher{}
	broken := &fakeCamera{id: "6", name: "Broken",
		healthErr: errors.New("health down"), eventsErr: errors.New("events down")}
	working := &fakeCamera{id: "7", name: "Working", hasMotion: true}
	loc := &fakeLocation{name: "Home", cameras: []ring.Camera{broken, working}}
	s := NewSweeper(&fakeSource{}, []ring.Location{loc}, pub, WithClock(fixedClock()))

	s.Tick(context.Background())

	motion := pub.ofType(events.TypeMotionDetected)
	if len(motion) != 1 || motion[0].data["cameraId"] != "7" {
		t.Errorf("motion events = %+v, want one from camera 7", motion)
	}
}

func TestStartWithoutLocationsIsNoOp(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewSweeper(&fakeSource{}, nil, pub, WithInterval(time.Millisecond))

	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(20 * time.Millisecond)
	if got := pub.count(); got != 0 {
		t.Errorf("events without locations = %d, want 0", got)
	}
}

func TestStartRunsImmediateTickAndStops(t *testing.T) {
	pub := &recordingPublisher{}
	source := &fakeSource{dings: []ring.Ding{
		{IDStr: "m-1", Kind: "motion", DoorbotID: 1},
	}}
	s := NewSweeper(source, []ring.Location{&fakeLocation{name: "Home"}}, pub,
		WithInterval(time.Hour))

	s.Start(context.Background())
	s.Stop()

	// The immediate tick ran before Stop returned.
	if got := len(pub.ofType(events.TypeMotionDetected)); got != 1 {
		t.Errorf("motion_detected after immediate tick = %d, want 1", got)
	}

	// Stop is idempotent.
	s.Stop()
}
