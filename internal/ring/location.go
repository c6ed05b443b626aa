// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package ring

import (
	"context"
	"fmt"
	"sync"
)

// location implements Location.
type location struct {
	id      string
	name    string
	cameras []Camera
	rest    *restClient
	push    *pushSocket
}

func (l *location) ID() string        { return l.id }
func (l *location) Name() string      { return l.name }
func (l *location) Cameras() []Camera { return l.cameras }

// deviceRecords fetches the location's raw device records. Callers that
// only need a point-in-time read use this directly; constructing typed
// devices registers push subscriptions and belongs to discovery.
func (l *location) deviceRecords(ctx context.Context) ([]alarmRecord, error) {
	var resp struct {
		Devices []alarmRecord `json:"devices"`
	}
	path := fmt.Sprintf("/devices/v2/locations/%s/devices", l.id)
	if err := l.rest.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// GetDevices returns the location's non-camera devices, typed as Alarm
// where the record is a security panel.
func (l *location) GetDevices(ctx context.Context) ([]Device, error) {
	recs, err := l.deviceRecords(ctx)
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(recs))
	for _, rec := range recs {
		if rec.DeviceType == DeviceTypeSecurityPanel {
			devices = append(devices, newAlarm(rec, l.push))
		} else {
			devices = append(devices, plainDevice{rec})
		}
	}
	return devices, nil
}

func (l *location) GetHistory(ctx context.Context, limit int) ([]HistoryEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	path := fmt.Sprintf("/clients_api/locations/%s/history?limit=%d", l.id, limit)
	var events []HistoryEvent
	if err := l.rest.get(ctx, path, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// plainDevice wraps records with no dedicated behavior.
type plainDevice struct {
	rec alarmRecord
}

func (d plainDevice) ID() string         { return d.rec.ID }
func (d plainDevice) Name() string       { return d.rec.Name }
func (d plainDevice) DeviceType() string { return d.rec.DeviceType }

// alarm implements Alarm over a security panel record. Mode updates
// arrive on the push feed's data channel.
type alarm struct {
	push *pushSocket

	mu  sync.RWMutex
	rec alarmRecord
}

func newAlarm(rec alarmRecord, push *pushSocket) *alarm {
	a := &alarm{push: push, rec: rec}
	if push != nil {
		push.subscribe(a.rec.ID, chanData, func(f pushFrame) {
			mode, ok := f.Data["mode"].(string)
			if !ok {
				return
			}
			a.mu.Lock()
			a.rec.Mode = mode
			a.mu.Unlock()
		})
	}
	return a
}

func (a *alarm) ID() string         { return a.rec.ID }
func (a *alarm) Name() string       { return a.rec.Name }
func (a *alarm) DeviceType() string { return a.rec.DeviceType }

func (a *alarm) Mode() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rec.Mode
}

func (a *alarm) OnData(fn func(map[string]any)) error {
	if a.push == nil {
		return ErrCapabilityUnsupported
	}
	a.push.subscribe(a.rec.ID, chanData, func(f pushFrame) {
		if f.Data != nil {
			fn(f.Data)
		}
	})
	return nil
}
