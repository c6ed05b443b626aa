// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package ring

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
)

// camera implements Camera over a raw device record. Push frames for the
// device keep the cached state current.
type camera struct {
	rest *restClient
	push *pushSocket

	mu         sync.RWMutex
	rec        DeviceRecord
	data       map[string]any
	hasMotion  bool
	lastMotion *Ding
}

func newCamera(rec DeviceRecord, rest *restClient, push *pushSocket) *camera {
	c := &camera{rest: rest, push: push, rec: rec}
	if push != nil {
		// Track our own state off the feed regardless of listeners.
		push.subscribe(c.ID(), chanMotion, func(f pushFrame) {
			if f.Motion != nil {
				c.mu.Lock()
				c.hasMotion = *f.Motion
				c.mu.Unlock()
			}
		})
		push.subscribe(c.ID(), chanActiveDings, func(f pushFrame) {
			c.mu.Lock()
			for i := range f.Dings {
				if f.Dings[i].Kind == KindMotion {
					d := f.Dings[i]
					c.lastMotion = &d
				}
			}
			c.mu.Unlock()
		})
		push.subscribe(c.ID(), chanData, func(f pushFrame) {
			if f.Data != nil {
				c.mu.Lock()
				c.data = f.Data
				if motion, ok := f.Data["motion"].(bool); ok {
					c.hasMotion = motion
				}
				c.mu.Unlock()
			}
		})
	}
	return c
}

func (c *camera) ID() string         { return strconv.FormatInt(c.rec.ID, 10) }
func (c *camera) Name() string       { return c.rec.Description }
func (c *camera) DeviceType() string { return c.rec.Kind }
func (c *camera) IsDoorbot() bool    { return IsDoorbotKind(c.rec.Kind) }

func (c *camera) BatteryLevel() *float64 { return c.rec.BatteryLife }

func (c *camera) HasLight() bool {
	return c.boolField("led_status") || c.boolField("has_light")
}

func (c *camera) HasSiren() bool { return c.boolField("has_siren") }

func (c *camera) IsOffline() bool {
	return c.rec.HealthStatus == "offline"
}

func (c *camera) IsCharging() bool { return c.boolField("charging") }

func (c *camera) HasMotion() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasMotion
}

func (c *camera) LastMotion() *Ding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastMotion == nil {
		return nil
	}
	d := *c.lastMotion
	return &d
}

func (c *camera) Data() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

func (c *camera) boolField(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, _ := c.data[key].(bool)
	return b
}

func (c *camera) OnDoorbellPressed(fn func(Ding)) error {
	if !c.IsDoorbot() {
		return ErrCapabilityUnsupported
	}
	if c.push == nil {
		return ErrCapabilityUnsupported
	}
	c.push.subscribe(c.ID(), chanDing, func(f pushFrame) {
		if f.Ding != nil && f.Ding.Kind == KindDing {
			fn(*f.Ding)
		}
	})
	return nil
}

func (c *camera) OnMotionDetected(fn func(bool)) error {
	if c.push == nil {
		return ErrCapabilityUnsupported
	}
	c.push.subscribe(c.ID(), chanMotion, func(f pushFrame) {
		if f.Motion != nil {
			fn(*f.Motion)
		}
	})
	return nil
}

func (c *camera) OnActiveDings(fn func([]Ding)) error {
	if c.push == nil {
		return ErrCapabilityUnsupported
	}
	c.push.subscribe(c.ID(), chanActiveDings, func(f pushFrame) {
		if len(f.Dings) > 0 {
			fn(f.Dings)
		}
	})
	return nil
}

func (c *camera) OnData(fn func(map[string]any)) error {
	if c.push == nil {
		return ErrCapabilityUnsupported
	}
	c.push.subscribe(c.ID(), chanData, func(f pushFrame) {
		if f.Data != nil {
			fn(f.Data)
		}
	})
	return nil
}

func (c *camera) GetHealth(ctx context.Context) (*HealthData, error) {
	var resp struct {
		DeviceHealth HealthData `json:"device_health"`
	}
	path := fmt.Sprintf("/clients_api/doorbots/%d/health", c.rec.ID)
	if err := c.rest.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.DeviceHealth, nil
}

func (c *camera) GetSnapshot(ctx context.Context) ([]byte, error) {
	path := fmt.Sprintf("/clients_api/snapshots/image/%d", c.rec.ID)
	return c.rest.raw(ctx, http.MethodGet, path, nil)
}

func (c *camera) GetEvents(ctx context.Context, kind string, limit int) ([]HistoryEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	path := fmt.Sprintf("/clients_api/doorbots/%d/history?limit=%d", c.rec.ID, limit)
	var events []HistoryEvent
	if err := c.rest.get(ctx, path, &events); err != nil {
		return nil, err
	}
	if kind == "" {
		return events, nil
	}
	filtered := events[:0]
	for _, ev := range events {
		if ev.Kind == kind {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}
