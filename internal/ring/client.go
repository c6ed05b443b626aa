// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package ring is a thin client for the Ring device API. It exposes
// capability-typed devices (Camera, Alarm, Location) backed by an
// authenticated REST layer and a websocket push feed. Event semantics
// live in the packages above it; this package only moves bytes.
package ring

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/slavpilus/ring-automation-bridge/internal/logging"
)

// Options configures a Client.
type Options struct {
	RefreshToken string
	APIBaseURL   string
	AuthBaseURL  string

	// LocationIDs restricts GetLocations to these IDs. Empty means all.
	LocationIDs []string
}

// Client is the entry point to the Ring API.
type Client struct {
	rest        *restClient
	push        *pushSocket
	locationIDs map[string]struct{}
	instanceID  string

	mu        sync.RWMutex
	locations []Location
	cameras   []Camera
}

func NewClient(opts Options) *Client {
	rest := newRESTClient(opts.APIBaseURL, opts.AuthBaseURL, opts.RefreshToken)
	allow := make(map[string]struct{}, len(opts.LocationIDs))
	for _, id := range opts.LocationIDs {
		allow[id] = struct{}{}
	}
	return &Client{
		rest:        rest,
		push:        newPushSocket(opts.APIBaseURL, rest),
		locationIDs: allow,
		instanceID:  uuid.NewString(),
	}
}

// InstanceID identifies this client session in logs.
func (c *Client) InstanceID() string { return c.instanceID }

// PushFeed returns the push socket service so the caller can run it
// under its supervision tree.
func (c *Client) PushFeed() interface {
	Run(ctx context.Context) error
} {
	return c.push
}

// Authenticate performs the initial token exchange. A failure here means
// the refresh token is unusable and the bridge cannot start.
func (c *Client) Authenticate(ctx context.Context) error {
	return c.rest.authenticate(ctx)
}

// GetProfile returns the authenticated account's profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var resp struct {
		Profile Profile `json:"profile"`
	}
	if err := c.rest.get(ctx, "/clients_api/profile", &resp); err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

// GetLocations discovers the account's locations with their cameras,
// filtered by the configured location allowlist.
func (c *Client) GetLocations(ctx context.Context) ([]Location, error) {
	var locResp struct {
		UserLocations []locationRecord `json:"user_locations"`
	}
	if err := c.rest.get(ctx, "/devices/v2/locations", &locResp); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	devices, err := c.GetDevicesRaw(ctx)
	if err != nil {
		return nil, err
	}
	camerasByLoc := make(map[string][]Camera)
	for _, rec := range devices {
		if !IsCameraKind(rec.Kind) {
			continue
		}
		camerasByLoc[rec.LocationID] = append(camerasByLoc[rec.LocationID],
			newCamera(rec, c.rest, c.push))
	}

	var locations []Location
	for _, rec := range locResp.UserLocations {
		if len(c.locationIDs) > 0 {
			if _, ok := c.locationIDs[rec.LocationID]; !ok {
				logging.Debug().Str("locationId", rec.LocationID).
					Msg("Skipping location not in configured list")
				continue
			}
		}
		locations = append(locations, &location{
			id:      rec.LocationID,
			name:    rec.Name,
			cameras: camerasByLoc[rec.LocationID],
			rest:    c.rest,
			push:    c.push,
		})
	}

	// Remember the discovery result for the status poller.
	var cameras []Camera
	for _, loc := range locations {
		cameras = append(cameras, loc.Cameras()...)
	}
	c.mu.Lock()
	c.locations = locations
	c.cameras = cameras
	c.mu.Unlock()

	return locations, nil
}

func (c *Client) trackedLocations() []Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locations
}

func (c *Client) trackedCameras() []Camera {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cameras
}

// GetActiveDings returns the account-wide active dings.
func (c *Client) GetActiveDings(ctx context.Context) ([]Ding, error) {
	var dings []Ding
	if err := c.rest.get(ctx, "/clients_api/dings/active", &dings); err != nil {
		return nil, err
	}
	return dings, nil
}

// GetDevicesRaw lists every device on the account. The primary endpoint
// occasionally 404s for some account types, so a legacy endpoint serves
// as fallback.
func (c *Client) GetDevicesRaw(ctx context.Context) ([]DeviceRecord, error) {
	var resp struct {
		Doorbots     []DeviceRecord `json:"doorbots"`
		StickupCams  []DeviceRecord `json:"stickup_cams"`
		BaseStations []DeviceRecord `json:"base_stations"`
		Chimes       []DeviceRecord `json:"chimes"`
	}
	if err := c.rest.get(ctx, "/clients_api/ring_devices", &resp); err != nil {
		logging.Warn().Err(err).Msg("Primary device endpoint failed, trying fallback")
		var alt struct {
			Devices []DeviceRecord `json:"devices"`
		}
		if err2 := c.rest.get(ctx, "/devices/v2/devices", &alt); err2 != nil {
			return nil, fmt.Errorf("list devices: %w", err2)
		}
		return alt.Devices, nil
	}

	devices := make([]DeviceRecord, 0,
		len(resp.Doorbots)+len(resp.StickupCams)+len(resp.BaseStations)+len(resp.Chimes))
	devices = append(devices, resp.Doorbots...)
	devices = append(devices, resp.StickupCams...)
	devices = append(devices, resp.BaseStations...)
	devices = append(devices, resp.Chimes...)
	return devices, nil
}
