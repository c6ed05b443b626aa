// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

// Package bridge orchestrates startup: authentication, device
// discovery, and listener attachment. The supervision tree in cmd takes
// over once Setup returns.
package bridge

import (
	"context"
	"fmt"

	"github.com/slavpilus/ring-automation-bridge/internal/logging"
	"github.com/slavpilus/ring-automation-bridge/internal/ring"
	"github.com/slavpilus/ring-automation-bridge/internal/subscription"
)

// DeviceAPI is the slice of ring.Client the orchestrator needs.
type DeviceAPI interface {
	Authenticate(ctx context.Context) error
	GetProfile(ctx context.Context) (*ring.Profile, error)
	GetLocations(ctx context.Context) ([]ring.Location, error)
	GetDevicesRaw(ctx context.Context) ([]ring.DeviceRecord, error)
}

// Bridge wires discovered devices to the event pipeline.
type Bridge struct {
	api      DeviceAPI
	attacher *subscription.Attacher
}

func New(api DeviceAPI, attacher *subscription.Attacher) *Bridge {
	return &Bridge{api: api, attacher: attacher}
}

// Setup authenticates, discovers locations, and attaches push listeners
// to every camera and alarm. An authentication failure is fatal; nearly
// everything after it degrades gracefully. The returned locations feed
// the polling sweeper; an empty slice means the account had no
// locations and only the direct-device fallback ran.
func (b *Bridge) Setup(ctx context.Context) ([]ring.Location, error) {
	if err := b.api.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("ring authentication failed: %w", err)
	}
	logging.Info().Msg("Ring authentication successful")

	b.logAccountInfo(ctx)

	locations, err := b.api.GetLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover locations: %w", err)
	}

	if len(locations) == 0 {
		logging.Warn().Msg("No Ring locations found, attempting to work with devices directly")
		devices, err := b.api.GetDevicesRaw(ctx)
		if err != nil || len(devices) == 0 {
			if err != nil {
				logging.Warn().Err(err).Msg("Could not retrieve any devices")
			}
			logging.Info().Msg("Listening for Ring events, waiting for locations to be added")
			return nil, nil
		}
		b.attacher.ProcessDiscoveredDevices(ctx, devices)
		return nil, nil
	}

	for _, loc := range locations {
		logging.Info().Str("location", loc.Name()).Msg("Setting up listeners for location")
		for _, cam := range loc.Cameras() {
			b.attacher.AttachCamera(ctx, cam, loc)
		}
		b.attacher.AttachAlarms(ctx, loc)
	}

	logging.Info().Msg("All Ring listeners set up, listening for Ring events")
	return locations, nil
}

// logAccountInfo reports the authenticated profile. Failure here is
// cosmetic and never blocks startup.
func (b *Bridge) logAccountInfo(ctx context.Context) {
	profile, err := b.api.GetProfile(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Could not fetch account profile")
		return
	}
	logging.Info().
		Str("email", profile.Email).
		Str("name", profile.FirstName+" "+profile.LastName).
		Int64("userId", profile.UserID).
		Msg("Authenticated Ring account")
}
