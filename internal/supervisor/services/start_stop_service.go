// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package services

import (
	"context"
	"fmt"
)

// StartStopper matches the Start/Stop lifecycle used by the dedup
// store's janitor and the polling sweeper.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
}

// StartStopService adapts a Start/Stop component to suture's Serve
// pattern: Start, block on cancellation, Stop.
type StartStopService struct {
	component StartStopper
	name      string
}

func NewStartStopService(name string, component StartStopper) *StartStopService {
	return &StartStopService{component: component, name: name}
}

// Serve implements suture.Service. Stop blocks until the component's
// internal goroutines have drained.
func (s *StartStopService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}
	<-ctx.Done()
	s.component.Stop()
	return ctx.Err()
}

func (s *StartStopService) String() string { return s.name }
