// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package services

import "context"

// Runner matches components with a single blocking Run method, such as
// the Ring push feed.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService adapts a Runner to suture.Service.
type RunnerService struct {
	runner Runner
	name   string
}

func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

func (r *RunnerService) Serve(ctx context.Context) error {
	return r.runner.Run(ctx)
}

func (r *RunnerService) String() string { return r.name }
