// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package ring

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/slavpilus/ring-automation-bridge/internal/logging"
)

// pushChannel names the event channels carried on the push feed.
type pushChannel string

const (
	chanDing        pushChannel = "ding"
	chanMotion      pushChannel = "motion"
	chanActiveDings pushChannel = "active_dings"
	chanData        pushChannel = "data"
)

const reconnectDelay = 5 * time.Second

// pushFrame is one message on the push socket. Subject selects the
// channel; the matching payload field is set.
type pushFrame struct {
	Subject  string         `json:"subject"`
	DeviceID string         `json:"device_id"`
	Motion   *bool          `json:"motion,omitempty"`
	Ding     *Ding          `json:"ding,omitempty"`
	Dings    []Ding         `json:"active_dings,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

type pushHandler func(pushFrame)

// pushSocket maintains the websocket connection to Ring's push feed and
// fans incoming frames out to per-device subscribers. Devices register
// through subscribe; the socket itself is driven by Run under the
// supervision tree.
type pushSocket struct {
	url  string
	rest *restClient

	mu   sync.RWMutex
	subs map[string]map[pushChannel][]pushHandler

	// dial is swappable for tests.
	dial func(ctx context.Context, urlStr string) (*websocket.Conn, error)
}

func newPushSocket(apiBase string, rest *restClient) *pushSocket {
	wsURL := strings.Replace(apiBase, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return &pushSocket{
		url:  strings.TrimRight(wsURL, "/") + "/clients_api/subscribe",
		rest: rest,
		subs: make(map[string]map[pushChannel][]pushHandler),
		dial: func(ctx context.Context, urlStr string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, urlStr, nil)
			return conn, err
		},
	}
}

func (p *pushSocket) subscribe(deviceID string, ch pushChannel, fn pushHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs[deviceID] == nil {
		p.subs[deviceID] = make(map[pushChannel][]pushHandler)
	}
	p.subs[deviceID][ch] = append(p.subs[deviceID][ch], fn)
}

// dispatch routes a frame to every handler registered for its device and
// channel. Handlers run synchronously on the read loop.
func (p *pushSocket) dispatch(frame pushFrame) {
	p.mu.RLock()
	handlers := p.subs[frame.DeviceID][pushChannel(frame.Subject)]
	p.mu.RUnlock()
	for _, fn := range handlers {
		fn(frame)
	}
}

// Run connects to the push feed and reads frames until ctx is cancelled,
// reconnecting after transient failures. It satisfies suture.Service.
func (p *pushSocket) Run(ctx context.Context) error {
	for {
		if err := p.connectAndRead(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Warn().Err(err).
				Dur("retry_in", reconnectDelay).
				Msg("Push feed disconnected, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (p *pushSocket) connectAndRead(ctx context.Context) error {
	tok, err := p.rest.token(ctx)
	if err != nil {
		return err
	}
	conn, err := p.dial(ctx, p.url+"?auth="+tok)
	if err != nil {
		return err
	}
	defer conn.Close()
	logging.Info().Msg("Push feed connected")

	// Close the socket when the context ends so ReadJSON unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var frame pushFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}
		p.dispatch(frame)
	}
}
