// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package ring

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/slavpilus/ring-automation-bridge/internal/logging"
)

const (
	oauthClientID = "ring_official_android"
	oauthScope    = "client"

	// tokenSlack refreshes access tokens slightly before expiry.
	tokenSlack = 60 * time.Second

	requestTimeout = 30 * time.Second
)

// restClient is the authenticated HTTP layer under Client. All API calls
// pass through a rate limiter and a circuit breaker so a misbehaving
// upstream cannot melt the polling loop.
type restClient struct {
	apiBase  string
	authBase string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]

	mu           sync.Mutex
	refreshToken string
	accessToken  string
	expiresAt    time.Time

	now func() time.Time
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func newRESTClient(apiBase, authBase, refreshToken string) *restClient {
	return &restClient{
		apiBase:  strings.TrimRight(apiBase, "/"),
		authBase: strings.TrimRight(authBase, "/"),
		http:     &http.Client{Timeout: requestTimeout},
		limiter:  rate.NewLimiter(rate.Limit(5), 10),
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:     "ring-api",
			Interval: time.Minute,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		}),
		refreshToken: refreshToken,
		now:          time.Now,
	}
}

// authenticate exchanges the refresh token for an access token. It is
// called eagerly at startup and lazily whenever the token expires.
func (r *restClient) authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *restClient) refreshLocked(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {r.refreshToken},
		"client_id":     {oauthClientID},
		"scope":         {oauthScope},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.authBase+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("token response missing access_token")
	}

	r.accessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		r.refreshToken = tok.RefreshToken
	}
	r.expiresAt = r.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	logging.Debug().Time("expires_at", r.expiresAt).Msg("Ring access token refreshed")
	return nil
}

func (r *restClient) token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accessToken == "" || r.now().After(r.expiresAt.Add(-tokenSlack)) {
		if err := r.refreshLocked(ctx); err != nil {
			return "", err
		}
	}
	return r.accessToken, nil
}

// get issues an authenticated GET against the API base and decodes the
// JSON response into out. Pass nil out to discard the body.
func (r *restClient) get(ctx context.Context, path string, out any) error {
	body, err := r.raw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// raw issues an authenticated request and returns the response body.
func (r *restClient) raw(ctx context.Context, method, path string, reqBody []byte) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.breaker.Execute(func() ([]byte, error) {
		tok, err := r.token(ctx)
		if err != nil {
			return nil, err
		}

		var rd io.Reader
		if reqBody != nil {
			rd = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, r.apiBase+path, rd)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := r.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// Force a token refresh on the next call.
			r.mu.Lock()
			r.accessToken = ""
			r.mu.Unlock()
			return nil, fmt.Errorf("%s %s: unauthorized", method, path)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return body, nil
	})
}
