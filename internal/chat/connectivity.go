// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

import (
	"context"
	"net/http"
	"time"
)

// Connectivity reports whether the completion endpoint is reachable.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// StaticConnectivity always reports the same answer.
type StaticConnectivity bool

// Online returns the fixed answer.
func (c StaticConnectivity) Online(context.Context) bool { return bool(c) }

// Probe checks connectivity with a HEAD request. Any response, whatever its
// status, counts as online.
type Probe struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// Online sends the probe request.
func (p Probe) Online(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, http.NoBody)
	if err != nil {
		return false
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}
