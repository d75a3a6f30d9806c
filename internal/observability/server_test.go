// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, ready ReadinessChecker) *Server {
	t.Helper()
	server := NewServer("127.0.0.1:0", ready)
	_, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func get(t *testing.T, server *Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get("http://" + server.Addr() + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	server := startServer(t, func() bool { return true })

	server.Metrics().ObserveRequest("/api/me/profile", http.StatusOK, 20*time.Millisecond)
	server.Metrics().ObserveRequest("/api/me/profile", http.StatusOK, 10*time.Millisecond)
	server.Metrics().ObserveRequest("", http.StatusNotFound, time.Millisecond)

	status, body := get(t, server, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "process_")
	assert.Contains(t, body, `uhailink_http_requests_total{route="/api/me/profile",status="200"} 2`)
	assert.Contains(t, body, `uhailink_http_requests_total{route="unmatched",status="404"} 1`)
	assert.Contains(t, body, `uhailink_http_request_duration_seconds_count{route="/api/me/profile"} 2`)
}

func TestServer_RegistererExposesDomainCollectors(t *testing.T) {
	server := startServer(t, nil)

	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "uhailink_test_events_total", Help: "test"})
	server.Registerer().MustRegister(c)
	c.Add(3)

	_, body := get(t, server, "/metrics")
	assert.Contains(t, body, "uhailink_test_events_total 3")
}

func TestServer_Probes(t *testing.T) {
	tests := []struct {
		name       string
		ready      ReadinessChecker
		path       string
		wantStatus int
		wantBody   string
	}{
		{"liveness", func() bool { return false }, "/healthz/liveness", http.StatusOK, "ok\n"},
		{"ready", func() bool { return true }, "/healthz/readiness", http.StatusOK, "ok\n"},
		{"not ready", func() bool { return false }, "/healthz/readiness", http.StatusServiceUnavailable, "not ready\n"},
		{"nil checker", nil, "/healthz/readiness", http.StatusOK, "ok\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startServer(t, tt.ready)
			status, body := get(t, server, tt.path)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestServer_DoubleStartFails(t *testing.T) {
	server := startServer(t, nil)
	_, err := server.Start()
	assert.Error(t, err)
}

func TestServer_StopWithoutStart(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	assert.NoError(t, server.Stop(context.Background()))
	assert.Empty(t, server.Addr())
}

func TestServer_ErrorChannelReportsServeErrors(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	errCh, err := server.Start()
	require.NoError(t, err)
	defer func() { _ = server.Stop(context.Background()) }()

	require.NoError(t, server.listener.Close())

	select {
	case serveErr := <-errCh:
		assert.Error(t, serveErr)
	case <-time.After(2 * time.Second):
		t.Fatal("serve error was not reported")
	}
}

func TestServer_ErrorChannelClosesOnShutdown(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	errCh, err := server.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))

	select {
	case err, ok := <-errCh:
		if ok {
			assert.NoError(t, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error channel not closed")
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveRequest("/", http.StatusOK, time.Millisecond) })
}
