// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/auth"
	"github.com/uhailink/uhailink/internal/auth/authtest"
	"github.com/uhailink/uhailink/internal/chat"
	"github.com/uhailink/uhailink/internal/directory"
	"github.com/uhailink/uhailink/internal/directory/directorytest"
	"github.com/uhailink/uhailink/internal/observability"
	"github.com/uhailink/uhailink/internal/profile"
	"github.com/uhailink/uhailink/internal/profile/profiletest"
)

const testOrigin = "https://uhailink.test"

// scriptedStreamer replays fixed deltas and records what it was sent.
type scriptedStreamer struct {
	mu     sync.Mutex
	deltas []string
	err    error
	calls  [][]chat.Message
}

func (s *scriptedStreamer) Stream(_ context.Context, messages []chat.Message, onDelta func(string)) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, messages)
	deltas, err := s.deltas, s.err
	s.mu.Unlock()

	var reply string
	for _, d := range deltas {
		reply += d
		onDelta(d)
	}
	return reply, err
}

func (s *scriptedStreamer) sent() [][]chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fixture struct {
	server    *Server
	handler   http.Handler
	hub       *auth.Hub
	auth      *auth.Service
	profiles  *profile.Service
	directory *directory.Service
	streamer  *scriptedStreamer
	metrics   *observability.Metrics
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	conn chat.Connectivity
}

func offline() fixtureOption {
	return func(c *fixtureConfig) { c.conn = chat.StaticConnectivity(false) }
}

// dropsAfterFirstCheck reports online once and offline afterwards.
func dropsAfterFirstCheck() fixtureOption {
	return func(c *fixtureConfig) { c.conn = &droppingConnectivity{} }
}

type droppingConnectivity struct {
	checks atomic.Int32
}

func (d *droppingConnectivity) Online(context.Context) bool {
	return d.checks.Add(1) == 1
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := fixtureConfig{conn: chat.StaticConnectivity(true)}
	for _, opt := range opts {
		opt(&cfg)
	}

	hub := auth.NewHub()
	store := profiletest.NewStore()
	profiles := profile.NewService(store.Profiles(), store.Contacts(), store.Tokens(), profile.WithPublisher(hub))
	authSvc, err := auth.NewService(&authtest.Accounts{}, &authtest.Sessions{}, authtest.FastHasher, hub,
		auth.WithProfileCreator(profiles))
	require.NoError(t, err)

	streamer := &scriptedStreamer{deltas: []string{"Apply ", "firm pressure."}}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	f := &fixture{
		hub:       hub,
		auth:      authSvc,
		profiles:  profiles,
		directory: directory.NewService(&directorytest.Organizations{}, &directorytest.Tutorials{}),
		streamer:  streamer,
		metrics:   metrics,
	}
	f.server, err = New(Deps{
		Auth:      authSvc,
		Notifier:  hub,
		Resolver:  access.NewResolver(nil, profiles, access.WithTimeout(time.Second)),
		Profiles:  profiles,
		Directory: f.directory,
		Assistant: chat.NewAssistant(streamer, chat.WithConnectivity(cfg.conn)),
		Metrics:   metrics,
	}, Options{Origin: testOrigin})
	require.NoError(t, err)
	f.handler = f.server.Handler()
	return f
}

// signIn creates an account with role and returns its ID and session token.
func (f *fixture) signIn(t *testing.T, email string, role access.Role) (ulid.ULID, string) {
	t.Helper()
	ctx := context.Background()
	account, err := f.auth.SignUp(ctx, auth.SignUpRequest{
		Email: email, Password: "correct horse", FullName: "Wanjiru Kamau", Phone: "+254700000001",
	})
	require.NoError(t, err)
	if role == access.RoleAdmin {
		require.NoError(t, f.profiles.SetRole(ctx, account.ID, access.RoleAdmin))
	}
	_, token, err := f.auth.SignIn(ctx, email, "correct horse", "test", "127.0.0.1")
	require.NoError(t, err)
	return account.ID, token
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Deps{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth service is required")
}

func TestGuard_PageRedirects(t *testing.T) {
	f := newFixture(t)
	_, userToken := f.signIn(t, "user@uhailink.test", access.RoleUser)
	_, adminToken := f.signIn(t, "admin@uhailink.test", access.RoleAdmin)

	tests := []struct {
		name     string
		path     string
		token    string
		location string
	}{
		{"signed out user area", "/dashboard/user", "", access.LoginPath},
		{"signed out admin area", "/dashboard/admin", "", access.LoginPath},
		{"signed out nested", "/dashboard/user/qr", "", access.LoginPath},
		{"bad token", "/dashboard/user", "not-a-session", access.LoginPath},
		{"user in admin area", "/dashboard/admin", userToken, access.UserAreaPath},
		{"admin in user area", "/dashboard/user", adminToken, access.AdminAreaPath},
		{"dashboard alias", "/dashboard", userToken, access.UserAreaPath},
		{"admin alias", "/admin", "", access.AdminAreaPath},
		{"unknown page", "/no/such/page", "", notFoundPath},
		{"unknown page in user area", "/dashboard/user/nope", userToken, notFoundPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestGuard_RendersAuthorizedPages(t *testing.T) {
	f := newFixture(t)
	_, userToken := f.signIn(t, "user@uhailink.test", access.RoleUser)
	_, adminToken := f.signIn(t, "admin@uhailink.test", access.RoleAdmin)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/dashboard/user", userToken, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/dashboard/user/profile", userToken, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/dashboard/admin", adminToken, nil).Code)
}

func TestGuard_APIStatuses(t *testing.T) {
	f := newFixture(t)
	_, userToken := f.signIn(t, "user@uhailink.test", access.RoleUser)

	rec := f.do(t, http.MethodGet, "/api/me/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	denied := decode[accessDenied](t, rec)
	assert.Equal(t, access.StateUnauthenticated, denied.State)
	assert.Equal(t, access.LoginPath, denied.Decision.Location)

	rec = f.do(t, http.MethodPost, "/api/admin/organizations", userToken, directory.OrganizationInput{Name: "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	denied = decode[accessDenied](t, rec)
	assert.Equal(t, access.UserAreaPath, denied.Decision.Location)
	assert.True(t, denied.Decision.Replace)

	rec = f.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicPages(t *testing.T) {
	f := newFixture(t)
	for _, page := range publicPages {
		rec := f.do(t, http.MethodGet, page.Path, "", nil)
		want := http.StatusOK
		if page.Path == notFoundPath {
			want = http.StatusNotFound
		}
		assert.Equal(t, want, rec.Code, page.Path)
		assert.Equal(t, page.Name, decode[Page](t, rec).Name)
	}

	rec := f.do(t, http.MethodGet, "/assistant", "", nil)
	assert.Len(t, decode[assistantPage](t, rec).QuickPrompts, len(chat.QuickPrompts))
}

func TestRequestID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", "", nil)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
}

func TestInstrument_RecordsRoutePattern(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/profile/"+"00000000-0000-0000-0000-000000000000", "", nil)
	f.do(t, http.MethodGet, "/about", "", nil)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.HTTPRequests.WithLabelValues("/profile/{token}", "404")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.HTTPRequests.WithLabelValues("/about", "200")), 0)
}

func TestCORS(t *testing.T) {
	f := newFixture(t)
	srv, err := New(f.server.deps, Options{Origin: testOrigin, CORSOrigins: []string{"https://app.uhailink.test"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/me/profile", nil)
	req.Header.Set("Origin", "https://app.uhailink.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://app.uhailink.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func errWithCode(code string) error {
	return oops.Code(code).Errorf("failure")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"profile not found", profile.ErrNotFound, http.StatusNotFound},
		{"directory duplicate", directory.ErrDuplicate, http.StatusConflict},
		{"credentials", errWithCode("AUTH_INVALID_CREDENTIALS"), http.StatusUnauthorized},
		{"locked", errWithCode("AUTH_ACCOUNT_LOCKED"), http.StatusLocked},
		{"blocked", errWithCode("CHAT_BLOCKED"), http.StatusUnprocessableEntity},
		{"invalid suffix", errWithCode("CONTACT_INVALID"), http.StatusBadRequest},
		{"not found suffix", errWithCode("TUTORIAL_NOT_FOUND"), http.StatusNotFound},
		{"unknown", errWithCode("PROFILE_SAVE_FAILED"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
