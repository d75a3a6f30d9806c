// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/access/accesstest"
)

func TestResolveAccess(t *testing.T) {
	admin := &access.Session{ID: "s1", UserID: "u-admin"}
	user := &access.Session{ID: "s2", UserID: "u-user"}
	orphan := &access.Session{ID: "s3", UserID: "u-orphan"}
	roles := &accesstest.MapRoles{Roles: map[string]access.Role{
		"u-admin": access.RoleAdmin,
		"u-user":  access.RoleUser,
	}}

	tests := []struct {
		name     string
		session  *access.Session
		required access.Role
		want     access.Resolution
	}{
		{"no session", nil, access.RoleAdmin, access.Resolution{State: access.StateUnauthenticated}},
		{"no session and no role required", nil, access.RoleNone, access.Resolution{State: access.StateUnauthenticated}},
		{"session with empty user", &access.Session{ID: "x"}, access.RoleNone, access.Resolution{State: access.StateUnauthenticated}},
		{"any session when no role required", user, access.RoleNone, access.Resolution{State: access.StateAuthorized, UserID: "u-user"}},
		{"matching admin", admin, access.RoleAdmin, access.Resolution{State: access.StateAuthorized, UserID: "u-admin", Role: access.RoleAdmin}},
		{"matching user", user, access.RoleUser, access.Resolution{State: access.StateAuthorized, UserID: "u-user", Role: access.RoleUser}},
		{"user on admin area", user, access.RoleAdmin, access.Resolution{State: access.StateForbidden, UserID: "u-user", Role: access.RoleUser}},
		{"admin on user area", admin, access.RoleUser, access.Resolution{State: access.StateForbidden, UserID: "u-admin", Role: access.RoleAdmin}},
		{"missing record defaults to user", orphan, access.RoleUser, access.Resolution{State: access.StateAuthorized, UserID: "u-orphan", Role: access.RoleUser}},
		{"missing record never grants admin", orphan, access.RoleAdmin, access.Resolution{State: access.StateForbidden, UserID: "u-orphan", Role: access.RoleUser}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := access.ResolveAccess(context.Background(), tt.session, tt.required, roles, time.Second)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAccess_NoRoleFetchWithoutRequirement(t *testing.T) {
	roles := &accesstest.MapRoles{}
	access.ResolveAccess(context.Background(), &access.Session{UserID: "u"}, access.RoleNone, roles, time.Second)
	assert.Zero(t, roles.Calls)
}

func TestResolveAccess_RoleFetchFailuresDefaultToUser(t *testing.T) {
	session := &access.Session{UserID: "u1"}

	fetchers := map[string]access.RoleFetcher{
		"error": access.RoleFetcherFunc(func(context.Context, string) (access.Role, error) {
			return access.RoleNone, errors.New("connection refused")
		}),
		"garbage role": access.RoleFetcherFunc(func(context.Context, string) (access.Role, error) {
			return access.Role("superuser"), nil
		}),
		"panic": access.RoleFetcherFunc(func(context.Context, string) (access.Role, error) {
			panic("boom")
		}),
		"timeout": accesstest.SlowRoles{Delay: time.Second, Role: access.RoleAdmin},
		"nil":     nil,
	}

	for name, fetcher := range fetchers {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			asAdmin := access.ResolveAccess(context.Background(), session, access.RoleAdmin, fetcher, 20*time.Millisecond)
			assert.Equal(t, access.StateForbidden, asAdmin.State)
			assert.Equal(t, access.RoleUser, asAdmin.Role)

			asUser := access.ResolveAccess(context.Background(), session, access.RoleUser, fetcher, 20*time.Millisecond)
			assert.Equal(t, access.StateAuthorized, asUser.State)
			assert.Less(t, time.Since(start), 500*time.Millisecond)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	roles := &accesstest.MapRoles{Roles: map[string]access.Role{"u-admin": access.RoleAdmin}}

	t.Run("session error fails closed", func(t *testing.T) {
		r := access.NewResolver(accesstest.StaticSessions{Err: errors.New("provider down")}, roles)
		assert.Equal(t, access.StateUnauthenticated, r.Resolve(context.Background(), access.RoleNone).State)
	})

	t.Run("signed out", func(t *testing.T) {
		r := access.NewResolver(accesstest.StaticSessions{}, roles)
		assert.Equal(t, access.StateUnauthenticated, r.Resolve(context.Background(), access.RoleUser).State)
	})

	t.Run("nil session source", func(t *testing.T) {
		r := access.NewResolver(nil, roles)
		assert.Equal(t, access.StateUnauthenticated, r.Resolve(context.Background(), access.RoleNone).State)
	})

	t.Run("admin authorized", func(t *testing.T) {
		r := access.NewResolver(accesstest.SignedIn("u-admin"), roles)
		res := r.Resolve(context.Background(), access.RoleAdmin)
		assert.Equal(t, access.StateAuthorized, res.State)
		assert.Equal(t, "u-admin", res.UserID)
	})

	t.Run("panicking session source", func(t *testing.T) {
		src := access.SessionSourceFunc(func(context.Context) (*access.Session, error) { panic("nil map") })
		r := access.NewResolver(src, roles)
		assert.Equal(t, access.StateUnauthenticated, r.Resolve(context.Background(), access.RoleNone).State)
	})

	t.Run("hanging session source times out", func(t *testing.T) {
		src := access.SessionSourceFunc(func(ctx context.Context) (*access.Session, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		r := access.NewResolver(src, roles, access.WithTimeout(20*time.Millisecond))
		start := time.Now()
		assert.Equal(t, access.StateUnauthenticated, r.Resolve(context.Background(), access.RoleNone).State)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("with sessions swaps only the source", func(t *testing.T) {
		base := access.NewResolver(nil, roles, access.WithTimeout(time.Second))
		r := base.WithSessions(accesstest.SignedIn("u-admin"))
		assert.Equal(t, time.Second, r.Timeout())
		assert.Equal(t, access.StateAuthorized, r.Resolve(context.Background(), access.RoleAdmin).State)
		assert.Equal(t, access.StateUnauthenticated, base.Resolve(context.Background(), access.RoleAdmin).State)
	})
}

func TestResolver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := access.NewMetrics(reg)
	roles := &accesstest.MapRoles{Roles: map[string]access.Role{"u1": access.RoleUser}}

	r := access.NewResolver(accesstest.SignedIn("u1"), roles, access.WithMetrics(m))
	r.Resolve(context.Background(), access.RoleUser)
	r.Resolve(context.Background(), access.RoleAdmin)

	slow := access.NewResolver(accesstest.SignedIn("u1"), accesstest.SlowRoles{Delay: time.Second},
		access.WithMetrics(m), access.WithTimeout(10*time.Millisecond))
	slow.Resolve(context.Background(), access.RoleAdmin)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Resolutions.WithLabelValues("authorized")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Resolutions.WithLabelValues("forbidden")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchTimeouts.WithLabelValues("role")), 0)
}

func TestParseRole(t *testing.T) {
	r, err := access.ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, access.RoleAdmin, r)

	_, err = access.ParseRole("root")
	require.Error(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loading", access.StateLoading.String())
	assert.Equal(t, "forbidden", access.StateForbidden.String())
	assert.Equal(t, "unknown", access.State(42).String())
	assert.False(t, access.StateLoading.Terminal())
	assert.True(t, access.StateUnauthenticated.Terminal())
}
