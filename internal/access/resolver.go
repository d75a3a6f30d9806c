// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package access

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds each fetch performed during resolution.
const DefaultTimeout = 5 * time.Second

var tracer = otel.Tracer("github.com/uhailink/uhailink/internal/access")

// ErrNoRole is returned by a RoleFetcher when the user has no role record.
var ErrNoRole = errors.New("no role record")

// Session is the part of an authenticated session the resolver needs.
type Session struct {
	ID     string
	UserID string
}

// SessionSource returns the caller's current session, or nil when signed out.
type SessionSource interface {
	CurrentSession(ctx context.Context) (*Session, error)
}

// SessionSourceFunc adapts a function to SessionSource.
type SessionSourceFunc func(ctx context.Context) (*Session, error)

// CurrentSession calls f.
func (f SessionSourceFunc) CurrentSession(ctx context.Context) (*Session, error) {
	return f(ctx)
}

// RoleFetcher looks up the role attached to a user's profile.
type RoleFetcher interface {
	FetchRole(ctx context.Context, userID string) (Role, error)
}

// RoleFetcherFunc adapts a function to RoleFetcher.
type RoleFetcherFunc func(ctx context.Context, userID string) (Role, error)

// FetchRole calls f.
func (f RoleFetcherFunc) FetchRole(ctx context.Context, userID string) (Role, error) {
	return f(ctx, userID)
}

// ResolveAccess decides access for an already-fetched session. A nil session
// is Unauthenticated. With required set to RoleNone any session is
// Authorized; otherwise the caller's role is fetched within timeout and must
// equal required.
func ResolveAccess(ctx context.Context, session *Session, required Role, roles RoleFetcher, timeout time.Duration) (res Resolution) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "access resolution panicked", "panic", r)
			res = unauthenticated()
		}
	}()
	return resolveSession(ctx, session, required, roles, timeout, nil)
}

func resolveSession(ctx context.Context, session *Session, required Role, roles RoleFetcher, timeout time.Duration, m *Metrics) Resolution {
	if session == nil || session.UserID == "" {
		return unauthenticated()
	}
	if required == RoleNone {
		return Resolution{State: StateAuthorized, UserID: session.UserID}
	}

	role := fetchRole(ctx, session.UserID, roles, timeout, m)
	res := Resolution{UserID: session.UserID, Role: role, State: StateForbidden}
	if role == required {
		res.State = StateAuthorized
	}
	return res
}

// fetchRole never fails: every error path yields DefaultRole.
func fetchRole(ctx context.Context, userID string, roles RoleFetcher, timeout time.Duration, m *Metrics) Role {
	if roles == nil {
		return DefaultRole
	}

	role, err := bounded(ctx, timeout, func(ctx context.Context) (Role, error) {
		return roles.FetchRole(ctx, userID)
	})
	switch {
	case err == nil && role.Valid():
		return role
	case err == nil:
		slog.WarnContext(ctx, "unknown role on profile, assuming default",
			"user_id", userID, "role", string(role), "default", string(DefaultRole))
	case errors.Is(err, ErrNoRole):
		slog.DebugContext(ctx, "no role record, assuming default", "user_id", userID)
	case errors.Is(err, context.DeadlineExceeded):
		m.fetchTimedOut("role")
		slog.WarnContext(ctx, "role fetch timed out, assuming default", "user_id", userID, "timeout", timeout)
	default:
		slog.WarnContext(ctx, "role fetch failed, assuming default", "user_id", userID, "error", err)
	}
	return DefaultRole
}

// bounded runs fn with a deadline and returns when either fn finishes or the
// deadline passes, whichever is first. A panic inside fn becomes an error.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: oops.Code("ACCESS_FETCH_PANIC").Errorf("fetch panicked: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, oops.Code("ACCESS_FETCH_TIMEOUT").With("timeout", timeout.String()).Wrap(ctx.Err())
	}
}

// Resolver runs the full resolution: session lookup followed by the role
// check. It holds no per-caller state and is safe for concurrent use.
type Resolver struct {
	sessions SessionSource
	roles    RoleFetcher
	timeout  time.Duration
	metrics  *Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTimeout overrides DefaultTimeout for each fetch.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMetrics records resolution outcomes on m.
func WithMetrics(m *Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a Resolver reading sessions from sessions and roles
// from roles.
func NewResolver(sessions SessionSource, roles RoleFetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{sessions: sessions, roles: roles, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithSessions returns a copy of r that reads sessions from src.
func (r *Resolver) WithSessions(src SessionSource) *Resolver {
	cp := *r
	cp.sessions = src
	return &cp
}

// Timeout returns the per-fetch bound.
func (r *Resolver) Timeout() time.Duration {
	return r.timeout
}

// Resolve returns the terminal access state for the current caller against
// required. It never returns StateLoading and never panics.
func (r *Resolver) Resolve(ctx context.Context, required Role) (res Resolution) {
	ctx, span := tracer.Start(ctx, "access.Resolve",
		trace.WithAttributes(attribute.String("access.required_role", string(required))))
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "access resolution panicked", "panic", rec)
			res = unauthenticated()
		}
		r.metrics.resolved(res.State)
		span.SetAttributes(attribute.String("access.state", res.State.String()))
		span.End()
	}()

	if r.sessions == nil {
		return unauthenticated()
	}

	session, err := bounded(ctx, r.timeout, r.sessions.CurrentSession)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			r.metrics.fetchTimedOut("session")
		}
		slog.DebugContext(ctx, "session lookup failed, treating as signed out", "error", err)
		return unauthenticated()
	}

	return resolveSession(ctx, session, required, r.roles, r.timeout, r.metrics)
}
