// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/logging"
)

// SessionCookie carries the session token for browser clients. API clients
// may send it as a bearer token instead.
const SessionCookie = "uhailink_session"

const requestIDHeader = "X-Request-ID"

type ctxKeyResolution struct{}

// requestID propagates X-Request-ID, generating one when absent, and tags
// the request context so log records carry it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// instrument records the status and latency of each request under its chi
// route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			s.deps.Metrics.ObserveRequest(route, status, time.Since(start))
		}()
		next.ServeHTTP(ww, r)
	})
}

// guard enforces the route table. Public and unlisted paths pass through.
// Protected pages redirect with 303 See Other so the guarded URL does not
// stay in the browser history; protected API calls get 401 or 403 with the
// decision in the body.
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, ok := s.routes.Match(r.URL.Path)
		if !ok || rule.Public || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		res := s.resolve(r, rule.Role)
		decision := access.Decide(res)
		if decision.Action == access.ActionRender {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyResolution{}, res)))
			return
		}

		if isAPI(r.URL.Path) {
			status := http.StatusForbidden
			if res.State == access.StateUnauthenticated {
				status = http.StatusUnauthorized
			}
			writeJSON(w, status, accessDenied{
				Error:    http.StatusText(status),
				State:    res.State,
				Decision: decision,
			})
			return
		}
		http.Redirect(w, r, decision.Location, http.StatusSeeOther)
	})
}

type accessDenied struct {
	Error    string          `json:"error"`
	State    access.State    `json:"state"`
	Decision access.Decision `json:"decision"`
}

// resolve runs access resolution for the caller of r.
func (s *Server) resolve(r *http.Request, required access.Role) access.Resolution {
	return s.sessionResolver(r).Resolve(r.Context(), required)
}

func (s *Server) sessionResolver(r *http.Request) *access.Resolver {
	return s.deps.Resolver.WithSessions(s.deps.Auth.SessionSource(sessionToken(r)))
}

// sessionToken reads the session cookie, falling back to a bearer token.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// caller returns the user admitted by guard.
func caller(r *http.Request) (ulid.ULID, bool) {
	res, ok := r.Context().Value(ctxKeyResolution{}).(access.Resolution)
	if !ok || res.UserID == "" {
		return ulid.ULID{}, false
	}
	id, err := ulid.Parse(res.UserID)
	if err != nil {
		return ulid.ULID{}, false
	}
	return id, true
}

// requireCaller writes 401 and reports false when guard admitted nobody.
func requireCaller(w http.ResponseWriter, r *http.Request) (ulid.ULID, bool) {
	id, ok := caller(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "sign in required", Code: "SESSION_INVALID"})
	}
	return id, ok
}

func isAPI(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// replaceRedirect answers with 303 See Other so the browser replaces the
// requested URL instead of adding a history entry.
func replaceRedirect(location string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, location, http.StatusSeeOther)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (ulid.ULID, bool) {
	id, err := ulid.Parse(chi.URLParam(r, param))
	if err != nil {
		badRequest(w, "invalid "+param)
		return ulid.ULID{}, false
	}
	return id, true
}
