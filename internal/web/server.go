// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package web is the UhaiLink HTTP surface: the JSON API, the guarded page
// routes, and the server-sent event streams for access watching and the
// first-aid assistant.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/auth"
	"github.com/uhailink/uhailink/internal/chat"
	"github.com/uhailink/uhailink/internal/directory"
	"github.com/uhailink/uhailink/internal/observability"
	"github.com/uhailink/uhailink/internal/profile"
)

// DefaultShutdownTimeout bounds graceful shutdown when Options leaves it unset.
const DefaultShutdownTimeout = 10 * time.Second

// Deps are the services behind the HTTP surface. Metrics and Routes are
// optional.
type Deps struct {
	Auth      *auth.Service
	Notifier  access.Notifier
	Resolver  *access.Resolver
	Profiles  *profile.Service
	Directory *directory.Service
	Assistant *chat.Assistant
	Metrics   *observability.Metrics
	Routes    *access.RouteTable
}

// Options configure the listener and browser-facing behaviour.
type Options struct {
	Addr string
	// Origin is the public base URL encoded into QR codes.
	Origin          string
	CORSOrigins     []string
	SecureCookies   bool
	ShutdownTimeout time.Duration
}

// Server serves the UhaiLink HTTP surface.
type Server struct {
	deps    Deps
	opts    Options
	routes  *access.RouteTable
	handler http.Handler
}

// New validates deps and builds the router.
func New(deps Deps, opts Options) (*Server, error) {
	missing := func(name string) error {
		return oops.Code("WEB_SERVER_INVALID").With("dependency", name).Errorf("%s is required", name)
	}
	switch {
	case deps.Auth == nil:
		return nil, missing("auth service")
	case deps.Resolver == nil:
		return nil, missing("access resolver")
	case deps.Profiles == nil:
		return nil, missing("profile service")
	case deps.Directory == nil:
		return nil, missing("directory service")
	case deps.Assistant == nil:
		return nil, missing("assistant")
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{deps: deps, opts: opts, routes: deps.Routes}
	if s.routes == nil {
		s.routes = access.MustDefaultRoutes()
	}
	s.handler = s.router()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", offlineHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(s.guard)

	for _, page := range publicPages {
		r.Get(page.Path, s.publicPage(page))
	}
	for from, to := range s.routes.Aliases() {
		r.Get(from, replaceRedirect(to))
	}

	r.Get(access.UserAreaPath, s.userDashboard)
	r.Get(access.UserAreaPath+"/profile", s.profilePage)
	r.Get(access.UserAreaPath+"/qr", s.qrPage)
	r.Get(access.UserAreaPath+"/qr.png", s.qrImage)
	r.Get(access.AdminAreaPath, s.adminDashboard)
	r.Get("/profile/{token}", s.emergencyProfile)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.signUp)
			r.Post("/signin", s.signIn)
			r.Post("/signout", s.signOut)
			r.Get("/session", s.currentSession)
		})
		r.Route("/access", func(r chi.Router) {
			r.Get("/check", s.accessCheck)
			r.Get("/watch", s.accessWatch)
		})
		r.Route("/me", func(r chi.Router) {
			r.Get("/profile", s.getProfile)
			r.Put("/profile", s.saveProfile)
			r.Get("/contacts", s.listContacts)
			r.Post("/contacts", s.addContact)
			r.Delete("/contacts/{id}", s.removeContact)
			r.Post("/qr/regenerate", s.regenerateQR)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Post("/organizations", s.createOrganization)
			r.Put("/organizations/{id}", s.updateOrganization)
			r.Delete("/organizations/{id}", s.deleteOrganization)
			r.Post("/tutorials", s.createTutorial)
			r.Put("/tutorials/{id}", s.updateTutorial)
			r.Delete("/tutorials/{id}", s.deleteTutorial)
			r.Put("/roles/{userID}", s.setRole)
		})
		r.Get("/directory/organizations", s.listOrganizations)
		r.Get("/directory/tutorials", s.listTutorials)
		r.Post("/assistant/chat", s.assistantChat)
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Code: "ROUTE_NOT_FOUND"})
		})
	})

	r.NotFound(replaceRedirect(notFoundPath))
	return r
}

// Run serves on Options.Addr until ctx ends, then shuts down gracefully.
// Open event streams are ended when shutdown begins.
func (s *Server) Run(ctx context.Context) error {
	streamCtx, endStreams := context.WithCancel(context.WithoutCancel(ctx))
	defer endStreams()

	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return streamCtx },
	}
	srv.RegisterOnShutdown(endStreams)

	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", s.opts.Addr).Wrap(err)
	}
	slog.InfoContext(ctx, "http server listening", "addr", listener.Addr().String(), "origin", s.opts.Origin)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.Code("HTTP_SERVE_FAILED").With("addr", s.opts.Addr).Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	slog.InfoContext(ctx, "http server stopped")
	return nil
}
