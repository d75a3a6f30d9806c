// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/pkg/errutil"
)

// watchKeepAlive is how often an idle access watch sends a comment frame.
var watchKeepAlive = 15 * time.Second

// accessReport is one guard verdict for a path.
type accessReport struct {
	Path     string          `json:"path"`
	State    access.State    `json:"state"`
	Role     access.Role     `json:"role,omitempty"`
	Decision access.Decision `json:"decision"`
}

func reportFor(path string, res access.Resolution) accessReport {
	return accessReport{Path: path, State: res.State, Role: res.Role, Decision: access.Decide(res)}
}

// publicReport covers paths that need no resolution. Aliases redirect to
// their target and unlisted paths are sent to the not-found page.
func publicReport(path string, rule access.Rule, listed bool) accessReport {
	report := accessReport{Path: path, State: access.StateAuthorized}
	switch {
	case !listed:
		report.Decision = access.Decision{Action: access.ActionRedirect, Location: notFoundPath, Replace: true}
	case rule.Alias != "":
		report.Decision = access.Decision{Action: access.ActionRedirect, Location: rule.Alias, Replace: true}
	default:
		report.Decision = access.Decision{Action: access.ActionRender}
	}
	return report
}

func queryPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	path := r.URL.Query().Get("path")
	if !strings.HasPrefix(path, "/") {
		badRequest(w, "path must be an absolute path")
		return "", false
	}
	return path, true
}

// accessCheck answers a single guard decision for ?path=.
func (s *Server) accessCheck(w http.ResponseWriter, r *http.Request) {
	path, ok := queryPath(w, r)
	if !ok {
		return
	}
	rule, listed := s.routes.Match(path)
	if !listed || rule.Public {
		writeJSON(w, http.StatusOK, publicReport(path, rule, listed))
		return
	}
	writeJSON(w, http.StatusOK, reportFor(path, s.resolve(r, rule.Role)))
}

// accessWatch streams guard decisions for ?path= as server-sent events. The
// first event reports the loading state; a new event follows every change
// in the committed resolution until the client disconnects.
func (s *Server) accessWatch(w http.ResponseWriter, r *http.Request) {
	path, ok := queryPath(w, r)
	if !ok {
		return
	}
	rule, listed := s.routes.Match(path)
	if !listed || rule.Public {
		stream := startEventStream(w)
		_ = stream.send("decision", publicReport(path, rule, listed)) //nolint:errcheck // client may be gone
		return
	}

	ctx := r.Context()
	tracker := access.NewTracker(s.sessionResolver(r), s.deps.Notifier, rule.Role)
	stream := startEventStream(w)
	if err := stream.send("decision", reportFor(path, tracker.State())); err != nil {
		return
	}
	if err := tracker.Mount(ctx); err != nil {
		errutil.LogErrorContext(ctx, slog.Default(), "access watch mount failed", err)
		return
	}
	defer tracker.Unmount()

	keepAlive := time.NewTicker(watchKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tracker.Changes():
			if err := stream.send("decision", reportFor(path, tracker.State())); err != nil {
				return
			}
		case <-keepAlive.C:
			if err := stream.comment("keep-alive"); err != nil {
				return
			}
		}
	}
}
