// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/chat"
	"github.com/uhailink/uhailink/internal/directory"
	"github.com/uhailink/uhailink/internal/profile"
	"github.com/uhailink/uhailink/internal/qr"
)

const notFoundPath = "/404"

// Page is the model rendered for a public page.
type Page struct {
	Path  string `json:"path"`
	Name  string `json:"page"`
	Title string `json:"title"`
}

var publicPages = []Page{
	{Path: "/", Name: "home", Title: "UhaiLink"},
	{Path: "/about", Name: "about", Title: "About UhaiLink"},
	{Path: "/contact", Name: "contact", Title: "Contact"},
	{Path: access.LoginPath, Name: "auth", Title: "Sign in"},
	{Path: "/assistant", Name: "assistant", Title: chat.DefaultTitle},
	{Path: notFoundPath, Name: "not_found", Title: "Page not found"},
}

type assistantPage struct {
	Page
	QuickPrompts []chat.QuickPrompt `json:"quick_prompts"`
}

func (s *Server) publicPage(p Page) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		switch p.Path {
		case notFoundPath:
			writeJSON(w, http.StatusNotFound, p)
		case "/assistant":
			writeJSON(w, http.StatusOK, assistantPage{Page: p, QuickPrompts: chat.QuickPrompts})
		default:
			writeJSON(w, http.StatusOK, p)
		}
	}
}

type userDashboard struct {
	Profile       *profile.Profile         `json:"profile"`
	Contacts      []profile.Contact        `json:"contacts"`
	Organizations []directory.Organization `json:"organizations"`
	Tutorials     []directory.Tutorial     `json:"tutorials"`
}

// loadProfile returns nil without error when the caller has no profile.
func (s *Server) loadProfile(r *http.Request, userID ulid.ULID) (*profile.Profile, error) {
	p, err := s.deps.Profiles.GetProfile(r.Context(), userID)
	if errors.Is(err, profile.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *Server) userDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	p, err := s.loadProfile(r, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	contacts, err := s.deps.Profiles.ListContacts(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	orgs, err := s.deps.Directory.Organizations(ctx, directory.DashboardOrganizations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tutorials, err := s.deps.Directory.Tutorials(ctx, directory.DashboardTutorials)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userDashboard{
		Profile:       p,
		Contacts:      contacts,
		Organizations: orgs,
		Tutorials:     tutorials,
	})
}

type profilePage struct {
	Profile    *profile.Profile `json:"profile"`
	BloodTypes []string         `json:"blood_types"`
}

func (s *Server) profilePage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	p, err := s.loadProfile(r, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profilePage{Profile: p, BloodTypes: profile.BloodTypes})
}

type qrPage struct {
	Token    string `json:"token"`
	URL      string `json:"url"`
	Image    string `json:"image"`
	Filename string `json:"filename"`
}

func (s *Server) qrPageFor(r *http.Request, userID ulid.ULID) (*qrPage, error) {
	token, err := s.deps.Profiles.EnsureToken(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	url, err := qr.PayloadURL(s.opts.Origin, token.Token)
	if err != nil {
		return nil, err
	}
	return &qrPage{
		Token:    token.Token,
		URL:      url,
		Image:    access.UserAreaPath + "/qr.png",
		Filename: qr.Filename(token.Token),
	}, nil
}

func (s *Server) qrPage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	page, err := s.qrPageFor(r, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// qrImage renders the caller's QR code as PNG. ?size= picks the edge length
// in pixels and ?download=1 serves it as an attachment.
func (s *Server) qrImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	size := qr.DefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 2048 {
			badRequest(w, "size must be between 64 and 2048")
			return
		}
		size = n
	}

	page, err := s.qrPageFor(r, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	img, err := qr.Encode(page.URL, size)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("ETag", img.ETag)
	h.Set("Cache-Control", "private, no-cache")
	if r.Header.Get("If-None-Match") == img.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Type", "image/png")
	h.Set("Content-Length", strconv.Itoa(len(img.PNG)))
	if r.URL.Query().Get("download") == "1" {
		h.Set("Content-Disposition", `attachment; filename="`+page.Filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.PNG) //nolint:errcheck // client may disconnect
}

type adminDashboard struct {
	Users         int                      `json:"users"`
	Organizations []directory.Organization `json:"organizations"`
	Tutorials     []directory.Tutorial     `json:"tutorials"`
}

func (s *Server) adminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := s.deps.Profiles.CountUsers(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	orgs, err := s.deps.Directory.Organizations(ctx, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tutorials, err := s.deps.Directory.Tutorials(ctx, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminDashboard{Users: users, Organizations: orgs, Tutorials: tutorials})
}

// emergencyProfile is the public responder view reached by scanning a QR
// code. The token is the only credential.
func (s *Server) emergencyProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Profiles.EmergencyView(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeJSON(w, http.StatusNotFound, errorBody{Error: profile.InvalidTokenMessage, Code: "QR_TOKEN_INVALID"})
			return
		}
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, view)
}
