// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package web

import (
	"net/http"
	"time"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/auth"
)

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	UserID        string      `json:"user_id,omitempty"`
	Role          access.Role `json:"role,omitempty"`
	Token         string      `json:"token,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
	// Redirect is the landing area for the caller's role after sign-in.
	Redirect string `json:"redirect,omitempty"`
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := s.deps.Auth.SignUp(r.Context(), auth.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"user_id": account.ID.String(),
		"email":   account.Email,
	})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, token, err := s.deps.Auth.SignIn(r.Context(), req.Email, req.Password, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	userID := session.AccountID.String()
	role := s.roleOf(r, userID)
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		UserID:        userID,
		Role:          role,
		Token:         token,
		ExpiresAt:     &session.ExpiresAt,
		Redirect:      access.DefaultArea(role),
	})
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	if token == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	// An already ended session still signs out cleanly.
	if err := s.deps.Auth.SignOut(r.Context(), token); err != nil {
		if status := statusFor(err); status != http.StatusUnauthorized && status != http.StatusNotFound {
			writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// currentSession reports who the caller is. It never fails: an unknown or
// expired token reads as signed out.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) {
	res := s.resolve(r, access.RoleNone)
	if res.State != access.StateAuthorized {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	role := s.roleOf(r, res.UserID)
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		UserID:        res.UserID,
		Role:          role,
		Redirect:      access.DefaultArea(role),
	})
}

// roleOf returns the effective role of userID with the same fallbacks the
// resolver applies.
func (s *Server) roleOf(r *http.Request, userID string) access.Role {
	res := access.ResolveAccess(r.Context(), &access.Session{UserID: userID}, access.RoleAdmin,
		s.deps.Profiles, s.deps.Resolver.Timeout())
	if res.Role.Valid() {
		return res.Role
	}
	return access.DefaultRole
}
