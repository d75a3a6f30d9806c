// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package web

import (
	"net/http"

	"github.com/uhailink/uhailink/internal/profile"
)

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	p, err := s.deps.Profiles.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var update profile.MedicalUpdate
	if !decodeJSON(w, r, &update) {
		return
	}
	p, err := s.deps.Profiles.SaveProfile(r.Context(), userID, update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	contacts, err := s.deps.Profiles.ListContacts(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) addContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var in profile.ContactInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := s.deps.Profiles.AddContact(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) removeContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	contactID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Profiles.RemoveContact(r.Context(), userID, contactID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// regenerateQR replaces the caller's QR token. Printed codes carrying the
// old token stop working immediately.
func (s *Server) regenerateQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if _, err := s.deps.Profiles.RegenerateToken(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.qrPageFor(r, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
