// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/directory"
)

func (s *Server) listOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := s.deps.Directory.Organizations(r.Context(), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

func (s *Server) listTutorials(w http.ResponseWriter, r *http.Request) {
	tutorials, err := s.deps.Directory.Tutorials(r.Context(), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tutorials)
}

func (s *Server) createOrganization(w http.ResponseWriter, r *http.Request) {
	var in directory.OrganizationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	org, err := s.deps.Directory.CreateOrganization(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (s *Server) updateOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in directory.OrganizationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	org, err := s.deps.Directory.UpdateOrganization(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (s *Server) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Directory.DeleteOrganization(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createTutorial(w http.ResponseWriter, r *http.Request) {
	var in directory.TutorialInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := s.deps.Directory.CreateTutorial(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTutorial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in directory.TutorialInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := s.deps.Directory.UpdateTutorial(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTutorial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Directory.DeleteTutorial(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type roleRequest struct {
	Role string `json:"role"`
}

// setRole grants or revokes admin. Open access watches re-evaluate as soon
// as the change is published.
func (s *Server) setRole(w http.ResponseWriter, r *http.Request) {
	userID, err := ulid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		badRequest(w, "invalid userID")
		return
	}
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role, err := access.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Profiles.SetRole(r.Context(), userID, role); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID.String(), "role": role.String()})
}
