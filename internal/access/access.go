// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package access decides whether the current caller may view a protected
// area.
//
// Resolution always ends in a terminal state. Every fetch it performs is
// bounded by a timeout, and any failure falls back to the most restrictive
// outcome: a missing or failed session lookup yields Unauthenticated, and a
// missing or failed role lookup assumes the caller holds the user role.
package access

import (
	"strings"

	"github.com/samber/oops"
)

// Role is the authorization level attached to a profile.
type Role string

// Known roles. RoleNone as a required role means any signed-in caller.
const (
	RoleNone  Role = ""
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// DefaultRole is assumed when no role record exists or the lookup fails.
const DefaultRole = RoleUser

// Valid reports whether r is admin or user.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name, ignoring case and surrounding space.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return RoleNone, oops.Code("ROLE_INVALID").With("role", s).Errorf("unknown role %q", s)
	}
	return r, nil
}

// State is the outcome of access resolution.
type State int

// Access states. Loading is the only non-terminal state.
const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthorized
	StateForbidden
)

var stateNames = [...]string{"loading", "unauthenticated", "authorized", "forbidden"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s is a final decision.
func (s State) Terminal() bool {
	return s != StateLoading
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return oops.Code("STATE_INVALID").With("state", string(text)).Errorf("unknown access state %q", text)
}

// Resolution is the state produced for one caller plus what was learned
// about them along the way.
type Resolution struct {
	State State `json:"state"`
	// UserID is empty unless a session was found.
	UserID string `json:"user_id,omitempty"`
	// Role is the caller's effective role. It is only set when a role was
	// required and therefore looked up.
	Role Role `json:"role,omitempty"`
}

// Loading is the resolution held before the first evaluation completes.
func Loading() Resolution {
	return Resolution{State: StateLoading}
}

func unauthenticated() Resolution {
	return Resolution{State: StateUnauthenticated}
}
