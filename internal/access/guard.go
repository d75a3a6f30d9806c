// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package access

import "github.com/samber/oops"

// Well-known locations used by guard redirects.
const (
	LoginPath     = "/auth"
	AdminAreaPath = "/dashboard/admin"
	UserAreaPath  = "/dashboard/user"
)

// Action is what a guarded view should do for a resolution.
type Action int

// Guard actions.
const (
	ActionWait Action = iota
	ActionRedirect
	ActionRender
)

var actionNames = [...]string{"wait", "redirect", "render"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name.
func (a *Action) UnmarshalText(text []byte) error {
	for i, name := range actionNames {
		if name == string(text) {
			*a = Action(i)
			return nil
		}
	}
	return oops.Code("ACTION_INVALID").With("action", string(text)).Errorf("unknown guard action %q", text)
}

// Decision is the guard's verdict for a protected view.
type Decision struct {
	Action   Action `json:"action"`
	Location string `json:"location,omitempty"`
	// Replace means the navigation must replace the current history entry.
	Replace bool `json:"replace,omitempty"`
}

// DefaultArea returns the landing area for role. Unknown roles land in the
// user area.
func DefaultArea(role Role) string {
	if role == RoleAdmin {
		return AdminAreaPath
	}
	return UserAreaPath
}

// Decide maps a resolution to a guard decision. Unauthenticated callers go
// to the login page; signed-in callers lacking the required role go to the
// area for the role they do hold, never to the login page.
func Decide(res Resolution) Decision {
	switch res.State {
	case StateAuthorized:
		return Decision{Action: ActionRender}
	case StateUnauthenticated:
		return Decision{Action: ActionRedirect, Location: LoginPath, Replace: true}
	case StateForbidden:
		role := res.Role
		if !role.Valid() {
			role = DefaultRole
		}
		return Decision{Action: ActionRedirect, Location: DefaultArea(role), Replace: true}
	default:
		return Decision{Action: ActionWait}
	}
}
