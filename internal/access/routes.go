// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package access

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Rule attaches an access requirement to a path pattern. Patterns use glob
// syntax with '/' as separator, so "*" matches one segment and "**" any
// number of segments.
type Rule struct {
	Pattern string
	// Public rules need no session.
	Public bool
	// Role is required for non-public rules. RoleNone admits any signed-in
	// caller.
	Role Role
	// Alias, when set, names the path this one redirects to. Alias rules
	// are public; the target carries its own rule.
	Alias string
}

type compiledRule struct {
	Rule
	glob glob.Glob
}

// RouteTable maps request paths to the first matching rule.
type RouteTable struct {
	rules []compiledRule
}

// NewRouteTable compiles rules in order. Earlier rules take precedence.
func NewRouteTable(rules []Rule) (*RouteTable, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Alias != "" {
			if !strings.HasPrefix(r.Alias, "/") {
				return nil, oops.Code("ROUTE_INVALID_ALIAS").With("pattern", r.Pattern).
					Errorf("alias target %q is not an absolute path", r.Alias)
			}
			r.Public = true
		}
		if !r.Public && r.Role != RoleNone && !r.Role.Valid() {
			return nil, oops.Code("ROUTE_INVALID_ROLE").With("pattern", r.Pattern).
				Errorf("rule requires unknown role %q", r.Role)
		}
		g, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, oops.Code("ROUTE_INVALID_PATTERN").With("pattern", r.Pattern).Wrap(err)
		}
		compiled = append(compiled, compiledRule{Rule: r, glob: g})
	}
	return &RouteTable{rules: compiled}, nil
}

// DefaultRules is the UhaiLink route surface.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/", Public: true},
		{Pattern: "/about", Public: true},
		{Pattern: "/contact", Public: true},
		{Pattern: LoginPath, Public: true},
		{Pattern: "/assistant", Public: true},
		{Pattern: "/profile/*", Public: true},
		{Pattern: "/404", Public: true},
		{Pattern: "/dashboard", Alias: UserAreaPath},
		{Pattern: "/admin", Alias: AdminAreaPath},

		{Pattern: UserAreaPath, Role: RoleUser},
		{Pattern: UserAreaPath + "/**", Role: RoleUser},
		{Pattern: AdminAreaPath, Role: RoleAdmin},
		{Pattern: AdminAreaPath + "/**", Role: RoleAdmin},

		{Pattern: "/api/admin/**", Role: RoleAdmin},
		{Pattern: "/api/me/**", Role: RoleNone},
	}
}

// MustDefaultRoutes compiles DefaultRules and panics on error.
func MustDefaultRoutes() *RouteTable {
	t, err := NewRouteTable(DefaultRules())
	if err != nil {
		panic(err)
	}
	return t
}

// Match returns the first rule matching path.
func (t *RouteTable) Match(path string) (Rule, bool) {
	for _, r := range t.rules {
		if r.glob.Match(path) {
			return r.Rule, true
		}
	}
	return Rule{}, false
}

// Aliases returns the alias rules keyed by pattern.
func (t *RouteTable) Aliases() map[string]string {
	out := make(map[string]string)
	for _, r := range t.rules {
		if r.Alias != "" {
			out[r.Pattern] = r.Alias
		}
	}
	return out
}
