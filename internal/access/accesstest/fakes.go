// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package accesstest provides fakes for access resolution tests.
package accesstest

import (
	"context"
	"sync"
	"time"

	"github.com/uhailink/uhailink/internal/access"
)

// StaticSessions always returns the same session and error.
type StaticSessions struct {
	Session *access.Session
	Err     error
}

// CurrentSession returns s.Session, s.Err.
func (s StaticSessions) CurrentSession(context.Context) (*access.Session, error) {
	return s.Session, s.Err
}

// SignedIn returns a session source for userID.
func SignedIn(userID string) StaticSessions {
	return StaticSessions{Session: &access.Session{ID: "sess-" + userID, UserID: userID}}
}

// MapRoles serves roles from a map. Missing users yield access.ErrNoRole.
type MapRoles struct {
	mu    sync.Mutex
	Roles map[string]access.Role
	Calls int
}

// FetchRole looks up userID.
func (m *MapRoles) FetchRole(_ context.Context, userID string) (access.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	role, ok := m.Roles[userID]
	if !ok {
		return access.RoleNone, access.ErrNoRole
	}
	return role, nil
}

// Set changes the role for userID.
func (m *MapRoles) Set(userID string, role access.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Roles == nil {
		m.Roles = make(map[string]access.Role)
	}
	m.Roles[userID] = role
}

// SlowRoles blocks until its delay passes or ctx ends.
type SlowRoles struct {
	Delay time.Duration
	Role  access.Role
}

// FetchRole waits for Delay, honouring ctx.
func (s SlowRoles) FetchRole(ctx context.Context, _ string) (access.Role, error) {
	select {
	case <-time.After(s.Delay):
		return s.Role, nil
	case <-ctx.Done():
		return access.RoleNone, ctx.Err()
	}
}

// Notifier is an in-memory access.Notifier.
type Notifier struct {
	mu   sync.Mutex
	subs map[chan access.ChangeEvent]struct{}
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan access.ChangeEvent]struct{})}
}

// Subscribe registers a subscriber.
func (n *Notifier) Subscribe() (<-chan access.ChangeEvent, func()) {
	ch := make(chan access.ChangeEvent, 8)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, ch)
			n.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber.
func (n *Notifier) Publish(ev access.ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		ch <- ev
	}
}

// Subscribers returns the number of live subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
