// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package profiletest provides in-memory profile repositories for tests.
package profiletest

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/profile"
)

// Store implements profile.Repository, profile.ContactRepository, and
// profile.TokenRepository in memory. Err, when set, is returned from every
// call.
type Store struct {
	mu       sync.Mutex
	profiles map[ulid.ULID]profile.Profile
	contacts map[ulid.ULID]profile.Contact
	tokens   map[ulid.ULID]profile.QRToken

	Err error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		profiles: make(map[ulid.ULID]profile.Profile),
		contacts: make(map[ulid.ULID]profile.Contact),
		tokens:   make(map[ulid.ULID]profile.QRToken),
	}
}

// Profiles returns s as a profile.Repository.
func (s *Store) Profiles() profile.Repository { return (*profileRepo)(s) }

// Contacts returns s as a profile.ContactRepository.
func (s *Store) Contacts() profile.ContactRepository { return (*contactRepo)(s) }

// Tokens returns s as a profile.TokenRepository.
func (s *Store) Tokens() profile.TokenRepository { return (*tokenRepo)(s) }

type (
	profileRepo Store
	contactRepo Store
	tokenRepo   Store
)

func (r *profileRepo) Create(_ context.Context, p *profile.Profile) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.profiles[p.UserID]; !ok {
		s.profiles[p.UserID] = *p
	}
	return nil
}

func (r *profileRepo) Get(_ context.Context, userID ulid.ULID) (*profile.Profile, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return &p, nil
}

func (r *profileRepo) SaveMedical(_ context.Context, p *profile.Profile) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	saved := *p
	if existing, ok := s.profiles[p.UserID]; ok {
		saved.Role = existing.Role
	} else {
		saved.Role = access.DefaultRole
	}
	s.profiles[p.UserID] = saved
	return nil
}

func (r *profileRepo) GetRole(_ context.Context, userID ulid.ULID) (access.Role, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return access.RoleNone, s.Err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return access.RoleNone, profile.ErrNotFound
	}
	return p.Role, nil
}

func (r *profileRepo) UpsertRole(_ context.Context, userID ulid.ULID, role access.Role) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	p, ok := s.profiles[userID]
	if !ok {
		p = profile.Profile{UserID: userID}
	}
	p.Role = role
	p.UpdatedAt = time.Now()
	s.profiles[userID] = p
	return nil
}

func (r *profileRepo) Count(_ context.Context) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles), s.Err
}

func (r *contactRepo) ListByUser(_ context.Context, userID ulid.ULID) ([]profile.Contact, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]profile.Contact, 0)
	for _, c := range s.contacts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b profile.Contact) int {
		if a.IsPrimary != b.IsPrimary {
			if a.IsPrimary {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (r *contactRepo) Create(_ context.Context, c *profile.Contact) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.contacts[c.ID] = *c
	return nil
}

func (r *contactRepo) Delete(_ context.Context, userID, id ulid.ULID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c, ok := s.contacts[id]
	if !ok || c.UserID != userID {
		return profile.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

func (r *tokenRepo) GetByUser(_ context.Context, userID ulid.ULID) (*profile.QRToken, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.tokens[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return &t, nil
}

func (r *tokenRepo) GetActive(_ context.Context, token string) (*profile.QRToken, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, t := range s.tokens {
		if t.Token == token && t.Active {
			return &t, nil
		}
	}
	return nil, profile.ErrNotFound
}

func (r *tokenRepo) Create(_ context.Context, t *profile.QRToken) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.tokens[t.UserID]; ok {
		return profile.ErrDuplicate
	}
	s.tokens[t.UserID] = *t
	return nil
}

func (r *tokenRepo) Rotate(_ context.Context, userID ulid.ULID, token string, at time.Time) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	t, ok := s.tokens[userID]
	if !ok {
		return profile.ErrNotFound
	}
	t.Token, t.Active, t.UpdatedAt = token, true, at
	s.tokens[userID] = t
	return nil
}

// Deactivate marks the user's token inactive.
func (s *Store) Deactivate(userID ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[userID]; ok {
		t.Active = false
		s.tokens[userID] = t
	}
}
