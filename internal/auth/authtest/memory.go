// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package authtest provides in-memory account and session repositories.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/uhailink/uhailink/internal/auth"
)

// FastHasher is an argon2id hasher with minimal cost for tests.
var FastHasher = auth.NewArgon2idHasherWithParams(auth.Argon2Params{
	Memory:  1024,
	Time:    1,
	Threads: 1,
	SaltLen: 16,
	KeyLen:  32,
})

// Accounts is an in-memory auth.AccountRepository. The zero value is ready
// to use.
type Accounts struct {
	mu   sync.Mutex
	byID map[ulid.ULID]auth.Account
}

// Create implements auth.AccountRepository.
func (r *Accounts) Create(_ context.Context, a *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byID == nil {
		r.byID = map[ulid.ULID]auth.Account{}
	}
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return auth.ErrDuplicate
		}
	}
	r.byID[a.ID] = *a
	return nil
}

// GetByID implements auth.AccountRepository.
func (r *Accounts) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &a, nil
}

// GetByEmail implements auth.AccountRepository.
func (r *Accounts) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, auth.ErrNotFound
}

// Update implements auth.AccountRepository.
func (r *Accounts) Update(_ context.Context, a *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID]; !ok {
		return auth.ErrNotFound
	}
	r.byID[a.ID] = *a
	return nil
}

// Sessions is an in-memory auth.SessionRepository. The zero value is ready
// to use.
type Sessions struct {
	mu   sync.Mutex
	byID map[ulid.ULID]auth.Session
	// Now replaces time.Now for expiry checks in DeleteExpired.
	Now func() time.Time
}

// Create implements auth.SessionRepository.
func (r *Sessions) Create(_ context.Context, s *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byID == nil {
		r.byID = map[ulid.ULID]auth.Session{}
	}
	r.byID[s.ID] = *s
	return nil
}

// GetByTokenHash implements auth.SessionRepository.
func (r *Sessions) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.TokenHash == tokenHash {
			return &s, nil
		}
	}
	return nil, auth.ErrNotFound
}

// UpdateLastSeen implements auth.SessionRepository.
func (r *Sessions) UpdateLastSeen(_ context.Context, id ulid.ULID, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	s.LastSeenAt = lastSeen
	r.byID[id] = s
	return nil
}

// Delete implements auth.SessionRepository.
func (r *Sessions) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return auth.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// DeleteExpired implements auth.SessionRepository.
func (r *Sessions) DeleteExpired(_ context.Context) ([]ulid.ULID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	var accounts []ulid.ULID
	for id, s := range r.byID {
		if s.IsExpiredAt(now) {
			accounts = append(accounts, s.AccountID)
			delete(r.byID, id)
		}
	}
	return accounts, nil
}

// Len returns the number of stored sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
