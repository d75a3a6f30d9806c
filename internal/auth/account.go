// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Account is a sign-in identity. Its ID doubles as the profile's user ID.
type Account struct {
	ID             ulid.ULID
	Email          string
	PasswordHash   string
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount validates email and wraps an already-computed password hash.
func NewAccount(email, passwordHash string) (*Account, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Email:        normalized,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsLocked reports whether sign-in is temporarily blocked.
func (a *Account) IsLocked() bool {
	return IsLockedOut(a.LockedUntil)
}

// RecordFailure counts a failed sign-in and locks the account at the threshold.
func (a *Account) RecordFailure() {
	a.FailedAttempts++
	a.LockedUntil = ComputeLockoutTime(a.FailedAttempts)
	a.UpdatedAt = time.Now()
}

// RecordSuccess clears the failure counter and any lockout.
func (a *Account) RecordSuccess() {
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = time.Now()
}

// NormalizeEmail trims and lowercases an address after checking its syntax.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", oops.Code("AUTH_INVALID_EMAIL").With("email", email).Errorf("invalid email address")
	}
	return email, nil
}

// ValidatePassword enforces the minimum length.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return oops.Code("AUTH_WEAK_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by normalized email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Update stores the failure counter, lockout, and password hash.
	Update(ctx context.Context, account *Account) error
}
