// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package profile

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// QRToken is the opaque bearer credential behind a profile QR code. Anyone
// holding an active token can read the owner's emergency view.
type QRToken struct {
	UserID    ulid.ULID `json:"-"`
	Token     string    `json:"token"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenRepository persists QR tokens, one per user.
type TokenRepository interface {
	GetByUser(ctx context.Context, userID ulid.ULID) (*QRToken, error)
	// GetActive finds an active token by value.
	GetActive(ctx context.Context, token string) (*QRToken, error)
	// Create returns ErrDuplicate when the user already has a token.
	Create(ctx context.Context, t *QRToken) error
	// Rotate replaces the user's token value and reactivates it.
	Rotate(ctx context.Context, userID ulid.ULID, token string, at time.Time) error
}
