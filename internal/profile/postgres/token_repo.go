// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/profile"
)

// TokenRepository implements profile.TokenRepository.
type TokenRepository struct {
	pool poolIface
}

// NewTokenRepository creates a TokenRepository.
func NewTokenRepository(pool poolIface) *TokenRepository {
	return &TokenRepository{pool: pool}
}

var _ profile.TokenRepository = (*TokenRepository)(nil)

// GetByUser returns the user's token.
func (r *TokenRepository) GetByUser(ctx context.Context, userID ulid.ULID) (*profile.QRToken, error) {
	t := profile.QRToken{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT token, is_active, updated_at FROM qr_access_tokens WHERE user_id = $1
	`, userID.String()).Scan(&t.Token, &t.Active, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("QR_TOKEN_NOT_FOUND").With("user_id", userID.String()).Wrap(profile.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("QR_TOKEN_GET_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return &t, nil
}

// GetActive returns the active token with the given value.
func (r *TokenRepository) GetActive(ctx context.Context, token string) (*profile.QRToken, error) {
	var (
		t     = profile.QRToken{Token: token}
		idStr string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, is_active, updated_at FROM qr_access_tokens
		WHERE token = $1 AND is_active
	`, token).Scan(&idStr, &t.Active, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("QR_TOKEN_NOT_FOUND").Wrap(profile.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("QR_TOKEN_GET_FAILED").With("operation", "get active token").Wrap(err)
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("QR_TOKEN_CORRUPT_ID").With("user_id", idStr).Wrap(err)
	}
	t.UserID = id
	return &t, nil
}

// Create stores the user's first token.
func (r *TokenRepository) Create(ctx context.Context, t *profile.QRToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO qr_access_tokens (user_id, token, is_active, updated_at)
		VALUES ($1, $2, $3, $4)
	`, t.UserID.String(), t.Token, t.Active, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("QR_TOKEN_DUPLICATE").With("user_id", t.UserID.String()).Wrap(profile.ErrDuplicate)
		}
		return oops.Code("QR_TOKEN_CREATE_FAILED").With("user_id", t.UserID.String()).Wrap(err)
	}
	return nil
}

// Rotate replaces the user's token and marks it active.
func (r *TokenRepository) Rotate(ctx context.Context, userID ulid.ULID, token string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE qr_access_tokens SET token = $2, is_active = TRUE, updated_at = $3
		WHERE user_id = $1
	`, userID.String(), token, at)
	if err != nil {
		return oops.Code("QR_TOKEN_ROTATE_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("QR_TOKEN_NOT_FOUND").With("user_id", userID.String()).Wrap(profile.ErrNotFound)
	}
	return nil
}
