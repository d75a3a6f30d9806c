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

	"github.com/uhailink/uhailink/internal/auth"
)

// SessionRepository implements auth.SessionRepository.
type SessionRepository struct {
	pool poolIface
}

// NewSessionRepository creates a SessionRepository.
func NewSessionRepository(pool poolIface) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, s *auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, account_id, token_hash, user_agent, ip_address, expires_at, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID.String(), s.AccountID.String(), s.TokenHash, s.UserAgent, s.IPAddress, s.ExpiresAt, s.CreatedAt, s.LastSeenAt)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("account_id", s.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_id, token_hash, user_agent, ip_address, expires_at, created_at, last_seen_at
		FROM sessions
		WHERE token_hash = $1
	`, tokenHash)

	var (
		s                 auth.Session
		idStr, accountStr string
	)
	err := row.Scan(&idStr, &accountStr, &s.TokenHash, &s.UserAgent, &s.IPAddress, &s.ExpiresAt, &s.CreatedAt, &s.LastSeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").Wrap(err)
	}

	if s.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("SESSION_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	if s.AccountID, err = ulid.Parse(accountStr); err != nil {
		return nil, oops.Code("SESSION_CORRUPT_ID").With("account_id", accountStr).Wrap(err)
	}
	return &s, nil
}

// UpdateLastSeen sets last_seen_at.
func (r *SessionRepository) UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sessions SET last_seen_at = $2 WHERE id = $1`, id.String(), lastSeen)
	if err != nil {
		return oops.Code("SESSION_UPDATE_LAST_SEEN_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry.
func (r *SessionRepository) DeleteExpired(ctx context.Context) ([]ulid.ULID, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM sessions WHERE expires_at < NOW() RETURNING account_id`)
	if err != nil {
		return nil, oops.Code("SESSION_DELETE_EXPIRED_FAILED").Wrap(err)
	}
	defer rows.Close()

	var accounts []ulid.ULID
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, oops.Code("SESSION_SCAN_FAILED").Wrap(err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("SESSION_CORRUPT_ID").With("account_id", idStr).Wrap(err)
		}
		accounts = append(accounts, id)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("SESSION_ROWS_ERROR").Wrap(err)
	}
	return accounts, nil
}
