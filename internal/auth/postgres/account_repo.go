// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/auth"
)

// AccountRepository implements auth.AccountRepository.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates an AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, email, password_hash, failed_attempts, locked_until, created_at, updated_at`

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, a *auth.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID.String(), a.Email, a.PasswordHash, a.FailedAttempts, a.LockedUntil, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_DUPLICATE").With("email", a.Email).Wrap(auth.ErrDuplicate)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "insert account").Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return a, nil
}

// GetByEmail retrieves an account by normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("operation", "get account by email").Wrap(err)
	}
	return a, nil
}

// Update stores mutable account fields.
func (r *AccountRepository) Update(ctx context.Context, a *auth.Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET password_hash = $2, failed_attempts = $3, locked_until = $4, updated_at = $5
		WHERE id = $1
	`, a.ID.String(), a.PasswordHash, a.FailedAttempts, a.LockedUntil, a.UpdatedAt)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("id", a.ID.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", a.ID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		a     auth.Account
		idStr string
	)
	if err := row.Scan(&idStr, &a.Email, &a.PasswordHash, &a.FailedAttempts, &a.LockedUntil, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	a.ID = id
	return &a, nil
}
