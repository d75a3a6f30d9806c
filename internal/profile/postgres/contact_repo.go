// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package postgres

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/profile"
)

// ContactRepository implements profile.ContactRepository.
type ContactRepository struct {
	pool poolIface
}

// NewContactRepository creates a ContactRepository.
func NewContactRepository(pool poolIface) *ContactRepository {
	return &ContactRepository{pool: pool}
}

var _ profile.ContactRepository = (*ContactRepository)(nil)

// ListByUser returns the user's contacts, primary first, then oldest first.
func (r *ContactRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]profile.Contact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, relationship, phone, is_primary, created_at
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY is_primary DESC, created_at ASC
	`, userID.String())
	if err != nil {
		return nil, oops.Code("CONTACT_LIST_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	defer rows.Close()

	contacts := make([]profile.Contact, 0)
	for rows.Next() {
		var (
			c     profile.Contact
			idStr string
		)
		if err := rows.Scan(&idStr, &c.Name, &c.Relationship, &c.Phone, &c.IsPrimary, &c.CreatedAt); err != nil {
			return nil, oops.Code("CONTACT_SCAN_FAILED").Wrap(err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("CONTACT_CORRUPT_ID").With("id", idStr).Wrap(err)
		}
		c.ID = id
		c.UserID = userID
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CONTACT_LIST_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return contacts, nil
}

// Create stores a new contact.
func (r *ContactRepository) Create(ctx context.Context, c *profile.Contact) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO emergency_contacts (id, user_id, name, relationship, phone, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID.String(), c.UserID.String(), c.Name, c.Relationship, c.Phone, c.IsPrimary, c.CreatedAt)
	if err != nil {
		return oops.Code("CONTACT_CREATE_FAILED").With("user_id", c.UserID.String()).Wrap(err)
	}
	return nil
}

// Delete removes contact id if userID owns it.
func (r *ContactRepository) Delete(ctx context.Context, userID, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2`,
		id.String(), userID.String())
	if err != nil {
		return oops.Code("CONTACT_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("CONTACT_NOT_FOUND").With("id", id.String()).Wrap(profile.ErrNotFound)
	}
	return nil
}
