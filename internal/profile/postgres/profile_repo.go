// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/profile"
)

// ProfileRepository implements profile.Repository.
type ProfileRepository struct {
	pool poolIface
}

// NewProfileRepository creates a ProfileRepository.
func NewProfileRepository(pool poolIface) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Compile-time interface check.
var _ profile.Repository = (*ProfileRepository)(nil)

const profileColumns = `user_id, full_name, phone, email, role, blood_type,
	allergies, medications, chronic_conditions,
	emergency_contact_name, emergency_contact_phone, emergency_contact_relationship,
	updated_at`

// Create inserts p unless a profile already exists for the user.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO NOTHING
	`, p.UserID.String(), p.FullName, p.Phone, p.Email, string(p.Role), p.BloodType,
		p.Allergies, p.Medications, p.ChronicConditions,
		p.EmergencyContactName, p.EmergencyContactPhone, p.EmergencyContactRelationship,
		p.UpdatedAt)
	if err != nil {
		return oops.Code("PROFILE_CREATE_FAILED").With("user_id", p.UserID.String()).Wrap(err)
	}
	return nil
}

// Get retrieves a profile by user ID.
func (r *ProfileRepository) Get(ctx context.Context, userID ulid.ULID) (*profile.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID.String())
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PROFILE_NOT_FOUND").With("user_id", userID.String()).Wrap(profile.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROFILE_GET_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return p, nil
}

// SaveMedical upserts the editable fields. On insert the role column takes
// its default; on update it is left as is.
func (r *ProfileRepository) SaveMedical(ctx context.Context, p *profile.Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, full_name, phone, email, blood_type,
			allergies, medications, chronic_conditions,
			emergency_contact_name, emergency_contact_phone, emergency_contact_relationship,
			updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			blood_type = EXCLUDED.blood_type,
			allergies = EXCLUDED.allergies,
			medications = EXCLUDED.medications,
			chronic_conditions = EXCLUDED.chronic_conditions,
			emergency_contact_name = EXCLUDED.emergency_contact_name,
			emergency_contact_phone = EXCLUDED.emergency_contact_phone,
			emergency_contact_relationship = EXCLUDED.emergency_contact_relationship,
			updated_at = EXCLUDED.updated_at
	`, p.UserID.String(), p.FullName, p.Phone, p.Email, p.BloodType,
		p.Allergies, p.Medications, p.ChronicConditions,
		p.EmergencyContactName, p.EmergencyContactPhone, p.EmergencyContactRelationship,
		p.UpdatedAt)
	if err != nil {
		return oops.Code("PROFILE_SAVE_FAILED").With("user_id", p.UserID.String()).Wrap(err)
	}
	return nil
}

// GetRole returns the role stored for userID.
func (r *ProfileRepository) GetRole(ctx context.Context, userID ulid.ULID) (access.Role, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM profiles WHERE user_id = $1`, userID.String()).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return access.RoleNone, oops.Code("PROFILE_NOT_FOUND").With("user_id", userID.String()).Wrap(profile.ErrNotFound)
	}
	if err != nil {
		return access.RoleNone, oops.Code("ROLE_GET_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return access.Role(role), nil
}

// UpsertRole sets the role, creating a bare profile when none exists.
func (r *ProfileRepository) UpsertRole(ctx context.Context, userID ulid.ULID, role access.Role) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()
	`, userID.String(), string(role))
	if err != nil {
		return oops.Code("ROLE_SET_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return nil
}

// Count returns the number of profiles.
func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, oops.Code("PROFILE_COUNT_FAILED").Wrap(err)
	}
	return n, nil
}

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	var (
		p     profile.Profile
		idStr string
		role  string
	)
	if err := row.Scan(&idStr, &p.FullName, &p.Phone, &p.Email, &role, &p.BloodType,
		&p.Allergies, &p.Medications, &p.ChronicConditions,
		&p.EmergencyContactName, &p.EmergencyContactPhone, &p.EmergencyContactRelationship,
		&p.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PROFILE_CORRUPT_ID").With("user_id", idStr).Wrap(err)
	}
	p.UserID = id
	p.Role = access.Role(role)
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
	if p.Medications == nil {
		p.Medications = []string{}
	}
	if p.ChronicConditions == nil {
		p.ChronicConditions = []string{}
	}
	return &p, nil
}
