// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/directory"
)

// OrganizationRepository implements directory.OrganizationRepository.
type OrganizationRepository struct {
	pool poolIface
}

// NewOrganizationRepository creates an OrganizationRepository.
func NewOrganizationRepository(pool poolIface) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

var _ directory.OrganizationRepository = (*OrganizationRepository)(nil)

// List returns organizations ordered by name.
func (r *OrganizationRepository) List(ctx context.Context, limit int) ([]directory.Organization, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, type, phone, location, website
		FROM emergency_organizations
		ORDER BY name
		LIMIT $1
	`, limitArg(limit))
	if err != nil {
		return nil, oops.Code("ORGANIZATION_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	orgs := make([]directory.Organization, 0)
	for rows.Next() {
		var (
			o     directory.Organization
			idStr string
		)
		if err := rows.Scan(&idStr, &o.Name, &o.Type, &o.Phone, &o.Location, &o.Website); err != nil {
			return nil, oops.Code("ORGANIZATION_SCAN_FAILED").Wrap(err)
		}
		if o.ID, err = ulid.Parse(idStr); err != nil {
			return nil, oops.Code("ORGANIZATION_CORRUPT_ID").With("id", idStr).Wrap(err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ORGANIZATION_LIST_FAILED").Wrap(err)
	}
	return orgs, nil
}

// Create stores a new organization.
func (r *OrganizationRepository) Create(ctx context.Context, o *directory.Organization) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO emergency_organizations (id, name, type, phone, location, website)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID.String(), o.Name, o.Type, o.Phone, o.Location, o.Website)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ORGANIZATION_DUPLICATE").With("name", o.Name).Wrap(directory.ErrDuplicate)
		}
		return oops.Code("ORGANIZATION_CREATE_FAILED").With("name", o.Name).Wrap(err)
	}
	return nil
}

// Update replaces an organization's fields.
func (r *OrganizationRepository) Update(ctx context.Context, o *directory.Organization) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE emergency_organizations
		SET name = $2, type = $3, phone = $4, location = $5, website = $6
		WHERE id = $1
	`, o.ID.String(), o.Name, o.Type, o.Phone, o.Location, o.Website)
	if err != nil {
		return oops.Code("ORGANIZATION_UPDATE_FAILED").With("id", o.ID.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ORGANIZATION_NOT_FOUND").With("id", o.ID.String()).Wrap(directory.ErrNotFound)
	}
	return nil
}

// Delete removes an organization.
func (r *OrganizationRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM emergency_organizations WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("ORGANIZATION_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ORGANIZATION_NOT_FOUND").With("id", id.String()).Wrap(directory.ErrNotFound)
	}
	return nil
}
