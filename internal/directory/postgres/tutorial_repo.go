// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package postgres

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/directory"
)

// TutorialRepository implements directory.TutorialRepository.
type TutorialRepository struct {
	pool poolIface
}

// NewTutorialRepository creates a TutorialRepository.
func NewTutorialRepository(pool poolIface) *TutorialRepository {
	return &TutorialRepository{pool: pool}
}

var _ directory.TutorialRepository = (*TutorialRepository)(nil)

// List returns tutorials newest first.
func (r *TutorialRepository) List(ctx context.Context, limit int) ([]directory.Tutorial, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, video_url, category, thumbnail, created_at
		FROM tutorials
		ORDER BY created_at DESC
		LIMIT $1
	`, limitArg(limit))
	if err != nil {
		return nil, oops.Code("TUTORIAL_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	tuts := make([]directory.Tutorial, 0)
	for rows.Next() {
		var (
			t     directory.Tutorial
			idStr string
		)
		if err := rows.Scan(&idStr, &t.Title, &t.Description, &t.VideoURL, &t.Category, &t.Thumbnail, &t.CreatedAt); err != nil {
			return nil, oops.Code("TUTORIAL_SCAN_FAILED").Wrap(err)
		}
		if t.ID, err = ulid.Parse(idStr); err != nil {
			return nil, oops.Code("TUTORIAL_CORRUPT_ID").With("id", idStr).Wrap(err)
		}
		tuts = append(tuts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TUTORIAL_LIST_FAILED").Wrap(err)
	}
	return tuts, nil
}

// Create stores a new tutorial.
func (r *TutorialRepository) Create(ctx context.Context, t *directory.Tutorial) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tutorials (id, title, description, video_url, category, thumbnail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID.String(), t.Title, t.Description, t.VideoURL, t.Category, t.Thumbnail, t.CreatedAt)
	if err != nil {
		return oops.Code("TUTORIAL_CREATE_FAILED").With("title", t.Title).Wrap(err)
	}
	return nil
}

// Update replaces a tutorial's fields and fills t.CreatedAt from the
// stored row.
func (r *TutorialRepository) Update(ctx context.Context, t *directory.Tutorial) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE tutorials
		SET title = $2, description = $3, video_url = $4, category = $5, thumbnail = $6
		WHERE id = $1
		RETURNING created_at
	`, t.ID.String(), t.Title, t.Description, t.VideoURL, t.Category, t.Thumbnail).Scan(&t.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return oops.Code("TUTORIAL_NOT_FOUND").With("id", t.ID.String()).Wrap(directory.ErrNotFound)
		}
		return oops.Code("TUTORIAL_UPDATE_FAILED").With("id", t.ID.String()).Wrap(err)
	}
	return nil
}

// Delete removes a tutorial.
func (r *TutorialRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tutorials WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("TUTORIAL_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("TUTORIAL_NOT_FOUND").With("id", id.String()).Wrap(directory.ErrNotFound)
	}
	return nil
}
