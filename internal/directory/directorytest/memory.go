// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package directorytest provides in-memory directory repositories.
package directorytest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/uhailink/uhailink/internal/directory"
)

// Organizations is an in-memory directory.OrganizationRepository with a
// unique name constraint.
type Organizations struct {
	mu   sync.Mutex
	rows []directory.Organization
}

func (r *Organizations) List(_ context.Context, limit int) ([]directory.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.rows)
	slices.SortFunc(out, func(a, b directory.Organization) int { return strings.Compare(a.Name, b.Name) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []directory.Organization{}
	}
	return out, nil
}

func (r *Organizations) Create(_ context.Context, o *directory.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Name == o.Name {
			return directory.ErrDuplicate
		}
	}
	r.rows = append(r.rows, *o)
	return nil
}

func (r *Organizations) Update(_ context.Context, o *directory.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == o.ID {
			r.rows[i] = *o
			return nil
		}
	}
	return directory.ErrNotFound
}

func (r *Organizations) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = slices.Delete(r.rows, i, i+1)
			return nil
		}
	}
	return directory.ErrNotFound
}

// Tutorials is an in-memory directory.TutorialRepository.
type Tutorials struct {
	mu   sync.Mutex
	rows []directory.Tutorial
}

func (r *Tutorials) List(_ context.Context, limit int) ([]directory.Tutorial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.rows)
	slices.SortStableFunc(out, func(a, b directory.Tutorial) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []directory.Tutorial{}
	}
	return out, nil
}

func (r *Tutorials) Create(_ context.Context, t *directory.Tutorial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *t)
	return nil
}

func (r *Tutorials) Update(_ context.Context, t *directory.Tutorial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == t.ID {
			t.CreatedAt = r.rows[i].CreatedAt
			r.rows[i] = *t
			return nil
		}
	}
	return directory.ErrNotFound
}

func (r *Tutorials) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = slices.Delete(r.rows, i, i+1)
			return nil
		}
	}
	return directory.ErrNotFound
}
