// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package directory holds the emergency organization listing and the
// first-aid tutorial catalogue that admins curate.
package directory

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrNotFound is returned when an organization or tutorial does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an organization with the same name exists.
var ErrDuplicate = errors.New("duplicate")

// Listing sizes shown on the user dashboard.
const (
	DashboardOrganizations = 6
	DashboardTutorials     = 3
)

// Organization is an emergency service a user can call.
type Organization struct {
	ID       ulid.ULID `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Phone    string    `json:"phone"`
	Location string    `json:"location"`
	Website  *string   `json:"website"`
}

// Tutorial is a first-aid video.
type Tutorial struct {
	ID          ulid.ULID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"video_url"`
	Category    string    `json:"category"`
	Thumbnail   *string   `json:"thumbnail"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrganizationInput is the admin form for an organization.
type OrganizationInput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website"`
}

// TutorialInput is the admin form for a tutorial.
type TutorialInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
	Category    string `json:"category"`
	Thumbnail   string `json:"thumbnail"`
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func validURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return oops.Code("DIRECTORY_INVALID").With("field", field).Errorf("%s must be an http(s) URL", field)
	}
	return nil
}

// Build validates in and returns the organization it describes. Website
// is optional.
func (in OrganizationInput) Build(id ulid.ULID) (*Organization, error) {
	o := &Organization{
		ID:       id,
		Name:     strings.TrimSpace(in.Name),
		Type:     strings.TrimSpace(in.Type),
		Phone:    strings.TrimSpace(in.Phone),
		Location: strings.TrimSpace(in.Location),
		Website:  optional(in.Website),
	}
	for field, v := range map[string]string{"name": o.Name, "type": o.Type, "phone": o.Phone, "location": o.Location} {
		if v == "" {
			return nil, oops.Code("DIRECTORY_INVALID").With("field", field).Errorf("%s is required", field)
		}
	}
	if o.Website != nil {
		if err := validURL("website", *o.Website); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Build validates in and returns the tutorial it describes. Thumbnail is
// optional.
func (in TutorialInput) Build(id ulid.ULID, createdAt time.Time) (*Tutorial, error) {
	t := &Tutorial{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		VideoURL:    strings.TrimSpace(in.VideoURL),
		Category:    strings.TrimSpace(in.Category),
		Thumbnail:   optional(in.Thumbnail),
		CreatedAt:   createdAt,
	}
	for field, v := range map[string]string{"title": t.Title, "description": t.Description, "video_url": t.VideoURL, "category": t.Category} {
		if v == "" {
			return nil, oops.Code("DIRECTORY_INVALID").With("field", field).Errorf("%s is required", field)
		}
	}
	if err := validURL("video_url", t.VideoURL); err != nil {
		return nil, err
	}
	if t.Thumbnail != nil {
		if err := validURL("thumbnail", *t.Thumbnail); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// OrganizationRepository persists organizations.
type OrganizationRepository interface {
	// List returns organizations ordered by name; limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Organization, error)
	Create(ctx context.Context, o *Organization) error
	Update(ctx context.Context, o *Organization) error
	Delete(ctx context.Context, id ulid.ULID) error
}

// TutorialRepository persists tutorials.
type TutorialRepository interface {
	// List returns tutorials newest first; limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Tutorial, error)
	Create(ctx context.Context, t *Tutorial) error
	Update(ctx context.Context, t *Tutorial) error
	Delete(ctx context.Context, id ulid.ULID) error
}
