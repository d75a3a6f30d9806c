// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package profile

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Contact is someone to call in an emergency.
type Contact struct {
	ID           ulid.ULID `json:"id"`
	UserID       ulid.ULID `json:"-"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship"`
	Phone        string    `json:"phone"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}

// ContactInput is the form for adding a contact.
type ContactInput struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	IsPrimary    bool   `json:"is_primary"`
}

// NewContact validates in and creates a Contact owned by userID. Name,
// relationship, and phone are all required.
func NewContact(userID ulid.ULID, in ContactInput) (*Contact, error) {
	c := &Contact{
		ID:           ulid.Make(),
		UserID:       userID,
		Name:         strings.TrimSpace(in.Name),
		Relationship: strings.TrimSpace(in.Relationship),
		Phone:        strings.TrimSpace(in.Phone),
		IsPrimary:    in.IsPrimary,
		CreatedAt:    time.Now(),
	}
	if c.Name == "" || c.Relationship == "" || c.Phone == "" {
		return nil, oops.Code("CONTACT_INVALID").Errorf("name, relationship and phone are required")
	}
	return c, nil
}

// ContactRepository persists emergency contacts.
type ContactRepository interface {
	// ListByUser returns contacts with primary contacts first.
	ListByUser(ctx context.Context, userID ulid.ULID) ([]Contact, error)
	Create(ctx context.Context, c *Contact) error
	// Delete removes a contact owned by userID.
	Delete(ctx context.Context, userID, id ulid.ULID) error
}
