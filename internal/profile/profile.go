// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package profile owns emergency medical profiles, the role attached to each
// profile, emergency contacts, and the QR bearer tokens that expose a
// read-only view of a profile to first responders.
package profile

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/access"
)

// ErrNotFound is returned when a profile, contact, or token does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique record already exists.
var ErrDuplicate = errors.New("duplicate")

// BloodTypes lists the accepted blood type values.
var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// Profile is a user's emergency medical record.
type Profile struct {
	UserID            ulid.ULID   `json:"user_id"`
	FullName          string      `json:"full_name"`
	Phone             string      `json:"phone"`
	Email             string      `json:"email"`
	Role              access.Role `json:"role"`
	BloodType         string      `json:"blood_type,omitempty"`
	Allergies         []string    `json:"allergies"`
	Medications       []string    `json:"medications"`
	ChronicConditions []string    `json:"chronic_conditions"`

	EmergencyContactName         string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone        string `json:"emergency_contact_phone,omitempty"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// MedicalUpdate carries the user-editable fields of a profile. Role is not
// editable here.
type MedicalUpdate struct {
	FullName          string   `json:"full_name"`
	Phone             string   `json:"phone"`
	BloodType         string   `json:"blood_type"`
	Allergies         []string `json:"allergies"`
	Medications       []string `json:"medications"`
	ChronicConditions []string `json:"chronic_conditions"`

	EmergencyContactName         string `json:"emergency_contact_name"`
	EmergencyContactPhone        string `json:"emergency_contact_phone"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship"`
}

// Validate checks required fields and the blood type.
func (u *MedicalUpdate) Validate() error {
	if strings.TrimSpace(u.FullName) == "" {
		return oops.Code("PROFILE_INVALID").With("field", "full_name").Errorf("full name is required")
	}
	if strings.TrimSpace(u.Phone) == "" {
		return oops.Code("PROFILE_INVALID").With("field", "phone").Errorf("phone number is required")
	}
	if u.BloodType != "" && !slices.Contains(BloodTypes, u.BloodType) {
		return oops.Code("PROFILE_INVALID").With("field", "blood_type").
			Errorf("unknown blood type %q", u.BloodType)
	}
	return nil
}

// apply copies the update onto p with list fields cleaned.
func (u *MedicalUpdate) apply(p *Profile) {
	p.FullName = strings.TrimSpace(u.FullName)
	p.Phone = strings.TrimSpace(u.Phone)
	p.BloodType = u.BloodType
	p.Allergies = CleanList(u.Allergies)
	p.Medications = CleanList(u.Medications)
	p.ChronicConditions = CleanList(u.ChronicConditions)
	p.EmergencyContactName = strings.TrimSpace(u.EmergencyContactName)
	p.EmergencyContactPhone = strings.TrimSpace(u.EmergencyContactPhone)
	p.EmergencyContactRelationship = strings.TrimSpace(u.EmergencyContactRelationship)
}

// CleanList trims items and drops empty ones. It never returns nil.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// SplitList parses a comma-separated form value.
func SplitList(s string) []string {
	return CleanList(strings.Split(s, ","))
}

// Repository persists profiles and their roles.
type Repository interface {
	// Create inserts a profile; an existing profile is left untouched.
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, userID ulid.ULID) (*Profile, error)
	// SaveMedical upserts the editable fields without touching role.
	SaveMedical(ctx context.Context, p *Profile) error
	// GetRole returns ErrNotFound when the user has no profile.
	GetRole(ctx context.Context, userID ulid.ULID) (access.Role, error)
	UpsertRole(ctx context.Context, userID ulid.ULID, role access.Role) error
	Count(ctx context.Context) (int, error)
}
