// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/access"
)

// InvalidTokenMessage is the message shown for an unknown or revoked QR token.
const InvalidTokenMessage = "Invalid or expired QR code"

// Publisher receives role change notifications.
type Publisher interface {
	Publish(ev access.ChangeEvent)
}

// EmergencyView is the read-only data shown when a QR code is scanned.
type EmergencyView struct {
	Profile  *Profile  `json:"profile"`
	Contacts []Contact `json:"contacts"`
}

// Service manages profiles, contacts, and QR tokens.
type Service struct {
	profiles  Repository
	contacts  ContactRepository
	tokens    TokenRepository
	publisher Publisher
	newToken  func() string
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher notifies p whenever a role changes.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithTokenGenerator replaces the QR token generator.
func WithTokenGenerator(gen func() string) Option {
	return func(s *Service) { s.newToken = gen }
}

// NewService creates a Service.
func NewService(profiles Repository, contacts ContactRepository, tokens TokenRepository, opts ...Option) *Service {
	s := &Service{
		profiles: profiles,
		contacts: contacts,
		tokens:   tokens,
		newToken: uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProfile creates the initial profile for a new account with the
// default role.
func (s *Service) CreateProfile(ctx context.Context, userID ulid.ULID, fullName, phone, email string) error {
	p := &Profile{
		UserID:            userID,
		FullName:          strings.TrimSpace(fullName),
		Phone:             strings.TrimSpace(phone),
		Email:             email,
		Role:              access.DefaultRole,
		Allergies:         []string{},
		Medications:       []string{},
		ChronicConditions: []string{},
		UpdatedAt:         s.now(),
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return oops.Code("PROFILE_CREATE_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return nil
}

// GetProfile returns the caller's profile.
func (s *Service) GetProfile(ctx context.Context, userID ulid.ULID) (*Profile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, oops.Code("PROFILE_GET_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return p, nil
}

// CountUsers returns the number of profiles.
func (s *Service) CountUsers(ctx context.Context) (int, error) {
	n, err := s.profiles.Count(ctx)
	if err != nil {
		return 0, oops.Code("PROFILE_COUNT_FAILED").Wrap(err)
	}
	return n, nil
}

// SaveProfile validates and stores the editable medical fields.
func (s *Service) SaveProfile(ctx context.Context, userID ulid.ULID, update MedicalUpdate) (*Profile, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, oops.Code("PROFILE_SAVE_FAILED").With("operation", "load profile").Wrap(err)
		}
		p = &Profile{UserID: userID, Role: access.DefaultRole}
	}
	update.apply(p)
	p.UpdatedAt = s.now()
	if err := s.profiles.SaveMedical(ctx, p); err != nil {
		return nil, oops.Code("PROFILE_SAVE_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return p, nil
}

// SetRole assigns role to userID and notifies subscribers.
func (s *Service) SetRole(ctx context.Context, userID ulid.ULID, role access.Role) error {
	if role == access.RoleNone || !role.Valid() {
		return oops.Code("ROLE_INVALID").With("role", string(role)).Errorf("invalid role %q", role)
	}
	if err := s.profiles.UpsertRole(ctx, userID, role); err != nil {
		return oops.Code("ROLE_SET_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	slog.InfoContext(ctx, "role changed", "user_id", userID.String(), "role", string(role))
	if s.publisher != nil {
		s.publisher.Publish(access.ChangeEvent{Kind: access.ChangeRoleChanged, UserID: userID.String()})
	}
	return nil
}

// FetchRole implements access.RoleFetcher. A user without a profile
// reports access.ErrNoRole.
func (s *Service) FetchRole(ctx context.Context, userID string) (access.Role, error) {
	id, err := ulid.Parse(userID)
	if err != nil {
		return access.RoleNone, access.ErrNoRole
	}
	role, err := s.profiles.GetRole(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return access.RoleNone, access.ErrNoRole
	}
	if err != nil {
		return access.RoleNone, oops.Code("ROLE_FETCH_FAILED").With("user_id", userID).Wrap(err)
	}
	return role, nil
}

// AddContact adds an emergency contact for userID.
func (s *Service) AddContact(ctx context.Context, userID ulid.ULID, in ContactInput) (*Contact, error) {
	c, err := NewContact(userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, oops.Code("CONTACT_CREATE_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return c, nil
}

// ListContacts returns the caller's contacts, primary first.
func (s *Service) ListContacts(ctx context.Context, userID ulid.ULID) ([]Contact, error) {
	contacts, err := s.contacts.ListByUser(ctx, userID)
	if err != nil {
		return nil, oops.Code("CONTACT_LIST_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return contacts, nil
}

// RemoveContact deletes one of the caller's contacts.
func (s *Service) RemoveContact(ctx context.Context, userID, contactID ulid.ULID) error {
	if err := s.contacts.Delete(ctx, userID, contactID); err != nil {
		return oops.Code("CONTACT_DELETE_FAILED").With("contact_id", contactID.String()).Wrap(err)
	}
	return nil
}

// EnsureToken returns the caller's QR token, creating one on first use.
func (s *Service) EnsureToken(ctx context.Context, userID ulid.ULID) (*QRToken, error) {
	t, err := s.tokens.GetByUser(ctx, userID)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("QR_TOKEN_FAILED").With("operation", "get token").Wrap(err)
	}

	t = &QRToken{UserID: userID, Token: s.newToken(), Active: true, UpdatedAt: s.now()}
	if err := s.tokens.Create(ctx, t); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost a race with a concurrent request; use the winner's token.
			existing, getErr := s.tokens.GetByUser(ctx, userID)
			if getErr != nil {
				return nil, oops.Code("QR_TOKEN_FAILED").With("operation", "reload token").Wrap(getErr)
			}
			return existing, nil
		}
		return nil, oops.Code("QR_TOKEN_FAILED").With("operation", "create token").Wrap(err)
	}
	return t, nil
}

// RegenerateToken replaces the caller's QR token. Any printed code carrying
// the old token stops working.
func (s *Service) RegenerateToken(ctx context.Context, userID ulid.ULID) (*QRToken, error) {
	if _, err := s.EnsureToken(ctx, userID); err != nil {
		return nil, err
	}
	t := &QRToken{UserID: userID, Token: s.newToken(), Active: true, UpdatedAt: s.now()}
	if err := s.tokens.Rotate(ctx, userID, t.Token, t.UpdatedAt); err != nil {
		return nil, oops.Code("QR_TOKEN_FAILED").With("operation", "rotate token").Wrap(err)
	}
	slog.InfoContext(ctx, "qr token regenerated", "user_id", userID.String())
	return t, nil
}

// EmergencyView resolves a scanned token to its owner's profile and
// contacts. Unknown and inactive tokens are indistinguishable.
func (s *Service) EmergencyView(ctx context.Context, token string) (*EmergencyView, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, oops.Code("QR_TOKEN_INVALID").Errorf(InvalidTokenMessage)
	}
	t, err := s.tokens.GetActive(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("QR_TOKEN_INVALID").Errorf(InvalidTokenMessage)
		}
		return nil, oops.Code("EMERGENCY_VIEW_FAILED").With("operation", "get token").Wrap(err)
	}
	p, err := s.profiles.Get(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("QR_TOKEN_INVALID").Errorf(InvalidTokenMessage)
		}
		return nil, oops.Code("EMERGENCY_VIEW_FAILED").With("operation", "get profile").Wrap(err)
	}
	contacts, err := s.contacts.ListByUser(ctx, t.UserID)
	if err != nil {
		return nil, oops.Code("EMERGENCY_VIEW_FAILED").With("operation", "list contacts").Wrap(err)
	}
	return &EmergencyView{Profile: p, Contacts: contacts}, nil
}

// PatientContext returns the patient context appended to the assistant's
// system prompt, or "" when userID has no profile.
func (s *Service) PatientContext(ctx context.Context, userID ulid.ULID) (string, error) {
	p, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", oops.Code("PATIENT_CONTEXT_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return FormatPatientContext(p), nil
}

// FormatPatientContext renders p as the assistant's patient context block.
func FormatPatientContext(p *Profile) string {
	orDefault := func(s, def string) string {
		if s == "" {
			return def
		}
		return s
	}
	return fmt.Sprintf("\n\nPATIENT CONTEXT: Blood Type: %s, Allergies: %s, Conditions: %s",
		orDefault(p.BloodType, "Unknown"),
		orDefault(strings.Join(p.Allergies, ", "), "None"),
		orDefault(strings.Join(p.ChronicConditions, ", "), "None"),
	)
}
