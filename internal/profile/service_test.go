// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package profile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/access/accesstest"
	"github.com/uhailink/uhailink/internal/profile"
	"github.com/uhailink/uhailink/internal/profile/profiletest"
	"github.com/uhailink/uhailink/pkg/errutil"
)

type recordingPublisher struct {
	events []access.ChangeEvent
}

func (p *recordingPublisher) Publish(ev access.ChangeEvent) { p.events = append(p.events, ev) }

func newService(t *testing.T, opts ...profile.Option) (*profile.Service, *profiletest.Store) {
	t.Helper()
	store := profiletest.NewStore()
	return profile.NewService(store.Profiles(), store.Contacts(), store.Tokens(), opts...), store
}

func TestService_CreateProfileDefaultsToUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id := ulid.Make()

	require.NoError(t, svc.CreateProfile(ctx, id, " Amina Otieno ", "0712345678", "amina@example.com"))

	p, err := svc.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Amina Otieno", p.FullName)
	assert.Equal(t, access.RoleUser, p.Role)
	assert.Empty(t, p.Allergies)
	assert.NotNil(t, p.Allergies)
}

func TestService_SaveProfile(t *testing.T) {
	tests := []struct {
		name     string
		update   profile.MedicalUpdate
		wantCode string
	}{
		{
			name: "valid update",
			update: profile.MedicalUpdate{
				FullName:  "Amina Otieno",
				Phone:     "0712345678",
				BloodType: "O+",
				Allergies: []string{" penicillin ", "", "peanuts"},
			},
		},
		{
			name:     "missing name",
			update:   profile.MedicalUpdate{Phone: "0712345678"},
			wantCode: "PROFILE_INVALID",
		},
		{
			name:     "unknown blood type",
			update:   profile.MedicalUpdate{FullName: "Amina", Phone: "0712", BloodType: "C+"},
			wantCode: "PROFILE_INVALID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			id := ulid.Make()

			p, err := svc.SaveProfile(context.Background(), id, tt.update)
			if tt.wantCode != "" {
				errutil.AssertErrorCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"penicillin", "peanuts"}, p.Allergies)
			assert.Equal(t, "O+", p.BloodType)
		})
	}
}

func TestService_SaveProfileKeepsRole(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id := ulid.Make()

	require.NoError(t, svc.SetRole(ctx, id, access.RoleAdmin))
	_, err := svc.SaveProfile(ctx, id, profile.MedicalUpdate{FullName: "Wanjiru", Phone: "0700"})
	require.NoError(t, err)

	role, err := svc.FetchRole(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, access.RoleAdmin, role)
}

func TestService_SetRole(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(t, profile.WithPublisher(pub))
	id := ulid.Make()

	require.NoError(t, svc.SetRole(context.Background(), id, access.RoleAdmin))
	require.Len(t, pub.events, 1)
	assert.Equal(t, access.ChangeRoleChanged, pub.events[0].Kind)
	assert.Equal(t, id.String(), pub.events[0].UserID)

	errutil.AssertErrorCode(t, svc.SetRole(context.Background(), id, access.Role("root")), "ROLE_INVALID")
	errutil.AssertErrorCode(t, svc.SetRole(context.Background(), id, access.RoleNone), "ROLE_INVALID")
	assert.Len(t, pub.events, 1)
}

func TestService_FetchRole(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	t.Run("no profile", func(t *testing.T) {
		_, err := svc.FetchRole(ctx, ulid.Make().String())
		assert.ErrorIs(t, err, access.ErrNoRole)
	})

	t.Run("malformed user id", func(t *testing.T) {
		_, err := svc.FetchRole(ctx, "not-a-ulid")
		assert.ErrorIs(t, err, access.ErrNoRole)
	})

	t.Run("storage failure", func(t *testing.T) {
		store.Err = errors.New("connection reset")
		defer func() { store.Err = nil }()

		_, err := svc.FetchRole(ctx, ulid.Make().String())
		errutil.AssertErrorCode(t, err, "ROLE_FETCH_FAILED")
	})
}

func TestService_FetchRoleDrivesResolver(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id := ulid.Make()
	require.NoError(t, svc.SetRole(ctx, id, access.RoleAdmin))

	resolver := access.NewResolver(accesstest.SignedIn(id.String()), svc)
	res := resolver.Resolve(ctx, access.RoleAdmin)
	assert.Equal(t, access.StateAuthorized, res.State)
}

func TestService_Contacts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	owner, other := ulid.Make(), ulid.Make()

	_, err := svc.AddContact(ctx, owner, profile.ContactInput{Name: "Juma", Phone: "0711"})
	errutil.AssertErrorCode(t, err, "CONTACT_INVALID")

	secondary, err := svc.AddContact(ctx, owner, profile.ContactInput{Name: "Juma", Relationship: "Brother", Phone: "0711"})
	require.NoError(t, err)
	primary, err := svc.AddContact(ctx, owner, profile.ContactInput{Name: "Achieng", Relationship: "Mother", Phone: "0722", IsPrimary: true})
	require.NoError(t, err)

	contacts, err := svc.ListContacts(ctx, owner)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, primary.ID, contacts[0].ID)
	assert.Equal(t, secondary.ID, contacts[1].ID)

	err = svc.RemoveContact(ctx, other, primary.ID)
	require.ErrorIs(t, err, profile.ErrNotFound)

	require.NoError(t, svc.RemoveContact(ctx, owner, primary.ID))
	contacts, err = svc.ListContacts(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}

func TestService_EnsureTokenIsStable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id := ulid.Make()

	first, err := svc.EnsureToken(ctx, id)
	require.NoError(t, err)
	_, err = uuid.Parse(first.Token)
	require.NoError(t, err)
	assert.True(t, first.Active)

	second, err := svc.EnsureToken(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)
}

func TestService_RegenerateTokenRevokesOld(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id := ulid.Make()
	require.NoError(t, svc.CreateProfile(ctx, id, "Otieno", "0700", "o@example.com"))

	old, err := svc.EnsureToken(ctx, id)
	require.NoError(t, err)
	fresh, err := svc.RegenerateToken(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, old.Token, fresh.Token)

	_, err = svc.EmergencyView(ctx, old.Token)
	errutil.AssertErrorCode(t, err, "QR_TOKEN_INVALID")

	view, err := svc.EmergencyView(ctx, fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, "Otieno", view.Profile.FullName)
}

func TestService_EmergencyView(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	id := ulid.Make()
	require.NoError(t, svc.CreateProfile(ctx, id, "Kamau", "0700", "k@example.com"))
	_, err := svc.AddContact(ctx, id, profile.ContactInput{Name: "Njeri", Relationship: "Wife", Phone: "0733", IsPrimary: true})
	require.NoError(t, err)
	tok, err := svc.EnsureToken(ctx, id)
	require.NoError(t, err)

	view, err := svc.EmergencyView(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "Kamau", view.Profile.FullName)
	require.Len(t, view.Contacts, 1)
	assert.Equal(t, "Njeri", view.Contacts[0].Name)

	tests := []struct {
		name  string
		token string
		setup func()
	}{
		{name: "not a uuid", token: "abc"},
		{name: "unknown token", token: uuid.NewString()},
		{name: "inactive token", token: tok.Token, setup: func() { store.Deactivate(id) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			_, err := svc.EmergencyView(ctx, tt.token)
			errutil.AssertErrorCode(t, err, "QR_TOKEN_INVALID")
			assert.Contains(t, err.Error(), profile.InvalidTokenMessage)
		})
	}
}

func TestFormatPatientContext(t *testing.T) {
	tests := []struct {
		name string
		p    profile.Profile
		want string
	}{
		{
			name: "empty profile",
			want: "\n\nPATIENT CONTEXT: Blood Type: Unknown, Allergies: None, Conditions: None",
		},
		{
			name: "full profile",
			p: profile.Profile{
				BloodType:         "AB-",
				Allergies:         []string{"penicillin", "latex"},
				ChronicConditions: []string{"asthma"},
			},
			want: "\n\nPATIENT CONTEXT: Blood Type: AB-, Allergies: penicillin, latex, Conditions: asthma",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, profile.FormatPatientContext(&tt.p))
		})
	}
}

func TestService_PatientContextWithoutProfile(t *testing.T) {
	svc, _ := newService(t)
	got, err := svc.PatientContext(context.Background(), ulid.Make())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, profile.SplitList(" a, ,b c ,"))
	assert.Equal(t, []string{}, profile.SplitList(""))
}
