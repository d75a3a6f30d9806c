// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package directory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service manages the directory.
type Service struct {
	orgs      OrganizationRepository
	tutorials TutorialRepository
	now       func() time.Time
}

// NewService creates a Service.
func NewService(orgs OrganizationRepository, tutorials TutorialRepository) *Service {
	return &Service{orgs: orgs, tutorials: tutorials, now: time.Now}
}

// Organizations lists organizations; limit <= 0 returns all.
func (s *Service) Organizations(ctx context.Context, limit int) ([]Organization, error) {
	orgs, err := s.orgs.List(ctx, limit)
	if err != nil {
		return nil, oops.Code("ORGANIZATION_LIST_FAILED").Wrap(err)
	}
	return orgs, nil
}

// Tutorials lists tutorials newest first; limit <= 0 returns all.
func (s *Service) Tutorials(ctx context.Context, limit int) ([]Tutorial, error) {
	tuts, err := s.tutorials.List(ctx, limit)
	if err != nil {
		return nil, oops.Code("TUTORIAL_LIST_FAILED").Wrap(err)
	}
	return tuts, nil
}

// CreateOrganization adds an organization.
func (s *Service) CreateOrganization(ctx context.Context, in OrganizationInput) (*Organization, error) {
	o, err := in.Build(ulid.Make())
	if err != nil {
		return nil, err
	}
	if err := s.orgs.Create(ctx, o); err != nil {
		return nil, oops.Code("ORGANIZATION_CREATE_FAILED").With("name", o.Name).Wrap(err)
	}
	slog.InfoContext(ctx, "organization added", "organization_id", o.ID.String(), "name", o.Name)
	return o, nil
}

// UpdateOrganization replaces an organization's fields.
func (s *Service) UpdateOrganization(ctx context.Context, id ulid.ULID, in OrganizationInput) (*Organization, error) {
	o, err := in.Build(id)
	if err != nil {
		return nil, err
	}
	if err := s.orgs.Update(ctx, o); err != nil {
		return nil, oops.Code("ORGANIZATION_UPDATE_FAILED").With("organization_id", id.String()).Wrap(err)
	}
	return o, nil
}

// DeleteOrganization removes an organization.
func (s *Service) DeleteOrganization(ctx context.Context, id ulid.ULID) error {
	if err := s.orgs.Delete(ctx, id); err != nil {
		return oops.Code("ORGANIZATION_DELETE_FAILED").With("organization_id", id.String()).Wrap(err)
	}
	return nil
}

// CreateTutorial adds a tutorial.
func (s *Service) CreateTutorial(ctx context.Context, in TutorialInput) (*Tutorial, error) {
	t, err := in.Build(ulid.Make(), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.tutorials.Create(ctx, t); err != nil {
		return nil, oops.Code("TUTORIAL_CREATE_FAILED").With("title", t.Title).Wrap(err)
	}
	slog.InfoContext(ctx, "tutorial added", "tutorial_id", t.ID.String())
	return t, nil
}

// UpdateTutorial replaces a tutorial's fields. CreatedAt is preserved by
// the repository.
func (s *Service) UpdateTutorial(ctx context.Context, id ulid.ULID, in TutorialInput) (*Tutorial, error) {
	t, err := in.Build(id, time.Time{})
	if err != nil {
		return nil, err
	}
	if err := s.tutorials.Update(ctx, t); err != nil {
		return nil, oops.Code("TUTORIAL_UPDATE_FAILED").With("tutorial_id", id.String()).Wrap(err)
	}
	return t, nil
}

// DeleteTutorial removes a tutorial.
func (s *Service) DeleteTutorial(ctx context.Context, id ulid.ULID) error {
	if err := s.tutorials.Delete(ctx, id); err != nil {
		return oops.Code("TUTORIAL_DELETE_FAILED").With("tutorial_id", id.String()).Wrap(err)
	}
	return nil
}

// Seed inserts orgs, skipping names that already exist. It returns the
// number inserted.
func (s *Service) Seed(ctx context.Context, orgs []OrganizationInput) (int, error) {
	inserted := 0
	for _, in := range orgs {
		o, err := in.Build(ulid.Make())
		if err != nil {
			return inserted, err
		}
		if err := s.orgs.Create(ctx, o); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return inserted, oops.Code("SEED_FAILED").With("name", o.Name).Wrap(err)
		}
		inserted++
	}
	return inserted, nil
}

// KenyaOrganizations is the starter directory inserted by the seed command.
func KenyaOrganizations() []OrganizationInput {
	return []OrganizationInput{
		{Name: "Kenya Red Cross", Type: "Ambulance", Phone: "1199", Location: "Nationwide", Website: "https://www.redcross.or.ke"},
		{Name: "National Emergency Line", Type: "Police / Fire / Ambulance", Phone: "999", Location: "Nationwide"},
		{Name: "Emergency (Mobile)", Type: "Police / Fire / Ambulance", Phone: "112", Location: "Nationwide"},
		{Name: "St John Ambulance Kenya", Type: "Ambulance", Phone: "0721225285", Location: "Nairobi", Website: "https://www.stjohnkenya.org"},
		{Name: "AMREF Flying Doctors", Type: "Air Ambulance", Phone: "0699395000", Location: "Nairobi", Website: "https://flydoc.org"},
		{Name: "Nairobi Fire Brigade", Type: "Fire", Phone: "0202222181", Location: "Nairobi"},
		{Name: "Childline Kenya", Type: "Child Protection", Phone: "116", Location: "Nationwide", Website: "https://www.childlinekenya.co.ke"},
	}
}
