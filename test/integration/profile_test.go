// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

//go:build integration

package integration

import (
	"context"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/uhailink/uhailink/internal/auth"
	"github.com/uhailink/uhailink/internal/profile"
	"github.com/uhailink/uhailink/pkg/errutil"
)

var _ = Describe("Medical profile", func() {
	var (
		ctx    context.Context
		userID ulid.ULID
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx)

		account, err := env.Auth.SignUp(ctx, auth.SignUpRequest{
			Email:    "mwangi@example.com",
			Password: "correct horse",
			FullName: "Mwangi Njoroge",
			Phone:    "+254700000002",
		})
		Expect(err).NotTo(HaveOccurred())
		userID = account.ID
	})

	It("round-trips medical details", func() {
		_, err := env.Profiles.SaveProfile(ctx, userID, profile.MedicalUpdate{
			FullName:          "Mwangi Njoroge",
			Phone:             "+254700000002",
			BloodType:         "O+",
			Allergies:         []string{"Penicillin", "Peanuts"},
			Medications:       []string{"Metformin"},
			ChronicConditions: []string{"Type 2 diabetes"},
		})
		Expect(err).NotTo(HaveOccurred())

		p, err := env.Profiles.GetProfile(ctx, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.BloodType).To(Equal("O+"))
		Expect(p.Allergies).To(Equal([]string{"Penicillin", "Peanuts"}))
		Expect(p.Medications).To(Equal([]string{"Metformin"}))

		patient, err := env.Profiles.PatientContext(ctx, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(patient).To(ContainSubstring("O+"))
		Expect(patient).To(ContainSubstring("Penicillin"))
	})

	It("keeps contacts per user", func() {
		c, err := env.Profiles.AddContact(ctx, userID, profile.ContactInput{
			Name: "Akinyi", Relationship: "Sister", Phone: "+254700000003", IsPrimary: true,
		})
		Expect(err).NotTo(HaveOccurred())

		contacts, err := env.Profiles.ListContacts(ctx, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(contacts).To(HaveLen(1))
		Expect(contacts[0].Name).To(Equal("Akinyi"))
		Expect(contacts[0].IsPrimary).To(BeTrue())

		Expect(env.Profiles.RemoveContact(ctx, ulid.Make(), c.ID)).NotTo(Succeed())
		Expect(env.Profiles.RemoveContact(ctx, userID, c.ID)).To(Succeed())

		contacts, err = env.Profiles.ListContacts(ctx, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(contacts).To(BeEmpty())
	})

	It("serves the emergency view only for the current token", func() {
		_, err := env.Profiles.AddContact(ctx, userID, profile.ContactInput{
			Name: "Akinyi", Relationship: "Sister", Phone: "+254700000003",
		})
		Expect(err).NotTo(HaveOccurred())

		first, err := env.Profiles.EnsureToken(ctx, userID)
		Expect(err).NotTo(HaveOccurred())
		again, err := env.Profiles.EnsureToken(ctx, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Token).To(Equal(first.Token))

		view, err := env.Profiles.EmergencyView(ctx, first.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Profile.FullName).To(Equal("Mwangi Njoroge"))
		Expect(view.Contacts).To(HaveLen(1))

		rotated, err := env.Profiles.RegenerateToken(ctx, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(rotated.Token).NotTo(Equal(first.Token))

		_, err = env.Profiles.EmergencyView(ctx, first.Token)
		Expect(errutil.Code(err)).To(Equal("QR_TOKEN_INVALID"))

		_, err = env.Profiles.EmergencyView(ctx, rotated.Token)
		Expect(err).NotTo(HaveOccurred())
	})

	It("counts registered users", func() {
		n, err := env.Profiles.CountUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})
})
