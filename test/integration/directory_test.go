// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

//go:build integration

package integration

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/uhailink/uhailink/internal/directory"
)

var _ = Describe("Emergency directory", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx)
	})

	It("seeds once", func() {
		seed := directory.KenyaOrganizations()

		inserted, err := env.Directory.Seed(ctx, seed)
		Expect(err).NotTo(HaveOccurred())
		Expect(inserted).To(Equal(len(seed)))

		inserted, err = env.Directory.Seed(ctx, seed)
		Expect(err).NotTo(HaveOccurred())
		Expect(inserted).To(BeZero())

		orgs, err := env.Directory.Organizations(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(orgs).To(HaveLen(len(seed)))
	})

	It("manages organizations", func() {
		o, err := env.Directory.CreateOrganization(ctx, directory.OrganizationInput{
			Name: "Kenyatta National Hospital", Type: "Hospital", Phone: "0202726300", Location: "Nairobi",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(o.Website).To(BeNil())

		_, err = env.Directory.CreateOrganization(ctx, directory.OrganizationInput{
			Name: "Kenyatta National Hospital", Type: "Hospital", Phone: "0202726300", Location: "Nairobi",
		})
		Expect(errors.Is(err, directory.ErrDuplicate)).To(BeTrue())

		updated, err := env.Directory.UpdateOrganization(ctx, o.ID, directory.OrganizationInput{
			Name: "Kenyatta National Hospital", Type: "Hospital", Phone: "0202726300",
			Location: "Nairobi", Website: "https://knh.or.ke",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(*updated.Website).To(Equal("https://knh.or.ke"))

		Expect(env.Directory.DeleteOrganization(ctx, o.ID)).To(Succeed())
		err = env.Directory.DeleteOrganization(ctx, o.ID)
		Expect(errors.Is(err, directory.ErrNotFound)).To(BeTrue())
	})

	It("lists tutorials newest first", func() {
		for _, title := range []string{"CPR basics", "Treating burns"} {
			_, err := env.Directory.CreateTutorial(ctx, directory.TutorialInput{
				Title:       title,
				Description: "First aid video",
				Category:    "Basics",
				VideoURL:    "https://videos.example.com/" + ulid.Make().String(),
			})
			Expect(err).NotTo(HaveOccurred())
		}

		tuts, err := env.Directory.Tutorials(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(tuts).To(HaveLen(1))
		Expect(tuts[0].Title).To(Equal("Treating burns"))
	})
})
