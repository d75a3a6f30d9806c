// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

//go:build integration

package cli_test

import (
	"context"
	"encoding/json"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

var _ = Describe("CLI", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		resetSchema(ctx, env.pool)

		output, err := uhailink(ctx, "migrate", "up").CombinedOutput()
		Expect(err).NotTo(HaveOccurred(), "migrate failed: %s", string(output))
		Expect(string(output)).To(ContainSubstring("Applied 2 migration(s)"))
	})

	Describe("seed", func() {
		It("inserts the starter directory once", func() {
			output, err := uhailink(ctx, "seed").CombinedOutput()
			Expect(err).NotTo(HaveOccurred(), "seed failed: %s", string(output))
			Expect(string(output)).To(ContainSubstring("Added 7 of 7 organizations"))

			output, err = uhailink(ctx, "seed").CombinedOutput()
			Expect(err).NotTo(HaveOccurred(), "second seed failed: %s", string(output))
			Expect(string(output)).To(ContainSubstring("Directory already seeded"))

			var count int
			err = env.pool.QueryRow(ctx, "SELECT COUNT(*) FROM emergency_organizations").Scan(&count)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(7))
		})
	})

	Describe("role set", func() {
		It("promotes a user to admin", func() {
			id := ulid.Make().String()
			_, err := env.pool.Exec(ctx,
				`INSERT INTO profiles (user_id, full_name, email) VALUES ($1, 'Amani Otieno', 'amani@example.com')`, id)
			Expect(err).NotTo(HaveOccurred())

			output, err := uhailink(ctx, "role", "set", id, "admin").CombinedOutput()
			Expect(err).NotTo(HaveOccurred(), "role set failed: %s", string(output))
			Expect(string(output)).To(ContainSubstring("Set role of " + id + " to admin"))

			var role string
			err = env.pool.QueryRow(ctx, "SELECT role FROM profiles WHERE user_id = $1", id).Scan(&role)
			Expect(err).NotTo(HaveOccurred())
			Expect(role).To(Equal("admin"))
		})
	})

	Describe("status", func() {
		It("reports a current schema", func() {
			output, err := uhailink(ctx, "status", "--json", "--metrics-addr", "").Output()
			Expect(err).NotTo(HaveOccurred())

			var st struct {
				Schema struct {
					Version uint     `json:"version"`
					Pending []string `json:"pending"`
				} `json:"schema"`
			}
			Expect(json.Unmarshal(output, &st)).To(Succeed())
			Expect(st.Schema.Version).To(Equal(uint(2)))
			Expect(st.Schema.Pending).To(BeEmpty())
		})
	})

	Describe("error handling", func() {
		It("fails with CONFIG_INVALID when DATABASE_URL is missing", func() {
			cmd := uhailink(ctx, "seed")
			cmd.Env = append(cmd.Environ(), "DATABASE_URL=")

			output, err := cmd.CombinedOutput()
			Expect(err).To(HaveOccurred())
			Expect(string(output)).To(ContainSubstring("DATABASE_URL"))
		})
	})
})
