// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

//go:build integration

package integration

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/auth"
	"github.com/uhailink/uhailink/pkg/errutil"
)

var _ = Describe("Account lifecycle", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx)
	})

	signUp := func(email string) *auth.Account {
		account, err := env.Auth.SignUp(ctx, auth.SignUpRequest{
			Email:    email,
			Password: "correct horse",
			FullName: "Wanjiru Kamau",
			Phone:    "+254700000001",
		})
		Expect(err).NotTo(HaveOccurred())
		return account
	}

	It("creates a profile with the user role at sign-up", func() {
		account := signUp("wanjiru@example.com")

		p, err := env.Profiles.GetProfile(ctx, account.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.FullName).To(Equal("Wanjiru Kamau"))
		Expect(p.Email).To(Equal("wanjiru@example.com"))
		Expect(p.Role).To(Equal(access.RoleUser))
	})

	It("normalizes email and rejects duplicates", func() {
		signUp("Wanjiru@Example.com")

		_, err := env.Auth.SignUp(ctx, auth.SignUpRequest{
			Email:    "wanjiru@example.com",
			Password: "another secret",
		})
		Expect(errutil.Code(err)).To(Equal("AUTH_EMAIL_TAKEN"))
	})

	It("resolves access through sign-in, role change, and sign-out", func() {
		account := signUp("otieno@example.com")

		_, token, err := env.Auth.SignIn(ctx, "otieno@example.com", "correct horse", "ginkgo", "127.0.0.1")
		Expect(err).NotTo(HaveOccurred())
		Expect(token).NotTo(BeEmpty())

		resolver := resolverFor(token)
		res := resolver.Resolve(ctx, access.RoleUser)
		Expect(res.State).To(Equal(access.StateAuthorized))
		Expect(res.UserID).To(Equal(account.ID.String()))

		res = resolver.Resolve(ctx, access.RoleAdmin)
		Expect(res.State).To(Equal(access.StateForbidden))
		Expect(access.Decide(res).Location).To(Equal(access.DefaultArea(access.RoleUser)))

		Expect(env.Profiles.SetRole(ctx, account.ID, access.RoleAdmin)).To(Succeed())
		Expect(resolver.Resolve(ctx, access.RoleAdmin).State).To(Equal(access.StateAuthorized))

		Expect(env.Auth.SignOut(ctx, token)).To(Succeed())
		Expect(resolver.Resolve(ctx, access.RoleUser).State).To(Equal(access.StateUnauthenticated))

		err = env.Auth.SignOut(ctx, token)
		Expect(errutil.Code(err)).To(Equal("SESSION_NOT_FOUND"))
	})

	It("rejects a wrong password without revealing which part was wrong", func() {
		signUp("achieng@example.com")

		_, _, err := env.Auth.SignIn(ctx, "achieng@example.com", "wrong password", "", "")
		Expect(errutil.Code(err)).To(Equal("AUTH_INVALID_CREDENTIALS"))

		_, _, err = env.Auth.SignIn(ctx, "nobody@example.com", "correct horse", "", "")
		Expect(errutil.Code(err)).To(Equal("AUTH_INVALID_CREDENTIALS"))
	})

	It("notifies trackers when the role changes", func() {
		account := signUp("kiprop@example.com")
		_, token, err := env.Auth.SignIn(ctx, "kiprop@example.com", "correct horse", "", "")
		Expect(err).NotTo(HaveOccurred())

		trackCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		tracker := access.NewTracker(resolverFor(token), env.Hub, access.RoleAdmin)
		Expect(tracker.Mount(trackCtx)).To(Succeed())
		defer tracker.Unmount()

		Eventually(func() access.State { return tracker.State().State }).
			WithTimeout(5 * time.Second).Should(Equal(access.StateForbidden))

		Expect(env.Profiles.SetRole(ctx, account.ID, access.RoleAdmin)).To(Succeed())

		Eventually(func() access.State { return tracker.State().State }).
			WithTimeout(5 * time.Second).Should(Equal(access.StateAuthorized))
	})

	It("purges expired sessions", func() {
		account := signUp("njeri@example.com")
		_, _, err := env.Auth.SignIn(ctx, "njeri@example.com", "correct horse", "", "")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.pool.Exec(ctx,
			`UPDATE sessions SET expires_at = NOW() - INTERVAL '1 hour' WHERE account_id = $1`,
			account.ID.String())
		Expect(err).NotTo(HaveOccurred())

		n, err := env.Auth.PurgeExpired(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})
})
