// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/ttsfeed/ttsfeed/internal/access"
	"github.com/ttsfeed/ttsfeed/internal/auth"
	"github.com/ttsfeed/ttsfeed/internal/auth/postgres"
)

var _ = Describe("UserDirectory", func() {
	var (
		ctx   context.Context
		users *postgres.UserDirectory
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncate(ctx)
		users = postgres.NewUserDirectory(testPool)
	})

	It("creates and finds a user", func() {
		created, err := users.Create(ctx, auth.NewUser{Email: "ada@example.com", PasswordHash: "h"})
		Expect(err).NotTo(HaveOccurred())
		Expect(created.ID).To(BeNumerically(">", 0))
		Expect(created.Name).To(Equal("ada"))
		Expect(created.IsApproved()).To(BeFalse())

		byEmail, err := users.FindByEmail(ctx, "ada@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(created.ID))

		byID, err := users.FindByID(ctx, created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Email).To(Equal("ada@example.com"))
	})

	It("stamps approval for admins", func() {
		admin, err := users.Create(ctx, auth.NewUser{
			Email: "root@example.com", Name: "Root", PasswordHash: "h", IsAdmin: true, Approved: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(admin.IsAdmin).To(BeTrue())
		Expect(admin.IsApproved()).To(BeTrue())
	})

	It("rejects a duplicate email", func() {
		_, err := users.Create(ctx, auth.NewUser{Email: "ada@example.com", PasswordHash: "h"})
		Expect(err).NotTo(HaveOccurred())

		_, err = users.Create(ctx, auth.NewUser{Email: "ada@example.com", PasswordHash: "h"})
		Expect(auth.KindOf(err)).To(Equal(auth.KindAuthentication))
	})

	It("reports unknown users as not found", func() {
		_, err := users.FindByID(ctx, 999)
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
	})

	It("updates the password hash", func() {
		u, err := users.Create(ctx, auth.NewUser{Email: "ada@example.com", PasswordHash: "old"})
		Expect(err).NotTo(HaveOccurred())

		Expect(users.UpdatePassword(ctx, u.ID, "new")).To(Succeed())

		got, err := users.FindByID(ctx, u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.PasswordHash).To(Equal("new"))
	})
})

var _ = Describe("SessionStore", func() {
	var (
		ctx      context.Context
		sessions *postgres.SessionStore
		user     auth.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncate(ctx)
		sessions = postgres.NewSessionStore(testPool)

		var err error
		user, err = postgres.NewUserDirectory(testPool).Create(ctx, auth.NewUser{Email: "ada@example.com", PasswordHash: "h"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("resolves a created session until it is deleted", func() {
		s, err := sessions.Create(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())

		id, ok, err := sessions.Resolve(ctx, s.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(user.ID))

		Expect(sessions.Delete(ctx, s.Token)).To(Succeed())
		Expect(sessions.Delete(ctx, s.Token)).To(Succeed())

		_, ok, err = sessions.Resolve(ctx, s.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("never stores the raw token", func() {
		s, err := sessions.Create(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())

		var n int
		Expect(testPool.QueryRow(ctx, `SELECT count(*) FROM sessions WHERE token_hash = $1`, s.Token).Scan(&n)).To(Succeed())
		Expect(n).To(BeZero())
	})

	It("treats expired rows as absent and purges them", func() {
		s, err := sessions.Create(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())

		_, err = testPool.Exec(ctx, `UPDATE sessions SET expires_at = $1`, time.Now().Add(-time.Minute))
		Expect(err).NotTo(HaveOccurred())

		_, ok, err := sessions.Resolve(ctx, s.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		var n int
		Expect(testPool.QueryRow(ctx, `SELECT count(*) FROM sessions`).Scan(&n)).To(Succeed())
		Expect(n).To(BeZero())
	})

	It("resolves garbage to none", func() {
		_, ok, err := sessions.Resolve(ctx, "garbage-token")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Gate over postgres", func() {
	var (
		ctx      context.Context
		users    *postgres.UserDirectory
		sessions *postgres.SessionStore
		gate     *access.Gate
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncate(ctx)
		users = postgres.NewUserDirectory(testPool)
		sessions = postgres.NewSessionStore(testPool)

		classifier, err := access.NewClassifier(access.DefaultRoutes())
		Expect(err).NotTo(HaveOccurred())
		gate, err = access.NewGate(access.GateConfig{Classifier: classifier, Sessions: sessions, Users: users})
		Expect(err).NotTo(HaveOccurred())
	})

	request := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/notes/", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
		rec := httptest.NewRecorder()
		gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, req)
		return rec
	}

	It("sends a deleted user with a live session to the waiting room", func() {
		u, err := users.Create(ctx, auth.NewUser{Email: "ada@example.com", PasswordHash: "h", Approved: true})
		Expect(err).NotTo(HaveOccurred())
		s, err := sessions.Create(ctx, u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(request(s.Token).Code).To(Equal(http.StatusOK))

		_, err = testPool.Exec(ctx, `DELETE FROM users WHERE id = $1`, u.ID)
		Expect(err).NotTo(HaveOccurred())

		id, ok, err := sessions.Resolve(ctx, s.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(u.ID))

		rec := request(s.Token)
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal(access.DefaultWaitingRoomPath))
	})
})
