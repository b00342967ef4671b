// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/ttsfeed/ttsfeed/internal/access"
	"github.com/ttsfeed/ttsfeed/internal/auth"
	"github.com/ttsfeed/ttsfeed/pkg/errutil"
)

// maxFormBytes caps the login form body.
const maxFormBytes = 64 << 10

// Login intents accepted by POST /auth/login/.
const (
	IntentLogin  = "login"
	IntentSignup = "signup"
)

// Login outcomes reported to the LoginRecorder.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Authenticator performs the credential operations behind the auth endpoints.
// *auth.Service implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
	Signup(ctx context.Context, req auth.SignupRequest) (auth.User, auth.Session, error)
	Logout(ctx context.Context, token string) error
}

// LoginRecorder counts login and signup attempts by outcome.
type LoginRecorder interface {
	RecordLogin(intent, outcome string)
}

type nopLoginRecorder struct{}

func (nopLoginRecorder) RecordLogin(string, string) {}

type handlers struct {
	auth      Authenticator
	recorder  LoginRecorder
	logger    *slog.Logger
	secure    bool
	loginPath string
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	w.Write([]byte(body))
}

func (h *handlers) landing(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ttsfeed\n")
}

func (h *handlers) loginForm(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "POST email and password to sign in, or intent=signup with name and confirm_password to register\n")
}

// login handles both sign-in and sign-up, selected by the intent field.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.recorder.RecordLogin(IntentLogin, OutcomeInvalid)
		writeText(w, http.StatusBadRequest, "malformed form\n")
		return
	}

	intent := r.PostForm.Get("intent")
	if intent == "" {
		intent = IntentLogin
	}

	var (
		session auth.Session
		err     error
	)
	switch intent {
	case IntentLogin:
		session, err = h.auth.Login(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
	case IntentSignup:
		_, session, err = h.auth.Signup(r.Context(), auth.SignupRequest{
			Email:           r.PostForm.Get("email"),
			Name:            r.PostForm.Get("name"),
			Password:        r.PostForm.Get("password"),
			ConfirmPassword: r.PostForm.Get("confirm_password"),
		})
	default:
		h.recorder.RecordLogin(IntentLogin, OutcomeInvalid)
		writeText(w, http.StatusBadRequest, "unknown intent\n")
		return
	}

	if err != nil {
		h.fail(w, r, intent, err)
		return
	}

	h.recorder.RecordLogin(intent, OutcomeSuccess)
	SetSessionCookie(w, session.Token, h.secure)
	http.Redirect(w, r, "/", http.StatusFound)
}

// fail maps an auth error to a response without revealing which check failed.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, intent string, err error) {
	switch auth.KindOf(err) {
	case auth.KindValidation:
		h.recorder.RecordLogin(intent, OutcomeInvalid)
		writeText(w, http.StatusBadRequest, invalidMessage(intent))
	case auth.KindAuthentication:
		h.recorder.RecordLogin(intent, OutcomeRejected)
		writeText(w, http.StatusUnauthorized, rejectedMessage(intent))
	default:
		h.recorder.RecordLogin(intent, OutcomeError)
		errutil.LogErrorContext(r.Context(), h.logger, intent+" failed", err)
		writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)+"\n")
	}
}

func invalidMessage(intent string) string {
	if intent == IntentSignup {
		return "signup details are incomplete or do not match\n"
	}
	return "email and password are required\n"
}

func rejectedMessage(intent string) string {
	if intent == IntentSignup {
		return "signup was not accepted\n"
	}
	return "invalid email or password\n"
}

// logout revokes the session. The cookie is cleared only after the store
// confirms the delete.
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.SessionCookieName); err == nil && c.Value != "" {
		if err := h.auth.Logout(r.Context(), c.Value); err != nil {
			errutil.LogErrorContext(r.Context(), h.logger, "logout failed", err)
			writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)+"\n")
			return
		}
	}
	ClearSessionCookie(w, h.secure)
	http.Redirect(w, r, h.loginPath, http.StatusFound)
}

func (h *handlers) waitingRoom(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "your account is awaiting approval\n")
}

// identityPage renders a placeholder that echoes the caller's identity.
func (h *handlers) identityPage(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := access.IdentityFromContext(r.Context())
		if !ok {
			errutil.LogErrorContext(r.Context(), h.logger, "identity missing behind gate",
				oops.With("path", r.URL.Path).Errorf("no identity in request context"))
			writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)+"\n")
			return
		}
		writeText(w, http.StatusOK, fmt.Sprintf("%s\nuser_id=%d approved=%t admin=%t\n",
			title, id.UserID, id.IsApproved, id.IsAdmin))
	}
}
