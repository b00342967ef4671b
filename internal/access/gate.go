// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

// Package access decides, for every inbound request, whether it may proceed.
//
// The decision runs in a fixed order: public routes pass without a session,
// then the session must resolve, then the account must be approved, then
// admin-only routes require an administrator. Store failures abort the
// request with a 500 and never fall through to any other outcome.
package access

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/ttsfeed/ttsfeed/internal/auth"
	"github.com/ttsfeed/ttsfeed/pkg/errutil"
)

// Default redirect targets.
const (
	DefaultLoginPath       = "/auth/login/"
	DefaultWaitingRoomPath = "/auth/waiting-room/"
)

// Decision is the outcome of an access check.
type Decision string

// Decisions, also used as the metric label.
const (
	DecisionPublic      Decision = "public"
	DecisionLogin       Decision = "login_redirect"
	DecisionWaitingRoom Decision = "waiting_room_redirect"
	DecisionForbidden   Decision = "forbidden"
	DecisionAllow       Decision = "allow"
	DecisionError       Decision = "error"
)

// SessionResolver is the part of auth.SessionStore the gate needs.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (userID int64, ok bool, err error)
}

// UserFinder is the part of auth.UserDirectory the gate needs.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (auth.User, error)
}

// DecisionRecorder counts decisions.
type DecisionRecorder interface {
	RecordAccessDecision(decision string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAccessDecision(string) {}

// GateConfig wires a Gate. Classifier, Sessions and Users are required.
type GateConfig struct {
	Classifier      *Classifier
	Sessions        SessionResolver
	Users           UserFinder
	LoginPath       string
	WaitingRoomPath string
	Logger          *slog.Logger
	Recorder        DecisionRecorder
}

// Gate is the access control middleware. It holds no per-request state and is
// safe for concurrent use.
type Gate struct {
	classifier  *Classifier
	sessions    SessionResolver
	users       UserFinder
	loginPath   string
	waitingRoom string
	logger      *slog.Logger
	recorder    DecisionRecorder
}

// NewGate validates cfg and fills in defaults.
func NewGate(cfg GateConfig) (*Gate, error) {
	switch {
	case cfg.Classifier == nil:
		return nil, oops.Code("ACCESS_INVALID_GATE").Errorf("route classifier is required")
	case cfg.Sessions == nil:
		return nil, oops.Code("ACCESS_INVALID_GATE").Errorf("session store is required")
	case cfg.Users == nil:
		return nil, oops.Code("ACCESS_INVALID_GATE").Errorf("user directory is required")
	}

	g := &Gate{
		classifier:  cfg.Classifier,
		sessions:    cfg.Sessions,
		users:       cfg.Users,
		loginPath:   cfg.LoginPath,
		waitingRoom: cfg.WaitingRoomPath,
		logger:      cfg.Logger,
		recorder:    cfg.Recorder,
	}
	if g.loginPath == "" {
		g.loginPath = DefaultLoginPath
	}
	if g.waitingRoom == "" {
		g.waitingRoom = DefaultWaitingRoomPath
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.recorder == nil {
		g.recorder = nopRecorder{}
	}
	return g, nil
}

// Decide runs the access check for r. The error is non-nil only with
// DecisionError.
func (g *Gate) Decide(r *http.Request) (Decision, Identity, error) {
	ctx := r.Context()

	class := g.classifier.Classify(r.URL.Path)
	if class == Public {
		return DecisionPublic, Identity{}, nil
	}

	userID, ok, err := g.sessions.Resolve(ctx, sessionToken(r))
	if err != nil {
		return DecisionError, Identity{}, oops.With("stage", "resolve session").Wrap(err)
	}
	if !ok {
		return DecisionLogin, Identity{}, nil
	}

	user, err := g.users.FindByID(ctx, userID)
	if errors.Is(err, auth.ErrNotFound) {
		// The session outlived its user; treated as unapproved.
		return DecisionWaitingRoom, Identity{}, nil
	}
	if err != nil {
		return DecisionError, Identity{}, oops.With("stage", "load user").With("user_id", userID).Wrap(err)
	}
	if !user.IsApproved() {
		return DecisionWaitingRoom, Identity{}, nil
	}

	if class == AdminOnly && !user.IsAdmin {
		return DecisionForbidden, Identity{}, nil
	}

	return DecisionAllow, Identity{
		UserID:     user.ID,
		IsApproved: true,
		IsAdmin:    user.IsAdmin,
	}, nil
}

// Middleware wraps next with the access check.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, id, err := g.Decide(r)

		g.recorder.RecordAccessDecision(string(decision))
		g.logger.DebugContext(r.Context(), "access decision",
			"path", r.URL.Path,
			"decision", string(decision))

		switch decision {
		case DecisionPublic:
			next.ServeHTTP(w, r)
		case DecisionAllow:
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		case DecisionLogin:
			http.Redirect(w, r, g.loginPath, http.StatusFound)
		case DecisionWaitingRoom:
			http.Redirect(w, r, g.waitingRoom, http.StatusFound)
		case DecisionForbidden:
			w.WriteHeader(http.StatusForbidden)
		default:
			errutil.LogErrorContext(r.Context(), g.logger, "access check failed", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
