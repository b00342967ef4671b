// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

// Package web is the HTTP surface: routing, the auth endpoints, the session
// cookie and the middleware chain that puts every request behind the access
// gate.
package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ttsfeed/ttsfeed/internal/access"
)

// RouterConfig wires NewRouter. Auth and Gate are required.
type RouterConfig struct {
	Auth Authenticator
	// Gate is the access middleware, normally (*access.Gate).Middleware.
	Gate     func(http.Handler) http.Handler
	Recorder LoginRecorder
	Logger   *slog.Logger
	// InsecureCookies omits the Secure cookie attribute.
	InsecureCookies bool
	// LoginPath is where logout redirects. Defaults to access.DefaultLoginPath.
	LoginPath string
}

// NewRouter builds the application handler. Middleware runs in this order:
// tracing, request id, request log, panic recovery, access gate.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	if cfg.Auth == nil {
		return nil, oops.Code("WEB_INVALID_ROUTER").Errorf("authenticator is required")
	}
	if cfg.Gate == nil {
		return nil, oops.Code("WEB_INVALID_ROUTER").Errorf("access gate is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopLoginRecorder{}
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = access.DefaultLoginPath
	}

	h := &handlers{
		auth:      cfg.Auth,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
		secure:    !cfg.InsecureCookies,
		loginPath: cfg.LoginPath,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cfg.Gate)

	r.Get("/", h.landing)
	r.Get("/auth/login/", h.loginForm)
	r.Post("/auth/login/", h.login)
	r.Post("/auth/logout/", h.logout)
	r.Get("/auth/waiting-room/", h.waitingRoom)
	r.Get("/notes/", h.identityPage("notes"))
	r.Get("/admin/", h.identityPage("admin"))
	r.Get("/me", h.identityPage("me"))

	return otelhttp.NewHandler(r, "ttsfeed",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	), nil
}
