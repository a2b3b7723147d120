// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for
// SlideSmith. It organizes routes into the public share surface and the
// authenticated editor API, each with its own middleware stack.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"slidesmith/internal/handlers"
	"slidesmith/internal/middleware"
)

// Deps carries everything the route table needs.
type Deps struct {
	Sessions middleware.SessionLoader

	Auth    *handlers.Auth
	Studio  *handlers.Studio
	Library *handlers.Library
	Editor  *handlers.Editor
	Public  *handlers.Public

	// Secure marks cookies Secure; true behind TLS.
	Secure bool
	// CORSOrigins may read the public JSON API from a browser.
	CORSOrigins []string

	// AILimiter throttles model-backed endpoints; LoginLimiter throttles
	// credential checks. Either may be nil.
	AILimiter    *middleware.RateLimiter
	LoginLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders)

	// Health check and metrics: no session, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	// Public share surface, anonymous.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicPageCSP)
		r.Get("/c/{id}", d.Public.Page)
		r.Get("/c/{id}/qr.png", d.Public.QRCode)
	})
	r.Route("/api/public", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept"},
			MaxAge:         300,
		}))
		r.Get("/carousels/{id}", d.Public.JSON)
	})

	// Editor API: session loaded, CSRF enforced on state changes.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadSession(d.Sessions))
		r.Use(middleware.CSRF(d.Secure))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/csrf", d.Auth.CSRFToken)
			r.With(limit(d.LoginLimiter)).Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)
			r.Get("/me", d.Auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/presets", d.Studio.Presets)
			r.Get("/models", d.Studio.Models)
			r.Post("/render", d.Studio.Render)

			// Model-backed endpoints.
			r.Group(func(r chi.Router) {
				r.Use(limit(d.AILimiter))
				r.Post("/generate", d.Studio.Generate)
				r.Post("/refine", d.Studio.Refine)
				r.Post("/images", d.Studio.Image)
			})

			r.Route("/carousels", func(r chi.Router) {
				r.Get("/", d.Library.List)
				r.Get("/{id}", d.Library.Get)
				r.Delete("/{id}", d.Library.Delete)
				r.Post("/{id}/duplicate", d.Library.Duplicate)
				r.Put("/{id}/visibility", d.Library.SetVisibility)
				r.Get("/{id}/stats", d.Library.Stats)
				r.Post("/{id}/export", d.Library.Export)
			})

			r.Route("/editor", func(r chi.Router) {
				r.Post("/", d.Editor.Open)
				r.Put("/{session}/state", d.Editor.UpdateState)
				r.Get("/{session}/status", d.Editor.Status)
				r.Delete("/{session}", d.Editor.Close)
			})
		})
	})

	return r
}

// limit returns rl's middleware, or a pass-through when rl is nil.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
