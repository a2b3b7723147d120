// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"slidesmith/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"

	csrfTokenKey contextKey = "csrf_token"
)

// SessionLoader is the read side of the session store.
type SessionLoader interface {
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
}

// LoadSession retrieves the session from Valkey and stores it in the
// request context. It does not enforce authentication.
func LoadSession(store SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				slog.Warn("session load failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionKey, data))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth answers 401 for requests without a session. Must be applied
// after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// WithSession returns a copy of ctx carrying data. Tests and internal
// callers use it to act on behalf of a user.
func WithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}
