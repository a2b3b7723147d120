// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"slidesmith/internal/middleware"
	"slidesmith/internal/models"
	"slidesmith/internal/session"
)

// UserLookup is the part of the user store the login flow needs.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
}

// SessionManager creates and destroys browser sessions.
type SessionManager interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions SessionManager
	users    UserLookup
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions SessionManager, users UserLookup) *Auth {
	return &Auth{sessions: sessions, users: users}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=200"`
}

type meResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Login checks credentials and starts a session.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		fail(w, r, "login lookup", err)
		return
	}
	// Same answer for unknown email and wrong password.
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	data := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		fail(w, r, "session create", err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, meFrom(data))
}

// Logout destroys the current session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, meFrom(sess))
}

// CSRFToken returns the double-submit token so script clients that cannot
// read cookies can still fill the X-CSRF-Token header.
func (a *Auth) CSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"token": middleware.GetCSRFToken(r)})
}

func meFrom(d *session.Data) meResponse {
	return meResponse{
		UserID:      d.UserID.String(),
		Email:       d.Email,
		DisplayName: d.DisplayName,
	}
}
