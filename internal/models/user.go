// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCarouselLimit is how many carousels a new account may store.
const DefaultCarouselLimit = 25

// User is an account that owns carousels.
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // Never serialize the hash
	DisplayName   string    `json:"display_name"`
	CarouselLimit int       `json:"carousel_limit"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasUnlimitedStorage reports whether the account has no carousel cap.
// A limit of zero or less means unlimited.
func (u *User) HasUnlimitedStorage() bool {
	return u.CarouselLimit <= 0
}
