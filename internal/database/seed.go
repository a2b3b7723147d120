// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Default development account created by Seed.
const (
	SeedEmail    = "demo@slidesmith.local"
	SeedPassword = "demo"
)

// sampleSlides is the starter carousel owned by the seeded account.
const sampleSlides = `[
  {"position": 0, "variant": "hero", "preheader": "Welcome", "headline": "Your first carousel", "body": "Edit any slide and it saves itself."},
  {"position": 1, "variant": "list", "headline": "Three ways to start", "items": ["Paste a topic", "Drop in a link", {"title": "Video", "text": "use a YouTube URL"}]},
  {"position": 2, "variant": "cta", "headline": "Share it", "footer": "Make it public to get a link"}
]`

// Seed populates the database with a demo account and a sample carousel.
// It does nothing when any user exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRow(`
		INSERT INTO users (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, SeedEmail, string(hash), "Demo").Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO carousels (user_id, title, template_type, preset_id, theme, slides)
		VALUES ($1, $2, 'editorial', 'paper', $3, $4)
	`, userID, "Getting started",
		`{"background":"#faf7f2","surface":"#ffffff","text":"#1d1d1f","muted":"#6e6e73","accent":"#d94f30","accent_text":"#ffffff","font_heading":"Georgia, serif","font_body":"Inter, sans-serif"}`,
		sampleSlides,
	)
	if err != nil {
		return fmt.Errorf("seed insert carousel: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo user", "email", SeedEmail, "password", SeedPassword)
	return nil
}
