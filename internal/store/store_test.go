// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"slidesmith/internal/database"
	"slidesmith/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "slidesmith")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "slidesmith")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a throwaway user and removes it (and its carousels)
// when the test ends.
func testUser(t *testing.T, db *sql.DB, limit int) *models.User {
	t.Helper()
	email := "store-test-" + uuid.NewString()[:8] + "@store-test.local"
	u, err := NewUserStore(db).Create(context.Background(), email, "testpass123", "Store Test", limit)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

func testCarousel(userID uuid.UUID, headline string) *models.Carousel {
	return &models.Carousel{
		UserID:         userID,
		Title:          "Store test",
		TemplateType:   models.TemplateBold,
		PresetID:       "midnight",
		Theme:          models.Theme{Background: "#000000", Text: "#ffffff", Accent: "#ffcc00"},
		Format:         models.FormatSquare,
		Pattern:        models.PatternDots,
		PatternOpacity: 0.25,
		Branding:       models.Branding{Enabled: true, Name: "Ada", Handle: "@ada"},
		Slides: []models.Slide{
			{Position: 0, Variant: models.VariantHero, Headline: headline},
			{Position: 1, Variant: models.VariantList, Headline: "List", Items: []models.ListItem{{Text: "one"}, {Title: "Two", Text: "two"}}},
		},
	}
}
