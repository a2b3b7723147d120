// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	user := testUser(t, db, 10)
	if user.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if user.CarouselLimit != 10 {
		t.Errorf("carousel limit: got %d, want 10", user.CarouselLimit)
	}
	if user.PasswordHash == "" || user.PasswordHash == "testpass123" {
		t.Error("password must be stored hashed")
	}

	s := NewUserStore(db)
	if !s.CheckPassword(user, "testpass123") {
		t.Error("CheckPassword rejected the right password")
	}
	if s.CheckPassword(user, "wrong") {
		t.Error("CheckPassword accepted a wrong password")
	}

	found, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil || found.Email != user.Email {
		t.Fatalf("FindByID: got %+v", found)
	}
}

func TestUserStoreFindByEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	user, err := s.FindByEmail(ctx, "nobody@store-test.local")
	if err != nil {
		t.Fatalf("FindByEmail (not found): %v", err)
	}
	if user != nil {
		t.Error("expected nil for non-existent user")
	}

	created := testUser(t, db, 0)
	user, err = s.FindByEmail(ctx, "  "+created.Email+" ")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user == nil || user.ID != created.ID {
		t.Fatalf("FindByEmail: got %+v, want id %s", user, created.ID)
	}
	if !user.HasUnlimitedStorage() {
		t.Error("limit 0 should mean unlimited storage")
	}
}

func TestUserStoreFindByIDNotFound(t *testing.T) {
	db := testDB(t)
	user, err := NewUserStore(db).FindByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if user != nil {
		t.Error("expected nil for unknown id")
	}
}
