package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"comictalk/internal/entity"
)

// TestUserGetCachesProfile verifies a loaded profile is served from cache afterwards.
func TestUserGetCachesProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com", "Alice")

	got, err := env.userUC.Get(ctx, alice.Id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Fullname != "Alice" {
		t.Errorf("Expected Alice, got %q", got.Fullname)
	}

	if _, err := env.userUC.Get(ctx, 12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
	if _, err := env.userUC.Get(ctx, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for id 0, got %v", err)
	}
}

// TestUserGetManySkipsUnknown verifies missing ids are dropped and order is preserved.
func TestUserGetManySkipsUnknown(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com", "Alice")
	bob := env.createUser(t, "bob@example.com", "Bob")

	// Warm the cache for one of them.
	if _, err := env.userUC.Get(context.Background(), bob.Id); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	users, err := env.userUC.GetMany(context.Background(), []int64{bob.Id, 999, alice.Id})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	if len(users) != 2 || users[0].Id != bob.Id || users[1].Id != alice.Id {
		t.Errorf("Unexpected users %+v", users)
	}
}

// TestUserTouch verifies last-seen is recorded and the cached profile refreshed.
func TestUserTouch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com", "Alice")

	if _, err := env.userUC.Get(ctx, alice.Id); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := env.userUC.Touch(ctx, alice.Id); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	got, err := env.userUC.Get(ctx, alice.Id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.LastSeenAt == nil {
		t.Error("Expected lastSeenAt to be set after Touch")
	}

	if err := env.userUC.Touch(ctx, 4242); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound touching unknown user, got %v", err)
	}
}

// TestUserExists verifies existence checks for stored, unknown and invalid ids.
func TestUserExists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com", "Alice")

	if ok, err := env.userUC.Exists(ctx, alice.Id); err != nil || !ok {
		t.Errorf("Exists(alice) = %v, %v", ok, err)
	}
	if ok, err := env.userUC.Exists(ctx, 9999); err != nil || ok {
		t.Errorf("Exists(9999) = %v, %v", ok, err)
	}
	if _, err := env.userUC.Exists(ctx, -1); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for -1, got %v", err)
	}
}

// TestUpdateProfile verifies partial updates, validation and cache invalidation.
func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com", "Alice")

	// Warm the cache so a stale read would show up.
	if _, err := env.userUC.Get(ctx, alice.Id); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	avatar := "https://cdn.example.com/a.png"
	updated, err := env.userUC.UpdateProfile(ctx, alice.Id, entity.UpdateProfileRequest{Avatar: &avatar})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Avatar != avatar || updated.Fullname != "Alice" {
		t.Errorf("Unexpected profile %+v", updated)
	}

	name := "  Alice Liddell "
	if _, err := env.userUC.UpdateProfile(ctx, alice.Id, entity.UpdateProfileRequest{Fullname: &name}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	got, err := env.userUC.Get(ctx, alice.Id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Fullname != "Alice Liddell" || got.Avatar != avatar {
		t.Errorf("Expected fresh profile after update, got %+v", got)
	}

	blank := "   "
	badAvatar := "javascript:alert(1)"
	long := strings.Repeat("x", 101)
	tests := []struct {
		name string
		req  entity.UpdateProfileRequest
	}{
		{"nothing to change", entity.UpdateProfileRequest{}},
		{"blank fullname", entity.UpdateProfileRequest{Fullname: &blank}},
		{"long fullname", entity.UpdateProfileRequest{Fullname: &long}},
		{"non-http avatar", entity.UpdateProfileRequest{Avatar: &badAvatar}},
	}
	for _, tt := range tests {
		if _, err := env.userUC.UpdateProfile(ctx, alice.Id, tt.req); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}

	if _, err := env.userUC.UpdateProfile(ctx, 9999, entity.UpdateProfileRequest{Fullname: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}
