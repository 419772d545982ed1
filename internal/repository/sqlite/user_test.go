package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmaia-dev/reelpick/internal/domain"
	"github.com/dmaia-dev/reelpick/internal/repository/sqlite"
)

func newUser(email string) *domain.User {
	return &domain.User{
		Email:             email,
		Username:          "Test User",
		PasswordHash:      "$2a$04$fakehashfakehashfakehash",
		IsActive:          false,
		ConfirmationToken: "token-" + email,
	}
}

func TestUserRepository_CreateAssignsID(t *testing.T) {
	db := newTestDB(t)
	repo := db.Users()
	ctx := context.Background()

	user := newUser("create@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := db.Users()
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("dup@example.com")); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	second := newUser("dup@example.com")
	second.ConfirmationToken = "different-token"
	err := repo.Create(ctx, second)
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	// The constraint is case-insensitive.
	third := newUser("DUP@example.com")
	third.ConfirmationToken = "another-token"
	err = repo.Create(ctx, third)
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail for upper-cased email, got %v", err)
	}
}

func TestUserRepository_GetByEmail_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	repo := db.Users()
	ctx := context.Background()

	user := newUser("case@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "CASE@Example.COM")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected id %s, got %s", user.ID, got.ID)
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := db.Users()

	_, err := repo.GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_GetByConfirmationToken(t *testing.T) {
	db := newTestDB(t)
	repo := db.Users()
	ctx := context.Background()

	user := newUser("token@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByConfirmationToken(ctx, user.ConfirmationToken)
	if err != nil {
		t.Fatalf("GetByConfirmationToken: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected id %s, got %s", user.ID, got.ID)
	}

	// An empty token must never match the cleared-token rows.
	if _, err := repo.GetByConfirmationToken(ctx, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty token, got %v", err)
	}
}

func TestUserRepository_Update_MergesFields(t *testing.T) {
	db := newTestDB(t)
	repo := db.Users()
	ctx := context.Background()

	user := newUser("merge@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	newName := "Renamed"
	if err := repo.Update(ctx, user.ID, domain.UserUpdate{Username: &newName}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Username != "Renamed" {
		t.Fatalf("expected username Renamed, got %s", got.Username)
	}
	// Untouched fields survive the merge.
	if got.Email != user.Email {
		t.Fatalf("email changed: %s", got.Email)
	}
	if got.PasswordHash != user.PasswordHash {
		t.Fatal("password hash changed by unrelated update")
	}
	if got.ConfirmationToken != user.ConfirmationToken {
		t.Fatal("confirmation token changed by unrelated update")
	}
}

func TestUserRepository_Update_ActivationClearsToken(t *testing.T) {
	db := newTestDB(t)
	repo := db.Users()
	ctx := context.Background()

	user := newUser("activate@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	active := true
	cleared := ""
	err := repo.Update(ctx, user.ID, domain.UserUpdate{IsActive: &active, ConfirmationToken: &cleared})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsActive {
		t.Fatal("expected user to be active")
	}
	if got.ConfirmationToken != "" {
		t.Fatalf("expected cleared token, got %q", got.ConfirmationToken)
	}
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := db.Users()

	name := "Nobody"
	err := repo.Update(context.Background(), "no-such-id", domain.UserUpdate{Username: &name})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := db.Users()
	ctx := context.Background()

	user := newUser("delete@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// A deleted email is free for a new registration.
	if err := repo.Create(ctx, newUser("delete@example.com")); err != nil {
		t.Fatalf("re-register deleted email: %v", err)
	}

	if err := repo.Delete(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestUserRepository_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	user := newUser("persist@example.com")
	if err := db.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("reopen DB: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Migrate(ctx); err != nil {
		t.Fatalf("Migrate on reopen: %v", err)
	}

	got, err := reopened.Users().GetByEmail(ctx, "persist@example.com")
	if err != nil {
		t.Fatalf("GetByEmail after reopen: %v", err)
	}
	if got.ID != user.ID || got.ConfirmationToken != user.ConfirmationToken {
		t.Fatal("record did not survive restart intact")
	}
}
