package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
)

// newTestDB opens a fresh in-memory database for one test. t.Cleanup closes
// it when the test (or subtest) finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username, email string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hash-" + username,
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %s: %v", username, err)
	}
	return user
}

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Username:     "jake",
		Email:        "jake@example.com",
		PasswordHash: "somehash",
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "jake", "jake@example.com")

	dup := &model.User{Username: "jake", Email: "other@example.com", PasswordHash: "h"}
	err := db.Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "jake", "jake@example.com")

	dup := &model.User{Username: "notjake", Email: "jake@example.com", PasswordHash: "h"}
	err := db.Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

func TestUserGet_ByIDAndUsernameOmitHash(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "jake", "jake@example.com")

	byID, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.PasswordHash != "" {
		t.Error("GetByID() leaked the password hash")
	}
	if byID.Username != "jake" {
		t.Errorf("GetByID() username = %q, want %q", byID.Username, "jake")
	}

	byName, err := db.GetByUsername(context.Background(), "jake")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if byName.PasswordHash != "" {
		t.Error("GetByUsername() leaked the password hash")
	}
}

func TestUserGetByEmail_IncludesHash(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "jake", "jake@example.com")

	user, err := db.GetByEmail(context.Background(), "jake@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if user.PasswordHash != "hash-jake" {
		t.Errorf("GetByEmail() hash = %q, want %q", user.PasswordHash, "hash-jake")
	}
}

func TestUserGet_NotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetByUsername(context.Background(), "nobody"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetByID(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "jake", "jake@example.com")

	user.Bio = "I work at statefarm"
	user.Image = "https://example.com/jake.jpg"
	user.PasswordHash = ""
	if err := db.Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Bio != "I work at statefarm" {
		t.Errorf("bio = %q after update", got.Bio)
	}
}

// A loaded user carries no hash; saving it back must not wipe the stored one.
func TestUserUpdate_PreservesHashWhenEmpty(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "jake", "jake@example.com")

	loaded, err := db.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	loaded.Bio = "updated"
	if err := db.Update(context.Background(), loaded); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.GetByEmail(context.Background(), "jake@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.PasswordHash != "hash-jake" {
		t.Errorf("stored hash = %q, want %q", got.PasswordHash, "hash-jake")
	}
}

func TestUserUpdate_ReplacesHashWhenSet(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "jake", "jake@example.com")

	user.PasswordHash = "newhash"
	if err := db.Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.GetByEmail(context.Background(), "jake@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.PasswordHash != "newhash" {
		t.Errorf("stored hash = %q, want %q", got.PasswordHash, "newhash")
	}
}

func TestUserUpdate_ConflictOnTakenUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "jake", "jake@example.com")
	other := createTestUser(t, db, "anna", "anna@example.com")

	other.Username = "jake"
	err := db.Update(context.Background(), other)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Update() error = %v, want ErrConflict", err)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.User{ID: "missing", Username: "ghost", Email: "ghost@example.com"}
	if err := db.Update(context.Background(), ghost); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}
