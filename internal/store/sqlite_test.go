// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers user CRUD, uniqueness constraints, and password updates

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestUser(username, email string) *User {
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehashfakehash",
	}
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestCreateAndGetUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := newTestUser("alice", "alice@example.com")
	user.CredentialIsDefault = true

	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == 0 {
		t.Error("CreateUser did not assign an id")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser did not set timestamps")
	}

	got, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, want %q", got.Username, "alice")
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "alice@example.com")
	}
	if got.PasswordHash != user.PasswordHash {
		t.Error("PasswordHash not persisted")
	}
	if !got.CredentialIsDefault {
		t.Error("CredentialIsDefault = false, want true")
	}
}

func TestGetUser_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetUser(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser error = %v, want ErrNotFound", err)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateUser(ctx, newTestUser("alice", "alice@example.com")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	err := store.CreateUser(ctx, newTestUser("alice", "other@example.com"))
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("CreateUser error = %v, want ErrUsernameExists", err)
	}

	// No partial write
	count, err := store.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountUsers = %d, want 1", count)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateUser(ctx, newTestUser("alice", "alice@example.com")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	err := store.CreateUser(ctx, newTestUser("bob", "alice@example.com"))
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("CreateUser error = %v, want ErrEmailExists", err)
	}
}

func TestGetUserByUsername_Absent(t *testing.T) {
	store := newTestStore(t)

	user, err := store.GetUserByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if user != nil {
		t.Errorf("GetUserByUsername = %+v, want nil for absent user", user)
	}
}

func TestGetUserByUsernameAndEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := newTestUser("carol", "carol@example.com")
	if err := store.CreateUser(ctx, created); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byName, err := store.GetUserByUsername(ctx, "carol")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if byName == nil || byName.ID != created.ID {
		t.Errorf("GetUserByUsername = %+v, want id %d", byName, created.ID)
	}

	byEmail, err := store.GetUserByEmail(ctx, "carol@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail == nil || byEmail.ID != created.ID {
		t.Errorf("GetUserByEmail = %+v, want id %d", byEmail, created.ID)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := newTestUser("dave", "dave@example.com")
	user.CredentialIsDefault = true
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := store.UpdateUserPassword(ctx, user.ID, "$2a$10$newhashnewhashnewhashnewhash"); err != nil {
		t.Fatalf("UpdateUserPassword failed: %v", err)
	}

	got, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.PasswordHash != "$2a$10$newhashnewhashnewhashnewhash" {
		t.Error("password hash was not replaced")
	}
	if got.CredentialIsDefault {
		t.Error("CredentialIsDefault still true after password change")
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Error("UpdatedAt was not refreshed")
	}
}

func TestUpdateUserPassword_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateUserPassword(context.Background(), 42, "hash")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUserPassword error = %v, want ErrNotFound", err)
	}
}

func TestSanitized_StripsHash(t *testing.T) {
	u := newTestUser("erin", "erin@example.com")
	s := u.Sanitized()

	if s.PasswordHash != "" {
		t.Error("Sanitized() kept the password hash")
	}
	if u.PasswordHash == "" {
		t.Error("Sanitized() mutated the original")
	}
	if s.Username != u.Username || s.Email != u.Email {
		t.Error("Sanitized() lost identity fields")
	}
}
