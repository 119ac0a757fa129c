package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/model"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:        "alex@example.com",
		Name:         "Alex",
		PasswordHash: "$2a$10$fakehash",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}

	found, err := db.GetUserByEmail(context.Background(), "alex@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if found.ID != user.ID || found.Name != "Alex" {
		t.Errorf("round-trip mismatch: %+v", found)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alex@example.com")

	err := db.CreateUser(context.Background(), &model.User{Email: "alex@example.com"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "no-such-user")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpsertGitHub_InsertThenUpdate(t *testing.T) {
	db := newTestDB(t)

	first := &model.User{
		Email:     "octo@example.com",
		Name:      "octocat",
		GitHubID:  42,
		AvatarURL: "https://example.com/old.png",
	}
	if err := db.UpsertGitHub(context.Background(), first); err != nil {
		t.Fatalf("UpsertGitHub() insert error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("UpsertGitHub() did not assign an internal ID")
	}

	second := &model.User{
		Email:     "octo@example.com",
		Name:      "The Octocat",
		GitHubID:  42,
		AvatarURL: "https://example.com/new.png",
	}
	if err := db.UpsertGitHub(context.Background(), second); err != nil {
		t.Fatalf("UpsertGitHub() update error = %v", err)
	}

	// Same GitHub account keeps the same internal ID across logins — this
	// is what keeps the user's goals and tasks attached to them.
	if second.ID != first.ID {
		t.Errorf("internal ID changed: %s → %s", first.ID, second.ID)
	}

	found, err := db.GetUserByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Name != "The Octocat" || found.AvatarURL != "https://example.com/new.png" {
		t.Errorf("profile fields not refreshed: %+v", found)
	}
	if found.GitHubID != 42 {
		t.Errorf("GitHubID = %d, want 42", found.GitHubID)
	}
}

func TestCreateUser_NoGitHubID(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "plain@example.com")

	found, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	// github_id is NULL for email/password accounts; the scan must not choke.
	if found.GitHubID != 0 {
		t.Errorf("GitHubID = %d, want 0", found.GitHubID)
	}
}
