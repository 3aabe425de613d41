package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/store"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeTestUser(t, s, "test@example.com")
	if u.ID == 0 {
		t.Fatal("expected ID to be assigned")
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "test@example.com" {
		t.Errorf("Email: got %q", got.Email)
	}
	if got.Name != "Test Name" {
		t.Errorf("Name: got %q", got.Name)
	}
	if !got.IsActive || got.IsStaff || got.IsSuperuser {
		t.Errorf("flags: active=%v staff=%v super=%v", got.IsActive, got.IsStaff, got.IsSuperuser)
	}
	if got.PasswordHash != u.PasswordHash {
		t.Errorf("PasswordHash not persisted")
	}

	byEmail, err := s.GetUserByEmail(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("GetUserByEmail returned id %d, want %d", byEmail.ID, u.ID)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	makeTestUser(t, s, "dup@example.com")

	u := *makeTestUserValue("dup@example.com")
	err := s.CreateUser(context.Background(), &u)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUser(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUser: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUserByEmail: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProfile_WritesOnlyNamedColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeTestUser(t, s, "old@example.com")
	name := "Updated Name"

	got, err := s.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Name != "Updated Name" {
		t.Errorf("Name: got %q", got.Name)
	}
	if got.Email != "old@example.com" || got.PasswordHash != u.PasswordHash {
		t.Errorf("untouched columns changed: %+v", got)
	}

	hash := "new-hash"
	got, err = s.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{PasswordHash: &hash})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.PasswordHash != "new-hash" || got.Name != "Updated Name" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	s := newTestStore(t)
	makeTestUser(t, s, "taken@example.com")
	u := makeTestUser(t, s, "mine@example.com")

	email := "taken@example.com"
	if _, err := s.UpdateProfile(context.Background(), u.ID, domain.ProfileUpdate{Email: &email}); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateProfile_NotFound(t *testing.T) {
	s := newTestStore(t)
	name := "Ghost"

	if _, err := s.UpdateProfile(context.Background(), 42, domain.ProfileUpdate{Name: &name}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTouchLastLogin_KeepsCredentials(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "login@example.com")

	hash := "changed-meanwhile"
	if _, err := s.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{PasswordHash: &hash}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if err := s.TouchLastLogin(ctx, u.ID, time.Now()); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.LastLoginAt == nil {
		t.Error("LastLoginAt not persisted")
	}
	if got.PasswordHash != "changed-meanwhile" {
		t.Errorf("PasswordHash overwritten: got %q", got.PasswordHash)
	}

	if err := s.TouchLastLogin(ctx, 999, time.Now()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetUserActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "toggle@example.com")

	if err := s.SetUserActive(ctx, u.ID, false); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.IsActive {
		t.Error("expected user to be inactive")
	}

	if err := s.SetUserActive(ctx, 999, true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser_CascadesToOwnedRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "gone@example.com")

	if _, err := s.CreateRecipe(ctx, makeTestRecipe(u.ID, "Soup"), tagsOnly("Winter")); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	for _, table := range []string{"recipes", "tags", "recipe_tags"} {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s: expected 0 rows after user delete, got %d", table, n)
		}
	}
}
