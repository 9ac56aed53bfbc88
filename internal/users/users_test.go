package users

import (
	"context"
	"errors"
	"testing"

	"social-backend/internal/errs"
	"social-backend/internal/logging"
	"social-backend/internal/store"
)

func newService() (*Service, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return NewService(st, logging.Nop()), st
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	u, err := svc.Register(ctx, "alice@example.com", "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.PasswordHash != "" {
		t.Fatal("registered user must not expose the password hash")
	}
	if u.Followers == nil || u.Following == nil {
		t.Fatal("follow lists must be initialized")
	}

	got, err := svc.Authenticate(ctx, "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("authenticated id = %s, want %s", got.ID, u.ID)
	}
	if got.PasswordHash != "" {
		t.Fatal("authenticated user must not expose the password hash")
	}
}

func TestAuthenticateUniformFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	if _, err := svc.Register(ctx, "alice@example.com", "alice", "s3cret"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, wrongPassword := svc.Authenticate(ctx, "alice@example.com", "nope")
	_, unknownEmail := svc.Authenticate(ctx, "ghost@example.com", "s3cret")

	if !errors.Is(wrongPassword, errs.ErrNotFound) {
		t.Fatalf("wrong password err = %v, want ErrNotFound", wrongPassword)
	}
	if !errors.Is(unknownEmail, errs.ErrNotFound) {
		t.Fatalf("unknown email err = %v, want ErrNotFound", unknownEmail)
	}
	// Identical messages, so callers cannot probe registered addresses.
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("errors differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	if _, err := svc.Register(ctx, "alice@example.com", "alice", "s3cret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, "alice@example.com", "alice2", "other")
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("duplicate email err = %v, want ErrConflict", err)
	}
}

func TestUpdateProfilePartialPatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	u, err := svc.Register(ctx, "alice@example.com", "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	bio := "gopher"
	got, err := svc.UpdateProfile(ctx, u.ID, store.ProfilePatch{Bio: &bio})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Bio != "gopher" {
		t.Fatalf("bio = %q, want gopher", got.Bio)
	}
	// Untouched fields survive.
	if got.Username != "alice" {
		t.Fatalf("username = %q, want alice", got.Username)
	}
	if got.PasswordHash != "" {
		t.Fatal("updated user must not expose the password hash")
	}

	if _, err := svc.UpdateProfile(ctx, "ghost", store.ProfilePatch{Bio: &bio}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("update missing user err = %v, want ErrNotFound", err)
	}
}

func TestGetStripsPasswordHash(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	u, err := svc.Register(ctx, "alice@example.com", "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := svc.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PasswordHash != "" {
		t.Fatal("profile must not expose the password hash")
	}
}
