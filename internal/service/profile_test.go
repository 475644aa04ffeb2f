package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/conduit/internal/apperror"
)

func TestProfileGet_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	registerTestUser(t, env, "jake")

	profile, err := env.profiles.Get(context.Background(), "jake", "")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if profile.Username != "jake" {
		t.Errorf("username = %q, want %q", profile.Username, "jake")
	}
	if profile.Following {
		t.Error("anonymous viewer got following = true")
	}
}

func TestProfileGet_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.profiles.Get(context.Background(), "nobody", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestFollowThenGet(t *testing.T) {
	env := newTestEnv(t)
	jake := registerTestUser(t, env, "jake")
	registerTestUser(t, env, "anna")
	ctx := context.Background()

	profile, err := env.profiles.Follow(ctx, jake.ID, "anna")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if !profile.Following {
		t.Error("Follow() returned following = false")
	}

	// The follow must be visible on a later read by the same viewer...
	profile, err = env.profiles.Get(ctx, "anna", jake.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !profile.Following {
		t.Error("Get() after Follow() returned following = false")
	}

	// ...but not to anyone else.
	profile, err = env.profiles.Get(ctx, "anna", "")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if profile.Following {
		t.Error("follow state leaked to an anonymous viewer")
	}
}

func TestFollow_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	jake := registerTestUser(t, env, "jake")
	registerTestUser(t, env, "anna")
	ctx := context.Background()

	if _, err := env.profiles.Follow(ctx, jake.ID, "anna"); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	profile, err := env.profiles.Follow(ctx, jake.ID, "anna")
	if err != nil {
		t.Fatalf("Follow() second call error = %v", err)
	}
	if !profile.Following {
		t.Error("repeat Follow() returned following = false")
	}
}

func TestFollow_Self(t *testing.T) {
	env := newTestEnv(t)
	jake := registerTestUser(t, env, "jake")

	_, err := env.profiles.Follow(context.Background(), jake.ID, "jake")
	if !errors.Is(err, apperror.ErrInvalid) {
		t.Errorf("Follow() self error = %v, want ErrInvalid", err)
	}
}

func TestFollow_TargetNotFound(t *testing.T) {
	env := newTestEnv(t)
	jake := registerTestUser(t, env, "jake")

	_, err := env.profiles.Follow(context.Background(), jake.ID, "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Follow() error = %v, want ErrNotFound", err)
	}
}

func TestUnfollow(t *testing.T) {
	env := newTestEnv(t)
	jake := registerTestUser(t, env, "jake")
	registerTestUser(t, env, "anna")
	ctx := context.Background()

	if _, err := env.profiles.Follow(ctx, jake.ID, "anna"); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}

	profile, err := env.profiles.Unfollow(ctx, jake.ID, "anna")
	if err != nil {
		t.Fatalf("Unfollow() error = %v", err)
	}
	if profile.Following {
		t.Error("Unfollow() returned following = true")
	}

	// Unfollowing someone never followed is a no-op.
	if _, err := env.profiles.Unfollow(ctx, jake.ID, "anna"); err != nil {
		t.Errorf("repeat Unfollow() error = %v", err)
	}
}
