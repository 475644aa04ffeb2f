package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository/sqlite"
)

const testSecret = "test-secret-at-least-16-chars-long"

// testEnv bundles the services wired against one in-memory database, the
// same way the server package wires them against the real file.
type testEnv struct {
	db       *sqlite.DB
	tokens   *auth.TokenService
	users    *UserService
	profiles *ProfileService
	articles *ArticleService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	// MinCost keeps the bcrypt work factor out of the test runtime.
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	return &testEnv{
		db:       db,
		tokens:   tokens,
		users:    NewUserService(db, tokens, passwords, logger),
		profiles: NewProfileService(db, db, logger),
		articles: NewArticleService(db, db, db, db, logger),
	}
}

func registerTestUser(t *testing.T, env *testEnv, username string) *model.User {
	t.Helper()
	user, _, err := env.users.Register(context.Background(), username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	return user
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	user, token, err := env.users.Register(context.Background(), "jake", "jake@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Register() did not assign an ID")
	}
	if user.PasswordHash != "" {
		t.Error("Register() returned the password hash")
	}

	claims, err := env.tokens.Validate(token)
	if err != nil {
		t.Fatalf("returned token does not validate: %v", err)
	}
	if claims.Subject != user.ID || claims.Username != "jake" {
		t.Errorf("token claims = (%s, %s), want (%s, jake)", claims.Subject, claims.Username, user.ID)
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@example.com", "pw"},
		{"whitespace username", "   ", "a@example.com", "pw"},
		{"empty email", "jake", "", "pw"},
		{"empty password", "jake", "a@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.users.Register(ctx, tt.username, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	registerTestUser(t, env, "jake")

	_, _, err := env.users.Register(context.Background(), "notjake", "jake@example.com", "pw")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Register() error = %v, want ErrConflict", err)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	registered := registerTestUser(t, env, "jake")

	user, token, err := env.users.Login(context.Background(), "jake@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("Login() user ID = %s, want %s", user.ID, registered.ID)
	}
	if user.PasswordHash != "" {
		t.Error("Login() returned the password hash")
	}
	if _, err := env.tokens.Validate(token); err != nil {
		t.Errorf("returned token does not validate: %v", err)
	}
}

// Wrong password and unknown email must be indistinguishable to the caller.
func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	registerTestUser(t, env, "jake")
	ctx := context.Background()

	_, _, err := env.users.Login(ctx, "jake@example.com", "wrong-password")
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("Login() with wrong password error = %v, want ErrUnauthenticated", err)
	}

	_, _, err = env.users.Login(ctx, "nobody@example.com", "password123")
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("Login() with unknown email error = %v, want ErrUnauthenticated", err)
	}
}

func TestUserUpdate_PartialPatch(t *testing.T) {
	env := newTestEnv(t)
	user := registerTestUser(t, env, "jake")

	bio := "I work at statefarm"
	updated, token, err := env.users.Update(context.Background(), user.ID, UserPatch{Bio: &bio})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Bio != bio {
		t.Errorf("bio = %q, want %q", updated.Bio, bio)
	}
	if updated.Username != "jake" || updated.Email != "jake@example.com" {
		t.Error("Update() touched fields that were not in the patch")
	}
	if token == "" {
		t.Error("Update() did not reissue a token")
	}
}

func TestUserUpdate_PasswordChange(t *testing.T) {
	env := newTestEnv(t)
	user := registerTestUser(t, env, "jake")
	ctx := context.Background()

	newPassword := "a-brand-new-password"
	if _, _, err := env.users.Update(ctx, user.ID, UserPatch{Password: &newPassword}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, _, err := env.users.Login(ctx, "jake@example.com", newPassword); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
	if _, _, err := env.users.Login(ctx, "jake@example.com", "password123"); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("Login() with old password error = %v, want ErrUnauthenticated", err)
	}
}

func TestUserUpdate_EmptyUsernameRejected(t *testing.T) {
	env := newTestEnv(t)
	user := registerTestUser(t, env, "jake")

	empty := "  "
	_, _, err := env.users.Update(context.Background(), user.ID, UserPatch{Username: &empty})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() error = %v, want ErrValidation", err)
	}
}
