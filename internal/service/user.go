// Package service contains the business logic layer: validation, ownership
// checks, slug generation, feed composition. Services accept repository
// interfaces and return apperror domain errors; they know nothing about
// HTTP. The handler layer translates in both directions.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// UserService handles registration, login, and self-service profile updates.
type UserService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// UserPatch is the closed set of fields a self-service update may change.
// Nil means "leave unchanged". There is deliberately no way to patch the
// ID or the stored hash directly — a blind field-copy merge would let a
// crafted payload overwrite them.
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
	Password *string `json:"password"`
}

// Register creates an account and returns the user plus a signed token.
// Duplicate username or email surfaces as ErrConflict from the repository.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, "", apperror.ValidationFailed("username", "username is required")
	}
	if email == "" {
		return nil, "", apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, "", apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, "", apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("registering user %s: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token for %s: %w", user.ID, err)
	}

	user.PasswordHash = ""
	return user, token, nil
}

// Login verifies credentials and returns the user plus a signed token.
//
// Both "no such email" and "wrong password" come back as the same
// Unauthenticated error so the response doesn't reveal which half failed.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", apperror.Unauthenticated("email or password is invalid")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, "", apperror.Unauthenticated("email or password is invalid")
	}

	token, err := s.tokens.Generate(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token for %s: %w", user.ID, err)
	}

	user.PasswordHash = ""
	return user, token, nil
}

// Get returns the current user's record.
func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Update applies a whitelist patch to the current user and returns the
// updated record plus a fresh token (the token embeds username and email,
// which may just have changed).
func (s *UserService) Update(ctx context.Context, userID string, patch UserPatch) (*model.User, string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username == "" {
			return nil, "", apperror.ValidationFailed("username", "username must not be empty")
		}
		user.Username = username
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email == "" {
			return nil, "", apperror.ValidationFailed("email", "email must not be empty")
		}
		user.Email = email
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Image != nil {
		user.Image = *patch.Image
	}
	if patch.Password != nil {
		hash, err := s.passwords.Hash(*patch.Password)
		if err != nil {
			return nil, "", apperror.ValidationFailed("password", err.Error())
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", fmt.Errorf("updating user %s: %w", userID, err)
	}

	s.logger.Info("user updated", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token for %s: %w", user.ID, err)
	}

	user.PasswordHash = ""
	return user, token, nil
}
