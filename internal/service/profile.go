package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// ProfileService exposes public profiles and the follow graph.
type ProfileService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	logger  *slog.Logger
}

func NewProfileService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:   users,
		follows: follows,
		logger:  logger,
	}
}

// Get returns the profile for username. viewerID may be empty (anonymous),
// in which case Following is always false.
func (s *ProfileService) Get(ctx context.Context, username, viewerID string) (*model.Profile, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	following := false
	if viewerID != "" && viewerID != user.ID {
		following, err = s.follows.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("checking follow state for %s: %w", username, err)
		}
	}

	return model.ProfileOf(user, following), nil
}

// Follow makes followerID follow username and returns the resulting profile.
// Following someone already followed is a no-op; following yourself is
// rejected.
func (s *ProfileService) Follow(ctx context.Context, followerID, username string) (*model.Profile, error) {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == followerID {
		return nil, apperror.Invalid("you cannot follow yourself")
	}

	if err := s.follows.Follow(ctx, followerID, target.ID); err != nil {
		return nil, fmt.Errorf("following %s: %w", username, err)
	}

	s.logger.Info("user followed",
		slog.String("followerID", followerID),
		slog.String("followingID", target.ID),
	)

	return model.ProfileOf(target, true), nil
}

// Unfollow removes the edge and returns the resulting profile. Unfollowing
// someone never followed is a no-op.
func (s *ProfileService) Unfollow(ctx context.Context, followerID, username string) (*model.Profile, error) {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == followerID {
		return nil, apperror.Invalid("you cannot unfollow yourself")
	}

	if err := s.follows.Unfollow(ctx, followerID, target.ID); err != nil {
		return nil, fmt.Errorf("unfollowing %s: %w", username, err)
	}

	return model.ProfileOf(target, false), nil
}
