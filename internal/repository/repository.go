// Package repository defines the persistence interfaces the service layer
// programs against. The sqlite subpackage is the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/conduit/internal/model"
)

// ArticleFilter is the closed set of criteria ListArticles accepts.
//
// The service layer resolves usernames before building a filter, so the
// repository only ever sees resolved IDs. A nil AuthorIDs/ArticleIDs slice
// means "no restriction"; callers that resolved a username to an empty set
// must short-circuit and never issue the query (avoids a degenerate IN ()).
type ArticleFilter struct {
	Tag        string   // only articles whose tag list contains this exact tag
	AuthorIDs  []string // only articles authored by one of these users
	ArticleIDs []string // only these articles (favoritedBy resolution)
	Limit      int      // page size; repository clamps to a sane range
	Offset     int
}

type UserRepository interface {
	// Create inserts a new user. Duplicate username or email surfaces as
	// apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByEmail is the only lookup that selects the password hash; it
	// exists for login.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Update persists username/email/bio/image/password_hash. Duplicate
	// username or email surfaces as apperror.ErrConflict.
	Update(ctx context.Context, user *model.User) error
}

type ArticleRepository interface {
	// Create inserts the article and its tag list in one transaction.
	// A slug collision surfaces as apperror.ErrConflict so the caller can
	// retry with a fresh suffix.
	Create(ctx context.Context, article *model.Article) error
	GetBySlug(ctx context.Context, slug string) (*model.Article, error)
	// List returns one page of matching articles, newest first, plus the
	// total number of matching rows regardless of paging.
	List(ctx context.Context, filter ArticleFilter) ([]model.Article, int, error)
	// Update rewrites the mutable fields and the tag list in one
	// transaction. Slug collisions surface as apperror.ErrConflict.
	Update(ctx context.Context, article *model.Article) error
	Delete(ctx context.Context, id string) error
	// ListTags returns the distinct tag names in use, sorted.
	ListTags(ctx context.Context) ([]string, error)
}

type FollowRepository interface {
	// Follow records the edge follower→following. Idempotent: an existing
	// edge is left alone, never duplicated.
	Follow(ctx context.Context, followerID, followingID string) error
	// Unfollow removes the edge if present. Idempotent.
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	// FollowingIDs returns the set of user IDs the given user follows.
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)
}

type FavoriteRepository interface {
	// AddFavorite records the edge and bumps the article's favorites count
	// in the same transaction. Returns false (and changes nothing) when the
	// edge already exists.
	AddFavorite(ctx context.Context, userID, articleID string) (bool, error)
	// RemoveFavorite is the symmetric idempotent removal; the count
	// decrement floors at zero.
	RemoveFavorite(ctx context.Context, userID, articleID string) (bool, error)
	// FavoritedIDs returns the IDs of every article the user favorited,
	// for O(1) per-article annotation of list responses.
	FavoritedIDs(ctx context.Context, userID string) ([]string, error)
}
