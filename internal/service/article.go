package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// maxSlugAttempts bounds the retry loop when a freshly generated slug
// collides with an existing one. With a 36^6 random suffix, hitting the
// bound means something is seriously wrong with the database.
const maxSlugAttempts = 5

// ArticleService owns the article catalog: creation, lookup, mutation,
// listing, the personalized feed, favorites, and the tag index.
type ArticleService struct {
	articles  repository.ArticleRepository
	users     repository.UserRepository
	follows   repository.FollowRepository
	favorites repository.FavoriteRepository
	logger    *slog.Logger
}

func NewArticleService(
	articles repository.ArticleRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	favorites repository.FavoriteRepository,
	logger *slog.Logger,
) *ArticleService {
	return &ArticleService{
		articles:  articles,
		users:     users,
		follows:   follows,
		favorites: favorites,
		logger:    logger,
	}
}

// ArticleDraft is the payload for creating an article.
type ArticleDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

// ArticlePatch is the closed set of fields an update may change. Nil means
// "leave unchanged"; a nil TagList keeps the existing tags, an empty
// non-nil one clears them.
type ArticlePatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Body        *string  `json:"body"`
	TagList     []string `json:"tagList"`
}

// ListFilter carries the query parameters of the public listing. Author and
// FavoritedBy are usernames; the service resolves them to IDs before hitting
// the catalog.
type ListFilter struct {
	Tag         string
	Author      string
	FavoritedBy string
	Limit       int
	Offset      int
}

// Create stores a new article for authorID. The slug is derived from the
// title with a random suffix; on the (rare) unique-constraint collision a
// fresh suffix is tried.
func (s *ArticleService) Create(ctx context.Context, authorID string, draft ArticleDraft) (*model.Article, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}

	article := &model.Article{
		Title:       title,
		Description: draft.Description,
		Body:        draft.Body,
		TagList:     draft.TagList,
		AuthorID:    authorID,
	}

	for attempt := 1; ; attempt++ {
		article.Slug = newSlug(title)
		err := s.articles.Create(ctx, article)
		if err == nil {
			break
		}
		if errors.Is(err, apperror.ErrConflict) && attempt < maxSlugAttempts {
			continue
		}
		return nil, fmt.Errorf("creating article: %w", err)
	}

	s.logger.Info("article created",
		slog.String("articleID", article.ID),
		slog.String("slug", article.Slug),
		slog.String("authorID", authorID),
	)

	// Re-read through the catalog so the response carries the author
	// profile exactly as every other read path reports it.
	return s.Get(ctx, article.Slug, authorID)
}

// Get returns the article for slug, annotated for viewerID. An empty
// viewerID (anonymous) yields favorited=false and author.following=false.
func (s *ArticleService) Get(ctx context.Context, slug, viewerID string) (*model.Article, error) {
	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.annotate(ctx, viewerID, []model.Article{}, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Update applies a patch to the article behind slug. Only the author may
// update; anyone else gets Forbidden. A changed title regenerates the slug,
// so the old URL stops resolving.
func (s *ArticleService) Update(ctx context.Context, actorID, slug string, patch ArticlePatch) (*model.Article, error) {
	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != actorID {
		return nil, apperror.Forbidden("only the author can update this article")
	}

	titleChanged := false
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "title must not be empty")
		}
		titleChanged = title != article.Title
		article.Title = title
	}
	if patch.Description != nil {
		article.Description = *patch.Description
	}
	if patch.Body != nil {
		article.Body = *patch.Body
	}
	if patch.TagList != nil {
		article.TagList = patch.TagList
	}

	for attempt := 1; ; attempt++ {
		if titleChanged {
			article.Slug = newSlug(article.Title)
		}
		err := s.articles.Update(ctx, article)
		if err == nil {
			break
		}
		// Only a regenerated slug can collide; an unchanged one already
		// belongs to this row.
		if titleChanged && errors.Is(err, apperror.ErrConflict) && attempt < maxSlugAttempts {
			continue
		}
		return nil, err
	}

	s.logger.Info("article updated",
		slog.String("articleID", article.ID),
		slog.String("slug", article.Slug),
	)

	return s.Get(ctx, article.Slug, actorID)
}

// Delete removes the article behind slug. Author-only, like Update.
func (s *ArticleService) Delete(ctx context.Context, actorID, slug string) error {
	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if article.AuthorID != actorID {
		return apperror.Forbidden("only the author can delete this article")
	}

	if err := s.articles.Delete(ctx, article.ID); err != nil {
		return err
	}

	s.logger.Info("article deleted",
		slog.String("articleID", article.ID),
		slog.String("slug", slug),
	)
	return nil
}

// List returns one page of the public catalog plus the total count of
// matching articles. Unknown author or favoritedBy usernames produce an
// empty result, not an error.
func (s *ArticleService) List(ctx context.Context, viewerID string, filter ListFilter) ([]model.Article, int, error) {
	repoFilter := repository.ArticleFilter{
		Tag:    filter.Tag,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	if filter.Author != "" {
		author, err := s.users.GetByUsername(ctx, filter.Author)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return []model.Article{}, 0, nil
			}
			return nil, 0, err
		}
		repoFilter.AuthorIDs = []string{author.ID}
	}

	if filter.FavoritedBy != "" {
		user, err := s.users.GetByUsername(ctx, filter.FavoritedBy)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return []model.Article{}, 0, nil
			}
			return nil, 0, err
		}
		ids, err := s.favorites.FavoritedIDs(ctx, user.ID)
		if err != nil {
			return nil, 0, err
		}
		if len(ids) == 0 {
			return []model.Article{}, 0, nil
		}
		repoFilter.ArticleIDs = ids
	}

	articles, total, err := s.articles.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	if err := s.annotate(ctx, viewerID, articles, nil); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// Feed returns one page of articles by authors viewerID follows, newest
// first. A user following nobody gets an empty feed without the catalog
// ever being queried.
func (s *ArticleService) Feed(ctx context.Context, viewerID string, limit, offset int) ([]model.Article, int, error) {
	authorIDs, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	if len(authorIDs) == 0 {
		return []model.Article{}, 0, nil
	}

	articles, total, err := s.articles.List(ctx, repository.ArticleFilter{
		AuthorIDs: authorIDs,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, 0, err
	}

	if err := s.annotate(ctx, viewerID, articles, nil); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// Favorite marks the article behind slug as favorited by userID and returns
// it with the refreshed count. Favoriting twice changes nothing.
func (s *ArticleService) Favorite(ctx context.Context, userID, slug string) (*model.Article, error) {
	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	added, err := s.favorites.AddFavorite(ctx, userID, article.ID)
	if err != nil {
		return nil, err
	}
	if added {
		article.FavoritesCount++
	}
	article.Favorited = true

	if err := s.annotateAuthors(ctx, userID, []model.Article{}, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Unfavorite removes userID's favorite from the article behind slug.
// Unfavoriting something never favorited changes nothing.
func (s *ArticleService) Unfavorite(ctx context.Context, userID, slug string) (*model.Article, error) {
	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	removed, err := s.favorites.RemoveFavorite(ctx, userID, article.ID)
	if err != nil {
		return nil, err
	}
	if removed && article.FavoritesCount > 0 {
		article.FavoritesCount--
	}
	article.Favorited = false

	if err := s.annotateAuthors(ctx, userID, []model.Article{}, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Tags returns every tag currently attached to at least one article.
func (s *ArticleService) Tags(ctx context.Context) ([]string, error) {
	return s.articles.ListTags(ctx)
}

// annotate fills in the viewer-specific fields (favorited, author.following)
// on a page of articles and/or a single article. Anonymous viewers keep the
// zero values.
func (s *ArticleService) annotate(ctx context.Context, viewerID string, articles []model.Article, single *model.Article) error {
	if viewerID == "" {
		return nil
	}

	favoritedIDs, err := s.favorites.FavoritedIDs(ctx, viewerID)
	if err != nil {
		return fmt.Errorf("annotating favorites: %w", err)
	}
	favorited := make(map[string]bool, len(favoritedIDs))
	for _, id := range favoritedIDs {
		favorited[id] = true
	}

	for i := range articles {
		articles[i].Favorited = favorited[articles[i].ID]
	}
	if single != nil {
		single.Favorited = favorited[single.ID]
	}

	return s.annotateAuthors(ctx, viewerID, articles, single)
}

// annotateAuthors sets author.following from the viewer's follow set.
func (s *ArticleService) annotateAuthors(ctx context.Context, viewerID string, articles []model.Article, single *model.Article) error {
	if viewerID == "" {
		return nil
	}

	followingIDs, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return fmt.Errorf("annotating follows: %w", err)
	}
	following := make(map[string]bool, len(followingIDs))
	for _, id := range followingIDs {
		following[id] = true
	}

	for i := range articles {
		articles[i].Author.Following = following[articles[i].AuthorID]
	}
	if single != nil {
		single.Author.Following = following[single.AuthorID]
	}
	return nil
}
