package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// compile-time check that *DB implements repository.ArticleRepository
var _ repository.ArticleRepository = (*DB)(nil)

const articleColumns = `a.id, a.slug, a.title, a.description, a.body,
	a.favorites_count, a.author_id, a.created_at, a.updated_at,
	u.username, u.bio, u.image`

// Create inserts an article and its tag list in one transaction.
//
// The slug's UNIQUE constraint is the real collision backstop for the random
// suffix: a duplicate comes back as apperror.ErrConflict and the service
// retries with a fresh suffix.
func (db *DB) Create(ctx context.Context, article *model.Article) error {
	now := time.Now()
	article.ID = xid.New().String()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.TagList == nil {
		article.TagList = []string{}
	}

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO articles (id, slug, title, description, body, favorites_count, author_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)`,
			article.ID,
			article.Slug,
			article.Title,
			article.Description,
			article.Body,
			article.AuthorID,
			article.CreatedAt,
			article.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return insertTags(ctx, tx, article.ID, article.TagList)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("slug", article.Slug)
		}
		return fmt.Errorf("sqlite: creating article %s: %w", article.Slug, err)
	}

	return nil
}

// GetBySlug retrieves a single article with its author profile and tag list.
// The author's Following flag is left false — it's viewer-specific and the
// service layer owns that annotation.
func (db *DB) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	var a model.Article
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+articleColumns+`
		 FROM articles a
		 JOIN users u ON u.id = a.author_id
		 WHERE a.slug = ?`,
		slug,
	).Scan(
		&a.ID, &a.Slug, &a.Title, &a.Description, &a.Body,
		&a.FavoritesCount, &a.AuthorID, &a.CreatedAt, &a.UpdatedAt,
		&a.Author.Username, &a.Author.Bio, &a.Author.Image,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("article", slug)
		}
		return nil, fmt.Errorf("sqlite: getting article %s: %w", slug, err)
	}

	tags, err := db.tagsFor(ctx, []string{a.ID})
	if err != nil {
		return nil, err
	}
	a.TagList = tags[a.ID]
	if a.TagList == nil {
		a.TagList = []string{}
	}

	return &a, nil
}

// List returns one page of articles matching the filter, newest first, and
// the total matching count computed before LIMIT/OFFSET are applied.
//
// All filter criteria arrive pre-resolved (IDs, never usernames) — see
// repository.ArticleFilter. The same query path serves both the public
// listing and the personalized feed; only the filter contents differ.
func (db *DB) List(ctx context.Context, filter repository.ArticleFilter) ([]model.Article, int, error) {
	var conds []string
	var args []any

	if filter.Tag != "" {
		conds = append(conds, `a.id IN (SELECT article_id FROM article_tags WHERE tag = ?)`)
		args = append(args, filter.Tag)
	}
	if len(filter.AuthorIDs) > 0 {
		conds = append(conds, `a.author_id IN (`+placeholders(len(filter.AuthorIDs))+`)`)
		for _, id := range filter.AuthorIDs {
			args = append(args, id)
		}
	}
	if len(filter.ArticleIDs) > 0 {
		conds = append(conds, `a.id IN (`+placeholders(len(filter.ArticleIDs))+`)`)
		for _, id := range filter.ArticleIDs {
			args = append(args, id)
		}
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	// Total count first, unaffected by paging. The returned articlesCount
	// must reflect every matching row, not just the page.
	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles a`+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting articles: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	// Secondary order on id keeps pages deterministic when several
	// articles share a created_at (xid is time-ordered).
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+articleColumns+`
		 FROM articles a
		 JOIN users u ON u.id = a.author_id`+where+`
		 ORDER BY a.created_at DESC, a.id DESC
		 LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing articles: %w", err)
	}
	defer rows.Close()

	articles := make([]model.Article, 0, limit)
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(
			&a.ID, &a.Slug, &a.Title, &a.Description, &a.Body,
			&a.FavoritesCount, &a.AuthorID, &a.CreatedAt, &a.UpdatedAt,
			&a.Author.Username, &a.Author.Bio, &a.Author.Image,
		); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning article row: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating articles: %w", err)
	}

	if err := db.attachTags(ctx, articles); err != nil {
		return nil, 0, err
	}

	return articles, total, nil
}

// Update rewrites the article's mutable fields and replaces its tag list in
// one transaction. A regenerated slug that collides surfaces as Conflict.
func (db *DB) Update(ctx context.Context, article *model.Article) error {
	article.UpdatedAt = time.Now()
	if article.TagList == nil {
		article.TagList = []string{}
	}

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE articles
			 SET slug = ?, title = ?, description = ?, body = ?, updated_at = ?
			 WHERE id = ?`,
			article.Slug,
			article.Title,
			article.Description,
			article.Body,
			article.UpdatedAt,
			article.ID,
		)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return apperror.NotFound("article", article.ID)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM article_tags WHERE article_id = ?`, article.ID,
		); err != nil {
			return err
		}
		return insertTags(ctx, tx, article.ID, article.TagList)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("slug", article.Slug)
		}
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("sqlite: updating article %s: %w", article.ID, err)
	}

	return nil
}

// Delete removes an article. Tag rows and favorite edges go with it via
// ON DELETE CASCADE.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM articles WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting article %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("article", id)
	}

	return nil
}

// ListTags returns every distinct tag in use, sorted.
func (db *DB) ListTags(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT tag FROM article_tags ORDER BY tag`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	return tags, nil
}

// insertTags writes the ordered tag list for an article inside a transaction.
func insertTags(ctx context.Context, tx *sql.Tx, articleID string, tags []string) error {
	for i, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_tags (article_id, position, tag) VALUES (?, ?, ?)`,
			articleID, i, tag,
		); err != nil {
			return err
		}
	}
	return nil
}

// attachTags loads the tag lists for a page of articles in a single query
// and attaches them in order.
func (db *DB) attachTags(ctx context.Context, articles []model.Article) error {
	if len(articles) == 0 {
		return nil
	}

	ids := make([]string, len(articles))
	for i := range articles {
		ids[i] = articles[i].ID
	}

	tags, err := db.tagsFor(ctx, ids)
	if err != nil {
		return err
	}

	for i := range articles {
		articles[i].TagList = tags[articles[i].ID]
		if articles[i].TagList == nil {
			articles[i].TagList = []string{}
		}
	}
	return nil
}

// tagsFor returns articleID → ordered tag list for the given article IDs.
func (db *DB) tagsFor(ctx context.Context, articleIDs []string) (map[string][]string, error) {
	args := make([]any, len(articleIDs))
	for i, id := range articleIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT article_id, tag FROM article_tags
		 WHERE article_id IN (`+placeholders(len(articleIDs))+`)
		 ORDER BY article_id, position`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string][]string)
	for rows.Next() {
		var articleID, tag string
		if err := rows.Scan(&articleID, &tag); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags[articleID] = append(tags[articleID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	return tags, nil
}

// placeholders returns "?, ?, ..., ?" with n placeholders for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
