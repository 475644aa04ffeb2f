package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/conduit/internal/repository"
)

// compile-time check that *DB implements repository.FavoriteRepository
var _ repository.FavoriteRepository = (*DB)(nil)

// AddFavorite records the (user, article) edge and bumps the article's
// denormalized favorites_count, both inside one transaction so a partially
// applied toggle can never be observed.
//
// INSERT OR IGNORE plus the RowsAffected check is what makes the operation
// idempotent AND keeps the count honest: the count moves only when a row
// was actually inserted, so calling this twice increments by exactly one.
func (db *DB) AddFavorite(ctx context.Context, userID, articleID string) (bool, error) {
	var added bool
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO favorites (user_id, article_id) VALUES (?, ?)`,
			userID, articleID,
		)
		if err != nil {
			return err
		}
		inserted, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if inserted == 0 {
			return nil // already favorited — leave the count alone
		}
		added = true

		_, err = tx.ExecContext(ctx,
			`UPDATE articles SET favorites_count = favorites_count + 1 WHERE id = ?`,
			articleID,
		)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("sqlite: favoriting article %s for %s: %w", articleID, userID, err)
	}
	return added, nil
}

// RemoveFavorite deletes the edge and decrements the count in one
// transaction. Unfavoriting something never favorited is a no-op. The
// MAX(..., 0) floor keeps the count from ever going negative even if the
// denormalized value has drifted.
func (db *DB) RemoveFavorite(ctx context.Context, userID, articleID string) (bool, error) {
	var removed bool
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM favorites WHERE user_id = ? AND article_id = ?`,
			userID, articleID,
		)
		if err != nil {
			return err
		}
		deleted, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if deleted == 0 {
			return nil
		}
		removed = true

		_, err = tx.ExecContext(ctx,
			`UPDATE articles SET favorites_count = MAX(favorites_count - 1, 0) WHERE id = ?`,
			articleID,
		)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("sqlite: unfavoriting article %s for %s: %w", articleID, userID, err)
	}
	return removed, nil
}

// FavoritedIDs returns the IDs of every article the user has favorited.
// List/feed annotation does one membership test per article against this
// set instead of a query per row.
func (db *DB) FavoritedIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT article_id FROM favorites WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing favorites for %s: %w", userID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning favorite row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating favorites: %w", err)
	}

	return ids, nil
}
