package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/conduit/internal/repository"
)

// compile-time check that *DB implements repository.FollowRepository
var _ repository.FollowRepository = (*DB)(nil)

// Follow records the directed edge follower→following.
//
// INSERT OR IGNORE against the (follower_id, following_id) primary key makes
// this idempotent under concurrency — two simultaneous follows land exactly
// one row, with no check-then-insert race. Irreflexivity (no self-follow)
// is a business rule and lives in the service layer.
func (db *DB) Follow(ctx context.Context, followerID, followingID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO follows (follower_id, following_id) VALUES (?, ?)`,
		followerID, followingID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: following %s -> %s: %w", followerID, followingID, err)
	}
	return nil
}

// Unfollow removes the edge if present. Removing a missing edge is a no-op,
// not an error.
func (db *DB) Unfollow(ctx context.Context, followerID, followingID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unfollowing %s -> %s: %w", followerID, followingID, err)
	}
	return nil
}

// IsFollowing reports whether the edge follower→following exists.
func (db *DB) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND following_id = ?)`,
		followerID, followingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow %s -> %s: %w", followerID, followingID, err)
	}
	return exists, nil
}

// FollowingIDs returns the IDs of every user the given user follows.
// The feed composer short-circuits on an empty result before ever querying
// the article catalog.
func (db *DB) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT following_id FROM follows WHERE follower_id = ?`,
		followerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing followed users for %s: %w", followerID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning follow row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating follows: %w", err)
	}

	return ids, nil
}
