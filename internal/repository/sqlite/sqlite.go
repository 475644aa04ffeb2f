// Package sqlite implements the repository interfaces on SQLite via the
// pure-Go modernc.org/sqlite driver (no CGo, cross-compiles anywhere).
//
// One DB value implements all four repository interfaces — users, articles,
// follows, and favorites live in the same database and several operations
// (favorite toggles, article create with tags) span tables inside a single
// transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests), configures it,
// and runs migrations.
//
// WAL mode lets reads proceed while a write is in flight — without it SQLite
// locks the whole file per write, which hurts under concurrent requests.
// Foreign keys are off by default in SQLite and must be switched on; the
// favorite/article cascade relies on them.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each pooled connection would otherwise see its own empty
		// in-memory database.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers should defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
//
// Uniqueness lives in the schema, not in application checks:
//   - users.username / users.email — duplicate registration → Conflict
//   - articles.slug — the backstop for the probabilistic slug suffix
//   - follows / favorites primary keys — idempotent edge writes use
//     INSERT OR IGNORE against these instead of check-then-insert
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			bio           TEXT NOT NULL DEFAULT '',
			image         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id              TEXT PRIMARY KEY,
			slug            TEXT NOT NULL UNIQUE,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			body            TEXT NOT NULL DEFAULT '',
			favorites_count INTEGER NOT NULL DEFAULT 0,
			author_id       TEXT NOT NULL REFERENCES users(id),
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at);
		CREATE INDEX IF NOT EXISTS idx_articles_author_id ON articles(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating articles table: %w", err)
	}

	// Tags are a join table, not a serialized list: exact membership
	// filtering stays a plain equality match (no LIKE, no substring
	// false-positives) and position preserves the author's ordering.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS article_tags (
			article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			position   INTEGER NOT NULL,
			tag        TEXT NOT NULL,
			PRIMARY KEY (article_id, position)
		);
		CREATE INDEX IF NOT EXISTS idx_article_tags_tag ON article_tags(tag);
	`)
	if err != nil {
		return fmt.Errorf("creating article_tags table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS follows (
			follower_id  TEXT NOT NULL REFERENCES users(id),
			following_id TEXT NOT NULL REFERENCES users(id),
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (follower_id, following_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating follows table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS favorites (
			user_id    TEXT NOT NULL REFERENCES users(id),
			article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, article_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating favorites table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure (extended codes 1555 for primary keys, 2067 for UNIQUE columns).
// The repository methods translate these into apperror.Conflict.
func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == 1555 || code == 2067
	}
	return false
}

// inTx runs fn inside a transaction, committing on nil and rolling back on
// error. Multi-step mutations (favorite toggle, article create/update with
// tag rewrite) go through here so partial application is never observable.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
