package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user. The caller provides Username, Email, and
// PasswordHash; ID and timestamps are filled in here.
//
// Uniqueness of username and email is enforced by the schema — a violation
// comes back as apperror.ErrConflict rather than being pre-checked, so two
// concurrent registrations can't both slip through.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, bio, image, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.Bio,
		user.Image,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID. The password hash is not selected.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `id = ?`, id, false)
}

// GetByUsername retrieves a user by username. The password hash is not selected.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, `username = ?`, username, false)
}

// GetByEmail retrieves a user by email INCLUDING the password hash.
// Only the login path should call this.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `email = ?`, email, true)
}

func (db *DB) getUser(ctx context.Context, where, arg string, withHash bool) (*model.User, error) {
	cols := `id, username, email, bio, image, '', created_at, updated_at`
	if withHash {
		cols = `id, username, email, bio, image, password_hash, created_at, updated_at`
	}

	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+cols+` FROM users WHERE `+where, arg,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Bio,
		&u.Image,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", arg)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", arg, err)
	}

	return &u, nil
}

// Update persists the mutable user fields. The caller (service layer)
// applies the patch whitelist; this method writes whatever is on the struct.
// An empty PasswordHash means "leave the stored hash alone" — reads other
// than GetByEmail never load it, so a loaded-then-saved user must not wipe it.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	query := `UPDATE users
		 SET username = ?, email = ?, bio = ?, image = ?, updated_at = ?
		 WHERE id = ?`
	args := []any{user.Username, user.Email, user.Bio, user.Image, user.UpdatedAt, user.ID}
	if user.PasswordHash != "" {
		query = `UPDATE users
		 SET username = ?, email = ?, bio = ?, image = ?, password_hash = ?, updated_at = ?
		 WHERE id = ?`
		args = []any{user.Username, user.Email, user.Bio, user.Image, user.PasswordHash, user.UpdatedAt, user.ID}
	}

	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}
