package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/model"
	"github.com/emstod/trunky-backend/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, name, password_hash, github_id, avatar_url, created_at, updated_at`

// CreateUser inserts a new email/password account. A duplicate email comes
// back from SQLite as a UNIQUE constraint violation, which we translate to
// the app's Conflict error so the handler can answer 409.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email (the login lookup).
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// UpsertGitHub inserts or refreshes a user keyed on their GitHub ID.
//
// First login inserts; subsequent logins keep the existing internal ID and
// update the profile fields in case they changed on GitHub. We look up the
// existing ID first rather than INSERT OR REPLACE because REPLACE would
// delete and re-insert the row, losing created_at and churning the rowid.
func (db *DB) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET email = ?, name = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Email,
			user.Name,
			user.AvatarURL,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, github_id, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.GitHubID,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

func (db *DB) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var githubID sql.NullInt64

	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash,
		&githubID, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if githubID.Valid {
		u.GitHubID = githubID.Int64
	}
	return &u, nil
}
