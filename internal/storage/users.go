package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"budgetbook/internal/core"
)

// CreateUser inserts the user and assigns its id.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Username, u.PasswordHash, u.CreatedAt.Format(core.DateTimeFormat))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user insert id: %w", err)
	}
	u.ID = id
	return nil
}

// FindUserByUsername returns the user, or (nil, nil) when absent.
func (r *SQLiteRepository) FindUserByUsername(ctx context.Context, username string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)

	var u core.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if t, err := time.Parse(core.DateTimeFormat, createdAt); err == nil {
		u.CreatedAt = t
	}
	return &u, nil
}

// FindOrCreateUser resolves a username to a user record, creating it on
// first use. Authentication is out of scope here; the caller supplies an
// already-resolved identity.
func (r *SQLiteRepository) FindOrCreateUser(ctx context.Context, username string) (*core.User, error) {
	u, err := r.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	u = &core.User{Username: username}
	if err := r.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
