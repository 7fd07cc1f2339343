package db

import (
	"context"

	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
)

// CreateUser creates a new user
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	result, err := db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash) VALUES (?, ?)
	`, username, passwordHash)
	if isUnique(err) {
		return nil, todo.ErrDuplicateName
	}
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUser(ctx, id)
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	err := db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// GetUserByName retrieves a user by username
func (db *DB) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}
