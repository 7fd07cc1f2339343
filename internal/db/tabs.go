package db

import (
	"context"

	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
)

// CreateTab creates a new tab
func (db *DB) CreateTab(ctx context.Context, userID int64, name string) (*models.Tab, error) {
	result, err := db.ExecContext(ctx, "INSERT INTO tabs (user_id, name) VALUES (?, ?)", userID, name)
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

	return db.GetTab(ctx, id)
}

// GetTab retrieves a tab by ID
func (db *DB) GetTab(ctx context.Context, id int64) (*models.Tab, error) {
	t := &models.Tab{}
	err := db.QueryRowContext(ctx, "SELECT id, user_id, name, created_at FROM tabs WHERE id = ?", id).
		Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// ListTabs returns all tabs for a user in creation order
func (db *DB) ListTabs(ctx context.Context, userID int64) ([]models.Tab, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, name, created_at FROM tabs WHERE user_id = ? ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tabs []models.Tab
	for rows.Next() {
		var t models.Tab
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		tabs = append(tabs, t)
	}
	return tabs, rows.Err()
}

// DeleteTab deletes a tab (its tasks will have their tab_id set to NULL)
func (db *DB) DeleteTab(ctx context.Context, id int64) error {
	return requireRow(db.ExecContext(ctx, "DELETE FROM tabs WHERE id = ?", id))
}
