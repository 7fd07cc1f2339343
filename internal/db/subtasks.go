package db

import (
	"context"

	"github.com/tgienger/tabdo/internal/models"
)

// CreateSubtask creates a new subtask on a task
func (db *DB) CreateSubtask(ctx context.Context, taskID int64, name string) (*models.Subtask, error) {
	result, err := db.ExecContext(ctx, `
		INSERT INTO subtasks (task_id, name) VALUES (?, ?)
	`, taskID, name)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetSubtask(ctx, id)
}

// GetSubtask retrieves a subtask by ID
func (db *DB) GetSubtask(ctx context.Context, id int64) (*models.Subtask, error) {
	st := &models.Subtask{}
	err := db.QueryRowContext(ctx, `
		SELECT id, task_id, name, completed, created_at
		FROM subtasks WHERE id = ?
	`, id).Scan(&st.ID, &st.TaskID, &st.Name, &st.Completed, &st.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return st, nil
}

// ListSubtasks retrieves all subtasks for a task in creation order
func (db *DB) ListSubtasks(ctx context.Context, taskID int64) ([]models.Subtask, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, task_id, name, completed, created_at
		FROM subtasks
		WHERE task_id = ?
		ORDER BY id ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subtasks []models.Subtask
	for rows.Next() {
		var st models.Subtask
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Name, &st.Completed, &st.CreatedAt); err != nil {
			return nil, err
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, rows.Err()
}

// UpdateSubtaskName renames a subtask
func (db *DB) UpdateSubtaskName(ctx context.Context, id int64, name string) error {
	return requireRow(db.ExecContext(ctx, "UPDATE subtasks SET name = ? WHERE id = ?", name, id))
}

// SetSubtaskCompleted sets a subtask's completion flag
func (db *DB) SetSubtaskCompleted(ctx context.Context, id int64, completed bool) error {
	return requireRow(db.ExecContext(ctx, "UPDATE subtasks SET completed = ? WHERE id = ?", completed, id))
}

// DeleteSubtask deletes a subtask
func (db *DB) DeleteSubtask(ctx context.Context, id int64) error {
	return requireRow(db.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ?", id))
}
