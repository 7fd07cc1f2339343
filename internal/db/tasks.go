package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tgienger/tabdo/internal/models"
)

const taskColumns = "id, user_id, tab_id, text, completed, position, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.UserID, &t.TabID, &t.Text, &t.Completed, &t.Position, &t.CreatedAt)
	return t, err
}

// CreateTask creates a new task
func (db *DB) CreateTask(ctx context.Context, t models.Task) (*models.Task, error) {
	result, err := db.ExecContext(ctx, `
		INSERT INTO tasks (user_id, tab_id, text, completed, position) VALUES (?, ?, ?, ?, ?)
	`, t.UserID, t.TabID, t.Text, t.Completed, t.Position)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetTask(ctx, id)
}

// GetTask retrieves a task by ID
func (db *DB) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ListTasks returns all tasks for a user, ordered by position then id
func (db *DB) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = ?
		ORDER BY position ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// MaxTaskPosition returns the highest position among a user's tasks
func (db *DB) MaxTaskPosition(ctx context.Context, userID int64) (int, bool, error) {
	var maxPos sql.NullInt64
	err := db.QueryRowContext(ctx, "SELECT MAX(position) FROM tasks WHERE user_id = ?", userID).Scan(&maxPos)
	if err != nil {
		return 0, false, err
	}
	return int(maxPos.Int64), maxPos.Valid, nil
}

// UpdateTaskText updates a task's text
func (db *DB) UpdateTaskText(ctx context.Context, id int64, text string) error {
	return requireRow(db.ExecContext(ctx, "UPDATE tasks SET text = ? WHERE id = ?", text, id))
}

// UpdateTaskState sets completion and position in one write
func (db *DB) UpdateTaskState(ctx context.Context, id int64, completed bool, position int) error {
	return requireRow(db.ExecContext(ctx,
		"UPDATE tasks SET completed = ?, position = ? WHERE id = ?", completed, position, id))
}

// SetTaskPositions applies all placements in a single transaction.
// Placements naming tasks outside userID are ignored.
func (db *DB) SetTaskPositions(ctx context.Context, userID int64, placements []models.Placement) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE tasks SET position = ? WHERE id = ? AND user_id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range placements {
		if _, err := stmt.ExecContext(ctx, p.Position, p.TaskID, userID); err != nil {
			return fmt.Errorf("set position of task %d: %w", p.TaskID, err)
		}
	}
	return tx.Commit()
}

// DeleteTask deletes a task and its subtasks
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM subtasks WHERE task_id = ?", id); err != nil {
		return err
	}
	if err := requireRow(tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)); err != nil {
		return err
	}
	return tx.Commit()
}
