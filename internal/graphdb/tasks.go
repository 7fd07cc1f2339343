package graphdb

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
)

const taskMatch = `
	MATCH (u:User)-[:OWNS]->(t:Task)
	OPTIONAL MATCH (t)-[:IN_TAB]->(tab:Tab)`

const taskReturn = `
	RETURN t.id AS id, u.id AS user_id, tab.id AS tab_id, t.text AS text,
	       t.completed AS completed, t.position AS position, t.created_at AS created_at`

func taskFromRecord(r *neo4j.Record) models.Task {
	return models.Task{
		ID:        asInt64(r, "id"),
		UserID:    asInt64(r, "user_id"),
		TabID:     asOptionalInt64(r, "tab_id"),
		Text:      asString(r, "text"),
		Completed: asBool(r, "completed"),
		Position:  int(asInt64(r, "position")),
		CreatedAt: asTime(r, "created_at"),
	}
}

// CreateTask creates a new task
func (s *Store) CreateTask(ctx context.Context, t models.Task) (*models.Task, error) {
	result, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		id, err := nextID(ctx, tx, "task")
		if err != nil {
			return nil, err
		}

		params := map[string]any{
			"user":      t.UserID,
			"id":        id,
			"text":      t.Text,
			"completed": t.Completed,
			"position":  int64(t.Position),
		}
		res, err := tx.Run(ctx, `
			MATCH (u:User {id: $user})
			CREATE (u)-[:OWNS]->(t:Task {id: $id, text: $text, completed: $completed,
			                             position: $position, created_at: datetime()})
			RETURN t.id AS id`,
			params,
		)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, todo.ErrNotFound
		}

		if t.TabID != nil {
			_, err := tx.Run(ctx, `
				MATCH (t:Task {id: $id}), (tab:Tab {id: $tab})
				CREATE (t)-[:IN_TAB]->(tab)`,
				map[string]any{"id": id, "tab": *t.TabID},
			)
			if err != nil {
				return nil, err
			}
		}
		return id, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(ctx, result.(int64))
}

// GetTask retrieves a task by ID
func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	records, err := s.read(ctx, taskMatch+" WHERE t.id = $id "+taskReturn, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, todo.ErrNotFound
	}
	t := taskFromRecord(records[0])
	return &t, nil
}

// ListTasks returns all tasks for a user, ordered by position then id
func (s *Store) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	records, err := s.read(ctx,
		taskMatch+" WHERE u.id = $user "+taskReturn+" ORDER BY position ASC, id ASC",
		map[string]any{"user": userID},
	)
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	for _, r := range records {
		tasks = append(tasks, taskFromRecord(r))
	}
	return tasks, nil
}

// MaxTaskPosition returns the highest position among a user's tasks
func (s *Store) MaxTaskPosition(ctx context.Context, userID int64) (int, bool, error) {
	records, err := s.read(ctx,
		"MATCH (u:User {id: $user})-[:OWNS]->(t:Task) RETURN max(t.position) AS max",
		map[string]any{"user": userID},
	)
	if err != nil || len(records) == 0 {
		return 0, false, err
	}
	maxPos := asOptionalInt64(records[0], "max")
	if maxPos == nil {
		return 0, false, nil
	}
	return int(*maxPos), true, nil
}

// UpdateTaskText updates a task's text
func (s *Store) UpdateTaskText(ctx context.Context, id int64, text string) error {
	return s.exec(ctx, "MATCH (t:Task {id: $id}) SET t.text = $text",
		map[string]any{"id": id, "text": text})
}

// UpdateTaskState sets completion and position in one write
func (s *Store) UpdateTaskState(ctx context.Context, id int64, completed bool, position int) error {
	return s.exec(ctx, "MATCH (t:Task {id: $id}) SET t.completed = $completed, t.position = $position",
		map[string]any{"id": id, "completed": completed, "position": int64(position)})
}

// SetTaskPositions applies all placements in one transaction
func (s *Store) SetTaskPositions(ctx context.Context, userID int64, placements []models.Placement) error {
	rows := make([]any, 0, len(placements))
	for _, p := range placements {
		rows = append(rows, map[string]any{"id": p.TaskID, "position": int64(p.Position)})
	}

	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			UNWIND $rows AS row
			MATCH (u:User {id: $user})-[:OWNS]->(t:Task {id: row.id})
			SET t.position = row.position`,
			map[string]any{"user": userID, "rows": rows},
		)
		return nil, err
	})
	return err
}

// DeleteTask deletes a task and its subtasks
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	return s.exec(ctx, `
		MATCH (t:Task {id: $id})
		OPTIONAL MATCH (t)-[:HAS_SUBTASK]->(st:Subtask)
		DETACH DELETE st, t`,
		map[string]any{"id": id})
}
