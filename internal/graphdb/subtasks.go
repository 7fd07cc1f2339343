package graphdb

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
)

const subtaskReturn = `
	RETURN s.id AS id, t.id AS task_id, s.name AS name, s.completed AS completed, s.created_at AS created_at`

func subtaskFromRecord(r *neo4j.Record) models.Subtask {
	return models.Subtask{
		ID:        asInt64(r, "id"),
		TaskID:    asInt64(r, "task_id"),
		Name:      asString(r, "name"),
		Completed: asBool(r, "completed"),
		CreatedAt: asTime(r, "created_at"),
	}
}

// CreateSubtask creates a new subtask on a task
func (s *Store) CreateSubtask(ctx context.Context, taskID int64, name string) (*models.Subtask, error) {
	result, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		id, err := nextID(ctx, tx, "subtask")
		if err != nil {
			return nil, err
		}
		res, err := tx.Run(ctx, `
			MATCH (t:Task {id: $task})
			CREATE (t)-[:HAS_SUBTASK]->(s:Subtask {id: $id, name: $name, completed: false, created_at: datetime()})
			`+subtaskReturn,
			map[string]any{"task": taskID, "id": id, "name": name},
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
		st := subtaskFromRecord(records[0])
		return &st, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Subtask), nil
}

// GetSubtask retrieves a subtask by ID
func (s *Store) GetSubtask(ctx context.Context, id int64) (*models.Subtask, error) {
	records, err := s.read(ctx,
		"MATCH (t:Task)-[:HAS_SUBTASK]->(s:Subtask {id: $id}) "+subtaskReturn,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, todo.ErrNotFound
	}
	st := subtaskFromRecord(records[0])
	return &st, nil
}

// ListSubtasks retrieves all subtasks for a task in creation order
func (s *Store) ListSubtasks(ctx context.Context, taskID int64) ([]models.Subtask, error) {
	records, err := s.read(ctx,
		"MATCH (t:Task {id: $task})-[:HAS_SUBTASK]->(s:Subtask) "+subtaskReturn+" ORDER BY id",
		map[string]any{"task": taskID},
	)
	if err != nil {
		return nil, err
	}

	var subtasks []models.Subtask
	for _, r := range records {
		subtasks = append(subtasks, subtaskFromRecord(r))
	}
	return subtasks, nil
}

// UpdateSubtaskName renames a subtask
func (s *Store) UpdateSubtaskName(ctx context.Context, id int64, name string) error {
	return s.exec(ctx, "MATCH (s:Subtask {id: $id}) SET s.name = $name",
		map[string]any{"id": id, "name": name})
}

// SetSubtaskCompleted sets a subtask's completion flag
func (s *Store) SetSubtaskCompleted(ctx context.Context, id int64, completed bool) error {
	return s.exec(ctx, "MATCH (s:Subtask {id: $id}) SET s.completed = $completed",
		map[string]any{"id": id, "completed": completed})
}

// DeleteSubtask deletes a subtask
func (s *Store) DeleteSubtask(ctx context.Context, id int64) error {
	return s.exec(ctx, "MATCH (s:Subtask {id: $id}) DETACH DELETE s", map[string]any{"id": id})
}
