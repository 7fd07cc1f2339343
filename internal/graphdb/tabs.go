package graphdb

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
)

const tabReturn = "RETURN t.id AS id, u.id AS user_id, t.name AS name, t.created_at AS created_at"

func tabFromRecord(r *neo4j.Record) models.Tab {
	return models.Tab{
		ID:        asInt64(r, "id"),
		UserID:    asInt64(r, "user_id"),
		Name:      asString(r, "name"),
		CreatedAt: asTime(r, "created_at"),
	}
}

// CreateTab creates a new tab, rejecting a name the user already has
func (s *Store) CreateTab(ctx context.Context, userID int64, name string) (*models.Tab, error) {
	result, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			OPTIONAL MATCH (u:User {id: $user})
			OPTIONAL MATCH (u)-[:OWNS]->(t:Tab {name: $name})
			RETURN count(u) AS users, count(t) AS n`,
			map[string]any{"user": userID, "name": name},
		)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		if asInt64(record, "users") == 0 {
			return nil, todo.ErrNotFound
		}
		if asInt64(record, "n") > 0 {
			return nil, todo.ErrDuplicateName
		}

		id, err := nextID(ctx, tx, "tab")
		if err != nil {
			return nil, err
		}
		res, err = tx.Run(ctx, `
			MATCH (u:User {id: $user})
			CREATE (u)-[:OWNS]->(t:Tab {id: $id, user_id: $user, name: $name, created_at: datetime()})
			`+tabReturn,
			map[string]any{"user": userID, "id": id, "name": name},
		)
		if err != nil {
			return nil, err
		}
		record, err = res.Single(ctx)
		if err != nil {
			return nil, err
		}
		tab := tabFromRecord(record)
		return &tab, nil
	})
	if err != nil {
		return nil, duplicate(err)
	}
	return result.(*models.Tab), nil
}

// GetTab retrieves a tab by ID
func (s *Store) GetTab(ctx context.Context, id int64) (*models.Tab, error) {
	records, err := s.read(ctx, "MATCH (u:User)-[:OWNS]->(t:Tab {id: $id}) "+tabReturn, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, todo.ErrNotFound
	}
	tab := tabFromRecord(records[0])
	return &tab, nil
}

// ListTabs returns all tabs for a user in creation order
func (s *Store) ListTabs(ctx context.Context, userID int64) ([]models.Tab, error) {
	records, err := s.read(ctx,
		"MATCH (u:User {id: $user})-[:OWNS]->(t:Tab) "+tabReturn+" ORDER BY id",
		map[string]any{"user": userID},
	)
	if err != nil {
		return nil, err
	}

	var tabs []models.Tab
	for _, r := range records {
		tabs = append(tabs, tabFromRecord(r))
	}
	return tabs, nil
}

// DeleteTab deletes a tab; DETACH DELETE drops the IN_TAB edges so its tasks fall back to no tab
func (s *Store) DeleteTab(ctx context.Context, id int64) error {
	return s.exec(ctx, "MATCH (t:Tab {id: $id}) DETACH DELETE t", map[string]any{"id": id})
}
