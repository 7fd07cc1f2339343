package graphdb

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
)

const userReturn = "RETURN u.id AS id, u.username AS username, u.password_hash AS password_hash, u.created_at AS created_at"

func userFromRecord(r *neo4j.Record) *models.User {
	return &models.User{
		ID:           asInt64(r, "id"),
		Username:     asString(r, "username"),
		PasswordHash: asString(r, "password_hash"),
		CreatedAt:    asTime(r, "created_at"),
	}
}

// CreateUser creates a new user
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	result, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (u:User {username: $username}) RETURN count(u) AS n",
			map[string]any{"username": username})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		if asInt64(record, "n") > 0 {
			return nil, todo.ErrDuplicateName
		}

		id, err := nextID(ctx, tx, "user")
		if err != nil {
			return nil, err
		}
		res, err = tx.Run(ctx, `
			CREATE (u:User {id: $id, username: $username, password_hash: $hash, created_at: datetime()})
			`+userReturn,
			map[string]any{"id": id, "username": username, "hash": passwordHash},
		)
		if err != nil {
			return nil, err
		}
		record, err = res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return userFromRecord(record), nil
	})
	if err != nil {
		return nil, duplicate(err)
	}
	return result.(*models.User), nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.findUser(ctx, "MATCH (u:User {id: $key}) "+userReturn, id)
}

// GetUserByName retrieves a user by username
func (s *Store) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "MATCH (u:User {username: $key}) "+userReturn, username)
}

func (s *Store) findUser(ctx context.Context, cypher string, key any) (*models.User, error) {
	records, err := s.read(ctx, cypher, map[string]any{"key": key})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, todo.ErrNotFound
	}
	return userFromRecord(records[0]), nil
}
