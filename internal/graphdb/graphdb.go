// Package graphdb stores tabs, tasks and subtasks in Neo4j.
//
// Ownership and containment are relationships:
//
//	(:User)-[:OWNS]->(:Tab)
//	(:User)-[:OWNS]->(:Task)-[:IN_TAB]->(:Tab)
//	(:Task)-[:HAS_SUBTASK]->(:Subtask)
//
// Integer ids come from (:Sequence) counter nodes so the graph store hands out
// the same kind of keys as the SQLite store.
package graphdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/tgienger/tabdo/internal/todo"
)

// Store is a todo.Store backed by Neo4j
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ todo.Store = (*Store)(nil)

// New connects to Neo4j and ensures the schema constraints exist
func New(ctx context.Context, uri, username, password, database string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect %s: %w", uri, err)
	}

	s := &Store{driver: driver, database: database}
	if err := s.migrate(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	return s, nil
}

var constraints = []string{
	"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
	"CREATE CONSTRAINT user_username IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE",
	"CREATE CONSTRAINT tab_id IF NOT EXISTS FOR (t:Tab) REQUIRE t.id IS UNIQUE",
	"CREATE CONSTRAINT tab_user_name IF NOT EXISTS FOR (t:Tab) REQUIRE (t.user_id, t.name) IS UNIQUE",
	"CREATE CONSTRAINT task_id IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE",
	"CREATE CONSTRAINT subtask_id IF NOT EXISTS FOR (s:Subtask) REQUIRE s.id IS UNIQUE",
	"CREATE CONSTRAINT sequence_name IF NOT EXISTS FOR (s:Sequence) REQUIRE s.name IS UNIQUE",
	"CREATE CONSTRAINT setting_key IF NOT EXISTS FOR (s:Setting) REQUIRE s.key IS UNIQUE",
}

func (s *Store) migrate(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("apply constraint: %w", err)
		}
	}
	return nil
}

// Close releases the driver
func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// read runs work in a managed read transaction and collects its records
func (s *Store) read(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*neo4j.Record), nil
}

// write runs fn in a managed write transaction
func (s *Store) write(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	return session.ExecuteWrite(ctx, fn)
}

// exec runs a single write statement and reports whether it matched anything
func (s *Store) exec(ctx context.Context, cypher string, params map[string]any) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher+" RETURN count(*) AS n", params)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		if asInt64(record, "n") == 0 {
			return nil, todo.ErrNotFound
		}
		return nil, nil
	})
	return err
}

// constraintViolated is the status code Neo4j reports for a failed uniqueness constraint
const constraintViolated = "Neo.ClientError.Schema.ConstraintValidationFailed"

// duplicate maps uniqueness violations to todo.ErrDuplicateName
func duplicate(err error) error {
	var nerr *neo4j.Neo4jError
	if errors.As(err, &nerr) && nerr.Code == constraintViolated {
		return todo.ErrDuplicateName
	}
	return err
}

// nextID increments the named sequence inside tx
func nextID(ctx context.Context, tx neo4j.ManagedTransaction, name string) (int64, error) {
	res, err := tx.Run(ctx, `
		MERGE (s:Sequence {name: $name})
		ON CREATE SET s.value = 0
		SET s.value = s.value + 1
		RETURN s.value AS id`,
		map[string]any{"name": name},
	)
	if err != nil {
		return 0, err
	}
	record, err := res.Single(ctx)
	if err != nil {
		return 0, err
	}
	return asInt64(record, "id"), nil
}

// GetSetting retrieves a setting value by key
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	records, err := s.read(ctx, "MATCH (s:Setting {key: $key}) RETURN s.value AS value", map[string]any{"key": key})
	if err != nil || len(records) == 0 {
		return "", err
	}
	return asString(records[0], "value"), nil
}

// SetSetting sets a setting value
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, "MERGE (s:Setting {key: $key}) SET s.value = $value",
			map[string]any{"key": key, "value": value})
		return nil, err
	})
	return err
}

func asInt64(r *neo4j.Record, key string) int64 {
	v, _ := r.Get(key)
	n, _ := v.(int64)
	return n
}

func asString(r *neo4j.Record, key string) string {
	v, _ := r.Get(key)
	str, _ := v.(string)
	return str
}

func asBool(r *neo4j.Record, key string) bool {
	v, _ := r.Get(key)
	b, _ := v.(bool)
	return b
}

func asTime(r *neo4j.Record, key string) time.Time {
	v, _ := r.Get(key)
	t, _ := v.(time.Time)
	return t
}

// asOptionalInt64 returns nil when the value is null
func asOptionalInt64(r *neo4j.Record, key string) *int64 {
	v, _ := r.Get(key)
	n, ok := v.(int64)
	if !ok {
		return nil
	}
	return &n
}
