package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig controls the Postgres connection pool used for entity rows.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pgxPool is the subset of pgxpool.Pool the store needs. Declared as an
// interface so tests can inject a pgxmock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore persists entities and their relations in Postgres.
//
// Expected schema:
//
//	CREATE TABLE entities (
//	    id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//	    kind TEXT NOT NULL,
//	    natural_key TEXT NOT NULL,
//	    name TEXT NOT NULL DEFAULT '',
//	    fields JSONB NOT NULL DEFAULT '{}',
//	    attrs JSONB NOT NULL DEFAULT '{}',
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    UNIQUE (kind, natural_key)
//	);
//	CREATE TABLE entity_relations (
//	    parent_id BIGINT NOT NULL REFERENCES entities(id),
//	    relation TEXT NOT NULL,
//	    child_id BIGINT NOT NULL REFERENCES entities(id),
//	    position INT NOT NULL,
//	    PRIMARY KEY (parent_id, relation, child_id)
//	);
//
// The unique constraint on (kind, natural_key) is what makes Save atomic:
// a race between two savers for the same natural key resolves to one row.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgresStore creates a Postgres-backed Store using the provided config.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing with pgxmock).
func NewPostgresStoreWithPool(pool pgxPool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const findOneQuery = `
SELECT id, name, fields, attrs
FROM entities
WHERE kind = $1 AND natural_key = $2`

// FindOne looks up an entity row by kind and natural key.
func (s *PostgresStore) FindOne(ctx context.Context, kind Kind, naturalKey string) (*Entity, error) {
	var (
		id         int64
		name       string
		fieldsJSON []byte
		attrsJSON  []byte
	)
	err := s.pool.QueryRow(ctx, findOneQuery, string(kind), naturalKey).
		Scan(&id, &name, &fieldsJSON, &attrsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find entity: %w", err)
	}
	entity := &Entity{
		ID:         id,
		Kind:       kind,
		NaturalKey: naturalKey,
		Name:       name,
	}
	if err := unmarshalJSONB(fieldsJSON, &entity.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if err := unmarshalJSONB(attrsJSON, &entity.Attrs); err != nil {
		return nil, fmt.Errorf("decode attrs: %w", err)
	}
	return entity, nil
}

const insertEntityQuery = `
INSERT INTO entities (kind, natural_key, name, fields, attrs)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (kind, natural_key) DO NOTHING
RETURNING id`

const selectIDQuery = `
SELECT id FROM entities WHERE kind = $1 AND natural_key = $2`

const insertRelationQuery = `
INSERT INTO entity_relations (parent_id, relation, child_id, position)
VALUES ($1, $2, $3, $4)
ON CONFLICT (parent_id, relation, child_id) DO NOTHING`

// Save inserts the entity if its natural key is new and returns the row with
// its assigned ID. Relations are written only on first insert; an existing
// row is returned untouched.
func (s *PostgresStore) Save(ctx context.Context, entity *Entity) (*Entity, error) {
	if entity == nil {
		return nil, fmt.Errorf("entity is required")
	}
	fieldsJSON, err := json.Marshal(orEmptyFields(entity.Fields))
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	attrsJSON, err := json.Marshal(orEmptyAttrs(entity.Attrs))
	if err != nil {
		return nil, fmt.Errorf("marshal attrs: %w", err)
	}

	saved := entity.Clone()
	err = s.pool.QueryRow(ctx, insertEntityQuery,
		string(entity.Kind), entity.NaturalKey, entity.Name, fieldsJSON, attrsJSON,
	).Scan(&saved.ID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Lost the insert race or the row already existed; fetch its ID.
		if err := s.pool.QueryRow(ctx, selectIDQuery, string(entity.Kind), entity.NaturalKey).
			Scan(&saved.ID); err != nil {
			return nil, fmt.Errorf("select existing entity: %w", err)
		}
		return saved, nil
	case err != nil:
		return nil, fmt.Errorf("insert entity: %w", err)
	}

	for i, rel := range entity.Relations {
		if _, err := s.pool.Exec(ctx, insertRelationQuery, saved.ID, rel.Name, rel.ChildID, i); err != nil {
			return nil, fmt.Errorf("insert relation %q: %w", rel.Name, err)
		}
	}
	return saved, nil
}

const relationsQuery = `
SELECT e.id, e.kind, e.natural_key, e.name, e.fields, e.attrs
FROM entity_relations r
JOIN entities e ON e.id = r.child_id
WHERE r.parent_id = $1 AND r.relation = $2
ORDER BY r.position`

// Relations loads the child entities linked under the named edge, in order.
func (s *PostgresStore) Relations(ctx context.Context, id int64, name string) ([]*Entity, error) {
	rows, err := s.pool.Query(ctx, relationsQuery, id, name)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	var out []*Entity
	for rows.Next() {
		var (
			entity     Entity
			kind       string
			fieldsJSON []byte
			attrsJSON  []byte
		)
		if err := rows.Scan(&entity.ID, &kind, &entity.NaturalKey, &entity.Name, &fieldsJSON, &attrsJSON); err != nil {
			return nil, fmt.Errorf("scan relation row: %w", err)
		}
		entity.Kind = Kind(kind)
		if err := unmarshalJSONB(fieldsJSON, &entity.Fields); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
		if err := unmarshalJSONB(attrsJSON, &entity.Attrs); err != nil {
			return nil, fmt.Errorf("decode attrs: %w", err)
		}
		out = append(out, &entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relations: %w", err)
	}
	return out, nil
}

func unmarshalJSONB[T any](data []byte, dst *T) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func orEmptyFields(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

func orEmptyAttrs(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
