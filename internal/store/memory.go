package store

import (
	"context"
	"sync"
)

// MemoryStore provides an in-memory Store implementation for development and
// testing. Semantics mirror the Postgres backend: find-or-create on
// (kind, natural_key), entities immutable after first save.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	byID     map[int64]*Entity
	byKey    map[string]int64
	children map[int64][]Relation
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		byID:     make(map[int64]*Entity),
		byKey:    make(map[string]int64),
		children: make(map[int64][]Relation),
	}
}

func naturalKeyIndex(kind Kind, naturalKey string) string {
	return string(kind) + "\x00" + naturalKey
}

// FindOne looks up an entity by kind and natural key.
func (s *MemoryStore) FindOne(_ context.Context, kind Kind, naturalKey string) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[naturalKeyIndex(kind, naturalKey)]
	if !ok {
		return nil, nil
	}
	return s.entityLocked(id), nil
}

// Save persists the entity, returning the existing row when the natural key
// is already present.
func (s *MemoryStore) Save(_ context.Context, entity *Entity) (*Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := naturalKeyIndex(entity.Kind, entity.NaturalKey)
	if id, ok := s.byKey[key]; ok {
		return s.entityLocked(id), nil
	}
	stored := entity.Clone()
	stored.ID = s.nextID
	s.nextID++
	s.byID[stored.ID] = stored
	s.byKey[key] = stored.ID
	s.children[stored.ID] = append([]Relation(nil), stored.Relations...)
	return stored.Clone(), nil
}

// Relations returns the child entities linked under the named edge, in order.
func (s *MemoryStore) Relations(_ context.Context, id int64, name string) ([]*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Entity
	for _, rel := range s.children[id] {
		if rel.Name != name {
			continue
		}
		if child := s.entityLocked(rel.ChildID); child != nil {
			out = append(out, child)
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}

func (s *MemoryStore) entityLocked(id int64) *Entity {
	e, ok := s.byID[id]
	if !ok {
		return nil
	}
	out := e.Clone()
	out.Relations = append([]Relation(nil), s.children[id]...)
	return out
}
