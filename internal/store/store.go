// Package store defines the entity persistence port and shared entity model.
// By using an interface, we decouple the scrape and aggregation pipelines from
// a specific database implementation, allowing for easier testing.
package store

import (
	"context"
)

// Kind identifies the type of a persisted entity.
type Kind string

// Entity kinds persisted by the crawler.
const (
	KindArtist Kind = "artist"
	KindGenre  Kind = "genre"
	KindAlbum  Kind = "album"
	KindTrack  Kind = "track"
)

// Relation links a parent entity to a child entity under a named edge.
// Order is preserved: relations are stored and returned in discovery order.
type Relation struct {
	Name    string
	ChildID int64
}

// Entity is the unit of record. The natural key (a canonical URL or name) is
// the find-or-create identity; ID is assigned by the store on first save.
// Entities are never mutated after persistence: subsequent scrapes find them,
// they do not update them.
type Entity struct {
	ID         int64
	Kind       Kind
	NaturalKey string
	Name       string
	Fields     map[string]float64
	Attrs      map[string]string
	Relations  []Relation
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	out := &Entity{
		ID:         e.ID,
		Kind:       e.Kind,
		NaturalKey: e.NaturalKey,
		Name:       e.Name,
	}
	if e.Fields != nil {
		out.Fields = make(map[string]float64, len(e.Fields))
		for k, v := range e.Fields {
			out.Fields[k] = v
		}
	}
	if e.Attrs != nil {
		out.Attrs = make(map[string]string, len(e.Attrs))
		for k, v := range e.Attrs {
			out.Attrs[k] = v
		}
	}
	out.Relations = append([]Relation(nil), e.Relations...)
	return out
}

// Store is the persistence port consumed by scrapers and aggregators.
type Store interface {
	// FindOne looks up an entity by kind and natural key.
	// It returns (nil, nil) when no entity exists.
	FindOne(ctx context.Context, kind Kind, naturalKey string) (*Entity, error)

	// Save persists the entity with find-or-create semantics on
	// (kind, natural_key) and returns the entity with its assigned ID.
	// Saving an already-persisted natural key never creates a second row.
	Save(ctx context.Context, entity *Entity) (*Entity, error)

	// Relations loads the child entities linked to id under the named edge,
	// in stored order.
	Relations(ctx context.Context, id int64, name string) ([]*Entity, error)

	// Close releases any underlying resources.
	Close()
}
