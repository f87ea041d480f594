// Package aggregate reassembles persisted entities into fixed-shape numeric
// feature records, with optional normalization, caching, and CSV export.
package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/musigraph/crawler/internal/cache"
	"github.com/musigraph/crawler/internal/store"
)

// Type tags an aggregation shape; one tag per entity kind being aggregated.
type Type string

// Aggregation types produced by this package.
const (
	TypeArtist Type = "artist"
	TypeGenre  Type = "genre"
	TypeAlbum  Type = "album"
	TypeTrack  Type = "track"
)

// Aggregation is a fixed-shape mapping from field names to numeric values.
// The field set is identical for raw and normalized variants of a type; only
// the value ranges differ.
type Aggregation struct {
	Type       Type               `json:"type"`
	EntityID   int64              `json:"entity_id"`
	Normalized bool               `json:"normalized"`
	Values     map[string]float64 `json:"values"`
}

// Generator computes the raw feature record for one entity. Implementations
// exist per aggregation type; Normalize must be pure and deterministic.
type Generator interface {
	// Type returns the aggregation type tag.
	Type() Type

	// Entity returns the entity being aggregated, or nil if none is bound.
	Entity() *store.Entity

	// Template returns the full field shape with every value set to def.
	// The export schema is derived from it, so it must stay in sync with
	// Generate.
	Template(def float64) map[string]float64

	// Generate assembles every field of the template shape from the entity
	// and its stored relations, lazy-loading relations on demand.
	Generate(ctx context.Context) (map[string]float64, error)

	// Normalize maps raw magnitudes onto [0, 1] using fixed, type-specific
	// scaling rules.
	Normalize(raw map[string]float64) map[string]float64
}

// Aggregator drives the cache/generate/normalize pipeline around a Generator.
type Aggregator struct {
	gen    Generator
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// New constructs an Aggregator. The cache is optional; ttl zero means cached
// entries never expire (eviction is owned by the cache backend).
func New(gen Generator, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{gen: gen, cache: c, ttl: ttl, logger: logger}
}

// CacheKey derives the cache key for an aggregation. Pure function of
// (type, entity ID, normalized).
func CacheKey(typ Type, entityID int64, normalized bool) string {
	return fmt.Sprintf("agg:%s:%d:%t", typ, entityID, normalized)
}

// RedisKey returns the cache key for this aggregator, or false when the bound
// entity has no identity yet (caching is skipped entirely in that case).
func (a *Aggregator) RedisKey(normalized bool) (string, bool) {
	entity := a.gen.Entity()
	if entity == nil || entity.ID == 0 {
		return "", false
	}
	return CacheKey(a.gen.Type(), entity.ID, normalized), true
}

// Aggregate returns the feature record for the bound entity. A cache hit is
// returned unchanged with no re-validation against the store; stale entries
// persist until the backend evicts them. On miss the record is generated,
// normalized when requested, cached, and returned.
func (a *Aggregator) Aggregate(ctx context.Context, normalized bool) (Aggregation, error) {
	key, cacheable := a.RedisKey(normalized)
	if cacheable && a.cache != nil {
		data, hit, err := a.cache.Get(ctx, key)
		switch {
		case err != nil:
			// A broken cache degrades to recomputation.
			a.logger.Warn("aggregation cache read failed", zap.String("key", key), zap.Error(err))
		case hit:
			var agg Aggregation
			if err := json.Unmarshal(data, &agg); err != nil {
				a.logger.Warn("aggregation cache entry corrupt", zap.String("key", key), zap.Error(err))
			} else {
				observeCacheLookup(a.gen.Type(), true)
				return agg, nil
			}
		}
		observeCacheLookup(a.gen.Type(), false)
	}

	raw, err := a.gen.Generate(ctx)
	if err != nil {
		return Aggregation{}, fmt.Errorf("generate %s aggregation: %w", a.gen.Type(), err)
	}
	values := raw
	if normalized {
		values = a.gen.Normalize(raw)
	}

	agg := Aggregation{
		Type:       a.gen.Type(),
		Normalized: normalized,
		Values:     values,
	}
	if entity := a.gen.Entity(); entity != nil {
		agg.EntityID = entity.ID
	}
	observeGenerated(a.gen.Type(), normalized)

	if cacheable && a.cache != nil {
		data, err := json.Marshal(agg)
		if err != nil {
			return Aggregation{}, fmt.Errorf("marshal aggregation: %w", err)
		}
		if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
			a.logger.Warn("aggregation cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return agg, nil
}

// Fields returns the declared field names of the generator's shape, in the
// deterministic order used for export (sorted template keys).
func Fields(gen Generator) []string {
	template := gen.Template(0)
	fields := make([]string, 0, len(template))
	for name := range template {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// CSVHeaders returns the column headers for CSV export of this shape.
func CSVHeaders(gen Generator) []string {
	return Fields(gen)
}

// StripLabels converts an aggregation into a plain numeric sequence in the
// same field order as Fields.
func StripLabels(gen Generator, agg Aggregation) []float64 {
	fields := Fields(gen)
	out := make([]float64, 0, len(fields))
	for _, name := range fields {
		out = append(out, agg.Values[name])
	}
	return out
}

// clamp01 bounds v to [0, 1].
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
