package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musigraph/crawler/internal/cache"
	"github.com/musigraph/crawler/internal/store"
)

// countingGenerator records how many times Generate runs, so tests can prove
// cache hits bypass generation entirely.
type countingGenerator struct {
	entity    *store.Entity
	generated int
}

func (g *countingGenerator) Type() Type            { return TypeTrack }
func (g *countingGenerator) Entity() *store.Entity { return g.entity }

func (g *countingGenerator) Template(def float64) map[string]float64 {
	return map[string]float64{"beta": def, "alpha": def}
}

func (g *countingGenerator) Generate(context.Context) (map[string]float64, error) {
	g.generated++
	return map[string]float64{"alpha": 10, "beta": 20}, nil
}

func (g *countingGenerator) Normalize(raw map[string]float64) map[string]float64 {
	return map[string]float64{
		"alpha": clamp01(raw["alpha"] / 100),
		"beta":  clamp01(raw["beta"] / 100),
	}
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}
func (failingCache) Close() error { return nil }

func boundEntity() *store.Entity {
	return &store.Entity{ID: 7, Kind: store.KindTrack, NaturalKey: "t/one"}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "agg:artist:7:true", CacheKey(TypeArtist, 7, true))
	assert.Equal(t, "agg:track:3:false", CacheKey(TypeTrack, 3, false))
}

func TestRedisKey(t *testing.T) {
	withID := New(&countingGenerator{entity: boundEntity()}, nil, 0, nil)
	key, ok := withID.RedisKey(true)
	assert.True(t, ok)
	assert.Equal(t, "agg:track:7:true", key)

	noEntity := New(&countingGenerator{}, nil, 0, nil)
	_, ok = noEntity.RedisKey(true)
	assert.False(t, ok)

	noID := New(&countingGenerator{entity: &store.Entity{}}, nil, 0, nil)
	_, ok = noID.RedisKey(false)
	assert.False(t, ok)
}

func TestAggregateCacheHitSkipsGeneration(t *testing.T) {
	gen := &countingGenerator{entity: boundEntity()}
	c := cache.NewMemoryCache()
	a := New(gen, c, 0, nil)
	ctx := context.Background()

	first, err := a.Aggregate(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.generated)

	second, err := a.Aggregate(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.generated, "a cache hit must not regenerate")
	assert.Equal(t, first, second)
	assert.True(t, second.Normalized)
	assert.Equal(t, int64(7), second.EntityID)
	assert.Equal(t, 0.1, second.Values["alpha"])
	assert.Equal(t, 0.2, second.Values["beta"])
}

func TestAggregateRawAndNormalizedAreCachedSeparately(t *testing.T) {
	gen := &countingGenerator{entity: boundEntity()}
	a := New(gen, cache.NewMemoryCache(), 0, nil)
	ctx := context.Background()

	raw, err := a.Aggregate(ctx, false)
	require.NoError(t, err)
	norm, err := a.Aggregate(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, 2, gen.generated)
	assert.Equal(t, float64(10), raw.Values["alpha"])
	assert.Equal(t, 0.1, norm.Values["alpha"])
	assert.False(t, raw.Normalized)
	assert.True(t, norm.Normalized)
}

func TestAggregateUnboundEntitySkipsCache(t *testing.T) {
	gen := &countingGenerator{}
	a := New(gen, cache.NewMemoryCache(), 0, nil)
	ctx := context.Background()

	_, err := a.Aggregate(ctx, false)
	require.NoError(t, err)
	_, err = a.Aggregate(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.generated, "without an entity ID there is nothing to key on")
}

func TestAggregateBrokenCacheDegradesToRecomputation(t *testing.T) {
	gen := &countingGenerator{entity: boundEntity()}
	a := New(gen, failingCache{}, 0, nil)

	agg, err := a.Aggregate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.generated)
	assert.Equal(t, float64(20), agg.Values["beta"])
}

func TestAggregateCorruptCacheEntryIsRecomputed(t *testing.T) {
	gen := &countingGenerator{entity: boundEntity()}
	c := cache.NewMemoryCache()
	ctx := context.Background()

	key := CacheKey(TypeTrack, 7, false)
	require.NoError(t, c.Set(ctx, key, []byte("not json"), 0))

	a := New(gen, c, 0, nil)
	agg, err := a.Aggregate(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.generated)
	assert.Equal(t, float64(10), agg.Values["alpha"])

	// The recomputed record replaces the corrupt entry.
	again, err := a.Aggregate(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.generated)
	assert.Equal(t, agg, again)
}

func TestAggregateNilCache(t *testing.T) {
	gen := &countingGenerator{entity: boundEntity()}
	a := New(gen, nil, 0, nil)

	_, err := a.Aggregate(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.generated)
}

func TestFieldsAreSortedAndMatchTemplate(t *testing.T) {
	gen := &countingGenerator{}
	assert.Equal(t, []string{"alpha", "beta"}, Fields(gen))
	assert.Equal(t, Fields(gen), CSVHeaders(gen))
}

func TestStripLabelsFollowsFieldOrder(t *testing.T) {
	gen := &countingGenerator{}
	agg := Aggregation{
		Type:   TypeTrack,
		Values: map[string]float64{"beta": 2, "alpha": 1},
	}
	assert.Equal(t, []float64{1, 2}, StripLabels(gen, agg))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 0.5, clamp01(0.5))
	assert.Equal(t, 1.0, clamp01(1.5))
}
