package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musigraph/crawler/internal/store"
)

func seedArtist(t *testing.T, st *store.MemoryStore) *store.Entity {
	t.Helper()
	ctx := context.Background()

	rock, err := st.Save(ctx, &store.Entity{
		Kind: store.KindGenre, NaturalKey: "g/rock", Name: "Rock",
		Fields: map[string]float64{"rank": 4},
	})
	require.NoError(t, err)
	jazz, err := st.Save(ctx, &store.Entity{
		Kind: store.KindGenre, NaturalKey: "g/jazz", Name: "Jazz",
		Fields: map[string]float64{"rank": 10},
	})
	require.NoError(t, err)

	artist, err := st.Save(ctx, &store.Entity{
		Kind: store.KindArtist, NaturalKey: "artist/acme", Name: "Acme",
		Fields: map[string]float64{
			"active":      1,
			"listeners":   5_000_000,
			"genre_count": 2,
			"album_count": 5,
		},
		Relations: []store.Relation{
			{Name: "genres", ChildID: rock.ID},
			{Name: "genres", ChildID: jazz.ID},
		},
	})
	require.NoError(t, err)
	return artist
}

func TestArtistGeneratorGenerate(t *testing.T) {
	st := store.NewMemoryStore()
	artist := seedArtist(t, st)

	gen := NewArtistGenerator(artist, st)
	raw, err := gen.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(1), raw["active"])
	assert.Equal(t, float64(5_000_000), raw["listeners"])
	assert.Equal(t, float64(2), raw["genre_count"])
	assert.Equal(t, float64(5), raw["album_count"])
	assert.Equal(t, float64(7), raw["mean_genre_rank"], "mean of ranks 4 and 10")
}

func TestArtistGeneratorNormalizeClamps(t *testing.T) {
	gen := NewArtistGenerator(&store.Entity{ID: 1}, store.NewMemoryStore())

	norm := gen.Normalize(map[string]float64{
		"active":          1,
		"listeners":       20_000_000,
		"genre_count":     5,
		"album_count":     5,
		"mean_genre_rank": 50,
	})
	assert.Equal(t, 1.0, norm["listeners"], "values past the scale cap at 1")
	assert.Equal(t, 0.5, norm["genre_count"])
	assert.Equal(t, 0.2, norm["album_count"])
	assert.Equal(t, 0.5, norm["mean_genre_rank"])
	assert.Equal(t, 1.0, norm["active"])
}

func TestArtistGeneratorNoGenres(t *testing.T) {
	st := store.NewMemoryStore()
	artist, err := st.Save(context.Background(), &store.Entity{
		Kind: store.KindArtist, NaturalKey: "artist/solo",
		Fields: map[string]float64{"active": 1},
	})
	require.NoError(t, err)

	raw, err := NewArtistGenerator(artist, st).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(0), raw["mean_genre_rank"])
}

func TestGenreGenerator(t *testing.T) {
	entity := &store.Entity{
		ID: 2, Kind: store.KindGenre,
		Fields: map[string]float64{"artist_count": 25_000, "rank": 5},
	}
	gen := NewGenreGenerator(entity)

	raw, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(25_000), raw["artist_count"])

	norm := gen.Normalize(raw)
	assert.Equal(t, 0.5, norm["artist_count"])
	assert.Equal(t, 0.05, norm["rank"])
}

func TestAlbumGeneratorMeanTrackDuration(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	a, err := st.Save(ctx, &store.Entity{
		Kind: store.KindTrack, NaturalKey: "t/a",
		Fields: map[string]float64{"duration_sec": 200},
	})
	require.NoError(t, err)
	b, err := st.Save(ctx, &store.Entity{
		Kind: store.KindTrack, NaturalKey: "t/b",
		Fields: map[string]float64{"duration_sec": 400},
	})
	require.NoError(t, err)
	album, err := st.Save(ctx, &store.Entity{
		Kind: store.KindAlbum, NaturalKey: "a/one",
		Fields: map[string]float64{"release_year": 1975, "track_count": 2},
		Relations: []store.Relation{
			{Name: "tracks", ChildID: a.ID},
			{Name: "tracks", ChildID: b.ID},
		},
	})
	require.NoError(t, err)

	gen := NewAlbumGenerator(album, st)
	raw, err := gen.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(300), raw["mean_track_duration"])

	norm := gen.Normalize(raw)
	assert.Equal(t, 0.5, norm["mean_track_duration"])
	assert.Equal(t, 0.5, norm["release_year"], "(1975-1900)/150")
}

func TestTrackGeneratorNormalizeIsDeterministic(t *testing.T) {
	gen := NewTrackGenerator(&store.Entity{
		ID: 3, Kind: store.KindTrack,
		Fields: map[string]float64{"duration_sec": 300, "play_count": 50_000_000, "chart_rank": 25},
	})

	raw, err := gen.Generate(context.Background())
	require.NoError(t, err)

	first := gen.Normalize(raw)
	second := gen.Normalize(raw)
	assert.Equal(t, first, second)
	assert.Equal(t, 0.5, first["duration_sec"])
	assert.Equal(t, 0.5, first["play_count"])
	assert.Equal(t, 0.25, first["chart_rank"])
}

func TestGeneratorsRequireEntity(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	_, err := NewArtistGenerator(nil, st).Generate(ctx)
	require.Error(t, err)
	_, err = NewGenreGenerator(nil).Generate(ctx)
	require.Error(t, err)
	_, err = NewAlbumGenerator(nil, st).Generate(ctx)
	require.Error(t, err)
	_, err = NewTrackGenerator(nil).Generate(ctx)
	require.Error(t, err)
}

func TestTemplatesMatchGeneratedShape(t *testing.T) {
	st := store.NewMemoryStore()
	artist := seedArtist(t, st)
	ctx := context.Background()

	generators := []Generator{
		NewArtistGenerator(artist, st),
		NewGenreGenerator(&store.Entity{ID: 1, Kind: store.KindGenre}),
		NewAlbumGenerator(&store.Entity{ID: 1, Kind: store.KindAlbum}, st),
		NewTrackGenerator(&store.Entity{ID: 1, Kind: store.KindTrack}),
	}
	for _, gen := range generators {
		raw, err := gen.Generate(ctx)
		require.NoError(t, err)

		template := gen.Template(0)
		require.Len(t, raw, len(template), "%s raw shape drifted from template", gen.Type())
		for name := range template {
			_, ok := raw[name]
			assert.True(t, ok, "%s missing field %s", gen.Type(), name)
		}

		norm := gen.Normalize(raw)
		require.Len(t, norm, len(template), "%s normalized shape drifted from template", gen.Type())
		for name, v := range norm {
			assert.GreaterOrEqual(t, v, 0.0, "%s field %s below zero", gen.Type(), name)
			assert.LessOrEqual(t, v, 1.0, "%s field %s above one", gen.Type(), name)
		}
	}
}
