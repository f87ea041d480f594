package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFindOneAbsent(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	got, err := s.FindOne(context.Background(), KindArtist, "https://example.com/artist/nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreSaveAssignsIDs(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	first, err := s.Save(ctx, &Entity{Kind: KindGenre, NaturalKey: "g/rock", Name: "Rock"})
	require.NoError(t, err)
	second, err := s.Save(ctx, &Entity{Kind: KindGenre, NaturalKey: "g/jazz", Name: "Jazz"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestMemoryStoreSaveIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	first, err := s.Save(ctx, &Entity{
		Kind:       KindArtist,
		NaturalKey: "https://example.com/artist/acme",
		Name:       "Acme",
		Fields:     map[string]float64{"listeners": 100},
	})
	require.NoError(t, err)

	// A second save under the same key returns the original row untouched.
	again, err := s.Save(ctx, &Entity{
		Kind:       KindArtist,
		NaturalKey: "https://example.com/artist/acme",
		Name:       "Acme Renamed",
		Fields:     map[string]float64{"listeners": 999},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Acme", again.Name)
	assert.Equal(t, float64(100), again.Fields["listeners"])
}

func TestMemoryStoreFindOneIsKindScoped(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.Save(ctx, &Entity{Kind: KindGenre, NaturalKey: "shared-key"})
	require.NoError(t, err)

	got, err := s.FindOne(ctx, KindArtist, "shared-key")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.FindOne(ctx, KindGenre, "shared-key")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestMemoryStoreRelations(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	rock, err := s.Save(ctx, &Entity{Kind: KindGenre, NaturalKey: "g/rock", Name: "Rock"})
	require.NoError(t, err)
	jazz, err := s.Save(ctx, &Entity{Kind: KindGenre, NaturalKey: "g/jazz", Name: "Jazz"})
	require.NoError(t, err)
	album, err := s.Save(ctx, &Entity{Kind: KindAlbum, NaturalKey: "a/one", Name: "One"})
	require.NoError(t, err)

	artist, err := s.Save(ctx, &Entity{
		Kind:       KindArtist,
		NaturalKey: "artist/acme",
		Relations: []Relation{
			{Name: "genres", ChildID: rock.ID},
			{Name: "genres", ChildID: jazz.ID},
			{Name: "albums", ChildID: album.ID},
		},
	})
	require.NoError(t, err)

	genres, err := s.Relations(ctx, artist.ID, "genres")
	require.NoError(t, err)
	require.Len(t, genres, 2)
	assert.Equal(t, "Rock", genres[0].Name)
	assert.Equal(t, "Jazz", genres[1].Name)

	albums, err := s.Relations(ctx, artist.ID, "albums")
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "One", albums[0].Name)
}

func TestMemoryStoreReturnsClones(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	saved, err := s.Save(ctx, &Entity{
		Kind:       KindTrack,
		NaturalKey: "t/one",
		Fields:     map[string]float64{"play_count": 5},
	})
	require.NoError(t, err)

	// Mutating a returned entity must not leak into stored state.
	saved.Fields["play_count"] = 1000

	got, err := s.FindOne(ctx, KindTrack, "t/one")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, float64(5), got.Fields["play_count"])
}

func TestEntityCloneNil(t *testing.T) {
	var e *Entity
	assert.Nil(t, e.Clone())
}
