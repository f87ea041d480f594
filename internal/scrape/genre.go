package scrape

import (
	"fmt"
	"strings"

	"github.com/musigraph/crawler/internal/fetch"
	"github.com/musigraph/crawler/internal/store"
)

// GenreScraper scrapes a genre page. Genres have no dependencies of their
// own; two artists referencing the same genre each get their own instance,
// and store-level idempotence collapses them onto one row.
type GenreScraper struct {
	core

	// nameHint is the link text the genre was discovered under, used when
	// the genre page itself omits a heading.
	nameHint string

	name        string
	artistCount float64
	rank        float64
}

// NewGenreScraper constructs a scraper for the genre page at sourceURL.
func NewGenreScraper(deps Deps, sourceURL string) *GenreScraper {
	s := &GenreScraper{core: newCore(deps, store.KindGenre, sourceURL)}
	s.core.hooks = s
	return s
}

// NewGenreScrapers constructs one scraper per raw genre name, preserving
// input order. Page URLs are derived from the name's slug under baseURL.
func NewGenreScrapers(deps Deps, baseURL string, names []string) []*GenreScraper {
	out := make([]*GenreScraper, 0, len(names))
	for _, name := range names {
		s := NewGenreScraper(deps, GenreURL(baseURL, name))
		s.nameHint = name
		out = append(out, s)
	}
	return out
}

// GenreURL derives the canonical genre page URL from a raw genre name.
func GenreURL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + "/genre/" + Slug(name)
}

// Slug lowercases a name and replaces runs of non-alphanumerics with dashes.
func Slug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func (s *GenreScraper) extract(page *fetch.Page) {
	doc := page.Doc

	s.name = selectorText(doc, "h1.genre-name")
	if s.name == "" {
		s.name = s.nameHint
		s.degrade("name", "genre heading missing; falling back to link text")
	}

	if n, ok := parseCount(selectorText(doc, ".artist-count")); ok {
		s.artistCount = n
	} else {
		s.degrade("artist_count", "artist count missing or malformed; defaulting to 0")
	}

	if n, ok := parseCount(selectorText(doc, ".genre-rank")); ok {
		s.rank = n
	} else {
		s.degrade("rank", "genre rank missing or malformed; defaulting to 0")
	}
}

func (s *GenreScraper) buildEntity() *store.Entity {
	return &store.Entity{
		Name: s.name,
		Fields: map[string]float64{
			"artist_count": s.artistCount,
			"rank":         s.rank,
		},
		Attrs: map[string]string{},
	}
}

func (s *GenreScraper) summaryLines() []string {
	return []string{
		fmt.Sprintf("Genre: %s", s.name),
		fmt.Sprintf("Artist Count: %.0f", s.artistCount),
		fmt.Sprintf("Rank: %.0f", s.rank),
	}
}
