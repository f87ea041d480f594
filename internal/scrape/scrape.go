// Package scrape implements the entity scrape lifecycle: look the entity up
// in the store, fetch and extract its page when absent, resolve discovered
// dependency scrapers sequentially, persist, and report.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/musigraph/crawler/internal/archive"
	"github.com/musigraph/crawler/internal/fetch"
	"github.com/musigraph/crawler/internal/store"
)

// State is the lifecycle position of a Scraper. States only ever advance.
type State int

// Lifecycle states, in order. StateComplete is terminal and reachable either
// through the store-lookup short circuit or through persistence.
const (
	StateCreated State = iota
	StateResolved
	StateFetched
	StateExtracted
	StateDependenciesResolved
	StatePersisted
	StateComplete
)

// String renders the state for logs and diagnostics.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateResolved:
		return "resolved"
	case StateFetched:
		return "fetched"
	case StateExtracted:
		return "extracted"
	case StateDependenciesResolved:
		return "dependencies_resolved"
	case StatePersisted:
		return "persisted"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Diagnostic is one entry in a scraper's ordered result log. Extraction
// degradations land here instead of failing the scrape.
type Diagnostic struct {
	Kind    store.Kind
	Field   string
	Message string
	At      time.Time
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Deps bundles the collaborators every scraper needs. The driver constructs
// them once and shares them across a run; scrapers never own connections.
type Deps struct {
	Fetcher fetch.Fetcher
	Store   store.Store

	// Archive is optional. When set, raw page bodies are stored before
	// extraction; archive failures degrade to diagnostics.
	Archive            archive.BlobStore
	ArchivePrefix      string
	ArchiveContentType string

	Logger  *zap.Logger
	Clock   Clock
	Out     io.Writer
	Verbose bool
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d Deps) clock() Clock {
	if d.Clock == nil {
		return systemClock{}
	}
	return d.Clock
}

func (d Deps) out() io.Writer {
	if d.Out == nil {
		return os.Stdout
	}
	return d.Out
}

// Scraper is the lifecycle contract shared by all entity kinds.
type Scraper interface {
	// Scrape runs the lifecycle to completion and returns the persisted or
	// found entity. Re-invoking a complete scraper is a no-op returning the
	// cached entity; re-invoking after a failure restarts from lookup.
	Scrape(ctx context.Context) (*store.Entity, error)

	// Entity returns the persisted/found entity, or nil before completion.
	Entity() *store.Entity

	// State reports the current lifecycle state.
	State() State

	// Results returns the ordered diagnostics for this scraper, including
	// those merged in from resolved dependencies.
	Results() []Diagnostic

	// DataReadFromStore reports whether the run short-circuited via lookup.
	DataReadFromStore() bool

	// DatabaseID returns the store-assigned ID, or 0 before completion.
	DatabaseID() int64

	// PrintInfo emits a human-readable summary of the run.
	PrintInfo()
}

// hooks are the per-kind extension points driven by the shared core.
type hooks interface {
	// extract populates in-page fields from the document, best-effort, and
	// registers child scrapers for discovered dependencies.
	extract(page *fetch.Page)

	// buildEntity assembles the entity to persist, including relations
	// built from completed child scrapers.
	buildEntity() *store.Entity

	// summaryLines renders the full field summary for PrintInfo.
	summaryLines() []string
}

// core owns the lifecycle state machine. Each concrete scraper embeds one
// and registers itself as the hooks implementation.
type core struct {
	deps      Deps
	kind      store.Kind
	sourceURL string

	state     State
	entity    *store.Entity
	fromStore bool
	results   []Diagnostic
	children  []Scraper
	hooks     hooks
}

func newCore(deps Deps, kind store.Kind, sourceURL string) core {
	return core{deps: deps, kind: kind, sourceURL: sourceURL, state: StateCreated}
}

// Scrape drives the lifecycle. Fetch and persistence failures propagate; all
// extraction problems degrade to diagnostics with declared defaults.
func (c *core) Scrape(ctx context.Context) (*store.Entity, error) {
	if c.state == StateComplete {
		return c.entity, nil
	}
	// A retry after a failed attempt restarts the lifecycle from scratch, so
	// states advance monotonically within an attempt and diagnostics describe
	// only the attempt that completed. Lookup-first keeps the restart cheap.
	c.state = StateCreated
	c.children = nil
	c.results = nil

	found, err := c.deps.Store.FindOne(ctx, c.kind, c.sourceURL)
	if err != nil {
		return nil, fmt.Errorf("lookup %s %q: %w", c.kind, c.sourceURL, err)
	}
	c.state = StateResolved
	if found != nil {
		c.entity = found
		c.fromStore = true
		c.diag("", fmt.Sprintf("%s %q found in store (id=%d)", c.kind, c.sourceURL, found.ID))
		observeScrape(c.kind, outcomeStoreHit)
		c.state = StateComplete
		return found, nil
	}

	page, err := c.deps.Fetcher.Fetch(ctx, c.sourceURL)
	if err != nil {
		observeFetchError(c.kind)
		return nil, err
	}
	c.state = StateFetched
	c.archivePage(ctx, page)

	c.hooks.extract(page)
	c.state = StateExtracted

	for _, child := range c.children {
		_, err := child.Scrape(ctx)
		c.results = append(c.results, child.Results()...)
		if err != nil {
			return nil, fmt.Errorf("resolve %s dependency: %w", c.kind, err)
		}
	}
	c.state = StateDependenciesResolved

	entity := c.hooks.buildEntity()
	entity.Kind = c.kind
	entity.NaturalKey = c.sourceURL
	saved, err := c.deps.Store.Save(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("persist %s %q: %w", c.kind, c.sourceURL, err)
	}
	c.entity = saved
	c.state = StatePersisted

	c.deps.logger().Info("entity persisted",
		zap.String("kind", string(c.kind)),
		zap.String("natural_key", c.sourceURL),
		zap.Int64("id", saved.ID),
	)
	observeScrape(c.kind, outcomeScraped)
	c.state = StateComplete
	return saved, nil
}

// Entity returns the persisted/found entity, or nil before completion.
func (c *core) Entity() *store.Entity { return c.entity }

// State reports the current lifecycle state.
func (c *core) State() State { return c.state }

// Results returns the ordered diagnostics recorded so far.
func (c *core) Results() []Diagnostic {
	return append([]Diagnostic(nil), c.results...)
}

// DataReadFromStore reports whether the run short-circuited via lookup.
func (c *core) DataReadFromStore() bool { return c.fromStore }

// DatabaseID returns the store-assigned ID, or 0 before completion.
func (c *core) DatabaseID() int64 {
	if c.entity == nil {
		return 0
	}
	return c.entity.ID
}

// PrintInfo emits either a found-in-store summary or the full field summary.
func (c *core) PrintInfo() {
	w := c.deps.out()
	if c.fromStore {
		fmt.Fprintf(w, "%s %q found in store (id=%d)\n", c.kind, c.sourceURL, c.DatabaseID())
		return
	}
	for _, line := range c.hooks.summaryLines() {
		fmt.Fprintln(w, line)
	}
}

// diag appends an informational diagnostic.
func (c *core) diag(field, message string) {
	c.results = append(c.results, Diagnostic{
		Kind:    c.kind,
		Field:   field,
		Message: message,
		At:      c.deps.clock().Now(),
	})
	if c.deps.Verbose {
		c.deps.logger().Info(message,
			zap.String("kind", string(c.kind)),
			zap.String("field", field),
		)
	}
}

// degrade records a per-field extraction degradation. The scrape continues
// with the field's declared default.
func (c *core) degrade(field, message string) {
	observeDegradation(c.kind, field)
	c.diag(field, message)
}

func (c *core) addChild(s Scraper) {
	c.children = append(c.children, s)
}

func (c *core) archivePage(ctx context.Context, page *fetch.Page) {
	if c.deps.Archive == nil {
		return
	}
	path := archive.BlobPath(c.deps.ArchivePrefix, string(c.kind), page.Body)
	uri, err := c.deps.Archive.PutObject(ctx, path, c.deps.ArchiveContentType, page.Body)
	if err != nil {
		c.degrade("archive", fmt.Sprintf("archive page: %v", err))
		return
	}
	if uri != "" {
		c.diag("archive", fmt.Sprintf("page archived to %s", uri))
	}
}

// selectorText returns the trimmed text of the first match for sel.
func selectorText(doc *goquery.Document, sel string) string {
	return strings.TrimSpace(doc.Find(sel).First().Text())
}

// parseCount parses a human-formatted integer ("1,234,567"). The second
// return reports whether parsing succeeded.
func parseCount(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseTrackDuration parses "m:ss" (or "h:mm:ss") into seconds.
func parseTrackDuration(raw string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	total := 0.0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + float64(n)
	}
	return total, true
}

// resolveHref resolves a possibly relative href against the page URL.
func resolveHref(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
