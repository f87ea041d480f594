// Package notify publishes entity-persisted events so downstream consumers
// can react to freshly scraped data.
package notify

import (
	"context"
	"sync"
	"time"
)

// Event describes one persisted entity from a scrape run.
type Event struct {
	RunID      string    `json:"run_id"`
	Kind       string    `json:"kind"`
	NaturalKey string    `json:"natural_key"`
	DatabaseID int64     `json:"database_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher pushes events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, event Event) (string, error)
	Close() error
}

// NoOpPublisher discards all events.
type NoOpPublisher struct{}

// Publish for NoOpPublisher does nothing and returns a dummy message ID.
func (NoOpPublisher) Publish(_ context.Context, _ Event) (string, error) {
	return "noop-message-id", nil
}

// Close for NoOpPublisher does nothing.
func (NoOpPublisher) Close() error { return nil }

// MemoryPublisher records events in memory, for development and testing.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher constructs a MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish appends the event to the in-memory log.
func (p *MemoryPublisher) Publish(_ context.Context, event Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return "memory-message-id", nil
}

// Events returns a copy of all published events.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Close is a no-op for the in-memory publisher.
func (p *MemoryPublisher) Close() error { return nil }
