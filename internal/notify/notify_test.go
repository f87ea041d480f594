package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpPublisher(t *testing.T) {
	p := NoOpPublisher{}
	id, err := p.Publish(context.Background(), Event{})
	require.NoError(t, err)
	assert.Equal(t, "noop-message-id", id)
	assert.NoError(t, p.Close())
}

func TestMemoryPublisherRecordsEvents(t *testing.T) {
	p := NewMemoryPublisher()
	ctx := context.Background()

	first := Event{
		RunID:      "run-1",
		Kind:       "artist",
		NaturalKey: "https://example.com/artist/acme",
		DatabaseID: 7,
		OccurredAt: time.Unix(1700000000, 0).UTC(),
	}
	second := Event{RunID: "run-1", Kind: "genre", NaturalKey: "g/rock", DatabaseID: 2}

	_, err := p.Publish(ctx, first)
	require.NoError(t, err)
	_, err = p.Publish(ctx, second)
	require.NoError(t, err)

	events := p.Events()
	require.Len(t, events, 2)
	assert.Equal(t, first, events[0])
	assert.Equal(t, second, events[1])

	// Events returns a copy; mutating it does not alter the log.
	events[0].RunID = "tampered"
	assert.Equal(t, "run-1", p.Events()[0].RunID)

	assert.NoError(t, p.Close())
}
