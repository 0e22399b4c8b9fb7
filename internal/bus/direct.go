package bus

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Extract once the bus has been closed and
// drained of any buffered events.
var ErrClosed = errors.New("bus: closed")

// DirectBus is an in-process Publisher/Extractor pair backed by a buffered
// channel. It is what runs in tests and single-process/local deployments
// when no Kafka brokers are configured.
type DirectBus struct {
	events chan Event
	mu     sync.Mutex
	closed bool
}

// NewDirectBus returns a DirectBus with the given channel capacity.
func NewDirectBus(capacity int) *DirectBus {
	return &DirectBus{events: make(chan Event, capacity)}
}

func (b *DirectBus) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil
	}
	select {
	case b.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *DirectBus) Extract(ctx context.Context) (ExtractedEvent, error) {
	select {
	case ev, ok := <-b.events:
		if !ok {
			return ExtractedEvent{}, ErrClosed
		}
		return ExtractedEvent{Event: ev, Commit: nil}, nil
	case <-ctx.Done():
		return ExtractedEvent{}, ctx.Err()
	}
}

// Close stops accepting new events. Already-buffered events remain
// extractable.
func (b *DirectBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
}
