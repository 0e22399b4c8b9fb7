// Package bus implements the fire-and-forget, asynchronous invocation of
// the next pipeline stage described in spec §5: a stage that has just
// written an object publishes an event naming it and moves on without
// waiting for (or caring about) the downstream stage's outcome.
package bus

import "context"

// Event names an object-store key a stage just wrote, the signal that
// tells the next stage there is work to do.
type Event struct {
	Bucket string
	Key    string
}

// Publisher fires an event at the shared events stream. Publish failures
// are the caller's responsibility to log and swallow — per spec, a failed
// next-stage invocation never aborts the stage that produced it.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Extractor pulls the next event off the stream, blocking until one is
// available or ctx is canceled. Commit acknowledges the event so it is not
// redelivered; it is nil when the backend has no such concept (e.g. the
// direct bus).
type Extractor interface {
	Extract(ctx context.Context) (ExtractedEvent, error)
}

// ExtractedEvent pairs an Event with its acknowledgement.
type ExtractedEvent struct {
	Event  Event
	Commit func(ctx context.Context) error
}
