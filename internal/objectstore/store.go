// Package objectstore abstracts the single shared resource every pipeline
// stage reads from and writes to: a keyed blob store. Stages never talk to
// each other directly; they only ever read a key another stage wrote.
package objectstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get/Head when the key does not exist.
var ErrNotFound = errors.New("objectstore: key not found")

// Object is a stored blob plus the ETag the store assigned it, used for
// conditional writes.
type Object struct {
	Body []byte
	ETag string
}

// PutOptions configures a conditional write. IfMatch, when non-empty,
// requires the store's current ETag for Key to equal IfMatch or the Put
// fails with ErrPrecondition — the basis for the conditional-PUT mitigation
// of the concurrent-merge race in the Merge stage.
type PutOptions struct {
	ContentType string
	IfMatch     string
}

// ErrPrecondition is returned by Put when IfMatch was set and did not match
// the object's current ETag.
var ErrPrecondition = errors.New("objectstore: precondition failed")

// Store is the keyed blob storage capability every stage depends on.
type Store interface {
	Get(ctx context.Context, bucket, key string) (Object, error)
	Head(ctx context.Context, bucket, key string) (Object, error)
	Put(ctx context.Context, bucket, key string, body []byte, opts PutOptions) (etag string, err error)
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}
