package objectstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemStore is an in-memory Store used by tests and local/dev runs. It is
// safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	objects map[string]Object
	seq     int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]Object)}
}

func fullKey(bucket, key string) string {
	return bucket + "/" + key
}

func (m *MemStore) Get(ctx context.Context, bucket, key string) (Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[fullKey(bucket, key)]
	if !ok {
		return Object{}, ErrNotFound
	}
	return obj, nil
}

func (m *MemStore) Head(ctx context.Context, bucket, key string) (Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[fullKey(bucket, key)]
	if !ok {
		return Object{}, ErrNotFound
	}
	return Object{ETag: obj.ETag}, nil
}

func (m *MemStore) Put(ctx context.Context, bucket, key string, body []byte, opts PutOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	full := fullKey(bucket, key)
	if opts.IfMatch != "" {
		existing, ok := m.objects[full]
		if !ok || existing.ETag != opts.IfMatch {
			return "", ErrPrecondition
		}
	}

	m.seq++
	etag := fmt.Sprintf("etag-%d", m.seq)
	m.objects[full] = Object{Body: append([]byte(nil), body...), ETag: etag}
	return etag, nil
}

func (m *MemStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := fullKey(bucket, prefix)
	var keys []string
	for full := range m.objects {
		if !strings.HasPrefix(full, fullKey(bucket, "")) {
			continue
		}
		if strings.HasPrefix(full, want) {
			keys = append(keys, strings.TrimPrefix(full, fullKey(bucket, "")))
		}
	}
	return keys, nil
}
