package objectstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_PutGetRoundTrip(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	etag, err := s.Put(ctx, "bucket", "a/b.json", []byte(`{"x":1}`), PutOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, etag)

	obj, err := s.Get(ctx, "bucket", "a/b.json")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(obj.Body))
	assert.Equal(t, etag, obj.ETag)
}

func TestMemStore_GetMissingReturnsNotFound(t *testing.T) {
	s := NewMemStore()
	_, err := s.Get(context.Background(), "bucket", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_ConditionalPutRejectsStaleETag(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	etag1, err := s.Put(ctx, "bucket", "k", []byte("v1"), PutOptions{})
	require.NoError(t, err)

	_, err = s.Put(ctx, "bucket", "k", []byte("v2"), PutOptions{IfMatch: "wrong-etag"})
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = s.Put(ctx, "bucket", "k", []byte("v2"), PutOptions{IfMatch: etag1})
	require.NoError(t, err)

	obj, err := s.Get(ctx, "bucket", "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(obj.Body))
}

func TestMemStore_ListByPrefix(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_, _ = s.Put(ctx, "bucket", "raw/d1/1.json", []byte("a"), PutOptions{})
	_, _ = s.Put(ctx, "bucket", "raw/d1/2.json", []byte("b"), PutOptions{})
	_, _ = s.Put(ctx, "bucket", "raw/d2/1.json", []byte("c"), PutOptions{})

	keys, err := s.List(ctx, "bucket", "raw/d1/")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestMemStore_PutDoesNotAliasInputSlice(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	body := []byte("original")
	_, err := s.Put(ctx, "bucket", "k", body, PutOptions{})
	require.NoError(t, err)

	body[0] = 'X'
	obj, err := s.Get(ctx, "bucket", "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(obj.Body))
}
