package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGeocoder struct {
	calls  int
	result *Result
	err    error
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*Result, error) {
	m.calls++
	return m.result, m.err
}

func TestCachedGeocoder_CachesSuccessfulResult(t *testing.T) {
	inner := &mockGeocoder{result: &Result{Label: "Tokyo Station"}}
	c := NewCachedGeocoder(inner, 10)

	r1, err := c.ReverseGeocode(context.Background(), 35.681, 139.767)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo Station", r1.Label)

	r2, err := c.ReverseGeocode(context.Background(), 35.681, 139.767)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo Station", r2.Label)
	assert.Equal(t, 1, inner.calls, "second lookup should hit the cache")
}

func TestCachedGeocoder_DoesNotCacheNilResult(t *testing.T) {
	inner := &mockGeocoder{result: nil}
	c := NewCachedGeocoder(inner, 10)

	_, err := c.ReverseGeocode(context.Background(), 1, 1)
	require.NoError(t, err)
	_, err = c.ReverseGeocode(context.Background(), 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "nil results must not be cached so retries can succeed later")
}

func TestCachedGeocoder_PropagatesError(t *testing.T) {
	inner := &mockGeocoder{err: errors.New("upstream down")}
	c := NewCachedGeocoder(inner, 10)

	_, err := c.ReverseGeocode(context.Background(), 1, 1)
	assert.Error(t, err)
}

func TestCachedGeocoder_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &mockGeocoder{result: &Result{Label: "place"}}
	c := NewCachedGeocoder(inner, 2)

	_, _ = c.ReverseGeocode(context.Background(), 1, 1)
	_, _ = c.ReverseGeocode(context.Background(), 2, 2)
	_, _ = c.ReverseGeocode(context.Background(), 3, 3) // evicts (1,1)
	assert.Equal(t, 3, inner.calls)

	_, _ = c.ReverseGeocode(context.Background(), 1, 1) // cache miss again
	assert.Equal(t, 4, inner.calls)
}
