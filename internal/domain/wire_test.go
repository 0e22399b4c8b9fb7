package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVisitSegments_CenterField(t *testing.T) {
	segs, err := ParseVisitSegments([]byte(`[{"center":{"lat":35.0,"lon":139.0},"start":"2026-01-01T09:00:00Z","end":"2026-01-01T09:05:00Z"}]`))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.True(t, segs[0].HasCenter)
	assert.Equal(t, 35.0, segs[0].CenterLat)
	assert.Equal(t, 139.0, segs[0].CenterLon)
}

func TestParseVisitSegments_PointFieldFallback(t *testing.T) {
	segs, err := ParseVisitSegments([]byte(`[{"point":{"lat":35.1,"lon":139.1},"start":"2026-01-01T09:00:00Z","end":"2026-01-01T09:05:00Z"}]`))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.True(t, segs[0].HasCenter)
	assert.Equal(t, 35.1, segs[0].CenterLat)
	assert.Equal(t, 139.1, segs[0].CenterLon)
}

func TestParseVisitSegments_LocationFieldFallback(t *testing.T) {
	segs, err := ParseVisitSegments([]byte(`[{"location":{"lat":35.2,"lon":139.2},"start":"2026-01-01T09:00:00Z","end":"2026-01-01T09:05:00Z"}]`))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.True(t, segs[0].HasCenter)
	assert.Equal(t, 35.2, segs[0].CenterLat)
	assert.Equal(t, 139.2, segs[0].CenterLon)
}

func TestParseVisitSegments_SelfFallback(t *testing.T) {
	segs, err := ParseVisitSegments([]byte(`[{"lat":35.3,"lon":139.3,"start":"2026-01-01T09:00:00Z","end":"2026-01-01T09:05:00Z"}]`))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.True(t, segs[0].HasCenter)
	assert.Equal(t, 35.3, segs[0].CenterLat)
	assert.Equal(t, 139.3, segs[0].CenterLon)
}

func TestParseVisitSegments_CenterTakesPrecedenceOverPoint(t *testing.T) {
	segs, err := ParseVisitSegments([]byte(`[{"center":{"lat":1.0,"lon":2.0},"point":{"lat":9.0,"lon":9.0},"start":"2026-01-01T09:00:00Z","end":"2026-01-01T09:05:00Z"}]`))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, 1.0, segs[0].CenterLat)
	assert.Equal(t, 2.0, segs[0].CenterLon)
}

func TestParseVisitSegments_NullCenterFallsThrough(t *testing.T) {
	segs, err := ParseVisitSegments([]byte(`[{"center":null,"point":null,"location":{"lat":4.0,"lon":5.0},"start":"2026-01-01T09:00:00Z","end":"2026-01-01T09:05:00Z"}]`))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, 4.0, segs[0].CenterLat)
	assert.Equal(t, 5.0, segs[0].CenterLon)
}

func TestParseVisitSegments_NoCenterAnywhereStaysCenterless(t *testing.T) {
	// No center/point/location and no bare lat/lon either: must not be
	// mistaken for a legitimate center at (0,0).
	segs, err := ParseVisitSegments([]byte(`[{"start":"2026-01-01T09:00:00Z","end":"2026-01-01T09:05:00Z"}]`))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.False(t, segs[0].HasCenter)
}
