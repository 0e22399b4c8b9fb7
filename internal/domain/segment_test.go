package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointAt(lat, lon float64, t time.Time) Point {
	return Point{DeviceID: "d1", Lat: lat, Lon: lon, TS: t}
}

func TestComputeSegments_SingleLongDwell(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	var points []Point
	for i := 0; i < 10; i++ {
		// All within a few meters of each other, spread over 540s.
		points = append(points, pointAt(35.0+float64(i)*0.0000001, 139.0, base.Add(time.Duration(i)*60*time.Second)))
	}

	segs := ComputeSegments(points, StayRegime)
	require.Len(t, segs, 1)
	assert.True(t, segs[0].End.After(segs[0].Start))
	assert.GreaterOrEqual(t, segs[0].End.Sub(segs[0].Start), StayRegime.MinDuration)
}

func TestComputeSegments_ShortDwellBelowMinDurationEmitsNothing(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	points := []Point{
		pointAt(35.0, 139.0, base),
		pointAt(35.0, 139.0, base.Add(10*time.Second)),
		pointAt(36.0, 140.0, base.Add(20*time.Second)), // far jump, breaks the window
	}
	segs := ComputeSegments(points, StayRegime)
	assert.Empty(t, segs)
}

func TestComputeSegments_EmptyInput(t *testing.T) {
	assert.Empty(t, ComputeSegments(nil, StayRegime))
}

func TestComputeSegments_TravelThenDwellProducesOneSegment(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	var points []Point
	// Traveling: big jumps, short durations, should not qualify as a segment.
	for i := 0; i < 5; i++ {
		points = append(points, pointAt(35.0+float64(i), 139.0+float64(i), base.Add(time.Duration(i)*time.Second)))
	}
	// Then dwell for 420s near a fixed point.
	dwellStart := base.Add(5 * time.Second)
	for i := 0; i < 8; i++ {
		points = append(points, pointAt(40.0, 145.0, dwellStart.Add(time.Duration(i)*60*time.Second)))
	}

	segs := ComputeSegments(points, StayRegime)
	require.Len(t, segs, 1)
	assert.InDelta(t, 40.0, segs[0].CenterLat, 0.01)
}

func TestStayAndVisitRegimesDiffer(t *testing.T) {
	assert.Greater(t, StayRegime.RadiusM, VisitRegime.RadiusM)
	assert.Greater(t, StayRegime.MinDuration, VisitRegime.MinDuration)
}
