package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_ZeroDistanceForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, HaversineMeters(35.0, 139.0, 35.0, 139.0))
	assert.Equal(t, 0.0, HaversineKm(35.0, 139.0, 35.0, 139.0))
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Tokyo Station to Shin-Yokohama Station, roughly 23.6km in a straight line.
	km := HaversineKm(35.6812, 139.7671, 35.5079, 139.6170)
	assert.InDelta(t, 23.6, km, 0.5)
}

func TestHaversine_ConstantsAreDistinct(t *testing.T) {
	assert.NotEqual(t, EarthRadiusSegmentMeters/1000, EarthRadiusTripKm)
}
