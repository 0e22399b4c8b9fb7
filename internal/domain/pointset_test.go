package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mkPoint(device string, sec int64, lat, lon float64) Point {
	return Point{DeviceID: device, Lat: lat, Lon: lon, TS: time.Unix(sec, 0).UTC()}
}

func TestMergePoints_DedupFirstOccurrenceWins(t *testing.T) {
	existing := []Point{mkPoint("d1", 100, 35.0, 139.0)}
	incoming := []Point{
		mkPoint("d1", 100, 35.0000001, 139.0000001), // rounds to same key as existing
		mkPoint("d1", 200, 35.1, 139.1),
	}

	merged := MergePoints(existing, incoming)
	assert.Len(t, merged, 2)
	assert.Equal(t, 35.0, merged[0].Lat) // existing copy wins, not incoming's near-duplicate
}

func TestMergePoints_SortsByTS(t *testing.T) {
	existing := []Point{mkPoint("d1", 300, 1, 1)}
	incoming := []Point{mkPoint("d1", 100, 2, 2), mkPoint("d1", 200, 3, 3)}

	merged := MergePoints(existing, incoming)
	assert.True(t, IsSorted(merged))
	assert.Equal(t, int64(100), merged[0].TS.Unix())
	assert.Equal(t, int64(300), merged[2].TS.Unix())
}

func TestMergePoints_DoesNotMutateInputs(t *testing.T) {
	existing := []Point{mkPoint("d1", 100, 1, 1)}
	incoming := []Point{mkPoint("d1", 200, 2, 2)}

	_ = MergePoints(existing, incoming)
	assert.Len(t, existing, 1)
	assert.Len(t, incoming, 1)
}

func TestMergePoints_Idempotent(t *testing.T) {
	existing := []Point{mkPoint("d1", 100, 1, 1), mkPoint("d1", 200, 2, 2)}
	first := MergePoints(existing, existing)
	second := MergePoints(first, existing)
	assert.Equal(t, first, second)
}

func TestSameDay(t *testing.T) {
	a := mkPoint("d1", 0, 0, 0)
	b := Point{TS: time.Unix(0, 0).UTC().Add(48 * time.Hour)}
	assert.True(t, SameDay([]Point{a}))
	assert.False(t, SameDay([]Point{a, b}))
}
