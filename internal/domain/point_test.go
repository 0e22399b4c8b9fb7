package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantMs  int64
		wantOk  bool
	}{
		{"float seconds", float64(1700000000), 1700000000000, true},
		{"float millis", float64(1700000000123), 1700000000123, true},
		{"int seconds", int(1700000000), 1700000000000, true},
		{"iso with Z", "2023-11-14T22:13:20Z", 1700000000000, true},
		{"iso with offset", "2023-11-14T23:13:20+01:00", 1700000000000, true},
		{"garbage string", "not-a-time", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeTimestamp(tt.input)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.wantMs, got.UnixMilli())
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}

func TestNormalizeTimestamp_MillisThreshold(t *testing.T) {
	// Exactly at the boundary, 1e12, is treated as seconds (not > threshold).
	got, ok := NormalizeTimestamp(float64(1e12))
	require.True(t, ok)
	assert.Equal(t, int64(1e12)*1000, got.UnixMilli())

	got, ok = NormalizeTimestamp(float64(1e12 + 1))
	require.True(t, ok)
	assert.Equal(t, int64(1e12+1), got.UnixMilli())
}

func TestPoint_Day(t *testing.T) {
	p := Point{TS: time.Date(2026, 3, 5, 23, 59, 59, 0, time.UTC)}
	assert.Equal(t, "2026-03-05", p.Day())
}
