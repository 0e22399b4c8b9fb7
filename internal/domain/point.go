package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Point is a single normalized GPS sample for one device.
type Point struct {
	DeviceID string    `json:"deviceId"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	TS       time.Time `json:"-"`
}

// MarshalTS returns the point's timestamp in epoch milliseconds. points.jsonl
// does not use this form: MarshalJSON writes ts as an ISO-8601 string.
func (p Point) MarshalTS() int64 {
	return p.TS.UnixMilli()
}

// tsMillisThreshold is the magnitude above which a numeric timestamp is
// assumed to already be in milliseconds rather than seconds.
const tsMillisThreshold = 1e12

// NormalizeTimestamp converts a raw JSON-decoded timestamp value (float64,
// int, string) into a UTC time.Time. It reports false when the value cannot
// be confidently decoded, so the caller can drop the record rather than
// fabricate a value.
func NormalizeTimestamp(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case float64:
		return fromNumeric(v), true
	case int64:
		return fromNumeric(float64(v)), true
	case int:
		return fromNumeric(float64(v)), true
	case string:
		return fromString(v)
	default:
		return time.Time{}, false
	}
}

func fromNumeric(v float64) time.Time {
	if v > tsMillisThreshold {
		ms := int64(v)
		return time.UnixMilli(ms).UTC()
	}
	sec := int64(v)
	fracMs := int64((v - float64(sec)) * 1000)
	return time.UnixMilli(sec*1000 + fracMs).UTC()
}

func fromString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromNumeric(n), true
	}
	normalized := s
	if strings.HasSuffix(normalized, "Z") {
		normalized = strings.TrimSuffix(normalized, "Z") + "+00:00"
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999-07:00",
		"2006-01-02T15:04:05-07:00",
	} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Day returns the UTC calendar day the point belongs to, formatted
// YYYY-MM-DD.
func (p Point) Day() string {
	return p.TS.Format("2006-01-02")
}

// roundTo6 rounds a coordinate to 6 decimal places for dedup-key purposes.
func roundTo6(v float64) float64 {
	const scale = 1e6
	return float64(int64(v*scale+sign(v)*0.5)) / scale
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// dedupKey returns the stable string key two points collide on when they
// represent the same sample: identical timestamp and coordinates rounded to
// 6 decimal places.
func dedupKey(p Point) string {
	return fmt.Sprintf("%d|%s|%s",
		p.TS.UnixMilli(),
		strconv.FormatFloat(roundTo6(p.Lat), 'f', 6, 64),
		strconv.FormatFloat(roundTo6(p.Lon), 'f', 6, 64),
	)
}
