package objectstore

import (
	"fmt"
	"strings"
)

// Object-store key layout, mirrored exactly from spec §6:
//
//	raw/{deviceId}/{tsMs}-{rid}-{idx}.json
//	processed/{deviceId}/date={YYYY-MM-DD}/points.jsonl
//	processed/{deviceId}/date={YYYY-MM-DD}/stays.json
//	processed/{deviceId}/date={YYYY-MM-DD}/visits.json
//	processed/{deviceId}/date={YYYY-MM-DD}/stays_enriched.json
//	processed/{deviceId}/date={YYYY-MM-DD}/visits_enriched.json
//	processed/{deviceId}/date={YYYY-MM-DD}/trips.json
//	processed/{deviceId}/date={YYYY-MM-DD}/geojson.json
//	processed/{deviceId}/date={YYYY-MM-DD}/diary_stub.txt

// RawKey builds the key a raw ingest object is written to.
func RawKey(deviceID string, tsMs int64, rid string, idx int) string {
	return fmt.Sprintf("raw/%s/%d-%s-%d.json", deviceID, tsMs, rid, idx)
}

// DayPrefix is the processed/ key prefix shared by every output for one
// (device, day).
func DayPrefix(deviceID, day string) string {
	return fmt.Sprintf("processed/%s/date=%s/", deviceID, day)
}

func PointsKey(deviceID, day string) string        { return DayPrefix(deviceID, day) + "points.jsonl" }
func StaysKey(deviceID, day string) string          { return DayPrefix(deviceID, day) + "stays.json" }
func VisitsKey(deviceID, day string) string         { return DayPrefix(deviceID, day) + "visits.json" }
func StaysEnrichedKey(deviceID, day string) string  { return DayPrefix(deviceID, day) + "stays_enriched.json" }
func VisitsEnrichedKey(deviceID, day string) string { return DayPrefix(deviceID, day) + "visits_enriched.json" }
func TripsKey(deviceID, day string) string          { return DayPrefix(deviceID, day) + "trips.json" }
func GeoJSONKey(deviceID, day string) string        { return DayPrefix(deviceID, day) + "geojson.json" }
func DiaryStubKey(deviceID, day string) string      { return DayPrefix(deviceID, day) + "diary_stub.txt" }

// IsRawKey reports whether key is a raw ingest object.
func IsRawKey(key string) bool {
	return strings.HasPrefix(key, "raw/") && strings.HasSuffix(key, ".json")
}

// IsPointsKey, IsStaysKey, etc. identify which stage owns a processed key,
// grounded directly on the suffix-matching dispatch the original
// implementation used (key.endswith(...)).
func IsPointsKey(key string) bool          { return strings.HasSuffix(key, "points.jsonl") }
func IsStaysKey(key string) bool           { return strings.HasSuffix(key, "/stays.json") }
func IsVisitsKey(key string) bool          { return strings.HasSuffix(key, "/visits.json") }
func IsStaysEnrichedKey(key string) bool   { return strings.HasSuffix(key, "stays_enriched.json") }
func IsVisitsEnrichedKey(key string) bool  { return strings.HasSuffix(key, "visits_enriched.json") }

// DeviceAndDayFromProcessedKey extracts {deviceId} and the date= value from
// a processed/ key, e.g. "processed/d1/date=2026-01-01/points.jsonl".
func DeviceAndDayFromProcessedKey(key string) (deviceID, day string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) < 3 || parts[0] != "processed" {
		return "", "", false
	}
	deviceID = parts[1]
	const datePrefix = "date="
	if !strings.HasPrefix(parts[2], datePrefix) {
		return "", "", false
	}
	return deviceID, strings.TrimPrefix(parts[2], datePrefix), true
}
