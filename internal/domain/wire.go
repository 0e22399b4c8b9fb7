package domain

import (
	"encoding/json"
	"time"
)

// pointWire is the points.jsonl line shape: {deviceId, lat, lon, ts}.
type pointWire struct {
	DeviceID string  `json:"deviceId"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	TS       string  `json:"ts"`
}

// MarshalJSON writes a Point in the points.jsonl wire shape: ts as an
// ISO-8601 UTC instant with a trailing Z, second precision.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(pointWire{
		DeviceID: p.DeviceID,
		Lat:      p.Lat,
		Lon:      p.Lon,
		TS:       p.TS.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

// UnmarshalJSON accepts both {lat,lon} and {latitude,longitude}, and both
// {ts} (ISO string) and {timestamp} (numeric), tolerating whichever shape a
// merged points.jsonl line happens to use.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw struct {
		DeviceID  string          `json:"deviceId"`
		Lat       *float64        `json:"lat"`
		Lon       *float64        `json:"lon"`
		Latitude  *float64        `json:"latitude"`
		Longitude *float64        `json:"longitude"`
		TS        json.RawMessage `json:"ts"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.DeviceID = raw.DeviceID
	switch {
	case raw.Lat != nil:
		p.Lat = *raw.Lat
	case raw.Latitude != nil:
		p.Lat = *raw.Latitude
	}
	switch {
	case raw.Lon != nil:
		p.Lon = *raw.Lon
	case raw.Longitude != nil:
		p.Lon = *raw.Longitude
	}

	tsRaw := raw.TS
	if tsRaw == nil {
		tsRaw = raw.Timestamp
	}
	if tsRaw != nil {
		var v any
		if err := json.Unmarshal(tsRaw, &v); err == nil {
			if t, ok := NormalizeTimestamp(v); ok {
				p.TS = t
			}
		}
	}
	return nil
}

type centerWire struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type segmentWire struct {
	Center *centerWire `json:"center"`
	Start  string      `json:"start"`
	End    string      `json:"end"`
}

// MarshalJSON writes a Segment as {center:{lat,lon}, start, end} with ISO
// UTC instants. Center is written as null only when the segment genuinely
// has none.
func (s Segment) MarshalJSON() ([]byte, error) {
	wire := segmentWire{
		Start: s.Start.UTC().Format("2006-01-02T15:04:05Z"),
		End:   s.End.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if s.HasCenter {
		wire.Center = &centerWire{Lat: s.CenterLat, Lon: s.CenterLon}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON parses the {center:{lat,lon}, start, end} shape used by
// stays.json. Stays carry their center under "center" only — unlike
// visits.json, there is no field-name fallback chain here (see
// ParseVisitSegments), matching the original source's own
// `st.get("center") or {}` (stays) versus
// `v.get("center") or v.get("point") or v.get("location") or v` (visits).
func (s *Segment) UnmarshalJSON(data []byte) error {
	var raw segmentWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Center != nil {
		s.CenterLat = raw.Center.Lat
		s.CenterLon = raw.Center.Lon
		s.HasCenter = true
	}
	if t, err := time.Parse(time.RFC3339, raw.Start); err == nil {
		s.Start = t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, raw.End); err == nil {
		s.End = t.UTC()
	}
	return nil
}

// visitSegmentWire is the visits.json record shape: unlike stays, the
// center may be carried under any of several field names, or be absent
// entirely with the coordinates living on the record itself.
type visitSegmentWire struct {
	Center   json.RawMessage `json:"center"`
	Point    json.RawMessage `json:"point"`
	Location json.RawMessage `json:"location"`
	Start    string          `json:"start"`
	End      string          `json:"end"`
}

// ParseVisitSegments parses a visits.json array, resolving each record's
// center through the same fallback chain as the original source's
// `v.get("center") or v.get("point") or v.get("location") or v`: try
// "center", then "point", then "location", then the record itself (for
// producers that put lat/lon directly at the top level instead of nesting
// them under one of those keys).
func ParseVisitSegments(data []byte) ([]Segment, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}

	segments := make([]Segment, 0, len(raws))
	for _, r := range raws {
		seg, err := parseVisitSegment(r)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func parseVisitSegment(data []byte) (Segment, error) {
	var raw visitSegmentWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return Segment{}, err
	}

	var seg Segment
	if center, ok := firstCenter(raw.Center, raw.Point, raw.Location); ok {
		seg.CenterLat = center.Lat
		seg.CenterLon = center.Lon
		seg.HasCenter = true
	} else if center, ok := parseCenter(data); ok {
		seg.CenterLat = center.Lat
		seg.CenterLon = center.Lon
		seg.HasCenter = true
	}

	if t, err := time.Parse(time.RFC3339, raw.Start); err == nil {
		seg.Start = t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, raw.End); err == nil {
		seg.End = t.UTC()
	}
	return seg, nil
}

// firstCenter returns the first candidate that parses as a center, skipping
// absent (nil/"null") fields.
func firstCenter(candidates ...json.RawMessage) (centerWire, bool) {
	for _, c := range candidates {
		if len(c) == 0 || string(c) == "null" {
			continue
		}
		if center, ok := parseCenter(c); ok {
			return center, true
		}
	}
	return centerWire{}, false
}

// parseCenter requires both lat and lon to be explicitly present, so a
// record with neither (e.g. the bare-record fallback applied to a visit that
// carries no coordinates at all) is correctly reported as having no center,
// not a (0,0) sentinel.
func parseCenter(data []byte) (centerWire, bool) {
	var c struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return centerWire{}, false
	}
	if c.Lat == nil || c.Lon == nil {
		return centerWire{}, false
	}
	return centerWire{Lat: *c.Lat, Lon: *c.Lon}, true
}

type enrichedSegmentWire struct {
	Center    *centerWire `json:"center"`
	Start     string      `json:"start"`
	End       string      `json:"end"`
	Label     *string     `json:"label"`
	PlaceInfo *PlaceInfo  `json:"placeInfo,omitempty"`
}

// MarshalJSON flattens EnrichedSegment's embedded Segment into the wire
// shape {center, start, end, label, placeInfo}. Center is written as null
// when the underlying segment never had one, so a round trip through
// stays_enriched.json or visits_enriched.json preserves "no center" rather
// than reintroducing a (0,0) sentinel.
func (e EnrichedSegment) MarshalJSON() ([]byte, error) {
	wire := enrichedSegmentWire{
		Start:     e.Start.UTC().Format("2006-01-02T15:04:05Z"),
		End:       e.End.UTC().Format("2006-01-02T15:04:05Z"),
		Label:     e.Label,
		PlaceInfo: e.PlaceInfo,
	}
	if e.HasCenter {
		wire.Center = &centerWire{Lat: e.CenterLat, Lon: e.CenterLon}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON parses the flattened enriched-segment wire shape.
func (e *EnrichedSegment) UnmarshalJSON(data []byte) error {
	var raw enrichedSegmentWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Center != nil {
		e.CenterLat = raw.Center.Lat
		e.CenterLon = raw.Center.Lon
		e.HasCenter = true
	}
	if t, err := time.Parse(time.RFC3339, raw.Start); err == nil {
		e.Start = t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, raw.End); err == nil {
		e.End = t.UTC()
	}
	e.Label = raw.Label
	e.PlaceInfo = raw.PlaceInfo
	return nil
}

type tripEndpointWire struct {
	Time  string  `json:"time"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label *string `json:"label"`
}

type tripWire struct {
	From       tripEndpointWire `json:"from"`
	To         tripEndpointWire `json:"to"`
	DistanceKm *float64         `json:"distance_km"`
	Fallback   bool             `json:"fallback"`
}

func endpointWire(e TripEndpoint) tripEndpointWire {
	return tripEndpointWire{
		Time:  e.Time.UTC().Format("2006-01-02T15:04:05Z"),
		Lat:   e.Lat,
		Lon:   e.Lon,
		Label: e.Label,
	}
}

// MarshalJSON writes a Trip as the trips.json record shape (§3): no
// geometry, just the two endpoints, distance, and fallback flag.
func (t Trip) MarshalJSON() ([]byte, error) {
	return json.Marshal(tripWire{
		From:       endpointWire(t.From),
		To:         endpointWire(t.To),
		DistanceKm: t.DistanceKm,
		Fallback:   t.Fallback,
	})
}

type geometryWire struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type geoFeatureWire struct {
	Type       string         `json:"type"`
	Geometry   geometryWire   `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// MarshalJSON writes a GeoFeature as a GeoJSON LineString Feature with the
// descriptive properties mirrored from its Trip (§4.5).
func (f GeoFeature) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoFeatureWire{
		Type: "Feature",
		Geometry: geometryWire{
			Type:        "LineString",
			Coordinates: f.Trip.Coordinates,
		},
		Properties: map[string]any{
			"type":        "trip",
			"from_time":   f.Trip.From.Time.UTC().Format("2006-01-02T15:04:05Z"),
			"to_time":     f.Trip.To.Time.UTC().Format("2006-01-02T15:04:05Z"),
			"from_label":  f.Trip.From.Label,
			"to_label":    f.Trip.To.Label,
			"distance_km": f.Trip.DistanceKm,
			"fallback":    f.Trip.Fallback,
		},
	})
}

type featureCollectionWire struct {
	Type     string       `json:"type"`
	Features []GeoFeature `json:"features"`
}

// MarshalJSON writes a FeatureCollection, defaulting Features to an empty
// (not null) array so an empty trip set still serializes to geojson.json's
// required "empty FeatureCollection" shape.
func (fc FeatureCollection) MarshalJSON() ([]byte, error) {
	features := fc.Features
	if features == nil {
		features = []GeoFeature{}
	}
	return json.Marshal(featureCollectionWire{Type: "FeatureCollection", Features: features})
}

// RawRecord is the body of a single raw/{device}/... object.
type RawRecord struct {
	DeviceID  string  `json:"deviceId"`
	Timestamp int64   `json:"timestamp"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   *string `json:"address,omitempty"`
}
