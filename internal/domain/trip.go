package domain

import (
	"sort"
	"time"
)

// TripEndpoint is one end of a Trip.
type TripEndpoint struct {
	Time  time.Time
	Lat   float64
	Lon   float64
	Label *string
}

// Trip is a journey between two temporally adjacent stays in the same day.
type Trip struct {
	From        TripEndpoint
	To          TripEndpoint
	DistanceKm  *float64 `json:"distance_km"`
	Fallback    bool
	Coordinates [][2]float64 // [lon, lat] pairs
}

// RouteResult is what a route-calculation capability returns on success.
// A nil *RouteResult, or one with no Coordinates, means "fall back to a
// straight line" to the caller of ResolveGeometry.
type RouteResult struct {
	Coordinates [][2]float64 // [lon, lat], first leg's LineString
	DistanceKm  *float64     // from the response summary, if present
}

// ResolveGeometry decides the polyline and distance for a trip leg between
// from and to. When route is non-nil and carries coordinates, those are
// used verbatim with the summary distance (falling back to haversine only
// if the summary omitted it). Otherwise the straight two-point line is
// used, fallback is true, and distance is always haversine.
func ResolveGeometry(from, to TripEndpoint, route *RouteResult) (coords [][2]float64, distanceKm float64, fallback bool) {
	if route != nil && len(route.Coordinates) > 0 {
		dist := HaversineKm(from.Lat, from.Lon, to.Lat, to.Lon)
		if route.DistanceKm != nil {
			dist = *route.DistanceKm
		}
		return route.Coordinates, dist, false
	}
	straight := [][2]float64{{from.Lon, from.Lat}, {to.Lon, to.Lat}}
	return straight, HaversineKm(from.Lat, from.Lon, to.Lat, to.Lon), true
}

// segmentEnd returns end if non-zero, else start — the "end falling back
// to start when absent" sort key used for both sorting stays and choosing
// the "time" field of a trip endpoint.
func segmentEnd(s EnrichedSegment) time.Time {
	if !s.End.IsZero() {
		return s.End
	}
	return s.Start
}

func segmentStart(s EnrichedSegment) time.Time {
	if !s.Start.IsZero() {
		return s.Start
	}
	return s.End
}

// hasCenter reports whether a segment carries an explicitly located center,
// not a zero-value sentinel — a legitimate center at (0,0) must not be
// mistaken for a missing one. Segments pass through Enrich with label=nil
// when their center is missing; BuildTrips must skip those rather than
// pair them.
func hasCenter(s EnrichedSegment) bool {
	return s.HasCenter
}

// RouteFunc requests a road-network polyline between two points. It
// returns (nil, nil) when the route calculator is unconfigured.
type RouteFunc func(from, to TripEndpoint) (*RouteResult, error)

// BuildTrips stably sorts stays by end (falling back to start), pairs
// consecutive stays, and builds a Trip for every pair whose centers are
// both usable. skipped counts pairs dropped for a missing/unparseable
// center, matching the pairing law: len(trips) == max(0, len(stays)-1) -
// skipped.
func BuildTrips(stays []EnrichedSegment, route RouteFunc) (trips []Trip, skipped int, err error) {
	if len(stays) < 2 {
		return nil, 0, nil
	}

	sorted := make([]EnrichedSegment, len(stays))
	copy(sorted, stays)
	sort.SliceStable(sorted, func(i, j int) bool {
		return segmentEnd(sorted[i]).Before(segmentEnd(sorted[j]))
	})

	for i := 0; i < len(sorted)-1; i++ {
		a, b := sorted[i], sorted[i+1]
		if !hasCenter(a) || !hasCenter(b) {
			skipped++
			continue
		}

		from := TripEndpoint{Time: segmentEnd(a), Lat: a.CenterLat, Lon: a.CenterLon, Label: a.Label}
		to := TripEndpoint{Time: segmentStart(b), Lat: b.CenterLat, Lon: b.CenterLon, Label: b.Label}

		var result *RouteResult
		if route != nil {
			var routeErr error
			result, routeErr = route(from, to)
			if routeErr != nil {
				result = nil
			}
		}

		coords, distKm, fallback := ResolveGeometry(from, to, result)
		d := distKm
		trips = append(trips, Trip{
			From:        from,
			To:          to,
			DistanceKm:  &d,
			Fallback:    fallback,
			Coordinates: coords,
		})
	}

	return trips, skipped, nil
}

// GeoFeature is a GeoJSON LineString Feature carrying the same descriptive
// fields as its source Trip.
type GeoFeature struct {
	Trip Trip
}

// FeatureCollection groups GeoFeatures for geojson.json.
type FeatureCollection struct {
	Features []GeoFeature
}
