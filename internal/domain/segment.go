package domain

import "time"

// Regime names a (radius, min-duration) threshold pair that ComputeSegments
// applies while sliding over a PointSet. Stays and Visits are the same
// underlying computation under different thresholds.
type Regime struct {
	Name        string
	RadiusM     float64
	MinDuration time.Duration
}

// Default regimes, per spec: Stays use a wider radius and longer minimum
// dwell; Visits detect shorter, tighter stops. Both are configurable.
var (
	StayRegime = Regime{Name: "stay", RadiusM: 200, MinDuration: 300 * time.Second}

	VisitRegime = Regime{Name: "visit", RadiusM: 120, MinDuration: 30 * time.Second}
)

// Segment is a contiguous dwell window: the arithmetic-mean center of its
// points and the first/last included timestamps.
type Segment struct {
	CenterLat float64   `json:"-"`
	CenterLon float64   `json:"-"`
	HasCenter bool      `json:"-"`
	Start     time.Time `json:"-"`
	End       time.Time `json:"-"`
}

// ComputeSegments runs the single-pass sliding-window dwell detector over a
// sorted PointSet and returns the segments it emits under the regime's
// radius and minimum-duration thresholds.
//
// The algorithm preserves a deliberate off-by-one convention: when the
// window points[start:i] first has a point farther than the radius from its
// centroid, a segment is emitted if that window spans at least the minimum
// duration. The emitted segment covers only points[start:i-1], using a
// centroid recomputed over that shorter window, and the next window
// restarts at i-1: the boundary point opens the next window but is not part
// of the emitted segment. Because the duration check is made on the window
// that still includes the boundary point, an emitted segment can span less
// than the regime's minimum.
func ComputeSegments(points []Point, regime Regime) []Segment {
	var segments []Segment
	if len(points) == 0 {
		return segments
	}

	start := 0
	n := len(points)
	for i := 1; i <= n; i++ {
		window := points[start:i]
		cLat, cLon := centroid(window)
		maxR := maxRadius(window, cLat, cLon)
		dur := window[len(window)-1].TS.Sub(window[0].TS)

		if maxR > regime.RadiusM {
			if dur >= regime.MinDuration && len(window) > 1 {
				shorter := points[start : i-1]
				sLat, sLon := centroid(shorter)
				segments = append(segments, Segment{
					CenterLat: sLat,
					CenterLon: sLon,
					HasCenter: true,
					Start:     shorter[0].TS,
					End:       shorter[len(shorter)-1].TS,
				})
			}
			start = i - 1
		}
	}

	// Flush the trailing window if it alone meets the minimum duration.
	tail := points[start:]
	if len(tail) > 1 {
		dur := tail[len(tail)-1].TS.Sub(tail[0].TS)
		if dur >= regime.MinDuration {
			cLat, cLon := centroid(tail)
			segments = append(segments, Segment{
				CenterLat: cLat,
				CenterLon: cLon,
				HasCenter: true,
				Start:     tail[0].TS,
				End:       tail[len(tail)-1].TS,
			})
		}
	}

	return segments
}

func centroid(points []Point) (lat, lon float64) {
	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}
	n := float64(len(points))
	return sumLat / n, sumLon / n
}

func maxRadius(points []Point, cLat, cLon float64) float64 {
	var max float64
	for _, p := range points {
		r := HaversineMeters(cLat, cLon, p.Lat, p.Lon)
		if r > max {
			max = r
		}
	}
	return max
}
