package domain

import "sort"

// MergePoints combines existing and incoming points into a single
// deduplicated, timestamp-sorted slice. Duplicates are detected by
// [dedupKey] (same ts, same lat/lon rounded to 6 decimals); the first
// occurrence in (existing, incoming) order wins. Neither input slice is
// mutated.
//
// Grounded on the same first-occurrence-wins, stable-key dedup idiom used
// for waypoint merging elsewhere in the ecosystem: round coordinates to a
// fixed precision, build a string key, keep the first hit.
func MergePoints(existing, incoming []Point) []Point {
	out := make([]Point, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	appendUnique := func(pts []Point) {
		for _, p := range pts {
			key := dedupKey(p)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, p)
		}
	}
	appendUnique(existing)
	appendUnique(incoming)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TS.Before(out[j].TS)
	})
	return out
}

// IsSorted reports whether points are in strictly non-decreasing timestamp
// order, the invariant required of a written points.jsonl file.
func IsSorted(points []Point) bool {
	for i := 1; i < len(points); i++ {
		if points[i].TS.Before(points[i-1].TS) {
			return false
		}
	}
	return true
}

// SameDay reports whether every point shares the same UTC calendar day.
func SameDay(points []Point) bool {
	if len(points) == 0 {
		return true
	}
	day := points[0].Day()
	for _, p := range points[1:] {
		if p.Day() != day {
			return false
		}
	}
	return true
}
