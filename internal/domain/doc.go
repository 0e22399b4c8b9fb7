// Package domain models a single device's daily movement record: raw GPS
// samples, the deduplicated point set built from them, the dwell segments
// derived by the sliding-window detector, their reverse-geocoded form, and
// the trips stitched between consecutive stays.
//
// # Day Partitioning
//
// Every [PointSet] belongs to exactly one UTC calendar day. A point whose
// timestamp falls on a different day than its PointSet never appears in it;
// the Merge stage is responsible for routing each point to the object keyed
// by its own day. There is no cross-day stay or trip.
//
// # Timestamp Normalization
//
// Incoming timestamps may be int/float seconds, int/float milliseconds, or
// an ISO-8601 string with a "Z" suffix or explicit offset. Milliseconds are
// distinguished from seconds by magnitude: values greater than 1e12 are
// treated as milliseconds. [NormalizeTimestamp] reports a value it cannot
// confidently decode and never substitutes a time for it. The Merge stage
// drops a record whose timestamp does not decode; the Ingest stage does not
// drop such a record but stamps it with [Now].
//
// # Dedup Key
//
// Two points are duplicates of each other when they share the same
// timestamp and the same latitude/longitude rounded to 6 decimal places
// (roughly 11cm of precision). The first occurrence in input order wins;
// see [MergePoints].
//
// # Earth Radius Constants
//
// Two different approximations of the Earth's radius are used in this
// package, deliberately not unified: [EarthRadiusSegmentMeters] in the
// dwell-segmentation distance check, and [EarthRadiusTripKm] in the trip
// straight-line fallback distance. Both are carried forward from the
// system this package reimplements; collapsing them to one constant would
// silently change every distance ever computed downstream.
package domain
