// Package geocode implements the reverse-geocoding capability the Enrich
// stage depends on: given coordinates, return a human label and the closed
// placeInfo key set, or no result at all.
package geocode

import (
	"context"

	"github.com/daytrace/pipeline/internal/domain"
)

// Result is what a successful reverse-geocode lookup returns. Label and
// PlaceInfo are both optional: a provider may return a label with no
// structured fields, or vice versa.
type Result struct {
	Label     string
	PlaceInfo domain.PlaceInfo
}

// Geocoder reverse-geocodes a coordinate. A nil error with a nil *Result
// means the provider ran successfully but found nothing — distinct from an
// error, which the caller retries.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Result, error)
}
