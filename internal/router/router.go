// Package router implements the road-network polyline capability the
// Trips stage calls between two stay centers, with the graceful fallback
// to a straight line living in domain.ResolveGeometry — this package only
// ever returns what the remote calculator actually said, or an error.
package router

import (
	"context"

	"github.com/daytrace/pipeline/internal/domain"
)

// Calculator requests a road-network route between two points with leg
// geometry included. A nil *domain.RouteResult with a nil error means the
// calculator ran but returned no usable legs/linestring.
type Calculator interface {
	CalculateRoute(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (*domain.RouteResult, error)
}

// Unconfigured is a Calculator that always reports "not configured",
// matching the spec's behavior when no route calculator name is set:
// the Trips stage must fall back to a straight line without attempting a
// request.
type Unconfigured struct{}

func (Unconfigured) CalculateRoute(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (*domain.RouteResult, error) {
	return nil, nil
}
