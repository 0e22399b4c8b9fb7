package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/daytrace/pipeline/internal/bus"
	"github.com/daytrace/pipeline/internal/domain"
	"github.com/daytrace/pipeline/internal/objectstore"
	"github.com/daytrace/pipeline/internal/observability"
	"github.com/daytrace/pipeline/internal/router"
)

// TripsHandler implements spec §4.5: pair consecutive enriched stays into
// Trips, resolving each leg's geometry through the route calculator with a
// graceful straight-line fallback, and write both the tabular and GeoJSON
// outputs.
type TripsHandler struct {
	Store      objectstore.Store
	Calculator router.Calculator
	Bucket     string
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

func (h *TripsHandler) Handle(ctx context.Context, ev bus.Event) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		h.Metrics.StageProcessingDuration.WithLabelValues("trips").Observe(time.Since(start).Seconds())
		h.Metrics.EventsProcessed.WithLabelValues("trips", outcome).Inc()
	}()

	dir := path.Dir(ev.Key)
	tripsKey := dir + "/trips.json"
	geoKey := dir + "/geojson.json"

	obj, err := h.Store.Get(ctx, h.Bucket, ev.Key)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("read %s: %w", ev.Key, err)
	}

	var stays []domain.EnrichedSegment
	if err := json.Unmarshal(obj.Body, &stays); err != nil {
		h.Logger.Info("trips: input is empty or not an array, writing empty outputs", "key", ev.Key, "error", err)
		return h.writeOutputs(ctx, tripsKey, geoKey, nil)
	}

	trips, skipped, err := domain.BuildTrips(stays, h.routeFunc(ctx))
	if err != nil {
		outcome = "error"
		return fmt.Errorf("build trips: %w", err)
	}
	if skipped > 0 {
		h.Logger.Info("trips: skipped pairs with missing center", "count", skipped, "key", ev.Key)
	}

	if err := h.writeOutputs(ctx, tripsKey, geoKey, trips); err != nil {
		outcome = "error"
		return err
	}
	return nil
}

func (h *TripsHandler) routeFunc(ctx context.Context) domain.RouteFunc {
	return func(from, to domain.TripEndpoint) (*domain.RouteResult, error) {
		start := time.Now()
		result, err := h.Calculator.CalculateRoute(ctx, from.Lat, from.Lon, to.Lat, to.Lon)
		h.Metrics.RouteAPIDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			h.Metrics.RouteRequests.WithLabelValues("error").Inc()
			return nil, err
		}
		if result == nil {
			h.Metrics.RouteRequests.WithLabelValues("fallback").Inc()
			return nil, nil
		}
		h.Metrics.RouteRequests.WithLabelValues("ok").Inc()
		return result, nil
	}
}

func (h *TripsHandler) writeOutputs(ctx context.Context, tripsKey, geoKey string, trips []domain.Trip) error {
	if trips == nil {
		trips = []domain.Trip{}
	}
	tripsBody, err := json.Marshal(trips)
	if err != nil {
		return fmt.Errorf("marshal trips: %w", err)
	}
	if _, err := h.Store.Put(ctx, h.Bucket, tripsKey, tripsBody, objectstore.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("write %s: %w", tripsKey, err)
	}

	features := make([]domain.GeoFeature, 0, len(trips))
	for _, t := range trips {
		features = append(features, domain.GeoFeature{Trip: t})
	}
	fc := domain.FeatureCollection{Features: features}
	geoBody, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if _, err := h.Store.Put(ctx, h.Bucket, geoKey, geoBody, objectstore.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("write %s: %w", geoKey, err)
	}
	return nil
}
