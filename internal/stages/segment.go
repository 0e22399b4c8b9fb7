package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/daytrace/pipeline/internal/bus"
	"github.com/daytrace/pipeline/internal/domain"
	"github.com/daytrace/pipeline/internal/objectstore"
	"github.com/daytrace/pipeline/internal/observability"
)

// SegmentHandler implements spec §4.3: read a day's points.jsonl, compute
// Stays and Visits independently under their own regimes, and fire the
// Enrich stage for each output written.
type SegmentHandler struct {
	Store       objectstore.Store
	Publisher   bus.Publisher
	Bucket      string
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	StayRegime  domain.Regime
	VisitRegime domain.Regime
}

func (h *SegmentHandler) Handle(ctx context.Context, ev bus.Event) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		h.Metrics.StageProcessingDuration.WithLabelValues("segment").Observe(time.Since(start).Seconds())
		h.Metrics.EventsProcessed.WithLabelValues("segment", outcome).Inc()
	}()

	deviceID, day, ok := objectstore.DeviceAndDayFromProcessedKey(ev.Key)
	if !ok {
		h.Logger.Warn("segment: cannot parse device/day from key", "key", ev.Key)
		outcome = "skipped"
		return nil
	}

	obj, err := h.Store.Get(ctx, h.Bucket, ev.Key)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("read points at %s: %w", ev.Key, err)
	}

	points := decodeJSONL(obj.Body)

	stays := domain.ComputeSegments(points, h.StayRegime)
	visits := domain.ComputeSegments(points, h.VisitRegime)

	staysKey := objectstore.StaysKey(deviceID, day)
	visitsKey := objectstore.VisitsKey(deviceID, day)

	if err := h.writeSegments(ctx, staysKey, stays); err != nil {
		outcome = "error"
		return fmt.Errorf("write stays at %s: %w", staysKey, err)
	}
	if err := h.writeSegments(ctx, visitsKey, visits); err != nil {
		outcome = "error"
		return fmt.Errorf("write visits at %s: %w", visitsKey, err)
	}

	for _, key := range []string{staysKey, visitsKey} {
		if err := h.Publisher.Publish(ctx, bus.Event{Bucket: h.Bucket, Key: key}); err != nil {
			h.Logger.Warn("segment: failed to invoke enrich stage", "key", key, "error", err)
		}
	}

	return nil
}

func (h *SegmentHandler) writeSegments(ctx context.Context, key string, segments []domain.Segment) error {
	if segments == nil {
		segments = []domain.Segment{}
	}
	body, err := json.Marshal(segments)
	if err != nil {
		return err
	}
	_, err = h.Store.Put(ctx, h.Bucket, key, body, objectstore.PutOptions{ContentType: "application/json"})
	return err
}
