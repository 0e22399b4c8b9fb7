package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/daytrace/pipeline/internal/bus"
	"github.com/daytrace/pipeline/internal/domain"
	"github.com/daytrace/pipeline/internal/geocode"
	"github.com/daytrace/pipeline/internal/objectstore"
	"github.com/daytrace/pipeline/internal/observability"
	"github.com/daytrace/pipeline/internal/retryutil"
)

// Enrich's retry budgets, per spec §4.4: the reverse-geocode call itself
// gets 3 attempts at 0.5s base backoff; a not-yet-visible input object gets
// 5 attempts at 0.3s base backoff before the event is abandoned.
const (
	geocodeRetryAttempts = 3
	geocodeRetryBase     = 500 * time.Millisecond
	readRetryAttempts    = 5
	readRetryBase        = 300 * time.Millisecond
)

// EnrichHandler implements spec §4.4: reverse-geocode every segment with a
// usable center and write the enriched sibling file.
type EnrichHandler struct {
	Store     objectstore.Store
	Publisher bus.Publisher
	Geocoder  geocode.Geocoder
	Bucket    string
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

func (h *EnrichHandler) Handle(ctx context.Context, ev bus.Event) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		h.Metrics.StageProcessingDuration.WithLabelValues("enrich").Observe(time.Since(start).Seconds())
		h.Metrics.EventsProcessed.WithLabelValues("enrich", outcome).Inc()
	}()

	isStays := objectstore.IsStaysKey(ev.Key)

	body, err := h.readWithRetry(ctx, ev.Key)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("read %s: %w", ev.Key, err)
	}

	// Stays carry their center under "center" only; visits fall back through
	// several field names (center, point, location, then the record itself),
	// per the original source's divergent handling of the two record shapes.
	var segments []domain.Segment
	var parseErr error
	if isStays {
		parseErr = json.Unmarshal(body, &segments)
	} else {
		segments, parseErr = domain.ParseVisitSegments(body)
	}
	if parseErr != nil {
		h.Logger.Info("enrich: input is not a segment array, skipping", "key", ev.Key, "error", parseErr)
		outcome = "skipped"
		return nil
	}

	enriched := make([]domain.EnrichedSegment, 0, len(segments))
	for _, seg := range segments {
		enriched = append(enriched, h.enrichOne(ctx, seg))
	}

	outKey := enrichedKeyFor(ev.Key)
	out, err := json.Marshal(enriched)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("marshal enriched segments: %w", err)
	}
	if _, err := h.Store.Put(ctx, h.Bucket, outKey, out, objectstore.PutOptions{ContentType: "application/json"}); err != nil {
		outcome = "error"
		return fmt.Errorf("write %s: %w", outKey, err)
	}

	if isStays {
		if err := h.Publisher.Publish(ctx, bus.Event{Bucket: h.Bucket, Key: outKey}); err != nil {
			h.Logger.Warn("enrich: failed to invoke trips stage", "key", outKey, "error", err)
		}
	}

	return nil
}

func (h *EnrichHandler) enrichOne(ctx context.Context, seg domain.Segment) domain.EnrichedSegment {
	if !seg.HasCenter {
		return domain.EnrichedSegment{Segment: seg, Label: nil}
	}

	var result *geocode.Result
	err := retryutil.Do(ctx, geocodeRetryAttempts, geocodeRetryBase, func(error) bool { return true }, func(int) error {
		r, err := h.Geocoder.ReverseGeocode(ctx, seg.CenterLat, seg.CenterLon)
		result = r
		return err
	})

	if err != nil {
		h.Logger.Warn("enrich: reverse geocode failed", "lat", seg.CenterLat, "lon", seg.CenterLon, "error", err)
		h.Metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.EnrichedSegment{Segment: seg, Label: nil}
	}
	if result == nil {
		h.Metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.EnrichedSegment{Segment: seg, Label: nil}
	}

	h.Metrics.GeocodeRequests.WithLabelValues("success").Inc()
	label := result.Label
	es := domain.EnrichedSegment{Segment: seg, Label: &label}
	if !result.PlaceInfo.Empty() {
		pi := result.PlaceInfo
		es.PlaceInfo = &pi
	}
	return es
}

// readWithRetry tolerates transient object-store read-after-write
// inconsistency (spec §4.4): the input is retried up to readRetryAttempts
// times with exponential backoff before giving up and logging a sibling
// listing for diagnostics.
func (h *EnrichHandler) readWithRetry(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := retryutil.Do(ctx, readRetryAttempts, readRetryBase,
		func(err error) bool { return errors.Is(err, objectstore.ErrNotFound) },
		func(int) error {
			obj, err := h.Store.Get(ctx, h.Bucket, key)
			if err != nil {
				h.Metrics.ObjectStoreRetries.WithLabelValues("get").Inc()
				return err
			}
			body = obj.Body
			return nil
		})

	if errors.Is(err, objectstore.ErrNotFound) {
		h.dumpSiblings(ctx, key)
	}
	return body, err
}

func (h *EnrichHandler) dumpSiblings(ctx context.Context, key string) {
	prefix := path.Dir(key) + "/"
	keys, listErr := h.Store.List(ctx, h.Bucket, prefix)
	if listErr != nil {
		h.Logger.Error("enrich: sibling listing failed", "prefix", prefix, "error", listErr)
		return
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = strings.TrimPrefix(k, prefix)
	}
	h.Logger.Error("enrich: input object never became visible", "key", key, "siblings", names)
}

// enrichedKeyFor maps stays.json/visits.json to their enriched sibling.
func enrichedKeyFor(key string) string {
	dir := path.Dir(key)
	if objectstore.IsStaysKey(key) {
		return dir + "/stays_enriched.json"
	}
	return dir + "/visits_enriched.json"
}
