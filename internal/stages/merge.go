package stages

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/daytrace/pipeline/internal/bus"
	"github.com/daytrace/pipeline/internal/domain"
	"github.com/daytrace/pipeline/internal/objectstore"
	"github.com/daytrace/pipeline/internal/observability"
)

// MergeHandler implements the idempotent merge-append described in spec
// §4.2: it reads one raw object, normalizes it to zero or more Points,
// folds them into the day's points.jsonl under a conditional-write retry
// loop, and fires the Segment stage.
type MergeHandler struct {
	Store     objectstore.Store
	Publisher bus.Publisher
	Bucket    string
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// mergeRetryAttempts bounds the conditional-PUT retry loop that mitigates
// the concurrent-merge race documented in DESIGN.md and spec §9.
const mergeRetryAttempts = 5

func (h *MergeHandler) Handle(ctx context.Context, ev bus.Event) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		h.Metrics.StageProcessingDuration.WithLabelValues("merge").Observe(time.Since(start).Seconds())
		h.Metrics.EventsProcessed.WithLabelValues("merge", outcome).Inc()
	}()

	obj, err := h.Store.Get(ctx, h.Bucket, ev.Key)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("read raw object %s: %w", ev.Key, err)
	}

	var raw domain.RawRecord
	if err := json.Unmarshal(obj.Body, &raw); err != nil {
		h.Logger.Warn("merge: skipping malformed raw object", "key", ev.Key, "error", err)
		outcome = "skipped"
		return nil
	}

	ts, ok := domain.NormalizeTimestamp(float64(raw.Timestamp))
	if !ok {
		h.Logger.Warn("merge: unparseable timestamp, dropping record", "key", ev.Key)
		outcome = "skipped"
		return nil
	}
	point := domain.Point{DeviceID: raw.DeviceID, Lat: raw.Latitude, Lon: raw.Longitude, TS: ts}
	day := point.Day()

	pointsKey := objectstore.PointsKey(raw.DeviceID, day)
	diaryKey := objectstore.DiaryStubKey(raw.DeviceID, day)

	appended, err := h.mergeWithRetry(ctx, pointsKey, point)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("merge points at %s: %w", pointsKey, err)
	}

	if _, err := h.Store.Put(ctx, h.Bucket, diaryKey, []byte(fmt.Sprintf("%d", appended)), objectstore.PutOptions{ContentType: "text/plain"}); err != nil {
		h.Logger.Warn("merge: diary sidecar write failed", "key", diaryKey, "error", err)
	}

	if err := h.Publisher.Publish(ctx, bus.Event{Bucket: h.Bucket, Key: pointsKey}); err != nil {
		h.Logger.Warn("merge: failed to invoke segment stage", "key", pointsKey, "error", err)
	}

	return nil
}

// mergeWithRetry folds one incoming point into the day's points.jsonl under
// a read-modify-conditional-write loop: Get the body and its current ETag,
// merge, then Put with IfMatch. A precondition failure means another
// merge won the race; the loop rereads and retries. Returns 1 if the point
// was newly appended (not a duplicate), 0 if it deduplicated away.
func (h *MergeHandler) mergeWithRetry(ctx context.Context, key string, point domain.Point) (int, error) {
	appended := 0
	err := retryOnPrecondition(ctx, mergeRetryAttempts, func() error {
		existing, etag, err := h.readPoints(ctx, key)
		if err != nil {
			return err
		}

		merged := domain.MergePoints(existing, []domain.Point{point})
		if len(merged) == len(existing) {
			appended = 0
		} else {
			appended = len(merged) - len(existing)
		}

		body, err := encodeJSONL(merged)
		if err != nil {
			return err
		}

		_, err = h.Store.Put(ctx, h.Bucket, key, body, objectstore.PutOptions{
			ContentType: "application/jsonl",
			IfMatch:     etag,
		})
		if err != nil {
			h.Metrics.ObjectStoreRetries.WithLabelValues("put").Inc()
		}
		return err
	})
	return appended, err
}

func (h *MergeHandler) readPoints(ctx context.Context, key string) ([]domain.Point, string, error) {
	obj, err := h.Store.Get(ctx, h.Bucket, key)
	if errors.Is(err, objectstore.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	return decodeJSONL(obj.Body), obj.ETag, nil
}

// decodeJSONL tolerantly parses an existing points.jsonl body, silently
// discarding malformed lines per spec §4.2 step 2.
func decodeJSONL(body []byte) []domain.Point {
	var points []domain.Point
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var p domain.Point
		if err := json.Unmarshal(line, &p); err != nil {
			continue
		}
		points = append(points, p)
	}
	return points
}

func encodeJSONL(points []domain.Point) ([]byte, error) {
	var buf bytes.Buffer
	for i, p := range points {
		if i > 0 {
			buf.WriteByte('\n')
		}
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

// retryOnPrecondition retries fn while it returns ErrPrecondition, up to
// attempts times, with no backoff: the conditional write races are expected
// to resolve within microseconds of a competing merge, not network-bound
// delays.
func retryOnPrecondition(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !errors.Is(err, objectstore.ErrPrecondition) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
