package stages_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daytrace/pipeline/internal/bus"
	"github.com/daytrace/pipeline/internal/domain"
	"github.com/daytrace/pipeline/internal/objectstore"
	"github.com/daytrace/pipeline/internal/observability"
	"github.com/daytrace/pipeline/internal/stages"
)

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func rawRecordBody(t *testing.T, deviceID string, ts time.Time, lat, lon float64) []byte {
	t.Helper()
	data, err := json.Marshal(domain.RawRecord{
		DeviceID:  deviceID,
		Timestamp: ts.UnixMilli(),
		Latitude:  lat,
		Longitude: lon,
	})
	require.NoError(t, err)
	return data
}

func TestMergeHandler_AppendsNewPoint(t *testing.T) {
	store := objectstore.NewMemStore()
	publisher := bus.NewDirectBus(8)
	h := &stages.MergeHandler{Store: store, Publisher: publisher, Bucket: "b", Logger: slog.Default(), Metrics: newTestMetrics()}

	ts := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	rawKey := "raw/d1/2026/01/01/abc-0.json"
	_, err := store.Put(context.Background(), "b", rawKey, rawRecordBody(t, "d1", ts, 35.0, 139.0), objectstore.PutOptions{})
	require.NoError(t, err)

	err = h.Handle(context.Background(), bus.Event{Bucket: "b", Key: rawKey})
	require.NoError(t, err)

	pointsKey := objectstore.PointsKey("d1", "2026-01-01")
	obj, err := store.Get(context.Background(), "b", pointsKey)
	require.NoError(t, err)
	assert.Contains(t, string(obj.Body), `"deviceId":"d1"`)

	ev, err := publisher.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pointsKey, ev.Event.Key)
}

func TestMergeHandler_DeduplicatesIdenticalPoint(t *testing.T) {
	store := objectstore.NewMemStore()
	publisher := bus.NewDirectBus(8)
	h := &stages.MergeHandler{Store: store, Publisher: publisher, Bucket: "b", Logger: slog.Default(), Metrics: newTestMetrics()}

	ts := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	rawKey1 := "raw/d1/2026/01/01/abc-0.json"
	rawKey2 := "raw/d1/2026/01/01/def-0.json"
	ctx := context.Background()
	_, err := store.Put(ctx, "b", rawKey1, rawRecordBody(t, "d1", ts, 35.0, 139.0), objectstore.PutOptions{})
	require.NoError(t, err)
	_, err = store.Put(ctx, "b", rawKey2, rawRecordBody(t, "d1", ts, 35.0, 139.0), objectstore.PutOptions{})
	require.NoError(t, err)

	require.NoError(t, h.Handle(ctx, bus.Event{Bucket: "b", Key: rawKey1}))
	require.NoError(t, h.Handle(ctx, bus.Event{Bucket: "b", Key: rawKey2}))

	pointsKey := objectstore.PointsKey("d1", "2026-01-01")
	obj, err := store.Get(ctx, "b", pointsKey)
	require.NoError(t, err)

	var points []domain.Point
	for _, line := range splitLines(obj.Body) {
		var p domain.Point
		require.NoError(t, json.Unmarshal(line, &p))
		points = append(points, p)
	}
	assert.Len(t, points, 1)
}

func TestMergeHandler_MalformedRawObjectIsSkipped(t *testing.T) {
	store := objectstore.NewMemStore()
	publisher := bus.NewDirectBus(8)
	h := &stages.MergeHandler{Store: store, Publisher: publisher, Bucket: "b", Logger: slog.Default(), Metrics: newTestMetrics()}

	rawKey := "raw/d1/2026/01/01/bad-0.json"
	_, err := store.Put(context.Background(), "b", rawKey, []byte("not json"), objectstore.PutOptions{})
	require.NoError(t, err)

	err = h.Handle(context.Background(), bus.Event{Bucket: "b", Key: rawKey})
	assert.NoError(t, err)
}

func splitLines(body []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, b := range body {
		if b == '\n' {
			if i > start {
				out = append(out, body[start:i])
			}
			start = i + 1
		}
	}
	if start < len(body) {
		out = append(out, body[start:])
	}
	return out
}
