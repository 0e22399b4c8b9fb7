package stages

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daytrace/pipeline/internal/bus"
	"github.com/daytrace/pipeline/internal/domain"
	"github.com/daytrace/pipeline/internal/geocode"
	"github.com/daytrace/pipeline/internal/objectstore"
	"github.com/daytrace/pipeline/internal/observability"
	"github.com/daytrace/pipeline/internal/tracker"
)

// IngestHandler implements spec §4.1: accept batch or single location
// payloads, store one raw object per record, optionally echo positions to
// the tracker, optionally attach a reverse-geocoded address, and invoke
// the Merge stage for every object written.
type IngestHandler struct {
	Store     objectstore.Store
	Publisher bus.Publisher
	Tracker   tracker.Tracker
	Geocoder  geocode.Geocoder // nil when PLACE_INDEX is unset
	Bucket    string
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

type locationInput struct {
	Latitude  *float64    `json:"latitude"`
	Lat       *float64    `json:"lat"`
	Longitude *float64    `json:"longitude"`
	Lon       *float64    `json:"lon"`
	Timestamp interface{} `json:"timestamp"`
}

type ingestRequest struct {
	DeviceID  string          `json:"deviceId"`
	Locations []locationInput `json:"locations"`
	Latitude  *float64        `json:"latitude"`
	Lat       *float64        `json:"lat"`
	Longitude *float64        `json:"longitude"`
	Lon       *float64        `json:"lon"`
	Timestamp interface{}     `json:"timestamp"`
}

func (l locationInput) lat() (float64, bool) {
	if l.Latitude != nil {
		return *l.Latitude, true
	}
	if l.Lat != nil {
		return *l.Lat, true
	}
	return 0, false
}

func (l locationInput) lon() (float64, bool) {
	if l.Longitude != nil {
		return *l.Longitude, true
	}
	if l.Lon != nil {
		return *l.Lon, true
	}
	return 0, false
}

type resolvedRecord struct {
	lat float64
	lon float64
	ts  time.Time
}

func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Metrics.IngestRequests.WithLabelValues("invalid_json").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid_json"})
		return
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = "web-unknown"
	}

	var records []resolvedRecord
	if req.Locations != nil {
		for _, loc := range req.Locations {
			lat, latOK := loc.lat()
			lon, lonOK := loc.lon()
			if !latOK || !lonOK {
				continue
			}
			ts, ok := domain.NormalizeTimestamp(loc.Timestamp)
			if !ok {
				ts = domain.Now()
			}
			records = append(records, resolvedRecord{lat: lat, lon: lon, ts: ts})
		}
	} else {
		lat, latOK := req.lat()
		lon, lonOK := req.lon()
		if latOK && lonOK {
			ts, ok := domain.NormalizeTimestamp(req.Timestamp)
			if !ok {
				ts = domain.Now()
			}
			records = append(records, resolvedRecord{lat: lat, lon: lon, ts: ts})
		}
	}

	if len(records) == 0 {
		h.Metrics.IngestRequests.WithLabelValues("no_valid_locations").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "no_valid_locations"})
		return
	}
	h.Metrics.PointsBatchSize.Observe(float64(len(records)))

	rid := correlationID(r)
	ctx := r.Context()

	h.echoToTracker(ctx, deviceID, records)

	saved := make([]string, 0, len(records))
	for idx, rec := range records {
		body := domain.RawRecord{
			DeviceID:  deviceID,
			Timestamp: rec.ts.UnixMilli(),
			Latitude:  rec.lat,
			Longitude: rec.lon,
		}
		if label := h.reverseGeocodeLabel(ctx, rec.lat, rec.lon); label != "" {
			body.Address = &label
		}

		data, err := json.Marshal(body)
		if err != nil {
			h.Logger.Error("ingest: marshal raw record failed", "error", err)
			continue
		}

		key := objectstore.RawKey(deviceID, rec.ts.UnixMilli(), rid, idx)
		if _, err := h.Store.Put(ctx, h.Bucket, key, data, objectstore.PutOptions{ContentType: "application/json"}); err != nil {
			h.Logger.Error("ingest: s3 put failed", "key", key, "error", err)
			continue
		}
		saved = append(saved, key)
		h.Metrics.IngestRecordsSaved.Inc()

		if err := h.Publisher.Publish(ctx, bus.Event{Bucket: h.Bucket, Key: key}); err != nil {
			h.Logger.Warn("ingest: failed to invoke merge stage", "key", key, "error", err)
		}
	}

	h.Metrics.IngestRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "saved": len(saved), "keys": saved})
}

// echoToTracker mirrors positions to the live tracker in groups of up to
// 10 (spec §4.1 step 2). Failures are logged, never fatal.
func (h *IngestHandler) echoToTracker(ctx context.Context, deviceID string, records []resolvedRecord) {
	if h.Tracker == nil {
		return
	}
	updates := make([]tracker.Update, len(records))
	for i, rec := range records {
		updates[i] = tracker.Update{DeviceID: deviceID, Lat: rec.lat, Lon: rec.lon, SampleTime: rec.ts}
	}
	for _, err := range tracker.SendAll(ctx, h.Tracker, updates) {
		h.Logger.Warn("ingest: tracker update error", "error", err)
		h.Metrics.TrackerRequests.WithLabelValues("error").Inc()
	}
}

// reverseGeocodeLabel performs the optional single reverse-geocode lookup
// (spec §4.1 step 3). A lookup failure is logged and never aborts the
// write.
func (h *IngestHandler) reverseGeocodeLabel(ctx context.Context, lat, lon float64) string {
	if h.Geocoder == nil {
		return ""
	}
	result, err := h.Geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		h.Logger.Warn("ingest: reverse geocode error", "error", err)
		return ""
	}
	if result == nil {
		return ""
	}
	return result.Label
}

func correlationID(r *http.Request) string {
	if rid := r.Header.Get("x-request-id"); rid != "" && len(rid) >= 8 {
		return rid[:8]
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
