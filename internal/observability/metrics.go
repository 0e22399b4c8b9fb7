package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// location pipeline: one set of per-stage counters plus per-capability
// (geocode, route, tracker) request metrics.
type Metrics struct {
	EventsConsumed  prometheus.Counter
	EventsProcessed *prometheus.CounterVec // labels: stage={merge,segment,enrich,trips}, outcome={ok,skipped,error}
	WorkerRunning   prometheus.Gauge

	StageProcessingDuration *prometheus.HistogramVec // labels: stage

	IngestRequests      *prometheus.CounterVec // labels: outcome={ok,invalid_json,no_valid_locations,error}
	IngestRecordsSaved  prometheus.Counter
	PointsBatchSize     prometheus.Histogram

	GeocodeRequests    *prometheus.CounterVec   // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	RouteRequests    *prometheus.CounterVec // labels: outcome={ok,fallback,error}
	RouteAPIDuration prometheus.Histogram

	TrackerRequests *prometheus.CounterVec // labels: outcome={ok,error}

	ObjectStoreRetries *prometheus.CounterVec // labels: op={get,put}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		EventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "daytrace",
			Name:      "events_consumed_total",
			Help:      "Total events read from the bus.",
		}),
		EventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daytrace",
			Name:      "events_processed_total",
			Help:      "Events processed by stage and outcome.",
		}, []string{"stage", "outcome"}),
		WorkerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "daytrace",
			Name:      "worker_running",
			Help:      "1 when the worker loop is active, 0 when shut down.",
		}),
		StageProcessingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "daytrace",
			Name:      "stage_processing_duration_seconds",
			Help:      "Duration of a single stage invocation.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		IngestRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daytrace",
			Name:      "ingest_requests_total",
			Help:      "Ingest HTTP requests by outcome.",
		}, []string{"outcome"}),
		IngestRecordsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "daytrace",
			Name:      "ingest_records_saved_total",
			Help:      "Total raw records written by Ingest.",
		}),
		PointsBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "daytrace",
			Name:      "ingest_batch_size",
			Help:      "Number of locations per Ingest request.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daytrace",
			Name:      "geocode_requests_total",
			Help:      "Reverse-geocode requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daytrace",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "daytrace",
			Name:      "geocode_api_duration_seconds",
			Help:      "Reverse-geocode request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daytrace",
			Name:      "route_requests_total",
			Help:      "Route-calculation requests by outcome.",
		}, []string{"outcome"}),
		RouteAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "daytrace",
			Name:      "route_api_duration_seconds",
			Help:      "Route-calculation request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		TrackerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daytrace",
			Name:      "tracker_requests_total",
			Help:      "Tracker batch-update calls by outcome.",
		}, []string{"outcome"}),
		ObjectStoreRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daytrace",
			Name:      "objectstore_retries_total",
			Help:      "Object-store retry attempts by operation.",
		}, []string{"op"}),
	}

	prometheus.MustRegister(
		m.EventsConsumed,
		m.EventsProcessed,
		m.WorkerRunning,
		m.StageProcessingDuration,
		m.IngestRequests,
		m.IngestRecordsSaved,
		m.PointsBatchSize,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.RouteRequests,
		m.RouteAPIDuration,
		m.TrackerRequests,
		m.ObjectStoreRetries,
	)

	return m
}

// NewMetricsForTesting creates Metrics with fresh, unregistered collectors
// to avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		EventsConsumed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "daytrace", Name: "events_consumed_total"}),
		EventsProcessed:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "daytrace", Name: "events_processed_total"}, []string{"stage", "outcome"}),
		WorkerRunning:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "daytrace", Name: "worker_running"}),
		StageProcessingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "daytrace", Name: "stage_processing_duration_seconds"}, []string{"stage"}),
		IngestRequests:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "daytrace", Name: "ingest_requests_total"}, []string{"outcome"}),
		IngestRecordsSaved:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "daytrace", Name: "ingest_records_saved_total"}),
		PointsBatchSize:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "daytrace", Name: "ingest_batch_size"}),
		GeocodeRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "daytrace", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "daytrace", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "daytrace", Name: "geocode_api_duration_seconds"}),
		RouteRequests:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "daytrace", Name: "route_requests_total"}, []string{"outcome"}),
		RouteAPIDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "daytrace", Name: "route_api_duration_seconds"}),
		TrackerRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "daytrace", Name: "tracker_requests_total"}, []string{"outcome"}),
		ObjectStoreRetries:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "daytrace", Name: "objectstore_retries_total"}, []string{"op"}),
	}
}
