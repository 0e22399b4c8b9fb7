package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/daytrace/pipeline/internal/observability"
)

// NewRouter assembles the Ingest binary's full HTTP surface: the POST /
// ingest endpoint under the logging/recovery/CORS middleware chain, plus
// the health/ready/metrics routes the Ingest process also serves (spec §6
// gives Ingest its own HTTP listener, separate from the worker).
func NewRouter(ingest http.Handler, ready observability.ReadinessChecker, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(RequestLogger(logger)))
	r.Use(mux.MiddlewareFunc(Recoverer(logger)))
	r.Use(mux.MiddlewareFunc(CORS))

	r.Handle("/", ingest).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/healthz", observability.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", observability.ReadinessHandler(ready)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
