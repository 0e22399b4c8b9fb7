package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

// ReadinessChecker reports whether the caller is ready to serve traffic.
// A non-nil error gives the reason readiness has not yet been reached.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// LivenessHandler always reports healthy: liveness only confirms the
// process is running and able to handle HTTP at all.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// ReadinessHandler delegates to the given checker and reports 503 with the
// failure reason until it returns nil.
func ReadinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := checker.CheckReadiness(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_ready", "reason": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
