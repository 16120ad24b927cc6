package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/postgraph/internal/common/logger"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

// HealthHandler answers 200 when every named check passes and 503 with the
// failing names otherwise.
func HealthHandler(log *logger.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteErrorEnvelope(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil, "")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		failed := map[string]any{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.WithFields(ctx, logger.Fields{
					"check":  name,
					"action": "health_check_failed",
				}).Warnf("health check failed: %v", err)
				failed[name] = "unavailable"
			}
		}

		if len(failed) > 0 {
			WriteErrorEnvelope(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "dependency unavailable", failed, TraceIDFromContext(ctx))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
