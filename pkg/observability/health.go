package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ContinuationTracker reports the drain state of background gateway
// continuations (status polls for pending sales that outlive their
// originating request).
type ContinuationTracker interface {
	IsShuttingDown() bool
	Count() int64
}

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status               string            `json:"status"`
	Timestamp            time.Time         `json:"timestamp"`
	Checks               map[string]string `json:"checks"`
	PendingContinuations int64             `json:"pending_continuations"`
}

// HealthChecker manages health and readiness checks for the service
type HealthChecker struct {
	dbPool        *pgxpool.Pool
	continuations ContinuationTracker
}

// NewHealthChecker creates a new HealthChecker
func NewHealthChecker(dbPool *pgxpool.Pool, continuations ContinuationTracker) *HealthChecker {
	return &HealthChecker{
		dbPool:        dbPool,
		continuations: continuations,
	}
}

// Check performs health checks and returns the status
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	checks := make(map[string]string)
	overallStatus := "healthy"

	if h.dbPool != nil {
		dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := h.dbPool.Ping(dbCtx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	var inFlight int64
	if h.continuations != nil {
		inFlight = h.continuations.Count()
		if h.continuations.IsShuttingDown() {
			checks["continuations"] = fmt.Sprintf("draining: %d in flight", inFlight)
		} else {
			checks["continuations"] = fmt.Sprintf("accepting: %d in flight", inFlight)
		}
	} else {
		checks["continuations"] = "not configured"
	}

	return HealthStatus{
		Status:               overallStatus,
		Timestamp:            time.Now(),
		Checks:               checks,
		PendingContinuations: inFlight,
	}
}

// HealthHandler returns an HTTP handler reporting liveness. A draining
// service is still alive, so continuation state is informational here.
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(status)
	}
}

// ReadyHandler returns an HTTP handler reporting readiness. Once the
// continuation tracker starts draining, the service must stop receiving
// new sales so the pending polls can finish, so readiness flips to 503
// while liveness stays green.
func (h *HealthChecker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.continuations != nil && h.continuations.IsShuttingDown() {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "draining: %d continuations in flight\n", h.continuations.Count())
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	}
}
