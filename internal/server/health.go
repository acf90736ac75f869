package server

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusShuttingDown = "shutting down"

	sessionStatusEstablished = "established"
	sessionStatusPending     = "pending"
)

// HealthChecker serves liveness and readiness endpoints next to /metrics.
// Readiness reports the Gmail session state but never creates the session.
type HealthChecker struct {
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a new HealthChecker.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	return &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
}

// HealthResponse is the JSON body of the health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler answers /healthz while the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers /readyz. It fails only once shutdown started; a
// session that has not been established yet is reported as pending.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
			Checks: map[string]string{"session": sessionStatusPending},
		}

		code := http.StatusOK
		if h.serverContext != nil {
			if h.serverContext.IsShutdown() {
				resp.Status = healthStatusShuttingDown
				code = http.StatusServiceUnavailable
			}
			if s := h.serverContext.CurrentSession(); s != nil {
				resp.Checks["session"] = sessionStatusEstablished
				resp.Checks["session_age"] = time.Since(s.CreatedAt).Truncate(time.Second).String()
			}
		}
		writeHealth(w, code, resp)
	})
}

// RegisterHealthEndpoints registers /healthz and /readyz on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
}

func writeHealth(w http.ResponseWriter, code int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
