package handlers

import (
	"net/http"
	"time"
)

// HealthHandlers answers the liveness and readiness probes.
type HealthHandlers struct {
	started time.Time
	ready   func() bool
}

// NewHealthHandlers constructs probe handlers that always report ready.
func NewHealthHandlers() *HealthHandlers {
	return &HealthHandlers{started: time.Now(), ready: func() bool { return true }}
}

// WithReadiness overrides the readiness check.
func (h *HealthHandlers) WithReadiness(ready func() bool) *HealthHandlers {
	if ready != nil {
		h.ready = ready
	}
	return h
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz reports whether the service is ready to take traffic.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if !h.ready() {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready"})
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}
