package http

import (
	"net/http"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// OPERATIONAL HANDLERS
// Health-пробы для оркестратора и сводка метрик процесса.
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic API information.
// GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "geopresensi-attendance-hub",
		"version": "v1",
		"status":  "running",
		"uptime":  s.Uptime().String(),
	})
}

// handleHealth runs the composite health check.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())

	httpStatus := http.StatusOK
	if !status.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, status)
}

// handleReady reports whether the server can take traffic.
// GET /ready
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.IsRunning() {
		writeJSONError(w, http.StatusServiceUnavailable, "not_ready", "Server is not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive is the liveness probe. Always 200 while the process responds.
// GET /live
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleMetrics returns process-level counters.
// GET /metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := map[string]interface{}{
		"uptime_seconds": int64(s.Uptime() / time.Second),
		"timestamp":      time.Now().UTC(),
	}

	if s.deps.Scheduler != nil {
		metrics["scheduler"] = s.deps.Scheduler.GetMetrics().Snapshot()
	}
	if s.deps.BusMetrics != nil {
		metrics["event_bus"] = s.deps.BusMetrics.Snapshot()
	}

	writeJSON(w, http.StatusOK, metrics)
}
