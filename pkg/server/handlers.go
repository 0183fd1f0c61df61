package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"atelier-hq/vigil/pkg/monitor/history"
	"atelier-hq/vigil/pkg/monitor/sampler"
)

const maxAlertsLimit = 1000

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// samplesResponse is the /status/samples body.
type samplesResponse struct {
	CapturedAt time.Time        `json:"captured_at"`
	Samples    []sampler.Sample `json:"samples"`
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	if s.samples == nil {
		writeJSON(w, http.StatusOK, samplesResponse{Samples: []sampler.Sample{}})
		return
	}

	samples, at := s.samples.LastSamples()
	if samples == nil {
		samples = []sampler.Sample{}
	}
	writeJSON(w, http.StatusOK, samplesResponse{CapturedAt: at, Samples: samples})
}

// alertsResponse is the /status/alerts body.
type alertsResponse struct {
	Alerts []history.Entry `json:"alerts"`
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, alertsResponse{Alerts: []history.Entry{}})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxAlertsLimit {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read alert history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read alert history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, alertsResponse{Alerts: entries})
}
