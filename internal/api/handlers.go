// Package api exposes the engine's command and query surface over HTTP.
// It contains no domain logic; every mutation is forwarded to the engine.
package api

import (
	"encoding/json"
	"net/http"

	"sensorwatch/internal/audio"
	"sensorwatch/internal/engine"
	"sensorwatch/internal/models"
)

// Handler serves the engine API
type Handler struct {
	engine *engine.Engine
}

// New creates an API handler over eng.
func New(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// Register attaches all API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/snapshot", h.snapshot)
	mux.HandleFunc("POST /api/alerts/{id}/acknowledge", h.acknowledge)
	mux.HandleFunc("POST /api/alerts/{id}/resolve", h.resolve)
	mux.HandleFunc("PUT /api/thresholds", h.updateThresholds)
	mux.HandleFunc("PUT /api/devices/{id}/connectivity", h.setConnectivity)
	mux.HandleFunc("PUT /api/audio", h.setAudio)
	mux.HandleFunc("POST /api/audio/test", h.testSound)
	mux.HandleFunc("PUT /api/system/armed", h.setArmed)
	mux.HandleFunc("PUT /api/security/{id}/status", h.setSecurityStatus)
	mux.HandleFunc("PUT /api/security/{id}/tamper", h.setTamper)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// matchedResponse reports whether a lifecycle command found its target.
// Unknown ids are a no-op, not an error: the caller may hold stale ids
// from a delayed refresh.
type matchedResponse struct {
	Success bool `json:"success"`
	Matched bool `json:"matched"`
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	matched := h.engine.Acknowledge(r.PathValue("id"))
	writeJSON(w, http.StatusOK, matchedResponse{Success: true, Matched: matched})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	matched := h.engine.Resolve(r.PathValue("id"))
	writeJSON(w, http.StatusOK, matchedResponse{Success: true, Matched: matched})
}

func (h *Handler) updateThresholds(w http.ResponseWriter, r *http.Request) {
	var cfg models.ThresholdConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.engine.UpdateThresholds(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) setConnectivity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !h.engine.SetDeviceOnline(r.PathValue("id"), body.Online) {
		writeError(w, http.StatusNotFound, "unknown device id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) setAudio(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool    `json:"enabled"`
		Volume  *float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if body.Enabled != nil {
		h.engine.SetAudioEnabled(*body.Enabled)
	}
	if body.Volume != nil {
		// Out-of-range volume is clamped, not rejected
		h.engine.SetVolume(*body.Volume)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) testSound(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Cue string `json:"cue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cue := audio.Cue(body.Cue)
	if !cue.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown cue")
		return
	}

	h.engine.TestSound(cue)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) setArmed(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Armed bool `json:"armed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.engine.SetSystemArmed(body.Armed)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) setSecurityStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	status := models.DeviceStatus(body.Status)
	if !status.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown device status")
		return
	}

	if !h.engine.SetSecurityStatus(r.PathValue("id"), status) {
		writeError(w, http.StatusNotFound, "unknown device id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) setTamper(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tampered bool `json:"tampered"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !h.engine.SetTampered(r.PathValue("id"), body.Tampered) {
		writeError(w, http.StatusNotFound, "unknown device id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
