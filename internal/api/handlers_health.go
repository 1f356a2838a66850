// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/queuewatch/internal/models"
)

// HealthLive answers 200 while the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, models.HealthStatus{
		Status:    "alive",
		Version:   h.version,
		Uptime:    h.uptime().Seconds(),
		Timestamp: h.now().UTC(),
	}, 0)
}

// HealthReady answers 200 once the engine and session history are wired,
// and 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil || h.sessions == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service not ready", nil)
		return
	}

	respondSuccess(w, models.HealthStatus{
		Status:    "ready",
		Version:   h.version,
		State:     h.engine.Snapshot().State,
		Uptime:    h.uptime().Seconds(),
		Timestamp: h.now().UTC(),
	}, 0)
}

func (h *Handler) uptime() time.Duration {
	return h.now().Sub(h.startTime)
}
