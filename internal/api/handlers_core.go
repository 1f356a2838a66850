// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package api

import (
	"net/http"

	"github.com/tomtom215/queuewatch/internal/eta"
	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/models"
	ws "github.com/tomtom215/queuewatch/internal/websocket"
)

// Status returns the current lifecycle snapshot.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Lifecycle engine unavailable", nil)
		return
	}
	respondSuccess(w, h.engine.Snapshot(), 0)
}

// QueueHistory returns the position chart series for the current run,
// oldest first.
func (h *Handler) QueueHistory(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Lifecycle engine unavailable", nil)
		return
	}
	points := h.engine.History()
	if points == nil {
		points = []models.QueueHistoryPoint{}
	}
	respondSuccess(w, points, len(points))
}

// Sessions returns stored queue sessions, newest first.
//
// Query: limit (1-100000, default 50).
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Session history unavailable", nil)
		return
	}

	limit, err := parseIntQuery(r, "limit", DefaultSessionsLimit)
	if err != nil {
		respondQueryError(w, "limit", err)
		return
	}
	req := SessionsRequest{Limit: limit}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	sessions := h.sessions.Recent(req.Limit)
	respondSuccess(w, sessions, len(sessions))
}

// Estimate returns the blended estimate for an arbitrary position using
// stored history and, when a session is running, the live rate.
//
// Query: position (required, 1-1000000).
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	if h.estimator == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Estimator unavailable", nil)
		return
	}

	position, err := parseIntQuery(r, "position", 0)
	if err != nil {
		respondQueryError(w, "position", err)
		return
	}
	req := EstimateRequest{Position: position}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	base := h.decay.BaseMinutes(req.Position)
	b := h.estimator.Estimate(req.Position, base, h.now())

	resp := models.EstimateResponse{
		Position:          req.Position,
		BaseMinutes:       b.BaseMinutes,
		Minutes:           b.Minutes,
		ETA:               eta.FormatETA(b.Minutes),
		EffectiveSessions: b.EffectiveSessions,
	}
	if b.HasHistorical {
		rate := b.HistoricalRate
		resp.HistoricalRate = &rate
	}
	if b.HasLive {
		rate := b.LiveRate
		resp.LiveRate = &rate
	}
	if h.sessions != nil {
		resp.StoredSessions = h.sessions.Len()
	}
	respondSuccess(w, resp, 0)
}

// WebSocket upgrades the request and attaches the connection to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
