// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/queuewatch/internal/eta"
	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/models"
	ws "github.com/tomtom215/queuewatch/internal/websocket"
)

// Engine is the lifecycle engine as the API sees it.
type Engine interface {
	Start() error
	Stop()
	ToggleAutoRestart() bool
	ToggleIdlePrevention() bool
	Snapshot() models.Snapshot
	History() []models.QueueHistoryPoint
}

// SessionHistory is the read side of the session store.
type SessionHistory interface {
	Recent(n int) []models.CompletedSession
	Len() int
	Max() int
}

// Estimator produces blended estimates for arbitrary positions.
type Estimator interface {
	Estimate(currentPosition int, baseMinutes float64, now time.Time) eta.Breakdown
}

// Deps are the collaborators a Handler serves.
type Deps struct {
	Engine    Engine
	Sessions  SessionHistory
	Estimator Estimator
	Decay     eta.DecayModel
	Hub       *ws.Hub

	// CORSOrigins also gate websocket upgrades. "*" allows any origin.
	CORSOrigins []string

	Version string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler serves the queuewatch HTTP API.
type Handler struct {
	engine      Engine
	sessions    SessionHistory
	estimator   Estimator
	decay       eta.DecayModel
	wsHub       *ws.Hub
	corsOrigins []string
	version     string
	now         func() time.Time
	startTime   time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Decay == (eta.DecayModel{}) {
		deps.Decay = eta.DefaultDecayModel
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handler{
		engine:      deps.Engine,
		sessions:    deps.Sessions,
		estimator:   deps.Estimator,
		decay:       deps.Decay,
		wsHub:       deps.Hub,
		corsOrigins: deps.CORSOrigins,
		version:     deps.Version,
		now:         deps.Now,
		startTime:   deps.Now(),
	}
}

// getUpgrader returns a websocket upgrader that checks the Origin header
// against the configured CORS origins.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkWebSocketOrigin,
	}
}

// checkWebSocketOrigin rejects upgrades without an Origin header; browsers
// always send one.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
