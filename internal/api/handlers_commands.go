// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/queuewatch/internal/lifecycle"
	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/models"
)

// Command names as they appear in responses and logs.
const (
	CommandStart                = "start"
	CommandStop                 = "stop"
	CommandToggleAutoRestart    = "toggleAutoRestart"
	CommandToggleIdlePrevention = "toggleIdlePrevention"
	CommandLogLevel             = "logLevel"
)

// maxCommandBody bounds command request bodies.
const maxCommandBody = 1 << 10

// CommandStart begins a queue run. It answers 409 while a run is already
// in progress.
func (h *Handler) CommandStart(w http.ResponseWriter, r *http.Request) {
	if !h.requireEngine(w) {
		return
	}
	if err := h.engine.Start(); err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyRunning) {
			respondError(w, http.StatusConflict, ErrCodeInvalidState, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to start", err)
		return
	}
	h.respondCommand(w, r, CommandStart)
}

// CommandStop ends the current run. Stopping an idle engine is a no-op.
func (h *Handler) CommandStop(w http.ResponseWriter, r *http.Request) {
	if !h.requireEngine(w) {
		return
	}
	h.engine.Stop()
	h.respondCommand(w, r, CommandStop)
}

// CommandToggleAutoRestart flips auto-restart.
func (h *Handler) CommandToggleAutoRestart(w http.ResponseWriter, r *http.Request) {
	if !h.requireEngine(w) {
		return
	}
	h.engine.ToggleAutoRestart()
	h.respondCommand(w, r, CommandToggleAutoRestart)
}

// CommandToggleIdlePrevention flips idle prevention.
func (h *Handler) CommandToggleIdlePrevention(w http.ResponseWriter, r *http.Request) {
	if !h.requireEngine(w) {
		return
	}
	h.engine.ToggleIdlePrevention()
	h.respondCommand(w, r, CommandToggleIdlePrevention)
}

// CommandLogLevel changes the process log level without a restart.
//
// Body: {"level": "debug"}. The level must be trace, debug, info, warn or error.
func (h *Handler) CommandLogLevel(w http.ResponseWriter, r *http.Request) {
	var req LogLevelRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "Request body must be a JSON object with a level", nil)
		return
	}
	req.Level = strings.ToLower(strings.TrimSpace(req.Level))
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	prev, err := logging.SetLevel(req.Level)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to set log level", err)
		return
	}
	// Logged at warn so the change is visible whatever the new level is.
	logging.Ctx(r.Context()).Warn().
		Str("command", CommandLogLevel).
		Str("previous", prev).
		Str("level", req.Level).
		Msg("Log level changed")

	respondSuccess(w, models.LogLevelResponse{Previous: prev, Level: req.Level}, 0)
}

func (h *Handler) requireEngine(w http.ResponseWriter) bool {
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Lifecycle engine unavailable", nil)
		return false
	}
	return true
}

// respondCommand reports the engine state right after the command. The
// effect of start is asynchronous, so the state may still be authenticating.
func (h *Handler) respondCommand(w http.ResponseWriter, r *http.Request, command string) {
	snap := h.engine.Snapshot()
	logging.Ctx(r.Context()).Info().
		Str("command", command).
		Str("state", string(snap.State)).
		Msg("Command accepted")

	respondSuccess(w, models.CommandResponse{
		Command:        command,
		State:          snap.State,
		AutoRestart:    snap.AutoRestart,
		IdlePrevention: snap.IdlePrevention,
	}, 0)
}
