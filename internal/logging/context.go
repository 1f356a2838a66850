// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	runIDKey
)

// GenerateRequestID returns a new HTTP request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateRunID returns a short ID for one lifecycle run, Start to Stop.
func GenerateRunID() string {
	return uuid.New().String()[:8]
}

// ContextWithRequestID stores an HTTP request ID for Ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithRunID stores a lifecycle run ID for Ctx. The engine attaches
// it to dial and notification contexts.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run ID, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// Ctx returns the global logger with request_id and run_id taken from ctx.
//
//	logging.Ctx(r.Context()).Info().Msg("Command accepted")
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := current().With()
	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if id := RunIDFromContext(ctx); id != "" {
		lc = lc.Str("run_id", id)
	}
	l := lc.Logger()
	return &l
}
