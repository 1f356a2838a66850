// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package services

import (
	"context"
	"fmt"
	"time"
)

// SessionFlusher is satisfied by *history.Store.
type SessionFlusher interface {
	Flush(ctx context.Context) error
}

// HistoryService flushes the session history on shutdown so a pending
// background write is not lost. Closing the store stays with the owner.
type HistoryService struct {
	store        SessionFlusher
	flushTimeout time.Duration
	name         string
}

// NewHistoryService wraps store. flushTimeout defaults to 10s.
func NewHistoryService(store SessionFlusher, flushTimeout time.Duration) *HistoryService {
	if flushTimeout <= 0 {
		flushTimeout = 10 * time.Second
	}
	return &HistoryService{
		store:        store,
		flushTimeout: flushTimeout,
		name:         "session-history",
	}
}

// Serve implements suture.Service.
func (h *HistoryService) Serve(ctx context.Context) error {
	<-ctx.Done()

	flushCtx, cancel := context.WithTimeout(context.Background(), h.flushTimeout)
	defer cancel()
	if err := h.store.Flush(flushCtx); err != nil {
		return fmt.Errorf("session history flush failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (h *HistoryService) String() string {
	return h.name
}
