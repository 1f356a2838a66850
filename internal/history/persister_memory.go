// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package history

import (
	"context"
	"sync"

	"github.com/tomtom215/queuewatch/internal/models"
)

// MemoryPersister keeps the latest snapshot in memory only.
type MemoryPersister struct {
	mu       sync.Mutex
	sessions []models.CompletedSession
	saves    int
	failWith error
	loadErr  error
}

// NewMemoryPersister creates a MemoryPersister seeded with sessions.
func NewMemoryPersister(seed ...models.CompletedSession) *MemoryPersister {
	return &MemoryPersister{sessions: append([]models.CompletedSession(nil), seed...)}
}

// Name implements Persister.
func (p *MemoryPersister) Name() string { return "memory" }

// Load implements Persister.
func (p *MemoryPersister) Load(_ context.Context) ([]models.CompletedSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return append([]models.CompletedSession(nil), p.sessions...), nil
}

// Save implements Persister.
func (p *MemoryPersister) Save(_ context.Context, sessions []models.CompletedSession) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.sessions = append([]models.CompletedSession(nil), sessions...)
	p.saves++
	return nil
}

// SetFailure makes every following Save return err. A nil err restores saving.
func (p *MemoryPersister) SetFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

// SetLoadFailure makes Load return err.
func (p *MemoryPersister) SetLoadFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadErr = err
}

// Snapshot returns the last saved snapshot.
func (p *MemoryPersister) Snapshot() []models.CompletedSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.CompletedSession(nil), p.sessions...)
}

// Saves returns the number of successful saves.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// Close implements Persister.
func (p *MemoryPersister) Close() error { return nil }
