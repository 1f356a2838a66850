// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

// Package history keeps the bounded log of completed queue sessions.
//
// The in-memory log is the only mutable copy. Every Append evicts the oldest
// entries beyond the cap and asks a background writer to persist a full
// snapshot of the log through a Persister. Writes are fire-and-forget: a
// failed write is logged as a warning and retried on the next append.
// Readers always get a copy of either the pre- or post-append log.
//
// A snapshot that cannot be read at startup is never overwritten: it is
// moved aside when the persister supports it, otherwise persistence stays
// disabled for the life of the store.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/metrics"
	"github.com/tomtom215/queuewatch/internal/models"
)

// Default caps for the two deployment profiles.
const (
	DefaultMaxSessions   = 200
	CollectorMaxSessions = 500
)

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("history: store closed")

// ErrPersistenceDisabled is returned by Flush when the stored history could
// not be read and could not be moved aside.
var ErrPersistenceDisabled = errors.New("history: persistence disabled, unreadable history left in place")

// Persister writes and reads full snapshots of the session log.
type Persister interface {
	Load(ctx context.Context) ([]models.CompletedSession, error)
	Save(ctx context.Context, sessions []models.CompletedSession) error
	Name() string
	Close() error
}

// Quarantiner is implemented by persisters that can move an unreadable
// snapshot out of the way. It returns where the snapshot went.
type Quarantiner interface {
	Quarantine(ctx context.Context) (string, error)
}

// Store is the bounded, append-only session log.
type Store struct {
	mu        sync.RWMutex
	sessions  []models.CompletedSession
	max       int
	persister Persister

	// writeMu serializes snapshot writes from the writer and Flush.
	writeMu sync.Mutex

	dirty     chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    bool

	// readOnly is fixed before the writer starts.
	readOnly bool

	writeTimeout time.Duration
	logger       zerolog.Logger
}

// Options configures a Store.
type Options struct {
	// MaxSessions is the log cap. Defaults to DefaultMaxSessions.
	MaxSessions int

	// WriteTimeout bounds one snapshot write. Defaults to 10s.
	WriteTimeout time.Duration
}

// NewStore loads the existing log from p and starts the background writer.
// On a load failure the store starts empty and the unreadable snapshot is
// quarantined, or left alone with persistence disabled.
func NewStore(ctx context.Context, p Persister, opts Options) *Store {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	s := &Store{
		max:          opts.MaxSessions,
		persister:    p,
		dirty:        make(chan struct{}, 1),
		done:         make(chan struct{}),
		writeTimeout: opts.WriteTimeout,
		logger:       logging.WithComponent("history"),
	}

	loaded, err := p.Load(ctx)
	if err != nil {
		s.setAsideUnreadable(ctx, err)
	}
	s.sessions = capNewest(loaded, s.max)
	metrics.HistorySessions.Set(float64(len(s.sessions)))

	s.logger.Info().
		Str("backend", p.Name()).
		Int("sessions", len(s.sessions)).
		Int("max_sessions", s.max).
		Msg("Session history loaded")

	s.wg.Add(1)
	go s.writer()
	return s
}

// Append adds a session, evicting the oldest entries beyond the cap, and
// schedules a snapshot write. It never blocks on I/O.
func (s *Store) Append(session models.CompletedSession) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn().Str("session_id", session.ID).Msg("Session appended after close, dropped")
		return
	}
	next := make([]models.CompletedSession, 0, len(s.sessions)+1)
	next = append(next, s.sessions...)
	next = append(next, session)
	s.sessions = capNewest(next, s.max)
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.HistorySessions.Set(float64(n))
	if s.readOnly {
		return
	}

	select {
	case s.dirty <- struct{}{}:
	default:
		// A write is already pending; it will pick up this append.
	}
}

// Sessions returns a copy of the log, oldest first.
func (s *Store) Sessions() []models.CompletedSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CompletedSession, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Recent returns up to n sessions, newest first. n <= 0 returns all.
func (s *Store) Recent(n int) []models.CompletedSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.sessions) {
		n = len(s.sessions)
	}
	out := make([]models.CompletedSession, 0, n)
	for i := len(s.sessions) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.sessions[i])
	}
	return out
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Max returns the configured cap.
func (s *Store) Max() int {
	return s.max
}

// Flush synchronously writes the current snapshot.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return s.persist(ctx)
}

// Close stops the writer, writes a final snapshot and closes the persister.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.done)
		s.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()
		if !s.readOnly {
			if perr := s.persist(ctx); perr != nil {
				err = fmt.Errorf("final history write: %w", perr)
			}
		}
		if cerr := s.persister.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s persister: %w", s.persister.Name(), cerr)
		}
	})
	return err
}

func (s *Store) writer() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.dirty:
			ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
			if err := s.persist(ctx); err != nil {
				s.logger.Warn().Err(err).Str("backend", s.persister.Name()).
					Msg("Session history write failed, will retry on next append")
			}
			cancel()
		}
	}
}

// setAsideUnreadable keeps an unreadable snapshot from being overwritten.
func (s *Store) setAsideUnreadable(ctx context.Context, loadErr error) {
	if q, ok := s.persister.(Quarantiner); ok {
		where, err := q.Quarantine(ctx)
		if err == nil {
			s.logger.Warn().Err(loadErr).
				Str("backend", s.persister.Name()).
				Str("moved_to", where).
				Msg("Unreadable session history moved aside, starting empty")
			return
		}
		loadErr = errors.Join(loadErr, err)
	}
	s.readOnly = true
	s.logger.Error().Err(loadErr).
		Str("backend", s.persister.Name()).
		Msg("Unreadable session history left in place, persistence disabled until it is repaired")
}

func (s *Store) persist(ctx context.Context) error {
	if s.readOnly {
		return ErrPersistenceDisabled
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snapshot := s.Sessions()
	start := time.Now()
	err := s.persister.Save(ctx, snapshot)
	metrics.RecordHistoryWrite(s.persister.Name(), time.Since(start), err)
	return err
}

// capNewest keeps the newest max entries, preserving order.
func capNewest(sessions []models.CompletedSession, max int) []models.CompletedSession {
	if len(sessions) <= max {
		return sessions
	}
	out := make([]models.CompletedSession, max)
	copy(out, sessions[len(sessions)-max:])
	return out
}
