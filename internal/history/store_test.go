// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/queuewatch/internal/models"
)

var base = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func session(i int) models.CompletedSession {
	start := base.Add(time.Duration(i) * time.Hour)
	return models.CompletedSession{
		ID:               fmt.Sprintf("s-%03d", i),
		StartPosition:    500 + i,
		StartTime:        start,
		EndTime:          start.Add(30 * time.Minute),
		DurationMs:       (30 * time.Minute).Milliseconds(),
		DayOfWeek:        int(start.Weekday()),
		StartHour:        start.Hour(),
		PositionsPerHour: float64(1000 + i),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestStore_AppendEvictsOldestFIFO(t *testing.T) {
	t.Parallel()

	p := NewMemoryPersister()
	s := NewStore(context.Background(), p, Options{MaxSessions: 5})
	defer s.Close()

	for i := 0; i < 12; i++ {
		s.Append(session(i))
		if s.Len() > 5 {
			t.Fatalf("log length %d exceeds cap after append %d", s.Len(), i)
		}
	}

	got := s.Sessions()
	if len(got) != 5 {
		t.Fatalf("expected 5 sessions, got %d", len(got))
	}
	for i, sess := range got {
		want := fmt.Sprintf("s-%03d", 7+i)
		if sess.ID != want {
			t.Errorf("sessions[%d] = %s, want %s", i, sess.ID, want)
		}
	}
}

func TestStore_PersistsFullSnapshot(t *testing.T) {
	t.Parallel()

	p := NewMemoryPersister()
	s := NewStore(context.Background(), p, Options{MaxSessions: 3})

	for i := 0; i < 4; i++ {
		s.Append(session(i))
	}
	waitFor(t, func() bool { return len(p.Snapshot()) == 3 && p.Snapshot()[2].ID == "s-003" })

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	snap := p.Snapshot()
	if snap[0].ID != "s-001" {
		t.Errorf("expected oldest persisted session s-001, got %s", snap[0].ID)
	}
}

func TestStore_LoadAppliesCap(t *testing.T) {
	t.Parallel()

	var seed []models.CompletedSession
	for i := 0; i < 10; i++ {
		seed = append(seed, session(i))
	}
	s := NewStore(context.Background(), NewMemoryPersister(seed...), Options{MaxSessions: 4})
	defer s.Close()

	got := s.Sessions()
	if len(got) != 4 || got[0].ID != "s-006" || got[3].ID != "s-009" {
		t.Errorf("unexpected loaded sessions: %+v", got)
	}
}

func TestStore_PersistenceFailureKeepsMemoryAndRetries(t *testing.T) {
	t.Parallel()

	p := NewMemoryPersister()
	p.SetFailure(errors.New("disk full"))
	s := NewStore(context.Background(), p, Options{MaxSessions: 10})
	defer s.Close()

	s.Append(session(1))
	if err := s.Flush(context.Background()); err == nil {
		t.Fatal("expected Flush to report the persistence failure")
	}
	if s.Len() != 1 {
		t.Fatalf("in-memory log must keep the session, got %d", s.Len())
	}

	p.SetFailure(nil)
	s.Append(session(2))
	waitFor(t, func() bool { return len(p.Snapshot()) == 2 })
}

func TestStore_Recent(t *testing.T) {
	t.Parallel()

	s := NewStore(context.Background(), NewMemoryPersister(), Options{MaxSessions: 10})
	defer s.Close()
	for i := 0; i < 4; i++ {
		s.Append(session(i))
	}

	got := s.Recent(2)
	if len(got) != 2 || got[0].ID != "s-003" || got[1].ID != "s-002" {
		t.Errorf("Recent(2) = %+v", got)
	}
	if all := s.Recent(0); len(all) != 4 || all[3].ID != "s-000" {
		t.Errorf("Recent(0) = %+v", all)
	}
}

func TestStore_ReadersSeeWholeSnapshots(t *testing.T) {
	t.Parallel()

	s := NewStore(context.Background(), NewMemoryPersister(), Options{MaxSessions: 50})
	defer s.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Append(session(i))
		}
	}()

	for i := 0; i < 200; i++ {
		snap := s.Sessions()
		if len(snap) > 50 {
			t.Fatalf("snapshot length %d exceeds cap", len(snap))
		}
		for j := 1; j < len(snap); j++ {
			if snap[j].StartTime.Before(snap[j-1].StartTime) {
				t.Fatalf("snapshot out of order at %d", j)
			}
		}
	}
	wg.Wait()
}

func TestStore_AppendAfterClose(t *testing.T) {
	t.Parallel()

	p := NewMemoryPersister()
	s := NewStore(context.Background(), p, Options{})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	s.Append(session(1))
	if s.Len() != 0 {
		t.Error("append after close must be dropped")
	}
	if err := s.Flush(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush after close = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestStore_DefaultCap(t *testing.T) {
	t.Parallel()

	s := NewStore(context.Background(), NewMemoryPersister(), Options{})
	defer s.Close()
	if s.Max() != DefaultMaxSessions {
		t.Errorf("Max() = %d, want %d", s.Max(), DefaultMaxSessions)
	}
}
