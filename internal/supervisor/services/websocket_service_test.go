// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	ws "github.com/tomtom215/queuewatch/internal/websocket"
)

type mockContextHub struct {
	runErr error
}

func (m *mockContextHub) RunWithContext(ctx context.Context) error {
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

var (
	_ suture.Service = (*WebSocketHubService)(nil)
	_ ContextHub     = (*ws.Hub)(nil)
)

func TestWebSocketHubService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("returns context error on deadline", func(t *testing.T) {
		t.Parallel()
		svc := NewWebSocketHubService(&mockContextHub{})
		if svc.String() != "websocket-hub" {
			t.Errorf("String() = %q", svc.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
		}
	})

	t.Run("propagates hub errors", func(t *testing.T) {
		t.Parallel()
		hubErr := errors.New("hub failure")
		svc := NewWebSocketHubService(&mockContextHub{runErr: hubErr})
		if err := svc.Serve(context.Background()); !errors.Is(err, hubErr) {
			t.Errorf("Serve() = %v, want %v", err, hubErr)
		}
	})

	t.Run("runs the real hub", func(t *testing.T) {
		t.Parallel()
		hub := ws.NewHub()
		svc := NewWebSocketHubService(hub)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
		}
		if hub.GetClientCount() != 0 {
			t.Errorf("clients = %d, want 0", hub.GetClientCount())
		}
	})
}
