// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/tomtom215/queuewatch/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.Root() == nil {
			t.Fatal("root supervisor should not be nil")
		}
		if tree.config != DefaultTreeConfig() {
			t.Errorf("config = %+v, want defaults", tree.config)
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 3,
			FailureBackoff:   time.Second,
		})
		if tree.config.FailureThreshold != 3 || tree.config.FailureBackoff != time.Second {
			t.Errorf("config = %+v", tree.config)
		}
		if tree.config.FailureDecay != 30 {
			t.Errorf("FailureDecay = %v, want default 30", tree.config.FailureDecay)
		}
	})
}

func TestTreeConfigFrom(t *testing.T) {
	got := TreeConfigFrom(config.SupervisorConfig{
		FailureThreshold: 7,
		FailureDecay:     12,
		FailureBackoff:   2 * time.Second,
		ShutdownTimeout:  4 * time.Second,
	})
	want := TreeConfig{
		FailureThreshold: 7,
		FailureDecay:     12,
		FailureBackoff:   2 * time.Second,
		ShutdownTimeout:  4 * time.Second,
	}
	if got != want {
		t.Errorf("TreeConfigFrom() = %+v, want %+v", got, want)
	}
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureBackoff:  100 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}

	layers := map[string]*mockService{
		"data":      newMockService("mock-data"),
		"messaging": newMockService("mock-messaging"),
		"queue":     newMockService("mock-queue"),
		"api":       newMockService("mock-api"),
	}
	tree.AddDataService(layers["data"])
	tree.AddMessagingService(layers["messaging"])
	tree.AddQueueService(layers["queue"])
	tree.AddAPIService(layers["api"])

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	time.Sleep(100 * time.Millisecond)
	for name, svc := range layers {
		if svc.StartCount() < 1 {
			t.Errorf("%s layer service was not started", name)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error = %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services = %v", report)
	}
}

func TestSupervisorTreeFailureHandling(t *testing.T) {
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	failing := newMockService("failing")
	failing.maxFails = 2
	stable := newMockService("stable")

	tree.AddMessagingService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	errCh := tree.ServeBackground(ctx)
	time.Sleep(200 * time.Millisecond)

	if failing.StartCount() < 3 {
		t.Errorf("expected at least 3 starts for failing service, got %d", failing.StartCount())
	}
	if stable.StartCount() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.StartCount())
	}

	cancel()
	<-errCh
}

func TestRemoveMessagingService(t *testing.T) {
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
	svc := newMockService("removable")
	token := tree.AddMessagingService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)
	defer func() {
		cancel()
		<-errCh
	}()

	time.Sleep(50 * time.Millisecond)
	if err := tree.RemoveMessagingService(token); err != nil {
		t.Errorf("RemoveMessagingService() error = %v", err)
	}
}
