// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

func defaultKeys(t *testing.T) []string {
	t.Helper()
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		t.Fatal(err)
	}
	return k.Keys()
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"RELAY_URL", "transport.url"},
		{"relay_token", "transport.token"},
		{"QUEUE_VARIANT", "queue.variant"},
		{"RELOG_THRESHOLD", "queue.relog_threshold"},
		{"HISTORY_BACKEND", "history.backend"},
		{"IDLE_PREVENTION", "idle.enabled"},
		{"WEBHOOK_HEADERS", "notify.webhook_headers"},
		{"NATS_EMBEDDED", "nats.embedded_server"},
		{"LOG_LEVEL", "logging.level"},
		{"SUPERVISOR_FAILURE_BACKOFF", "supervisor.failure_backoff"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.input); got != tt.expected {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestEnvMappings_TargetKnownPaths(t *testing.T) {
	t.Parallel()

	known := make(map[string]bool)
	for _, key := range defaultKeys(t) {
		known[key] = true
	}
	for env, path := range envMappings {
		if !known[path] {
			t.Errorf("%s maps to unknown config path %q", env, path)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transport.URL != "ws://127.0.0.1:25580/relay" {
		t.Errorf("Transport.URL = %q", cfg.Transport.URL)
	}
	if cfg.Queue.HistoryInterval != time.Minute {
		t.Errorf("Queue.HistoryInterval = %v", cfg.Queue.HistoryInterval)
	}
	if len(cfg.Queue.FinishMarkers) != 1 || cfg.Queue.FinishMarkers[0] != "connected to the server" {
		t.Errorf("Queue.FinishMarkers = %v", cfg.Queue.FinishMarkers)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
transport:
  url: wss://relay.example.com/queue
  handshake_timeout: 45s
queue:
  variant: collector
  relog_threshold: 80
  finish_markers:
    - joined the game
    - connected to the server
history:
  backend: badger
  path: /tmp/qw-history
notify:
  webhook_enabled: true
  webhook_url: https://hooks.example.com/qw
  webhook_headers:
    Authorization: Bearer abc
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transport.URL != "wss://relay.example.com/queue" {
		t.Errorf("Transport.URL = %q", cfg.Transport.URL)
	}
	if cfg.Transport.HandshakeTimeout != 45*time.Second {
		t.Errorf("Transport.HandshakeTimeout = %v", cfg.Transport.HandshakeTimeout)
	}
	if cfg.Queue.Variant != "collector" || cfg.Queue.RelogThreshold != 80 {
		t.Errorf("Queue = %+v", cfg.Queue)
	}
	if len(cfg.Queue.FinishMarkers) != 2 {
		t.Errorf("Queue.FinishMarkers = %v", cfg.Queue.FinishMarkers)
	}
	if cfg.History.Backend != "badger" {
		t.Errorf("History.Backend = %q", cfg.History.Backend)
	}
	if cfg.Notify.WebhookHeaders["Authorization"] != "Bearer abc" {
		t.Errorf("Notify.WebhookHeaders = %v", cfg.Notify.WebhookHeaders)
	}
	// Untouched sections keep their defaults.
	if cfg.Queue.ReconnectDelay != 30*time.Second {
		t.Errorf("Queue.ReconnectDelay = %v", cfg.Queue.ReconnectDelay)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, `
queue:
  relog_threshold: 80
logging:
  level: debug
`)
	t.Setenv("RELOG_THRESHOLD", "25")
	t.Setenv("RECONNECT_DELAY", "1m30s")
	t.Setenv("QUEUE_FINISH_MARKERS", "joined the game, connected to the server ,")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("WEBHOOK_HEADERS", "X-Token=a=b, X-Env = prod")
	t.Setenv("IDLE_PREVENTION", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Queue.RelogThreshold != 25 {
		t.Errorf("Queue.RelogThreshold = %d, want 25", cfg.Queue.RelogThreshold)
	}
	if cfg.Queue.ReconnectDelay != 90*time.Second {
		t.Errorf("Queue.ReconnectDelay = %v, want 1m30s", cfg.Queue.ReconnectDelay)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want the file value", cfg.Logging.Level)
	}
	if got := cfg.Queue.FinishMarkers; len(got) != 2 || got[1] != "connected to the server" {
		t.Errorf("Queue.FinishMarkers = %q", got)
	}
	if got := cfg.Security.CORSOrigins; len(got) != 2 || got[0] != "https://a.example" {
		t.Errorf("Security.CORSOrigins = %v", got)
	}
	if cfg.Notify.WebhookHeaders["X-Token"] != "a=b" || cfg.Notify.WebhookHeaders["X-Env"] != "prod" {
		t.Errorf("Notify.WebhookHeaders = %v", cfg.Notify.WebhookHeaders)
	}
	if cfg.Idle.Enabled {
		t.Error("Idle.Enabled should be overridden to false")
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	t.Setenv("RELAY_URL", "http://not-a-websocket")

	_, err := Load(writeFile(t, "logging:\n  level: info\n"))
	if err == nil {
		t.Fatal("Load() should reject an http relay URL")
	}
	if !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("error = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/queuewatch.yaml"); err == nil {
		t.Fatal("Load() should fail for an explicit missing file")
	}
}
