// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"queuewatch.yaml",
	"queuewatch.yml",
	"/etc/queuewatch/config.yaml",
	"/etc/queuewatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Enabled:     true,
			Host:        "127.0.0.1",
			Port:        8675,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Transport: TransportConfig{
			URL:              "ws://127.0.0.1:25580/relay",
			HandshakeTimeout: 30 * time.Second,
			BreakerFailures:  5,
			BreakerTimeout:   2 * time.Minute,
		},
		Queue: QueueConfig{
			Variant:         "interactive",
			AutoStart:       false,
			AutoRestart:     true,
			ReconnectDelay:  30 * time.Second,
			RelogDelay:      5 * time.Second,
			MaxRunDuration:  0, // unlimited
			DialTimeout:     60 * time.Second,
			StatusInterval:  5 * time.Minute,
			HistoryInterval: time.Minute,
			RelogThreshold:  50,
			NotifyThreshold: 20,
			FinishMarkers:   []string{"connected to the server"},
		},
		Estimator: EstimatorConfig{
			DecayOffset: 150,
			DecayRate:   0.0035,
		},
		History: HistoryConfig{
			Backend:      "file",
			Path:         "data/queue_history.json",
			MaxSessions:  200,
			WriteTimeout: 10 * time.Second,
		},
		Idle: IdleConfig{
			Enabled:        true,
			Unit:           15 * time.Second,
			JitterFraction: 0.5,
			MaxDrift:       2,
			MoveHold:       800 * time.Millisecond,
		},
		Notify: NotifyConfig{
			Timeout:            10 * time.Second,
			WebhookRateLimitMs: 1000,
			DiscordRateLimitMs: 1000,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			EmbeddedHost:   "127.0.0.1",
			EmbeddedPort:   4222,
			MaxReconnects:  -1,
			ReconnectWait:  2 * time.Second,
			Buffer:         256,
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load builds the configuration from three layers, later ones winning:
//  1. built-in defaults
//  2. the YAML file named by path, CONFIG_PATH or the first of
//     DefaultConfigPaths that exists
//  3. mapped environment variables
//
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processMapFields(k); err != nil {
		return nil, fmt.Errorf("failed to process map fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in defaults without reading any source.
func Default() *Config {
	return defaultConfig()
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"queue.finish_markers",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// mapConfigPaths arrive from the environment as "Key=value,Other=value".
var mapConfigPaths = []string{
	"notify.webhook_headers",
}

func processMapFields(k *koanf.Koanf) error {
	for _, path := range mapConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		result := make(map[string]interface{})
		for _, item := range strings.Split(strVal, ",") {
			// Split on the first = only; values may contain more.
			key, value, found := strings.Cut(strings.TrimSpace(item), "=")
			key = strings.TrimSpace(key)
			if !found || key == "" {
				continue
			}
			result[key] = strings.TrimSpace(value)
		}
		k.Delete(path)
		if len(result) == 0 {
			continue
		}
		if err := k.Set(path, result); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_enabled": "server.enabled",
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Relay transport
	"relay_url":               "transport.url",
	"relay_token":             "transport.token",
	"relay_handshake_timeout": "transport.handshake_timeout",
	"relay_breaker_failures":  "transport.breaker_failures",
	"relay_breaker_timeout":   "transport.breaker_timeout",

	// Queue lifecycle
	"queue_variant":        "queue.variant",
	"queue_auto_start":     "queue.auto_start",
	"auto_restart":         "queue.auto_restart",
	"reconnect_delay":      "queue.reconnect_delay",
	"relog_delay":          "queue.relog_delay",
	"max_run_duration":     "queue.max_run_duration",
	"dial_timeout":         "queue.dial_timeout",
	"status_interval":      "queue.status_interval",
	"history_interval":     "queue.history_interval",
	"relog_threshold":      "queue.relog_threshold",
	"notify_threshold":     "queue.notify_threshold",
	"queue_finish_markers": "queue.finish_markers",

	// Estimator
	"eta_decay_offset": "estimator.decay_offset",
	"eta_decay_rate":   "estimator.decay_rate",

	// Session history
	"history_backend":       "history.backend",
	"history_path":          "history.path",
	"history_max_sessions":  "history.max_sessions",
	"history_write_timeout": "history.write_timeout",

	// Idle prevention
	"idle_prevention":      "idle.enabled",
	"idle_unit":            "idle.unit",
	"idle_jitter_fraction": "idle.jitter_fraction",
	"idle_max_drift":       "idle.max_drift",
	"idle_move_hold":       "idle.move_hold",

	// Notifications
	"notify_timeout":        "notify.timeout",
	"webhook_enabled":       "notify.webhook_enabled",
	"webhook_url":           "notify.webhook_url",
	"webhook_headers":       "notify.webhook_headers",
	"webhook_rate_limit_ms": "notify.webhook_rate_limit_ms",
	"discord_enabled":       "notify.discord_enabled",
	"discord_webhook_url":   "notify.discord_webhook_url",
	"discord_rate_limit_ms": "notify.discord_rate_limit_ms",

	// NATS
	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_embedded":       "nats.embedded_server",
	"nats_embedded_host":  "nats.embedded_host",
	"nats_embedded_port":  "nats.embedded_port",
	"nats_max_reconnects": "nats.max_reconnects",
	"nats_reconnect_wait": "nats.reconnect_wait",
	"nats_buffer":         "nats.buffer",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"api_token":           "security.api_token",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps RELAY_URL to transport.url and so on. It returns ""
// for unknown variables so the environment cannot pollute the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
