// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package config

import "time"

// Config is the complete queuewatch configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Transport  TransportConfig  `koanf:"transport"`
	Queue      QueueConfig      `koanf:"queue"`
	Estimator  EstimatorConfig  `koanf:"estimator"`
	History    HistoryConfig    `koanf:"history"`
	Idle       IdleConfig       `koanf:"idle"`
	Notify     NotifyConfig     `koanf:"notify"`
	NATS       NATSConfig       `koanf:"nats"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	Environment string        `koanf:"environment" validate:"oneof=development staging production"`
}

// TransportConfig holds the relay websocket settings.
type TransportConfig struct {
	URL              string        `koanf:"url" validate:"required,wsurl"`
	Token            string        `koanf:"token"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout" validate:"gt=0"`

	// BreakerFailures consecutive dial failures open the breaker for
	// BreakerTimeout.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"min=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// QueueConfig tunes the connection lifecycle.
type QueueConfig struct {
	// Variant is "interactive" (notify near the front) or "collector"
	// (relog near the front to gather more sessions).
	Variant string `koanf:"variant" validate:"oneof=interactive collector"`

	// AutoStart begins a run as soon as the service starts.
	AutoStart   bool `koanf:"auto_start"`
	AutoRestart bool `koanf:"auto_restart"`

	ReconnectDelay  time.Duration `koanf:"reconnect_delay" validate:"gt=0"`
	RelogDelay      time.Duration `koanf:"relog_delay" validate:"gt=0"`
	MaxRunDuration  time.Duration `koanf:"max_run_duration" validate:"gte=0"`
	DialTimeout     time.Duration `koanf:"dial_timeout" validate:"gt=0"`
	StatusInterval  time.Duration `koanf:"status_interval" validate:"gte=0"`
	HistoryInterval time.Duration `koanf:"history_interval" validate:"gt=0"`

	RelogThreshold  int `koanf:"relog_threshold" validate:"gte=0"`
	NotifyThreshold int `koanf:"notify_threshold" validate:"gte=0"`

	FinishMarkers []string `koanf:"finish_markers"`
}

// EstimatorConfig holds the decay base model parameters.
type EstimatorConfig struct {
	DecayOffset float64 `koanf:"decay_offset" validate:"gt=0"`
	DecayRate   float64 `koanf:"decay_rate" validate:"gt=0"`
}

// HistoryConfig selects the session history backend.
type HistoryConfig struct {
	Backend      string        `koanf:"backend" validate:"oneof=file badger memory"`
	Path         string        `koanf:"path"`
	MaxSessions  int           `koanf:"max_sessions" validate:"min=1,max=100000"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
}

// IdleConfig tunes the idle-prevention scheduler.
type IdleConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Unit           time.Duration `koanf:"unit" validate:"gt=0"`
	JitterFraction float64       `koanf:"jitter_fraction" validate:"gte=0,lte=1"`
	MaxDrift       float64       `koanf:"max_drift" validate:"gt=0"`
	MoveHold       time.Duration `koanf:"move_hold" validate:"gt=0"`
}

// NotifyConfig holds the outbound notifier settings.
type NotifyConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	WebhookEnabled     bool              `koanf:"webhook_enabled"`
	WebhookURL         string            `koanf:"webhook_url"`
	WebhookHeaders     map[string]string `koanf:"webhook_headers"`
	WebhookRateLimitMs int               `koanf:"webhook_rate_limit_ms" validate:"gte=0"`

	DiscordEnabled     bool   `koanf:"discord_enabled"`
	DiscordWebhookURL  string `koanf:"discord_webhook_url"`
	DiscordRateLimitMs int    `koanf:"discord_rate_limit_ms" validate:"gte=0"`
}

// NATSConfig controls event forwarding to NATS.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	EmbeddedHost   string        `koanf:"embedded_host"`
	EmbeddedPort   int           `koanf:"embedded_port" validate:"gte=-1,lte=65535"`
	MaxReconnects  int           `koanf:"max_reconnects" validate:"gte=-1"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait" validate:"gte=0"`
	Buffer         int           `koanf:"buffer" validate:"min=1"`
}

// SecurityConfig holds the HTTP API protections.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// APIToken, when set, is required as a bearer token on command routes.
	APIToken string `koanf:"api_token"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`

	// Format is json or console.
	Format string `koanf:"format" validate:"oneof=json console"`

	Caller bool `koanf:"caller"`
}

// SupervisorConfig mirrors suture's failure handling knobs.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Addr is the HTTP listen address.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
