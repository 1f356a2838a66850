// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package config loads and validates the queuewatch configuration.

# Sources

Configuration is layered with koanf v2, later layers winning:

  - built-in defaults (defaultConfig)
  - an optional YAML file: the path passed to Load, CONFIG_PATH, or the first
    of queuewatch.yaml, queuewatch.yml, /etc/queuewatch/config.yaml,
    /etc/queuewatch/config.yml
  - environment variables listed in envMappings

Unmapped environment variables are ignored. Slice fields (FINISH_MARKERS,
CORS_ORIGINS) take comma-separated values and WEBHOOK_HEADERS takes
"Key=value,Other=value".

# Sections

  - server: HTTP API listener (HTTP_HOST, HTTP_PORT, ENVIRONMENT)
  - transport: relay websocket (RELAY_URL, RELAY_TOKEN, RELAY_HANDSHAKE_TIMEOUT)
  - queue: lifecycle tuning (QUEUE_VARIANT, AUTO_RESTART, RECONNECT_DELAY,
    RELOG_THRESHOLD, NOTIFY_THRESHOLD, MAX_RUN_DURATION)
  - estimator: decay base model (ETA_DECAY_OFFSET, ETA_DECAY_RATE)
  - history: session log backend (HISTORY_BACKEND=file|badger|memory, HISTORY_PATH)
  - idle: idle prevention (IDLE_PREVENTION, IDLE_UNIT, IDLE_MAX_DRIFT)
  - notify: webhook and Discord notifiers
  - nats: event forwarding (NATS_ENABLED, NATS_URL, NATS_EMBEDDED)
  - security: rate limiting, CORS, API token
  - logging: LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - supervisor: suture failure handling

# Validation

Validate applies the go-playground/validator tags on every field through
internal/validation, then the cross-field rules (history path per backend,
notifier URLs when enabled, NATS URL scheme, API token in production).

Example:

	cfg, err := config.Load("")
	if err != nil {
	    log.Fatal().Err(err).Msg("Invalid configuration")
	}
*/
package config
