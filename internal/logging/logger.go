// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

// Package logging owns the process-wide zerolog logger.
//
// cmd/queuewatch calls Init once the configuration is loaded; until then
// JSON at info level goes to stderr. Packages log through the level helpers
// or a component logger:
//
//	logging.Info().Int("position", 412).Msg("Queue position changed")
//
//	log := logging.WithComponent("history")
//	log.Warn().Err(err).Msg("Session history write failed")
//
// Request and run identifiers travel in the context and are attached by Ctx.
// The level can be changed at runtime with SetLevel, which backs the
// log-level API command. sutureslog receives the same stream through
// NewSlogLogger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is one of trace, debug, info, warn, error, disabled.
	Level string

	// Format is json or console.
	Format string

	// Caller adds file:line to every entry.
	Caller bool

	Timestamp bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig is what the process logs with before Init.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var levels = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"disabled": zerolog.Disabled,
}

var (
	mu   sync.RWMutex
	root zerolog.Logger
)

//nolint:gochecknoinits // logging must work before Init is called
func init() {
	configure(DefaultConfig())
}

// Init replaces the global logger. It may be called more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	configure(cfg)
}

// configure must be called with mu held.
func configure(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	ctx := zerolog.New(out).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	root = ctx.Logger()
}

// parseLevel falls back to info for unknown names, since a bad LOG_LEVEL
// should not silence the process. Config validation rejects them earlier.
func parseLevel(name string) zerolog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// Level returns the name of the active global level.
func Level() string {
	return zerolog.GlobalLevel().String()
}

// SetLevel changes the global level at runtime and returns the previous
// level name. Unknown names are rejected.
func SetLevel(name string) (string, error) {
	l, ok := levels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("logging: unknown level %q", name)
	}
	prev := Level()
	zerolog.SetGlobalLevel(l)
	return prev, nil
}

// current returns a copy of the global logger.
func current() *zerolog.Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	return &l
}

// WithComponent returns a child logger with a "component" field.
func WithComponent(component string) zerolog.Logger {
	return current().With().Str("component", component).Logger()
}

func Debug() *zerolog.Event { return current().Debug() }

func Info() *zerolog.Event { return current().Info() }

func Warn() *zerolog.Event { return current().Warn() }

func Error() *zerolog.Event { return current().Error() }
