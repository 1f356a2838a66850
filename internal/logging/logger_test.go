// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package logging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if cfg.Caller {
		t.Error("expected default caller to be false")
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

// The tests below mutate the global logger and therefore do not run in parallel.

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Timestamp: true, Output: &buf})
	defer Init(DefaultConfig())

	Info().Int("position", 42).Msg("queue update")

	output := buf.String()
	if !strings.Contains(output, "queue update") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"position":42`) {
		t.Errorf("expected position field in output, got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected level in output, got: %s", output)
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("console test")
	if strings.Contains(buf.String(), `"level"`) {
		t.Errorf("expected console format, got JSON: %s", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	defer Init(DefaultConfig())

	l := WithComponent("lifecycle")
	l.Info().Msg("state change")

	if !strings.Contains(buf.String(), `"component":"lifecycle"`) {
		t.Errorf("expected component field, got: %s", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	defer Init(DefaultConfig())

	tests := []struct {
		name     string
		level    string
		wantErr  bool
		wantPrev string
		wantNow  string
	}{
		{name: "debug", level: "debug", wantPrev: "info", wantNow: "debug"},
		{name: "upper case", level: "ERROR", wantPrev: "debug", wantNow: "error"},
		{name: "unknown keeps level", level: "loud", wantErr: true, wantNow: "error"},
	}
	Init(Config{Level: "info", Output: io.Discard})
	for _, tt := range tests {
		prev, err := SetLevel(tt.level)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: SetLevel(%q) error = %v", tt.name, tt.level, err)
		}
		if !tt.wantErr && prev != tt.wantPrev {
			t.Errorf("%s: previous = %q, want %q", tt.name, prev, tt.wantPrev)
		}
		if got := Level(); got != tt.wantNow {
			t.Errorf("%s: Level() = %q, want %q", tt.name, got, tt.wantNow)
		}
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithRunID(ctx, "run-1")
	Ctx(ctx).Info().Msg("with context")

	output := buf.String()
	if !strings.Contains(output, `"request_id":"req-1"`) {
		t.Errorf("expected request_id, got: %s", output)
	}
	if !strings.Contains(output, `"run_id":"run-1"`) {
		t.Errorf("expected run_id, got: %s", output)
	}
	if ContextWithRunID(ctx, "") != ctx {
		t.Error("an empty run ID must leave the context unchanged")
	}
}

func TestGenerateRunID(t *testing.T) {
	t.Parallel()

	a, b := GenerateRunID(), GenerateRunID()
	if len(a) != 8 {
		t.Errorf("expected 8 character run id, got %q", a)
	}
	if a == b {
		t.Error("expected distinct run ids")
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "trace", Output: &buf})
	defer Init(DefaultConfig())

	logger := NewSlogLogger()
	logger.With("service", "lifecycle").WithGroup("supervisor").Warn("service restarted",
		"attempt", 3, "cause", errors.New("boom"))
	logger.Debug("restart backoff")

	output := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"service":"lifecycle"`,
		`"supervisor.attempt":3`,
		`"supervisor.cause":"boom"`,
		"service restarted",
		"restart backoff",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
