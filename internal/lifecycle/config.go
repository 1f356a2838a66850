// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package lifecycle

import "time"

// Variant selects threshold behavior.
type Variant string

const (
	// VariantCollector relogs at RelogThreshold.
	VariantCollector Variant = "collector"

	// VariantInteractive notifies at NotifyThreshold.
	VariantInteractive Variant = "interactive"
)

// HistoryCap bounds the chart series: twelve hours at one point a minute.
const HistoryCap = 720

// Config tunes the engine.
type Config struct {
	Variant Variant

	AutoRestart    bool
	IdlePrevention bool

	ReconnectDelay time.Duration
	RelogDelay     time.Duration

	// MaxRunDuration ends the run at the next reconnect once spent. Zero
	// means unlimited.
	MaxRunDuration time.Duration

	DialTimeout time.Duration

	RelogThreshold  int
	NotifyThreshold int

	// StatusInterval is how often the position is logged while queueing.
	// Zero disables the reporter.
	StatusInterval time.Duration

	HistoryInterval time.Duration

	FinishMarkers []string
}

// DefaultConfig returns the defaults for an interactive run.
func DefaultConfig() Config {
	return Config{
		Variant:         VariantInteractive,
		AutoRestart:     true,
		IdlePrevention:  true,
		ReconnectDelay:  30 * time.Second,
		RelogDelay:      5 * time.Second,
		DialTimeout:     60 * time.Second,
		RelogThreshold:  50,
		NotifyThreshold: 20,
		StatusInterval:  5 * time.Minute,
		HistoryInterval: time.Minute,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Variant == "" {
		c.Variant = def.Variant
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = def.ReconnectDelay
	}
	if c.RelogDelay <= 0 {
		c.RelogDelay = def.RelogDelay
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.HistoryInterval <= 0 {
		c.HistoryInterval = def.HistoryInterval
	}
	if c.StatusInterval < 0 {
		c.StatusInterval = 0
	}
}
