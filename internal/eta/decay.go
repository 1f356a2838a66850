// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package eta

import (
	"fmt"
	"math"
	"time"
)

// DecayModel is the static base estimate. Queue throughput slows as the
// front is approached, modelled as
//
//	minutes = ln((p + Offset) / Offset) / RatePerMinute
type DecayModel struct {
	Offset        float64
	RatePerMinute float64
}

// DefaultDecayModel is fitted to a long-running public queue.
var DefaultDecayModel = DecayModel{Offset: 150, RatePerMinute: 0.0035}

// BaseMinutes returns the decay-model estimate for position.
func (m DecayModel) BaseMinutes(position int) float64 {
	if position <= 0 {
		return 0
	}
	offset, rate := m.Offset, m.RatePerMinute
	if offset <= 0 {
		offset = DefaultDecayModel.Offset
	}
	if rate <= 0 {
		rate = DefaultDecayModel.RatePerMinute
	}
	return math.Log((float64(position)+offset)/offset) / rate
}

// FormatETA renders minutes as "45m" or "3h 05m".
func FormatETA(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// FinishTime is now plus minutes.
func FinishTime(now time.Time, minutes int) time.Time {
	return now.Add(time.Duration(minutes) * time.Minute)
}
