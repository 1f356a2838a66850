// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package eta

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/queuewatch/internal/models"
)

// Estimation constants.
const (
	SampleWindow       = 30
	MinSessionDuration = 2 * time.Minute
	MaxRate            = 10000.0

	LiveMinSamples = 5
	LiveMinElapsed = time.Minute

	HourSigma       = 4.0
	DayTypeMismatch = 0.35

	BaseWeight                 = 0.5
	HistoricalWeightPerSession = 0.04
	HistoricalWeightCap        = 0.5
	LiveWeightPerSample        = 0.02
	LiveWeightCap              = 0.4
)

// HistoricalRate is the outcome of the weighted historical computation.
type HistoricalRate struct {
	PositionsPerHour  float64
	EffectiveSessions float64
	Sessions          int
}

// HourDistance is the circular distance between two hours of the day.
func HourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	d %= 24
	if 24-d < d {
		return 24 - d
	}
	return d
}

// HourWeight is the Gaussian time-of-day similarity.
func HourWeight(sessionHour, nowHour int) float64 {
	d := float64(HourDistance(sessionHour, nowHour))
	return math.Exp(-(d * d) / (2 * HourSigma * HourSigma))
}

// DayTypeWeight is 1.0 when both days are weekend days or both weekdays.
func DayTypeWeight(sessionDay, nowDay time.Weekday) float64 {
	if models.IsWeekend(sessionDay) == models.IsWeekend(nowDay) {
		return 1.0
	}
	return DayTypeMismatch
}

// ComputeHistoricalRate weights every usable session by time-of-day,
// day-type and recency similarity to now. It reports false when no session
// carries weight.
func ComputeHistoricalRate(sessions []models.CompletedSession, now time.Time) (HistoricalRate, bool) {
	usable := make([]models.CompletedSession, 0, len(sessions))
	for _, s := range sessions {
		if s.PositionsPerHour > 0 && !math.IsInf(s.PositionsPerHour, 0) && !math.IsNaN(s.PositionsPerHour) {
			usable = append(usable, s)
		}
	}
	n := len(usable)
	if n == 0 {
		return HistoricalRate{}, false
	}

	// Newest first.
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].EndTime.After(usable[j].EndTime)
	})

	nowHour := now.Hour()
	nowDay := now.Weekday()

	var sumW, sumW2, sumWR float64
	for i, s := range usable {
		w := HourWeight(s.StartHour, nowHour) *
			DayTypeWeight(time.Weekday(s.DayOfWeek), nowDay) *
			float64(n-i) / float64(n)
		sumW += w
		sumW2 += w * w
		sumWR += w * s.PositionsPerHour
	}
	if sumW <= 0 || sumW2 <= 0 {
		return HistoricalRate{}, false
	}

	return HistoricalRate{
		PositionsPerHour:  sumWR / sumW,
		EffectiveSessions: (sumW * sumW) / sumW2,
		Sessions:          n,
	}, true
}

// ComputeLiveRate derives positions per hour from a sample window ordered
// oldest to newest.
func ComputeLiveRate(samples []models.QueueSample) (float64, bool) {
	if len(samples) < LiveMinSamples {
		return 0, false
	}
	oldest := samples[0]
	newest := samples[len(samples)-1]

	elapsed := newest.Timestamp.Sub(oldest.Timestamp)
	if elapsed < LiveMinElapsed {
		return 0, false
	}
	drop := oldest.Position - newest.Position
	if drop <= 0 {
		return 0, false
	}
	return float64(drop) / elapsed.Hours(), true
}

// Breakdown explains one blended estimate.
type Breakdown struct {
	Minutes     int
	BaseMinutes float64
	BaseWeight  float64

	HasHistorical     bool
	HistoricalRate    float64
	HistoricalMinutes float64
	HistoricalWeight  float64
	EffectiveSessions float64

	HasLive     bool
	LiveRate    float64
	LiveMinutes float64
	LiveWeight  float64
	SampleCount int
}

// Blend combines the candidates for currentPosition. hist and live may be
// absent; sampleCount is the live window length.
func Blend(currentPosition int, baseMinutes float64, hist *HistoricalRate, liveRate *float64, sampleCount int) Breakdown {
	b := Breakdown{
		BaseMinutes: baseMinutes,
		BaseWeight:  BaseWeight,
		SampleCount: sampleCount,
	}
	pos := float64(currentPosition)
	if pos < 0 {
		pos = 0
	}

	total := BaseWeight
	weighted := BaseWeight * baseMinutes

	if hist != nil && hist.PositionsPerHour > 0 {
		b.HasHistorical = true
		b.HistoricalRate = hist.PositionsPerHour
		b.EffectiveSessions = hist.EffectiveSessions
		b.HistoricalMinutes = pos / hist.PositionsPerHour * 60
		b.HistoricalWeight = math.Min(HistoricalWeightCap, HistoricalWeightPerSession*hist.EffectiveSessions)
		total += b.HistoricalWeight
		weighted += b.HistoricalWeight * b.HistoricalMinutes
	}

	if liveRate != nil && *liveRate > 0 && sampleCount >= LiveMinSamples {
		b.HasLive = true
		b.LiveRate = *liveRate
		b.LiveMinutes = pos / *liveRate * 60
		b.LiveWeight = math.Min(LiveWeightCap, LiveWeightPerSample*float64(sampleCount))
		total += b.LiveWeight
		weighted += b.LiveWeight * b.LiveMinutes
	}

	// Renormalize so the reported weights sum to one.
	b.BaseWeight /= total
	b.HistoricalWeight /= total
	b.LiveWeight /= total

	if !b.HasHistorical && !b.HasLive {
		b.Minutes = int(math.Round(math.Max(1, baseMinutes)))
		return b
	}
	b.Minutes = int(math.Round(math.Max(1, weighted/total)))
	return b
}
