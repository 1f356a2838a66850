// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package eta

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/tomtom215/queuewatch/internal/models"
)

func TestHourDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b, want int
	}{
		{5, 5, 0},
		{23, 1, 2},
		{1, 23, 2},
		{0, 12, 12},
		{3, 20, 7},
		{10, 14, 4},
	}
	for _, tt := range tests {
		if got := HourDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("HourDistance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestHourWeight(t *testing.T) {
	t.Parallel()

	if HourWeight(7, 7) != 1 {
		t.Error("same hour must weigh 1")
	}
	if got, want := HourWeight(23, 1), math.Exp(-4.0/32.0); math.Abs(got-want) > 1e-12 {
		t.Errorf("HourWeight(23, 1) = %v, want %v", got, want)
	}
	if HourWeight(12, 0) >= HourWeight(12, 8) {
		t.Error("weight must decrease with distance")
	}
}

func TestDayTypeWeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		session, now time.Weekday
		want         float64
	}{
		{time.Monday, time.Friday, 1.0},
		{time.Saturday, time.Sunday, 1.0},
		{time.Saturday, time.Wednesday, DayTypeMismatch},
		{time.Tuesday, time.Sunday, DayTypeMismatch},
	}
	for _, tt := range tests {
		if got := DayTypeWeight(tt.session, tt.now); got != tt.want {
			t.Errorf("DayTypeWeight(%v, %v) = %v, want %v", tt.session, tt.now, got, tt.want)
		}
	}
}

func TestComputeHistoricalRate(t *testing.T) {
	t.Parallel()

	if _, ok := ComputeHistoricalRate(nil, t0); ok {
		t.Error("empty history must report no data")
	}

	weekday := t0.AddDate(0, 0, -7)  // Wednesday
	weekend := t0.AddDate(0, 0, -11) // Saturday
	sessions := []models.CompletedSession{
		// Older, weekend: w = 1 × 0.35 × 1/2.
		{StartHour: 12, DayOfWeek: int(weekend.Weekday()), EndTime: weekend, PositionsPerHour: 2000},
		// Newer, weekday: w = 1 × 1 × 2/2.
		{StartHour: 12, DayOfWeek: int(weekday.Weekday()), EndTime: weekday, PositionsPerHour: 1000},
	}

	got, ok := ComputeHistoricalRate(sessions, t0)
	if !ok {
		t.Fatal("expected a historical rate")
	}
	wantRate := (1000 + 0.175*2000) / 1.175
	wantESS := (1.175 * 1.175) / (1 + 0.175*0.175)
	if math.Abs(got.PositionsPerHour-wantRate) > 1e-9 {
		t.Errorf("rate = %v, want %v", got.PositionsPerHour, wantRate)
	}
	if math.Abs(got.EffectiveSessions-wantESS) > 1e-9 {
		t.Errorf("ESS = %v, want %v", got.EffectiveSessions, wantESS)
	}
	if got.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2", got.Sessions)
	}
}

func TestComputeHistoricalRate_SingleSession(t *testing.T) {
	t.Parallel()

	got, ok := ComputeHistoricalRate([]models.CompletedSession{
		{StartHour: 0, DayOfWeek: int(time.Sunday), EndTime: t0, PositionsPerHour: 750},
	}, t0)
	if !ok {
		t.Fatal("expected a historical rate")
	}
	if math.Abs(got.PositionsPerHour-750) > 1e-9 || math.Abs(got.EffectiveSessions-1) > 1e-9 {
		t.Errorf("got %+v, want rate 750 and ESS 1", got)
	}
}

func TestComputeHistoricalRate_IgnoresInvalidRates(t *testing.T) {
	t.Parallel()

	if _, ok := ComputeHistoricalRate([]models.CompletedSession{
		{StartHour: 12, PositionsPerHour: 0},
		{StartHour: 12, PositionsPerHour: -5},
	}, t0); ok {
		t.Error("sessions without a positive rate must not produce a rate")
	}
}

func TestComputeHistoricalRate_ESSBounds(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(60)
		sessions := make([]models.CompletedSession, n)
		for i := range sessions {
			end := t0.Add(-time.Duration(rng.Intn(90*24)) * time.Hour)
			sessions[i] = models.CompletedSession{
				StartHour:        rng.Intn(24),
				DayOfWeek:        rng.Intn(7),
				EndTime:          end,
				PositionsPerHour: float64(1 + rng.Intn(10000)),
			}
		}
		now := t0.Add(time.Duration(rng.Intn(24*7)) * time.Hour)
		got, ok := ComputeHistoricalRate(sessions, now)
		if !ok {
			t.Fatalf("trial %d: expected data", trial)
		}
		if got.EffectiveSessions <= 0 || got.EffectiveSessions > float64(n)+1e-9 {
			t.Fatalf("trial %d: ESS %v outside (0, %d]", trial, got.EffectiveSessions, n)
		}
	}
}

func TestComputeLiveRate(t *testing.T) {
	t.Parallel()

	mk := func(step time.Duration, positions ...int) []models.QueueSample {
		out := make([]models.QueueSample, len(positions))
		for i, p := range positions {
			out[i] = models.QueueSample{Timestamp: t0.Add(time.Duration(i) * step), Position: p}
		}
		return out
	}

	tests := []struct {
		name    string
		samples []models.QueueSample
		want    float64
		wantOK  bool
	}{
		{"too few samples", mk(time.Minute, 100, 90, 80, 70), 0, false},
		{"too short", mk(10*time.Second, 100, 90, 80, 70, 60), 0, false},
		{"stalled", mk(time.Minute, 100, 100, 100, 100, 100), 0, false},
		{"increasing", mk(time.Minute, 100, 110, 120, 130, 140), 0, false},
		{"steady", mk(time.Minute, 100, 90, 80, 70, 60), 600, true},
		{"noisy but net decrease", mk(30*time.Second, 100, 104, 95, 99, 90), 300, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ComputeLiveRate(tt.samples)
			if ok != tt.wantOK || math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ComputeLiveRate() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBlend(t *testing.T) {
	t.Parallel()

	hist := &HistoricalRate{PositionsPerHour: 600, EffectiveSessions: 20}
	live := 1200.0

	b := Blend(600, 100, hist, &live, 30)
	// (0.5×100 + 0.5×60 + 0.4×30) / 1.4
	if b.Minutes != 66 {
		t.Errorf("Minutes = %d, want 66", b.Minutes)
	}
	if sum := b.BaseWeight + b.HistoricalWeight + b.LiveWeight; math.Abs(sum-1) > 1e-12 {
		t.Errorf("weights sum to %v", sum)
	}

	// Live needs five samples even with a rate.
	b = Blend(600, 100, nil, &live, 4)
	if b.HasLive || b.Minutes != 100 {
		t.Errorf("unexpected live candidate: %+v", b)
	}

	// Floored at one minute.
	b = Blend(0, 0, hist, nil, 0)
	if b.Minutes != 1 {
		t.Errorf("Minutes = %d, want 1", b.Minutes)
	}
}

func TestDecayModel(t *testing.T) {
	t.Parallel()

	m := DefaultDecayModel
	if m.BaseMinutes(0) != 0 {
		t.Error("position 0 must have no base wait")
	}
	prev := 0.0
	for p := 1; p < 3000; p += 50 {
		cur := m.BaseMinutes(p)
		if cur <= prev {
			t.Fatalf("BaseMinutes not increasing at %d", p)
		}
		prev = cur
	}
	want := math.Log(1150.0/150.0) / 0.0035
	if got := m.BaseMinutes(1000); math.Abs(got-want) > 1e-9 {
		t.Errorf("BaseMinutes(1000) = %v, want %v", got, want)
	}
	if got := (DecayModel{}).BaseMinutes(1000); math.Abs(got-want) > 1e-9 {
		t.Errorf("zero model must fall back to defaults, got %v", got)
	}
}

func TestFormatETA(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minutes int
		want    string
	}{
		{-3, "0m"},
		{0, "0m"},
		{45, "45m"},
		{60, "1h 00m"},
		{185, "3h 05m"},
		{1441, "24h 01m"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.minutes); got != tt.want {
			t.Errorf("FormatETA(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
	if got := FinishTime(t0, 90); !got.Equal(t0.Add(90 * time.Minute)) {
		t.Errorf("FinishTime = %v", got)
	}
}
