// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package textextract

import "testing"

func TestParsePosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		want   int
		wantOK bool
	}{
		{"Position in queue: 412", 412, true},
		{"position in queue:7", 7, true},
		{"POSITION IN QUEUE:   0", 0, true},
		{"2b2t is full\nPosition in queue: 1032\nYou can purchase priority queue", 1032, true},
		{"Position in queue: soon", 0, false},
		{"Queue position 12", 0, false},
		{"", 0, false},
		{"Position in queue: 99999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			got, ok := ParsePosition(tt.text)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParsePosition(%q) = (%d, %v), want (%d, %v)", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestScanner(t *testing.T) {
	t.Parallel()

	s := NewScanner([]string{"  Connected to the server ", "", "Finished queue"})

	tests := []struct {
		name         string
		raw          string
		wantPosition int
		wantHas      bool
		wantFinished bool
	}{
		{"status heading", `{"text":"Position in queue: ","extra":[{"text":"15","color":"gold"}]}`, 15, true, false},
		{"finish chat", `{"text":"Connected to the server."}`, 0, false, true},
		{"second marker", `"finished QUEUE"`, 0, false, true},
		{"finish while position present", `{"text":"Position in queue: 15. Connected to the server."}`, 15, true, true},
		{"unrelated chat", `{"text":"<player> hello"}`, 0, false, false},
		{"garbage", `{{{{`, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sig := s.Scan([]byte(tt.raw))
			if sig.HasPosition != tt.wantHas || sig.Position != tt.wantPosition {
				t.Errorf("position = (%d, %v), want (%d, %v)", sig.Position, sig.HasPosition, tt.wantPosition, tt.wantHas)
			}
			if sig.Finished != tt.wantFinished {
				t.Errorf("finished = %v, want %v", sig.Finished, tt.wantFinished)
			}
		})
	}
}

func TestNewScanner_Defaults(t *testing.T) {
	t.Parallel()

	s := NewScanner(nil)
	if !s.IsFinish("Connected to the server.") {
		t.Error("expected default marker to match")
	}
	if s.IsFinish("Position in queue: 0") {
		t.Error("position zero must not count as a finish marker")
	}
}
