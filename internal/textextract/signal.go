// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package textextract

import (
	"regexp"
	"strconv"
	"strings"
)

var positionPattern = regexp.MustCompile(`(?i)position in queue:\s*(\d+)`)

// DefaultFinishMarkers are the phrases that confirm the queue was left for
// the destination server.
var DefaultFinishMarkers = []string{"connected to the server"}

// ParsePosition extracts the queue position from flattened text.
func ParsePosition(text string) (int, bool) {
	m := positionPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	p, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return p, true
}

// Signal is what one payload says about the queue.
type Signal struct {
	Text        string
	Position    int
	HasPosition bool
	Finished    bool
}

// Scanner flattens payloads and matches them against the signal contract.
type Scanner struct {
	markers []string
}

// NewScanner creates a Scanner for the given finish markers. Empty markers
// are ignored; with none left, DefaultFinishMarkers apply.
func NewScanner(markers []string) *Scanner {
	s := &Scanner{}
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			s.markers = append(s.markers, m)
		}
	}
	if len(s.markers) == 0 {
		s.markers = append(s.markers, DefaultFinishMarkers...)
	}
	return s
}

// IsFinish reports whether text contains a finish marker.
func (s *Scanner) IsFinish(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range s.markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// ScanText classifies already-flattened text.
func (s *Scanner) ScanText(text string) Signal {
	sig := Signal{Text: text}
	sig.Position, sig.HasPosition = ParsePosition(text)
	sig.Finished = s.IsFinish(text)
	return sig
}

// Scan flattens raw payload bytes and classifies the result.
func (s *Scanner) Scan(raw []byte) Signal {
	return s.ScanText(Flatten(raw))
}
