// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package history

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/queuewatch/internal/models"
)

// documentVersion is the current on-disk format version.
const documentVersion = 1

// document is the persisted snapshot format.
type document struct {
	Version  int                       `json:"version"`
	Sessions []models.CompletedSession `json:"sessions"`
}

func encodeDocument(sessions []models.CompletedSession) ([]byte, error) {
	if sessions == nil {
		sessions = []models.CompletedSession{}
	}
	data, err := json.MarshalIndent(document{Version: documentVersion, Sessions: sessions}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session history: %w", err)
	}
	return data, nil
}

// decodeDocument accepts the versioned document and a bare session array.
func decodeDocument(data []byte) ([]models.CompletedSession, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var sessions []models.CompletedSession
		if err := json.Unmarshal(data, &sessions); err != nil {
			return nil, fmt.Errorf("decode session history: %w", err)
		}
		return sessions, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode session history: %w", err)
	}
	if doc.Version > documentVersion {
		return nil, fmt.Errorf("decode session history: unsupported version %d", doc.Version)
	}
	return doc.Sessions, nil
}
