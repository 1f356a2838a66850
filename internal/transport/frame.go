// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package transport

import "github.com/goccy/go-json"

// Inbound frame types.
const (
	FrameLogin    = "login"
	FrameStatus   = "status"
	FrameChat     = "chat"
	FramePosition = "position"
	FrameConsumer = "consumer"
	FrameKick     = "kick"
)

// Outbound frame types.
const (
	FrameControl = "control"
	FrameLook    = "look"
	FrameSwing   = "swing"
)

// InboundFrame is a frame received from the relay.
type InboundFrame struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	X        float64         `json:"x,omitempty"`
	Y        float64         `json:"y,omitempty"`
	Z        float64         `json:"z,omitempty"`
	Attached bool            `json:"attached,omitempty"`
}

type controlFrame struct {
	Type    string `json:"type"`
	Control string `json:"control"`
	State   bool   `json:"state"`
}

type lookFrame struct {
	Type  string  `json:"type"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

type swingFrame struct {
	Type string `json:"type"`
}
