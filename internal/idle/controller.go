// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package idle

import "math"

// Control is a held input.
type Control string

const (
	ControlForward Control = "forward"
	ControlBack    Control = "back"
	ControlLeft    Control = "left"
	ControlRight   Control = "right"
	ControlJump    Control = "jump"
	ControlSneak   Control = "sneak"
)

// AllControls lists every control Stop releases.
var AllControls = []Control{ControlForward, ControlBack, ControlLeft, ControlRight, ControlJump, ControlSneak}

var movementControls = []Control{ControlForward, ControlBack, ControlLeft, ControlRight}

// Vec3 is a position in the remote world.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HorizontalDistance ignores height: jumping is not drift.
func (v Vec3) HorizontalDistance(o Vec3) float64 {
	return math.Hypot(v.X-o.X, v.Z-o.Z)
}

// YawToward returns the yaw in degrees that faces target from v, with 0
// facing +Z and 90 facing -X.
func (v Vec3) YawToward(target Vec3) float64 {
	dx := target.X - v.X
	dz := target.Z - v.Z
	return math.Atan2(-dx, dz) * 180 / math.Pi
}

// Controller issues actions on the live connection.
type Controller interface {
	SetControl(control Control, state bool) error
	Look(yaw, pitch float64) error
	Swing() error

	// Position reports the last known position; false until one is known.
	Position() (Vec3, bool)
}
