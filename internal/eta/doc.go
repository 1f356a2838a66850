// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package eta estimates the remaining queue wait.

An Estimator blends up to three candidate estimates:

 1. Base: the caller's static decay-model estimate (DecayModel), weight 0.5.
 2. Historical: the current position divided by a positions-per-hour rate
    learned from stored sessions, weight min(0.5, 0.04 × effective sessions).
 3. Live: the current position divided by the active session's own observed
    rate, weight min(0.4, 0.02 × samples), once at least 5 samples exist.

Weights are renormalized to sum to one and the weighted mean is floored at one
minute and rounded. Without historical or live evidence the result is exactly
the rounded base estimate.

# Historical Rate

Every stored session contributes with weight

	w = hour × dayType × recency

where hour is a Gaussian (σ = 4h) on the circular hour-of-day distance to now,
dayType is 1.0 when weekend/weekday matches now and 0.35 otherwise, and
recency is (n−i)/n for the i-th newest of n sessions. The rate is the weighted
mean of positions-per-hour, reported with the Kish effective sample size
(Σw)²/Σw², which is at most n and drives the historical weight.

# Live Rate

At least 5 samples spanning at least one minute are required. The rate is the
position drop between the oldest and newest sample of the 30-sample window per
elapsed hour; a window whose position did not drop has no live rate.

# Sessions

BeginSession, RecordSample and CompleteSession (or SavePartial on disconnect)
bracket one queue session. Sessions shorter than two minutes or with a rate
outside (0, 10000] positions per hour are discarded. Accepted sessions are
appended to the SessionStore.
*/
package eta
