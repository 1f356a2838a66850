// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Queue Metrics
	QueuePosition = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queuewatch_queue_position",
			Help: "Last observed queue position (-1 when not queueing)",
		},
	)

	QueueETAMinutes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queuewatch_queue_eta_minutes",
			Help: "Current blended ETA in minutes",
		},
	)

	QueuePositionUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queuewatch_queue_position_updates_total",
			Help: "Total number of distinct queue position changes observed",
		},
	)

	ParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queuewatch_parse_failures_total",
			Help: "Total number of status payloads without a recognizable queue position",
		},
	)

	// Lifecycle Metrics
	LifecycleState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queuewatch_lifecycle_state",
			Help: "Current lifecycle state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_lifecycle_transitions_total",
			Help: "Total number of lifecycle state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	Reconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queuewatch_reconnects_total",
			Help: "Total number of scheduled reconnect attempts",
		},
	)

	Relogs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queuewatch_relogs_total",
			Help: "Total number of deliberate disconnect-and-requeue actions",
		},
	)

	// Session Metrics
	SessionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_sessions_recorded_total",
			Help: "Total number of queue sessions persisted to history",
		},
		[]string{"outcome"}, // finished, partial
	)

	SessionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_sessions_rejected_total",
			Help: "Total number of queue sessions discarded before persistence",
		},
		[]string{"reason"}, // too_short, rate_out_of_range, no_progress
	)

	HistorySessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queuewatch_history_sessions",
			Help: "Number of sessions currently held in the session history",
		},
	)

	HistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_history_writes_total",
			Help: "Total number of session history snapshot writes",
		},
		[]string{"backend", "result"}, // result: success, error
	)

	HistoryWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queuewatch_history_write_duration_seconds",
			Help:    "Duration of session history snapshot writes",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"backend"},
	)

	// Idle Prevention Metrics
	IdleActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queuewatch_idle_prevention_active",
			Help: "Whether the idle-prevention scheduler is running (1) or not (0)",
		},
	)

	IdleActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_idle_actions_total",
			Help: "Total number of idle-prevention actions issued",
		},
		[]string{"action"}, // move, steer, look, jump, swing, sneak
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_events_published_total",
			Help: "Total number of lifecycle events published",
		},
		[]string{"type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_events_dropped_total",
			Help: "Total number of events dropped because a subscriber queue was full",
		},
		[]string{"subscriber"},
	)

	NATSForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_nats_forwarded_total",
			Help: "Total number of events forwarded to NATS",
		},
		[]string{"result"},
	)

	// Transport Metrics
	TransportFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_transport_frames_total",
			Help: "Total number of relay frames by direction and type",
		},
		[]string{"direction", "type"},
	)

	TransportDials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_transport_dials_total",
			Help: "Total number of relay dial attempts",
		},
		[]string{"result"}, // success, failure, rejected
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Notification Metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queuewatch_notifications_total",
			Help: "Total number of near-front notifications by notifier and result",
		},
		[]string{"notifier", "result"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active dashboard WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetLifecycleState marks state as the single active lifecycle state.
func SetLifecycleState(states []string, current string) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		LifecycleState.WithLabelValues(s).Set(v)
	}
}

// RecordTransition counts a lifecycle transition.
func RecordTransition(from, to string) {
	LifecycleTransitions.WithLabelValues(from, to).Inc()
}

// RecordQueuePosition publishes the latest position and ETA. A negative
// position clears both gauges.
func RecordQueuePosition(position, etaMinutes int) {
	if position < 0 {
		QueuePosition.Set(-1)
		QueueETAMinutes.Set(0)
		return
	}
	QueuePosition.Set(float64(position))
	QueueETAMinutes.Set(float64(etaMinutes))
}

// RecordHistoryWrite records one snapshot write.
func RecordHistoryWrite(backend string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	HistoryWrites.WithLabelValues(backend, result).Inc()
	HistoryWriteDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordSessionRejected counts a session discarded before persistence.
func RecordSessionRejected(reason string) {
	SessionsRejected.WithLabelValues(reason).Inc()
}

// RecordSessionRecorded counts a persisted session.
func RecordSessionRecorded(partial bool) {
	outcome := "finished"
	if partial {
		outcome = "partial"
	}
	SessionsRecorded.WithLabelValues(outcome).Inc()
}

// RecordIdleAction counts an idle-prevention action.
func RecordIdleAction(action string) {
	IdleActions.WithLabelValues(action).Inc()
}

// SetIdleActive reports whether the idle-prevention scheduler runs.
func SetIdleActive(active bool) {
	if active {
		IdleActive.Set(1)
	} else {
		IdleActive.Set(0)
	}
}

// RecordNotification counts a notifier delivery attempt.
func RecordNotification(notifier string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	NotificationsSent.WithLabelValues(notifier, result).Inc()
}

// RecordTransportFrame counts a relay frame.
func RecordTransportFrame(direction, frameType string) {
	TransportFrames.WithLabelValues(direction, frameType).Inc()
}
