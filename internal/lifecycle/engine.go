// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/queuewatch/internal/clock"
	"github.com/tomtom215/queuewatch/internal/eta"
	"github.com/tomtom215/queuewatch/internal/events"
	"github.com/tomtom215/queuewatch/internal/idle"
	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/metrics"
	"github.com/tomtom215/queuewatch/internal/models"
	"github.com/tomtom215/queuewatch/internal/notify"
	"github.com/tomtom215/queuewatch/internal/textextract"
	"github.com/tomtom215/queuewatch/internal/transport"
)

// ErrAlreadyRunning is returned by Start while a run is in progress.
var ErrAlreadyRunning = errors.New("lifecycle: already running")

// IdleScheduler is the idle-prevention scheduler as the engine sees it.
type IdleScheduler interface {
	Start() error
	Stop()
	Running() bool
}

// IdleFactory builds a scheduler bound to a live connection.
type IdleFactory func(ctrl idle.Controller) IdleScheduler

// Notifier delivers threshold notifications.
type Notifier interface {
	Send(ctx context.Context, n *notify.Notification) error
	Enabled() bool
}

// Deps are the engine's collaborators. Dialer and Estimator are required;
// the rest may be left zero.
type Deps struct {
	Clock     clock.Clock
	Dialer    transport.Dialer
	Estimator *eta.Estimator
	Decay     eta.DecayModel
	Events    events.Publisher
	Notifier  Notifier
	NewIdle   IdleFactory
}

// Engine is the connection lifecycle state machine.
type Engine struct {
	cfg      Config
	clk      clock.Clock
	dialer   transport.Dialer
	est      *eta.Estimator
	decay    eta.DecayModel
	pub      events.Publisher
	notifier Notifier
	newIdle  IdleFactory
	scanner  *textextract.Scanner
	logger   zerolog.Logger

	mu    sync.Mutex
	state models.LifecycleState
	gen   uint64
	conn  transport.Conn

	dialCancel     context.CancelFunc
	reconnectTimer clock.Timer
	statusTimer    clock.Timer

	autoRestart      bool
	idlePrevention   bool
	consumerAttached bool
	idleSched        IdleScheduler

	position   *int
	etaMinutes int
	etaString  string
	finishTime *time.Time

	relogDone          bool
	notified           bool
	parseFailureLogged bool

	runID      string
	runStarted time.Time
	reconnects int
	history    []models.QueueHistoryPoint
	updatedAt  time.Time
}

type noopPublisher struct{}

func (noopPublisher) Publish(events.Event) {}

// New creates an idle engine.
func New(cfg Config, deps Deps) *Engine {
	cfg.applyDefaults()

	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	pub := deps.Events
	if pub == nil {
		pub = noopPublisher{}
	}
	decay := deps.Decay
	if decay.Offset <= 0 || decay.RatePerMinute <= 0 {
		decay = eta.DefaultDecayModel
	}
	newIdle := deps.NewIdle
	if newIdle == nil {
		newIdle = func(ctrl idle.Controller) IdleScheduler {
			return idle.New(ctrl, clk, idle.DefaultConfig(), nil)
		}
	}

	e := &Engine{
		cfg:            cfg,
		clk:            clk,
		dialer:         deps.Dialer,
		est:            deps.Estimator,
		decay:          decay,
		pub:            pub,
		notifier:       deps.Notifier,
		newIdle:        newIdle,
		scanner:        textextract.NewScanner(cfg.FinishMarkers),
		logger:         logging.WithComponent("lifecycle"),
		state:          models.StateIdle,
		autoRestart:    cfg.AutoRestart,
		idlePrevention: cfg.IdlePrevention,
		updatedAt:      clk.Now(),
	}
	metrics.SetLifecycleState(stateLabels(), string(models.StateIdle))
	metrics.RecordQueuePosition(-1, 0)
	return e
}

func stateLabels() []string {
	labels := make([]string, len(models.AllStates))
	for i, s := range models.AllStates {
		labels[i] = string(s)
	}
	return labels
}

// Start begins a run from idle or stopped.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != models.StateIdle && e.state != models.StateStopped {
		return fmt.Errorf("%w: state %s", ErrAlreadyRunning, e.state)
	}

	e.runID = logging.GenerateRunID()
	e.runStarted = e.clk.Now()
	e.reconnects = 0
	e.history = nil
	e.logger = logging.WithComponent("lifecycle").With().Str("run_id", e.runID).Logger()
	e.logLocked(models.LogLevelInfo, "Starting queue run")
	e.beginDialLocked()
	return nil
}

// Stop cancels every timer and the idle scheduler, saves any progress,
// releases the connection and returns to idle. Disconnect notifications for
// the released connection are ignored.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == models.StateIdle {
		return
	}

	e.cancelTimersLocked()
	e.stopIdleLocked()
	if e.dialCancel != nil {
		e.dialCancel()
		e.dialCancel = nil
	}

	e.gen++
	conn := e.conn
	e.conn = nil
	e.closeSessionLocked()
	if conn != nil {
		if err := conn.Close(); err != nil {
			e.logger.Debug().Err(err).Msg("Connection close failed")
		}
	}

	e.runStarted = time.Time{}
	e.logLocked(models.LogLevelInfo, "Stopped by operator")
	e.setStateLocked(models.StateIdle)
}

// ToggleAutoRestart flips auto-restart and returns the new value.
func (e *Engine) ToggleAutoRestart() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.autoRestart = !e.autoRestart
	e.logLocked(models.LogLevelInfo, fmt.Sprintf("Auto-restart %s", onOff(e.autoRestart)))
	e.publishSnapshotLocked()
	return e.autoRestart
}

// ToggleIdlePrevention flips idle prevention and returns the new value.
func (e *Engine) ToggleIdlePrevention() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.idlePrevention = !e.idlePrevention
	if e.idlePrevention {
		e.maybeStartIdleLocked()
	} else {
		e.stopIdleLocked()
	}
	e.logLocked(models.LogLevelInfo, fmt.Sprintf("Idle prevention %s", onOff(e.idlePrevention)))
	e.publishSnapshotLocked()
	return e.idlePrevention
}

// SetConsumerAttached records whether an operator took over the session.
// The idle scheduler never runs while one is attached.
func (e *Engine) SetConsumerAttached(attached bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setConsumerLocked(attached)
}

func (e *Engine) setConsumerLocked(attached bool) {
	if e.consumerAttached == attached {
		return
	}
	e.consumerAttached = attached
	if attached {
		e.stopIdleLocked()
		e.logLocked(models.LogLevelInfo, "Consumer attached")
	} else {
		e.logLocked(models.LogLevelInfo, "Consumer detached")
		e.maybeStartIdleLocked()
	}
	e.publishSnapshotLocked()
}

// State returns the current lifecycle state.
func (e *Engine) State() models.LifecycleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns the observable state.
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// History returns the queue position chart series, oldest first.
func (e *Engine) History() []models.QueueHistoryPoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.QueueHistoryPoint(nil), e.history...)
}

func (e *Engine) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		State:            e.state,
		ETA:              e.etaString,
		ETAMinutes:       e.etaMinutes,
		IdleActive:       e.idleSched != nil && e.idleSched.Running(),
		AutoRestart:      e.autoRestart,
		IdlePrevention:   e.idlePrevention,
		ConsumerAttached: e.consumerAttached,
		Reconnects:       e.reconnects,
		UpdatedAt:        e.updatedAt,
	}
	if e.position != nil {
		p := *e.position
		snap.Position = &p
	}
	if e.finishTime != nil {
		ft := *e.finishTime
		snap.FinishTime = &ft
	}
	if start, _, ok := e.est.SessionStart(); ok {
		snap.SessionStart = &start
	}
	if !e.runStarted.IsZero() {
		rs := e.runStarted
		snap.RunStarted = &rs
	}
	return snap
}

// beginDialLocked starts a new connection generation.
func (e *Engine) beginDialLocked() {
	e.gen++
	gen := e.gen
	e.parseFailureLogged = false
	e.setStateLocked(models.StateAuthenticating)

	ctx, cancel := context.WithTimeout(logging.ContextWithRunID(context.Background(), e.runID), e.cfg.DialTimeout)
	e.dialCancel = cancel
	listener := e.listener(gen)

	go func() {
		conn, err := e.dialer.Dial(ctx, listener)
		e.onDialResult(gen, conn, err)
	}()
}

func (e *Engine) listener(gen uint64) transport.Listener {
	return transport.Listener{
		OnStatus:     func(p []byte) { e.onStatus(gen, p) },
		OnChat:       func(p []byte) { e.onChat(gen, p) },
		OnConsumer:   func(attached bool) { e.onConsumer(gen, attached) },
		OnDisconnect: func(err error) { e.onDisconnect(gen, err) },
	}
}

func (e *Engine) onDialResult(gen uint64, conn transport.Conn, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen || e.state != models.StateAuthenticating {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if e.dialCancel != nil {
		e.dialCancel()
		e.dialCancel = nil
	}

	if err != nil {
		e.logger.Warn().Err(err).Msg("Connection attempt failed")
		e.logLocked(models.LogLevelError, "Connection failed: "+err.Error())
		e.afterConnectionLostLocked()
		return
	}

	e.conn = conn
	e.logLocked(models.LogLevelInfo, "Logged in, waiting in queue")
	e.setStateLocked(models.StateQueueing)
	e.scheduleStatusLocked(gen)
	conn.Start()
}

func (e *Engine) onStatus(gen uint64, payload []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.liveLocked(gen) {
		return
	}

	sig := e.scanner.Scan(payload)
	if sig.Finished {
		e.finishLocked()
		return
	}
	if e.state != models.StateQueueing {
		return
	}
	if !sig.HasPosition {
		metrics.ParseFailures.Inc()
		if !e.parseFailureLogged {
			e.parseFailureLogged = true
			e.logger.Debug().Str("text", sig.Text).Msg("Status payload without a queue position")
		}
		return
	}
	e.handlePositionLocked(sig.Position)
}

func (e *Engine) onChat(gen uint64, payload []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.liveLocked(gen) {
		return
	}
	if e.scanner.IsFinish(textextract.Flatten(payload)) {
		e.finishLocked()
	}
}

func (e *Engine) onConsumer(gen uint64, attached bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.liveLocked(gen) {
		return
	}
	e.setConsumerLocked(attached)
}

// onDisconnect handles both error and close notifications; only the first
// one for the current connection does anything.
func (e *Engine) onDisconnect(gen uint64, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.liveLocked(gen) {
		return
	}

	conn := e.conn
	e.conn = nil
	e.cancelStatusLocked()
	e.stopIdleLocked()
	e.closeSessionLocked()
	_ = conn.Close()

	if cause != nil {
		e.logLocked(models.LogLevelWarn, "Disconnected: "+cause.Error())
	} else {
		e.logLocked(models.LogLevelWarn, "Disconnected")
	}
	e.afterConnectionLostLocked()
}

func (e *Engine) liveLocked(gen uint64) bool {
	return gen == e.gen && e.conn != nil
}

// afterConnectionLostLocked picks reconnecting or idle.
func (e *Engine) afterConnectionLostLocked() {
	if e.autoRestart {
		e.scheduleReconnectLocked(e.cfg.ReconnectDelay)
		return
	}
	e.runStarted = time.Time{}
	e.setStateLocked(models.StateIdle)
}

func (e *Engine) scheduleReconnectLocked(delay time.Duration) {
	gen := e.gen
	e.setStateLocked(models.StateReconnecting)
	if e.reconnectTimer != nil {
		e.reconnectTimer.Stop()
	}
	e.reconnectTimer = e.clk.AfterFunc(delay, func() { e.onReconnectTimer(gen) })
	e.logger.Info().Dur("delay", delay).Msg("Reconnect scheduled")
}

func (e *Engine) onReconnectTimer(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.state != models.StateReconnecting {
		return
	}
	e.reconnectTimer = nil

	if e.cfg.MaxRunDuration > 0 && e.clk.Now().Sub(e.runStarted) >= e.cfg.MaxRunDuration {
		e.logLocked(models.LogLevelInfo, "Run duration budget spent, stopping")
		e.setStateLocked(models.StateStopped)
		e.runStarted = time.Time{}
		e.pub.Publish(events.Stopped(e.clk.Now()))
		e.notifyLocked(notify.KindStopped, "Queuewatch stopped", "The run duration budget was spent.")
		return
	}

	e.reconnects++
	metrics.Reconnects.Inc()
	e.logLocked(models.LogLevelInfo, fmt.Sprintf("Reconnecting (attempt %d)", e.reconnects))
	e.beginDialLocked()
}

func (e *Engine) handlePositionLocked(position int) {
	now := e.clk.Now()
	if e.est.BeginSession(position) {
		e.relogDone = false
		e.notified = false
		e.parseFailureLogged = false
		e.logger.Info().Int("position", position).Msg("Queue session started")
	} else {
		e.est.RecordSample(position)
	}
	e.recordHistoryLocked(position, now)

	if e.position != nil && *e.position == position {
		return
	}

	minutes := e.est.EstimateMinutes(position, e.decay.BaseMinutes(position), now)
	finish := eta.FinishTime(now, minutes)
	p := position
	e.position = &p
	e.etaMinutes = minutes
	e.etaString = eta.FormatETA(minutes)
	e.finishTime = &finish
	e.updatedAt = now

	metrics.QueuePositionUpdates.Inc()
	metrics.RecordQueuePosition(position, minutes)
	e.logger.Debug().Int("position", position).Int("eta_minutes", minutes).Msg("Queue position changed")

	e.pub.Publish(events.QueueUpdate(models.QueueUpdate{
		Position:   position,
		ETA:        e.etaString,
		ETAMinutes: minutes,
		FinishTime: finish,
	}, now))
	e.publishSnapshotLocked()

	switch e.cfg.Variant {
	case VariantCollector:
		if e.cfg.RelogThreshold > 0 && position <= e.cfg.RelogThreshold && !e.relogDone {
			if _, start, ok := e.est.SessionStart(); ok && start <= e.cfg.RelogThreshold {
				// A relog would requeue at the same depth without saving anything.
				e.relogDone = true
				e.logLocked(models.LogLevelInfo, fmt.Sprintf(
					"Queue session started at position %d, inside the relog threshold %d; not requeueing",
					start, e.cfg.RelogThreshold))
				break
			}
			e.relogLocked(position)
		}
	case VariantInteractive:
		if e.cfg.NotifyThreshold > 0 && position <= e.cfg.NotifyThreshold && !e.notified {
			e.notified = true
			e.notifyLocked(notify.KindQueueThreshold, "Queue almost done",
				fmt.Sprintf("Position %d reached, about %s left.", position, e.etaString))
		}
	}
}

// relogLocked saves the partial session, drops the connection and requeues.
func (e *Engine) relogLocked(position int) {
	e.relogDone = true
	metrics.Relogs.Inc()
	e.logLocked(models.LogLevelInfo, fmt.Sprintf("Relog threshold reached at position %d, requeueing", position))

	e.cancelStatusLocked()
	e.gen++
	conn := e.conn
	e.conn = nil
	e.closeSessionLocked()
	if conn != nil {
		_ = conn.Close()
	}
	e.scheduleReconnectLocked(e.cfg.RelogDelay)
}

// finishLocked handles the finish marker. Only a queueing engine finishes.
func (e *Engine) finishLocked() {
	if e.state != models.StateQueueing {
		return
	}
	now := e.clk.Now()

	if _, err := e.est.CompleteSession(); err != nil && !errors.Is(err, eta.ErrNoSession) {
		e.logger.Debug().Err(err).Msg("Finished session not recorded")
	}
	// The notification carries the last position and ETA, so it goes out
	// before they are cleared.
	if e.cfg.Variant == VariantInteractive {
		e.notifyLocked(notify.KindQueueFinished, "Queue finished", "Connected to the server.")
	}
	e.cancelStatusLocked()
	e.clearPositionLocked()
	e.updatedAt = now

	e.logLocked(models.LogLevelInfo, "Connected to the server")
	e.setStateLocked(models.StateConnected)
	e.pub.Publish(events.QueueFinished(now))
	e.maybeStartIdleLocked()
}

// closeSessionLocked saves an in-progress session that made progress and
// clears the position.
func (e *Engine) closeSessionLocked() {
	if e.est.Active() {
		if e.position != nil {
			if _, err := e.est.SavePartial(*e.position); err != nil {
				e.logger.Debug().Err(err).Msg("Partial session not recorded")
			}
		} else {
			e.est.Discard()
		}
	}
	e.clearPositionLocked()
}

func (e *Engine) clearPositionLocked() {
	e.position = nil
	e.etaMinutes = 0
	e.etaString = ""
	e.finishTime = nil
	metrics.RecordQueuePosition(-1, 0)
}

func (e *Engine) recordHistoryLocked(position int, now time.Time) {
	if n := len(e.history); n > 0 && now.Sub(e.history[n-1].Timestamp) < e.cfg.HistoryInterval {
		return
	}
	e.history = append(e.history, models.QueueHistoryPoint{Timestamp: now, Position: position})
	if over := len(e.history) - HistoryCap; over > 0 {
		e.history = append(e.history[:0], e.history[over:]...)
	}
}

func (e *Engine) maybeStartIdleLocked() {
	if e.state != models.StateConnected || !e.idlePrevention || e.consumerAttached || e.conn == nil {
		return
	}
	if e.idleSched != nil && e.idleSched.Running() {
		return
	}
	e.idleSched = e.newIdle(e.conn)
	if err := e.idleSched.Start(); err != nil {
		e.logger.Warn().Err(err).Msg("Idle prevention failed to start")
	}
}

func (e *Engine) stopIdleLocked() {
	if e.idleSched == nil {
		return
	}
	e.idleSched.Stop()
	e.idleSched = nil
}

func (e *Engine) scheduleStatusLocked(gen uint64) {
	if e.cfg.StatusInterval <= 0 {
		return
	}
	e.statusTimer = e.clk.AfterFunc(e.cfg.StatusInterval, func() { e.onStatusTick(gen) })
}

func (e *Engine) onStatusTick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.liveLocked(gen) || e.state != models.StateQueueing {
		return
	}
	if e.position != nil {
		e.logLocked(models.LogLevelInfo, fmt.Sprintf("Position %d, ETA %s", *e.position, e.etaString))
	} else {
		e.logLocked(models.LogLevelInfo, "Waiting for queue position")
	}
	e.scheduleStatusLocked(gen)
}

func (e *Engine) cancelStatusLocked() {
	if e.statusTimer != nil {
		e.statusTimer.Stop()
		e.statusTimer = nil
	}
}

func (e *Engine) cancelTimersLocked() {
	if e.reconnectTimer != nil {
		e.reconnectTimer.Stop()
		e.reconnectTimer = nil
	}
	e.cancelStatusLocked()
}

// notifyLocked sends asynchronously so a slow endpoint never holds the engine.
func (e *Engine) notifyLocked(kind notify.Kind, title, message string) {
	if e.notifier == nil || !e.notifier.Enabled() {
		return
	}
	n := &notify.Notification{
		Kind:    kind,
		Title:   title,
		Message: message,
		ETA:     e.etaString,
		Time:    e.clk.Now(),
	}
	if e.position != nil {
		n.Position = *e.position
	}
	if e.finishTime != nil {
		n.FinishTime = *e.finishTime
	}
	notifier := e.notifier
	ctx := logging.ContextWithRunID(context.Background(), e.runID)
	go func() {
		_ = notifier.Send(ctx, n)
	}()
}

func (e *Engine) setStateLocked(s models.LifecycleState) {
	if s == e.state {
		return
	}
	from := e.state
	e.state = s
	e.updatedAt = e.clk.Now()

	metrics.RecordTransition(string(from), string(s))
	metrics.SetLifecycleState(stateLabels(), string(s))
	e.logger.Info().Str("from", string(from)).Str("to", string(s)).Msg("Lifecycle state changed")
	e.publishSnapshotLocked()
}

func (e *Engine) publishSnapshotLocked() {
	e.pub.Publish(events.StateChange(e.snapshotLocked(), e.clk.Now()))
}

// logLocked writes a log line and mirrors it as a log event.
func (e *Engine) logLocked(level, message string) {
	switch level {
	case models.LogLevelError:
		e.logger.Error().Msg(message)
	case models.LogLevelWarn:
		e.logger.Warn().Msg(message)
	default:
		e.logger.Info().Msg(message)
	}
	e.pub.Publish(events.Log(level, message, e.clk.Now()))
}

func onOff(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}
