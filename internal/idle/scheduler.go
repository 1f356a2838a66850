// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package idle

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/queuewatch/internal/clock"
	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/metrics"
)

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("idle: scheduler already running")

// Config tunes the scheduler.
type Config struct {
	// Unit is the base interval every task multiplier scales.
	Unit time.Duration

	// JitterFraction adds up to this fraction of each task's interval.
	JitterFraction float64

	// MaxDrift is the horizontal radius allowed around the origin.
	MaxDrift float64

	// MoveHold is the longest a movement control is held.
	MoveHold time.Duration
}

// DefaultConfig returns the default scheduler tuning.
func DefaultConfig() Config {
	return Config{
		Unit:           15 * time.Second,
		JitterFraction: 0.5,
		MaxDrift:       2,
		MoveHold:       800 * time.Millisecond,
	}
}

// Random is the randomness source. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

type task struct {
	name       string
	multiplier float64
	run        func(s *Scheduler, gen uint64)
}

var tasks = []task{
	{name: "look", multiplier: 1, run: (*Scheduler).look},
	{name: "move", multiplier: 2, run: (*Scheduler).move},
	{name: "jump", multiplier: 3, run: (*Scheduler).jump},
	{name: "swing", multiplier: 4, run: (*Scheduler).swing},
	{name: "sneak", multiplier: 6, run: (*Scheduler).sneak},
}

// Scheduler runs the idle-prevention tasks.
type Scheduler struct {
	ctrl   Controller
	clk    clock.Clock
	cfg    Config
	logger zerolog.Logger

	mu       sync.Mutex
	rnd      Random
	running  bool
	gen      uint64
	origin   Vec3
	haveOrig bool
	sneaking bool
	timers   map[string]clock.Timer
}

// New creates a stopped scheduler. rnd may be nil.
func New(ctrl Controller, clk clock.Clock, cfg Config, rnd Random) *Scheduler {
	def := DefaultConfig()
	if cfg.Unit <= 0 {
		cfg.Unit = def.Unit
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	if cfg.MaxDrift <= 0 {
		cfg.MaxDrift = def.MaxDrift
	}
	if cfg.MoveHold <= 0 {
		cfg.MoveHold = def.MoveHold
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(clk.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	return &Scheduler{
		ctrl:   ctrl,
		clk:    clk,
		cfg:    cfg,
		rnd:    rnd,
		logger: logging.WithComponent("idle"),
		timers: make(map[string]clock.Timer),
	}
}

// Start records the origin and schedules every task.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	s.running = true
	s.gen++
	s.origin, s.haveOrig = s.ctrl.Position()
	s.sneaking = false
	for i := range tasks {
		s.scheduleLocked(&tasks[i], s.gen)
	}
	metrics.SetIdleActive(true)

	ev := s.logger.Info()
	if s.haveOrig {
		ev = ev.Float64("origin_x", s.origin.X).Float64("origin_z", s.origin.Z)
	}
	ev.Msg("Idle prevention started")
	return nil
}

// Stop cancels every task and releases all controls. Safe to call at any
// time, including on a stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasRunning := s.running
	s.running = false
	s.gen++
	for name, t := range s.timers {
		t.Stop()
		delete(s.timers, name)
	}
	for _, c := range AllControls {
		s.release(c)
	}
	s.sneaking = false
	metrics.SetIdleActive(false)

	if wasRunning {
		s.logger.Info().Msg("Idle prevention stopped")
	}
}

// Running reports whether the scheduler is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Origin returns the position recorded at Start, or at the first task run
// that knew the position.
func (s *Scheduler) Origin() (Vec3, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin, s.haveOrig
}

// delayLocked returns Unit × multiplier plus jitter.
func (s *Scheduler) delayLocked(multiplier float64) time.Duration {
	base := float64(s.cfg.Unit) * multiplier
	return time.Duration(base + base*s.cfg.JitterFraction*s.rnd.Float64())
}

func (s *Scheduler) scheduleLocked(t *task, gen uint64) {
	s.afterLocked(t.name, s.delayLocked(t.multiplier), gen, func() {
		t.run(s, gen)
		s.mu.Lock()
		if s.running && s.gen == gen {
			s.scheduleLocked(t, gen)
		}
		s.mu.Unlock()
	})
}

// afterLocked registers a timer under key. The callback is skipped when the
// scheduler was stopped or restarted since.
func (s *Scheduler) afterLocked(key string, d time.Duration, gen uint64, f func()) {
	if old, ok := s.timers[key]; ok {
		old.Stop()
	}
	s.timers[key] = s.clk.AfterFunc(d, func() {
		s.mu.Lock()
		if !s.running || s.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.recordOriginLocked()
		s.mu.Unlock()
		f()
	})
}

// activeLocked reports whether a task from generation gen may still act.
func (s *Scheduler) activeLocked(gen uint64) bool {
	return s.running && s.gen == gen
}

func (s *Scheduler) look(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(gen) {
		return
	}
	yaw := s.rnd.Float64()*360 - 180
	pitch := s.rnd.Float64()*60 - 30
	s.act("look", s.ctrl.Look(yaw, pitch))
}

func (s *Scheduler) jump(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(gen) {
		return
	}
	if err := s.ctrl.SetControl(ControlJump, true); err != nil {
		s.act("jump", err)
		return
	}
	s.act("jump", nil)
	s.afterLocked("jump-release", 250*time.Millisecond, gen, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.release(ControlJump)
	})
}

func (s *Scheduler) swing(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(gen) {
		return
	}
	s.act("swing", s.ctrl.Swing())
}

func (s *Scheduler) sneak(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(gen) {
		return
	}
	s.sneaking = !s.sneaking
	s.act("sneak", s.ctrl.SetControl(ControlSneak, s.sneaking))
}

// move steers back when outside the envelope, otherwise holds a random
// movement control and re-checks drift once it is released.
func (s *Scheduler) move(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(gen) {
		return
	}
	if s.driftedLocked() {
		s.steerBackLocked(gen)
		return
	}

	control := movementControls[s.rnd.IntN(len(movementControls))]
	hold := s.cfg.MoveHold/2 + time.Duration(s.rnd.Float64()*float64(s.cfg.MoveHold/2))
	if err := s.ctrl.SetControl(control, true); err != nil {
		s.act("move", err)
		return
	}
	s.act("move", nil)
	s.afterLocked("move-release", hold, gen, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.release(control)
		if s.activeLocked(gen) && s.driftedLocked() {
			s.steerBackLocked(gen)
		}
	})
}

// recordOriginLocked takes the first known position as the origin when none
// was available at Start.
func (s *Scheduler) recordOriginLocked() {
	if s.haveOrig {
		return
	}
	if pos, ok := s.ctrl.Position(); ok {
		s.origin, s.haveOrig = pos, true
		s.logger.Info().Float64("origin_x", pos.X).Float64("origin_z", pos.Z).Msg("Idle origin recorded")
	}
}

func (s *Scheduler) driftedLocked() bool {
	if !s.haveOrig {
		s.recordOriginLocked()
		return false
	}
	pos, ok := s.ctrl.Position()
	if !ok {
		return false
	}
	return pos.HorizontalDistance(s.origin) > s.cfg.MaxDrift
}

// steerBackLocked faces the origin and walks forward for one hold period.
func (s *Scheduler) steerBackLocked(gen uint64) {
	pos, ok := s.ctrl.Position()
	if !ok {
		return
	}
	for _, c := range movementControls {
		s.release(c)
	}
	if err := s.ctrl.Look(pos.YawToward(s.origin), 0); err != nil {
		s.act("steer", err)
		return
	}
	if err := s.ctrl.SetControl(ControlForward, true); err != nil {
		s.act("steer", err)
		return
	}
	s.act("steer", nil)
	s.logger.Debug().
		Float64("distance", pos.HorizontalDistance(s.origin)).
		Msg("Drifted from origin, steering back")
	s.afterLocked("move-release", s.cfg.MoveHold, gen, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.release(ControlForward)
	})
}

func (s *Scheduler) act(action string, err error) {
	if err != nil {
		s.logger.Debug().Err(err).Str("action", action).Msg("Idle action failed")
		return
	}
	metrics.RecordIdleAction(action)
}

func (s *Scheduler) release(c Control) {
	if err := s.ctrl.SetControl(c, false); err != nil {
		s.logger.Debug().Err(err).Str("control", string(c)).Msg("Control release failed")
	}
}
