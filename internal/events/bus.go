// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package events

import (
	"sync"

	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/metrics"
)

// DefaultBuffer is the per-subscriber queue length used when Subscribe is
// given a non-positive buffer.
const DefaultBuffer = 64

// Handler receives events on the subscriber's goroutine.
type Handler func(Event)

// Publisher is the publishing side of the bus.
type Publisher interface {
	Publish(ev Event)
}

type subscription struct {
	name  string
	ch    chan Event
	types map[Type]struct{}
	done  chan struct{}
}

func (s *subscription) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Bus is an in-process, non-blocking event fan-out.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler under name. With no types the subscriber
// receives every event. The returned function unsubscribes and waits for
// the subscriber goroutine to drain.
func (b *Bus) Subscribe(name string, buffer int, handler Handler, types ...Type) func() {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &subscription{
		name: name,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	if len(types) > 0 {
		sub.types = make(map[Type]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.done)
		return func() {}
	}
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go b.run(sub, handler)

	var once sync.Once
	return func() {
		once.Do(func() {
			if b.remove(sub) {
				close(sub.ch)
			}
			<-sub.done
		})
	}
}

func (b *Bus) run(sub *subscription, handler Handler) {
	defer close(sub.done)
	for ev := range sub.ch {
		deliver(sub.name, handler, ev)
	}
}

func deliver(name string, handler Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("subscriber", name).
				Str("event_type", string(ev.Type)).
				Interface("panic", r).
				Msg("Event subscriber panicked")
		}
	}()
	handler(ev)
}

func (b *Bus) remove(sub *subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish queues ev for every interested subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
	for _, sub := range b.subs {
		if !sub.wants(ev.Type) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			metrics.EventsDropped.WithLabelValues(sub.name).Inc()
			logging.Debug().
				Str("subscriber", sub.name).
				Str("event_type", string(ev.Type)).
				Msg("Event dropped, subscriber queue full")
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops delivery and waits for every subscriber to drain its queue.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	for _, sub := range subs {
		close(sub.ch)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		<-sub.done
	}
}
