// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/queuewatch/internal/breaker"
	"github.com/tomtom215/queuewatch/internal/metrics"
)

// ErrForwarderClosed is returned by Forward after Close.
var ErrForwarderClosed = errors.New("events: forwarder closed")

// ForwarderConfig configures the NATS forwarder.
type ForwarderConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration

	// Buffer is the bus subscription queue length.
	Buffer int

	Breaker breaker.Settings
}

// DefaultForwarderConfig returns defaults for a local NATS server.
func DefaultForwarderConfig() ForwarderConfig {
	return ForwarderConfig{
		URL:           natsgo.DefaultURL,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Buffer:        256,
		Breaker:       breaker.DefaultSettings("nats-forwarder"),
	}
}

// Forwarder republishes bus events on NATS core subjects.
type Forwarder struct {
	publisher message.Publisher
	breaker   *breaker.Breaker[struct{}]
	logger    watermill.LoggerAdapter
	buffer    int

	mu     sync.RWMutex
	closed bool
}

// NewForwarder connects a Watermill NATS publisher. The connection retries
// in the background, so an unreachable broker is not an error here.
func NewForwarder(cfg ForwarderConfig, logger watermill.LoggerAdapter) (*Forwarder, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}
	if cfg.URL == "" {
		return nil, errors.New("events: NATS URL is required")
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = breaker.DefaultSettings("nats-forwarder")
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("queuewatch"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return newForwarder(pub, breaker.New[struct{}](cfg.Breaker), logger, cfg.Buffer), nil
}

func newForwarder(pub message.Publisher, b *breaker.Breaker[struct{}], logger watermill.LoggerAdapter, buffer int) *Forwarder {
	return &Forwarder{
		publisher: pub,
		breaker:   b,
		logger:    logger,
		buffer:    buffer,
	}
}

// Forward publishes one event.
func (f *Forwarder) Forward(ev Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return ErrForwarderClosed
	}

	data, err := json.Marshal(ev)
	if err != nil {
		metrics.NATSForwarded.WithLabelValues("error").Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(ev.ID, data)
	msg.Metadata.Set("event_type", string(ev.Type))

	_, err = f.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, f.publisher.Publish(ev.Subject(), msg)
	})
	switch {
	case err == nil:
		metrics.NATSForwarded.WithLabelValues("success").Inc()
	case breaker.IsRejected(err):
		metrics.NATSForwarded.WithLabelValues("rejected").Inc()
		return fmt.Errorf("publish %s: %w", ev.Subject(), err)
	default:
		metrics.NATSForwarded.WithLabelValues("error").Inc()
		return fmt.Errorf("publish %s: %w", ev.Subject(), err)
	}
	return nil
}

// Run forwards bus events until ctx is done.
func (f *Forwarder) Run(ctx context.Context, bus *Bus) error {
	unsubscribe := bus.Subscribe("nats", f.buffer, func(ev Event) {
		if err := f.Forward(ev); err != nil {
			f.logger.Debug("Event not forwarded", watermill.LogFields{
				"event_type": string(ev.Type),
				"error":      err.Error(),
			})
		}
	})
	<-ctx.Done()
	unsubscribe()
	return ctx.Err()
}

// Close releases the NATS connection.
func (f *Forwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.publisher.Close()
}
