// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/queuewatch/internal/api"
	"github.com/tomtom215/queuewatch/internal/breaker"
	"github.com/tomtom215/queuewatch/internal/clock"
	"github.com/tomtom215/queuewatch/internal/config"
	"github.com/tomtom215/queuewatch/internal/eta"
	"github.com/tomtom215/queuewatch/internal/events"
	"github.com/tomtom215/queuewatch/internal/history"
	"github.com/tomtom215/queuewatch/internal/idle"
	"github.com/tomtom215/queuewatch/internal/lifecycle"
	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/notify"
	"github.com/tomtom215/queuewatch/internal/supervisor"
	"github.com/tomtom215/queuewatch/internal/supervisor/services"
	"github.com/tomtom215/queuewatch/internal/transport"
	ws "github.com/tomtom215/queuewatch/internal/websocket"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the queue lifecycle, dashboard hub and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

// app holds the wired components of a running instance.
type app struct {
	cfg       *config.Config
	store     *history.Store
	estimator *eta.Estimator
	decay     eta.DecayModel
	bus       *events.Bus
	engine    *lifecycle.Engine
	hub       *ws.Hub
	router    http.Handler

	closers []func() error
}

// newApp wires every component without starting any goroutine besides the
// history writer. Close releases what it opened.
func newApp(ctx context.Context, cfg *config.Config, dialer transport.Dialer, clk clock.Clock) (*app, error) {
	persister, err := history.OpenPersister(cfg.History.Backend, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open session history: %w", err)
	}
	store := history.NewStore(ctx, persister, history.Options{
		MaxSessions:  cfg.History.MaxSessions,
		WriteTimeout: cfg.History.WriteTimeout,
	})

	a := &app{
		cfg:       cfg,
		store:     store,
		estimator: eta.New(store, clk),
		decay:     eta.DecayModel{Offset: cfg.Estimator.DecayOffset, RatePerMinute: cfg.Estimator.DecayRate},
		bus:       events.NewBus(),
	}
	a.closers = append(a.closers, store.Close)

	a.engine = lifecycle.New(lifecycleConfig(cfg), lifecycle.Deps{
		Clock:     clk,
		Dialer:    dialer,
		Estimator: a.estimator,
		Decay:     a.decay,
		Events:    a.bus,
		Notifier:  newDispatcher(cfg.Notify),
		NewIdle:   idleFactory(cfg.Idle, clk),
	})

	a.hub = ws.NewHub()
	a.hub.SetSnapshotSource(a.engine.Snapshot)
	a.hub.Attach(a.bus)

	handler := api.NewHandler(api.Deps{
		Engine:      a.engine,
		Sessions:    store,
		Estimator:   a.estimator,
		Decay:       a.decay,
		Hub:         a.hub,
		CORSOrigins: cfg.Security.CORSOrigins,
		Version:     version,
		Now:         clk.Now,
	})
	chiMW := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security))
	a.router = api.NewRouter(handler, chiMW, cfg.Security.APIToken).SetupChi()

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	a.bus.Close()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("version", version).
		Str("variant", cfg.Queue.Variant).
		Str("relay_url", cfg.Transport.URL).
		Str("history_backend", cfg.History.Backend).
		Msg("Starting queuewatch")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin outside development; set CORS_ORIGINS to the dashboard origins")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("API rate limiting is disabled")
	}

	dialer := transport.NewWebSocketDialer(transport.Config{
		URL:              cfg.Transport.URL,
		Token:            cfg.Transport.Token,
		HandshakeTimeout: cfg.Transport.HandshakeTimeout,
		Breaker:          relayBreakerSettings(cfg.Transport),
	})

	a, err := newApp(ctx, cfg, dialer, clock.Real())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Shutdown cleanup failed")
		}
	}()

	return a.serve(ctx)
}

// serve runs the supervisor tree until ctx is done or the lifecycle reaches
// its terminal stopped state.
func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unsubscribe := a.bus.Subscribe("shutdown", 1, func(events.Event) {
		logging.Info().Msg("Lifecycle stopped, shutting down")
		cancel()
	}, events.TypeStopped)
	defer unsubscribe()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddDataService(services.NewHistoryService(a.store, cfg.History.WriteTimeout))
	tree.AddMessagingService(services.NewWebSocketHubService(a.hub))
	if err := a.addNATS(tree); err != nil {
		return err
	}
	tree.AddQueueService(services.NewLifecycleService(a.engine, cfg.Queue.AutoStart))

	if cfg.Server.Enabled {
		server := &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           a.router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Server.Timeout,
			IdleTimeout:       2 * cfg.Server.Timeout,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP API enabled")
	}

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	logging.Info().Msg("queuewatch stopped")
	return nil
}

// addNATS starts the embedded server and the forwarder when configured.
func (a *app) addNATS(tree *supervisor.SupervisorTree) error {
	cfg := a.cfg.NATS
	url := cfg.URL

	if cfg.EmbeddedServer {
		srv, err := events.NewEmbeddedServer(events.ServerConfig{
			Host: cfg.EmbeddedHost,
			Port: cfg.EmbeddedPort,
		})
		if err != nil {
			return fmt.Errorf("start embedded NATS: %w", err)
		}
		url = srv.ClientURL()
		a.closers = append(a.closers, func() error { return srv.Shutdown(context.Background()) })
		tree.AddMessagingService(services.NewEmbeddedNATSService(srv, a.cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	if !cfg.Enabled {
		return nil
	}

	fwd, err := events.NewForwarder(events.ForwarderConfig{
		URL:           url,
		MaxReconnects: cfg.MaxReconnects,
		ReconnectWait: cfg.ReconnectWait,
		Buffer:        cfg.Buffer,
		Breaker:       breaker.DefaultSettings("nats-forwarder"),
	}, events.NewWatermillLogger())
	if err != nil {
		return fmt.Errorf("create NATS forwarder: %w", err)
	}
	a.closers = append(a.closers, fwd.Close)
	tree.AddMessagingService(services.NewForwarderService(fwd, a.bus))
	logging.Info().Str("url", url).Msg("NATS event forwarding enabled")
	return nil
}

func lifecycleConfig(cfg *config.Config) lifecycle.Config {
	q := cfg.Queue
	return lifecycle.Config{
		Variant:         lifecycle.Variant(q.Variant),
		AutoRestart:     q.AutoRestart,
		IdlePrevention:  cfg.Idle.Enabled,
		ReconnectDelay:  q.ReconnectDelay,
		RelogDelay:      q.RelogDelay,
		MaxRunDuration:  q.MaxRunDuration,
		DialTimeout:     q.DialTimeout,
		RelogThreshold:  q.RelogThreshold,
		NotifyThreshold: q.NotifyThreshold,
		StatusInterval:  q.StatusInterval,
		HistoryInterval: q.HistoryInterval,
		FinishMarkers:   q.FinishMarkers,
	}
}

func relayBreakerSettings(cfg config.TransportConfig) breaker.Settings {
	s := breaker.DefaultSettings("relay")
	s.FailureThreshold = cfg.BreakerFailures
	s.Timeout = cfg.BreakerTimeout
	return s
}

func idleFactory(cfg config.IdleConfig, clk clock.Clock) lifecycle.IdleFactory {
	idleCfg := idle.Config{
		Unit:           cfg.Unit,
		JitterFraction: cfg.JitterFraction,
		MaxDrift:       cfg.MaxDrift,
		MoveHold:       cfg.MoveHold,
	}
	return func(ctrl idle.Controller) lifecycle.IdleScheduler {
		return idle.New(ctrl, clk, idleCfg, nil)
	}
}

// newDispatcher returns a dispatcher over the enabled notifiers. With none
// enabled it reports Enabled() == false and the engine only logs.
func newDispatcher(cfg config.NotifyConfig) *notify.Dispatcher {
	var notifiers []notify.Notifier
	if cfg.WebhookEnabled {
		notifiers = append(notifiers, notify.NewWebhookNotifier(notify.WebhookConfig{
			WebhookURL:  cfg.WebhookURL,
			Headers:     cfg.WebhookHeaders,
			Enabled:     true,
			RateLimitMs: cfg.WebhookRateLimitMs,
		}))
	}
	if cfg.DiscordEnabled {
		notifiers = append(notifiers, notify.NewDiscordNotifier(notify.DiscordConfig{
			WebhookURL:  cfg.DiscordWebhookURL,
			Enabled:     true,
			RateLimitMs: cfg.DiscordRateLimitMs,
		}))
	}
	return notify.NewDispatcher(cfg.Timeout, notifiers...)
}
