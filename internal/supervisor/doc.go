// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package supervisor runs queuewatch's long-lived services under a suture v4
supervisor tree.

# Layers

	queuewatch
	├── data-layer
	│   └── HistoryService (flushes session history on shutdown)
	├── messaging-layer
	│   ├── WebSocketHubService
	│   ├── EmbeddedNATSService (nats.embedded_server)
	│   └── ForwarderService (nats.enabled)
	├── queue-layer
	│   └── LifecycleService
	└── api-layer
	    └── HTTPServerService (server.enabled)

Each layer is its own supervisor, so a service that keeps failing backs off
without taking the dashboard or the API down with it.

# Usage

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddQueueService(services.NewLifecycleService(engine, cfg.Queue.AutoStart))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Supervisor events (start, failure, backoff) are logged through sutureslog,
which writes to zerolog via logging.SlogHandler.
*/
package supervisor
