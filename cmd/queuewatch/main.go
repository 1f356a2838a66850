// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

// Command queuewatch tracks a position in a remote admission queue and
// estimates the remaining wait.
//
// # Commands
//
//	queuewatch serve                   run the lifecycle engine, dashboard and API
//	queuewatch history [--limit N]     print stored sessions and the current rate
//	queuewatch estimate --position N   print the blended estimate for a position
//	queuewatch version
//
// # Configuration
//
// Configuration is loaded with koanf from built-in defaults, an optional YAML
// file (--config, CONFIG_PATH, or ./config.yaml) and environment variables,
// highest priority last. For example:
//
//	export RELAY_URL=ws://relay.local:25580/relay
//	export QUEUE_VARIANT=collector
//	export QUEUE_AUTO_START=true
//	export API_TOKEN=$(openssl rand -hex 32)
//	queuewatch serve
//
// # Signal Handling
//
// serve shuts down on SIGINT and SIGTERM: the lifecycle engine stops and
// saves any partial session, the API drains, and session history is flushed.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/queuewatch/internal/config"
	"github.com/tomtom215/queuewatch/internal/logging"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "queuewatch",
		Short:         "Queue position tracking and ETA estimation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: $CONFIG_PATH or ./config.yaml)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newHistoryCmd(&configPath))
	root.AddCommand(newEstimateCmd(&configPath))
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig loads configuration and initializes logging from it.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "queuewatch %s (%s)\n", version, commit)
			return err
		},
	}
}
