// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/queuewatch/internal/clock"
	"github.com/tomtom215/queuewatch/internal/config"
	"github.com/tomtom215/queuewatch/internal/eta"
	"github.com/tomtom215/queuewatch/internal/history"
	"github.com/tomtom215/queuewatch/internal/logging"
)

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print stored queue sessions and the current historical rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			now := time.Now()
			return printHistory(cmd.OutOrStdout(), store, eta.New(store, clock.Real()), limit, now)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to print, newest first (0 for all)")
	return cmd
}

// openStore opens the configured session history for a one-shot command.
// The badger backend holds a directory lock, so this fails while serve runs
// against the same directory.
func openStore(ctx context.Context, cfg *config.Config) (*history.Store, error) {
	persister, err := history.OpenPersister(cfg.History.Backend, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open session history: %w", err)
	}
	return history.NewStore(ctx, persister, history.Options{
		MaxSessions:  cfg.History.MaxSessions,
		WriteTimeout: cfg.History.WriteTimeout,
	}), nil
}

func closeStore(store *history.Store) {
	if err := store.Close(); err != nil {
		logging.Warn().Err(err).Msg("Session history close failed")
	}
}

func printHistory(w io.Writer, store *history.Store, est *eta.Estimator, limit int, now time.Time) error {
	sessions := store.Recent(limit)
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No queue sessions recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tDAY\tFROM\tTO\tDURATION\tRATE/H\tPARTIAL")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%.0f\t%t\n",
			s.StartTime.Local().Format("2006-01-02 15:04"),
			time.Weekday(s.DayOfWeek).String()[:3],
			s.StartPosition,
			s.EndPosition,
			s.Duration().Round(time.Minute),
			s.PositionsPerHour,
			s.Partial,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d of %d stored sessions (cap %d)\n", len(sessions), store.Len(), store.Max())
	if rate, ok := est.HistoricalRate(now); ok {
		fmt.Fprintf(w, "Historical rate now: %.0f positions/hour from %.1f effective sessions\n",
			rate.PositionsPerHour, rate.EffectiveSessions)
	} else {
		fmt.Fprintln(w, "Historical rate now: no usable sessions")
	}
	return nil
}
