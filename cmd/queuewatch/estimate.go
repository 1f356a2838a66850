// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/queuewatch/internal/clock"
	"github.com/tomtom215/queuewatch/internal/eta"
	"github.com/tomtom215/queuewatch/internal/validation"
)

// estimateRequest shares the API's bounds for a queue position.
type estimateRequest struct {
	Position int `validate:"min=1,max=1000000"`
}

func newEstimateCmd(configPath *string) *cobra.Command {
	var position int

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Print the estimated wait for a queue position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := estimateRequest{Position: position}
			if verr := validation.ValidateStruct(&req); verr != nil {
				return fmt.Errorf("invalid --position: %w", verr)
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			decay := eta.DecayModel{Offset: cfg.Estimator.DecayOffset, RatePerMinute: cfg.Estimator.DecayRate}
			now := time.Now()
			b := eta.New(store, clock.Real()).Estimate(req.Position, decay.BaseMinutes(req.Position), now)
			return printEstimate(cmd.OutOrStdout(), req.Position, b, now)
		},
	}
	cmd.Flags().IntVarP(&position, "position", "p", 0, "queue position to estimate (required)")
	_ = cmd.MarkFlagRequired("position")
	return cmd
}

func printEstimate(w io.Writer, position int, b eta.Breakdown, now time.Time) error {
	fmt.Fprintf(w, "Position:      %d\n", position)
	fmt.Fprintf(w, "Base model:    %s (%.1f min)\n", eta.FormatETA(int(b.BaseMinutes+0.5)), b.BaseMinutes)
	if b.HasHistorical {
		fmt.Fprintf(w, "Historical:    %.0f positions/hour, %.1f effective sessions\n", b.HistoricalRate, b.EffectiveSessions)
	} else {
		fmt.Fprintln(w, "Historical:    no usable sessions")
	}
	_, err := fmt.Fprintf(w, "Estimate:      %s (finish around %s)\n",
		eta.FormatETA(b.Minutes),
		eta.FinishTime(now, b.Minutes).Local().Format("15:04"),
	)
	return err
}
