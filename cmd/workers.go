// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gridwatch/internal/analytics"
	"gridwatch/internal/collector"
	"gridwatch/internal/nflverse"
	"gridwatch/internal/store"
	"gridwatch/internal/worker"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const stepCorrelations = "correlations"

var (
	collectOnce bool
	analyzeOnce bool
)

// pingAndMigrate is the readiness check for background services: the
// database must answer and carry the current schema.
func pingAndMigrate(st *store.Store) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := st.Ping(ctx); err != nil {
			return err
		}
		return st.Migrate(ctx)
	}
}

func renderer() *worker.Renderer {
	if !isTerminal() {
		return nil
	}
	return worker.NewRenderer(os.Stdout)
}

func collectorRunner(st *store.Store, nfl *nflverse.Client) (*worker.Runner, *collector.Collector) {
	c := collector.New(st, nfl, logger)
	return &worker.Runner{
		Name:       "Data collector",
		Interval:   cfg.CollectInterval,
		RetryDelay: cfg.DBRetryDelay,
		Ping:       pingAndMigrate(st),
		Cycle:      c.Cycle,
		Logger:     logger,
		Renderer:   renderer(),
	}, c
}

// collectSummary describes one collector cycle for the --once output.
func collectSummary(res collector.Result) string {
	if res.Skipped {
		return fmt.Sprintf("No new nflverse data for %d linked players", res.Linked)
	}
	return fmt.Sprintf("%d of %d players linked: %d games imported, %d history rows, %d defenses created, %d updated",
		res.Linked, res.Players, res.GamesImported, res.HistoryRecorded, res.DefenseCreated, res.DefenseUpdated)
}

func analyticsRunner(st *store.Store) *worker.Runner {
	e := &analytics.Engine{Store: st, Logger: logger}
	return &worker.Runner{
		Name:       "Analytics engine",
		Interval:   cfg.AnalyzeInterval,
		RetryDelay: cfg.DBRetryDelay,
		Ping:       pingAndMigrate(st),
		Cycle: func(ctx context.Context, cs *worker.CycleState) error {
			cs.Expect(stepCorrelations)
			return cs.Track(stepCorrelations, func() error {
				_, err := e.Cycle(ctx)
				return err
			})
		},
		Logger:   logger,
		Renderer: renderer(),
	}
}

// runService runs r forever, or a single cycle when once is set.
func runService(ctx context.Context, r *worker.Runner, once bool) error {
	if !once {
		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
	if err := r.Ping(ctx); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	_, err := r.RunOnce(ctx)
	return err
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the nflverse data collector",
	Long: `The collect command imports game logs for every player linked to an nflverse
ID and refreshes team defense stats, every COLLECT_INTERVAL (default 6h).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer st.Close()
		r, c := collectorRunner(st, newNFLClient())
		if err := runService(ctx, r, collectOnce); err != nil {
			return err
		}
		if collectOnce {
			pterm.Info.Println(collectSummary(c.Last()))
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the life-event correlation engine",
	Long: `The analyze command compares each player's fantasy output in the 30 days before
and after their life events, per event category, and stores the results every
ANALYZE_INTERVAL (default 12h).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer st.Close()
		return runService(ctx, analyticsRunner(st), analyzeOnce)
	},
}

func init() {
	rootCmd.AddCommand(collectCmd, analyzeCmd)
	collectCmd.Flags().BoolVar(&collectOnce, "once", false, "Run a single cycle and exit")
	analyzeCmd.Flags().BoolVar(&analyzeOnce, "once", false, "Run a single cycle and exit")
}
