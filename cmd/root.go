// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the gridwatch command-line interface.
// It wires configuration, the database, the nflverse client and the web
// server together and exposes them as Cobra subcommands: serve, the
// background collector and analytics services, connection management and a
// few operator tools.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"gridwatch/internal/config"
	"gridwatch/internal/logging"

	"github.com/spf13/cobra"
)

var (
	showVersion bool

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "gridwatch",
	Short:         "Football analytics: player stats, life events and matchup projections",
	Long:          `gridwatch tracks NFL players' game stats and life events, tests whether events move fantasy output, and projects yardage for upcoming games.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		logger = logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		slog.SetDefault(logger)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("gridwatch %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, logging.PresentError("Error", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
}
