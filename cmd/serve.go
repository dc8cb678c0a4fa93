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

	"gridwatch/internal/auth"
	"gridwatch/internal/web"
	"gridwatch/internal/worker"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveHost   string
	servePort   int
	withWorkers bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web application",
	Long: `The serve command migrates the database, creates the default admin account on
an empty database and serves the web application. With --with-workers the data
collector and analytics engine run in the same process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("host") {
			cfg.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := worker.WaitReady(ctx, pingAndMigrate(st), cfg.DBRetryDelay, logger); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		accounts := auth.NewService(st, logger)
		if _, err := accounts.EnsureDefaultAdmin(ctx, cfg.AdminPassword); err != nil {
			return fmt.Errorf("create default admin: %w", err)
		}

		var secrets auth.SecretStore
		if km, err := getKeychain(); err == nil {
			secrets = km
		}
		secret, persisted, err := auth.ResolveSecret(cfg.SecretKey, secrets)
		if err != nil {
			logger.Warn("Session key not saved; sessions end on restart", "error", err)
		} else if !persisted {
			logger.Warn("No SECRET_KEY and no keychain; sessions end on restart")
		}
		sessions := auth.NewSessions(secret)

		templates, static := assets()
		nfl := newNFLClient()
		srv, err := web.NewServer(web.Config{
			Addr:      cfg.Addr(),
			Store:     st,
			Auth:      accounts,
			Sessions:  sessions,
			NFL:       nfl,
			Logger:    logger,
			Templates: templates,
			Static:    static,
			Reload:    cfg.IsDevelopment() && cfg.TemplateDir != "",
		})
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.ListenAndServe(gctx) })
		if withWorkers {
			collect, _ := collectorRunner(st, nfl)
			analyze := analyticsRunner(st)
			g.Go(func() error { return collect.Run(gctx) })
			g.Go(func() error { return analyze.Run(gctx) })
		}
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Interface to listen on (default from HOST or 127.0.0.1)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from PORT or 5000)")
	serveCmd.Flags().BoolVar(&withWorkers, "with-workers", false, "Also run the collector and analytics services")
}
