// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"strings"
	"time"

	"gridwatch/internal/logging"
	"gridwatch/internal/store"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// dbinfoCmd shows which database gridwatch would use, password masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the current database connection string",
	Long: `The dbinfo command displays the database URL gridwatch resolves, with the
password masked, and where it came from: DATABASE_URL, the OS keychain, the
config file or the built-in SQLite default. When the database answers it also
lists the backend and the applied schema migrations.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, source, err := resolveDSN()
		if err != nil {
			pterm.Println("❌ Could not resolve a database location")
			return err
		}

		pterm.Println("Using database from " + source)
		pterm.Println()
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithPadding(1).
			Println(logging.MaskDSN(dsn))
		pterm.Println()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		st, err := store.Open(ctx, dsn)
		if err == nil {
			defer st.Close()
			err = st.Ping(ctx)
		}
		if err != nil {
			pterm.Warning.Println("Database is not reachable: " + err.Error())
		} else {
			for _, line := range describeSchema(ctx, st) {
				pterm.Println(line)
			}
		}
		pterm.Println()
		pterm.Println("To update this connection, run: gridwatch connect")
		pterm.Println()
		return nil
	},
}

// describeSchema reports the backend and the applied migrations.
func describeSchema(ctx context.Context, st *store.Store) []string {
	lines := []string{"Backend:    " + string(st.Dialect())}
	names, err := st.Migrations(ctx)
	switch {
	case err != nil:
		lines = append(lines, "Migrations: none applied (run gridwatch serve or collect)")
	case len(names) == 0:
		lines = append(lines, "Migrations: none applied")
	default:
		lines = append(lines, "Migrations: "+strings.Join(names, ", "))
	}
	return lines
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
