// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strings"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/httperrors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// searchCmd looks a name up in the current season roster.
var searchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Search the nflverse roster for a player",
	Long: `The search command finds current-season roster entries whose name contains the
query, ignoring case and accents, and prints the nflverse IDs used to link
players for stat collection.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		matches, err := newNFLClient().SearchPlayer(cmd.Context(), query)
		if err != nil {
			if apperrors.Is(err, apperrors.Invalid) {
				return err
			}
			return httperrors.FormatNetworkError(err, "searching the roster")
		}
		if len(matches) == 0 {
			pterm.Warning.Printfln("No players found matching %q", query)
			return nil
		}
		data := pterm.TableData{{"Name", "Team", "Position", "Jersey", "nflverse ID"}}
		for _, m := range matches {
			data = append(data, []string{m.Name, m.Team, m.Position, m.JerseyNumber, m.PlayerID})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
