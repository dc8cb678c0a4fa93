// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strconv"

	"gridwatch/internal/httperrors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// probeCmd reports which nflverse seasons are published.
var probeCmd = &cobra.Command{
	Use:   "probe [seasons...]",
	Short: "Check nflverse data availability per season",
	RunE: func(cmd *cobra.Command, args []string) error {
		var seasons []int
		for _, a := range args {
			season, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("invalid season %q", a)
			}
			seasons = append(seasons, season)
		}
		if len(seasons) == 0 {
			seasons = []int{cfg.CurrentSeason - 1, cfg.CurrentSeason}
		}

		nfl := newNFLClient()
		results := nfl.Probe(cmd.Context(), seasons)

		data := pterm.TableData{{"Season", "Roster", "Weekly", "Latest week", "Status"}}
		for _, r := range results {
			status := pterm.Green("available")
			if !r.Available() {
				status = pterm.Red("missing")
			}
			data = append(data, []string{
				strconv.Itoa(r.Season),
				rowsOrError(r.RosterRows, r.RosterErr),
				rowsOrError(r.WeeklyRows, r.WeeklyErr),
				strconv.Itoa(r.LatestWeek),
				status,
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var probeLabels = map[httperrors.Category]string{
	httperrors.Missing: "not published",
	httperrors.Timeout: "timed out",
	httperrors.DNS:     "DNS failure",
	httperrors.Refused: "refused",
	httperrors.TLS:     "TLS failure",
	httperrors.Server:  "server error",
}

func rowsOrError(rows int, err error) string {
	if err != nil {
		if label, ok := probeLabels[httperrors.Classify(err)]; ok {
			return label
		}
		return "error"
	}
	return fmt.Sprintf("%d rows", rows)
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
