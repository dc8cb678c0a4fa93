// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package nflverse

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ProbeResult reports which assets are published for a season.
type ProbeResult struct {
	Season     int
	RosterRows int
	RosterErr  error
	WeeklyRows int
	LatestWeek int
	WeeklyErr  error
}

// Available is true when both assets downloaded.
func (r ProbeResult) Available() bool {
	return r.RosterErr == nil && r.WeeklyErr == nil
}

// Probe checks roster and weekly availability for each season concurrently.
// Per-asset failures are reported in the result, not returned.
func (c *Client) Probe(ctx context.Context, seasons []int) []ProbeResult {
	results := make([]ProbeResult, len(seasons))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, season := range seasons {
		results[i].Season = season
		g.Go(func() error {
			if roster, err := c.Roster(gctx, season); err != nil {
				results[i].RosterErr = err
			} else {
				results[i].RosterRows = roster.Len()
			}
			return nil
		})
		g.Go(func() error {
			if weekly, err := c.Weekly(gctx, season); err != nil {
				results[i].WeeklyErr = err
			} else {
				results[i].WeeklyRows = weekly.Len()
				results[i].LatestWeek = latestWeek(weekly)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
