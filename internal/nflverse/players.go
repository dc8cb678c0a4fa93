// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package nflverse

import (
	"context"
	"strings"

	apperrors "gridwatch/internal/errors"
)

// PlayerMatch is one roster hit.
type PlayerMatch struct {
	Name         string `json:"name"`
	Team         string `json:"team"`
	Position     string `json:"position"`
	PlayerID     string `json:"player_id"`
	JerseyNumber string `json:"jersey_number"`
}

// SearchPlayer finds roster entries whose name contains query, ignoring case
// and accents, in the current season roster.
func (c *Client) SearchPlayer(ctx context.Context, query string) ([]PlayerMatch, error) {
	needle := FoldName(query)
	if needle == "" {
		return nil, apperrors.New(apperrors.Invalid, "Player name required")
	}

	roster, err := c.Roster(ctx, c.season)
	if err != nil {
		return nil, err
	}

	matches := []PlayerMatch{}
	for _, row := range roster.Rows() {
		name := row.Str("player_name", "full_name")
		if name == "" || !strings.Contains(FoldName(name), needle) {
			continue
		}
		matches = append(matches, PlayerMatch{
			Name:         name,
			Team:         orDefault(row.Str("team", "recent_team"), "FA"),
			Position:     orDefault(row.Str("position"), "N/A"),
			PlayerID:     row.Str("gsis_id", "player_id"),
			JerseyNumber: orDefault(jersey(row.Str("jersey_number")), "N/A"),
		})
	}
	return matches, nil
}

// jersey drops the ".0" pandas-style float suffix from jersey numbers.
func jersey(v string) string {
	return strings.TrimSuffix(v, ".0")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
