// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
	"gridwatch/internal/nflverse"
)

// pathID parses the {id} wildcard. Anything unparsable is reported as a
// missing record.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.NotFound, "Page not found.")
	}
	return id, nil
}

func formString(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

// formInt reads an integer field; blank or malformed values are def.
func formInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(formString(r, name))
	if err != nil {
		return def
	}
	return v
}

// formFloat reads a float field; blank or malformed values are 0.
func formFloat(r *http.Request, name string) float64 {
	v, err := strconv.ParseFloat(formString(r, name), 64)
	if err != nil {
		return 0
	}
	return v
}

// formOptFloat reads an optional float field; blank or malformed is nil.
func formOptFloat(r *http.Request, name string) *float64 {
	v, err := strconv.ParseFloat(formString(r, name), 64)
	if err != nil {
		return nil
	}
	return &v
}

func formDate(r *http.Request, name string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, formString(r, name))
	if err != nil {
		return time.Time{}, apperrors.Wrap(apperrors.Invalid, "Invalid date; use YYYY-MM-DD.", err)
	}
	return t, nil
}

// statsForm fills g from the stats form. A blank fantasy_points field is
// computed with PPR scoring.
func statsForm(r *http.Request, g *model.GameStats) error {
	date, err := formDate(r, "game_date")
	if err != nil {
		return err
	}
	g.GameDate = date
	g.PassingYards = formInt(r, "passing_yards", 0)
	g.PassingTDs = formInt(r, "passing_tds", 0)
	g.Interceptions = formInt(r, "interceptions", 0)
	g.Completions = formInt(r, "completions", 0)
	g.PassAttempts = formInt(r, "pass_attempts", 0)
	g.RushingYards = formInt(r, "rushing_yards", 0)
	g.RushingTDs = formInt(r, "rushing_tds", 0)
	g.Carries = formInt(r, "carries", 0)
	g.Receptions = formInt(r, "receptions", 0)
	g.ReceivingYards = formInt(r, "receiving_yards", 0)
	g.ReceivingTDs = formInt(r, "receiving_tds", 0)
	g.Targets = formInt(r, "targets", 0)
	g.Fumbles = formInt(r, "fumbles", 0)
	if formString(r, "fantasy_points") == "" {
		g.FantasyPoints = nflverse.FantasyPoints(*g)
	} else {
		g.FantasyPoints = formFloat(r, "fantasy_points")
	}
	return nil
}

func eventForm(r *http.Request, e *model.LifeEvent) error {
	date, err := formDate(r, "event_date")
	if err != nil {
		return err
	}
	e.Date = date
	e.Type = model.EventType(formString(r, "event_type"))
	if e.Type != model.EventPositive && e.Type != model.EventNegative {
		return apperrors.New(apperrors.Invalid, "Event type must be positive or negative.")
	}
	e.Category = formString(r, "event_category")
	if e.Category == "" {
		e.Category = "other"
	}
	e.Description = formString(r, "event_description")
	return nil
}

func playerForm(r *http.Request, p *model.Player) error {
	p.Name = formString(r, "name")
	p.Team = strings.ToUpper(formString(r, "team"))
	p.Position = strings.ToUpper(formString(r, "position"))
	if p.Name == "" {
		return apperrors.New(apperrors.Invalid, "Player name is required.")
	}
	return nil
}
