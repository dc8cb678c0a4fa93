// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package analytics

import (
	"gridwatch/internal/model"
)

// Metric names used in event impact and season comparison.
const (
	MetricFantasyPoints  = "fantasy_points"
	MetricReceivingYards = "receiving_yards"
	MetricReceptions     = "receptions"
	MetricReceivingTDs   = "receiving_tds"
)

// ProximityWindows are the day windows games are grouped by.
var ProximityWindows = []int{7, 14, 30}

const (
	nearEventDays  = 7
	recentGames    = 5
	impactGames    = 3
	descriptionCap = 50
)

// Averages are per-game means over a set of games.
type Averages struct {
	FantasyPoints  float64
	ReceivingYards float64
	Receptions     float64
	ReceivingTDs   float64
	Targets        float64
	RushingYards   float64
	RushingTDs     float64
}

// NearEvent is the first life event within a week of a game.
type NearEvent struct {
	Type     model.EventType
	Category string
	DaysAway int
}

// FormGame is one of the most recent games.
type FormGame struct {
	Date           string
	FantasyPoints  float64
	ReceivingYards int
	Receptions     int
	TDs            int
	NearEvent      *NearEvent
	AboveAvg       bool
}

// Window summarises games within Days of any life event.
type Window struct {
	Days          int
	Count         int
	AvgFantasy    float64
	AvgRecYards   float64
	AvgReceptions float64
	AvgTDs        float64
}

// MetricChange compares a metric's average before and after an event.
type MetricChange struct {
	Metric    string
	Before    float64
	After     float64
	Change    float64
	ChangePct float64
}

// EventImpact is the before/after comparison around one event.
type EventImpact struct {
	Event      model.LifeEvent
	Changes    []MetricChange
	Improved   bool
	SampleSize string
}

// Change looks up a metric's change. Metrics whose before-average was zero
// are absent.
func (e EventImpact) Change(metric string) (MetricChange, bool) {
	for _, c := range e.Changes {
		if c.Metric == metric {
			return c, true
		}
	}
	return MetricChange{}, false
}

// Betting aggregates event impacts into betting-oriented numbers.
type Betting struct {
	TotalEvents       int
	AvgFPChange       float64
	AvgYdChange       float64
	ImprovedPct       float64
	PositiveCount     int
	NegativeCount     int
	PositiveAvgChange float64
	NegativeAvgChange float64
}

// Comparison contrasts a season average with games near events.
type Comparison struct {
	Metric     string
	Season     float64
	NearEvents float64
	Diff       float64
	DiffPct    float64
}

// Chart is the series data for the player analytics charts.
type Chart struct {
	Dates             []string  `json:"dates"`
	FantasyPoints     []float64 `json:"fantasy_points"`
	ReceivingYards    []int     `json:"receiving_yards"`
	Receptions        []int     `json:"receptions"`
	Touchdowns        []int     `json:"touchdowns"`
	Targets           []int     `json:"targets"`
	EventDates        []string  `json:"event_dates"`
	EventTypes        []string  `json:"event_types"`
	EventDescriptions []string  `json:"event_descriptions"`
}

// Report is the full player analytics page.
type Report struct {
	Games            int
	SeasonAvg        *Averages
	RecentForm       []FormGame
	Proximity        []Window
	Events           []EventImpact
	Betting          *Betting
	SeasonComparison []Comparison
	Chart            Chart
}

// PlayerReport builds the analytics report. Both slices must be in
// ascending date order.
func PlayerReport(stats []model.GameStats, events []model.LifeEvent) Report {
	r := Report{Games: len(stats), Chart: buildChart(stats, events)}
	if len(stats) == 0 {
		return r
	}

	avg := seasonAverages(stats)
	r.SeasonAvg = &avg
	r.RecentForm = recentForm(stats, events, avg)
	r.Proximity = proximity(stats, events)
	r.Events = eventImpacts(stats, events)
	r.Betting = betting(r.Events)
	if len(r.Proximity) > 0 && r.Proximity[0].Days == nearEventDays {
		r.SeasonComparison = seasonComparison(avg, r.Proximity[0])
	}
	return r
}

func seasonAverages(stats []model.GameStats) Averages {
	n := float64(len(stats))
	var a Averages
	for _, s := range stats {
		a.FantasyPoints += s.FantasyPoints
		a.ReceivingYards += float64(s.ReceivingYards)
		a.Receptions += float64(s.Receptions)
		a.ReceivingTDs += float64(s.ReceivingTDs)
		a.Targets += float64(s.Targets)
		a.RushingYards += float64(s.RushingYards)
		a.RushingTDs += float64(s.RushingTDs)
	}
	a.FantasyPoints /= n
	a.ReceivingYards /= n
	a.Receptions /= n
	a.ReceivingTDs /= n
	a.Targets /= n
	a.RushingYards /= n
	a.RushingTDs /= n
	return a
}

func recentForm(stats []model.GameStats, events []model.LifeEvent, avg Averages) []FormGame {
	recent := stats
	if len(recent) > recentGames {
		recent = recent[len(recent)-recentGames:]
	}
	out := make([]FormGame, 0, len(recent))
	for _, s := range recent {
		g := FormGame{
			Date:           s.GameDate.Format(model.DateLayout),
			FantasyPoints:  s.FantasyPoints,
			ReceivingYards: s.ReceivingYards,
			Receptions:     s.Receptions,
			TDs:            s.ReceivingTDs + s.RushingTDs,
			AboveAvg:       s.FantasyPoints > avg.FantasyPoints,
		}
		for _, e := range events {
			if d := absInt(daysBetween(s.GameDate, e.Date)); d <= nearEventDays {
				g.NearEvent = &NearEvent{Type: e.Type, Category: e.Category, DaysAway: d}
				break
			}
		}
		out = append(out, g)
	}
	return out
}

func nearAnyEvent(s model.GameStats, events []model.LifeEvent, window int) bool {
	for _, e := range events {
		if absInt(daysBetween(s.GameDate, e.Date)) <= window {
			return true
		}
	}
	return false
}

func proximity(stats []model.GameStats, events []model.LifeEvent) []Window {
	var out []Window
	for _, days := range ProximityWindows {
		var near []model.GameStats
		for _, s := range stats {
			if nearAnyEvent(s, events, days) {
				near = append(near, s)
			}
		}
		if len(near) == 0 {
			continue
		}
		n := float64(len(near))
		w := Window{Days: days, Count: len(near)}
		for _, s := range near {
			w.AvgFantasy += s.FantasyPoints
			w.AvgRecYards += float64(s.ReceivingYards)
			w.AvgReceptions += float64(s.Receptions)
			w.AvgTDs += float64(s.ReceivingTDs + s.RushingTDs)
		}
		w.AvgFantasy /= n
		w.AvgRecYards /= n
		w.AvgReceptions /= n
		w.AvgTDs /= n
		out = append(out, w)
	}
	return out
}

type impactAverages [4]float64

var impactMetrics = [4]string{MetricFantasyPoints, MetricReceivingYards, MetricReceptions, MetricReceivingTDs}

func averageImpact(games []model.GameStats) impactAverages {
	var a impactAverages
	for _, s := range games {
		a[0] += s.FantasyPoints
		a[1] += float64(s.ReceivingYards)
		a[2] += float64(s.Receptions)
		a[3] += float64(s.ReceivingTDs)
	}
	for i := range a {
		a[i] /= float64(len(games))
	}
	return a
}

func eventImpacts(stats []model.GameStats, events []model.LifeEvent) []EventImpact {
	var out []EventImpact
	for _, e := range events {
		var before, after []model.GameStats
		for _, s := range stats {
			switch d := daysBetween(s.GameDate, e.Date); {
			case d < 0:
				before = append(before, s)
			case d > 0:
				after = append(after, s)
			}
		}
		if len(before) < impactGames || len(after) < impactGames {
			continue
		}
		b := averageImpact(before[len(before)-impactGames:])
		a := averageImpact(after[:impactGames])

		impact := EventImpact{
			Event:      e,
			Improved:   a[0] > b[0],
			SampleSize: "3-3",
		}
		for i, metric := range impactMetrics {
			if b[i] <= 0 {
				continue
			}
			impact.Changes = append(impact.Changes, MetricChange{
				Metric:    metric,
				Before:    Round(b[i], 1),
				After:     Round(a[i], 1),
				Change:    Round(a[i]-b[i], 1),
				ChangePct: Round((a[i]-b[i])/b[i]*100, 1),
			})
		}
		out = append(out, impact)
	}
	return out
}

// changeOf is a metric's change, or 0 when it was not computed.
func changeOf(e EventImpact, metric string) float64 {
	c, _ := e.Change(metric)
	return c.Change
}

func betting(impacts []EventImpact) *Betting {
	if len(impacts) == 0 {
		return nil
	}
	n := float64(len(impacts))
	b := &Betting{TotalEvents: len(impacts)}

	var fp, yd, improved, posSum, negSum float64
	for _, e := range impacts {
		fp += changeOf(e, MetricFantasyPoints)
		yd += changeOf(e, MetricReceivingYards)
		if e.Improved {
			improved++
		}
		switch e.Event.Type {
		case model.EventPositive:
			b.PositiveCount++
			posSum += changeOf(e, MetricFantasyPoints)
		case model.EventNegative:
			b.NegativeCount++
			negSum += changeOf(e, MetricFantasyPoints)
		}
	}
	b.AvgFPChange = Round(fp/n, 1)
	b.AvgYdChange = Round(yd/n, 1)
	b.ImprovedPct = Round(improved/n*100, 0)
	if b.PositiveCount > 0 {
		b.PositiveAvgChange = Round(posSum/float64(b.PositiveCount), 1)
	}
	if b.NegativeCount > 0 {
		b.NegativeAvgChange = Round(negSum/float64(b.NegativeCount), 1)
	}
	return b
}

func seasonComparison(avg Averages, near Window) []Comparison {
	compare := func(metric string, season, nearVal float64) Comparison {
		c := Comparison{
			Metric:     metric,
			Season:     Round(season, 1),
			NearEvents: Round(nearVal, 1),
			Diff:       Round(nearVal-season, 1),
		}
		if season > 0 {
			c.DiffPct = Round((nearVal-season)/season*100, 1)
		}
		return c
	}
	return []Comparison{
		compare(MetricFantasyPoints, avg.FantasyPoints, near.AvgFantasy),
		compare(MetricReceivingYards, avg.ReceivingYards, near.AvgRecYards),
		compare(MetricReceptions, avg.Receptions, near.AvgReceptions),
	}
}

func buildChart(stats []model.GameStats, events []model.LifeEvent) Chart {
	c := Chart{
		Dates:             make([]string, 0, len(stats)),
		FantasyPoints:     make([]float64, 0, len(stats)),
		ReceivingYards:    make([]int, 0, len(stats)),
		Receptions:        make([]int, 0, len(stats)),
		Touchdowns:        make([]int, 0, len(stats)),
		Targets:           make([]int, 0, len(stats)),
		EventDates:        make([]string, 0, len(events)),
		EventTypes:        make([]string, 0, len(events)),
		EventDescriptions: make([]string, 0, len(events)),
	}
	for _, s := range stats {
		c.Dates = append(c.Dates, s.GameDate.Format(model.DateLayout))
		c.FantasyPoints = append(c.FantasyPoints, s.FantasyPoints)
		c.ReceivingYards = append(c.ReceivingYards, s.ReceivingYards)
		c.Receptions = append(c.Receptions, s.Receptions)
		c.Touchdowns = append(c.Touchdowns, s.ReceivingTDs+s.RushingTDs+s.PassingTDs)
		c.Targets = append(c.Targets, s.Targets)
	}
	for _, e := range events {
		c.EventDates = append(c.EventDates, e.Date.Format(model.DateLayout))
		c.EventTypes = append(c.EventTypes, string(e.Type))
		c.EventDescriptions = append(c.EventDescriptions, truncate(e.Description, descriptionCap))
	}
	return c
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
