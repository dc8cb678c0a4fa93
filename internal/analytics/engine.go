// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gridwatch/internal/model"
	"gridwatch/internal/store"
)

// EventWindow is how far before and after an event games are averaged.
const EventWindow = 30 * 24 * time.Hour

// Source is the storage the correlation engine reads from and writes to.
type Source interface {
	PlayerIDsWithEvents(ctx context.Context) ([]int64, error)
	EventsForPlayer(ctx context.Context, playerID int64, order store.Order) ([]model.LifeEvent, error)
	StatsInRange(ctx context.Context, playerID int64, from, to time.Time, fromInclusive, toInclusive bool) ([]model.GameStats, error)
	InsertCorrelation(ctx context.Context, c *model.Correlation) error
}

// Engine periodically tests whether life events shift fantasy output.
type Engine struct {
	Store  Source
	Logger *slog.Logger
}

// Cycle analyses every player with life events, one test per event
// category, and returns the number of correlations stored. A failing player
// is logged and skipped; the failures come back joined once all players ran.
func (e *Engine) Cycle(ctx context.Context) (int, error) {
	log := e.logger()
	log.Info("Starting analysis cycle")

	ids, err := e.Store.PlayerIDsWithEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("list players with events: %w", err)
	}
	if len(ids) == 0 {
		log.Info("No players with life events to analyze")
		return 0, nil
	}
	log.Info("Analyzing players with life events", "players", len(ids))

	stored := 0
	var failed []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stored, errors.Join(append(failed, err)...)
		}
		n, err := e.analyzePlayer(ctx, id)
		stored += n
		if err != nil {
			log.Error("Player analysis failed", "player", id, "error", err)
			failed = append(failed, fmt.Errorf("player %d: %w", id, err))
		}
	}
	if len(failed) > 0 {
		log.Warn(fmt.Sprintf("Analysis cycle complete: %d correlations calculated, %d players failed", stored, len(failed)))
		return stored, errors.Join(failed...)
	}
	log.Info(fmt.Sprintf("Analysis cycle complete: %d correlations calculated", stored))
	return stored, nil
}

func (e *Engine) analyzePlayer(ctx context.Context, playerID int64) (int, error) {
	events, err := e.Store.EventsForPlayer(ctx, playerID, store.Asc)
	if err != nil {
		return 0, err
	}

	var categories []string
	byCategory := make(map[string][]model.LifeEvent)
	for _, ev := range events {
		if _, ok := byCategory[ev.Category]; !ok {
			categories = append(categories, ev.Category)
		}
		byCategory[ev.Category] = append(byCategory[ev.Category], ev)
	}

	stored := 0
	for _, category := range categories {
		group := byCategory[category]
		before, after, err := e.windowScores(ctx, playerID, group)
		if err != nil {
			return stored, err
		}
		res, ok := Correlate(before, after)
		if !ok {
			e.logger().Debug("Insufficient data", "player", playerID, "category", category,
				"before", len(before), "after", len(after))
			continue
		}
		c := &model.Correlation{
			PlayerID:               playerID,
			EventType:              category,
			CorrelationCoefficient: res.Coefficient,
			SampleSize:             res.SampleSize,
			PValue:                 res.PValue,
			MeanBefore:             res.MeanBefore,
			MeanAfter:              res.MeanAfter,
			IsSignificant:          res.IsSignificant,
			Notes:                  fmt.Sprintf("%d %s events", len(group), category),
		}
		if err := e.Store.InsertCorrelation(ctx, c); err != nil {
			return stored, err
		}
		stored++
		e.logger().Info("Analysis complete", "player", playerID, "category", category,
			"r", Round(res.Coefficient, 3), "p", Round(res.PValue, 4), "significant", res.IsSignificant)
	}
	return stored, nil
}

// windowScores averages fantasy points in [date-30d, date) and
// (date, date+30d] for each event. Empty windows contribute nothing.
func (e *Engine) windowScores(ctx context.Context, playerID int64, events []model.LifeEvent) (before, after []float64, err error) {
	for _, ev := range events {
		pre, err := e.Store.StatsInRange(ctx, playerID, ev.Date.Add(-EventWindow), ev.Date, true, false)
		if err != nil {
			return nil, nil, err
		}
		post, err := e.Store.StatsInRange(ctx, playerID, ev.Date, ev.Date.Add(EventWindow), false, true)
		if err != nil {
			return nil, nil, err
		}
		if len(pre) > 0 {
			before = append(before, fantasyMean(pre))
		}
		if len(post) > 0 {
			after = append(after, fantasyMean(post))
		}
	}
	return before, after, nil
}

func fantasyMean(games []model.GameStats) float64 {
	xs := make([]float64, len(games))
	for i, g := range games {
		xs[i] = g.FantasyPoints
	}
	return mean(xs)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
