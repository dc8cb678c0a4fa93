// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package collector imports nflverse game logs and team defense lines into
// the database on a schedule.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
	"gridwatch/internal/nflverse"
	"gridwatch/internal/worker"
)

// Step names recorded in the cycle state.
const (
	StepGames   = "games"
	StepDefense = "defense"
)

// maxConcurrentImports bounds per-player imports within a cycle.
const maxConcurrentImports = 4

// Store is the storage the collector writes to.
type Store interface {
	CountPlayers(ctx context.Context) (int, error)
	PlayersWithNFLID(ctx context.Context) ([]model.Player, error)
	StatsExists(ctx context.Context, playerID int64, date time.Time) (bool, error)
	CreateStats(ctx context.Context, g *model.GameStats) error
	HistoryExists(ctx context.Context, playerID int64, team string, date time.Time) (bool, error)
	CreateHistory(ctx context.Context, h *model.VsTeamGame) error
	UpsertDefense(ctx context.Context, d *model.TeamDefense) (bool, error)
}

// Source is the nflverse data the collector reads.
type Source interface {
	Season() int
	GameLog(ctx context.Context, playerID string, season int) ([]nflverse.GameLine, error)
	DefenseStats(ctx context.Context, season int) (*nflverse.DefenseReport, error)
	WeeklyFingerprint(ctx context.Context, season int) (uint64, error)
}

// Result counts what one cycle wrote.
type Result struct {
	Players         int
	Linked          int
	GamesImported   int
	HistoryRecorded int
	DefenseCreated  int
	DefenseUpdated  int
	// Skipped is set when the weekly file and linked players were unchanged.
	Skipped bool
}

// Collector imports nflverse data for linked players.
type Collector struct {
	Store  Store
	Source Source
	Logger *slog.Logger

	mu          sync.Mutex
	fingerprint uint64
	linkedKey   string
	last        Result
}

// New creates a collector.
func New(store Store, source Source, log *slog.Logger) *Collector {
	return &Collector{Store: store, Source: source, Logger: log}
}

// Last returns the result of the most recent cycle.
func (c *Collector) Last() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Cycle runs one collection. Step failures are recorded in st and do not
// abort the other step.
func (c *Collector) Cycle(ctx context.Context, st *worker.CycleState) error {
	log := c.logger()
	log.Info("Starting data collection cycle")

	n, err := c.Store.CountPlayers(ctx)
	if err != nil {
		return fmt.Errorf("count players: %w", err)
	}
	log.Info(fmt.Sprintf("Current players in database: %d", n))

	players, err := c.Store.PlayersWithNFLID(ctx)
	if err != nil {
		return fmt.Errorf("list linked players: %w", err)
	}
	season := c.Source.Season()
	res := Result{Players: n, Linked: len(players)}

	fp, fpErr := c.Source.WeeklyFingerprint(ctx, season)
	key := linkedKey(players)
	if fpErr == nil && c.unchanged(fp, key) {
		res.Skipped = true
		c.setLast(res)
		log.Info("No new nflverse data since last cycle")
		return nil
	}

	st.Expect(StepGames, StepDefense)
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.Go(func() error {
		_ = st.Track(StepGames, func() error {
			imported, history, err := c.importGames(ctx, st, players, season)
			mu.Lock()
			res.GamesImported, res.HistoryRecorded = imported, history
			mu.Unlock()
			return err
		})
		return nil
	})
	g.Go(func() error {
		_ = st.Track(StepDefense, func() error {
			created, updated, err := c.importDefense(ctx, season)
			mu.Lock()
			res.DefenseCreated, res.DefenseUpdated = created, updated
			mu.Unlock()
			return err
		})
		return nil
	})
	_ = g.Wait()

	if fpErr == nil && !st.HasFailures() {
		c.mu.Lock()
		c.fingerprint, c.linkedKey = fp, key
		c.mu.Unlock()
	}
	c.setLast(res)
	log.Info("Data collection cycle complete",
		"games", res.GamesImported, "history", res.HistoryRecorded,
		"defense_created", res.DefenseCreated, "defense_updated", res.DefenseUpdated)
	return nil
}

func (c *Collector) unchanged(fp uint64, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fingerprint != 0 && c.fingerprint == fp && c.linkedKey == key
}

func (c *Collector) setLast(r Result) {
	c.mu.Lock()
	c.last = r
	c.mu.Unlock()
}

func linkedKey(players []model.Player) string {
	parts := make([]string, 0, len(players))
	for _, p := range players {
		parts = append(parts, strconv.FormatInt(p.ID, 10)+"="+p.NFLID)
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}

// importGames imports every linked player's game log. A failing player is
// recorded as its own step; the others continue.
func (c *Collector) importGames(ctx context.Context, st *worker.CycleState, players []model.Player, season int) (games, history int, err error) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(maxConcurrentImports)
	failed := 0
	for _, p := range players {
		g.Go(func() error {
			step := "player " + p.Name
			err := st.Track(step, func() error {
				n, h, err := ImportPlayer(ctx, c.Store, c.Source, p, season)
				mu.Lock()
				games += n
				history += h
				mu.Unlock()
				return err
			})
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				c.logger().Warn("Import failed", "player", p.Name, "nfl_id", p.NFLID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	if failed > 0 {
		return games, history, fmt.Errorf("%d of %d players failed", failed, len(players))
	}
	return games, history, nil
}

// ImportPlayer stores the player's season game log, skipping dates already
// imported, and records a vs-team history row per opponent game. It returns
// the number of new games and history rows.
func ImportPlayer(ctx context.Context, store Store, src Source, p model.Player, season int) (games, history int, err error) {
	lines, err := src.GameLog(ctx, p.NFLID, season)
	if err != nil {
		return 0, 0, err
	}
	for _, line := range lines {
		exists, err := store.StatsExists(ctx, p.ID, line.GameDate)
		if err != nil {
			return games, history, err
		}
		if !exists {
			g := line.GameStats
			g.PlayerID = p.ID
			switch err := store.CreateStats(ctx, &g); {
			case apperrors.Is(err, apperrors.Conflict):
				// imported concurrently by another process
			case err != nil:
				return games, history, err
			default:
				games++
			}
		}

		if line.Opponent == "" {
			continue
		}
		seen, err := store.HistoryExists(ctx, p.ID, line.Opponent, line.GameDate)
		if err != nil {
			return games, history, err
		}
		if seen {
			continue
		}
		h := &model.VsTeamGame{
			PlayerID:       p.ID,
			OpponentTeam:   line.Opponent,
			GameDate:       line.GameDate,
			ReceivingYards: line.ReceivingYards,
			Receptions:     line.Receptions,
			ReceivingTDs:   line.ReceivingTDs,
			RushingYards:   line.RushingYards,
			RushingTDs:     line.RushingTDs,
			FantasyPoints:  line.FantasyPoints,
		}
		switch err := store.CreateHistory(ctx, h); {
		case apperrors.Is(err, apperrors.Conflict):
		case err != nil:
			return games, history, err
		default:
			history++
		}
	}
	return games, history, nil
}

func (c *Collector) importDefense(ctx context.Context, season int) (created, updated int, err error) {
	report, err := c.Source.DefenseStats(ctx, season)
	if err != nil {
		return 0, 0, err
	}
	if report.Estimated {
		c.logger().Warn("Using estimated defense stats", "season", season, "week", report.Week)
	}
	created, updated, err = UpsertDefense(ctx, c.Store, report)
	return created, updated, err
}

// UpsertDefense writes every line of report, returning how many rows were
// new and how many replaced an existing (team, season, week).
func UpsertDefense(ctx context.Context, store Store, report *nflverse.DefenseReport) (created, updated int, err error) {
	for i := range report.Teams {
		d := report.Teams[i]
		d.Season, d.Week = report.Season, report.Week
		isNew, err := store.UpsertDefense(ctx, &d)
		if err != nil {
			return created, updated, fmt.Errorf("upsert %s: %w", d.TeamAbbr, err)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
