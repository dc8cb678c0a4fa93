// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gridwatch/internal/model"
	"gridwatch/internal/nflverse"
	"gridwatch/internal/store"
	"gridwatch/internal/worker"
)

type fakeSource struct {
	fp          atomic.Uint64
	gameLogHits atomic.Int32
}

func (f *fakeSource) Season() int { return 2025 }

func (f *fakeSource) GameLog(_ context.Context, id string, season int) ([]nflverse.GameLine, error) {
	f.gameLogHits.Add(1)
	switch id {
	case "00-0030506":
		return []nflverse.GameLine{
			{GameStats: model.GameStats{GameDate: nflverse.EstimateGameDate(season, 1), Receptions: 4, ReceivingYards: 47, FantasyPoints: 8.7}, Season: season, Week: 1, Opponent: "LAC"},
			{GameStats: model.GameStats{GameDate: nflverse.EstimateGameDate(season, 2), Receptions: 8, ReceivingYards: 94, ReceivingTDs: 1, FantasyPoints: 23.4}, Season: season, Week: 2, Opponent: "PHI"},
		}, nil
	case "broken":
		return nil, errors.New("upstream: server returned status 502")
	}
	return nil, nil
}

func (f *fakeSource) DefenseStats(_ context.Context, season int) (*nflverse.DefenseReport, error) {
	return &nflverse.DefenseReport{Season: season, Week: 2, Teams: []model.TeamDefense{
		{TeamAbbr: "LAC", PassYardsAllowedPerGame: 258, PassDefenseRank: 2, RushDefenseRank: 2},
		{TeamAbbr: "PHI", PassYardsAllowedPerGame: 188, PassDefenseRank: 1, RushDefenseRank: 1},
	}}, nil
}

func (f *fakeSource) WeeklyFingerprint(context.Context, int) (uint64, error) { return f.fp.Load(), nil }

func setup(t *testing.T) (*store.Store, *fakeSource, *Collector) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite:///"+filepath.Join(t.TempDir(), "collector.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	src := &fakeSource{}
	src.fp.Store(1)
	return s, src, New(s, src, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func addPlayer(t *testing.T, s *store.Store, name, nflID string) *model.Player {
	t.Helper()
	ctx := context.Background()
	p := &model.Player{Name: name, Team: "KC", Position: "TE"}
	if err := s.CreatePlayer(ctx, p); err != nil {
		t.Fatal(err)
	}
	if nflID != "" {
		if err := s.SetPlayerNFLID(ctx, p.ID, nflID); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

func TestCycleImportsAndDedupes(t *testing.T) {
	s, src, c := setup(t)
	ctx := context.Background()
	kelce := addPlayer(t, s, "Travis Kelce", "00-0030506")
	addPlayer(t, s, "Unlinked", "")

	st := worker.NewCycleState()
	if err := c.Cycle(ctx, st); err != nil || st.Err() != nil {
		t.Fatalf("Cycle() = %v / %v", err, st.Err())
	}
	got := c.Last()
	want := Result{Players: 2, Linked: 1, GamesImported: 2, HistoryRecorded: 2, DefenseCreated: 2}
	if got != want {
		t.Errorf("first cycle = %+v, want %+v", got, want)
	}
	if !st.IsFullyCompleted() {
		t.Errorf("state = %+v", st)
	}

	stats, _ := s.StatsForPlayer(ctx, kelce.ID, store.Asc)
	if len(stats) != 2 || stats[1].ReceivingYards != 94 {
		t.Errorf("stats = %+v", stats)
	}
	history, _ := s.HistoryVsTeam(ctx, kelce.ID, "PHI")
	if len(history) != 1 || history[0].FantasyPoints != 23.4 {
		t.Errorf("history = %+v", history)
	}
	d, err := s.DefenseFor(ctx, "PHI", 2025, 2)
	if err != nil || d.PassYardsAllowedPerGame != 188 {
		t.Errorf("defense = %+v, %v", d, err)
	}

	if err := c.Cycle(ctx, worker.NewCycleState()); err != nil {
		t.Fatal(err)
	}
	if !c.Last().Skipped || src.gameLogHits.Load() != 1 {
		t.Errorf("unchanged data should skip: %+v, hits=%d", c.Last(), src.gameLogHits.Load())
	}

	src.fp.Store(2)
	if err := c.Cycle(ctx, worker.NewCycleState()); err != nil {
		t.Fatal(err)
	}
	want = Result{Players: 2, Linked: 1, DefenseUpdated: 2}
	if got := c.Last(); got != want {
		t.Errorf("third cycle = %+v, want %+v", got, want)
	}
}

func TestCycleRecordsPlayerFailures(t *testing.T) {
	s, _, c := setup(t)
	ctx := context.Background()
	addPlayer(t, s, "Travis Kelce", "00-0030506")
	addPlayer(t, s, "Bad Link", "broken")

	st := worker.NewCycleState()
	if err := c.Cycle(ctx, st); err != nil {
		t.Fatalf("Cycle() error = %v", err)
	}
	if got := c.Last(); got.GamesImported != 2 || got.DefenseCreated != 2 {
		t.Errorf("result = %+v", got)
	}
	failures := strings.Join(st.Failures(), "\n")
	for _, want := range []string{"player Bad Link: upstream", "games: 1 of 2 players failed"} {
		if !strings.Contains(failures, want) {
			t.Errorf("failures %q lack %q", failures, want)
		}
	}
	if st.Err() == nil {
		t.Error("Err() should report the failed player")
	}
}

func TestCycleWithRunner(t *testing.T) {
	s, _, c := setup(t)
	addPlayer(t, s, "Travis Kelce", "00-0030506")

	r := &worker.Runner{
		Name:     "collector",
		Interval: time.Hour,
		Cycle:    c.Cycle,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	st, err := r.RunOnce(context.Background())
	if err != nil || st.CompletedCount() != 3 {
		t.Errorf("RunOnce() = %d steps, %v", st.CompletedCount(), err)
	}
}

// staleStore reports every game as unseen, as a second importer would
// between its existence check and its insert.
type staleStore struct{ *store.Store }

func (staleStore) StatsExists(context.Context, int64, time.Time) (bool, error) { return false, nil }

func (staleStore) HistoryExists(context.Context, int64, string, time.Time) (bool, error) {
	return false, nil
}

func TestImportPlayerTreatsDuplicatesAsImported(t *testing.T) {
	s, src, _ := setup(t)
	ctx := context.Background()
	kelce := addPlayer(t, s, "Travis Kelce", "00-0030506")
	kelce.NFLID = "00-0030506"

	games, history, err := ImportPlayer(ctx, s, src, *kelce, 2025)
	if err != nil || games != 2 || history != 2 {
		t.Fatalf("first ImportPlayer() = %d, %d, %v", games, history, err)
	}
	games, history, err = ImportPlayer(ctx, staleStore{s}, src, *kelce, 2025)
	if err != nil || games != 0 || history != 0 {
		t.Errorf("second ImportPlayer() = %d, %d, %v", games, history, err)
	}
	stats, _ := s.StatsForPlayer(ctx, kelce.ID, store.Asc)
	if len(stats) != 2 {
		t.Errorf("stored %d games, want 2", len(stats))
	}
}
