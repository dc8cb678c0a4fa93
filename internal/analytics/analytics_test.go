// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"gridwatch/internal/model"
	"gridwatch/internal/store"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(f float64) *float64 { return &f }

func TestRound(t *testing.T) {
	tests := []struct {
		x      float64
		places int
		want   float64
	}{
		{2.25, 1, 2.2},
		{-2.25, 1, -2.2},
		{0.25, 1, 0.2},
		{0.35, 1, 0.3},
		{2.675, 2, 2.67},
		{0.5, 0, 0},
		{1.5, 0, 2},
		{2.5, 0, 2},
		{83.3333, 1, 83.3},
		{12.0049, 2, 12},
		{12.0051, 2, 12.01},
	}
	for _, tt := range tests {
		if got := Round(tt.x, tt.places); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.x, tt.places, got, tt.want)
		}
	}
}

func TestCorrelate(t *testing.T) {
	res, ok := Correlate([]float64{10, 12, 14}, []float64{20, 22, 24})
	if !ok {
		t.Fatal("Correlate() ok = false")
	}
	if math.Abs(res.T-(-6.1237)) > 1e-3 {
		t.Errorf("T = %v, want -6.1237", res.T)
	}
	if res.PValue <= 0.001 || res.PValue >= 0.01 {
		t.Errorf("PValue = %v, want ~0.0036", res.PValue)
	}
	if math.Abs(res.Coefficient-1) > 1e-9 {
		t.Errorf("Coefficient = %v, want 1", res.Coefficient)
	}
	if res.SampleSize != 6 || res.MeanBefore != 12 || res.MeanAfter != 22 || !res.IsSignificant {
		t.Errorf("Correlate() = %+v", res)
	}
}

func TestCorrelateEdgeCases(t *testing.T) {
	tests := []struct {
		name          string
		before, after []float64
		ok            bool
		p             float64
		r             float64
	}{
		{"too few before", []float64{1, 2}, []float64{1, 2, 3}, false, 0, 0},
		{"too few after", []float64{1, 2, 3}, []float64{1}, false, 0, 0},
		{"identical constants", []float64{5, 5, 5}, []float64{5, 5, 5}, true, 1, 0},
		{"different constants", []float64{5, 5, 5}, []float64{6, 6, 6}, true, 0, 0},
		{"unequal lengths", []float64{1, 2, 3, 4}, []float64{1, 2, 3}, true, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := Correlate(tt.before, tt.after)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if tt.p >= 0 && res.PValue != tt.p {
				t.Errorf("PValue = %v, want %v", res.PValue, tt.p)
			}
			if res.Coefficient != tt.r {
				t.Errorf("Coefficient = %v, want %v", res.Coefficient, tt.r)
			}
		})
	}
}

func reportFixture() ([]model.GameStats, []model.LifeEvent) {
	dates := []string{"2025-09-07", "2025-09-14", "2025-09-21", "2025-09-28", "2025-10-05", "2025-10-12", "2025-10-19"}
	fp := []float64{10, 12, 14, 20, 22, 24, 26}
	yards := []int{50, 60, 70, 100, 110, 120, 130}
	rec := []int{4, 5, 6, 8, 9, 10, 11}
	tds := []int{0, 1, 0, 1, 1, 1, 2}

	stats := make([]model.GameStats, len(dates))
	for i := range dates {
		stats[i] = model.GameStats{
			GameDate:       day(dates[i]),
			FantasyPoints:  fp[i],
			ReceivingYards: yards[i],
			Receptions:     rec[i],
			ReceivingTDs:   tds[i],
			Targets:        rec[i] + 2,
		}
	}
	events := []model.LifeEvent{{
		Type:        model.EventPositive,
		Category:    "birth",
		Description: strings.Repeat("x", 60),
		Date:        day("2025-09-25"),
	}}
	return stats, events
}

func TestPlayerReport(t *testing.T) {
	stats, events := reportFixture()
	r := PlayerReport(stats, events)

	if r.Games != 7 || r.SeasonAvg == nil {
		t.Fatalf("PlayerReport() = %+v", r)
	}
	if got := Round(r.SeasonAvg.FantasyPoints, 4); got != 18.2857 {
		t.Errorf("season fantasy avg = %v", got)
	}

	t.Run("recent form", func(t *testing.T) {
		if len(r.RecentForm) != 5 {
			t.Fatalf("RecentForm = %d games", len(r.RecentForm))
		}
		first := r.RecentForm[0]
		if first.Date != "2025-09-21" || first.NearEvent == nil || first.NearEvent.DaysAway != 4 || first.AboveAvg {
			t.Errorf("first = %+v", first)
		}
		second := r.RecentForm[1]
		if second.NearEvent == nil || second.NearEvent.DaysAway != 3 || !second.AboveAvg {
			t.Errorf("second = %+v", second)
		}
		if r.RecentForm[4].NearEvent != nil {
			t.Errorf("last game should not be near an event")
		}
	})

	t.Run("proximity", func(t *testing.T) {
		want := []struct {
			days, count int
			fantasy     float64
		}{{7, 2, 17}, {14, 4, 17}, {30, 7, 128.0 / 7}}
		if len(r.Proximity) != len(want) {
			t.Fatalf("Proximity = %+v", r.Proximity)
		}
		for i, w := range want {
			got := r.Proximity[i]
			if got.Days != w.days || got.Count != w.count || math.Abs(got.AvgFantasy-w.fantasy) > 1e-9 {
				t.Errorf("window %d = %+v, want %+v", i, got, w)
			}
		}
	})

	t.Run("event impact", func(t *testing.T) {
		if len(r.Events) != 1 {
			t.Fatalf("Events = %+v", r.Events)
		}
		e := r.Events[0]
		if !e.Improved || e.SampleSize != "3-3" {
			t.Errorf("impact = %+v", e)
		}
		want := map[string]MetricChange{
			MetricFantasyPoints:  {MetricFantasyPoints, 12, 22, 10, 83.3},
			MetricReceivingYards: {MetricReceivingYards, 60, 110, 50, 83.3},
			MetricReceptions:     {MetricReceptions, 5, 9, 4, 80},
			MetricReceivingTDs:   {MetricReceivingTDs, 0.3, 1, 0.7, 200},
		}
		for metric, w := range want {
			got, ok := e.Change(metric)
			if !ok || got != w {
				t.Errorf("%s = %+v, want %+v", metric, got, w)
			}
		}
	})

	t.Run("betting", func(t *testing.T) {
		want := Betting{TotalEvents: 1, AvgFPChange: 10, AvgYdChange: 50, ImprovedPct: 100, PositiveCount: 1, PositiveAvgChange: 10}
		if r.Betting == nil || *r.Betting != want {
			t.Errorf("Betting = %+v, want %+v", r.Betting, want)
		}
	})

	t.Run("season comparison", func(t *testing.T) {
		if len(r.SeasonComparison) != 3 {
			t.Fatalf("SeasonComparison = %+v", r.SeasonComparison)
		}
		want := Comparison{MetricFantasyPoints, 18.3, 17, -1.3, -7}
		if got := r.SeasonComparison[0]; got != want {
			t.Errorf("fantasy = %+v, want %+v", got, want)
		}
	})

	t.Run("chart", func(t *testing.T) {
		c := r.Chart
		if len(c.Dates) != 7 || c.Targets[0] != 6 || c.Touchdowns[6] != 2 {
			t.Errorf("chart = %+v", c)
		}
		if len(c.EventDescriptions) != 1 || c.EventDescriptions[0] != strings.Repeat("x", 50)+"..." {
			t.Errorf("descriptions = %q", c.EventDescriptions)
		}
		if c.EventTypes[0] != "positive" || c.EventDates[0] != "2025-09-25" {
			t.Errorf("events = %v %v", c.EventTypes, c.EventDates)
		}
	})
}

func TestPlayerReportWithoutData(t *testing.T) {
	r := PlayerReport(nil, nil)
	if r.SeasonAvg != nil || r.Betting != nil || r.Events != nil || len(r.Chart.Dates) != 0 {
		t.Errorf("PlayerReport(nil) = %+v", r)
	}

	stats, _ := reportFixture()
	r = PlayerReport(stats, nil)
	if r.Proximity != nil || r.SeasonComparison != nil || r.Betting != nil {
		t.Errorf("no events should leave event sections empty: %+v", r)
	}
}

func TestPredict(t *testing.T) {
	wr := model.Player{Name: "W", Position: "WR"}
	rb := model.Player{Name: "R", Position: "RB"}

	wrStats := []model.GameStats{
		{GameDate: day("2025-09-07"), ReceivingYards: 60},
		{GameDate: day("2025-09-14"), ReceivingYards: 70},
		{GameDate: day("2025-09-21"), ReceivingYards: 80},
		{GameDate: day("2025-09-28"), ReceivingYards: 90},
	}
	rbStats := make([]model.GameStats, 5)
	for i := range rbStats {
		rbStats[i] = model.GameStats{GameDate: day("2024-10-06").AddDate(0, 0, 7*i), RushingYards: 50}
	}
	game := model.UpcomingGame{GameDate: day("2025-10-26"), Opponent: "DAL", Season: 2025, Week: 8, PropReceivingYards: ptr(70)}

	t.Run("all factors", func(t *testing.T) {
		events := []model.LifeEvent{
			{Type: model.EventPositive, Category: "birth", Date: day("2025-10-22")},
			{Type: model.EventNegative, Category: "injury", Date: day("2025-10-10")},
			{Type: model.EventNegative, Category: "contract", Date: day("2025-10-30")},
		}
		defense := &model.TeamDefense{PassDefenseRank: 26, RushDefenseRank: 3}
		history := []model.VsTeamGame{{ReceivingYards: 100}, {ReceivingYards: 110}}

		p := Predict(wr, game, events, wrStats, defense, history)
		if p.BaseProjection != 75 || p.FinalProjection != 99 {
			t.Errorf("projection base=%v final=%v", p.BaseProjection, p.FinalProjection)
		}
		if p.Confidence != 80 || p.Recommendation != StrongOver {
			t.Errorf("confidence=%d recommendation=%s", p.Confidence, p.Recommendation)
		}
		want := []string{
			"✅ birth (4d ago)",
			"🎯 Favorable matchup (#26 pass defense)",
			"📈 Strong history vs DAL (2 games)",
		}
		if strings.Join(p.Factors, "|") != strings.Join(want, "|") {
			t.Errorf("Factors = %q, want %q", p.Factors, want)
		}
	})

	t.Run("tough run defense across seasons", func(t *testing.T) {
		g := game
		g.PropRushYards = ptr(60)
		defense := &model.TeamDefense{PassDefenseRank: 30, RushDefenseRank: 5}
		history := []model.VsTeamGame{{RushingYards: 20}}

		p := Predict(rb, g, nil, rbStats, defense, history)
		if p.FinalProjection != 39 {
			t.Errorf("FinalProjection = %v, want 39", p.FinalProjection)
		}
		// 35 defense + 20 history + 20 sample = 75, scaled by 0.85.
		if p.Confidence != 63 || p.Recommendation != StrongUnder {
			t.Errorf("confidence=%d recommendation=%s", p.Confidence, p.Recommendation)
		}
		want := []string{
			"🛡️ Tough matchup (#5 run defense)",
			"📉 Struggles vs DAL (1 games)",
			"⚠️ Cross-season baseline (2024→2025)",
		}
		if strings.Join(p.Factors, "|") != strings.Join(want, "|") {
			t.Errorf("Factors = %q, want %q", p.Factors, want)
		}
	})

	t.Run("no line holds", func(t *testing.T) {
		g := game
		g.PropReceivingYards = ptr(0)
		if p := Predict(wr, g, nil, wrStats, nil, nil); p.Recommendation != Hold || p.Confidence != 0 {
			t.Errorf("Predict() = %+v", p)
		}
	})

	t.Run("no stats", func(t *testing.T) {
		p := Predict(wr, game, nil, nil, nil, nil)
		if p.Recommendation != Hold || p.Confidence != 0 || p.FinalProjection != 0 || p.Factors != nil {
			t.Errorf("Predict() = %+v", p)
		}
	})
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		diff       float64
		confidence int
		want       string
	}{
		{8, 60, StrongOver},
		{8, 59, LeanOver},
		{4, 100, LeanOver},
		{3.9, 100, Hold},
		{-3.9, 100, Hold},
		{-4, 100, LeanUnder},
		{-8, 59, LeanUnder},
		{-8, 60, StrongUnder},
	}
	for _, tt := range tests {
		if got := recommend(tt.diff, tt.confidence); got != tt.want {
			t.Errorf("recommend(%v, %d) = %s, want %s", tt.diff, tt.confidence, got, tt.want)
		}
	}
}

func TestDefenseTable(t *testing.T) {
	rows := []model.TeamDefense{
		{TeamAbbr: "BUF", Season: 2024, Week: 5, PassYardsAllowedPerGame: 210, RushYardsAllowedPerGame: 90},
		{TeamAbbr: "KC", Season: 2025, Week: 1, PassYardsAllowedPerGame: 200, RushYardsAllowedPerGame: 100, Sacks: 2, PassingTDsAllowed: 1},
		{TeamAbbr: "KC", Season: 2025, Week: 2, PassYardsAllowedPerGame: 250, RushYardsAllowedPerGame: 80, Sacks: 3, RushingTDsAllowed: 2},
		{TeamAbbr: "BUF", Season: 2025, Week: 1, PassYardsAllowedPerGame: 180, RushYardsAllowedPerGame: 120, Sacks: 1},
	}
	groups := DefenseTable(rows)
	if len(groups) != 2 {
		t.Fatalf("DefenseTable() = %d groups", len(groups))
	}
	if groups[0].Title != "2025 Season - Average through Week 2" || groups[1].Title != "2024 Season - Average through Week 5" {
		t.Errorf("titles = %q, %q", groups[0].Title, groups[1].Title)
	}

	teams := groups[0].Teams
	if len(teams) != 2 || teams[0].TeamAbbr != "BUF" || teams[1].TeamAbbr != "KC" {
		t.Fatalf("2025 teams = %+v", teams)
	}
	kc := teams[1]
	want := DefenseLine{
		TeamAbbr: "KC", Season: 2025, GamesPlayed: 2,
		PassYardsAllowedPerGame: 225, RushYardsAllowedPerGame: 90,
		Sacks: 5, PassingTDsAllowed: 1, RushingTDsAllowed: 2, LatestWeek: 2,
		PassDefenseRank: 2, RushDefenseRank: 1,
	}
	if kc != want {
		t.Errorf("KC = %+v, want %+v", kc, want)
	}
	if teams[0].PassDefenseRank != 1 || teams[0].RushDefenseRank != 2 {
		t.Errorf("BUF ranks = %d/%d", teams[0].PassDefenseRank, teams[0].RushDefenseRank)
	}
	if len(DefenseTable(nil)) != 0 {
		t.Error("DefenseTable(nil) should be empty")
	}
}

type fakeSource struct {
	events   []model.LifeEvent
	stats    []model.GameStats
	inserted []model.Correlation
}

func (f *fakeSource) PlayerIDsWithEvents(context.Context) ([]int64, error) { return []int64{1}, nil }

func (f *fakeSource) EventsForPlayer(context.Context, int64, store.Order) ([]model.LifeEvent, error) {
	return f.events, nil
}

func (f *fakeSource) StatsInRange(_ context.Context, _ int64, from, to time.Time, fromIn, toIn bool) ([]model.GameStats, error) {
	var out []model.GameStats
	for _, s := range f.stats {
		d := s.GameDate
		if d.Before(from) || (!fromIn && d.Equal(from)) || d.After(to) || (!toIn && d.Equal(to)) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSource) InsertCorrelation(_ context.Context, c *model.Correlation) error {
	f.inserted = append(f.inserted, *c)
	return nil
}

func TestEngineCycle(t *testing.T) {
	src := &fakeSource{}
	for i, d := range []string{"2025-03-01", "2025-06-01", "2025-09-01"} {
		ev := day(d)
		src.events = append(src.events, model.LifeEvent{PlayerID: 1, Type: model.EventPositive, Category: "birth", Date: ev})
		src.stats = append(src.stats,
			model.GameStats{GameDate: ev.AddDate(0, 0, -10), FantasyPoints: float64(10 + i)},
			model.GameStats{GameDate: ev, FantasyPoints: 99},
			model.GameStats{GameDate: ev.AddDate(0, 0, 10), FantasyPoints: float64(20 + i)},
		)
	}
	src.events = append(src.events, model.LifeEvent{PlayerID: 1, Type: model.EventNegative, Category: "injury", Date: day("2025-12-01")})

	e := &Engine{Store: src, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	n, err := e.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle() error = %v", err)
	}
	if n != 1 || len(src.inserted) != 1 {
		t.Fatalf("Cycle() stored %d, inserted %d", n, len(src.inserted))
	}
	c := src.inserted[0]
	if c.EventType != "birth" || c.Notes != "3 birth events" || c.SampleSize != 6 {
		t.Errorf("correlation = %+v", c)
	}
	if c.MeanBefore != 11 || c.MeanAfter != 21 || !c.IsSignificant {
		t.Errorf("means %v/%v significant=%v", c.MeanBefore, c.MeanAfter, c.IsSignificant)
	}
	if math.Abs(c.CorrelationCoefficient-1) > 1e-9 {
		t.Errorf("coefficient = %v", c.CorrelationCoefficient)
	}
}

// brokenPlayerSource serves two players and fails reading the first one's events.
type brokenPlayerSource struct {
	*fakeSource
}

func (b brokenPlayerSource) PlayerIDsWithEvents(context.Context) ([]int64, error) {
	return []int64{7, 1}, nil
}

func (b brokenPlayerSource) EventsForPlayer(ctx context.Context, id int64, o store.Order) ([]model.LifeEvent, error) {
	if id == 7 {
		return nil, errors.New("disk I/O error")
	}
	return b.fakeSource.EventsForPlayer(ctx, id, o)
}

func TestEngineCycleContinuesPastFailedPlayer(t *testing.T) {
	src := &fakeSource{}
	for i, d := range []string{"2025-03-01", "2025-06-01", "2025-09-01"} {
		ev := day(d)
		src.events = append(src.events, model.LifeEvent{PlayerID: 1, Type: model.EventPositive, Category: "trade", Date: ev})
		src.stats = append(src.stats,
			model.GameStats{GameDate: ev.AddDate(0, 0, -7), FantasyPoints: float64(10 + i)},
			model.GameStats{GameDate: ev.AddDate(0, 0, 7), FantasyPoints: float64(15 + i)},
		)
	}

	e := &Engine{Store: brokenPlayerSource{src}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	n, err := e.Cycle(context.Background())
	if err == nil || !strings.Contains(err.Error(), "player 7: disk I/O error") {
		t.Errorf("Cycle() error = %v, want the player 7 failure", err)
	}
	if n != 1 || len(src.inserted) != 1 || src.inserted[0].EventType != "trade" {
		t.Errorf("Cycle() stored %d, inserted %+v; player 1 should still be analyzed", n, src.inserted)
	}
}

func TestEngineCycleAgainstStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite:///"+t.TempDir()+"/engine.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	p := &model.Player{Name: "Travis Kelce", Team: "KC", Position: "TE"}
	if err := s.CreatePlayer(ctx, p); err != nil {
		t.Fatal(err)
	}
	for i, d := range []string{"2025-03-01", "2025-06-01", "2025-09-01"} {
		ev := day(d)
		if err := s.CreateEvent(ctx, &model.LifeEvent{PlayerID: p.ID, Type: model.EventPositive, Category: "contract", Date: ev}); err != nil {
			t.Fatal(err)
		}
		for _, g := range []model.GameStats{
			{PlayerID: p.ID, GameDate: ev.AddDate(0, 0, -30), FantasyPoints: float64(8 + i)},
			{PlayerID: p.ID, GameDate: ev.AddDate(0, 0, 30), FantasyPoints: float64(18 + 2*i)},
		} {
			if err := s.CreateStats(ctx, &g); err != nil {
				t.Fatal(err)
			}
		}
	}

	e := &Engine{Store: s, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	if n, err := e.Cycle(ctx); err != nil || n != 1 {
		t.Fatalf("Cycle() = %d, %v", n, err)
	}
	got, err := s.LatestCorrelations(ctx, p.ID)
	if err != nil || len(got) != 1 {
		t.Fatalf("LatestCorrelations() = %+v, %v", got, err)
	}
	if got[0].EventType != "contract" || got[0].MeanBefore != 9 || got[0].MeanAfter != 20 {
		t.Errorf("stored = %+v", got[0])
	}
}
