// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package nflverse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
)

const rosterCSV = "\uFEFFseason,team,position,jersey_number,full_name,gsis_id\n" +
	"2025,KC,QB,15.0,Patrick Mahomes,00-0033873\n" +
	"2025,KC,TE,87,Travis Kelce,00-0030506\n" +
	"2025,NYJ,WR,NA,José Núñez,00-0039999\n" +
	"2025,,,,Free Agent Guy,\n"

const weeklyCSV = "player_id,player_name,position,recent_team,season,week,opponent_team,completions,attempts,passing_yards,passing_tds,interceptions,sacks,sack_fumbles_lost,carries,rushing_yards,rushing_tds,receptions,targets,receiving_yards,receiving_tds,fantasy_points_ppr\n" +
	"00-0030506,T.Kelce,TE,KC,2025,2,PHI,0,0,0,0,0,0,0,0,0,0,8,10,94.0,1,23.4\n" +
	"00-0030506,T.Kelce,TE,KC,2025,1,LAC,0,0,0,0,0,0,0,0,0,0,4,6,47,0,8.7\n" +
	"00-0033873,P.Mahomes,QB,KC,2025,1,LAC,24,39,258,1,0,2,1,6,57,0,0,0,0,0,19.02\n" +
	"00-0033873,P.Mahomes,QB,KC,2025,2,PHI,20,32,188,1,1,4,0,4,30,0,0,0,0,0,12.52\n"

type fixture struct {
	server *httptest.Server
	hits   atomic.Int32
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	f := &fixture{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) client() *Client {
	return New(Options{BaseURL: f.server.URL, Season: 2025, Timeout: 5 * time.Second})
}

func defaultFiles() map[string]string {
	return map[string]string{
		"/rosters/roster_2025.csv":            rosterCSV,
		"/player_stats/player_stats_2025.csv": weeklyCSV,
	}
}

func TestSearchPlayer(t *testing.T) {
	c := newFixture(t, defaultFiles()).client()
	ctx := context.Background()

	tests := []struct {
		query string
		want  []string
	}{
		{"mahomes", []string{"Patrick Mahomes"}},
		{"KELCE", []string{"Travis Kelce"}},
		{"jose nunez", []string{"José Núñez"}},
		{"a", []string{"Patrick Mahomes", "Travis Kelce", "Free Agent Guy"}},
		{"nobody", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := c.SearchPlayer(ctx, tt.query)
			if err != nil {
				t.Fatalf("SearchPlayer() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SearchPlayer() = %+v, want %v", got, tt.want)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("match %d = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestSearchPlayerDefaults(t *testing.T) {
	c := newFixture(t, defaultFiles()).client()
	got, err := c.SearchPlayer(context.Background(), "free agent")
	if err != nil || len(got) != 1 {
		t.Fatalf("SearchPlayer() = %+v, %v", got, err)
	}
	want := PlayerMatch{Name: "Free Agent Guy", Team: "FA", Position: "N/A", JerseyNumber: "N/A"}
	if got[0] != want {
		t.Errorf("SearchPlayer() = %+v, want %+v", got[0], want)
	}

	mahomes, _ := c.SearchPlayer(context.Background(), "mahomes")
	if mahomes[0].JerseyNumber != "15" || mahomes[0].PlayerID != "00-0033873" {
		t.Errorf("Mahomes = %+v", mahomes[0])
	}
}

func TestSearchPlayerEmpty(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	if _, err := c.SearchPlayer(context.Background(), "  "); !apperrors.Is(err, apperrors.Invalid) {
		t.Errorf("SearchPlayer(blank) error = %v", err)
	}
}

func TestGameLog(t *testing.T) {
	c := newFixture(t, defaultFiles()).client()
	lines, err := c.GameLog(context.Background(), "00-0030506", 2025)
	if err != nil {
		t.Fatalf("GameLog() error = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("GameLog() = %d lines", len(lines))
	}
	first := lines[0]
	if first.Week != 1 || first.Opponent != "LAC" || first.Receptions != 4 || first.FantasyPoints != 8.7 {
		t.Errorf("week 1 = %+v", first)
	}
	if !first.GameDate.Equal(time.Date(2025, 9, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("week 1 date = %v", first.GameDate)
	}
	if lines[1].ReceivingYards != 94 || !lines[1].GameDate.Equal(time.Date(2025, 9, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("week 2 = %+v", lines[1])
	}

	qb, _ := c.GameLog(context.Background(), "00-0033873", 2025)
	if qb[0].PassAttempts != 39 || qb[0].Fumbles != 1 || qb[1].Interceptions != 1 {
		t.Errorf("qb lines = %+v", qb)
	}
}

func TestGameLogComputesFantasyWithoutPPRColumn(t *testing.T) {
	files := map[string]string{
		"/player_stats/player_stats_2024.csv": "player_id,week,opponent_team,receptions,receiving_yards,receiving_tds,passing_interceptions\n" +
			"P1,3,BUF,5,50,1,0\n",
	}
	c := newFixture(t, files).client()
	lines, err := c.GameLog(context.Background(), "P1", 2024)
	if err != nil || len(lines) != 1 {
		t.Fatalf("GameLog() = %+v, %v", lines, err)
	}
	if lines[0].FantasyPoints != 16 {
		t.Errorf("FantasyPoints = %v, want 16", lines[0].FantasyPoints)
	}
	if !lines[0].GameDate.Equal(time.Date(2024, 9, 19, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("GameDate = %v", lines[0].GameDate)
	}
}

func TestEstimateGameDate(t *testing.T) {
	tests := []struct {
		season, week int
		want         string
	}{
		{2025, 1, "2025-09-04"},
		{2025, 3, "2025-09-18"},
		{2024, 1, "2024-09-05"},
		{2023, 2, "2023-09-12"},
	}
	for _, tt := range tests {
		if got := EstimateGameDate(tt.season, tt.week).Format(model.DateLayout); got != tt.want {
			t.Errorf("EstimateGameDate(%d, %d) = %s, want %s", tt.season, tt.week, got, tt.want)
		}
	}
}

func TestFantasyPoints(t *testing.T) {
	tests := []struct {
		name string
		g    model.GameStats
		want float64
	}{
		{"receiver", model.GameStats{Receptions: 7, ReceivingYards: 85, ReceivingTDs: 1}, 21.5},
		{"rusher", model.GameStats{RushingYards: 112, RushingTDs: 2, Receptions: 2, ReceivingYards: 9, Fumbles: 1}, 24.1},
		{"passer", model.GameStats{PassingYards: 287, PassingTDs: 3, Interceptions: 1, RushingYards: 14}, 22.88},
		{"empty", model.GameStats{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FantasyPoints(tt.g); got != tt.want {
				t.Errorf("FantasyPoints() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheAndFingerprint(t *testing.T) {
	f := newFixture(t, defaultFiles())
	c := f.client()
	ctx := context.Background()

	fp1, err := c.WeeklyFingerprint(ctx, 2025)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.GameLog(ctx, "00-0030506", 2025); err != nil {
		t.Fatal(err)
	}
	if n := f.hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1 (cached)", n)
	}

	c.now = func() time.Time { return time.Now().Add(2 * DefaultTTL) }
	fp2, _ := c.WeeklyFingerprint(ctx, 2025)
	if n := f.hits.Load(); n != 2 {
		t.Errorf("server hits after TTL = %d, want 2", n)
	}
	if fp1 != fp2 || fp1 == 0 {
		t.Errorf("fingerprints %x / %x should match and be non-zero", fp1, fp2)
	}
}

func TestMissingSeasonIsNotFound(t *testing.T) {
	c := newFixture(t, defaultFiles()).client()
	_, err := c.Roster(context.Background(), 2031)
	if !apperrors.Is(err, apperrors.NotFound) {
		t.Errorf("Roster(2031) error = %v, want not_found", err)
	}
}

func TestServerErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, Season: 2025})
	_, err := c.SearchPlayer(context.Background(), "kelce")
	if !apperrors.Is(err, apperrors.Upstream) {
		t.Errorf("SearchPlayer() error = %v, want upstream", err)
	}
	if !strings.Contains(err.Error(), "status 502") {
		t.Errorf("error %q lacks status", err)
	}
}

func TestFoldName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"José Núñez", "jose nunez"},
		{"  D'ANDRE  ", "d'andre"},
		{"Ja'Marr Chase", "ja'marr chase"},
	}
	for _, tt := range tests {
		if got := FoldName(tt.in); got != tt.want {
			t.Errorf("FoldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
