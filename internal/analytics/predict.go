// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package analytics

import (
	"fmt"

	"gridwatch/internal/model"
)

// Recommendations produced by Predict.
const (
	StrongOver  = "STRONG OVER"
	LeanOver    = "LEAN OVER"
	Hold        = "HOLD"
	LeanUnder   = "LEAN UNDER"
	StrongUnder = "STRONG UNDER"
)

const (
	positiveEventBoost = 0.12
	negativeEventCut   = 0.08
	averageRank        = 16
	rankStep           = 0.02
	toughRank          = 10
	favorableRank      = 23
	strongHistory      = 1.15
	weakHistory        = 0.85
	crossSeasonPenalty = 0.85
)

// Prediction is a projection for one upcoming game.
type Prediction struct {
	BaseProjection     float64
	EventAdjustment    float64
	OpponentAdjustment float64
	FinalProjection    float64
	PropLine           *float64
	Confidence         int
	Recommendation     string
	Factors            []string
}

// Predict projects the player's yards for game. stats must be in ascending
// date order; defense is nil when no row matches the game's opponent, season
// and week.
func Predict(player model.Player, game model.UpcomingGame, events []model.LifeEvent, stats []model.GameStats, defense *model.TeamDefense, history []model.VsTeamGame) Prediction {
	p := Prediction{Recommendation: Hold}
	if len(stats) == 0 {
		return p
	}

	catcher := player.IsPassCatcher()
	yards := func(recv, rush int) float64 {
		if catcher {
			return float64(recv)
		}
		return float64(rush)
	}

	var base float64
	for _, s := range stats {
		base += yards(s.ReceivingYards, s.RushingYards)
	}
	base /= float64(len(stats))
	p.BaseProjection = base

	var impact float64
	recent := 0
	for _, e := range events {
		days := daysBetween(game.GameDate, e.Date)
		if days < 0 || days > 7 {
			continue
		}
		recent++
		mark := "❌"
		if e.Type == model.EventPositive {
			impact += positiveEventBoost
			mark = "✅"
		} else {
			impact -= negativeEventCut
		}
		p.Factors = append(p.Factors, fmt.Sprintf("%s %s (%dd ago)", mark, e.Category, days))
	}
	if recent > 0 {
		p.EventAdjustment = base * impact
	}

	if defense != nil {
		rank, kind := defense.RushDefenseRank, "run"
		if catcher {
			rank, kind = defense.PassDefenseRank, "pass"
		}
		p.OpponentAdjustment = base * float64(rank-averageRank) * rankStep
		switch {
		case rank <= toughRank:
			p.Factors = append(p.Factors, fmt.Sprintf("🛡️ Tough matchup (#%d %s defense)", rank, kind))
		case rank >= favorableRank:
			p.Factors = append(p.Factors, fmt.Sprintf("🎯 Favorable matchup (#%d %s defense)", rank, kind))
		}
	}

	if len(history) > 0 {
		var sum float64
		for _, h := range history {
			sum += yards(h.ReceivingYards, h.RushingYards)
		}
		avg := sum / float64(len(history))
		switch {
		case avg > base*strongHistory:
			p.Factors = append(p.Factors, fmt.Sprintf("📈 Strong history vs %s (%d games)", game.Opponent, len(history)))
		case avg < base*weakHistory:
			p.Factors = append(p.Factors, fmt.Sprintf("📉 Struggles vs %s (%d games)", game.Opponent, len(history)))
		}
	}

	p.FinalProjection = Round(base+p.EventAdjustment+p.OpponentAdjustment, 1)

	if recent > 0 {
		p.Confidence += 25
	}
	if defense != nil {
		p.Confidence += 35
	}
	if len(history) > 0 {
		p.Confidence += 20
	}
	if len(stats) >= 5 {
		p.Confidence += 20
	}

	p.PropLine = game.PropRushYards
	if catcher {
		p.PropLine = game.PropReceivingYards
	}
	if p.PropLine != nil && *p.PropLine != 0 {
		p.Recommendation = recommend(p.FinalProjection-*p.PropLine, p.Confidence)
	}

	if year := stats[0].GameDate.Year(); year != game.Season {
		p.Confidence = int(float64(p.Confidence) * crossSeasonPenalty)
		p.Factors = append(p.Factors, fmt.Sprintf("⚠️ Cross-season baseline (%d→%d)", year, game.Season))
	}
	return p
}

func recommend(diff float64, confidence int) string {
	switch {
	case diff >= 8 && confidence >= 60:
		return StrongOver
	case diff >= 4:
		return LeanOver
	case diff <= -8 && confidence >= 60:
		return StrongUnder
	case diff <= -4:
		return LeanUnder
	default:
		return Hold
	}
}
