package match

import (
	"fmt"
	"math"
)

const MaxWickets = 10

// Totals is what replaying an innings' deliveries in order produces.
type Totals struct {
	Runs       int
	Wickets    int
	LegalBalls int
	Extras     int
}

// Replay sums deliveries in order, checking each delivery's own runs breakdown.
func Replay(deliveries []Delivery) (Totals, error) {
	var t Totals
	for _, d := range deliveries {
		field := "delivery[" + d.Key.String() + "]"
		if d.RunsExtras != d.Extras.Total() {
			return Totals{}, invariantf(field+".runs.extras", "declared %d, components sum to %d", d.RunsExtras, d.Extras.Total())
		}
		if d.RunsTotal != d.RunsBatter+d.RunsExtras {
			return Totals{}, invariantf(field+".runs.total", "declared %d, batter %d + extras %d", d.RunsTotal, d.RunsBatter, d.RunsExtras)
		}
		if d.Extras.Wides > 0 && d.Extras.NoBalls > 0 {
			return Totals{}, invariantf(field+".extras", "both wide and no-ball recorded")
		}

		t.Runs += d.RunsTotal
		t.Extras += d.RunsExtras
		if d.Legal() {
			t.LegalBalls++
		}
		for _, w := range d.Dismissals {
			if w.CountsAsWicket() {
				t.Wickets++
			}
		}
	}
	return t, nil
}

// Finalize recomputes every innings total from its deliveries and checks the
// graph invariants. Totals already set on an innings are treated as declared
// by the source and must match the replay.
func (g *Graph) Finalize() error {
	if g.Match.Team1ID == "" || g.Match.Team2ID == "" {
		return invariantf("info.teams", "two teams are required")
	}
	if g.Match.Team1ID == g.Match.Team2ID {
		return invariantf("info.teams", "team %s listed twice", g.Match.Team1ID)
	}
	if w := g.Match.Result.WinnerID; w != "" && !g.Match.HasTeam(w) {
		return invariantf("info.outcome.winner", "winner %s is not playing", w)
	}

	byInnings := make(map[int][]Delivery, len(g.Innings))
	seen := make(map[DeliveryKey]struct{}, len(g.Deliveries))
	for _, d := range g.Deliveries {
		if _, dup := seen[d.Key]; dup {
			return invariantf("delivery["+d.Key.String()+"]", "duplicate delivery key")
		}
		seen[d.Key] = struct{}{}
		byInnings[d.Key.Innings] = append(byInnings[d.Key.Innings], d)
	}

	regulation := 0
	for i := range g.Innings {
		inn := &g.Innings[i]
		field := fmt.Sprintf("innings[%d]", inn.Number)
		if inn.Number != i+1 {
			return invariantf(field, "out of sequence at position %d", i+1)
		}
		if !g.Match.HasTeam(inn.BattingTeamID) || inn.BowlingTeamID != g.Match.Opponent(inn.BattingTeamID) {
			return invariantf(field+".team", "batting %s / bowling %s do not match the match teams", inn.BattingTeamID, inn.BowlingTeamID)
		}
		if inn.Phase == PhaseRegulation {
			regulation++
			if regulation > 2 {
				return invariantf(field, "more than two regulation innings")
			}
		}

		deliveries := byInnings[inn.Number]
		delete(byInnings, inn.Number)
		maxOver := g.Match.Overs
		if inn.Phase == PhaseSuperOver {
			maxOver = 1
		}
		for _, d := range deliveries {
			if d.Key.Over < 0 || (maxOver > 0 && d.Key.Over >= maxOver) {
				return invariantf("delivery["+d.Key.String()+"].over", "over %d outside 0..%d", d.Key.Over, maxOver-1)
			}
		}

		totals, err := Replay(deliveries)
		if err != nil {
			return err
		}
		totals.Runs += inn.PenaltyPre + inn.PenaltyPost
		if totals.Wickets > MaxWickets {
			return invariantf(field+".wickets", "%d wickets recorded", totals.Wickets)
		}
		if inn.Runs != 0 && inn.Runs != totals.Runs {
			return invariantf(field+".runs", "declared %d, deliveries sum to %d", inn.Runs, totals.Runs)
		}
		if inn.Wickets != 0 && inn.Wickets != totals.Wickets {
			return invariantf(field+".wickets", "declared %d, deliveries count %d", inn.Wickets, totals.Wickets)
		}

		inn.Runs = totals.Runs
		inn.Wickets = totals.Wickets
		inn.LegalBalls = totals.LegalBalls
		inn.Extras = totals.Extras
	}

	if len(byInnings) > 0 {
		orphan := -1
		for number := range byInnings {
			if orphan == -1 || number < orphan {
				orphan = number
			}
		}
		return invariantf(fmt.Sprintf("innings[%d]", orphan), "deliveries reference a missing innings")
	}

	return g.checkTargets()
}

// checkTargets verifies chase targets that were not adjusted by a rain rule:
// the target must be one more than the previous innings of the same phase.
func (g *Graph) checkTargets() error {
	if g.Match.Result.Method != "" {
		return nil
	}
	for i := 1; i < len(g.Innings); i++ {
		inn := g.Innings[i]
		prev := g.Innings[i-1]
		if inn.Target == nil || prev.Phase != inn.Phase {
			continue
		}
		fullOvers := float64(g.Match.Overs)
		if inn.Phase == PhaseSuperOver {
			fullOvers = 1
		}
		if fullOvers == 0 || math.Abs(inn.Target.Overs-fullOvers) > 1e-9 {
			continue
		}
		if inn.Target.Runs != prev.Runs+1 {
			return invariantf(fmt.Sprintf("innings[%d].target.runs", inn.Number), "declared %d, previous innings scored %d", inn.Target.Runs, prev.Runs)
		}
	}
	return nil
}
