package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/profile"
)

type MatchRepository struct {
	store *Store
}

// InsertGraph checks every key and reference of the graph before storing it.
// Constraint names mirror the postgres schema.
func (r *MatchRepository) InsertGraph(_ context.Context, graph match.Graph) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fault(OpInsertGraph, graph.Match.ID); err != nil {
		return err
	}
	if _, ok := r.store.graphs[graph.Match.ID]; ok {
		return match.ErrAlreadyExists
	}
	if err := r.checkGraph(graph); err != nil {
		return err
	}

	r.store.graphs[graph.Match.ID] = cloneGraph(graph)
	delete(r.store.failures, graph.Match.ID)
	return nil
}

func (r *MatchRepository) checkGraph(graph match.Graph) error {
	m := graph.Match
	refs := []struct {
		table, constraint string
		kind              profile.Kind
		id                string
		required          bool
	}{
		{"matches", "matches_team1_id_fkey", profile.KindTeam, m.Team1ID, true},
		{"matches", "matches_team2_id_fkey", profile.KindTeam, m.Team2ID, true},
		{"matches", "matches_venue_id_fkey", profile.KindVenue, m.VenueID, false},
		{"matches", "matches_toss_winner_id_fkey", profile.KindTeam, m.TossWinnerID, false},
		{"matches", "matches_winner_id_fkey", profile.KindTeam, m.Result.WinnerID, false},
	}
	for _, ref := range refs {
		if ref.id == "" && !ref.required {
			continue
		}
		if !r.known(ref.kind, ref.id) {
			return foreignKeyViolation(ref.table, ref.constraint, ref.id)
		}
	}
	if m.Team1ID == m.Team2ID {
		return &match.ConstraintError{Table: "matches", Constraint: "matches_distinct_teams", Key: m.ID, Code: "23514"}
	}

	for _, personID := range graph.PersonIDs() {
		if !r.known(profile.KindPlayer, personID) {
			return foreignKeyViolation("deliveries", "deliveries_person_fkey", personID)
		}
	}

	players := make(map[match.Player]struct{}, len(graph.Players))
	for _, p := range graph.Players {
		if _, dup := players[p]; dup {
			return &match.ConstraintError{Table: "match_players", Constraint: "match_players_pkey", Key: fmt.Sprintf("(%s, %s, %s)", m.ID, p.TeamID, p.PersonID), Code: "23505"}
		}
		players[p] = struct{}{}
	}

	innings := make(map[int]struct{}, len(graph.Innings))
	for _, inn := range graph.Innings {
		if _, dup := innings[inn.Number]; dup {
			return &match.ConstraintError{Table: "innings", Constraint: "innings_pkey", Key: fmt.Sprintf("(%s, %d)", m.ID, inn.Number), Code: "23505"}
		}
		innings[inn.Number] = struct{}{}
	}

	keys := make(map[match.DeliveryKey]struct{}, len(graph.Deliveries))
	for _, d := range graph.Deliveries {
		if _, ok := innings[d.Key.Innings]; !ok {
			return foreignKeyViolation("deliveries", "deliveries_innings_fkey", d.Key.String())
		}
		if _, dup := keys[d.Key]; dup {
			return &match.ConstraintError{Table: "deliveries", Constraint: "deliveries_pkey", Key: d.Key.String(), Code: "23505"}
		}
		keys[d.Key] = struct{}{}
	}
	return nil
}

func (r *MatchRepository) known(kind profile.Kind, id string) bool {
	_, ok := r.store.entities[entityKey{namespace: kind.Namespace(), id: id}]
	return ok
}

func foreignKeyViolation(table, constraint, key string) *match.ConstraintError {
	return &match.ConstraintError{
		Table:      table,
		Constraint: constraint,
		Key:        key,
		Code:       "23503",
		Detail:     "referenced row is not present",
	}
}

func (r *MatchRepository) Exists(_ context.Context, matchID string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.graphs[matchID]
	return ok, nil
}

// Graph returns a stored graph; tests use it to inspect what was written.
func (r *MatchRepository) Graph(matchID string) (match.Graph, bool) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	g, ok := r.store.graphs[matchID]
	if !ok {
		return match.Graph{}, false
	}
	return cloneGraph(g), true
}

func (r *MatchRepository) Count() int {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.graphs)
}

func (r *MatchRepository) ListKeys(_ context.Context, filter match.KeyFilter) ([]match.Key, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if err := r.store.fault(OpListKeys, ""); err != nil {
		return nil, err
	}

	out := make([]match.Key, 0)
	for _, g := range r.store.graphs {
		m := g.Match
		if !filter.Category.IsZero() && m.Category != filter.Category {
			continue
		}
		if !filter.From.IsZero() && m.StartDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && m.StartDate.After(filter.To) {
			continue
		}
		out = append(out, match.Key{MatchID: m.ID, Category: m.Category, Date: m.StartDate, Team1ID: m.Team1ID, Team2ID: m.Team2ID})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].MatchID < out[j].MatchID
	})
	return out, nil
}

// IntegrityIssues replays stored deliveries and compares them with the
// stored innings totals.
func (r *MatchRepository) IntegrityIssues(_ context.Context) ([]match.IntegrityIssue, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []match.IntegrityIssue
	for _, g := range r.store.graphs {
		m := g.Match
		if m.Team1ID == m.Team2ID {
			out = append(out, match.IntegrityIssue{MatchID: m.ID, Check: "distinct_teams", Detail: "team1 equals team2"})
		}
		if m.Result.WinnerID != "" && m.Result.Kind != match.ResultWin && !m.Result.SuperOver && !m.Result.BowlOut {
			out = append(out, match.IntegrityIssue{MatchID: m.ID, Check: "winner_without_result", Detail: string(m.Result.Kind)})
		}

		byInnings := make(map[int][]match.Delivery)
		for _, d := range g.Deliveries {
			byInnings[d.Key.Innings] = append(byInnings[d.Key.Innings], d)
		}
		for _, inn := range g.Innings {
			totals, err := match.Replay(byInnings[inn.Number])
			if err != nil {
				out = append(out, match.IntegrityIssue{MatchID: m.ID, Innings: inn.Number, Check: "delivery_runs", Detail: err.Error()})
				continue
			}
			if runs := totals.Runs + inn.PenaltyPre + inn.PenaltyPost; runs != inn.Runs {
				out = append(out, match.IntegrityIssue{MatchID: m.ID, Innings: inn.Number, Check: "innings_runs", Detail: fmt.Sprintf("stored %d, deliveries %d", inn.Runs, runs)})
			}
			if totals.Wickets != inn.Wickets {
				out = append(out, match.IntegrityIssue{MatchID: m.ID, Innings: inn.Number, Check: "innings_wickets", Detail: fmt.Sprintf("stored %d, deliveries %d", inn.Wickets, totals.Wickets)})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchID != out[j].MatchID {
			return out[i].MatchID < out[j].MatchID
		}
		if out[i].Innings != out[j].Innings {
			return out[i].Innings < out[j].Innings
		}
		return out[i].Check < out[j].Check
	})
	return out, nil
}

// Corrupt replaces a stored innings; tests use it to exercise IntegrityIssues.
func (r *MatchRepository) Corrupt(matchID string, inn match.Innings) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	g, ok := r.store.graphs[matchID]
	if !ok {
		return
	}
	for i := range g.Innings {
		if g.Innings[i].Number == inn.Number {
			g.Innings[i] = inn
		}
	}
	r.store.graphs[matchID] = g
}

func (r *MatchRepository) RecordFailure(_ context.Context, failure match.IngestFailure) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	failure.Unresolved = append([]string(nil), failure.Unresolved...)
	r.store.failures[failure.DocumentKey] = failure
	return nil
}

func (r *MatchRepository) ListFailures(_ context.Context, disposition match.Disposition) ([]match.IngestFailure, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]match.IngestFailure, 0, len(r.store.failures))
	for _, f := range r.store.failures {
		if disposition != "" && f.Disposition != disposition {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentKey < out[j].DocumentKey })
	return out, nil
}

func cloneGraph(g match.Graph) match.Graph {
	out := match.Graph{
		Match:      g.Match,
		Officials:  append([]match.Official(nil), g.Officials...),
		Players:    append([]match.Player(nil), g.Players...),
		Innings:    make([]match.Innings, len(g.Innings)),
		Deliveries: make([]match.Delivery, len(g.Deliveries)),
	}
	for i, inn := range g.Innings {
		if inn.Target != nil {
			t := *inn.Target
			inn.Target = &t
		}
		out.Innings[i] = inn
	}
	for i, d := range g.Deliveries {
		if d.Review != nil {
			rv := *d.Review
			d.Review = &rv
		}
		dismissals := make([]match.Dismissal, len(d.Dismissals))
		for j, w := range d.Dismissals {
			w.Fielders = append([]match.Fielder(nil), w.Fielders...)
			dismissals[j] = w
		}
		d.Dismissals = dismissals
		out.Deliveries[i] = d
	}
	return out
}
