package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/profile"
)

const defaultBallsPerOver = 6

// IngestScope limits ingestion to the target formats. Empty lists allow any value.
type IngestScope struct {
	MatchTypes []string
	TeamTypes  []string
	Genders    []string
}

func (s IngestScope) Allows(doc SourceMatch) bool {
	return containsFold(s.MatchTypes, doc.MatchType) &&
		containsFold(s.TeamTypes, doc.TeamType) &&
		containsFold(s.Genders, doc.Gender)
}

func containsFold(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	v = strings.TrimSpace(v)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

// MatchNormalizer converts a decoded document into a resolved, validated
// match graph ready for a single atomic insert.
type MatchNormalizer struct {
	scope IngestScope
}

func NewMatchNormalizer(scope IngestScope) *MatchNormalizer {
	return &MatchNormalizer{scope: scope}
}

// Normalize returns ErrOutOfScope for documents outside the target scope,
// *UnresolvedError when any name cannot be resolved and *ValidationError
// when the document is internally inconsistent.
func (n *MatchNormalizer) Normalize(run *ResolverRun, doc SourceMatch) (match.Graph, error) {
	if !n.scope.Allows(doc) {
		return match.Graph{}, fmt.Errorf("%w: document %s is %s %s %s", ErrOutOfScope, doc.Key, doc.Gender, doc.TeamType, doc.MatchType)
	}
	if len(doc.Teams) != 2 {
		return match.Graph{}, invalidDoc(doc.Key, "info.teams", fmt.Sprintf("expected 2 teams, got %d", len(doc.Teams)))
	}
	if profile.NormalizeName(doc.Teams[0]) == profile.NormalizeName(doc.Teams[1]) {
		return match.Graph{}, invalidDoc(doc.Key, "info.teams", fmt.Sprintf("team %q listed twice", doc.Teams[0]))
	}
	if len(doc.Dates) == 0 {
		return match.Graph{}, invalidDoc(doc.Key, "info.dates", "at least one date is required")
	}

	r := newDocResolver(run, doc)
	r.teams()
	venueID := r.venue()

	m := match.Match{
		ID:               doc.Key,
		Category:         doc.Category(),
		TeamType:         doc.TeamType,
		Season:           doc.Season,
		StartDate:        doc.Dates[0],
		EndDate:          doc.Dates[len(doc.Dates)-1],
		VenueID:          venueID,
		Team1ID:          r.teamIDs[doc.Teams[0]],
		Team2ID:          r.teamIDs[doc.Teams[1]],
		TossDecision:     doc.TossDecision,
		EventName:        doc.EventName,
		EventMatchNumber: doc.EventMatchNo,
		Overs:            doc.Overs,
		BallsPerOver:     doc.BallsPerOver,
		DataVersion:      doc.DataVersion,
		SourcePath:       doc.Path,
	}
	if m.BallsPerOver == 0 {
		m.BallsPerOver = defaultBallsPerOver
	}

	var err error
	if m.TossWinnerID, err = r.teamRef("info.toss.winner", doc.TossWinner); err != nil {
		return match.Graph{}, err
	}
	if m.Result, err = r.result(); err != nil {
		return match.Graph{}, err
	}
	if len(doc.PlayerOfMatch) > 0 {
		name := doc.PlayerOfMatch[0]
		m.PlayerOfMatchID = r.person(profile.KindPlayer, name, r.teamOf(name))
	}

	graph := match.Graph{Match: m}
	graph.Officials = r.officials()
	graph.Players = r.players()

	for i, si := range doc.Innings {
		inn, deliveries, err := r.innings(i+1, si)
		if err != nil {
			return match.Graph{}, err
		}
		graph.Innings = append(graph.Innings, inn)
		graph.Deliveries = append(graph.Deliveries, deliveries...)
	}

	if len(r.unresolved) > 0 {
		return match.Graph{}, &UnresolvedError{DocumentKey: doc.Key, Names: r.unresolvedNames()}
	}

	if err := graph.Finalize(); err != nil {
		var invariant *match.InvariantError
		if errors.As(err, &invariant) {
			return match.Graph{}, &ValidationError{DocumentKey: doc.Key, Field: invariant.Field, Reason: invariant.Reason, Err: err}
		}
		return match.Graph{}, &ValidationError{DocumentKey: doc.Key, Field: "document", Reason: "finalize graph", Err: err}
	}
	return graph, nil
}

func invalidDoc(key, field, reason string) *ValidationError {
	return &ValidationError{DocumentKey: key, Field: field, Reason: reason}
}

type resolveKey struct {
	namespace string
	name      string
	teamID    string
}

// docResolver resolves the names of one document and collects every name it
// could not resolve instead of stopping at the first.
type docResolver struct {
	run        *ResolverRun
	doc        SourceMatch
	teamIDs    map[string]string
	cache      map[resolveKey]string
	unresolved map[string]UnresolvedName
}

func newDocResolver(run *ResolverRun, doc SourceMatch) *docResolver {
	return &docResolver{
		run:        run,
		doc:        doc,
		teamIDs:    make(map[string]string, 2),
		cache:      make(map[resolveKey]string),
		unresolved: make(map[string]UnresolvedName),
	}
}

func (r *docResolver) teams() {
	for _, name := range r.doc.Teams {
		res := r.run.Resolve(profile.KindTeam, name, profile.Hints{Scope: r.doc.Gender, Date: r.doc.StartDate()})
		if !res.Resolved() {
			r.miss(profile.KindTeam, name, r.doc.Gender, "", res.Candidates)
			continue
		}
		r.teamIDs[name] = res.ID
	}
}

// venue tries the recorded name first, then the name without a trailing
// ", <city>" suffix.
func (r *docResolver) venue() string {
	if strings.TrimSpace(r.doc.Venue) == "" {
		return ""
	}
	hints := profile.Hints{Scope: r.doc.City, Date: r.doc.StartDate()}
	res := r.run.Resolve(profile.KindVenue, r.doc.Venue, hints)
	if !res.Resolved() && r.doc.City != "" {
		suffix := ", " + strings.ToLower(strings.TrimSpace(r.doc.City))
		if strings.HasSuffix(strings.ToLower(r.doc.Venue), suffix) {
			short := strings.TrimSpace(r.doc.Venue[:len(r.doc.Venue)-len(suffix)])
			if alt := r.run.Resolve(profile.KindVenue, short, hints); alt.Resolved() {
				res = alt
			}
		}
	}
	if !res.Resolved() {
		r.miss(profile.KindVenue, r.doc.Venue, r.doc.City, "", res.Candidates)
		return ""
	}
	return res.ID
}

// teamRef maps a team name used inside the document to one of the two match teams.
func (r *docResolver) teamRef(field, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	for _, team := range r.doc.Teams {
		if team == name {
			return r.teamIDs[team], nil
		}
	}
	return "", invalidDoc(r.doc.Key, field, fmt.Sprintf("team %q is not playing", name))
}

func (r *docResolver) otherTeam(name string) string {
	if name == r.doc.Teams[0] {
		return r.doc.Teams[1]
	}
	return r.doc.Teams[0]
}

// teamOf returns the team a person is listed for, or "" when not listed.
func (r *docResolver) teamOf(name string) string {
	for _, team := range r.doc.Teams {
		for _, p := range r.doc.Players[team] {
			if p == name {
				return team
			}
		}
	}
	return ""
}

func (r *docResolver) person(kind profile.Kind, name, teamName string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	teamID := r.teamIDs[teamName]
	key := resolveKey{namespace: kind.Namespace(), name: name, teamID: teamID}
	if id, ok := r.cache[key]; ok {
		return id
	}

	hints := profile.Hints{Key: r.doc.Registry[name], TeamID: teamID, Date: r.doc.StartDate()}
	res := r.run.Resolve(kind, name, hints)
	if !res.Resolved() {
		r.miss(kind, name, "", hints.Key, res.Candidates)
		r.cache[key] = ""
		return ""
	}
	r.cache[key] = res.ID
	return res.ID
}

func (r *docResolver) miss(kind profile.Kind, name, scope, hintKey string, candidates []string) {
	id := kind.Namespace() + ":" + profile.NormalizeName(name)
	if _, ok := r.unresolved[id]; ok {
		return
	}
	r.unresolved[id] = UnresolvedName{Kind: kind, Name: name, Scope: scope, Key: hintKey, Candidates: candidates}
}

func (r *docResolver) unresolvedNames() []UnresolvedName {
	out := make([]UnresolvedName, 0, len(r.unresolved))
	for _, n := range r.unresolved {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *docResolver) result() (match.Result, error) {
	o := r.doc.Outcome
	res := match.Result{
		ByRuns:    o.ByRuns,
		ByWickets: o.ByWickets,
		ByInnings: o.ByInnings,
		Method:    o.Method,
	}

	switch strings.ToLower(strings.TrimSpace(o.Result)) {
	case "":
		if o.Winner == "" {
			return match.Result{}, invalidDoc(r.doc.Key, "info.outcome", "neither winner nor result recorded")
		}
		res.Kind = match.ResultWin
	case "tie":
		res.Kind = match.ResultTie
	case "no result":
		res.Kind = match.ResultNoResult
	case "draw":
		res.Kind = match.ResultDraw
	default:
		return match.Result{}, invalidDoc(r.doc.Key, "info.outcome.result", fmt.Sprintf("unknown result %q", o.Result))
	}

	winner := o.Winner
	switch {
	case o.Eliminator != "":
		winner = o.Eliminator
		res.SuperOver = true
	case o.BowlOut != "":
		winner = o.BowlOut
		res.BowlOut = true
	}
	id, err := r.teamRef("info.outcome.winner", winner)
	if err != nil {
		return match.Result{}, err
	}
	res.WinnerID = id
	return res, nil
}

func (r *docResolver) officials() []match.Official {
	out := make([]match.Official, 0, len(r.doc.Officials))
	seq := make(map[string]int)
	for _, o := range r.doc.Officials {
		seq[o.Role]++
		out = append(out, match.Official{
			Role:     o.Role,
			Seq:      seq[o.Role],
			PersonID: r.person(profile.KindOfficial, o.Name, ""),
		})
	}
	return out
}

// players lists each squad member once per team, even when the document
// repeats a name or two spellings resolve to the same person.
func (r *docResolver) players() []match.Player {
	var out []match.Player
	seen := make(map[match.Player]struct{})
	for _, team := range r.doc.Teams {
		for _, name := range r.doc.Players[team] {
			p := match.Player{
				TeamID:   r.teamIDs[team],
				PersonID: r.person(profile.KindPlayer, name, team),
			}
			if p.PersonID == "" {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func (r *docResolver) innings(number int, si SourceInnings) (match.Innings, []match.Delivery, error) {
	field := fmt.Sprintf("innings[%d]", number)
	batting, err := r.teamRef(field+".team", si.Team)
	if err != nil {
		return match.Innings{}, nil, err
	}
	if si.Team == "" {
		return match.Innings{}, nil, invalidDoc(r.doc.Key, field+".team", "batting team is required")
	}
	bowlingTeam := r.otherTeam(si.Team)

	inn := match.Innings{
		Number:        number,
		Phase:         match.PhaseRegulation,
		BattingTeamID: batting,
		BowlingTeamID: r.teamIDs[bowlingTeam],
		PenaltyPre:    si.PenaltyPre,
		PenaltyPost:   si.PenaltyPost,
		Forfeited:     si.Forfeited,
	}
	if si.SuperOver {
		inn.Phase = match.PhaseSuperOver
	}
	if si.Target != nil {
		inn.Target = &match.Target{Runs: si.Target.Runs, Overs: si.Target.Overs}
	}

	seq := match.NewBallSequencer(number)
	var deliveries []match.Delivery
	for _, over := range si.Overs {
		for _, sd := range over.Deliveries {
			d := match.Delivery{
				BatterID:     r.person(profile.KindPlayer, sd.Batter, si.Team),
				NonStrikerID: r.person(profile.KindPlayer, sd.NonStriker, si.Team),
				BowlerID:     r.person(profile.KindPlayer, sd.Bowler, bowlingTeam),
				RunsBatter:   sd.RunsBatter,
				RunsExtras:   sd.RunsExtras,
				RunsTotal:    sd.RunsTotal,
				NonBoundary:  sd.NonBoundary,
				Extras:       sd.Extras,
			}
			d.Key = seq.Next(over.Number, d.Legal())

			if sd.Review != nil {
				review, err := r.review(d.Key, si.Team, *sd.Review)
				if err != nil {
					return match.Innings{}, nil, err
				}
				d.Review = review
			}
			for i, w := range sd.Wickets {
				if !match.IsDismissalKind(w.Kind) {
					return match.Innings{}, nil, invalidDoc(r.doc.Key, "delivery["+d.Key.String()+"].wickets.kind", fmt.Sprintf("unknown dismissal kind %q", w.Kind))
				}
				dismissal := match.Dismissal{
					Seq:         i + 1,
					Kind:        w.Kind,
					PlayerOutID: r.person(profile.KindPlayer, w.PlayerOut, si.Team),
				}
				for _, f := range w.Fielders {
					if strings.TrimSpace(f.Name) == "" {
						continue
					}
					dismissal.Fielders = append(dismissal.Fielders, match.Fielder{
						PersonID:   r.person(profile.KindPlayer, f.Name, bowlingTeam),
						Substitute: f.Substitute,
					})
				}
				d.Dismissals = append(d.Dismissals, dismissal)
			}
			deliveries = append(deliveries, d)
		}
	}
	return inn, deliveries, nil
}

func (r *docResolver) review(key match.DeliveryKey, battingTeam string, sr SourceReview) (*match.Review, error) {
	by, err := r.teamRef("delivery["+key.String()+"].review.by", sr.By)
	if err != nil {
		return nil, err
	}
	return &match.Review{
		ByTeamID: by,
		UmpireID: r.person(profile.KindOfficial, sr.Umpire, ""),
		BatterID: r.person(profile.KindPlayer, sr.Batter, battingTeam),
		Decision: sr.Decision,
		Type:     sr.Type,
	}, nil
}
