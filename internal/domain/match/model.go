package match

import (
	"fmt"
	"strings"
	"time"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Category is the (gender, format) pair a match is scoped by.
type Category struct {
	Gender string
	Format string
}

func (c Category) String() string {
	return c.Gender + "/" + c.Format
}

func (c Category) IsZero() bool {
	return c.Gender == "" && c.Format == ""
}

// ParseCategory reads the "gender/format" form produced by String.
func ParseCategory(raw string) (Category, error) {
	gender, format, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return Category{}, fmt.Errorf("invalid category %q, expected gender/format", raw)
	}
	gender = strings.ToLower(strings.TrimSpace(gender))
	format = strings.ToUpper(strings.TrimSpace(format))
	if gender != GenderMale && gender != GenderFemale {
		return Category{}, fmt.Errorf("invalid category gender %q", gender)
	}
	if format == "" {
		return Category{}, fmt.Errorf("invalid category %q: empty format", raw)
	}
	return Category{Gender: gender, Format: format}, nil
}

type Phase string

const (
	PhaseRegulation Phase = "regulation"
	PhaseSuperOver  Phase = "super_over"
)

type ResultKind string

const (
	ResultWin      ResultKind = "win"
	ResultTie      ResultKind = "tie"
	ResultNoResult ResultKind = "no_result"
	ResultDraw     ResultKind = "draw"
)

// Result describes how a match ended. WinnerID is empty unless Kind is win,
// or the match was tied and then decided by a super over or bowl-out.
type Result struct {
	Kind      ResultKind
	WinnerID  string
	ByRuns    int
	ByWickets int
	ByInnings int
	Method    string
	SuperOver bool
	BowlOut   bool
}

type Match struct {
	ID               string
	Category         Category
	TeamType         string
	Season           string
	StartDate        time.Time
	EndDate          time.Time
	VenueID          string
	Team1ID          string
	Team2ID          string
	TossWinnerID     string
	TossDecision     string
	Result           Result
	PlayerOfMatchID  string
	EventName        string
	EventMatchNumber int
	Overs            int
	BallsPerOver     int
	DataVersion      string
	SourcePath       string
}

func (m Match) HasTeam(teamID string) bool {
	return teamID != "" && (teamID == m.Team1ID || teamID == m.Team2ID)
}

// Opponent returns the other team of the match, or "" when teamID is not playing.
func (m Match) Opponent(teamID string) string {
	switch teamID {
	case m.Team1ID:
		return m.Team2ID
	case m.Team2ID:
		return m.Team1ID
	default:
		return ""
	}
}

const (
	RoleUmpire        = "umpire"
	RoleTVUmpire      = "tv_umpire"
	RoleReserveUmpire = "reserve_umpire"
	RoleMatchReferee  = "match_referee"
)

type Official struct {
	Role     string
	Seq      int
	PersonID string
}

type Player struct {
	TeamID   string
	PersonID string
}

type Target struct {
	Runs  int
	Overs float64
}

type Innings struct {
	Number        int
	Phase         Phase
	BattingTeamID string
	BowlingTeamID string
	Runs          int
	Wickets       int
	LegalBalls    int
	Extras        int
	PenaltyPre    int
	PenaltyPost   int
	Target        *Target
	Forfeited     bool
}

// DeliveryKey identifies a delivery within a match. Ball is the legal-ball
// number the delivery was bowled at; Sub separates deliveries sharing a ball
// (wides and no-balls followed by the re-bowled legal ball).
type DeliveryKey struct {
	Innings int
	Over    int
	Ball    int
	Sub     int
}

func (k DeliveryKey) String() string {
	return fmt.Sprintf("%d:%d.%d/%d", k.Innings, k.Over, k.Ball, k.Sub)
}

type Extras struct {
	Wides   int
	NoBalls int
	Byes    int
	LegByes int
	Penalty int
}

func (e Extras) Total() int {
	return e.Wides + e.NoBalls + e.Byes + e.LegByes + e.Penalty
}

type Review struct {
	ByTeamID string
	UmpireID string
	BatterID string
	Decision string
	Type     string
}

type Fielder struct {
	PersonID   string
	Substitute bool
}

type Dismissal struct {
	Seq         int
	Kind        string
	PlayerOutID string
	Fielders    []Fielder
}

// CountsAsWicket is false for retirements that do not end the batter's innings as a dismissal.
func (d Dismissal) CountsAsWicket() bool {
	switch d.Kind {
	case DismissalRetiredHurt, DismissalRetiredNotOut:
		return false
	default:
		return true
	}
}

type Delivery struct {
	Key          DeliveryKey
	BatterID     string
	NonStrikerID string
	BowlerID     string
	RunsBatter   int
	RunsExtras   int
	RunsTotal    int
	NonBoundary  bool
	Extras       Extras
	Review       *Review
	Dismissals   []Dismissal
}

// Legal reports whether the delivery consumed a ball of the over.
func (d Delivery) Legal() bool {
	return d.Extras.Wides == 0 && d.Extras.NoBalls == 0
}

// Graph is everything persisted for one match in a single transaction.
type Graph struct {
	Match      Match
	Officials  []Official
	Players    []Player
	Innings    []Innings
	Deliveries []Delivery
}

func (g Graph) DismissalCount() int {
	total := 0
	for _, d := range g.Deliveries {
		total += len(d.Dismissals)
	}
	return total
}

// PersonIDs returns every person referenced by the graph, deduplicated, in first-seen order.
func (g Graph) PersonIDs() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(g.Players)+len(g.Officials))
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(g.Match.PlayerOfMatchID)
	for _, o := range g.Officials {
		add(o.PersonID)
	}
	for _, p := range g.Players {
		add(p.PersonID)
	}
	for _, d := range g.Deliveries {
		add(d.BatterID)
		add(d.NonStrikerID)
		add(d.BowlerID)
		if d.Review != nil {
			add(d.Review.UmpireID)
			add(d.Review.BatterID)
		}
		for _, w := range d.Dismissals {
			add(w.PlayerOutID)
			for _, f := range w.Fielders {
				add(f.PersonID)
			}
		}
	}
	return out
}
