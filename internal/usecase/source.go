package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/cricbase/internal/domain/match"
)

// SourceFile is one match document as read from disk. Body is loaded lazily
// by the pipeline when empty.
type SourceFile struct {
	Key  string
	Path string
	Body []byte
}

// DocumentDecoder turns raw bytes into the validated intermediate form.
// Malformed input returns *ValidationError.
type DocumentDecoder interface {
	Decode(file SourceFile) (SourceMatch, error)
}

// SourceMatch is the strict intermediate representation of a match document.
// Names are still raw; the normalizer resolves them.
type SourceMatch struct {
	Key           string
	Path          string
	DataVersion   string
	Gender        string
	MatchType     string
	TeamType      string
	Season        string
	Dates         []time.Time
	Teams         []string
	Venue         string
	City          string
	EventName     string
	EventMatchNo  int
	Overs         int
	BallsPerOver  int
	TossWinner    string
	TossDecision  string
	Outcome       SourceOutcome
	PlayerOfMatch []string
	Officials     []SourceOfficial
	Players       map[string][]string
	Registry      map[string]string
	Innings       []SourceInnings
}

// Category is the scope the document claims to belong to.
func (m SourceMatch) Category() match.Category {
	return match.Category{Gender: m.Gender, Format: m.MatchType}
}

func (m SourceMatch) StartDate() time.Time {
	if len(m.Dates) == 0 {
		return time.Time{}
	}
	return m.Dates[0]
}

type SourceOutcome struct {
	Winner     string
	Result     string
	Method     string
	Eliminator string
	BowlOut    string
	ByRuns     int
	ByWickets  int
	ByInnings  int
}

type SourceOfficial struct {
	Role string
	Name string
}

type SourceTarget struct {
	Runs  int
	Overs float64
}

type SourceInnings struct {
	Team        string
	SuperOver   bool
	Forfeited   bool
	PenaltyPre  int
	PenaltyPost int
	Target      *SourceTarget
	Overs       []SourceOver
}

type SourceOver struct {
	Number     int
	Deliveries []SourceDelivery
}

type SourceDelivery struct {
	Batter      string
	NonStriker  string
	Bowler      string
	RunsBatter  int
	RunsExtras  int
	RunsTotal   int
	NonBoundary bool
	Extras      match.Extras
	Review      *SourceReview
	Wickets     []SourceWicket
}

type SourceReview struct {
	By       string
	Umpire   string
	Batter   string
	Decision string
	Type     string
}

type SourceWicket struct {
	Kind      string
	PlayerOut string
	Fielders  []SourceFielder
}

type SourceFielder struct {
	Name       string
	Substitute bool
}

// ScheduleSource is the external authoritative fixture list.
type ScheduleSource interface {
	FetchSchedulePage(ctx context.Context, query ScheduleQuery) (SchedulePage, error)
}

type ScheduleQuery struct {
	Category match.Category
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

type ScheduledMatch struct {
	ExternalID string
	Category   match.Category
	Date       time.Time
	Team1      string
	Team2      string
	Venue      string
	Status     string
}

type SchedulePage struct {
	Entries    []ScheduledMatch
	Page       int
	TotalPages int
	Raw        []byte
}

// HasMore reports whether another page follows this one.
func (p SchedulePage) HasMore() bool {
	return p.Page < p.TotalPages
}
