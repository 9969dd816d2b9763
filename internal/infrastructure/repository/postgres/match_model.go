package postgres

import (
	"time"

	"github.com/lib/pq"
)

type matchInsertModel struct {
	ID               string    `db:"id"`
	Gender           string    `db:"gender"`
	Format           string    `db:"format"`
	TeamType         string    `db:"team_type"`
	Season           string    `db:"season"`
	StartDate        time.Time `db:"start_date"`
	EndDate          time.Time `db:"end_date"`
	VenueID          *string   `db:"venue_id"`
	Team1ID          string    `db:"team1_id"`
	Team2ID          string    `db:"team2_id"`
	TossWinnerID     *string   `db:"toss_winner_id"`
	TossDecision     string    `db:"toss_decision"`
	ResultKind       string    `db:"result_kind"`
	WinnerID         *string   `db:"winner_id"`
	ByRuns           int       `db:"by_runs"`
	ByWickets        int       `db:"by_wickets"`
	ByInnings        int       `db:"by_innings"`
	ResultMethod     string    `db:"result_method"`
	SuperOver        bool      `db:"super_over"`
	BowlOut          bool      `db:"bowl_out"`
	PlayerOfMatchID  *string   `db:"player_of_match_id"`
	EventName        string    `db:"event_name"`
	EventMatchNumber int       `db:"event_match_number"`
	Overs            int       `db:"overs"`
	BallsPerOver     int       `db:"balls_per_over"`
	DataVersion      string    `db:"data_version"`
	SourcePath       string    `db:"source_path"`
}

type officialInsertModel struct {
	MatchID  string `db:"match_id"`
	Role     string `db:"role"`
	Seq      int    `db:"seq"`
	PersonID string `db:"person_id"`
}

type playerInsertModel struct {
	MatchID  string `db:"match_id"`
	TeamID   string `db:"team_id"`
	PersonID string `db:"person_id"`
}

type inningsInsertModel struct {
	MatchID       string   `db:"match_id"`
	Number        int      `db:"number"`
	Phase         string   `db:"phase"`
	BattingTeamID string   `db:"batting_team_id"`
	BowlingTeamID string   `db:"bowling_team_id"`
	Runs          int      `db:"runs"`
	Wickets       int      `db:"wickets"`
	LegalBalls    int      `db:"legal_balls"`
	Extras        int      `db:"extras"`
	PenaltyPre    int      `db:"penalty_pre"`
	PenaltyPost   int      `db:"penalty_post"`
	TargetRuns    *int     `db:"target_runs"`
	TargetOvers   *float64 `db:"target_overs"`
	Forfeited     bool     `db:"forfeited"`
}

type deliveryInsertModel struct {
	MatchID        string  `db:"match_id"`
	Innings        int     `db:"innings"`
	Over           int     `db:"over_number"`
	Ball           int     `db:"ball"`
	Sub            int     `db:"sub"`
	BatterID       string  `db:"batter_id"`
	NonStrikerID   string  `db:"non_striker_id"`
	BowlerID       string  `db:"bowler_id"`
	RunsBatter     int     `db:"runs_batter"`
	RunsExtras     int     `db:"runs_extras"`
	RunsTotal      int     `db:"runs_total"`
	NonBoundary    bool    `db:"non_boundary"`
	Wides          int     `db:"wides"`
	NoBalls        int     `db:"noballs"`
	Byes           int     `db:"byes"`
	LegByes        int     `db:"legbyes"`
	Penalty        int     `db:"penalty"`
	ReviewByTeamID *string `db:"review_by_team_id"`
	ReviewUmpireID *string `db:"review_umpire_id"`
	ReviewBatterID *string `db:"review_batter_id"`
	ReviewDecision *string `db:"review_decision"`
	ReviewType     *string `db:"review_type"`
}

type dismissalInsertModel struct {
	MatchID        string `db:"match_id"`
	Innings        int    `db:"innings"`
	Over           int    `db:"over_number"`
	Ball           int    `db:"ball"`
	Sub            int    `db:"sub"`
	Seq            int    `db:"seq"`
	Kind           string `db:"kind"`
	PlayerOutID    string `db:"player_out_id"`
	CountsAsWicket bool   `db:"counts_as_wicket"`
}

type fielderInsertModel struct {
	MatchID      string `db:"match_id"`
	Innings      int    `db:"innings"`
	Over         int    `db:"over_number"`
	Ball         int    `db:"ball"`
	Sub          int    `db:"sub"`
	DismissalSeq int    `db:"dismissal_seq"`
	FielderSeq   int    `db:"fielder_seq"`
	PersonID     string `db:"person_id"`
	Substitute   bool   `db:"substitute"`
}

type matchKeyTableModel struct {
	ID        string    `db:"id"`
	Gender    string    `db:"gender"`
	Format    string    `db:"format"`
	StartDate time.Time `db:"start_date"`
	Team1ID   string    `db:"team1_id"`
	Team2ID   string    `db:"team2_id"`
}

type integrityRow struct {
	MatchID string `db:"match_id"`
	Innings int    `db:"innings"`
	Check   string `db:"check_name"`
	Detail  string `db:"detail"`
}

type ingestFailureModel struct {
	DocumentKey string         `db:"document_key"`
	SourcePath  string         `db:"source_path"`
	Disposition string         `db:"disposition"`
	Field       string         `db:"field"`
	Reason      string         `db:"reason"`
	Unresolved  pq.StringArray `db:"unresolved"`
	SeenAt      time.Time      `db:"seen_at"`
}
