package cricsheet

import (
	"fmt"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
)

// Wire types mirror the Cricsheet JSON layout exactly. Fields that are
// accepted but not used are typed any so unknown-field checking still works.

type document struct {
	Meta    meta      `json:"meta"`
	Info    info      `json:"info"`
	Innings []innings `json:"innings" validate:"dive"`
}

type meta struct {
	DataVersion string `json:"data_version" validate:"required"`
	Created     string `json:"created"`
	Revision    int    `json:"revision"`
}

type info struct {
	BallsPerOver    int                 `json:"balls_per_over" validate:"gte=0"`
	Bowlout         any                 `json:"bowl_out"`
	City            string              `json:"city"`
	Dates           []string            `json:"dates" validate:"required,min=1,dive,datetime=2006-01-02"`
	Event           *event              `json:"event"`
	Gender          string              `json:"gender" validate:"required,oneof=male female"`
	MatchType       string              `json:"match_type" validate:"required"`
	MatchTypeNumber int                 `json:"match_type_number"`
	Missing         any                 `json:"missing"`
	Officials       officials           `json:"officials"`
	Outcome         outcome             `json:"outcome"`
	Overs           int                 `json:"overs" validate:"gte=0"`
	PlayerOfMatch   []string            `json:"player_of_match"`
	Players         map[string][]string `json:"players"`
	Registry        registry            `json:"registry"`
	Season          season              `json:"season" validate:"required"`
	Supersubs       any                 `json:"supersubs"`
	TeamType        string              `json:"team_type" validate:"required"`
	Teams           []string            `json:"teams" validate:"required,dive,required"`
	Toss            toss                `json:"toss"`
	Venue           string              `json:"venue"`
}

type event struct {
	Name        string `json:"name"`
	MatchNumber int    `json:"match_number"`
	Group       any    `json:"group"`
	Stage       string `json:"stage"`
	SubName     string `json:"sub_name"`
}

type officials struct {
	Umpires        []string `json:"umpires"`
	TVUmpires      []string `json:"tv_umpires"`
	ReserveUmpires []string `json:"reserve_umpires"`
	MatchReferees  []string `json:"match_referees"`
}

type outcome struct {
	Winner     string     `json:"winner"`
	By         *outcomeBy `json:"by"`
	Method     string     `json:"method"`
	Result     string     `json:"result"`
	Eliminator string     `json:"eliminator"`
	BowlOut    string     `json:"bowl_out"`
}

type outcomeBy struct {
	Runs    int `json:"runs"`
	Wickets int `json:"wickets"`
	Innings int `json:"innings"`
}

type registry struct {
	People map[string]string `json:"people"`
}

type toss struct {
	Decision    string `json:"decision"`
	Winner      string `json:"winner"`
	Uncontested bool   `json:"uncontested"`
}

type innings struct {
	Team            string       `json:"team" validate:"required"`
	Overs           []over       `json:"overs" validate:"dive"`
	Powerplays      any          `json:"powerplays"`
	Target          *target      `json:"target"`
	PenaltyRuns     *penaltyRuns `json:"penalty_runs"`
	SuperOver       bool         `json:"super_over"`
	AbsentHurt      any          `json:"absent_hurt"`
	MiscountedOvers any          `json:"miscounted_overs"`
	Declared        bool         `json:"declared"`
	Forfeited       bool         `json:"forfeited"`
}

type target struct {
	Overs float64 `json:"overs" validate:"gte=0"`
	Runs  int     `json:"runs" validate:"gte=0"`
}

type penaltyRuns struct {
	Pre  int `json:"pre" validate:"gte=0"`
	Post int `json:"post" validate:"gte=0"`
}

type over struct {
	Over       *int       `json:"over" validate:"required,gte=0"`
	Deliveries []delivery `json:"deliveries" validate:"dive"`
}

type delivery struct {
	Batter       string   `json:"batter" validate:"required"`
	Bowler       string   `json:"bowler" validate:"required"`
	NonStriker   string   `json:"non_striker" validate:"required"`
	Runs         *runs    `json:"runs" validate:"required"`
	Extras       *extras  `json:"extras"`
	Wickets      []wicket `json:"wickets" validate:"dive"`
	Review       *review  `json:"review"`
	Replacements any      `json:"replacements"`
}

type runs struct {
	Batter      int  `json:"batter" validate:"gte=0"`
	Extras      int  `json:"extras" validate:"gte=0"`
	Total       int  `json:"total" validate:"gte=0"`
	NonBoundary bool `json:"non_boundary"`
}

type extras struct {
	Wides   int `json:"wides" validate:"gte=0"`
	NoBalls int `json:"noballs" validate:"gte=0"`
	Byes    int `json:"byes" validate:"gte=0"`
	LegByes int `json:"legbyes" validate:"gte=0"`
	Penalty int `json:"penalty" validate:"gte=0"`
}

type wicket struct {
	Kind      string    `json:"kind" validate:"required"`
	PlayerOut string    `json:"player_out" validate:"required"`
	Fielders  []fielder `json:"fielders" validate:"max=3"`
}

type fielder struct {
	Name       string `json:"name"`
	Substitute bool   `json:"substitute"`
}

type review struct {
	By          string `json:"by"`
	Umpire      string `json:"umpire"`
	Batter      string `json:"batter"`
	Decision    string `json:"decision"`
	Type        string `json:"type"`
	UmpiresCall bool   `json:"umpires_call"`
}

// season is written either as a string ("2023/24") or a bare year.
type season string

func (s *season) UnmarshalJSON(raw []byte) error {
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var v string
		if err := sonic.Unmarshal(raw, &v); err != nil {
			return err
		}
		*s = season(strings.TrimSpace(v))
		return nil
	}
	if _, err := strconv.Atoi(text); err != nil {
		return fmt.Errorf("season must be a string or an integer, got %s", text)
	}
	*s = season(text)
	return nil
}
