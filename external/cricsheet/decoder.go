package cricsheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/usecase"
)

const dateLayout = "2006-01-02"

var strictAPI = sonic.Config{DisallowUnknownFields: true}.Froze()

// Decoder reads Cricsheet JSON match documents. Unknown fields, missing
// required fields and type mismatches reject the document.
type Decoder struct {
	validate *validator.Validate
}

func NewDecoder() *Decoder {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Decoder{validate: v}
}

func (d *Decoder) Decode(file usecase.SourceFile) (usecase.SourceMatch, error) {
	key := documentKey(file)
	if len(file.Body) == 0 {
		return usecase.SourceMatch{}, &usecase.ValidationError{DocumentKey: key, Field: "document", Reason: "empty document"}
	}

	var doc document
	if err := strictAPI.Unmarshal(file.Body, &doc); err != nil {
		return usecase.SourceMatch{}, &usecase.ValidationError{DocumentKey: key, Field: "document", Reason: "malformed json", Err: err}
	}
	if err := d.validate.Struct(doc); err != nil {
		return usecase.SourceMatch{}, validationError(key, err)
	}

	return toSourceMatch(key, file.Path, doc)
}

func documentKey(file usecase.SourceFile) string {
	if key := strings.TrimSpace(file.Key); key != "" {
		return key
	}
	base := filepath.Base(file.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// validationError reports the first failing field using its JSON path.
func validationError(key string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &usecase.ValidationError{DocumentKey: key, Field: "document", Reason: "validation failed", Err: err}
	}
	first := fieldErrs[0]
	field := first.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	reason := "failed " + first.Tag()
	if first.Param() != "" {
		reason += "=" + first.Param()
	}
	return &usecase.ValidationError{DocumentKey: key, Field: field, Reason: reason}
}

func toSourceMatch(key, path string, doc document) (usecase.SourceMatch, error) {
	in := doc.Info
	out := usecase.SourceMatch{
		Key:           key,
		Path:          path,
		DataVersion:   doc.Meta.DataVersion,
		Gender:        strings.ToLower(in.Gender),
		MatchType:     in.MatchType,
		TeamType:      strings.ToLower(in.TeamType),
		Season:        string(in.Season),
		Teams:         in.Teams,
		Venue:         strings.TrimSpace(in.Venue),
		City:          strings.TrimSpace(in.City),
		Overs:         in.Overs,
		BallsPerOver:  in.BallsPerOver,
		TossWinner:    in.Toss.Winner,
		TossDecision:  in.Toss.Decision,
		PlayerOfMatch: in.PlayerOfMatch,
		Players:       in.Players,
		Registry:      in.Registry.People,
		Outcome: usecase.SourceOutcome{
			Winner:     in.Outcome.Winner,
			Result:     in.Outcome.Result,
			Method:     in.Outcome.Method,
			Eliminator: in.Outcome.Eliminator,
			BowlOut:    in.Outcome.BowlOut,
		},
	}
	if in.Outcome.By != nil {
		out.Outcome.ByRuns = in.Outcome.By.Runs
		out.Outcome.ByWickets = in.Outcome.By.Wickets
		out.Outcome.ByInnings = in.Outcome.By.Innings
	}
	if in.Event != nil {
		out.EventName = in.Event.Name
		out.EventMatchNo = in.Event.MatchNumber
	}

	for i, raw := range in.Dates {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return usecase.SourceMatch{}, &usecase.ValidationError{DocumentKey: key, Field: fmt.Sprintf("info.dates[%d]", i), Reason: "invalid date", Err: err}
		}
		out.Dates = append(out.Dates, date)
	}

	roles := []struct {
		role  string
		names []string
	}{
		{match.RoleUmpire, in.Officials.Umpires},
		{match.RoleTVUmpire, in.Officials.TVUmpires},
		{match.RoleReserveUmpire, in.Officials.ReserveUmpires},
		{match.RoleMatchReferee, in.Officials.MatchReferees},
	}
	for _, r := range roles {
		for _, name := range r.names {
			out.Officials = append(out.Officials, usecase.SourceOfficial{Role: r.role, Name: name})
		}
	}

	for _, inn := range doc.Innings {
		out.Innings = append(out.Innings, toSourceInnings(inn))
	}
	return out, nil
}

func toSourceInnings(in innings) usecase.SourceInnings {
	out := usecase.SourceInnings{
		Team:      in.Team,
		SuperOver: in.SuperOver,
		Forfeited: in.Forfeited,
	}
	if in.PenaltyRuns != nil {
		out.PenaltyPre = in.PenaltyRuns.Pre
		out.PenaltyPost = in.PenaltyRuns.Post
	}
	if in.Target != nil {
		out.Target = &usecase.SourceTarget{Runs: in.Target.Runs, Overs: in.Target.Overs}
	}

	for _, o := range in.Overs {
		so := usecase.SourceOver{Number: *o.Over, Deliveries: make([]usecase.SourceDelivery, 0, len(o.Deliveries))}
		for _, d := range o.Deliveries {
			so.Deliveries = append(so.Deliveries, toSourceDelivery(d))
		}
		out.Overs = append(out.Overs, so)
	}
	return out
}

func toSourceDelivery(in delivery) usecase.SourceDelivery {
	out := usecase.SourceDelivery{
		Batter:      in.Batter,
		NonStriker:  in.NonStriker,
		Bowler:      in.Bowler,
		RunsBatter:  in.Runs.Batter,
		RunsExtras:  in.Runs.Extras,
		RunsTotal:   in.Runs.Total,
		NonBoundary: in.Runs.NonBoundary,
	}
	if in.Extras != nil {
		out.Extras = match.Extras{
			Wides:   in.Extras.Wides,
			NoBalls: in.Extras.NoBalls,
			Byes:    in.Extras.Byes,
			LegByes: in.Extras.LegByes,
			Penalty: in.Extras.Penalty,
		}
	}
	if in.Review != nil {
		out.Review = &usecase.SourceReview{
			By:       in.Review.By,
			Umpire:   in.Review.Umpire,
			Batter:   in.Review.Batter,
			Decision: in.Review.Decision,
			Type:     in.Review.Type,
		}
	}
	for _, w := range in.Wickets {
		sw := usecase.SourceWicket{Kind: w.Kind, PlayerOut: w.PlayerOut}
		for _, f := range w.Fielders {
			sw.Fielders = append(sw.Fielders, usecase.SourceFielder{Name: f.Name, Substitute: f.Substitute})
		}
		out.Wickets = append(out.Wickets, sw)
	}
	return out
}
