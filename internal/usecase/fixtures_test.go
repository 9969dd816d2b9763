package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/profile"
	"github.com/riskibarqy/cricbase/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/cricbase/internal/platform/id"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
)

var (
	menT20    = match.Category{Gender: match.GenderMale, Format: "T20"}
	t20IScope = IngestScope{MatchTypes: []string{"T20"}, TeamTypes: []string{"international"}, Genders: []string{"male", "female"}}
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

type seqIDs struct {
	mu   sync.Mutex
	next int
}

func (g *seqIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("run-%03d", g.next), nil
}

// fakeDecoder serves prepared documents by key and ignores the body.
type fakeDecoder struct {
	docs   map[string]SourceMatch
	errs   map[string]error
	panics map[string]string
}

func (d *fakeDecoder) Decode(file SourceFile) (SourceMatch, error) {
	if msg, ok := d.panics[file.Key]; ok {
		panic(msg)
	}
	if err, ok := d.errs[file.Key]; ok {
		return SourceMatch{}, err
	}
	doc, ok := d.docs[file.Key]
	if !ok {
		return SourceMatch{}, &ValidationError{DocumentKey: file.Key, Field: "document", Reason: "unknown test document"}
	}
	return doc, nil
}

type seededProfiles struct {
	teams  map[string]string
	venues map[string]string
	people map[string]string
}

func personID(name string) string { return id.Stable("person", name) }

// seedProfiles stores two men's teams, one venue and every person used by t20Doc.
func seedProfiles(t *testing.T, repo profile.Repository) seededProfiles {
	t.Helper()
	ctx := context.Background()
	out := seededProfiles{teams: map[string]string{}, venues: map[string]string{}, people: map[string]string{}}

	for _, name := range []string{"India", "Australia"} {
		e := profile.Entity{Kind: profile.KindTeam, ID: id.Stable("team", name+"|male"), NaturalKey: name + "|male", Name: name, Scope: "male"}
		got, err := repo.UpsertEntity(ctx, e)
		if err != nil {
			t.Fatalf("seed team %s: %v", name, err)
		}
		out.teams[name] = got
	}

	venue := profile.Entity{Kind: profile.KindVenue, ID: id.Stable("venue", "Kensington Oval|Bridgetown"), NaturalKey: "Kensington Oval|Bridgetown", Name: "Kensington Oval", Scope: "Bridgetown"}
	got, err := repo.UpsertEntity(ctx, venue)
	if err != nil {
		t.Fatalf("seed venue: %v", err)
	}
	out.venues["Kensington Oval"] = got

	people := []string{"RG Sharma", "V Kohli", "JJ Bumrah", "DA Warner", "TM Head", "MA Starc", "RK Illingworth"}
	for _, name := range people {
		e := profile.Entity{Kind: profile.KindPlayer, ID: personID(name), NaturalKey: "reg-" + name, RegistryKey: "reg-" + name, Name: name}
		if name == "RK Illingworth" {
			e.Kind = profile.KindOfficial
		}
		got, err := repo.UpsertEntity(ctx, e)
		if err != nil {
			t.Fatalf("seed person %s: %v", name, err)
		}
		out.people[name] = got
	}
	return out
}

// t20Doc is a consistent two-innings men's T20I: India 5/1 beat Australia 2/0.
func t20Doc(key string, date time.Time) SourceMatch {
	return SourceMatch{
		Key:          key,
		Path:         key + ".json",
		DataVersion:  "1.1.0",
		Gender:       "male",
		MatchType:    "T20",
		TeamType:     "international",
		Season:       "2024",
		Dates:        []time.Time{date},
		Teams:        []string{"India", "Australia"},
		Venue:        "Kensington Oval, Bridgetown",
		City:         "Bridgetown",
		Overs:        20,
		BallsPerOver: 6,
		TossWinner:   "India",
		TossDecision: "bat",
		Outcome:      SourceOutcome{Winner: "India", ByRuns: 3},
		Officials:    []SourceOfficial{{Role: match.RoleUmpire, Name: "RK Illingworth"}},
		Players: map[string][]string{
			"India":     {"RG Sharma", "V Kohli", "JJ Bumrah"},
			"Australia": {"DA Warner", "TM Head", "MA Starc"},
		},
		Registry: map[string]string{},
		Innings: []SourceInnings{
			{
				Team: "India",
				Overs: []SourceOver{{Number: 0, Deliveries: []SourceDelivery{
					{Batter: "RG Sharma", NonStriker: "V Kohli", Bowler: "MA Starc", RunsBatter: 4, RunsTotal: 4},
					{Batter: "RG Sharma", NonStriker: "V Kohli", Bowler: "MA Starc", RunsExtras: 1, RunsTotal: 1, Extras: match.Extras{Wides: 1}},
					{Batter: "RG Sharma", NonStriker: "V Kohli", Bowler: "MA Starc", Wickets: []SourceWicket{
						{Kind: match.DismissalCaught, PlayerOut: "RG Sharma", Fielders: []SourceFielder{{Name: "TM Head"}}},
					}},
				}}},
			},
			{
				Team:   "Australia",
				Target: &SourceTarget{Runs: 6, Overs: 20},
				Overs: []SourceOver{{Number: 0, Deliveries: []SourceDelivery{
					{Batter: "DA Warner", NonStriker: "TM Head", Bowler: "JJ Bumrah", RunsBatter: 1, RunsTotal: 1},
					{Batter: "TM Head", NonStriker: "DA Warner", Bowler: "JJ Bumrah", RunsBatter: 1, RunsTotal: 1},
				}}},
			},
		},
	}
}

// renamePerson replaces every occurrence of a person's name in doc.
func renamePerson(doc *SourceMatch, from, to string) {
	swap := func(s *string) {
		if *s == from {
			*s = to
		}
	}
	for team, names := range doc.Players {
		renamed := make([]string, len(names))
		for i, n := range names {
			renamed[i] = n
			swap(&renamed[i])
		}
		doc.Players[team] = renamed
	}
	for i := range doc.Officials {
		swap(&doc.Officials[i].Name)
	}
	for i := range doc.PlayerOfMatch {
		swap(&doc.PlayerOfMatch[i])
	}
	innings := make([]SourceInnings, len(doc.Innings))
	for i, inn := range doc.Innings {
		overs := make([]SourceOver, len(inn.Overs))
		for j, over := range inn.Overs {
			deliveries := make([]SourceDelivery, len(over.Deliveries))
			for k, d := range over.Deliveries {
				swap(&d.Batter)
				swap(&d.NonStriker)
				swap(&d.Bowler)
				wickets := make([]SourceWicket, len(d.Wickets))
				for w, wk := range d.Wickets {
					swap(&wk.PlayerOut)
					fielders := make([]SourceFielder, len(wk.Fielders))
					for f, fd := range wk.Fielders {
						swap(&fd.Name)
						fielders[f] = fd
					}
					wk.Fielders = fielders
					wickets[w] = wk
				}
				d.Wickets = wickets
				deliveries[k] = d
			}
			over.Deliveries = deliveries
			overs[j] = over
		}
		inn.Overs = overs
		innings[i] = inn
	}
	doc.Innings = innings
}

type ingestHarness struct {
	store    *memory.Store
	profiles seededProfiles
	decoder  *fakeDecoder
	resolver *EntityResolver
	service  *IngestionService
}

func newIngestHarness(t *testing.T, workers int, docs ...SourceMatch) *ingestHarness {
	t.Helper()
	store := memory.NewStore()
	seeded := seedProfiles(t, store.Profiles())

	decoder := &fakeDecoder{docs: map[string]SourceMatch{}, errs: map[string]error{}, panics: map[string]string{}}
	for _, doc := range docs {
		decoder.docs[doc.Key] = doc
	}
	resolver := NewEntityResolver(store.Profiles(), 365*24*time.Hour, logging.NewNop())
	service := NewIngestionService(
		decoder,
		resolver,
		store.Matches(),
		store.Matches(),
		store.RawData(),
		&seqIDs{},
		IngestConfig{Scope: t20IScope, MaxWorkers: workers},
		logging.NewNop(),
	)
	service.now = func() time.Time { return day(2024, 7, 1) }
	return &ingestHarness{store: store, profiles: seeded, decoder: decoder, resolver: resolver, service: service}
}

func (h *ingestHarness) add(doc SourceMatch) {
	h.decoder.docs[doc.Key] = doc
}

// files returns one in-memory source file per key; the body is never parsed.
func files(keys ...string) []SourceFile {
	out := make([]SourceFile, 0, len(keys))
	for _, k := range keys {
		out = append(out, SourceFile{Key: k, Path: k + ".json", Body: []byte(`{"key":"` + k + `"}`)})
	}
	return out
}

func resultByKey(summary IngestSummary, key string) (DocumentResult, bool) {
	for _, r := range summary.Results {
		if r.Key == key {
			return r, true
		}
	}
	return DocumentResult{}, false
}
