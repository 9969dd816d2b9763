package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/cricbase/internal/config"
	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
	"github.com/riskibarqy/cricbase/internal/usecase"
)

type squad struct {
	team    string
	players []string
	keys    map[string]string
}

func newSquad(team, prefix string) squad {
	s := squad{team: team, keys: map[string]string{}}
	for i := 1; i <= 11; i++ {
		name := fmt.Sprintf("%s Player %02d", team, i)
		s.players = append(s.players, name)
		s.keys[name] = fmt.Sprintf("%s%04d", prefix, i)
	}
	return s
}

type wireDelivery map[string]any

func legalBall(batter, nonStriker, bowler string, runs int) wireDelivery {
	return wireDelivery{
		"batter": batter, "non_striker": nonStriker, "bowler": bowler,
		"runs": map[string]int{"batter": runs, "extras": 0, "total": runs},
	}
}

func wide(batter, nonStriker, bowler string) wireDelivery {
	return wireDelivery{
		"batter": batter, "non_striker": nonStriker, "bowler": bowler,
		"extras": map[string]int{"wides": 1},
		"runs":   map[string]int{"batter": 0, "extras": 1, "total": 1},
	}
}

func noBall(batter, nonStriker, bowler string) wireDelivery {
	return wireDelivery{
		"batter": batter, "non_striker": nonStriker, "bowler": bowler,
		"extras": map[string]int{"noballs": 1},
		"runs":   map[string]int{"batter": 0, "extras": 1, "total": 1},
	}
}

// fullInnings is 20 overs of six legal singles each. extrasBefore maps an
// over to the legal ball an illegal delivery is bowled before; wicketAt is
// the (over, legal ball) the striker is caught on, or nil.
func fullInnings(batting, bowling squad, extrasBefore map[int]int, wicketAt *[2]int) map[string]any {
	overs := make([]map[string]any, 0, 20)
	striker, nonStriker, next := batting.players[0], batting.players[1], 2
	for o := 0; o < 20; o++ {
		bowler := bowling.players[10-o%5]
		var deliveries []wireDelivery
		for ball := 1; ball <= 6; ball++ {
			if before, ok := extrasBefore[o]; ok && before == ball {
				if o%2 == 0 {
					deliveries = append(deliveries, wide(striker, nonStriker, bowler))
				} else {
					deliveries = append(deliveries, noBall(striker, nonStriker, bowler))
				}
			}
			if wicketAt != nil && wicketAt[0] == o && wicketAt[1] == ball {
				d := legalBall(striker, nonStriker, bowler, 0)
				d["wickets"] = []map[string]any{{
					"kind": "caught", "player_out": striker,
					"fielders": []map[string]string{{"name": bowling.players[3]}},
				}}
				deliveries = append(deliveries, d)
				striker = batting.players[next]
				next++
				continue
			}
			deliveries = append(deliveries, legalBall(striker, nonStriker, bowler, 1))
			striker, nonStriker = nonStriker, striker
		}
		striker, nonStriker = nonStriker, striker
		overs = append(overs, map[string]any{"over": o, "deliveries": deliveries})
	}
	return map[string]any{"team": batting.team, "overs": overs}
}

// fullT20Document is a complete men's T20I at Eden Gardens. India make 122/1
// (two extras) and Australia reply with 121/0 (one extra).
func fullT20Document(t *testing.T, india, australia squad) []byte {
	t.Helper()

	registry := map[string]string{}
	for _, s := range []squad{india, australia} {
		for name, key := range s.keys {
			registry[name] = key
		}
	}
	first := fullInnings(india, australia, map[int]int{2: 4, 9: 2}, &[2]int{14, 3})
	second := fullInnings(australia, india, map[int]int{6: 1}, nil)
	second["target"] = map[string]int{"overs": 20, "runs": 123}

	doc := map[string]any{
		"meta": map[string]any{"data_version": "1.1.0", "created": "2024-03-02", "revision": 1},
		"info": map[string]any{
			"balls_per_over": 6,
			"city":           "Kolkata",
			"dates":          []string{"2024-03-01"},
			"gender":         "male",
			"match_type":     "T20",
			"officials":      map[string][]string{"umpires": {"A Umpire", "B Umpire"}},
			"outcome":        map[string]any{"winner": "India", "by": map[string]int{"runs": 1}},
			"overs":          20,
			"players":        map[string][]string{"India": india.players, "Australia": australia.players},
			"registry":       map[string]any{"people": registry},
			"season":         "2023/24",
			"team_type":      "international",
			"teams":          []string{"India", "Australia"},
			"toss":           map[string]string{"decision": "bat", "winner": "India"},
			"venue":          "Eden Gardens, Kolkata",
		},
		"innings": []map[string]any{first, second},
	}
	body, err := sonic.Marshal(doc)
	require.NoError(t, err)
	return body
}

func writeProfiles(t *testing.T, squads ...squad) string {
	t.Helper()

	var people strings.Builder
	people.WriteString("identifier,name,unique_name\n")
	for _, s := range squads {
		for _, name := range s.players {
			fmt.Fprintf(&people, "%s,%s,\n", s.keys[name], name)
		}
	}
	people.WriteString("u-a,A Umpire,\nu-b,B Umpire,\n")

	dir := t.TempDir()
	files := map[string]string{
		"people.csv": people.String(),
		"teams.csv":  "name,gender,alt_names\nIndia,male,\nAustralia,male,\n",
		"venues.csv": "name,city\nEden Gardens,Kolkata\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestIngestFullT20Document(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := memory.NewStore()
	a := Build(config.Config{
		IngestMaxWorkers: 2,
		TargetMatchTypes: []string{"T20"},
		TargetTeamTypes:  []string{"international"},
		TargetGenders:    []string{"male", "female"},
	}, Repositories{
		Profiles: store.Profiles(),
		Matches:  store.Matches(),
		Failures: store.Matches(),
		Missing:  store.MissingMatches(),
		RawData:  store.RawData(),
	}, logging.NewNop())

	india, australia := newSquad("India", "in"), newSquad("Australia", "au")
	_, err := a.Profiles.LoadDirectory(ctx, writeProfiles(t, india, australia))
	require.NoError(t, err)
	_, err = a.Resolver.Reload(ctx)
	require.NoError(t, err)

	body := fullT20Document(t, india, australia)
	summary, err := a.Ingestion.Ingest(ctx, []usecase.SourceFile{{Key: "1415755", Path: "1415755.json", Body: body}})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Inserted, "results=%+v", summary.Results)

	graph, ok := store.Matches().Graph("1415755")
	require.True(t, ok)
	require.Len(t, graph.Innings, 2)
	assert.Len(t, graph.Players, 22)
	assert.Len(t, graph.Officials, 2)

	type totals struct{ Runs, Wickets, LegalBalls, Extras int }
	got := []totals{}
	for _, inn := range graph.Innings {
		got = append(got, totals{inn.Runs, inn.Wickets, inn.LegalBalls, inn.Extras})
	}
	assert.Equal(t, []totals{{122, 1, 120, 2}, {121, 0, 120, 1}}, got)

	require.GreaterOrEqual(t, len(graph.Deliveries), 240)
	assert.Len(t, graph.Deliveries, 243)
	require.Equal(t, 1, graph.DismissalCount())

	var wicketKeys []string
	perInnings := map[int]int{}
	for _, d := range graph.Deliveries {
		if d.Legal() {
			perInnings[d.Key.Innings]++
		}
		if len(d.Dismissals) > 0 {
			wicketKeys = append(wicketKeys, d.Key.String())
		}
	}
	assert.Equal(t, map[int]int{1: 120, 2: 120}, perInnings)
	assert.Equal(t, []string{"1:14.3/0"}, wicketKeys)

	keys := map[string]match.Delivery{}
	for _, d := range graph.Deliveries {
		keys[d.Key.String()] = d
	}
	require.Contains(t, keys, "1:2.4/0")
	assert.Equal(t, 1, keys["1:2.4/0"].Extras.Wides)
	require.Contains(t, keys, "1:2.4/1")
	assert.True(t, keys["1:2.4/1"].Legal())
	require.Contains(t, keys, "1:9.2/0")
	assert.Equal(t, 1, keys["1:9.2/0"].Extras.NoBalls)

	issues, err := a.Integrity.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)

	again, err := a.Ingestion.Ingest(ctx, []usecase.SourceFile{{Key: "1415755", Path: "1415755.json", Body: body}})
	require.NoError(t, err)
	assert.Equal(t, 1, again.SkippedDuplicate)
	assert.Equal(t, 1, store.Matches().Count())
}
