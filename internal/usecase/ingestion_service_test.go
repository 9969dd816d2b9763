package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/profile"
	"github.com/riskibarqy/cricbase/internal/domain/rawdata"
	"github.com/riskibarqy/cricbase/internal/infrastructure/repository/memory"
)

func TestIngestionService_Ingest_InsertsCompleteGraph(t *testing.T) {
	t.Parallel()

	h := newIngestHarness(t, 2, t20Doc("1001", day(2024, 6, 1)))

	summary, err := h.service.Ingest(context.Background(), files("1001"))
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if summary.Inserted != 1 || summary.Documents != 1 {
		t.Fatalf("expected one inserted document, got=%+v", summary)
	}

	graph, ok := h.store.Matches().Graph("1001")
	if !ok {
		t.Fatalf("expected graph 1001 to be stored")
	}
	m := graph.Match
	if m.Team1ID != h.profiles.teams["India"] || m.Team2ID != h.profiles.teams["Australia"] {
		t.Fatalf("unexpected teams: %s v %s", m.Team1ID, m.Team2ID)
	}
	if m.VenueID != h.profiles.venues["Kensington Oval"] {
		t.Fatalf("expected venue resolved after dropping the city suffix, got=%q", m.VenueID)
	}
	if m.Result.Kind != match.ResultWin || m.Result.WinnerID != h.profiles.teams["India"] {
		t.Fatalf("unexpected result: %+v", m.Result)
	}
	if m.Category != menT20 {
		t.Fatalf("unexpected category: %v", m.Category)
	}

	type inningsTotals struct{ Runs, Wickets, LegalBalls, Extras int }
	var got []inningsTotals
	for _, inn := range graph.Innings {
		got = append(got, inningsTotals{inn.Runs, inn.Wickets, inn.LegalBalls, inn.Extras})
	}
	want := []inningsTotals{{Runs: 5, Wickets: 1, LegalBalls: 2, Extras: 1}, {Runs: 2, Wickets: 0, LegalBalls: 2, Extras: 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("innings totals mismatch (-want +got):\n%s", diff)
	}

	var keys []string
	for _, d := range graph.Deliveries {
		if d.Key.Innings == 1 {
			keys = append(keys, d.Key.String())
		}
	}
	if diff := cmp.Diff([]string{"1:0.1/0", "1:0.2/0", "1:0.2/1"}, keys); diff != "" {
		t.Fatalf("delivery keys mismatch (-want +got):\n%s", diff)
	}
	if graph.DismissalCount() != 1 {
		t.Fatalf("expected one dismissal, got=%d", graph.DismissalCount())
	}
}

func TestIngestionService_Ingest_ListsRepeatedSquadMemberOnce(t *testing.T) {
	t.Parallel()

	doc := t20Doc("1002", day(2024, 6, 2))
	doc.Players["India"] = append(doc.Players["India"], "V Kohli")
	doc.Registry["Jasprit B"] = "reg-JJ Bumrah"
	doc.Players["India"] = append(doc.Players["India"], "Jasprit B")
	h := newIngestHarness(t, 1, doc)

	summary, err := h.service.Ingest(context.Background(), files("1002"))
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if summary.Inserted != 1 {
		t.Fatalf("expected the document to be inserted, got=%+v", summary.Results)
	}

	graph, ok := h.store.Matches().Graph("1002")
	if !ok {
		t.Fatalf("expected graph 1002 to be stored")
	}
	india := map[string]int{}
	for _, p := range graph.Players {
		if p.TeamID == h.profiles.teams["India"] {
			india[p.PersonID]++
		}
	}
	want := map[string]int{
		h.profiles.people["RG Sharma"]: 1,
		h.profiles.people["V Kohli"]:   1,
		h.profiles.people["JJ Bumrah"]: 1,
	}
	if diff := cmp.Diff(want, india); diff != "" {
		t.Fatalf("india squad mismatch (-want +got):\n%s", diff)
	}
	if len(graph.Players) != 6 {
		t.Fatalf("expected 6 squad rows, got=%d", len(graph.Players))
	}
}

func TestIngestionService_Ingest_SkipsOutOfScopeAndDuplicates(t *testing.T) {
	t.Parallel()

	odi := t20Doc("2001", day(2024, 6, 2))
	odi.MatchType = "ODI"
	odi.Overs = 50
	league := t20Doc("2002", day(2024, 6, 3))
	league.TeamType = "club"

	h := newIngestHarness(t, 3, t20Doc("1001", day(2024, 6, 1)), odi, league)
	ctx := context.Background()

	first, err := h.service.Ingest(ctx, files("1001", "2001", "2002"))
	if err != nil {
		t.Fatalf("first Ingest error: %v", err)
	}
	if first.Inserted != 1 || first.SkippedOutOfScope != 2 {
		t.Fatalf("unexpected first summary: %+v", first)
	}

	second, err := h.service.Ingest(ctx, files("1001"))
	if err != nil {
		t.Fatalf("second Ingest error: %v", err)
	}
	if second.SkippedDuplicate != 1 || second.Inserted != 0 {
		t.Fatalf("expected the re-ingest to be a duplicate, got=%+v", second)
	}
	if h.store.Matches().Count() != 1 {
		t.Fatalf("expected one stored match, got=%d", h.store.Matches().Count())
	}

	failures, err := h.store.Matches().ListFailures(ctx, "")
	if err != nil {
		t.Fatalf("ListFailures error: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("skipped documents must not be recorded as failures, got=%+v", failures)
	}
}

func TestIngestionService_Ingest_QuarantinesUnresolvedNames(t *testing.T) {
	t.Parallel()

	doc := t20Doc("3001", day(2024, 6, 5))
	renamePerson(&doc, "JJ Bumrah", "Jasprit Bumrahh")
	h := newIngestHarness(t, 2, doc, t20Doc("1001", day(2024, 6, 1)))
	ctx := context.Background()

	summary, err := h.service.Ingest(ctx, files("3001", "1001"))
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if summary.Inserted != 1 || summary.Quarantined != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	row, ok := resultByKey(summary, "3001")
	if !ok || row.Outcome != OutcomeQuarantined {
		t.Fatalf("expected 3001 to be quarantined, got=%+v", row)
	}
	if diff := cmp.Diff([]string{"player:Jasprit Bumrahh"}, row.Unresolved); diff != "" {
		t.Fatalf("unresolved names mismatch (-want +got):\n%s", diff)
	}
	if _, stored := h.store.Matches().Graph("3001"); stored {
		t.Fatalf("quarantined document must not be stored")
	}

	failures, err := h.store.Matches().ListFailures(ctx, match.DispositionQuarantined)
	if err != nil {
		t.Fatalf("ListFailures error: %v", err)
	}
	if len(failures) != 1 || failures[0].DocumentKey != "3001" {
		t.Fatalf("expected a quarantine row for 3001, got=%+v", failures)
	}

	candidates, err := h.store.Profiles().ListCandidates(ctx, profile.CandidatePending)
	if err != nil {
		t.Fatalf("ListCandidates error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].RawName != "Jasprit Bumrahh" || candidates[0].MatchID != "3001" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
	if summary.Candidates != 1 {
		t.Fatalf("expected one flushed candidate, got=%d", summary.Candidates)
	}

	raw := h.store.RawData().Payloads(rawdata.SourceCricsheet)
	if len(raw) != 1 || raw[0].EntityKey != "3001" {
		t.Fatalf("expected the quarantined body to be kept, got=%+v", raw)
	}
}

func TestIngestionService_Ingest_QuarantinedDocumentIngestsAfterCuration(t *testing.T) {
	t.Parallel()

	doc := t20Doc("3001", day(2024, 6, 5))
	renamePerson(&doc, "JJ Bumrah", "Jasprit Bumrahh")
	h := newIngestHarness(t, 1, doc)
	ctx := context.Background()

	if _, err := h.service.Ingest(ctx, files("3001")); err != nil {
		t.Fatalf("first Ingest error: %v", err)
	}

	err := h.store.Profiles().UpsertAlias(ctx, profile.Alias{
		Kind:     profile.KindPlayer,
		Name:     "Jasprit Bumrahh",
		EntityID: h.profiles.people["JJ Bumrah"],
	})
	if err != nil {
		t.Fatalf("UpsertAlias error: %v", err)
	}

	summary, err := h.service.Ingest(ctx, files("3001"))
	if err != nil {
		t.Fatalf("second Ingest error: %v", err)
	}
	if summary.Inserted != 1 {
		t.Fatalf("expected curated document to be inserted, got=%+v", summary)
	}
	failures, _ := h.store.Matches().ListFailures(ctx, "")
	if len(failures) != 0 {
		t.Fatalf("expected quarantine row cleared after insert, got=%+v", failures)
	}
}

func TestIngestionService_Ingest_ResolvesAmbiguousNameFromEarlierMatch(t *testing.T) {
	t.Parallel()

	h := newIngestHarness(t, 4)
	ctx := context.Background()

	// Two distinct people share the printed name "R Sharma".
	for _, reg := range []string{"rk-1", "rk-2"} {
		if _, err := h.store.Profiles().UpsertEntity(ctx, profile.Entity{
			Kind:        profile.KindPlayer,
			ID:          personID("R Sharma " + reg),
			NaturalKey:  reg,
			RegistryKey: reg,
			Name:        "R Sharma",
		}); err != nil {
			t.Fatalf("seed %s: %v", reg, err)
		}
	}

	keyed := t20Doc("4001", day(2024, 6, 1))
	renamePerson(&keyed, "RG Sharma", "R Sharma")
	keyed.Registry["R Sharma"] = "rk-1"
	h.add(keyed)

	for _, key := range []string{"4002", "4003", "4004"} {
		doc := t20Doc(key, day(2024, 6, 10))
		renamePerson(&doc, "RG Sharma", "R Sharma")
		h.add(doc)
	}

	summary, err := h.service.Ingest(ctx, files("4004", "4003", "4002", "4001"))
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if summary.Inserted != 4 {
		t.Fatalf("expected every document inserted, got=%+v", summary)
	}

	want := personID("R Sharma rk-1")
	for _, key := range []string{"4002", "4003", "4004"} {
		graph, ok := h.store.Matches().Graph(key)
		if !ok {
			t.Fatalf("expected graph %s", key)
		}
		if got := graph.Deliveries[0].BatterID; got != want {
			t.Fatalf("match %s: expected batter %s, got=%s", key, want, got)
		}
	}
}

func TestIngestionService_Ingest_RejectsInconsistentDocuments(t *testing.T) {
	t.Parallel()

	badTotal := t20Doc("5001", day(2024, 6, 1))
	badTotal.Innings[0].Overs[0].Deliveries[0].RunsTotal = 5

	badTeam := t20Doc("5002", day(2024, 6, 2))
	badTeam.TossWinner = "England"

	badKind := t20Doc("5003", day(2024, 6, 3))
	badKind.Innings[0].Overs[0].Deliveries[2].Wickets[0].Kind = "vanished"

	h := newIngestHarness(t, 3, badTotal, badTeam, badKind)
	h.decoder.errs["5004"] = &ValidationError{DocumentKey: "5004", Field: "innings[0].overs[0].deliveries[0].batter", Reason: "required"}
	ctx := context.Background()

	summary, err := h.service.Ingest(ctx, files("5001", "5002", "5003", "5004"))
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if summary.Rejected != 4 {
		t.Fatalf("expected four rejections, got=%+v", summary)
	}

	wantFields := map[string]string{
		"5001": "delivery[1:0.1/0].runs.total",
		"5002": "info.toss.winner",
		"5003": "delivery[1:0.2/1].wickets.kind",
		"5004": "innings[0].overs[0].deliveries[0].batter",
	}
	for key, field := range wantFields {
		row, ok := resultByKey(summary, key)
		if !ok {
			t.Fatalf("missing result for %s", key)
		}
		if row.Outcome != OutcomeRejected || row.Field != field {
			t.Fatalf("%s: expected rejected at %s, got=%+v", key, field, row)
		}
	}

	failures, _ := h.store.Matches().ListFailures(ctx, match.DispositionRejected)
	if len(failures) != 4 {
		t.Fatalf("expected four rejection rows, got=%d", len(failures))
	}
	if h.store.Matches().Count() != 0 {
		t.Fatalf("rejected documents must not be stored")
	}
}

func TestIngestionService_Ingest_IsolatesFailures(t *testing.T) {
	t.Parallel()

	h := newIngestHarness(t, 4,
		t20Doc("6001", day(2024, 6, 1)),
		t20Doc("6002", day(2024, 6, 2)),
		t20Doc("6003", day(2024, 6, 3)),
	)
	h.decoder.panics["6004"] = "decoder exploded"
	h.store.SetFault(memory.OpInsertGraph, "6002", errors.New("connection reset"))

	summary, err := h.service.Ingest(context.Background(), files("6001", "6002", "6003", "6004"))
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if summary.Inserted != 2 || summary.Failed != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	storeFailure, _ := resultByKey(summary, "6002")
	if storeFailure.Outcome != OutcomeFailed {
		t.Fatalf("expected store failure to fail the document, got=%+v", storeFailure)
	}
	panicked, _ := resultByKey(summary, "6004")
	if panicked.Outcome != OutcomeFailed {
		t.Fatalf("expected panic to fail the document, got=%+v", panicked)
	}
	if len(summary.Held()) != 2 {
		t.Fatalf("expected two held documents, got=%d", len(summary.Held()))
	}
	if _, ok := h.store.Matches().Graph("6002"); ok {
		t.Fatalf("failed insert must leave nothing behind")
	}
}

func TestIngestionService_Ingest_DeterministicAcrossWorkerCounts(t *testing.T) {
	t.Parallel()

	build := func(workers int) IngestSummary {
		bad := t20Doc("7003", day(2024, 6, 3))
		renamePerson(&bad, "MA Starc", "Mitch Starc")
		h := newIngestHarness(t, workers, t20Doc("7001", day(2024, 6, 1)), t20Doc("7002", day(2024, 6, 2)), bad)
		summary, err := h.service.Ingest(context.Background(), files("7003", "7002", "7001"))
		if err != nil {
			t.Fatalf("Ingest error: %v", err)
		}
		for i := range summary.Results {
			summary.Results[i].DurationMs = 0
		}
		summary.RunID = ""
		summary.WorkerCount = 0
		return summary
	}

	serial := build(1)
	parallel := build(3)
	if diff := cmp.Diff(serial, parallel); diff != "" {
		t.Fatalf("summary depends on worker count (-serial +parallel):\n%s", diff)
	}
}

func TestIngestionService_Ingest_ReturnsContextError(t *testing.T) {
	t.Parallel()

	h := newIngestHarness(t, 1, t20Doc("8001", day(2024, 6, 1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := h.service.Ingest(ctx, files("8001"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got=%v", err)
	}
	if summary.Inserted != 0 {
		t.Fatalf("expected nothing inserted after cancel, got=%+v", summary)
	}
}

func TestIngestionService_IngestDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"9001.json", "9002.JSON", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(`{}`), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	h := newIngestHarness(t, 2, t20Doc("9001", day(2024, 6, 1)), t20Doc("9002", day(2024, 6, 2)))

	summary, err := h.service.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestDirectory error: %v", err)
	}
	if summary.Documents != 2 || summary.Inserted != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	row, _ := resultByKey(summary, "9001")
	if row.Path != filepath.Join(dir, "9001.json") {
		t.Fatalf("expected source path recorded, got=%q", row.Path)
	}

	_, err = h.service.IngestDirectory(context.Background(), filepath.Join(dir, "absent"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing directory, got=%v", err)
	}
}

func TestNormalizeIngestWorkerCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value, tasks, want int
	}{
		{value: 0, tasks: 10, want: 1},
		{value: 8, tasks: 3, want: 3},
		{value: 4, tasks: 10, want: 4},
		{value: 4, tasks: 0, want: 1},
	}
	for _, tc := range tests {
		if got := normalizeIngestWorkerCount(tc.value, tc.tasks); got != tc.want {
			t.Fatalf("normalizeIngestWorkerCount(%d, %d)=%d, want %d", tc.value, tc.tasks, got, tc.want)
		}
	}
}
