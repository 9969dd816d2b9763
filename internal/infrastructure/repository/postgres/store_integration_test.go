package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/missingmatch"
	"github.com/riskibarqy/cricbase/internal/domain/profile"
	"github.com/riskibarqy/cricbase/internal/domain/rawdata"
	"github.com/riskibarqy/cricbase/internal/platform/id"
)

// openTestStore connects to TEST_DB_URL when set, otherwise starts a
// throwaway postgres container. Either way the schema is migrated fresh.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in -short mode")
	}

	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("cricbase_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			t.Skipf("postgres container unavailable: %v", err)
		}
		t.Cleanup(func() {
			_ = container.Terminate(context.Background())
		})
		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(migrationsDir(t)), dsn)
	require.NoError(t, err)
	if err := m.Drop(); err != nil {
		t.Fatalf("drop schema: %v", err)
	}
	_, _ = m.Close()

	m, err = migrate.New("file://"+filepath.ToSlash(migrationsDir(t)), dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}
	_, _ = m.Close()

	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "db", "migrations")
}

type storeFixture struct {
	india, australia, venue          string
	batter, partner, bowler, fielder string
}

func seedStore(t *testing.T, ctx context.Context, store *Store) storeFixture {
	t.Helper()
	repo := store.Profiles()
	upsert := func(e profile.Entity) string {
		got, err := repo.UpsertEntity(ctx, e)
		require.NoError(t, err)
		return got
	}
	person := func(name string) string {
		return upsert(profile.Entity{Kind: profile.KindPlayer, ID: id.Stable("person", name), NaturalKey: "reg-" + name, RegistryKey: "reg-" + name, Name: name})
	}

	return storeFixture{
		india:     upsert(profile.Entity{Kind: profile.KindTeam, ID: id.Stable("team", "India|male"), NaturalKey: "India|male", Name: "India", Scope: match.GenderMale}),
		australia: upsert(profile.Entity{Kind: profile.KindTeam, ID: id.Stable("team", "Australia|male"), NaturalKey: "Australia|male", Name: "Australia", Scope: match.GenderMale}),
		venue:     upsert(profile.Entity{Kind: profile.KindVenue, ID: id.Stable("venue", "Kensington Oval"), NaturalKey: "Kensington Oval", Name: "Kensington Oval", Scope: "Bridgetown"}),
		batter:    person("RG Sharma"),
		partner:   person("V Kohli"),
		bowler:    person("MA Starc"),
		fielder:   person("TM Head"),
	}
}

func sampleGraph(f storeFixture, matchID string) match.Graph {
	day := time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC)
	deliveries := []match.Delivery{
		{Key: match.DeliveryKey{Innings: 1, Over: 0, Ball: 1}, BatterID: f.batter, NonStrikerID: f.partner, BowlerID: f.bowler, RunsBatter: 4, RunsTotal: 4},
		{Key: match.DeliveryKey{Innings: 1, Over: 0, Ball: 2}, BatterID: f.batter, NonStrikerID: f.partner, BowlerID: f.bowler, RunsExtras: 1, RunsTotal: 1, Extras: match.Extras{Wides: 1}},
		{
			Key: match.DeliveryKey{Innings: 1, Over: 0, Ball: 2, Sub: 1}, BatterID: f.batter, NonStrikerID: f.partner, BowlerID: f.bowler,
			Dismissals: []match.Dismissal{{Seq: 1, Kind: match.DismissalCaught, PlayerOutID: f.batter, Fielders: []match.Fielder{{PersonID: f.fielder}}}},
		},
	}
	return match.Graph{
		Match: match.Match{
			ID:        matchID,
			Category:  match.Category{Gender: match.GenderMale, Format: "T20"},
			StartDate: day,
			EndDate:   day,
			VenueID:   f.venue,
			Team1ID:   f.india,
			Team2ID:   f.australia,
			Result:    match.Result{Kind: match.ResultWin, WinnerID: f.india, ByRuns: 3},
			Overs:     20,
		},
		Officials: []match.Official{},
		Players: []match.Player{
			{TeamID: f.india, PersonID: f.batter},
			{TeamID: f.india, PersonID: f.partner},
			{TeamID: f.australia, PersonID: f.bowler},
			{TeamID: f.australia, PersonID: f.fielder},
		},
		Innings: []match.Innings{
			{Number: 1, Phase: match.PhaseRegulation, BattingTeamID: f.india, BowlingTeamID: f.australia, Runs: 5, Wickets: 1, LegalBalls: 2, Extras: 1},
		},
		Deliveries: deliveries,
	}
}

func TestStore_MatchGraphRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	f := seedStore(t, ctx, store)
	repo := store.Matches()

	require.NoError(t, repo.RecordFailure(ctx, match.IngestFailure{DocumentKey: "1001", Disposition: match.DispositionQuarantined, Unresolved: []string{"player:X"}, SeenAt: time.Now()}))
	require.NoError(t, repo.InsertGraph(ctx, sampleGraph(f, "1001")))

	exists, err := repo.Exists(ctx, "1001")
	require.NoError(t, err)
	require.True(t, exists)

	failures, err := repo.ListFailures(ctx, "")
	require.NoError(t, err)
	require.Empty(t, failures, "ingesting a match clears its failure row")

	err = repo.InsertGraph(ctx, sampleGraph(f, "1001"))
	require.ErrorIs(t, err, match.ErrAlreadyExists)

	keys, err := repo.ListKeys(ctx, match.KeyFilter{Category: match.Category{Gender: match.GenderMale, Format: "T20"}})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, f.india, keys[0].Team1ID)
	require.True(t, keys[0].Date.Equal(time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC)))

	issues, err := repo.IntegrityIssues(ctx)
	require.NoError(t, err)
	require.Empty(t, issues)
}

func TestStore_InsertGraphIsAtomic(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	f := seedStore(t, ctx, store)
	repo := store.Matches()

	graph := sampleGraph(f, "1002")
	graph.Deliveries[2].BowlerID = id.Stable("person", "unknown bowler")

	err := repo.InsertGraph(ctx, graph)
	var constraint *match.ConstraintError
	require.ErrorAs(t, err, &constraint)
	require.Equal(t, "deliveries", constraint.Table)
	require.Equal(t, "23503", constraint.Code)

	exists, err := repo.Exists(ctx, "1002")
	require.NoError(t, err)
	require.False(t, exists, "no part of a failed graph may be stored")
}

func TestStore_ProfilesAndCandidates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	f := seedStore(t, ctx, store)
	repo := store.Profiles()

	again, err := repo.UpsertEntity(ctx, profile.Entity{Kind: profile.KindPlayer, ID: id.Stable("person", "other"), NaturalKey: "reg-RG Sharma", Name: "Rohit Sharma"})
	require.NoError(t, err)
	require.Equal(t, f.batter, again, "natural key keeps the first id")

	require.NoError(t, repo.UpsertAlias(ctx, profile.Alias{Kind: profile.KindPlayer, Name: "R.G. Sharma", EntityID: f.batter}))
	require.Error(t, repo.UpsertAlias(ctx, profile.Alias{Kind: profile.KindTeam, Name: "Ceylon", EntityID: f.batter}))

	aliases, err := repo.ListAliases(ctx)
	require.NoError(t, err)
	require.Len(t, aliases, 1)

	seen := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	candidate := profile.Candidate{Kind: profile.KindPlayer, RawName: "Jasprit Bumrahh", MatchID: "1001", SeenCount: 1, SeenAt: seen}
	require.NoError(t, repo.AppendCandidates(ctx, []profile.Candidate{candidate, candidate}))
	require.NoError(t, repo.AppendCandidates(ctx, []profile.Candidate{candidate}))

	pending, err := repo.ListCandidates(ctx, profile.CandidatePending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, 3, pending[0].SeenCount)

	entities, err := repo.ListEntities(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 7)
}

func TestStore_MissingMatchPagesAndReviews(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	repo := store.MissingMatches()

	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	category := match.Category{Gender: match.GenderMale, Format: "T20"}
	page := missingmatch.Page{
		RunID:    "run-001",
		Category: category,
		Window:   "2024-06-01..2024-06-30",
		Number:   1,
		Records: []missingmatch.Record{
			{ScheduleID: "S2", Category: category, Date: day, Team1Name: "India", Team2Name: "Nepal", Status: missingmatch.StatusUnreviewed, RunID: "run-001", DetectedAt: day},
		},
		Raw: rawdata.NewPayload(rawdata.SourceSchedule, rawdata.EntitySchedulePage, "male/T20:2024-06-01:1", []byte(`{"data":{}}`), day),
	}

	inserted, err := repo.RecordPage(ctx, page)
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	updated, err := repo.ApplyReview(ctx, missingmatch.Review{ScheduleID: "S2", Status: missingmatch.StatusFalsePositive, Reviewer: "ops", ReviewedAt: day})
	require.NoError(t, err)
	require.Equal(t, missingmatch.StatusFalsePositive, updated.Status)
	require.Equal(t, "India", updated.Team1Name)

	page.RunID = "run-002"
	inserted, err = repo.RecordPage(ctx, page)
	require.NoError(t, err)
	require.Zero(t, inserted)

	rec, found, err := repo.Get(ctx, "S2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, missingmatch.StatusFalsePositive, rec.Status, "a rerun never overwrites a review")
	require.Equal(t, "run-001", rec.RunID)

	_, err = repo.ApplyReview(ctx, missingmatch.Review{ScheduleID: "S2", Status: missingmatch.StatusConfirmedMissing, Reviewer: "lead", ReviewedAt: day.Add(time.Hour)})
	require.NoError(t, err)

	reviews, err := repo.ListReviews(ctx, "S2")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	require.Equal(t, missingmatch.StatusUnreviewed, reviews[0].Previous)
	require.Equal(t, missingmatch.StatusFalsePositive, reviews[1].Previous)

	_, err = repo.ApplyReview(ctx, missingmatch.Review{ScheduleID: "nope", Status: missingmatch.StatusConfirmedMissing, Reviewer: "ops", ReviewedAt: day})
	require.ErrorIs(t, err, missingmatch.ErrRecordNotFound)

	listed, err := repo.List(ctx, missingmatch.ListFilter{Category: category, Status: missingmatch.StatusConfirmedMissing})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, store.RawData().UpsertMany(ctx, []rawdata.Payload{page.Raw}))
}
