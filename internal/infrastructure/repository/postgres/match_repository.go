package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	qb "github.com/riskibarqy/cricbase/internal/platform/querybuilder"
)

const integrityQuery = `
SELECT i.match_id, i.number AS innings, 'innings_runs' AS check_name,
       format('stored %s, deliveries %s', i.runs, COALESCE(d.runs, 0) + i.penalty_pre + i.penalty_post) AS detail
FROM innings i
LEFT JOIN (
    SELECT match_id, innings, SUM(runs_total) AS runs FROM deliveries GROUP BY match_id, innings
) d ON d.match_id = i.match_id AND d.innings = i.number
WHERE i.runs <> COALESCE(d.runs, 0) + i.penalty_pre + i.penalty_post
UNION ALL
SELECT i.match_id, i.number, 'innings_wickets',
       format('stored %s, deliveries %s', i.wickets, COALESCE(w.wickets, 0))
FROM innings i
LEFT JOIN (
    SELECT match_id, innings, COUNT(1) AS wickets FROM dismissals WHERE counts_as_wicket GROUP BY match_id, innings
) w ON w.match_id = i.match_id AND w.innings = i.number
WHERE i.wickets <> COALESCE(w.wickets, 0)
UNION ALL
SELECT id, 0, 'winner_without_result', result_kind
FROM matches
WHERE winner_id IS NOT NULL AND result_kind <> 'win' AND NOT super_over AND NOT bowl_out
ORDER BY 1, 2, 3`

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// InsertGraph writes the match and every child row in one transaction and
// clears any recorded ingest failure for the match.
func (r *MatchRepository) InsertGraph(ctx context.Context, graph match.Graph) error {
	m := graph.Match

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx insert match graph: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertModel("matches", toMatchInsertModel(m), "ON CONFLICT (id) DO NOTHING RETURNING id")
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}
	var insertedID string
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&insertedID); err != nil {
		if isNotFound(err) {
			return match.ErrAlreadyExists
		}
		return fmt.Errorf("insert match %s: %w", m.ID, asConstraintError(err, m.ID))
	}

	officials := make([]officialInsertModel, 0, len(graph.Officials))
	for _, o := range graph.Officials {
		officials = append(officials, officialInsertModel{MatchID: m.ID, Role: o.Role, Seq: o.Seq, PersonID: o.PersonID})
	}
	if err := insertChunked(ctx, tx, "match_officials", m.ID, officials); err != nil {
		return err
	}

	players := make([]playerInsertModel, 0, len(graph.Players))
	for _, p := range graph.Players {
		players = append(players, playerInsertModel{MatchID: m.ID, TeamID: p.TeamID, PersonID: p.PersonID})
	}
	if err := insertChunked(ctx, tx, "match_players", m.ID, players); err != nil {
		return err
	}

	innings := make([]inningsInsertModel, 0, len(graph.Innings))
	for _, inn := range graph.Innings {
		innings = append(innings, toInningsInsertModel(m.ID, inn))
	}
	if err := insertChunked(ctx, tx, "innings", m.ID, innings); err != nil {
		return err
	}

	deliveries := make([]deliveryInsertModel, 0, len(graph.Deliveries))
	dismissals := make([]dismissalInsertModel, 0, graph.DismissalCount())
	var fielders []fielderInsertModel
	for _, d := range graph.Deliveries {
		deliveries = append(deliveries, toDeliveryInsertModel(m.ID, d))
		for _, w := range d.Dismissals {
			dismissals = append(dismissals, dismissalInsertModel{
				MatchID:        m.ID,
				Innings:        d.Key.Innings,
				Over:           d.Key.Over,
				Ball:           d.Key.Ball,
				Sub:            d.Key.Sub,
				Seq:            w.Seq,
				Kind:           w.Kind,
				PlayerOutID:    w.PlayerOutID,
				CountsAsWicket: w.CountsAsWicket(),
			})
			for i, f := range w.Fielders {
				fielders = append(fielders, fielderInsertModel{
					MatchID:      m.ID,
					Innings:      d.Key.Innings,
					Over:         d.Key.Over,
					Ball:         d.Key.Ball,
					Sub:          d.Key.Sub,
					DismissalSeq: w.Seq,
					FielderSeq:   i + 1,
					PersonID:     f.PersonID,
					Substitute:   f.Substitute,
				})
			}
		}
	}
	if err := insertChunked(ctx, tx, "deliveries", m.ID, deliveries); err != nil {
		return err
	}
	if err := insertChunked(ctx, tx, "dismissals", m.ID, dismissals); err != nil {
		return err
	}
	if err := insertChunked(ctx, tx, "dismissal_fielders", m.ID, fielders); err != nil {
		return err
	}

	query, args, err = qb.DeleteFrom("ingest_failures").Where(qb.Eq("document_key", m.ID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build clear ingest failure query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear ingest failure match=%s: %w", m.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert match graph tx: %w", err)
	}
	return nil
}

func insertChunked[T any](ctx context.Context, tx *sqlx.Tx, table, matchID string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	var zero T
	for _, chunk := range qb.Chunk(rows, qb.ColumnCount(zero)) {
		query, args, err := qb.InsertModels(table, chunk, "")
		if err != nil {
			return fmt.Errorf("build insert %s query: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s match=%s: %w", table, matchID, asConstraintError(err, matchID))
		}
	}
	return nil
}

func (r *MatchRepository) Exists(ctx context.Context, matchID string) (bool, error) {
	query, args, err := qb.Select("COUNT(1)").From("matches").Where(qb.Eq("id", matchID)).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build match exists query: %w", err)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check match exists id=%s: %w", matchID, err)
	}
	return count > 0, nil
}

func (r *MatchRepository) ListKeys(ctx context.Context, filter match.KeyFilter) ([]match.Key, error) {
	conds := make([]qb.Condition, 0, 4)
	if !filter.Category.IsZero() {
		conds = append(conds, qb.Eq("gender", filter.Category.Gender), qb.Eq("format", filter.Category.Format))
	}
	if !filter.From.IsZero() {
		conds = append(conds, qb.Gte("start_date", dateOnly(filter.From)))
	}
	if !filter.To.IsZero() {
		conds = append(conds, qb.Lte("start_date", dateOnly(filter.To)))
	}

	query, args, err := qb.Select("id", "gender", "format", "start_date", "team1_id::text AS team1_id", "team2_id::text AS team2_id").
		From("matches").
		Where(conds...).
		OrderBy("start_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match keys query: %w", err)
	}

	var rows []matchKeyTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match keys: %w", err)
	}

	out := make([]match.Key, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.Key{
			MatchID:  row.ID,
			Category: match.Category{Gender: row.Gender, Format: row.Format},
			Date:     dateOnly(row.StartDate),
			Team1ID:  row.Team1ID,
			Team2ID:  row.Team2ID,
		})
	}
	return out, nil
}

// IntegrityIssues compares stored innings totals with their deliveries.
// Per-delivery arithmetic and distinct teams are enforced by table checks.
func (r *MatchRepository) IntegrityIssues(ctx context.Context) ([]match.IntegrityIssue, error) {
	var rows []integrityRow
	if err := r.db.SelectContext(ctx, &rows, integrityQuery); err != nil {
		return nil, fmt.Errorf("select integrity issues: %w", err)
	}
	out := make([]match.IntegrityIssue, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.IntegrityIssue{MatchID: row.MatchID, Innings: row.Innings, Check: row.Check, Detail: row.Detail})
	}
	return out, nil
}

func (r *MatchRepository) RecordFailure(ctx context.Context, failure match.IngestFailure) error {
	seen := failure.SeenAt.UTC()
	model := ingestFailureModel{
		DocumentKey: failure.DocumentKey,
		SourcePath:  failure.SourcePath,
		Disposition: string(failure.Disposition),
		Field:       failure.Field,
		Reason:      failure.Reason,
		Unresolved:  append([]string{}, failure.Unresolved...),
		SeenAt:      seen,
	}
	query, args, err := qb.InsertModel("ingest_failures", model, `ON CONFLICT (document_key)
DO UPDATE SET
    source_path = EXCLUDED.source_path,
    disposition = EXCLUDED.disposition,
    field = EXCLUDED.field,
    reason = EXCLUDED.reason,
    unresolved = EXCLUDED.unresolved,
    seen_at = EXCLUDED.seen_at`)
	if err != nil {
		return fmt.Errorf("build upsert ingest failure query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert ingest failure document=%s: %w", failure.DocumentKey, err)
	}
	return nil
}

func (r *MatchRepository) ListFailures(ctx context.Context, disposition match.Disposition) ([]match.IngestFailure, error) {
	builder := qb.Select("document_key", "source_path", "disposition", "field", "reason", "unresolved", "seen_at").
		From("ingest_failures").
		OrderBy("document_key")
	if disposition != "" {
		builder = builder.Where(qb.Eq("disposition", string(disposition)))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select ingest failures query: %w", err)
	}

	var rows []ingestFailureModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select ingest failures: %w", err)
	}
	out := make([]match.IngestFailure, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.IngestFailure{
			DocumentKey: row.DocumentKey,
			SourcePath:  row.SourcePath,
			Disposition: match.Disposition(row.Disposition),
			Field:       row.Field,
			Reason:      row.Reason,
			Unresolved:  []string(row.Unresolved),
			SeenAt:      row.SeenAt.UTC(),
		})
	}
	return out, nil
}

func toMatchInsertModel(m match.Match) matchInsertModel {
	end := m.EndDate
	if end.IsZero() {
		end = m.StartDate
	}
	balls := m.BallsPerOver
	if balls <= 0 {
		balls = 6
	}
	return matchInsertModel{
		ID:               m.ID,
		Gender:           m.Category.Gender,
		Format:           m.Category.Format,
		TeamType:         m.TeamType,
		Season:           m.Season,
		StartDate:        dateOnly(m.StartDate),
		EndDate:          dateOnly(end),
		VenueID:          nullableString(m.VenueID),
		Team1ID:          m.Team1ID,
		Team2ID:          m.Team2ID,
		TossWinnerID:     nullableString(m.TossWinnerID),
		TossDecision:     m.TossDecision,
		ResultKind:       string(m.Result.Kind),
		WinnerID:         nullableString(m.Result.WinnerID),
		ByRuns:           m.Result.ByRuns,
		ByWickets:        m.Result.ByWickets,
		ByInnings:        m.Result.ByInnings,
		ResultMethod:     m.Result.Method,
		SuperOver:        m.Result.SuperOver,
		BowlOut:          m.Result.BowlOut,
		PlayerOfMatchID:  nullableString(m.PlayerOfMatchID),
		EventName:        m.EventName,
		EventMatchNumber: m.EventMatchNumber,
		Overs:            m.Overs,
		BallsPerOver:     balls,
		DataVersion:      m.DataVersion,
		SourcePath:       m.SourcePath,
	}
}

func toInningsInsertModel(matchID string, inn match.Innings) inningsInsertModel {
	model := inningsInsertModel{
		MatchID:       matchID,
		Number:        inn.Number,
		Phase:         string(inn.Phase),
		BattingTeamID: inn.BattingTeamID,
		BowlingTeamID: inn.BowlingTeamID,
		Runs:          inn.Runs,
		Wickets:       inn.Wickets,
		LegalBalls:    inn.LegalBalls,
		Extras:        inn.Extras,
		PenaltyPre:    inn.PenaltyPre,
		PenaltyPost:   inn.PenaltyPost,
		Forfeited:     inn.Forfeited,
	}
	if inn.Target != nil {
		runs, overs := inn.Target.Runs, inn.Target.Overs
		model.TargetRuns = &runs
		model.TargetOvers = &overs
	}
	return model
}

func toDeliveryInsertModel(matchID string, d match.Delivery) deliveryInsertModel {
	model := deliveryInsertModel{
		MatchID:      matchID,
		Innings:      d.Key.Innings,
		Over:         d.Key.Over,
		Ball:         d.Key.Ball,
		Sub:          d.Key.Sub,
		BatterID:     d.BatterID,
		NonStrikerID: d.NonStrikerID,
		BowlerID:     d.BowlerID,
		RunsBatter:   d.RunsBatter,
		RunsExtras:   d.RunsExtras,
		RunsTotal:    d.RunsTotal,
		NonBoundary:  d.NonBoundary,
		Wides:        d.Extras.Wides,
		NoBalls:      d.Extras.NoBalls,
		Byes:         d.Extras.Byes,
		LegByes:      d.Extras.LegByes,
		Penalty:      d.Extras.Penalty,
	}
	if d.Review != nil {
		model.ReviewByTeamID = nullableString(d.Review.ByTeamID)
		model.ReviewUmpireID = nullableString(d.Review.UmpireID)
		model.ReviewBatterID = nullableString(d.Review.BatterID)
		model.ReviewDecision = nullableString(d.Review.Decision)
		model.ReviewType = nullableString(d.Review.Type)
	}
	return model
}
