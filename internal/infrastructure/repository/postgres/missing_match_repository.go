package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/missingmatch"
	qb "github.com/riskibarqy/cricbase/internal/platform/querybuilder"
)

type MissingMatchRepository struct {
	db *sqlx.DB
}

func NewMissingMatchRepository(db *sqlx.DB) *MissingMatchRepository {
	return &MissingMatchRepository{db: db}
}

func (r *MissingMatchRepository) GetByScheduleIDs(ctx context.Context, scheduleIDs []string) (map[string]missingmatch.Record, error) {
	out := make(map[string]missingmatch.Record, len(scheduleIDs))
	if len(scheduleIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select(missingMatchColumns...).From("missing_matches").
		Where(qb.InStrings("schedule_id", scheduleIDs)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select missing matches by ids query: %w", err)
	}

	var rows []missingMatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select missing matches by ids: %w", err)
	}
	for _, row := range rows {
		out[row.ScheduleID] = row.toDomain()
	}
	return out, nil
}

// RecordPage inserts the page's new records and its raw payload in one
// transaction. Existing records, reviewed or not, are never touched.
func (r *MissingMatchRepository) RecordPage(ctx context.Context, page missingmatch.Page) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx record missing page: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	inserted := 0
	if len(page.Records) > 0 {
		models := make([]missingMatchInsertModel, 0, len(page.Records))
		for _, rec := range page.Records {
			models = append(models, toMissingMatchInsertModel(rec))
		}
		for _, chunk := range qb.Chunk(models, qb.ColumnCount(missingMatchInsertModel{})) {
			query, args, err := qb.InsertModels("missing_matches", chunk, "ON CONFLICT (schedule_id) DO NOTHING RETURNING schedule_id")
			if err != nil {
				return 0, fmt.Errorf("build insert missing matches query: %w", err)
			}
			var ids []string
			if err := tx.SelectContext(ctx, &ids, query, args...); err != nil {
				return 0, fmt.Errorf("insert missing matches window=%s page=%d: %w", page.Window, page.Number, err)
			}
			inserted += len(ids)
		}
	}

	if !page.Raw.IsZero() {
		if err := upsertRawPayload(ctx, tx, page.Raw); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record missing page tx: %w", err)
	}
	return inserted, nil
}

func (r *MissingMatchRepository) Get(ctx context.Context, scheduleID string) (missingmatch.Record, bool, error) {
	query, args, err := qb.Select(missingMatchColumns...).From("missing_matches").
		Where(qb.Eq("schedule_id", scheduleID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return missingmatch.Record{}, false, fmt.Errorf("build select missing match query: %w", err)
	}

	var row missingMatchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return missingmatch.Record{}, false, nil
		}
		return missingmatch.Record{}, false, fmt.Errorf("select missing match id=%s: %w", scheduleID, err)
	}
	return row.toDomain(), true, nil
}

// ApplyReview locks the record row, records its current status as the
// review's previous status, updates it and appends the review row in one
// transaction.
func (r *MissingMatchRepository) ApplyReview(ctx context.Context, review missingmatch.Review) (missingmatch.Record, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return missingmatch.Record{}, fmt.Errorf("begin tx apply review: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Select(missingMatchColumns...).From("missing_matches").
		Where(qb.Eq("schedule_id", review.ScheduleID)).
		Limit(1).
		ForUpdate().
		ToSQL()
	if err != nil {
		return missingmatch.Record{}, fmt.Errorf("build lock missing match query: %w", err)
	}
	var row missingMatchTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return missingmatch.Record{}, fmt.Errorf("%w: %s", missingmatch.ErrRecordNotFound, review.ScheduleID)
		}
		return missingmatch.Record{}, fmt.Errorf("lock missing match id=%s: %w", review.ScheduleID, err)
	}
	record := row.toDomain()
	review.Previous = record.Status

	query, args, err = qb.Update("missing_matches").
		Set("status", string(review.Status)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("schedule_id", review.ScheduleID)).
		ToSQL()
	if err != nil {
		return missingmatch.Record{}, fmt.Errorf("build update missing match status query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return missingmatch.Record{}, fmt.Errorf("update missing match status id=%s: %w", review.ScheduleID, err)
	}

	model := missingMatchReviewModel{
		ScheduleID:     review.ScheduleID,
		PreviousStatus: string(review.Previous),
		Status:         string(review.Status),
		Reviewer:       review.Reviewer,
		Note:           review.Note,
		ReviewedAt:     review.ReviewedAt.UTC(),
	}
	query, args, err = qb.InsertModel("missing_match_reviews", model, "")
	if err != nil {
		return missingmatch.Record{}, fmt.Errorf("build insert review query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return missingmatch.Record{}, fmt.Errorf("insert review id=%s: %w", review.ScheduleID, err)
	}

	if err := tx.Commit(); err != nil {
		return missingmatch.Record{}, fmt.Errorf("commit apply review tx: %w", err)
	}
	record.Status = review.Status
	return record, nil
}

func (r *MissingMatchRepository) ListReviews(ctx context.Context, scheduleID string) ([]missingmatch.Review, error) {
	query, args, err := qb.Select("schedule_id", "previous_status", "status", "reviewer", "note", "reviewed_at").
		From("missing_match_reviews").
		Where(qb.Eq("schedule_id", scheduleID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select reviews query: %w", err)
	}

	var rows []missingMatchReviewModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select reviews id=%s: %w", scheduleID, err)
	}
	out := make([]missingmatch.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, missingmatch.Review{
			ScheduleID: row.ScheduleID,
			Previous:   missingmatch.Status(row.PreviousStatus),
			Status:     missingmatch.Status(row.Status),
			Reviewer:   row.Reviewer,
			Note:       row.Note,
			ReviewedAt: row.ReviewedAt.UTC(),
		})
	}
	return out, nil
}

func (r *MissingMatchRepository) List(ctx context.Context, filter missingmatch.ListFilter) ([]missingmatch.Record, error) {
	conds := make([]qb.Condition, 0, 3)
	if !filter.Category.IsZero() {
		conds = append(conds, qb.Eq("gender", filter.Category.Gender), qb.Eq("format", filter.Category.Format))
	}
	if filter.Status != "" {
		conds = append(conds, qb.Eq("status", string(filter.Status)))
	}

	query, args, err := qb.Select(missingMatchColumns...).From("missing_matches").
		Where(conds...).
		OrderBy("match_date", "schedule_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list missing matches query: %w", err)
	}

	var rows []missingMatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list missing matches: %w", err)
	}
	out := make([]missingmatch.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (m missingMatchTableModel) toDomain() missingmatch.Record {
	return missingmatch.Record{
		ScheduleID: m.ScheduleID,
		Category:   match.Category{Gender: m.Gender, Format: m.Format},
		Date:       dateOnly(m.MatchDate),
		Team1Name:  m.Team1Name,
		Team2Name:  m.Team2Name,
		Team1ID:    nullStringValue(m.Team1ID),
		Team2ID:    nullStringValue(m.Team2ID),
		Venue:      m.Venue,
		Status:     missingmatch.Status(m.Status),
		RunID:      m.RunID,
		DetectedAt: m.DetectedAt.UTC(),
	}
}

func toMissingMatchInsertModel(rec missingmatch.Record) missingMatchInsertModel {
	status := rec.Status
	if status == "" {
		status = missingmatch.StatusUnreviewed
	}
	return missingMatchInsertModel{
		ScheduleID: rec.ScheduleID,
		Gender:     rec.Category.Gender,
		Format:     rec.Category.Format,
		MatchDate:  dateOnly(rec.Date),
		Team1Name:  rec.Team1Name,
		Team2Name:  rec.Team2Name,
		Team1ID:    nullableString(rec.Team1ID),
		Team2ID:    nullableString(rec.Team2ID),
		Venue:      rec.Venue,
		Status:     string(status),
		RunID:      rec.RunID,
		DetectedAt: rec.DetectedAt.UTC(),
	}
}
