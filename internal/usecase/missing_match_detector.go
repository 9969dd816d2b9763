package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/missingmatch"
	"github.com/riskibarqy/cricbase/internal/domain/profile"
	"github.com/riskibarqy/cricbase/internal/domain/rawdata"
	"github.com/riskibarqy/cricbase/internal/platform/id"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
)

type DetectorState string

const (
	StateIdle      DetectorState = "idle"
	StateFetching  DetectorState = "fetching"
	StateDiffing   DetectorState = "diffing"
	StateReporting DetectorState = "reporting"
)

const defaultSchedulePageSize = 400

type ReconcileRequest struct {
	Category match.Category
	From     time.Time
	To       time.Time
}

type FailedPage struct {
	Window string `json:"window"`
	Page   int    `json:"page"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

type ReconcileSummary struct {
	RunID         string          `json:"run_id"`
	Category      string          `json:"category"`
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Windows       int             `json:"windows"`
	PagesFetched  int             `json:"pages_fetched"`
	PagesRecorded int             `json:"pages_recorded"`
	NewGaps       int             `json:"new_gaps"`
	UnchangedGaps int             `json:"unchanged_gaps"`
	Suppressed    int             `json:"suppressed"`
	Matched       int             `json:"matched"`
	FailedPages   []FailedPage    `json:"failed_pages,omitempty"`
	Cancelled     bool            `json:"cancelled"`
	Transitions   []DetectorState `json:"transitions"`
}

type DetectorConfig struct {
	PageSize int
}

// MissingMatchDetector compares the external schedule with stored matches and
// records fixtures that have no match. It only reads matches and is safe to
// run while nothing is being ingested or concurrently with ingestion.
type MissingMatchDetector struct {
	source   ScheduleSource
	matches  match.Repository
	missing  missingmatch.Repository
	resolver *EntityResolver
	ids      id.Generator
	cfg      DetectorConfig
	now      func() time.Time
	logger   *logging.Logger
}

func NewMissingMatchDetector(
	source ScheduleSource,
	matches match.Repository,
	missing missingmatch.Repository,
	resolver *EntityResolver,
	ids id.Generator,
	cfg DetectorConfig,
	logger *logging.Logger,
) *MissingMatchDetector {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultSchedulePageSize
	}
	return &MissingMatchDetector{
		source:   source,
		matches:  matches,
		missing:  missing,
		resolver: resolver,
		ids:      ids,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

type monthWindow struct {
	From time.Time
	To   time.Time
}

func (w monthWindow) String() string {
	return w.From.Format("2006-01-02") + ".." + w.To.Format("2006-01-02")
}

// monthWindows splits [from, to] into calendar-month windows; the first and
// last windows are clipped to the range.
func monthWindows(from, to time.Time) []monthWindow {
	from = truncateDay(from)
	to = truncateDay(to)
	var out []monthWindow
	for start := from; !start.After(to); {
		next := time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, start.Location())
		end := next.AddDate(0, 0, -1)
		if end.After(to) {
			end = to
		}
		out = append(out, monthWindow{From: start, To: end})
		start = next
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// reconcileRun holds the state machine of one detector run.
type reconcileRun struct {
	detector *MissingMatchDetector
	resolver *ResolverRun
	request  ReconcileRequest
	summary  ReconcileSummary
	state    DetectorState
	stored   map[string]struct{}
	failures []error
}

func (r *reconcileRun) transition(to DetectorState) {
	r.state = to
	r.summary.Transitions = append(r.summary.Transitions, to)
}

// Run walks the schedule month by month, page by page. Each page is fetched,
// diffed and committed before the next one is requested. A page that cannot
// be fetched is recorded and the rest of its window skipped; a page that
// cannot be stored is recorded and the run continues. Cancellation stops the
// run between steps and returns ctx.Err() with the summary so far.
func (d *MissingMatchDetector) Run(ctx context.Context, req ReconcileRequest) (ReconcileSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MissingMatchDetector.Run")
	defer span.End()

	if req.Category.Gender == "" || req.Category.Format == "" {
		return ReconcileSummary{}, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if req.From.IsZero() || req.To.IsZero() {
		return ReconcileSummary{}, fmt.Errorf("%w: from and to dates are required", ErrInvalidInput)
	}
	if req.To.Before(req.From) {
		return ReconcileSummary{}, fmt.Errorf("%w: to date is before from date", ErrInvalidInput)
	}

	runID, err := d.ids.NewID()
	if err != nil {
		return ReconcileSummary{}, fmt.Errorf("generate run id: %w", err)
	}
	if _, err := d.resolver.Snapshot(ctx); err != nil {
		return ReconcileSummary{}, err
	}

	windows := monthWindows(req.From, req.To)
	run := &reconcileRun{
		detector: d,
		resolver: d.resolver.BeginRun(),
		request:  req,
		state:    StateIdle,
		summary: ReconcileSummary{
			RunID:    runID,
			Category: req.Category.String(),
			From:     req.From,
			To:       req.To,
			Windows:  len(windows),
		},
	}

	d.logger.InfoContext(ctx, "reconciliation started", "run_id", runID, "category", req.Category, "windows", len(windows))

scan:
	for _, window := range windows {
		for page := 1; ; page++ {
			if ctx.Err() != nil {
				run.summary.Cancelled = true
				break scan
			}
			more, err := run.step(ctx, window, page)
			if err != nil {
				if ctx.Err() != nil {
					run.summary.Cancelled = true
					break scan
				}
				break
			}
			if !more {
				break
			}
		}
	}
	run.transition(StateIdle)

	d.logger.InfoContext(ctx, "reconciliation finished",
		"run_id", runID,
		"pages_fetched", run.summary.PagesFetched,
		"new_gaps", run.summary.NewGaps,
		"unchanged_gaps", run.summary.UnchangedGaps,
		"suppressed", run.summary.Suppressed,
		"matched", run.summary.Matched,
		"failed_pages", len(run.summary.FailedPages),
		"cancelled", run.summary.Cancelled,
	)

	if run.summary.Cancelled {
		return run.summary, ctx.Err()
	}
	if len(run.failures) > 0 {
		return run.summary, fmt.Errorf("%w: %w", ErrDependencyUnavailable, errors.Join(run.failures...))
	}
	return run.summary, nil
}

// step runs Fetching, Diffing and Reporting for one page. It reports whether
// the window has more pages. A fetch error ends the window; a store error is
// kept and surfaced at the end of the run.
func (r *reconcileRun) step(ctx context.Context, window monthWindow, number int) (bool, error) {
	d := r.detector

	r.transition(StateFetching)
	page, err := d.source.FetchSchedulePage(ctx, ScheduleQuery{
		Category: r.request.Category,
		From:     window.From,
		To:       window.To,
		Page:     number,
		PageSize: d.cfg.PageSize,
	})
	if err != nil {
		if ctx.Err() == nil {
			r.fail(ctx, window, number, StateFetching, err, false)
		}
		return false, err
	}
	r.summary.PagesFetched++

	r.transition(StateDiffing)
	diff, err := r.diff(ctx, page)
	if err != nil {
		if ctx.Err() == nil {
			r.fail(ctx, window, number, StateDiffing, err, true)
		}
		return false, err
	}

	r.transition(StateReporting)
	inserted, err := d.missing.RecordPage(ctx, missingmatch.Page{
		RunID:    r.summary.RunID,
		Category: r.request.Category,
		Window:   window.String(),
		Number:   number,
		Records:  diff.New,
		Raw:      rawdata.NewPayload(rawdata.SourceSchedule, rawdata.EntitySchedulePage, fmt.Sprintf("%s|%s|%d", r.request.Category, window, number), page.Raw, d.now()),
	})
	if err != nil {
		if ctx.Err() == nil {
			r.fail(ctx, window, number, StateReporting, err, true)
		}
		return false, err
	}

	r.summary.PagesRecorded++
	r.summary.NewGaps += inserted
	r.summary.UnchangedGaps += len(diff.Unchanged) + len(diff.New) - inserted
	r.summary.Suppressed += len(diff.Suppressed)
	r.summary.Matched += len(diff.Matched)
	return page.HasMore(), nil
}

func (r *reconcileRun) fail(ctx context.Context, window monthWindow, number int, stage DetectorState, err error, fatal bool) {
	r.summary.FailedPages = append(r.summary.FailedPages, FailedPage{
		Window: window.String(),
		Page:   number,
		Stage:  string(stage),
		Error:  err.Error(),
	})
	if fatal {
		r.failures = append(r.failures, fmt.Errorf("window %s page %d: %w", window, number, err))
	}
	r.detector.logger.WarnContext(ctx, "reconciliation page failed",
		"run_id", r.summary.RunID,
		"window", window.String(),
		"page", number,
		"stage", string(stage),
		"error", err,
	)
}

func (r *reconcileRun) diff(ctx context.Context, page SchedulePage) (missingmatch.DiffResult, error) {
	d := r.detector
	if r.stored == nil {
		keys, err := d.matches.ListKeys(ctx, match.KeyFilter{
			Category: r.request.Category,
			From:     truncateDay(r.request.From),
			To:       truncateDay(r.request.To),
		})
		if err != nil {
			return missingmatch.DiffResult{}, fmt.Errorf("list stored matches: %w", err)
		}
		r.stored = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			r.stored[missingmatch.KeyOfMatch(k)] = struct{}{}
		}
	}

	entries := make([]missingmatch.Entry, 0, len(page.Entries))
	scheduleIDs := make([]string, 0, len(page.Entries))
	for _, sm := range page.Entries {
		if strings.TrimSpace(sm.ExternalID) == "" {
			continue
		}
		category := sm.Category
		if category.IsZero() {
			category = r.request.Category
		}
		e := missingmatch.Entry{
			ScheduleID: sm.ExternalID,
			Category:   category,
			Date:       truncateDay(sm.Date),
			Team1Name:  sm.Team1,
			Team2Name:  sm.Team2,
			Venue:      sm.Venue,
		}
		e.Team1ID, e.Team1Key = r.teamKey(sm.Team1, category, sm.Date)
		e.Team2ID, e.Team2Key = r.teamKey(sm.Team2, category, sm.Date)
		entries = append(entries, e)
		scheduleIDs = append(scheduleIDs, sm.ExternalID)
	}

	existing, err := d.missing.GetByScheduleIDs(ctx, scheduleIDs)
	if err != nil {
		return missingmatch.DiffResult{}, fmt.Errorf("load missing-match records: %w", err)
	}
	return missingmatch.Diff(entries, r.stored, existing, r.summary.RunID, d.now().UTC()), nil
}

// teamKey resolves a schedule team name. Unknown names fall back to their
// normalized form so they can still be keyed.
func (r *reconcileRun) teamKey(name string, category match.Category, date time.Time) (string, string) {
	res := r.resolver.Resolve(profile.KindTeam, name, profile.Hints{Scope: category.Gender, Date: date})
	if res.Resolved() {
		return res.ID, res.ID
	}
	return "", profile.NormalizeName(name)
}
