package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/profile"
	"github.com/riskibarqy/cricbase/internal/domain/rawdata"
	"github.com/riskibarqy/cricbase/internal/platform/id"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
)

type IngestOutcome string

const (
	OutcomeInserted          IngestOutcome = "inserted"
	OutcomeSkippedOutOfScope IngestOutcome = "skipped_out_of_scope"
	OutcomeSkippedDuplicate  IngestOutcome = "skipped_duplicate"
	OutcomeQuarantined       IngestOutcome = "quarantined"
	OutcomeRejected          IngestOutcome = "rejected"
	OutcomeFailed            IngestOutcome = "failed"

	// outcomeDeferred is internal: the document waits for the context pass.
	outcomeDeferred IngestOutcome = "deferred"
)

type IngestConfig struct {
	Scope      IngestScope
	MaxWorkers int
}

type IngestSummary struct {
	RunID             string           `json:"run_id"`
	Documents         int              `json:"documents"`
	Inserted          int              `json:"inserted"`
	SkippedOutOfScope int              `json:"skipped_out_of_scope"`
	SkippedDuplicate  int              `json:"skipped_duplicate"`
	Quarantined       int              `json:"quarantined"`
	Rejected          int              `json:"rejected"`
	Failed            int              `json:"failed"`
	Candidates        int              `json:"candidates"`
	WorkerCount       int              `json:"worker_count"`
	Results           []DocumentResult `json:"results"`
}

type DocumentResult struct {
	Key        string        `json:"key"`
	Path       string        `json:"path,omitempty"`
	Outcome    IngestOutcome `json:"outcome"`
	Field      string        `json:"field,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Unresolved []string      `json:"unresolved,omitempty"`
	DurationMs int64         `json:"duration_ms"`
}

// Held returns the documents that were quarantined, rejected or failed.
func (s IngestSummary) Held() []DocumentResult {
	var out []DocumentResult
	for _, r := range s.Results {
		switch r.Outcome {
		case OutcomeQuarantined, OutcomeRejected, OutcomeFailed:
			out = append(out, r)
		}
	}
	return out
}

func (s *IngestSummary) count(outcome IngestOutcome) {
	switch outcome {
	case OutcomeInserted:
		s.Inserted++
	case OutcomeSkippedOutOfScope:
		s.SkippedOutOfScope++
	case OutcomeSkippedDuplicate:
		s.SkippedDuplicate++
	case OutcomeQuarantined:
		s.Quarantined++
	case OutcomeRejected:
		s.Rejected++
	default:
		s.Failed++
	}
}

// IngestionService loads match documents into the store. Every document is
// processed independently; one bad document never affects another.
type IngestionService struct {
	decoder    DocumentDecoder
	normalizer *MatchNormalizer
	resolver   *EntityResolver
	matches    match.Repository
	failures   match.FailureRepository
	rawData    rawdata.Repository
	ids        id.Generator
	cfg        IngestConfig
	now        func() time.Time
	logger     *logging.Logger
}

func NewIngestionService(
	decoder DocumentDecoder,
	resolver *EntityResolver,
	matches match.Repository,
	failures match.FailureRepository,
	rawData rawdata.Repository,
	ids id.Generator,
	cfg IngestConfig,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	return &IngestionService{
		decoder:    decoder,
		normalizer: NewMatchNormalizer(cfg.Scope),
		resolver:   resolver,
		matches:    matches,
		failures:   failures,
		rawData:    rawData,
		ids:        ids,
		cfg:        cfg,
		now:        time.Now,
		logger:     logger,
	}
}

// IngestDirectory ingests every *.json document directly under dir. The
// document key is the file name without extension.
func (s *IngestionService) IngestDirectory(ctx context.Context, dir string) (IngestSummary, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return IngestSummary{}, fmt.Errorf("%w: document directory is required", ErrInvalidInput)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return IngestSummary{}, fmt.Errorf("%w: document directory %s", ErrNotFound, dir)
		}
		return IngestSummary{}, fmt.Errorf("read document directory %s: %w", dir, err)
	}

	files := make([]SourceFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		files = append(files, SourceFile{
			Key:  strings.TrimSuffix(name, filepath.Ext(name)),
			Path: filepath.Join(dir, name),
		})
	}
	return s.Ingest(ctx, files)
}

type ingestTask struct {
	file SourceFile
	doc  *SourceMatch
}

type ingestResult struct {
	task ingestTask
	row  DocumentResult
	err  error
}

// Ingest processes documents in two passes. The first pass resolves names by
// registry key, canonical name and alias only while recording what it
// resolved; documents left with unresolved names are retried in a second
// pass with the run memo enabled. Both passes see a memo built from the same
// set of documents, so the outcome does not depend on worker scheduling.
func (s *IngestionService) Ingest(ctx context.Context, files []SourceFile) (IngestSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.Ingest")
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		return IngestSummary{}, fmt.Errorf("generate run id: %w", err)
	}
	summary := IngestSummary{
		RunID:     runID,
		Documents: len(files),
		Results:   make([]DocumentResult, 0, len(files)),
	}
	if len(files) == 0 {
		return summary, nil
	}

	if _, err := s.resolver.Reload(ctx); err != nil {
		return summary, err
	}
	run := s.resolver.BeginRun()

	tasks := make([]ingestTask, 0, len(files))
	for _, f := range files {
		tasks = append(tasks, ingestTask{file: f})
	}
	summary.WorkerCount = normalizeIngestWorkerCount(s.cfg.MaxWorkers, len(tasks))

	first, err := s.runPass(ctx, run, tasks, false, summary.WorkerCount)
	if err != nil {
		return summary, err
	}

	var deferred []ingestTask
	for _, res := range first {
		if res.row.Outcome == outcomeDeferred {
			deferred = append(deferred, res.task)
			continue
		}
		summary.Results = append(summary.Results, res.row)
	}

	if len(deferred) > 0 {
		run.EnableContext()
		second, err := s.runPass(ctx, run, deferred, true, normalizeIngestWorkerCount(s.cfg.MaxWorkers, len(deferred)))
		if err != nil {
			return summary, err
		}
		for _, res := range second {
			summary.Results = append(summary.Results, res.row)
		}
	}

	flushed, err := s.resolver.FlushCandidates(ctx, run)
	if err != nil {
		s.logger.WarnContext(ctx, "append resolution candidates failed", "run_id", runID, "error", err)
	}
	summary.Candidates = flushed

	sort.SliceStable(summary.Results, func(i, j int) bool {
		return summary.Results[i].Key < summary.Results[j].Key
	})
	for _, row := range summary.Results {
		summary.count(row.Outcome)
	}

	s.logger.InfoContext(ctx, "ingestion run finished",
		"run_id", runID,
		"documents", summary.Documents,
		"inserted", summary.Inserted,
		"skipped_out_of_scope", summary.SkippedOutOfScope,
		"skipped_duplicate", summary.SkippedDuplicate,
		"quarantined", summary.Quarantined,
		"rejected", summary.Rejected,
		"failed", summary.Failed,
	)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *IngestionService) runPass(ctx context.Context, run *ResolverRun, tasks []ingestTask, final bool, workerCount int) ([]ingestResult, error) {
	results := make(chan ingestResult, len(tasks))

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, task := range tasks {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			results <- s.ingestOne(ctx, run, task, final)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return nil, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	out := make([]ingestResult, 0, len(tasks))
	for res := range results {
		out = append(out, res)
	}
	return out, nil
}

// ingestOne never panics; a panic while processing a document fails that
// document only.
func (s *IngestionService) ingestOne(ctx context.Context, run *ResolverRun, task ingestTask, final bool) ingestResult {
	start := time.Now()
	res := ingestResult{task: task, row: DocumentResult{Key: task.file.Key, Path: task.file.Path}}

	var catcher panics.Catcher
	catcher.Try(func() {
		res = s.process(ctx, run, task, final)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		res.row.Outcome = OutcomeFailed
		res.row.Reason = recovered.AsError().Error()
		s.logger.ErrorContext(ctx, "document processing panicked", "key", task.file.Key, "panic", recovered.Value)
	}
	res.row.DurationMs = time.Since(start).Milliseconds()

	switch res.row.Outcome {
	case OutcomeQuarantined, OutcomeRejected:
		s.recordFailure(ctx, res)
	case OutcomeFailed:
		s.logger.WarnContext(ctx, "document ingestion failed", "key", task.file.Key, "error", res.row.Reason)
	}
	return res
}

func (s *IngestionService) process(ctx context.Context, run *ResolverRun, task ingestTask, final bool) ingestResult {
	res := ingestResult{task: task, row: DocumentResult{Key: task.file.Key, Path: task.file.Path}}
	fail := func(outcome IngestOutcome, err error) ingestResult {
		res.row.Outcome = outcome
		res.row.Reason = err.Error()
		res.err = err
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(OutcomeFailed, err)
	}

	if len(res.task.file.Body) == 0 {
		body, err := os.ReadFile(res.task.file.Path)
		if err != nil {
			return fail(OutcomeFailed, fmt.Errorf("read document %s: %w", res.task.file.Path, err))
		}
		res.task.file.Body = body
	}

	if res.task.doc == nil {
		doc, err := s.decoder.Decode(res.task.file)
		if err != nil {
			var invalid *ValidationError
			if errors.As(err, &invalid) {
				res.row.Field = invalid.Field
			}
			return fail(OutcomeRejected, err)
		}
		res.task.doc = &doc
	}
	doc := *res.task.doc

	if !s.normalizer.scope.Allows(doc) {
		res.row.Outcome = OutcomeSkippedOutOfScope
		return res
	}

	exists, err := s.matches.Exists(ctx, doc.Key)
	if err != nil {
		return fail(OutcomeFailed, fmt.Errorf("%w: check match %s: %w", ErrDependencyUnavailable, doc.Key, err))
	}
	if exists {
		res.row.Outcome = OutcomeSkippedDuplicate
		return res
	}

	graph, err := s.normalizer.Normalize(run, doc)
	if err != nil {
		var unresolved *UnresolvedError
		var invalid *ValidationError
		switch {
		case errors.Is(err, ErrOutOfScope):
			res.row.Outcome = OutcomeSkippedOutOfScope
			return res
		case errors.As(err, &unresolved):
			res.row.Unresolved = unresolved.NameStrings()
			if !final {
				res.row.Outcome = outcomeDeferred
				res.err = err
				return res
			}
			for _, n := range unresolved.Names {
				run.Flag(n.Kind, n.Name, profile.Hints{Key: n.Key, Scope: n.Scope}, doc.Key, s.now())
			}
			return fail(OutcomeQuarantined, err)
		case errors.As(err, &invalid):
			res.row.Field = invalid.Field
			return fail(OutcomeRejected, err)
		default:
			return fail(OutcomeFailed, err)
		}
	}

	if err := s.matches.InsertGraph(ctx, graph); err != nil {
		var constraint *match.ConstraintError
		switch {
		case errors.Is(err, match.ErrAlreadyExists):
			res.row.Outcome = OutcomeSkippedDuplicate
			return res
		case errors.As(err, &constraint):
			res.row.Field = constraint.Table + "." + constraint.Constraint
			return fail(OutcomeRejected, &ValidationError{DocumentKey: doc.Key, Field: res.row.Field, Reason: "constraint violation", Err: err})
		default:
			return fail(OutcomeFailed, fmt.Errorf("%w: insert match %s: %w", ErrDependencyUnavailable, doc.Key, err))
		}
	}

	res.row.Outcome = OutcomeInserted
	return res
}

// recordFailure persists why a document was held back together with its raw
// body. Failures to persist are logged and do not change the outcome.
func (s *IngestionService) recordFailure(ctx context.Context, res ingestResult) {
	now := s.now()
	failure := match.IngestFailure{
		DocumentKey: res.task.file.Key,
		SourcePath:  res.task.file.Path,
		Disposition: match.DispositionRejected,
		Field:       res.row.Field,
		Reason:      res.row.Reason,
		Unresolved:  res.row.Unresolved,
		SeenAt:      now,
	}
	if res.row.Outcome == OutcomeQuarantined {
		failure.Disposition = match.DispositionQuarantined
	}
	if s.failures != nil {
		if err := s.failures.RecordFailure(ctx, failure); err != nil {
			s.logger.WarnContext(ctx, "record ingest failure failed", "key", failure.DocumentKey, "error", err)
		}
	}
	if s.rawData != nil && len(res.task.file.Body) > 0 {
		payload := rawdata.NewPayload(rawdata.SourceCricsheet, rawdata.EntityMatchDocument, res.task.file.Key, res.task.file.Body, now)
		if err := s.rawData.UpsertMany(ctx, []rawdata.Payload{payload}); err != nil {
			s.logger.WarnContext(ctx, "store raw document failed", "key", failure.DocumentKey, "error", err)
		}
	}
}

func normalizeIngestWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
