package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/cricbase/internal/domain/profile"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
)

// EntityResolver owns the profile snapshot used to resolve raw names. The
// snapshot is swapped on Reload and never mutated in place.
type EntityResolver struct {
	repo    profile.Repository
	window  time.Duration
	logger  *logging.Logger
	current atomic.Pointer[profile.Snapshot]
	reloads singleflight.Group
}

func NewEntityResolver(repo profile.Repository, window time.Duration, logger *logging.Logger) *EntityResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &EntityResolver{
		repo:   repo,
		window: window,
		logger: logger,
	}
}

// Reload reads every profile and alias and publishes a new snapshot.
// Concurrent callers share a single load.
func (r *EntityResolver) Reload(ctx context.Context) (*profile.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityResolver.Reload")
	defer span.End()

	v, err, _ := r.reloads.Do("snapshot", func() (any, error) {
		entities, err := r.repo.ListEntities(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list profiles: %w", ErrDependencyUnavailable, err)
		}
		aliases, err := r.repo.ListAliases(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list aliases: %w", ErrDependencyUnavailable, err)
		}
		snap := profile.NewSnapshot(entities, aliases)
		r.current.Store(snap)
		r.logger.InfoContext(ctx, "profile snapshot reloaded", "entities", snap.Size(), "aliases", snap.AliasCount())
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*profile.Snapshot), nil
}

// Snapshot returns the current snapshot, loading it on first use.
func (r *EntityResolver) Snapshot(ctx context.Context) (*profile.Snapshot, error) {
	if snap := r.current.Load(); snap != nil {
		return snap, nil
	}
	return r.Reload(ctx)
}

// BeginRun pins the current snapshot for the duration of one run. Context
// lookups start disabled; see ResolverRun.EnableContext.
func (r *EntityResolver) BeginRun() *ResolverRun {
	snap := r.current.Load()
	if snap == nil {
		snap = profile.NewSnapshot(nil, nil)
	}
	return &ResolverRun{
		snapshot:   snap,
		memo:       profile.NewRunMemo(r.window),
		candidates: make(map[candidateKey]*profile.Candidate),
	}
}

// FlushCandidates appends the names a run could not resolve.
func (r *EntityResolver) FlushCandidates(ctx context.Context, run *ResolverRun) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityResolver.FlushCandidates")
	defer span.End()

	items := run.Candidates()
	if len(items) == 0 {
		return 0, nil
	}
	if err := r.repo.AppendCandidates(ctx, items); err != nil {
		return 0, fmt.Errorf("%w: append candidates: %w", ErrDependencyUnavailable, err)
	}
	return len(items), nil
}

type candidateKey struct {
	namespace string
	name      string
	scope     string
}

// ResolverRun is the resolver state for one ingestion or reconciliation run.
type ResolverRun struct {
	snapshot   *profile.Snapshot
	memo       *profile.RunMemo
	contextual atomic.Bool

	mu         sync.Mutex
	candidates map[candidateKey]*profile.Candidate
}

// EnableContext turns on memo lookups. Until then the run only records exact
// and alias resolutions, so the memo content does not depend on the order
// documents were processed in.
func (r *ResolverRun) EnableContext() {
	r.contextual.Store(true)
}

func (r *ResolverRun) Snapshot() *profile.Snapshot {
	return r.snapshot
}

func (r *ResolverRun) Resolve(kind profile.Kind, rawName string, hints profile.Hints) profile.Resolution {
	var memo *profile.RunMemo
	if r.contextual.Load() {
		memo = r.memo
	}
	res := profile.Resolve(r.snapshot, memo, kind, rawName, hints)
	switch res.Method {
	case profile.MethodExact, profile.MethodAlias:
		r.memo.Remember(kind, rawName, hints.TeamID, hints.Date, res.ID)
	}
	return res
}

// Flag records an unresolved name as a curation candidate.
func (r *ResolverRun) Flag(kind profile.Kind, rawName string, hints profile.Hints, matchID string, seenAt time.Time) {
	key := candidateKey{namespace: kind.Namespace(), name: profile.NormalizeName(rawName), scope: profile.NormalizeName(hints.Scope)}
	if key.name == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.candidates[key]; ok {
		c.SeenCount++
		if matchID < c.MatchID {
			c.MatchID = matchID
		}
		return
	}
	r.candidates[key] = &profile.Candidate{
		Kind:      kind,
		RawName:   rawName,
		Scope:     hints.Scope,
		HintKey:   hints.Key,
		MatchID:   matchID,
		Status:    profile.CandidatePending,
		SeenCount: 1,
		SeenAt:    seenAt,
	}
}

// Candidates returns the flagged names ordered by kind and name.
func (r *ResolverRun) Candidates() []profile.Candidate {
	r.mu.Lock()
	out := make([]profile.Candidate, 0, len(r.candidates))
	for _, c := range r.candidates {
		out = append(out, *c)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].RawName != out[j].RawName {
			return out[i].RawName < out[j].RawName
		}
		return out[i].Scope < out[j].Scope
	})
	return out
}
