package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/cricbase/internal/domain/missingmatch"
	"github.com/riskibarqy/cricbase/internal/domain/rawdata"
)

type MissingMatchRepository struct {
	store *Store
}

func (r *MissingMatchRepository) GetByScheduleIDs(_ context.Context, scheduleIDs []string) (map[string]missingmatch.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make(map[string]missingmatch.Record, len(scheduleIDs))
	for _, id := range scheduleIDs {
		if rec, ok := r.store.missing[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}

// RecordPage inserts the page's new records and its raw payload. Existing
// records are left untouched.
func (r *MissingMatchRepository) RecordPage(_ context.Context, page missingmatch.Page) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fault(OpRecordPage, fmt.Sprintf("%s#%d", page.Window, page.Number)); err != nil {
		return 0, err
	}

	inserted := 0
	for _, rec := range page.Records {
		if _, ok := r.store.missing[rec.ScheduleID]; ok {
			continue
		}
		r.store.missing[rec.ScheduleID] = rec
		inserted++
	}
	if !page.Raw.IsZero() {
		putRaw(r.store, page.Raw)
	}
	return inserted, nil
}

func (r *MissingMatchRepository) Get(_ context.Context, scheduleID string) (missingmatch.Record, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.missing[scheduleID]
	return rec, ok, nil
}

// ApplyReview takes the previous status under the store lock, so concurrent
// reviews of one record chain in the order they were applied.
func (r *MissingMatchRepository) ApplyReview(_ context.Context, review missingmatch.Review) (missingmatch.Record, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.missing[review.ScheduleID]
	if !ok {
		return missingmatch.Record{}, fmt.Errorf("%w: %s", missingmatch.ErrRecordNotFound, review.ScheduleID)
	}
	review.Previous = rec.Status
	rec.Status = review.Status
	r.store.missing[review.ScheduleID] = rec
	r.store.reviews[review.ScheduleID] = append(r.store.reviews[review.ScheduleID], review)
	return rec, nil
}

func (r *MissingMatchRepository) ListReviews(_ context.Context, scheduleID string) ([]missingmatch.Review, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append([]missingmatch.Review(nil), r.store.reviews[scheduleID]...), nil
}

func (r *MissingMatchRepository) List(_ context.Context, filter missingmatch.ListFilter) ([]missingmatch.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]missingmatch.Record, 0, len(r.store.missing))
	for _, rec := range r.store.missing {
		if !filter.Category.IsZero() && rec.Category != filter.Category {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ScheduleID < out[j].ScheduleID
	})
	return out, nil
}

type RawDataRepository struct {
	store *Store
}

func (r *RawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		putRaw(r.store, item)
	}
	return nil
}

// Payloads returns stored payloads of a source ordered by entity key.
func (r *RawDataRepository) Payloads(source string) []rawdata.Payload {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []rawdata.Payload
	for k, p := range r.store.raw {
		if k.source == source {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityKey < out[j].EntityKey })
	return out
}

func putRaw(s *Store, p rawdata.Payload) {
	s.raw[rawKey{source: p.Source, entityType: p.EntityType, entityKey: p.EntityKey}] = p
}
