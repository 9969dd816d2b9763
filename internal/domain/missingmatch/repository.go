package missingmatch

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned when a review targets an unknown schedule id.
var ErrRecordNotFound = errors.New("missing match not found")

// Repository stores missing-match records. RecordPage and ApplyReview each
// run in their own transaction; RecordPage never updates an existing record.
type Repository interface {
	GetByScheduleIDs(ctx context.Context, scheduleIDs []string) (map[string]Record, error)
	RecordPage(ctx context.Context, page Page) (int, error)
	Get(ctx context.Context, scheduleID string) (Record, bool, error)
	// ApplyReview locks the record, takes review.Previous from its current
	// status, and returns the updated record.
	ApplyReview(ctx context.Context, review Review) (Record, error)
	ListReviews(ctx context.Context, scheduleID string) ([]Review, error)
	List(ctx context.Context, filter ListFilter) ([]Record, error)
}
