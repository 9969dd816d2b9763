package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/missingmatch"
)

type ReviewInput struct {
	ScheduleID string `validate:"required"`
	Status     string `validate:"required"`
	Reviewer   string `validate:"required,max=128"`
	Note       string `validate:"max=2000"`
}

// ReviewService is the human confirmation step for missing-match records.
// Reviews never delete anything; each one appends to the record's history.
type ReviewService struct {
	repo     missingmatch.Repository
	validate *validator.Validate
	now      func() time.Time
}

func NewReviewService(repo missingmatch.Repository) *ReviewService {
	return &ReviewService{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *ReviewService) Review(ctx context.Context, input ReviewInput) (missingmatch.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReviewService.Review")
	defer span.End()

	input.ScheduleID = strings.TrimSpace(input.ScheduleID)
	input.Reviewer = strings.TrimSpace(input.Reviewer)
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return missingmatch.Record{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	status, ok := missingmatch.ParseStatus(input.Status)
	if !ok || !status.Reviewed() {
		return missingmatch.Record{}, fmt.Errorf("%w: status %q is not a review decision", ErrInvalidInput, input.Status)
	}

	review := missingmatch.Review{
		ScheduleID: input.ScheduleID,
		Status:     status,
		Reviewer:   input.Reviewer,
		Note:       strings.TrimSpace(input.Note),
		ReviewedAt: s.now().UTC(),
	}
	record, err := s.repo.ApplyReview(ctx, review)
	if err != nil {
		if errors.Is(err, missingmatch.ErrRecordNotFound) {
			return missingmatch.Record{}, fmt.Errorf("%w: missing match %s", ErrNotFound, input.ScheduleID)
		}
		return missingmatch.Record{}, fmt.Errorf("apply review for %s: %w", input.ScheduleID, err)
	}
	return record, nil
}

func (s *ReviewService) History(ctx context.Context, scheduleID string) ([]missingmatch.Review, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReviewService.History")
	defer span.End()

	scheduleID = strings.TrimSpace(scheduleID)
	if scheduleID == "" {
		return nil, fmt.Errorf("%w: schedule id is required", ErrInvalidInput)
	}
	if _, found, err := s.repo.Get(ctx, scheduleID); err != nil {
		return nil, fmt.Errorf("get missing match %s: %w", scheduleID, err)
	} else if !found {
		return nil, fmt.Errorf("%w: missing match %s", ErrNotFound, scheduleID)
	}

	items, err := s.repo.ListReviews(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for %s: %w", scheduleID, err)
	}
	return items, nil
}

// List returns missing-match records, optionally narrowed by category
// ("gender/format") and status.
func (s *ReviewService) List(ctx context.Context, category, status string) ([]missingmatch.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReviewService.List")
	defer span.End()

	var filter missingmatch.ListFilter
	if strings.TrimSpace(category) != "" {
		c, err := match.ParseCategory(category)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Category = c
	}
	if strings.TrimSpace(status) != "" {
		st, ok := missingmatch.ParseStatus(status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
		filter.Status = st
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list missing matches: %w", err)
	}
	return items, nil
}
