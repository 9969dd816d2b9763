package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
)

// IntegrityService re-checks stored matches against their deliveries.
type IntegrityService struct {
	matches match.Repository
	logger  *logging.Logger
}

func NewIntegrityService(matches match.Repository, logger *logging.Logger) *IntegrityService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IntegrityService{matches: matches, logger: logger}
}

func (s *IntegrityService) Verify(ctx context.Context) ([]match.IntegrityIssue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IntegrityService.Verify")
	defer span.End()

	issues, err := s.matches.IntegrityIssues(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: run integrity checks: %w", ErrDependencyUnavailable, err)
	}
	if len(issues) > 0 {
		s.logger.WarnContext(ctx, "integrity issues found", "count", len(issues))
	}
	return issues, nil
}
