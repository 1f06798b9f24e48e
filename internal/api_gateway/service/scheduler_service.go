package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/openledger-engine/internal/ledger"
)

// SchedulerServiceImpl implements the SchedulerService interface
type SchedulerServiceImpl struct {
	engine ComputationEngine
	logger *slog.Logger
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(logger *slog.Logger, engine ComputationEngine) SchedulerService {
	return &SchedulerServiceImpl{
		engine: engine,
		logger: logger,
	}
}

// TickDepreciation generates due depreciation postings for all active assets
func (s *SchedulerServiceImpl) TickDepreciation(ctx context.Context, today time.Time) ([]ledger.DepreciationResult, error) {
	results, err := s.engine.TickDepreciation(ctx, today)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Depreciation tick completed", "date", today.Format("2006-01-02"), "results", len(results))
	return results, nil
}

// TickRecurrence fires all due recurring-transaction templates
func (s *SchedulerServiceImpl) TickRecurrence(ctx context.Context, today time.Time) ([]ledger.RecurrenceResult, error) {
	results, err := s.engine.TickRecurrence(ctx, today)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Recurrence tick completed", "date", today.Format("2006-01-02"), "results", len(results))
	return results, nil
}
