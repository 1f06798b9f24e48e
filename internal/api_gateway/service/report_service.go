package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openledger-engine/internal/ledger"
)

// ReportServiceImpl implements the ReportService interface
type ReportServiceImpl struct {
	engine ComputationEngine
	logger *slog.Logger
}

// NewReportService creates a new report service
func NewReportService(logger *slog.Logger, engine ComputationEngine) ReportService {
	return &ReportServiceImpl{
		engine: engine,
		logger: logger,
	}
}

// BalanceSheet renders the balance sheet at a date. An integrity violation is
// logged at error level before being surfaced; it means corrupted ledger data
func (s *ReportServiceImpl) BalanceSheet(ctx context.Context, asOf time.Time) (*ledger.BalanceSheet, error) {
	sheet, err := s.engine.BuildBalanceSheet(asOf)
	if err != nil {
		var integrityErr ledger.ErrIntegrityViolation
		if errors.As(err, &integrityErr) {
			s.logger.Error("Balance sheet failed to reconcile",
				"as_of", asOf.Format("2006-01-02"),
				"total_assets", integrityErr.TotalAssets.StringFixed(),
				"total_liabilities_equity", integrityErr.TotalLiabilitiesEquity.StringFixed(),
			)
		}
		return nil, err
	}
	return sheet, nil
}

// IncomeStatement renders revenue and expense flows over a period
func (s *ReportServiceImpl) IncomeStatement(ctx context.Context, start, end time.Time) (*ledger.IncomeStatement, error) {
	return s.engine.BuildIncomeStatement(start, end)
}

// CashFlow renders period movements partitioned by cash flow tag
func (s *ReportServiceImpl) CashFlow(ctx context.Context, start, end time.Time) (*ledger.CashFlow, error) {
	return s.engine.BuildCashFlow(start, end)
}
