package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/account"
	"github.com/openledger-engine/internal/domain/archive"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
)

// ErrArchiveNotConfigured indicates an entry-history query against a
// deployment running without the entry archive
type ErrArchiveNotConfigured struct{}

func (e ErrArchiveNotConfigured) Error() string {
	return "entry archive is not configured"
}

// Is implements the errors.Is interface for ErrArchiveNotConfigured
func (e ErrArchiveNotConfigured) Is(target error) bool {
	_, ok := target.(ErrArchiveNotConfigured)
	return ok
}

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	engine       ComputationEngine
	entryArchive archive.Repository   // nil when the archive is disabled
	publisher    TransactionPublisher // nil when event publishing is disabled
	logger       *slog.Logger
}

// NewLedgerService creates a new ledger service. The archive repository and
// publisher are optional; posting succeeds without them.
func NewLedgerService(logger *slog.Logger, engine ComputationEngine, entryArchive archive.Repository, publisher TransactionPublisher) LedgerService {
	return &LedgerServiceImpl{
		engine:       engine,
		entryArchive: entryArchive,
		publisher:    publisher,
		logger:       logger,
	}
}

// PostTransaction commits the draft through the engine, then archives the
// entries and publishes the posted event best-effort. The transaction is
// committed once the engine returns; archive or publish failures are logged
// and never unwind it.
func (s *LedgerServiceImpl) PostTransaction(ctx context.Context, draft *journal.Draft) (*journal.Transaction, error) {
	tx, err := s.engine.Post(ctx, draft)
	if err != nil {
		return nil, err
	}

	if s.entryArchive != nil {
		if err := s.entryArchive.ArchiveTransaction(ctx, tx); err != nil {
			s.logger.Error("Failed to archive transaction entries",
				"transaction_id", tx.ID,
				"number", tx.Number,
				"error", err,
			)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransaction(ctx, tx); err != nil {
			s.logger.Error("Failed to publish posted transaction",
				"transaction_id", tx.ID,
				"number", tx.Number,
				"error", err,
			)
		}
	}

	s.logger.Info("Transaction posted",
		"transaction_id", tx.ID,
		"number", tx.Number,
		"type", string(tx.Type),
		"entries", len(tx.Entries),
	)

	return tx, nil
}

// ListTransactions returns one page of the committed transactions in commit
// order, along with the total count
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, page, perPage int) ([]*journal.Transaction, int64, error) {
	all := s.engine.Transactions()
	total := int64(len(all))

	offset := (page - 1) * perPage
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ListAccounts returns the chart of accounts ordered by code
func (s *LedgerServiceImpl) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	return s.engine.Chart().Accounts(), nil
}

// GetBalance returns an account's balance as of a date, optionally rolled up
// over its subtree
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, accountID uuid.UUID, asOf time.Time, rollup bool) (money.Money, error) {
	return s.engine.Balance(accountID, asOf, rollup)
}

// GetPeriodBalance returns an account's balance over a closed date range
func (s *LedgerServiceImpl) GetPeriodBalance(ctx context.Context, accountID uuid.UUID, start, end time.Time, rollup bool) (money.Money, error) {
	return s.engine.PeriodBalance(accountID, start, end, rollup)
}

// GetEntriesByAccountID retrieves paginated archived entries for an account,
// newest first. Returns entries, total count, and any error
func (s *LedgerServiceImpl) GetEntriesByAccountID(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*archive.Entry, int64, error) {
	if s.entryArchive == nil {
		return nil, 0, ErrArchiveNotConfigured{}
	}

	offset := (page - 1) * perPage

	entries, err := s.entryArchive.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.entryArchive.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
