package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/account"
	"github.com/openledger-engine/internal/domain/archive"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
	"github.com/openledger-engine/internal/ledger"
)

// ComputationEngine is the engine surface the gateway depends on. It is
// satisfied by *ledger.Engine and narrowed here so services can be tested
// against a substitute.
type ComputationEngine interface {
	Chart() *account.Chart
	Post(ctx context.Context, draft *journal.Draft) (*journal.Transaction, error)
	Balance(accountID uuid.UUID, asOf time.Time, rollup bool) (money.Money, error)
	PeriodBalance(accountID uuid.UUID, start, end time.Time, rollup bool) (money.Money, error)
	TickDepreciation(ctx context.Context, today time.Time) ([]ledger.DepreciationResult, error)
	TickRecurrence(ctx context.Context, today time.Time) ([]ledger.RecurrenceResult, error)
	BuildBalanceSheet(asOf time.Time) (*ledger.BalanceSheet, error)
	BuildIncomeStatement(start, end time.Time) (*ledger.IncomeStatement, error)
	BuildCashFlow(start, end time.Time) (*ledger.CashFlow, error)
	Transactions() []*journal.Transaction
}

// TransactionPublisher broadcasts committed transactions to downstream
// consumers
type TransactionPublisher interface {
	PublishTransaction(ctx context.Context, tx *journal.Transaction) error
}

// LedgerService defines the interface for posting and balance operations
type LedgerService interface {
	// PostTransaction validates and commits a transaction draft.
	// Validation failures surface the journal error taxonomy unchanged
	PostTransaction(ctx context.Context, draft *journal.Draft) (*journal.Transaction, error)

	// ListTransactions returns a snapshot of the committed transactions,
	// paginated in commit order
	ListTransactions(ctx context.Context, page, perPage int) ([]*journal.Transaction, int64, error)

	// ListAccounts returns the chart of accounts ordered by code
	ListAccounts(ctx context.Context) ([]*account.Account, error)

	// GetBalance returns an account's balance as of a date
	// Returns account.ErrAccountNotFound if the account doesn't exist
	GetBalance(ctx context.Context, accountID uuid.UUID, asOf time.Time, rollup bool) (money.Money, error)

	// GetPeriodBalance returns an account's balance over a closed date range
	GetPeriodBalance(ctx context.Context, accountID uuid.UUID, start, end time.Time, rollup bool) (money.Money, error)

	// GetEntriesByAccountID retrieves paginated archived entries for an account
	// Returns entries, total count, and any error
	GetEntriesByAccountID(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*archive.Entry, int64, error)
}

// SchedulerService defines the interface for manual scheduler ticks
type SchedulerService interface {
	// TickDepreciation generates due depreciation postings for all active assets
	TickDepreciation(ctx context.Context, today time.Time) ([]ledger.DepreciationResult, error)

	// TickRecurrence fires all due recurring-transaction templates
	TickRecurrence(ctx context.Context, today time.Time) ([]ledger.RecurrenceResult, error)
}

// ReportService defines the interface for financial statement generation
type ReportService interface {
	// BalanceSheet renders the balance sheet at a date
	// Returns ledger.ErrIntegrityViolation when the accounting identity fails
	BalanceSheet(ctx context.Context, asOf time.Time) (*ledger.BalanceSheet, error)

	// IncomeStatement renders revenue and expense flows over a period
	IncomeStatement(ctx context.Context, start, end time.Time) (*ledger.IncomeStatement, error)

	// CashFlow renders period movements partitioned by cash flow tag
	CashFlow(ctx context.Context, start, end time.Time) (*ledger.CashFlow, error)
}
