package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/account"
	"github.com/openledger-engine/internal/domain/asset"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
	"github.com/openledger-engine/internal/domain/recurring"
	"github.com/panjf2000/ants/v2"
)

// Options tunes the engine. The zero value disables caching and runs ticks
// without a worker pool.
type Options struct {
	CacheEnabled   bool
	WorkerPoolSize int
}

// Engine is the general-ledger computation engine facade: it wires the chart
// index, committed log, poster, aggregator, statement builder and the two
// schedulers behind the operations exposed to collaborators.
type Engine struct {
	chart        *account.Chart
	log          *Log
	poster       *Poster
	agg          *Aggregator
	statements   *StatementBuilder
	depreciation *DepreciationScheduler
	recurrence   *RecurrenceEngine
	pool         *ants.Pool
	logger       *slog.Logger
}

// New builds an engine over the given chart and repositories, replaying the
// committed transaction log from the journal repository (when present) so
// balances and transaction numbering continue where the store left off.
func New(
	ctx context.Context,
	logger *slog.Logger,
	opts Options,
	chart *account.Chart,
	journalRepo journal.Repository,
	assetRepo asset.Repository,
	units asset.UnitsReporter,
	templateRepo recurring.Repository,
) (*Engine, error) {
	log := NewLog()
	if journalRepo != nil {
		committed, err := journalRepo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to replay committed transactions: %w", err)
		}
		log.Seed(committed)
		logger.Info("Committed log replayed", "transactions", log.Len(), "last_number", log.LastNumber())
	}

	var pool *ants.Pool
	if opts.WorkerPoolSize > 0 {
		var err error
		pool, err = ants.NewPool(opts.WorkerPoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create tick worker pool: %w", err)
		}
	}

	agg := NewAggregator(chart, log, opts.CacheEnabled)
	poster := NewPoster(chart, log, journalRepo, agg, logger)

	e := &Engine{
		chart:      chart,
		log:        log,
		poster:     poster,
		agg:        agg,
		statements: NewStatementBuilder(chart, agg),
		pool:       pool,
		logger:     logger,
	}
	if assetRepo != nil {
		e.depreciation = NewDepreciationScheduler(poster, assetRepo, units, pool, logger)
	}
	if templateRepo != nil {
		e.recurrence = NewRecurrenceEngine(poster, templateRepo, log, pool, logger)
	}
	return e, nil
}

// Chart exposes the chart-of-accounts index. Mutations through it (add,
// reparent, activation flips) bump the chart version, which discards any
// rollup balances cached against the old hierarchy.
func (e *Engine) Chart() *account.Chart {
	return e.chart
}

// Post validates and commits a transaction draft.
func (e *Engine) Post(ctx context.Context, draft *journal.Draft) (*journal.Transaction, error) {
	return e.poster.Post(ctx, draft)
}

// Balance returns an account's balance as of a date, optionally rolled up
// over its subtree.
func (e *Engine) Balance(accountID uuid.UUID, asOf time.Time, rollup bool) (money.Money, error) {
	return e.agg.Balance(accountID, asOf, rollup)
}

// PeriodBalance returns an account's balance over a closed date range.
func (e *Engine) PeriodBalance(accountID uuid.UUID, start, end time.Time, rollup bool) (money.Money, error) {
	return e.agg.PeriodBalance(accountID, start, end, rollup)
}

// TickDepreciation runs one depreciation tick for all active assets.
func (e *Engine) TickDepreciation(ctx context.Context, today time.Time) ([]DepreciationResult, error) {
	if e.depreciation == nil {
		return nil, fmt.Errorf("no asset repository configured")
	}
	return e.depreciation.Tick(ctx, today), nil
}

// TickRecurrence runs one recurrence tick for all active templates.
func (e *Engine) TickRecurrence(ctx context.Context, today time.Time) ([]RecurrenceResult, error) {
	if e.recurrence == nil {
		return nil, fmt.Errorf("no recurring template repository configured")
	}
	return e.recurrence.Tick(ctx, today), nil
}

// BuildBalanceSheet renders the balance sheet at a date.
func (e *Engine) BuildBalanceSheet(asOf time.Time) (*BalanceSheet, error) {
	return e.statements.BuildBalanceSheet(asOf)
}

// BuildIncomeStatement renders the income statement over a period.
func (e *Engine) BuildIncomeStatement(start, end time.Time) (*IncomeStatement, error) {
	return e.statements.BuildIncomeStatement(start, end)
}

// BuildCashFlow renders the cash flow statement over a period.
func (e *Engine) BuildCashFlow(start, end time.Time) (*CashFlow, error) {
	return e.statements.BuildCashFlow(start, end)
}

// Transactions returns a snapshot of the committed transactions.
func (e *Engine) Transactions() []*journal.Transaction {
	return e.log.Transactions()
}

// Close releases the tick worker pool.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// runTasks executes the tasks on the shared pool, falling back to inline
// execution when no pool is configured or submission fails, and waits for
// all of them.
func runTasks(pool *ants.Pool, tasks []func()) {
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		t := task
		run := func() {
			defer wg.Done()
			t()
		}
		if pool == nil || pool.Submit(run) != nil {
			run()
		}
	}
	wg.Wait()
}
