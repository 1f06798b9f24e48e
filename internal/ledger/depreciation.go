package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/asset"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
	"github.com/panjf2000/ants/v2"
)

// DepreciationResult reports the outcome for one generated period of one
// asset. Exactly one of Transaction/Err is set.
type DepreciationResult struct {
	AssetID     uuid.UUID
	Period      asset.Period
	Amount      money.Money
	State       asset.State
	Transaction *journal.Transaction
	Err         error
}

// DepreciationScheduler generates periodic depreciation postings per fixed
// asset. Accumulated depreciation is derived from the entry log on every
// tick, never trusted from a stored total. A DepreciationEntry is recorded
// only after its transaction posted, so a posting failure cannot leave an
// orphaned depreciation record.
type DepreciationScheduler struct {
	poster *Poster
	assets asset.Repository
	units  asset.UnitsReporter
	pool   *ants.Pool
	logger *slog.Logger

	mu sync.Mutex // one tick at a time
}

// NewDepreciationScheduler creates a scheduler posting through the given
// poster. units may be nil when no units-of-production assets exist; pool
// may be nil to run assets sequentially.
func NewDepreciationScheduler(poster *Poster, assets asset.Repository, units asset.UnitsReporter, pool *ants.Pool, logger *slog.Logger) *DepreciationScheduler {
	return &DepreciationScheduler{
		poster: poster,
		assets: assets,
		units:  units,
		pool:   pool,
		logger: logger,
	}
}

// Tick catches every active asset up to the last monthly period fully
// elapsed before today. Assets are processed on the worker pool; failures
// are isolated per item, so one failing asset never aborts its siblings.
func (s *DepreciationScheduler) Tick(ctx context.Context, today time.Time) []DepreciationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets, err := s.assets.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active assets", "error", err)
		return []DepreciationResult{{Err: fmt.Errorf("failed to list active assets: %w", err)}}
	}

	perAsset := make([][]DepreciationResult, len(assets))
	tasks := make([]func(), len(assets))
	for i, a := range assets {
		i, a := i, a
		tasks[i] = func() {
			perAsset[i] = s.tickAsset(ctx, a, today)
		}
	}
	runTasks(s.pool, tasks)

	var results []DepreciationResult
	for _, rs := range perAsset {
		results = append(results, rs...)
	}
	return results
}

// tickAsset generates every due period for one asset.
func (s *DepreciationScheduler) tickAsset(ctx context.Context, a *asset.FixedAsset, today time.Time) []DepreciationResult {
	entries, err := s.assets.EntriesForAsset(ctx, a.ID)
	if err != nil {
		return []DepreciationResult{{AssetID: a.ID, Err: fmt.Errorf("failed to load depreciation log: %w", err)}}
	}

	base, err := a.DepreciableBase()
	if err != nil {
		return []DepreciationResult{{AssetID: a.ID, Err: err}}
	}

	accumulated := money.Zero(money.AmountScale)
	for _, e := range entries {
		accumulated, _ = accumulated.Add(e.Amount)
	}

	period := asset.PeriodOf(a.PurchaseDate)
	if len(entries) > 0 {
		period = entries[len(entries)-1].Period.Next()
	}

	var results []DepreciationResult
	cutoff := dateOnly(today)
	for !period.End().After(cutoff) {
		if done, _ := remaining(base, accumulated); done {
			break // FULLY_DEPRECIATED is terminal
		}

		amount, err := s.periodAmount(ctx, a, base, accumulated, period)
		if err != nil {
			results = append(results, DepreciationResult{AssetID: a.ID, Period: period, Err: err})
			break
		}

		// Clamp to the remaining depreciable balance.
		_, rem := remaining(base, accumulated)
		if cmp, _ := amount.Cmp(rem); cmp > 0 {
			amount = rem
		}
		if !amount.IsPositive() {
			break
		}

		res := s.generate(ctx, a, period, amount)
		results = append(results, res)
		if res.Err != nil {
			break
		}

		accumulated, _ = accumulated.Add(amount)
		if done, _ := remaining(base, accumulated); done {
			results[len(results)-1].State = asset.StateFullyDepreciated
		}
		period = period.Next()
	}

	return results
}

// remaining reports whether the depreciable base is exhausted and how much of
// it is left.
func remaining(base, accumulated money.Money) (bool, money.Money) {
	rem, _ := base.Sub(accumulated)
	return !rem.IsPositive(), rem
}

// periodAmount computes one period's depreciation per the asset's method.
func (s *DepreciationScheduler) periodAmount(ctx context.Context, a *asset.FixedAsset, base, accumulated money.Money, period asset.Period) (money.Money, error) {
	switch a.Method {
	case asset.MethodStraightLine:
		if a.UsefulLifeYears <= 0 {
			return money.Money{}, fmt.Errorf("asset %s: useful life must be positive", a.ID)
		}
		return base.DivInt(int64(a.UsefulLifeYears) * 12), nil

	case asset.MethodDecliningBalance:
		carrying, err := a.PurchaseCost.Sub(accumulated)
		if err != nil {
			return money.Money{}, err
		}
		return carrying.MulRate(a.DecliningRate), nil

	case asset.MethodUnitsOfProduction:
		if a.TotalEstimatedUnits <= 0 {
			return money.Money{}, fmt.Errorf("asset %s: total estimated units must be positive", a.ID)
		}
		if s.units == nil {
			return money.Money{}, fmt.Errorf("asset %s: no units reporter configured", a.ID)
		}
		units, err := s.units.UnitsProduced(ctx, a.ID, period)
		if err != nil {
			return money.Money{}, fmt.Errorf("failed to read units for %s: %w", period, err)
		}
		return base.MulFrac(units, a.TotalEstimatedUnits), nil
	}

	return money.Money{}, fmt.Errorf("asset %s: unknown depreciation method %q", a.ID, a.Method)
}

// generate posts the period's balanced transaction (debit depreciation
// expense, credit accumulated depreciation) and records the entry.
func (s *DepreciationScheduler) generate(ctx context.Context, a *asset.FixedAsset, period asset.Period, amount money.Money) DepreciationResult {
	res := DepreciationResult{AssetID: a.ID, Period: period, Amount: amount, State: asset.StateActive}

	draft := &journal.Draft{
		Date:        period.End(),
		Type:        journal.TypeAdjustmentJournal,
		Description: fmt.Sprintf("Depreciation %s %s", a.Name, period),
		CreatedBy:   "depreciation-scheduler",
		Entries: []journal.DraftEntry{
			{AccountID: a.ExpenseAccountID, Debit: amount, Credit: money.Zero(money.AmountScale)},
			{AccountID: a.AccumAccountID, Debit: money.Zero(money.AmountScale), Credit: amount},
		},
	}

	tx, err := s.poster.Post(ctx, draft)
	if err != nil {
		s.logger.Error("Failed to post depreciation",
			"asset_id", a.ID.String(), "period", period.String(), "error", err)
		res.Err = err
		return res
	}
	res.Transaction = tx

	entry := &asset.DepreciationEntry{
		ID:            uuid.New(),
		AssetID:       a.ID,
		Period:        period,
		Amount:        amount,
		TransactionID: tx.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.assets.RecordEntry(ctx, entry); err != nil {
		// The transaction is already committed; surface the bookkeeping
		// failure instead of pretending the period never ran.
		s.logger.Error("Failed to record depreciation entry",
			"asset_id", a.ID.String(), "period", period.String(), "error", err)
		res.Err = fmt.Errorf("posted %s but failed to record entry: %w", tx.ID, err)
	}
	return res
}
