package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger-engine/internal/data/memory"
	"github.com/openledger-engine/internal/domain/asset"
	"github.com/openledger-engine/internal/domain/recurring"
)

func newTestPool(t *testing.T, size int) *ants.Pool {
	t.Helper()
	pool, err := ants.NewPool(size)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func TestEngine_ReplaysCommittedLog(t *testing.T) {
	tc := newTestChart(t)
	repo := memory.NewJournalRepository()
	ctx := context.Background()

	// First engine instance commits some history.
	first, err := New(ctx, newTestLogger(), Options{}, tc.chart, repo, nil, nil, nil)
	require.NoError(t, err)
	defer first.Close()

	_, err = first.Post(ctx, simpleDraft(day(2025, time.January, 10), tc.cash, tc.equity, amt("5000.00")))
	require.NoError(t, err)
	_, err = first.Post(ctx, simpleDraft(day(2025, time.February, 1), tc.rent, tc.cash, amt("750.00")))
	require.NoError(t, err)

	// A fresh engine over the same store continues where it left off.
	second, err := New(ctx, newTestLogger(), Options{}, tc.chart, repo, nil, nil, nil)
	require.NoError(t, err)
	defer second.Close()

	assert.Len(t, second.Transactions(), 2)

	bal, err := second.Balance(tc.cash, day(2025, time.March, 1), false)
	require.NoError(t, err)
	assert.True(t, bal.Equal(amt("4250.00")), "got %s", bal)

	tx, err := second.Post(ctx, simpleDraft(day(2025, time.March, 1), tc.cash, tc.sales, amt("10.00")))
	require.NoError(t, err)
	assert.Equal(t, int64(3), tx.Number)
}

func TestEngine_TicksRequireConfiguredRepositories(t *testing.T) {
	tc := newTestChart(t)
	engine, err := New(context.Background(), newTestLogger(), Options{}, tc.chart, nil, nil, nil, nil)
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.TickDepreciation(context.Background(), day(2025, time.March, 1))
	assert.Error(t, err)
	_, err = engine.TickRecurrence(context.Background(), day(2025, time.March, 1))
	assert.Error(t, err)
}

// End-to-end pass through the facade: post, run both schedulers on a worker
// pool, then build the statements and check the books still reconcile.
func TestEngine_EndToEnd(t *testing.T) {
	tc := newTestChart(t)
	assets := memory.NewAssetRepository()
	templates := memory.NewTemplateRepository()
	ctx := context.Background()

	engine, err := New(ctx, newTestLogger(), Options{CacheEnabled: true, WorkerPoolSize: 4},
		tc.chart, memory.NewJournalRepository(), assets, nil, templates)
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Post(ctx, simpleDraft(day(2025, time.January, 5), tc.cash, tc.equity, amt("50000.00")))
	require.NoError(t, err)
	_, err = engine.Post(ctx, simpleDraft(day(2025, time.January, 5), tc.equipment, tc.cash, amt("12000.00")))
	require.NoError(t, err)

	assets.Add(&asset.FixedAsset{
		ID:               uuid.New(),
		Name:             "Van",
		PurchaseDate:     day(2025, time.January, 5),
		PurchaseCost:     amt("12000.00"),
		SalvageValue:     amt("0.00"),
		UsefulLifeYears:  5,
		Method:           asset.MethodStraightLine,
		ExpenseAccountID: tc.depExpense,
		AccumAccountID:   tc.accumDep,
		IsActive:         true,
	})
	templates.Add(&recurring.Template{
		ID:              uuid.New(),
		Name:            "Rent",
		Cadence:         recurring.CadenceMonthly,
		StartDate:       day(2025, time.January, 1),
		NextExecution:   day(2025, time.January, 1),
		Amount:          amt("900.00"),
		DebitAccountID:  tc.rent,
		CreditAccountID: tc.cash,
		IsActive:        true,
	})

	today := day(2025, time.March, 31)
	depResults, err := engine.TickDepreciation(ctx, today)
	require.NoError(t, err)
	require.Len(t, depResults, 3) // Jan, Feb, Mar at 200.00 each
	recResults, err := engine.TickRecurrence(ctx, today)
	require.NoError(t, err)
	require.Len(t, recResults, 3)

	sheet, err := engine.BuildBalanceSheet(today)
	require.NoError(t, err)
	// cash 50000 - 12000 - 2700, equipment 12000, accum dep -600
	assert.True(t, sheet.TotalAssets.Equal(amt("46700.00")), "assets %s", sheet.TotalAssets)
	assert.True(t, sheet.CurrentEarnings.Equal(amt("-3300.00")), "earnings %s", sheet.CurrentEarnings)

	stmt, err := engine.BuildIncomeStatement(day(2025, time.January, 1), today)
	require.NoError(t, err)
	assert.True(t, stmt.TotalExpenses.Equal(amt("3300.00")), "expenses %s", stmt.TotalExpenses)

	flow, err := engine.BuildCashFlow(day(2025, time.January, 1), today)
	require.NoError(t, err)
	// cash 35300, equipment 12000, equity -50000
	assert.True(t, flow.NetCashFlow.Equal(amt("-2700.00")), "net %s", flow.NetCashFlow)
}
