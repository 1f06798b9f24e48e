package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger-engine/internal/data/memory"
	"github.com/openledger-engine/internal/domain/asset"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
)

type depreciationFixture struct {
	tc        *testChart
	agg       *Aggregator
	poster    *Poster
	assets    *memory.AssetRepository
	units     *memory.UnitsReporter
	scheduler *DepreciationScheduler
}

func newDepreciationFixture(t *testing.T) *depreciationFixture {
	t.Helper()
	tc := newTestChart(t)
	log := NewLog()
	agg := NewAggregator(tc.chart, log, false)
	poster := NewPoster(tc.chart, log, nil, agg, newTestLogger())
	assets := memory.NewAssetRepository()
	units := memory.NewUnitsReporter()
	return &depreciationFixture{
		tc:        tc,
		agg:       agg,
		poster:    poster,
		assets:    assets,
		units:     units,
		scheduler: NewDepreciationScheduler(poster, assets, units, nil, newTestLogger()),
	}
}

func (f *depreciationFixture) addAsset(a *asset.FixedAsset) *asset.FixedAsset {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.ExpenseAccountID = f.tc.depExpense
	a.AccumAccountID = f.tc.accumDep
	a.IsActive = true
	f.assets.Add(a)
	return a
}

func TestDepreciationScheduler_StraightLine(t *testing.T) {
	f := newDepreciationFixture(t)
	a := f.addAsset(&asset.FixedAsset{
		Name:            "Delivery Truck",
		PurchaseDate:    day(2020, time.January, 15),
		PurchaseCost:    amt("120000.00"),
		SalvageValue:    amt("0.00"),
		UsefulLifeYears: 5,
		Method:          asset.MethodStraightLine,
	})
	ctx := context.Background()

	// 60 monthly periods elapse between purchase and this tick date.
	results := f.scheduler.Tick(ctx, day(2025, time.January, 31))
	require.Len(t, results, 60)

	for i, res := range results {
		require.NoError(t, res.Err, "period %s", res.Period)
		assert.True(t, res.Amount.Equal(amt("2000.00")), "period %s: %s", res.Period, res.Amount)
		require.NotNil(t, res.Transaction)
		assert.Equal(t, journal.TypeAdjustmentJournal, res.Transaction.Type)
		if i < len(results)-1 {
			assert.Equal(t, asset.StateActive, res.State)
		}
	}
	assert.Equal(t, asset.Period{Year: 2020, Month: time.January}, results[0].Period)
	assert.Equal(t, asset.Period{Year: 2024, Month: time.December}, results[59].Period)
	assert.Equal(t, asset.StateFullyDepreciated, results[59].State)

	// Accumulated depreciation carries the full base as a credit balance.
	accum, err := f.agg.Balance(f.tc.accumDep, day(2025, time.January, 31), false)
	require.NoError(t, err)
	assert.True(t, accum.Equal(amt("-120000.00")), "got %s", accum)

	entries, err := f.assets.EntriesForAsset(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 60)

	t.Run("second tick generates nothing", func(t *testing.T) {
		again := f.scheduler.Tick(ctx, day(2025, time.June, 30))
		assert.Empty(t, again)
	})
}

func TestDepreciationScheduler_CatchUpResumesAfterLastEntry(t *testing.T) {
	f := newDepreciationFixture(t)
	f.addAsset(&asset.FixedAsset{
		Name:            "Laptop",
		PurchaseDate:    day(2025, time.January, 1),
		PurchaseCost:    amt("3600.00"),
		SalvageValue:    amt("0.00"),
		UsefulLifeYears: 3,
		Method:          asset.MethodStraightLine,
	})
	ctx := context.Background()

	first := f.scheduler.Tick(ctx, day(2025, time.February, 28))
	require.Len(t, first, 2)

	second := f.scheduler.Tick(ctx, day(2025, time.April, 30))
	require.Len(t, second, 2)
	assert.Equal(t, asset.Period{Year: 2025, Month: time.March}, second[0].Period)
	assert.Equal(t, asset.Period{Year: 2025, Month: time.April}, second[1].Period)
}

func TestDepreciationScheduler_DecliningBalance(t *testing.T) {
	f := newDepreciationFixture(t)
	f.addAsset(&asset.FixedAsset{
		Name:          "Server",
		PurchaseDate:  day(2025, time.January, 1),
		PurchaseCost:  amt("10000.00"),
		SalvageValue:  amt("1000.00"),
		Method:        asset.MethodDecliningBalance,
		DecliningRate: money.New(2000, money.RateScale), // 0.2000
	})

	results := f.scheduler.Tick(context.Background(), day(2025, time.February, 28))
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)

	// 20% of the carrying value: 10000 * 0.2, then 8000 * 0.2.
	assert.True(t, results[0].Amount.Equal(amt("2000.00")), "got %s", results[0].Amount)
	assert.True(t, results[1].Amount.Equal(amt("1600.00")), "got %s", results[1].Amount)
}

func TestDepreciationScheduler_ClampsToDepreciableBase(t *testing.T) {
	f := newDepreciationFixture(t)
	f.addAsset(&asset.FixedAsset{
		Name:          "Tooling",
		PurchaseDate:  day(2025, time.January, 1),
		PurchaseCost:  amt("1000.00"),
		SalvageValue:  amt("900.00"),
		Method:        asset.MethodDecliningBalance,
		DecliningRate: money.New(5000, money.RateScale), // 0.5000
	})

	results := f.scheduler.Tick(context.Background(), day(2025, time.March, 31))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	// Raw amount 500.00 is clamped to the 100.00 remaining above salvage;
	// the asset is terminal afterwards, so later periods generate nothing.
	assert.True(t, results[0].Amount.Equal(amt("100.00")), "got %s", results[0].Amount)
	assert.Equal(t, asset.StateFullyDepreciated, results[0].State)
}

func TestDepreciationScheduler_UnitsOfProduction(t *testing.T) {
	f := newDepreciationFixture(t)
	a := f.addAsset(&asset.FixedAsset{
		Name:                "Press",
		PurchaseDate:        day(2025, time.January, 1),
		PurchaseCost:        amt("9000.00"),
		SalvageValue:        amt("0.00"),
		Method:              asset.MethodUnitsOfProduction,
		TotalEstimatedUnits: 900,
	})
	f.units.Set(a.ID, asset.Period{Year: 2025, Month: time.January}, 100)

	results := f.scheduler.Tick(context.Background(), day(2025, time.January, 31))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.True(t, results[0].Amount.Equal(amt("1000.00")), "got %s", results[0].Amount)
}

func TestDepreciationScheduler_FailureIsolation(t *testing.T) {
	f := newDepreciationFixture(t)
	good := f.addAsset(&asset.FixedAsset{
		Name:            "A Good Asset",
		PurchaseDate:    day(2025, time.January, 1),
		PurchaseCost:    amt("1200.00"),
		SalvageValue:    amt("0.00"),
		UsefulLifeYears: 1,
		Method:          asset.MethodStraightLine,
	})
	bad := &asset.FixedAsset{
		ID:               uuid.New(),
		Name:             "B Broken Asset",
		PurchaseDate:     day(2025, time.January, 1),
		PurchaseCost:     amt("1200.00"),
		SalvageValue:     amt("0.00"),
		UsefulLifeYears:  1,
		Method:           asset.MethodStraightLine,
		ExpenseAccountID: uuid.New(), // not in the chart
		AccumAccountID:   f.tc.accumDep,
		IsActive:         true,
	}
	f.assets.Add(bad)

	results := f.scheduler.Tick(context.Background(), day(2025, time.January, 31))
	require.Len(t, results, 2)

	byAsset := make(map[uuid.UUID]DepreciationResult)
	for _, res := range results {
		byAsset[res.AssetID] = res
	}
	require.NoError(t, byAsset[good.ID].Err)
	assert.NotNil(t, byAsset[good.ID].Transaction)
	assert.ErrorIs(t, byAsset[bad.ID].Err, journal.ErrUnknownAccount{})
}

func TestDepreciationScheduler_RunsOnWorkerPool(t *testing.T) {
	tc := newTestChart(t)
	log := NewLog()
	poster := NewPoster(tc.chart, log, nil, nil, newTestLogger())
	assets := memory.NewAssetRepository()
	pool := newTestPool(t, 4)
	scheduler := NewDepreciationScheduler(poster, assets, nil, pool, newTestLogger())

	for i := 0; i < 8; i++ {
		assets.Add(&asset.FixedAsset{
			ID:               uuid.New(),
			Name:             "Asset",
			PurchaseDate:     day(2025, time.January, 1),
			PurchaseCost:     amt("1200.00"),
			SalvageValue:     amt("0.00"),
			UsefulLifeYears:  1,
			Method:           asset.MethodStraightLine,
			ExpenseAccountID: tc.depExpense,
			AccumAccountID:   tc.accumDep,
			IsActive:         true,
		})
	}

	results := scheduler.Tick(context.Background(), day(2025, time.March, 31))
	require.Len(t, results, 24)
	for _, res := range results {
		require.NoError(t, res.Err)
	}
	assert.Equal(t, 24, log.Len())
}
