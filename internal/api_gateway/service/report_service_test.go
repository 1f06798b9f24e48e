package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Statements(t *testing.T) {
	ctx := context.Background()
	engine, cash, equity := newTestEngine(t)
	ledgerSvc := NewLedgerService(newTestLogger(), engine, nil, nil)
	reportSvc := NewReportService(newTestLogger(), engine)

	_, err := ledgerSvc.PostTransaction(ctx, testDraft(cash.ID, equity.ID, amt(t, "7500.00")))
	require.NoError(t, err)

	asOf := time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)

	t.Run("BalanceSheet", func(t *testing.T) {
		sheet, err := reportSvc.BalanceSheet(ctx, asOf)
		require.NoError(t, err)
		assert.Equal(t, "7500.00", sheet.TotalAssets.StringFixed())
		assert.Equal(t, "7500.00", sheet.TotalEquity.StringFixed())
		assert.True(t, sheet.TotalLiabilities.IsZero())
	})

	t.Run("IncomeStatement", func(t *testing.T) {
		start := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
		stmt, err := reportSvc.IncomeStatement(ctx, start, asOf)
		require.NoError(t, err)
		assert.True(t, stmt.TotalRevenue.IsZero())
		assert.True(t, stmt.TotalExpenses.IsZero())
		assert.True(t, stmt.NetIncome.IsZero())
	})

	t.Run("CashFlow", func(t *testing.T) {
		// Neither test account carries a cash flow tag, so nothing is
		// classified.
		start := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
		flow, err := reportSvc.CashFlow(ctx, start, asOf)
		require.NoError(t, err)
		assert.Empty(t, flow.Operating)
		assert.Empty(t, flow.Investing)
		assert.Empty(t, flow.Financing)
		assert.True(t, flow.NetCashFlow.IsZero())
	})
}

func TestSchedulerService_TicksRequireRepositories(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)
	svc := NewSchedulerService(newTestLogger(), engine)

	today := time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)

	_, err := svc.TickDepreciation(ctx, today)
	require.Error(t, err)

	_, err = svc.TickRecurrence(ctx, today)
	require.Error(t, err)
}
