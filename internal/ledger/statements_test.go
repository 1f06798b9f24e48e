package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
)

func newTestStatements(t *testing.T) (*testChart, *StatementBuilder, *Poster, *Log) {
	t.Helper()
	tc := newTestChart(t)
	log := NewLog()
	agg := NewAggregator(tc.chart, log, false)
	poster := NewPoster(tc.chart, log, nil, agg, newTestLogger())
	return tc, NewStatementBuilder(tc.chart, agg), poster, log
}

func TestStatementBuilder_BalanceSheet(t *testing.T) {
	tc, builder, poster, _ := newTestStatements(t)
	seedActivity(t, tc, poster)

	sheet, err := builder.BuildBalanceSheet(day(2025, time.March, 31))
	require.NoError(t, err)

	// cash 9450 + receivable 500
	assert.True(t, sheet.TotalAssets.Equal(amt("9950.00")), "assets %s", sheet.TotalAssets)
	assert.True(t, sheet.TotalLiabilities.IsZero())
	// 10000 contributed capital + 750 revenue - 800 rent
	assert.True(t, sheet.CurrentEarnings.Equal(amt("-50.00")), "earnings %s", sheet.CurrentEarnings)
	assert.True(t, sheet.TotalEquity.Equal(amt("9950.00")), "equity %s", sheet.TotalEquity)

	require.Len(t, sheet.Assets, 1)
	assert.Equal(t, "1000", sheet.Assets[0].Code)
	require.Len(t, sheet.Equity, 1)
	assert.True(t, sheet.Equity[0].Amount.Equal(amt("10000.00")))
}

func TestStatementBuilder_BalanceSheetIntegrityViolation(t *testing.T) {
	tc, builder, poster, log := newTestStatements(t)
	seedActivity(t, tc, poster)

	// Corrupt the log behind the poster's back: a one-sided transaction that
	// no validation pipeline would ever admit.
	log.Append(&journal.Transaction{
		ID:     uuid.New(),
		Number: log.LastNumber() + 1,
		Date:   day(2025, time.March, 15),
		Entries: []journal.Entry{
			{ID: uuid.New(), AccountID: tc.cash, Debit: amt("123.45"), Credit: money.Zero(money.AmountScale)},
		},
	})

	sheet, err := builder.BuildBalanceSheet(day(2025, time.March, 31))
	assert.Nil(t, sheet)
	require.ErrorIs(t, err, ErrIntegrityViolation{})

	var iv ErrIntegrityViolation
	require.ErrorAs(t, err, &iv)
	assert.True(t, iv.TotalAssets.Equal(amt("10073.45")), "assets %s", iv.TotalAssets)
	assert.True(t, iv.TotalLiabilitiesEquity.Equal(amt("9950.00")), "liab+equity %s", iv.TotalLiabilitiesEquity)
}

func TestStatementBuilder_IncomeStatement(t *testing.T) {
	tc, builder, poster, _ := newTestStatements(t)
	seedActivity(t, tc, poster)

	t.Run("full quarter", func(t *testing.T) {
		stmt, err := builder.BuildIncomeStatement(day(2025, time.January, 1), day(2025, time.March, 31))
		require.NoError(t, err)
		assert.True(t, stmt.TotalRevenue.Equal(amt("750.00")), "revenue %s", stmt.TotalRevenue)
		assert.True(t, stmt.TotalExpenses.Equal(amt("800.00")), "expenses %s", stmt.TotalExpenses)
		assert.True(t, stmt.NetIncome.Equal(amt("-50.00")), "net %s", stmt.NetIncome)
	})

	t.Run("february only", func(t *testing.T) {
		stmt, err := builder.BuildIncomeStatement(day(2025, time.February, 1), day(2025, time.February, 28))
		require.NoError(t, err)
		assert.True(t, stmt.TotalRevenue.Equal(amt("750.00")), "revenue %s", stmt.TotalRevenue)
		assert.True(t, stmt.TotalExpenses.IsZero())
		assert.True(t, stmt.NetIncome.Equal(amt("750.00")), "net %s", stmt.NetIncome)
	})
}

func TestStatementBuilder_CashFlow(t *testing.T) {
	tc, builder, poster, _ := newTestStatements(t)
	seedActivity(t, tc, poster)

	// Equipment purchase: investing outflow from operating cash.
	_, err := poster.Post(context.Background(),
		simpleDraft(day(2025, time.March, 20), tc.equipment, tc.cash, amt("3000.00")))
	require.NoError(t, err)

	flow, err := builder.BuildCashFlow(day(2025, time.January, 1), day(2025, time.March, 31))
	require.NoError(t, err)

	require.Len(t, flow.Operating, 1)
	assert.Equal(t, "1100", flow.Operating[0].Code)
	assert.True(t, flow.Operating[0].Amount.Equal(amt("6450.00")), "operating %s", flow.Operating[0].Amount)

	require.Len(t, flow.Investing, 1)
	assert.True(t, flow.Investing[0].Amount.Equal(amt("3000.00")))

	require.Len(t, flow.Financing, 1)
	assert.True(t, flow.Financing[0].Amount.Equal(amt("-10000.00")))

	// Untagged movements (sales, rent, receivable) are excluded from the net.
	assert.True(t, flow.NetCashFlow.Equal(amt("-550.00")), "net %s", flow.NetCashFlow)
}
