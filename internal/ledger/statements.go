package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/account"
	"github.com/openledger-engine/internal/domain/money"
)

// ErrIntegrityViolation indicates statement totals that fail to reconcile.
// It signals corrupted upstream data and is always surfaced, never adjusted.
type ErrIntegrityViolation struct {
	AsOf                   time.Time
	TotalAssets            money.Money
	TotalLiabilitiesEquity money.Money
}

func (e ErrIntegrityViolation) Error() string {
	return "balance sheet does not reconcile at " + e.AsOf.Format("2006-01-02") +
		": assets " + e.TotalAssets.StringFixed() +
		" != liabilities+equity " + e.TotalLiabilitiesEquity.StringFixed()
}

// Is implements the errors.Is interface for ErrIntegrityViolation
func (e ErrIntegrityViolation) Is(target error) bool {
	_, ok := target.(ErrIntegrityViolation)
	return ok
}

// ReportLine is one account's contribution to a statement section. Amounts
// are presented in the account type's normal balance (debit-positive for
// assets and expenses, credit-positive for the rest).
type ReportLine struct {
	AccountID uuid.UUID   `json:"account_id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Amount    money.Money `json:"amount"`
}

// BalanceSheet groups rolled-up balances by account type at a point in time.
// CurrentEarnings carries un-closed revenue minus expenses into the equity
// section so the accounting identity holds without a closing run.
type BalanceSheet struct {
	AsOf             time.Time    `json:"report_date"`
	Assets           []ReportLine `json:"assets"`
	Liabilities      []ReportLine `json:"liabilities"`
	Equity           []ReportLine `json:"equity"`
	CurrentEarnings  money.Money  `json:"current_earnings"`
	TotalAssets      money.Money  `json:"total_assets"`
	TotalLiabilities money.Money  `json:"total_liabilities"`
	TotalEquity      money.Money  `json:"total_equity"`
}

// IncomeStatement reports revenue and expense flows over a period.
type IncomeStatement struct {
	Start         time.Time    `json:"period_start"`
	End           time.Time    `json:"period_end"`
	Revenues      []ReportLine `json:"revenues"`
	Expenses      []ReportLine `json:"expenses"`
	TotalRevenue  money.Money  `json:"total_revenue"`
	TotalExpenses money.Money  `json:"total_expenses"`
	NetIncome     money.Money  `json:"net_income"`
}

// CashFlow partitions period movements by the accounts' externally supplied
// operating/investing/financing tags.
type CashFlow struct {
	Start       time.Time    `json:"period_start"`
	End         time.Time    `json:"period_end"`
	Operating   []ReportLine `json:"operating_activities"`
	Investing   []ReportLine `json:"investing_activities"`
	Financing   []ReportLine `json:"financing_activities"`
	NetCashFlow money.Money  `json:"net_cash_flow"`
}

// StatementBuilder assembles financial statements from aggregated balances.
// It is a pure read-side composition: nothing here mutates the ledger.
type StatementBuilder struct {
	chart *account.Chart
	agg   *Aggregator
}

// NewStatementBuilder creates a builder over the chart and aggregator.
func NewStatementBuilder(chart *account.Chart, agg *Aggregator) *StatementBuilder {
	return &StatementBuilder{chart: chart, agg: agg}
}

// BuildBalanceSheet renders the balance sheet at the given date. Top-level
// accounts appear as lines with their whole subtree rolled up. If total
// assets differ from total liabilities plus equity by any amount at all the
// report is withheld and ErrIntegrityViolation returned.
func (b *StatementBuilder) BuildBalanceSheet(asOf time.Time) (*BalanceSheet, error) {
	sheet := &BalanceSheet{
		AsOf:             dateOnly(asOf),
		CurrentEarnings:  money.Zero(money.AmountScale),
		TotalAssets:      money.Zero(money.AmountScale),
		TotalLiabilities: money.Zero(money.AmountScale),
		TotalEquity:      money.Zero(money.AmountScale),
	}

	for _, acc := range b.chart.TopLevel() {
		raw, err := b.agg.Balance(acc.ID, asOf, true)
		if err != nil {
			return nil, err
		}

		switch acc.Type {
		case account.TypeAsset:
			line := ReportLine{AccountID: acc.ID, Code: acc.Code, Name: acc.Name, Amount: raw}
			sheet.Assets = append(sheet.Assets, line)
			sheet.TotalAssets, err = sheet.TotalAssets.Add(raw)
		case account.TypeLiability:
			line := ReportLine{AccountID: acc.ID, Code: acc.Code, Name: acc.Name, Amount: raw.Neg()}
			sheet.Liabilities = append(sheet.Liabilities, line)
			sheet.TotalLiabilities, err = sheet.TotalLiabilities.Add(raw.Neg())
		case account.TypeEquity:
			line := ReportLine{AccountID: acc.ID, Code: acc.Code, Name: acc.Name, Amount: raw.Neg()}
			sheet.Equity = append(sheet.Equity, line)
			sheet.TotalEquity, err = sheet.TotalEquity.Add(raw.Neg())
		case account.TypeRevenue:
			sheet.CurrentEarnings, err = sheet.CurrentEarnings.Add(raw.Neg())
		case account.TypeExpense:
			sheet.CurrentEarnings, err = sheet.CurrentEarnings.Sub(raw)
		}
		if err != nil {
			return nil, err
		}
	}

	var err error
	sheet.TotalEquity, err = sheet.TotalEquity.Add(sheet.CurrentEarnings)
	if err != nil {
		return nil, err
	}

	liabilitiesEquity, err := sheet.TotalLiabilities.Add(sheet.TotalEquity)
	if err != nil {
		return nil, err
	}
	if !sheet.TotalAssets.Equal(liabilitiesEquity) {
		return nil, ErrIntegrityViolation{
			AsOf:                   sheet.AsOf,
			TotalAssets:            sheet.TotalAssets,
			TotalLiabilitiesEquity: liabilitiesEquity,
		}
	}

	return sheet, nil
}

// BuildIncomeStatement renders revenue and expense flows over [start, end].
func (b *StatementBuilder) BuildIncomeStatement(start, end time.Time) (*IncomeStatement, error) {
	stmt := &IncomeStatement{
		Start:         dateOnly(start),
		End:           dateOnly(end),
		TotalRevenue:  money.Zero(money.AmountScale),
		TotalExpenses: money.Zero(money.AmountScale),
	}

	for _, acc := range b.chart.TopLevel() {
		if !acc.Type.IsFlow() {
			continue
		}
		raw, err := b.agg.PeriodBalance(acc.ID, start, end, true)
		if err != nil {
			return nil, err
		}

		switch acc.Type {
		case account.TypeRevenue:
			line := ReportLine{AccountID: acc.ID, Code: acc.Code, Name: acc.Name, Amount: raw.Neg()}
			stmt.Revenues = append(stmt.Revenues, line)
			stmt.TotalRevenue, err = stmt.TotalRevenue.Add(raw.Neg())
		case account.TypeExpense:
			line := ReportLine{AccountID: acc.ID, Code: acc.Code, Name: acc.Name, Amount: raw}
			stmt.Expenses = append(stmt.Expenses, line)
			stmt.TotalExpenses, err = stmt.TotalExpenses.Add(raw)
		}
		if err != nil {
			return nil, err
		}
	}

	var err error
	stmt.NetIncome, err = stmt.TotalRevenue.Sub(stmt.TotalExpenses)
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

// BuildCashFlow renders period movements partitioned by cash flow tag.
// Untagged accounts are excluded; classification is never derived here.
func (b *StatementBuilder) BuildCashFlow(start, end time.Time) (*CashFlow, error) {
	flow := &CashFlow{
		Start:       dateOnly(start),
		End:         dateOnly(end),
		NetCashFlow: money.Zero(money.AmountScale),
	}

	for _, acc := range b.chart.Accounts() {
		if acc.CashFlowTag == account.CashFlowNone {
			continue
		}
		movement, err := b.agg.Movement(acc.ID, start, end)
		if err != nil {
			return nil, err
		}
		if movement.IsZero() {
			continue
		}

		line := ReportLine{AccountID: acc.ID, Code: acc.Code, Name: acc.Name, Amount: movement}
		switch acc.CashFlowTag {
		case account.CashFlowOperating:
			flow.Operating = append(flow.Operating, line)
		case account.CashFlowInvesting:
			flow.Investing = append(flow.Investing, line)
		case account.CashFlowFinancing:
			flow.Financing = append(flow.Financing, line)
		}
		flow.NetCashFlow, err = flow.NetCashFlow.Add(movement)
		if err != nil {
			return nil, err
		}
	}

	return flow, nil
}
