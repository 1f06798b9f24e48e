// Package asset models fixed assets and their depreciation history. The
// DepreciationEntry log is authoritative: accumulated depreciation is always
// derived by summing the log, never read from a stored running total.
package asset

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/money"
)

// Method selects the depreciation computation per period
type Method string

const (
	MethodStraightLine      Method = "straight_line"
	MethodDecliningBalance  Method = "declining_balance"
	MethodUnitsOfProduction Method = "units_of_production"
)

// Valid reports whether m is a known depreciation method.
func (m Method) Valid() bool {
	switch m {
	case MethodStraightLine, MethodDecliningBalance, MethodUnitsOfProduction:
		return true
	}
	return false
}

// State is the asset's depreciation lifecycle state. FULLY_DEPRECIATED is
// terminal: no further entries are generated once it is reached.
type State string

const (
	StateActive           State = "ACTIVE"
	StateFullyDepreciated State = "FULLY_DEPRECIATED"
)

// FixedAsset is a depreciable asset record. ExpenseAccountID and
// AccumAccountID name the accounts the generated transactions post against
// (debit depreciation expense, credit accumulated depreciation).
type FixedAsset struct {
	ID                  uuid.UUID   `json:"id"`
	Name                string      `json:"name"`
	PurchaseDate        time.Time   `json:"purchase_date"`
	PurchaseCost        money.Money `json:"purchase_cost"`
	SalvageValue        money.Money `json:"salvage_value"`
	UsefulLifeYears     int         `json:"useful_life_years"`
	Method              Method      `json:"method"`
	DecliningRate       money.Money `json:"declining_rate,omitempty"`        // scale 4, declining_balance only
	TotalEstimatedUnits int64       `json:"total_estimated_units,omitempty"` // units_of_production only
	ExpenseAccountID    uuid.UUID   `json:"expense_account_id"`
	AccumAccountID      uuid.UUID   `json:"accum_account_id"`
	IsActive            bool        `json:"is_active"`
	CreatedAt           time.Time   `json:"created_at"`
}

// DepreciableBase returns purchase cost minus salvage value, the hard ceiling
// for accumulated depreciation.
func (a *FixedAsset) DepreciableBase() (money.Money, error) {
	return a.PurchaseCost.Sub(a.SalvageValue)
}

// DepreciationEntry records one generated period amount, tied 1:1 to the
// posted transaction that carries it. The sequence per asset is append-only.
type DepreciationEntry struct {
	ID            uuid.UUID   `json:"id"`
	AssetID       uuid.UUID   `json:"asset_id"`
	Period        Period      `json:"period"`
	Amount        money.Money `json:"amount"`
	TransactionID uuid.UUID   `json:"transaction_id"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Period identifies one monthly depreciation period.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Next returns the following monthly period.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Compare orders periods chronologically (-1, 0, 1).
func (p Period) Compare(o Period) int {
	switch {
	case p.Year != o.Year:
		if p.Year < o.Year {
			return -1
		}
		return 1
	case p.Month != o.Month:
		if p.Month < o.Month {
			return -1
		}
		return 1
	}
	return 0
}

// End returns the last day of the period.
func (p Period) End() time.Time {
	return time.Date(p.Year, p.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
