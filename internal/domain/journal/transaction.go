// Package journal holds the double-entry transaction model. A committed
// transaction is immutable: corrections are made by posting new adjustment
// transactions, never by mutating posted entries.
package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/money"
)

// TransactionType defines the business category of a transaction
type TransactionType string

const (
	TypeGeneralJournal    TransactionType = "general_journal"
	TypeAdjustmentJournal TransactionType = "adjustment_journal"
	TypeSales             TransactionType = "sales"
	TypePurchase          TransactionType = "purchase"
	TypePayment           TransactionType = "payment"
	TypeReceipt           TransactionType = "receipt"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeGeneralJournal, TypeAdjustmentJournal, TypeSales, TypePurchase, TypePayment, TypeReceipt:
		return true
	}
	return false
}

// Entry is one side of a double-entry posting. Exactly one of Debit/Credit is
// non-zero; the other is exactly zero.
type Entry struct {
	ID            uuid.UUID   `json:"id"`
	TransactionID uuid.UUID   `json:"transaction_id"`
	AccountID     uuid.UUID   `json:"account_id"`
	Debit         money.Money `json:"debit"`
	Credit        money.Money `json:"credit"`
	Description   string      `json:"description,omitempty"`
}

// Effect is the signed contribution of the entry to its account's balance
// (debit − credit), debit-positive.
func (e Entry) Effect() money.Money {
	return money.FromDecimal(e.Debit.Decimal().Sub(e.Credit.Decimal()), money.AmountScale)
}

// Transaction is a committed, balanced set of journal entries. Number is
// assigned at commit time and is strictly increasing across the ledger.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	Number      int64           `json:"number"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"`
	CreatedBy   string          `json:"created_by,omitempty"`
	Entries     []Entry         `json:"entries"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DraftEntry is one line of a transaction draft submitted for posting.
type DraftEntry struct {
	AccountID   uuid.UUID
	Debit       money.Money
	Credit      money.Money
	Description string
}

// Draft is a transaction before validation and commit.
type Draft struct {
	Date        time.Time
	Type        TransactionType
	Description string
	Reference   string
	CreatedBy   string
	Entries     []DraftEntry
}
