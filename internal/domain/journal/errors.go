package journal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/money"
)

// ErrInvalidTransactionType indicates an unknown transaction type on a draft
var ErrInvalidTransactionType = errors.New("invalid transaction type")

// ErrTooFewEntries indicates a draft with fewer than two entries
type ErrTooFewEntries struct {
	Count int
}

func (e ErrTooFewEntries) Error() string {
	return fmt.Sprintf("transaction requires at least 2 entries, got %d", e.Count)
}

// Is implements the errors.Is interface for ErrTooFewEntries
func (e ErrTooFewEntries) Is(target error) bool {
	_, ok := target.(ErrTooFewEntries)
	return ok
}

// ErrMalformedEntry indicates an entry with both sides set or both sides zero
type ErrMalformedEntry struct {
	Index  int
	Reason string
}

func (e ErrMalformedEntry) Error() string {
	return fmt.Sprintf("malformed entry at index %d: %s", e.Index, e.Reason)
}

// Is implements the errors.Is interface for ErrMalformedEntry
func (e ErrMalformedEntry) Is(target error) bool {
	_, ok := target.(ErrMalformedEntry)
	return ok
}

// ErrUnbalanced indicates unequal debit and credit totals
type ErrUnbalanced struct {
	Debits  money.Money
	Credits money.Money
}

func (e ErrUnbalanced) Error() string {
	return fmt.Sprintf("unbalanced transaction: debits %s != credits %s",
		e.Debits.StringFixed(), e.Credits.StringFixed())
}

// Is implements the errors.Is interface for ErrUnbalanced
func (e ErrUnbalanced) Is(target error) bool {
	_, ok := target.(ErrUnbalanced)
	return ok
}

// ErrUnknownAccount indicates an entry referencing an account missing from the chart
type ErrUnknownAccount struct {
	AccountID uuid.UUID
}

func (e ErrUnknownAccount) Error() string {
	return "unknown account: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrUnknownAccount
func (e ErrUnknownAccount) Is(target error) bool {
	t, ok := target.(ErrUnknownAccount)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrInactiveAccount indicates an entry referencing a deactivated account
type ErrInactiveAccount struct {
	AccountID uuid.UUID
}

func (e ErrInactiveAccount) Error() string {
	return "inactive account: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrInactiveAccount
func (e ErrInactiveAccount) Is(target error) bool {
	t, ok := target.(ErrInactiveAccount)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrDuplicateTransaction indicates a transaction number or ID reuse
type ErrDuplicateTransaction struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateTransaction) Error() string {
	return "duplicate transaction: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrDuplicateTransaction
func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
