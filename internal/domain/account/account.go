package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyCode   = errors.New("account code cannot be empty")
	ErrEmptyName   = errors.New("account name cannot be empty")
	ErrInvalidType = errors.New("invalid account type")
)

// Type classifies accounts in the chart of accounts.
type Type string

const (
	TypeAsset     Type = "asset"
	TypeLiability Type = "liability"
	TypeEquity    Type = "equity"
	TypeRevenue   Type = "revenue"
	TypeExpense   Type = "expense"
)

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return true
	}
	return false
}

// IsFlow reports whether the type is a flow account (revenue/expense), whose
// period balance sums only entries inside the period, as opposed to a
// cumulative balance-sheet account that carries forward.
func (t Type) IsFlow() bool {
	return t == TypeRevenue || t == TypeExpense
}

// CashFlowTag partitions accounts for the cash flow statement. The tag is
// supplied by external classification, never derived here.
type CashFlowTag string

const (
	CashFlowNone      CashFlowTag = ""
	CashFlowOperating CashFlowTag = "operating"
	CashFlowInvesting CashFlowTag = "investing"
	CashFlowFinancing CashFlowTag = "financing"
)

// Account is one node in the chart of accounts. The parent chain forms a tree;
// uuid.Nil as ParentID marks a top-level account. An inactive account still
// appears in historical balances but rejects new postings.
type Account struct {
	ID          uuid.UUID   `json:"id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Type        Type        `json:"type"`
	ParentID    uuid.UUID   `json:"parent_id,omitempty"`
	IsActive    bool        `json:"is_active"`
	CashFlowTag CashFlowTag `json:"cash_flow_tag,omitempty"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// New creates an active account with the given parameters.
func New(code, name string, accountType Type, parentID uuid.UUID) (*Account, error) {
	if code == "" {
		return nil, ErrEmptyCode
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	if !accountType.Valid() {
		return nil, ErrInvalidType
	}

	return &Account{
		ID:        uuid.New(),
		Code:      code,
		Name:      name,
		Type:      accountType,
		ParentID:  parentID,
		IsActive:  true,
		CreatedAt: time.Now(),
	}, nil
}
