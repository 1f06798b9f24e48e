package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages chart-of-accounts persistence. The engine only reads the
// full account set at warm-up and records structural changes made through the
// chart index; record CRUD beyond that belongs to the external data layer.
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByCode(ctx context.Context, code string) (*Account, error)
	ListAll(ctx context.Context) ([]*Account, error)
	UpdateParent(ctx context.Context, id uuid.UUID, parentID uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// ErrAccountNotFound indicates a missing account record
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrDuplicateCode indicates an account code uniqueness violation
type ErrDuplicateCode struct {
	Code string
}

func (e ErrDuplicateCode) Error() string {
	return "duplicate account code: " + e.Code
}

// Is implements the errors.Is interface for ErrDuplicateCode
func (e ErrDuplicateCode) Is(target error) bool {
	t, ok := target.(ErrDuplicateCode)
	if !ok {
		return false
	}
	if t.Code == "" {
		return true
	}
	return e.Code == t.Code
}
