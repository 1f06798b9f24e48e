package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/account"
)

// AccountRepository stores chart-of-accounts records in memory.
type AccountRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*account.Account
	byCode map[string]uuid.UUID
}

// NewAccountRepository creates an empty in-memory account store.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:   make(map[uuid.UUID]*account.Account),
		byCode: make(map[string]uuid.UUID),
	}
}

// Create stores the account, enforcing code uniqueness.
func (r *AccountRepository) Create(_ context.Context, acc *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[acc.Code]; exists {
		return account.ErrDuplicateCode{Code: acc.Code}
	}
	stored := *acc
	r.byID[stored.ID] = &stored
	r.byCode[stored.Code] = stored.ID
	return nil
}

// GetByID returns a copy of the account with the given id.
func (r *AccountRepository) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.byID[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	out := *acc
	return &out, nil
}

// GetByCode returns a copy of the account with the given code.
func (r *AccountRepository) GetByCode(_ context.Context, code string) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[code]
	if !ok {
		return nil, account.ErrAccountNotFound{}
	}
	out := *r.byID[id]
	return &out, nil
}

// ListAll returns all accounts ordered by code.
func (r *AccountRepository) ListAll(_ context.Context) ([]*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*account.Account, 0, len(r.byID))
	for _, acc := range r.byID {
		c := *acc
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// UpdateParent records a new parent for the account.
func (r *AccountRepository) UpdateParent(_ context.Context, id uuid.UUID, parentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.byID[id]
	if !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	acc.ParentID = parentID
	return nil
}

// SetActive flips the account's active flag.
func (r *AccountRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.byID[id]
	if !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	acc.IsActive = active
	return nil
}
