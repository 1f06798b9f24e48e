package account

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrCyclicHierarchy indicates a parent assignment that would close a cycle
type ErrCyclicHierarchy struct {
	Code string
}

func (e ErrCyclicHierarchy) Error() string {
	return "cyclic account hierarchy at: " + e.Code
}

// Is implements the errors.Is interface for ErrCyclicHierarchy
func (e ErrCyclicHierarchy) Is(target error) bool {
	t, ok := target.(ErrCyclicHierarchy)
	if !ok {
		return false
	}
	if t.Code == "" {
		return true
	}
	return e.Code == t.Code
}

// Chart is the in-memory hierarchical index over the chart of accounts.
// Accounts are held by value in an arena keyed by ID with a derived children
// index; traversal never follows live pointers, so there is no reference-cycle
// bookkeeping. All mutating operations are all-or-nothing: a change that would
// introduce a cycle leaves the index untouched.
type Chart struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]Account
	byCode   map[string]uuid.UUID
	children map[uuid.UUID][]uuid.UUID
	version  uint64
}

// NewChart builds the index from the full account set, rejecting duplicate
// codes, unknown parents and parent cycles.
func NewChart(accounts []*Account) (*Chart, error) {
	c := &Chart{
		byID:     make(map[uuid.UUID]Account, len(accounts)),
		byCode:   make(map[string]uuid.UUID, len(accounts)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}

	for _, acc := range accounts {
		if _, exists := c.byID[acc.ID]; exists {
			return nil, ErrDuplicateCode{Code: acc.Code}
		}
		if _, exists := c.byCode[acc.Code]; exists {
			return nil, ErrDuplicateCode{Code: acc.Code}
		}
		c.byID[acc.ID] = *acc
		c.byCode[acc.Code] = acc.ID
	}

	for _, acc := range accounts {
		if acc.ParentID == uuid.Nil {
			continue
		}
		if _, exists := c.byID[acc.ParentID]; !exists {
			return nil, ErrAccountNotFound{AccountID: acc.ParentID}
		}
		c.children[acc.ParentID] = append(c.children[acc.ParentID], acc.ID)
	}

	// Walk every parent chain once; a chain longer than the account count
	// can only mean a cycle.
	for _, acc := range accounts {
		if err := c.checkAcyclic(acc.ID); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// checkAcyclic walks the parent chain of id. Callers must hold at least a
// read lock (or own the chart exclusively during construction).
func (c *Chart) checkAcyclic(id uuid.UUID) error {
	seen := make(map[uuid.UUID]bool)
	for cur := id; cur != uuid.Nil; {
		if seen[cur] {
			return ErrCyclicHierarchy{Code: c.byID[cur].Code}
		}
		seen[cur] = true
		acc, ok := c.byID[cur]
		if !ok {
			return ErrAccountNotFound{AccountID: cur}
		}
		cur = acc.ParentID
	}
	return nil
}

// Add inserts a new account into the index.
func (c *Chart) Add(acc *Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[acc.ID]; exists {
		return ErrDuplicateCode{Code: acc.Code}
	}
	if _, exists := c.byCode[acc.Code]; exists {
		return ErrDuplicateCode{Code: acc.Code}
	}
	if acc.ParentID != uuid.Nil {
		if _, exists := c.byID[acc.ParentID]; !exists {
			return ErrAccountNotFound{AccountID: acc.ParentID}
		}
	}
	if acc.ParentID == acc.ID {
		return ErrCyclicHierarchy{Code: acc.Code}
	}

	c.byID[acc.ID] = *acc
	c.byCode[acc.Code] = acc.ID
	if acc.ParentID != uuid.Nil {
		c.children[acc.ParentID] = append(c.children[acc.ParentID], acc.ID)
	}
	c.version++
	return nil
}

// Reparent moves an account under a new parent (uuid.Nil for top level).
// A move that would make the account its own ancestor is rejected without
// mutating state.
func (c *Chart) Reparent(id, newParentID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	acc, ok := c.byID[id]
	if !ok {
		return ErrAccountNotFound{AccountID: id}
	}
	if newParentID != uuid.Nil {
		if _, ok := c.byID[newParentID]; !ok {
			return ErrAccountNotFound{AccountID: newParentID}
		}
		if newParentID == id || c.isDescendantOf(newParentID, id) {
			return ErrCyclicHierarchy{Code: acc.Code}
		}
	}

	if acc.ParentID != uuid.Nil {
		c.children[acc.ParentID] = removeID(c.children[acc.ParentID], id)
	}
	acc.ParentID = newParentID
	c.byID[id] = acc
	if newParentID != uuid.Nil {
		c.children[newParentID] = append(c.children[newParentID], id)
	}
	c.version++
	return nil
}

// SetActive flips the active flag of an account.
func (c *Chart) SetActive(id uuid.UUID, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	acc, ok := c.byID[id]
	if !ok {
		return ErrAccountNotFound{AccountID: id}
	}
	acc.IsActive = active
	c.byID[id] = acc
	c.version++
	return nil
}

// Version counts mutations to the index. Derived caches (rolled-up balances)
// key on it so a hierarchy change discards anything computed against the old
// shape.
func (c *Chart) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Get returns a copy of the account with the given ID.
func (c *Chart) Get(id uuid.UUID) (*Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	acc, ok := c.byID[id]
	if !ok {
		return nil, ErrAccountNotFound{AccountID: id}
	}
	return &acc, nil
}

// GetByCode returns a copy of the account with the given code.
func (c *Chart) GetByCode(code string) (*Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byCode[code]
	if !ok {
		return nil, ErrAccountNotFound{}
	}
	acc := c.byID[id]
	return &acc, nil
}

// Ancestors returns the parent chain of the account, root first.
func (c *Chart) Ancestors(id uuid.UUID) ([]*Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.byID[id]; !ok {
		return nil, ErrAccountNotFound{AccountID: id}
	}

	var chain []*Account
	for cur := c.byID[id].ParentID; cur != uuid.Nil; {
		acc, ok := c.byID[cur]
		if !ok {
			return nil, ErrAccountNotFound{AccountID: cur}
		}
		cp := acc
		chain = append([]*Account{&cp}, chain...)
		cur = acc.ParentID
	}
	return chain, nil
}

// Descendants returns every account below the given one, unordered.
func (c *Chart) Descendants(id uuid.UUID) ([]*Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.byID[id]; !ok {
		return nil, ErrAccountNotFound{AccountID: id}
	}

	var out []*Account
	stack := append([]uuid.UUID(nil), c.children[id]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		acc := c.byID[cur]
		cp := acc
		out = append(out, &cp)
		stack = append(stack, c.children[cur]...)
	}
	return out, nil
}

// Children returns the direct children of the account.
func (c *Chart) Children(id uuid.UUID) []*Account {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.children[id]
	out := make([]*Account, 0, len(ids))
	for _, childID := range ids {
		acc := c.byID[childID]
		cp := acc
		out = append(out, &cp)
	}
	return out
}

// IsDescendantOf reports whether a sits somewhere below b.
func (c *Chart) IsDescendantOf(a, b uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isDescendantOf(a, b)
}

// isDescendantOf walks a's parent chain looking for b; callers hold the lock.
func (c *Chart) isDescendantOf(a, b uuid.UUID) bool {
	seen := make(map[uuid.UUID]bool)
	for cur := a; cur != uuid.Nil && !seen[cur]; {
		seen[cur] = true
		acc, ok := c.byID[cur]
		if !ok {
			return false
		}
		if acc.ParentID == b {
			return true
		}
		cur = acc.ParentID
	}
	return false
}

// Accounts returns a snapshot of all accounts, ordered by code.
func (c *Chart) Accounts() []*Account {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Account, 0, len(c.byID))
	for _, acc := range c.byID {
		cp := acc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// TopLevel returns the accounts without a parent, ordered by code.
func (c *Chart) TopLevel() []*Account {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Account
	for _, acc := range c.byID {
		if acc.ParentID == uuid.Nil {
			cp := acc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, cur := range ids {
		if cur == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
