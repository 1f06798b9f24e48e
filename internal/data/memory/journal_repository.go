// Package memory provides in-process repository implementations backed by
// plain maps and slices. They carry the same contracts as the SQL stores and
// serve the standalone run mode and the engine's tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/openledger-engine/internal/domain/journal"
)

// JournalRepository stores committed transactions in memory.
type JournalRepository struct {
	mu           sync.RWMutex
	transactions []*journal.Transaction
	byID         map[string]*journal.Transaction
}

// NewJournalRepository creates an empty in-memory journal store.
func NewJournalRepository() *JournalRepository {
	return &JournalRepository{byID: make(map[string]*journal.Transaction)}
}

// SaveTransaction appends the transaction. The append is atomic: a reader
// either sees the whole transaction or none of it.
func (r *JournalRepository) SaveTransaction(_ context.Context, tx *journal.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[tx.ID.String()]; exists {
		return journal.ErrDuplicateTransaction{TransactionID: tx.ID}
	}
	r.transactions = append(r.transactions, tx)
	r.byID[tx.ID.String()] = tx
	return nil
}

// ListAll returns the committed transactions ordered by number ascending.
func (r *JournalRepository) ListAll(_ context.Context) ([]*journal.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*journal.Transaction, len(r.transactions))
	copy(out, r.transactions)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
