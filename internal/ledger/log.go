// Package ledger implements the general-ledger computation engine: posting,
// balance aggregation, statement building and the depreciation/recurrence
// schedulers. The committed entry log is the source of truth; every balance
// is recomputable from it.
package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
)

// effect is one committed entry's dated, signed contribution to an account.
type effect struct {
	date   time.Time
	amount money.Money
}

// Log is the in-memory committed entry log. Transactions are appended whole
// under the write lock, so readers always observe either all of a
// transaction's entries or none of them.
type Log struct {
	mu           sync.RWMutex
	transactions []*journal.Transaction
	effects      map[uuid.UUID][]effect
	version      uint64
	lastNumber   int64
}

// NewLog creates an empty committed log.
func NewLog() *Log {
	return &Log{effects: make(map[uuid.UUID][]effect)}
}

// Seed loads previously committed transactions (ordered by number) during
// engine warm-up.
func (l *Log) Seed(transactions []*journal.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, tx := range transactions {
		l.append(tx)
	}
}

// Append commits one transaction to the log.
func (l *Log) Append(tx *journal.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.append(tx)
}

func (l *Log) append(tx *journal.Transaction) {
	l.transactions = append(l.transactions, tx)
	for _, e := range tx.Entries {
		l.effects[e.AccountID] = append(l.effects[e.AccountID], effect{
			date:   dateOnly(tx.Date),
			amount: e.Effect(),
		})
	}
	if tx.Number > l.lastNumber {
		l.lastNumber = tx.Number
	}
	l.version++
}

// Version increases on every append; the aggregator uses it to discard
// balance computations that raced with a commit.
func (l *Log) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// LastNumber returns the highest committed transaction number.
func (l *Log) LastNumber() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastNumber
}

// Len returns the number of committed transactions.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.transactions)
}

// Transactions returns a snapshot of the committed transactions in commit
// order.
func (l *Log) Transactions() []*journal.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*journal.Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// SumEffects sums an account's entry effects dated on/before asOf.
func (l *Log) SumEffects(accountID uuid.UUID, asOf time.Time) money.Money {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sumEffects(accountID, asOf)
}

func (l *Log) sumEffects(accountID uuid.UUID, asOf time.Time) money.Money {
	cutoff := dateOnly(asOf)
	total := money.Zero(money.AmountScale)
	for _, e := range l.effects[accountID] {
		if !e.date.After(cutoff) {
			total, _ = total.Add(e.amount)
		}
	}
	return total
}

// SumEffectsIn sums an account's entry effects dated within [start, end].
func (l *Log) SumEffectsIn(accountID uuid.UUID, start, end time.Time) money.Money {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sumEffectsIn(accountID, start, end)
}

func (l *Log) sumEffectsIn(accountID uuid.UUID, start, end time.Time) money.Money {
	from, to := dateOnly(start), dateOnly(end)
	total := money.Zero(money.AmountScale)
	for _, e := range l.effects[accountID] {
		if !e.date.Before(from) && !e.date.After(to) {
			total, _ = total.Add(e.amount)
		}
	}
	return total
}

// dateOnly truncates a timestamp to its calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
