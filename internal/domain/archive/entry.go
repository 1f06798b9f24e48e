// Package archive models the denormalized posted-entry archive: one document
// per journal entry, queryable by account without touching the relational
// store. The archive is derived data; the journal is always authoritative.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/journal"
)

// Entry is one archived journal entry, flattened with its transaction header
// for account-scoped history queries. Amounts are stored as fixed-point
// decimal strings.
type Entry struct {
	EntryID           uuid.UUID `bson:"entry_id" json:"entry_id"`
	TransactionID     uuid.UUID `bson:"transaction_id" json:"transaction_id"`
	TransactionNumber int64     `bson:"transaction_number" json:"transaction_number"`
	AccountID         uuid.UUID `bson:"account_id" json:"account_id"`
	Date              time.Time `bson:"date" json:"date"`
	Type              string    `bson:"type" json:"type"`
	Debit             string    `bson:"debit" json:"debit"`
	Credit            string    `bson:"credit" json:"credit"`
	Description       string    `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}

// FlattenTransaction maps a committed transaction to its archive documents.
func FlattenTransaction(tx *journal.Transaction) []*Entry {
	entries := make([]*Entry, 0, len(tx.Entries))
	for _, e := range tx.Entries {
		entries = append(entries, &Entry{
			EntryID:           e.ID,
			TransactionID:     tx.ID,
			TransactionNumber: tx.Number,
			AccountID:         e.AccountID,
			Date:              tx.Date,
			Type:              string(tx.Type),
			Debit:             e.Debit.StringFixed(),
			Credit:            e.Credit.StringFixed(),
			Description:       e.Description,
			CreatedAt:         tx.CreatedAt,
		})
	}
	return entries
}

// Repository stores and queries archived entries.
type Repository interface {
	// ArchiveTransaction writes one document per entry of the transaction.
	// Re-archiving the same transaction is a no-op.
	ArchiveTransaction(ctx context.Context, tx *journal.Transaction) error
	// GetByAccountID returns paginated entries for an account, newest first.
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error)
	// CountByAccountID counts the archived entries for an account.
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
	// GetByTimeRange returns paginated entries dated within the window,
	// newest first.
	GetByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*Entry, error)
}
