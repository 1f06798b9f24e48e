package journal

import (
	"context"
)

// Repository provides durable storage for committed transactions. The store
// must persist a transaction and all of its entries atomically: readers never
// observe a partial transaction. The entry log is the source of truth; every
// balance is recomputable from it.
type Repository interface {
	// SaveTransaction persists the transaction and its entries in one commit.
	SaveTransaction(ctx context.Context, tx *Transaction) error
	// ListAll returns every committed transaction ordered by number
	// ascending; the engine replays it at warm-up.
	ListAll(ctx context.Context) ([]*Transaction, error)
}
