package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
	"github.com/openledger-engine/internal/platform/persistence"
)

// JournalRepository implements the journal.Repository interface for
// PostgreSQL. A transaction and its entries are written in one database
// transaction so readers never observe a partial posting.
type JournalRepository struct {
	pool   persistence.Pooler
	logger *slog.Logger
}

// NewJournalRepository creates a new PostgreSQL journal repository
func NewJournalRepository(logger *slog.Logger, db *persistence.PostgresDB) journal.Repository {
	return &JournalRepository{
		pool:   db.Pool(),
		logger: logger,
	}
}

// SaveTransaction persists the transaction header and all entries atomically.
func (r *JournalRepository) SaveTransaction(ctx context.Context, tx *journal.Transaction) error {
	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = dbTx.Rollback(ctx) }()

	query := `
		INSERT INTO transactions (id, number, date, type, description, reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = dbTx.Exec(ctx, query,
		tx.ID,
		tx.Number,
		tx.Date,
		string(tx.Type),
		tx.Description,
		tx.Reference,
		tx.CreatedBy,
		tx.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return journal.ErrDuplicateTransaction{TransactionID: tx.ID}
		}
		r.logger.Error("Failed to insert transaction",
			"transaction_id", tx.ID.String(), "number", tx.Number, "error", err)
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	entryQuery := `
		INSERT INTO journal_entries (id, transaction_id, account_id, debit, credit, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range tx.Entries {
		_, err := dbTx.Exec(ctx, entryQuery,
			e.ID,
			e.TransactionID,
			e.AccountID,
			e.Debit.StringFixed(),
			e.Credit.StringFixed(),
			e.Description,
		)
		if err != nil {
			r.logger.Error("Failed to insert journal entry",
				"transaction_id", tx.ID.String(), "entry_id", e.ID.String(), "error", err)
			return fmt.Errorf("failed to insert journal entry: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListAll loads every committed transaction with its entries, ordered by
// number ascending. Entries are fetched in one pass and stitched onto their
// transactions in memory.
func (r *JournalRepository) ListAll(ctx context.Context) ([]*journal.Transaction, error) {
	query := `
		SELECT id, number, date, type, description, reference, created_by, created_at
		FROM transactions
		ORDER BY number
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list transactions", "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var (
		transactions []*journal.Transaction
		byID         = make(map[uuid.UUID]*journal.Transaction)
	)
	for rows.Next() {
		var (
			tx  journal.Transaction
			typ string
		)
		err := rows.Scan(&tx.ID, &tx.Number, &tx.Date, &typ, &tx.Description, &tx.Reference, &tx.CreatedBy, &tx.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Type = journal.TransactionType(typ)
		transactions = append(transactions, &tx)
		byID[tx.ID] = &tx
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	entryQuery := `
		SELECT e.id, e.transaction_id, e.account_id, e.debit, e.credit, e.description
		FROM journal_entries e
		JOIN transactions t ON t.id = e.transaction_id
		ORDER BY t.number, e.id
	`
	entryRows, err := r.pool.Query(ctx, entryQuery)
	if err != nil {
		r.logger.Error("Failed to list journal entries", "error", err)
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer entryRows.Close()

	for entryRows.Next() {
		var (
			e             journal.Entry
			debit, credit string
		)
		err := entryRows.Scan(&e.ID, &e.TransactionID, &e.AccountID, &debit, &credit, &e.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if e.Debit, err = money.FromString(debit, money.AmountScale); err != nil {
			return nil, fmt.Errorf("corrupt debit amount on entry %s: %w", e.ID, err)
		}
		if e.Credit, err = money.FromString(credit, money.AmountScale); err != nil {
			return nil, fmt.Errorf("corrupt credit amount on entry %s: %w", e.ID, err)
		}
		tx, ok := byID[e.TransactionID]
		if !ok {
			return nil, fmt.Errorf("orphaned journal entry %s", e.ID)
		}
		tx.Entries = append(tx.Entries, e)
	}
	if err := entryRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}

	return transactions, nil
}
