// Package postgres provides PostgreSQL implementations of the domain
// repositories. All monetary values are stored as NUMERIC and moved in and
// out of the database as exact decimal strings, never as floats.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/openledger-engine/internal/domain/account"
	"github.com/openledger-engine/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account. A code collision surfaces as ErrDuplicateCode
// via the unique constraint on the code column.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, code, name, type, parent_id, is_active, cash_flow_tag, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Code,
		acc.Name,
		string(acc.Type),
		nullableID(acc.ParentID),
		acc.IsActive,
		string(acc.CashFlowTag),
		acc.Description,
		acc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return account.ErrDuplicateCode{Code: acc.Code}
		}
		r.logger.Error("Failed to create account", "code", acc.Code, "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT id, code, name, type, parent_id, is_active, cash_flow_tag, description, created_at
		FROM accounts
		WHERE id = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByCode retrieves an account by its code
func (r *AccountRepository) GetByCode(ctx context.Context, code string) (*account.Account, error) {
	query := `
		SELECT id, code, name, type, parent_id, is_active, cash_flow_tag, description, created_at
		FROM accounts
		WHERE code = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{}
		}
		r.logger.Error("Failed to get account by code", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get account by code: %w", err)
	}

	return acc, nil
}

// ListAll returns the full chart of accounts ordered by code. The engine
// loads this once at warm-up to build its in-memory index.
func (r *AccountRepository) ListAll(ctx context.Context) ([]*account.Account, error) {
	query := `
		SELECT id, code, name, type, parent_id, is_active, cash_flow_tag, description, created_at
		FROM accounts
		ORDER BY code
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	return accounts, nil
}

// UpdateParent moves the account under a new parent (uuid.Nil for top level).
// Cycle checks happen in the in-memory index before this is called.
func (r *AccountRepository) UpdateParent(ctx context.Context, id uuid.UUID, parentID uuid.UUID) error {
	query := `UPDATE accounts SET parent_id = $1 WHERE id = $2`

	result, err := r.querier.Exec(ctx, query, nullableID(parentID), id)
	if err != nil {
		r.logger.Error("Failed to update account parent", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update account parent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}

	return nil
}

// SetActive flips the account's active flag
func (r *AccountRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE accounts SET is_active = $1 WHERE id = $2`

	result, err := r.querier.Exec(ctx, query, active, id)
	if err != nil {
		r.logger.Error("Failed to set account active flag", "id", id.String(), "error", err)
		return fmt.Errorf("failed to set account active flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}

	return nil
}

// scanAccount reads one account row; parent_id NULL maps to uuid.Nil.
func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		acc      account.Account
		typ, tag string
		parentID *uuid.UUID
	)
	err := row.Scan(
		&acc.ID,
		&acc.Code,
		&acc.Name,
		&typ,
		&parentID,
		&acc.IsActive,
		&tag,
		&acc.Description,
		&acc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	acc.Type = account.Type(typ)
	acc.CashFlowTag = account.CashFlowTag(tag)
	if parentID != nil {
		acc.ParentID = *parentID
	}
	return &acc, nil
}

// nullableID maps uuid.Nil to SQL NULL.
func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
