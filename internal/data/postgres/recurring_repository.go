package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/openledger-engine/internal/domain/money"
	"github.com/openledger-engine/internal/domain/recurring"
	"github.com/openledger-engine/internal/platform/persistence"
)

// RecurringRepository implements the recurring.Repository interface for PostgreSQL
type RecurringRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewRecurringRepository creates a new PostgreSQL recurring template repository
func NewRecurringRepository(logger *slog.Logger, db *persistence.PostgresDB) recurring.Repository {
	return &RecurringRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

const templateColumns = `
	id, name, description, cadence, start_date, end_date, next_execution_date,
	amount, debit_account_id, credit_account_id, is_active, created_at
`

// ListActive returns every active template ordered by name.
func (r *RecurringRepository) ListActive(ctx context.Context) ([]*recurring.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_transactions WHERE is_active ORDER BY name`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active templates", "error", err)
		return nil, fmt.Errorf("failed to list active templates: %w", err)
	}
	defer rows.Close()

	var templates []*recurring.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list active templates: %w", err)
	}

	return templates, nil
}

// GetByID retrieves a template by its ID
func (r *RecurringRepository) GetByID(ctx context.Context, id uuid.UUID) (*recurring.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_transactions WHERE id = $1`

	tpl, err := scanTemplate(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recurring.ErrTemplateNotFound{TemplateID: id}
		}
		r.logger.Error("Failed to get template", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return tpl, nil
}

// UpdateNextExecution advances the template's schedule after a firing.
func (r *RecurringRepository) UpdateNextExecution(ctx context.Context, id uuid.UUID, next time.Time) error {
	query := `UPDATE recurring_transactions SET next_execution_date = $1 WHERE id = $2`

	result, err := r.querier.Exec(ctx, query, next, id)
	if err != nil {
		r.logger.Error("Failed to update next execution date", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update next execution date: %w", err)
	}
	if result.RowsAffected() == 0 {
		return recurring.ErrTemplateNotFound{TemplateID: id}
	}

	return nil
}

// scanTemplate reads one template row.
func scanTemplate(row pgx.Row) (*recurring.Template, error) {
	var (
		tpl     recurring.Template
		cadence string
		amount  string
	)
	err := row.Scan(
		&tpl.ID,
		&tpl.Name,
		&tpl.Description,
		&cadence,
		&tpl.StartDate,
		&tpl.EndDate,
		&tpl.NextExecution,
		&amount,
		&tpl.DebitAccountID,
		&tpl.CreditAccountID,
		&tpl.IsActive,
		&tpl.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	tpl.Cadence = recurring.Cadence(cadence)
	if tpl.Amount, err = money.FromString(amount, money.AmountScale); err != nil {
		return nil, fmt.Errorf("corrupt amount on template %s: %w", tpl.ID, err)
	}
	return &tpl, nil
}
