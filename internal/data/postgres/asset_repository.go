package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/openledger-engine/internal/domain/asset"
	"github.com/openledger-engine/internal/domain/money"
	"github.com/openledger-engine/internal/platform/persistence"
)

// AssetRepository implements the asset.Repository interface for PostgreSQL.
// Depreciation entries are append-only; accumulated depreciation is always
// derived by summing them, so there is no running-total column to keep
// consistent.
type AssetRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAssetRepository creates a new PostgreSQL fixed asset repository
func NewAssetRepository(logger *slog.Logger, db *persistence.PostgresDB) asset.Repository {
	return &AssetRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

const assetColumns = `
	id, name, purchase_date, purchase_cost, salvage_value, useful_life_years,
	method, declining_rate, total_estimated_units, expense_account_id,
	accum_account_id, is_active, created_at
`

// ListActive returns every active asset ordered by name.
func (r *AssetRepository) ListActive(ctx context.Context) ([]*asset.FixedAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM fixed_assets WHERE is_active ORDER BY name`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active assets", "error", err)
		return nil, fmt.Errorf("failed to list active assets: %w", err)
	}
	defer rows.Close()

	var assets []*asset.FixedAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list active assets: %w", err)
	}

	return assets, nil
}

// GetByID retrieves a fixed asset by its ID
func (r *AssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*asset.FixedAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM fixed_assets WHERE id = $1`

	a, err := scanAsset(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, asset.ErrAssetNotFound{AssetID: id}
		}
		r.logger.Error("Failed to get asset", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return a, nil
}

// EntriesForAsset returns the asset's depreciation log ordered by period.
func (r *AssetRepository) EntriesForAsset(ctx context.Context, assetID uuid.UUID) ([]*asset.DepreciationEntry, error) {
	query := `
		SELECT id, asset_id, period_year, period_month, amount, transaction_id, created_at
		FROM depreciation_entries
		WHERE asset_id = $1
		ORDER BY period_year, period_month
	`

	rows, err := r.querier.Query(ctx, query, assetID)
	if err != nil {
		r.logger.Error("Failed to list depreciation entries", "asset_id", assetID.String(), "error", err)
		return nil, fmt.Errorf("failed to list depreciation entries: %w", err)
	}
	defer rows.Close()

	var entries []*asset.DepreciationEntry
	for rows.Next() {
		var (
			e      asset.DepreciationEntry
			month  int
			amount string
		)
		err := rows.Scan(&e.ID, &e.AssetID, &e.Period.Year, &month, &amount, &e.TransactionID, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan depreciation entry: %w", err)
		}
		e.Period.Month = time.Month(month)
		if e.Amount, err = money.FromString(amount, money.AmountScale); err != nil {
			return nil, fmt.Errorf("corrupt depreciation amount on entry %s: %w", e.ID, err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list depreciation entries: %w", err)
	}

	return entries, nil
}

// RecordEntry appends one depreciation entry. The unique (asset_id, period)
// constraint is the database-level backstop against double generation.
func (r *AssetRepository) RecordEntry(ctx context.Context, entry *asset.DepreciationEntry) error {
	query := `
		INSERT INTO depreciation_entries (id, asset_id, period_year, period_month, amount, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.AssetID,
		entry.Period.Year,
		int(entry.Period.Month),
		entry.Amount.StringFixed(),
		entry.TransactionID,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to record depreciation entry",
			"asset_id", entry.AssetID.String(), "period", entry.Period.String(), "error", err)
		return fmt.Errorf("failed to record depreciation entry: %w", err)
	}

	return nil
}

// scanAsset reads one fixed asset row; the rate column is NULL for methods
// that do not use it.
func scanAsset(row pgx.Row) (*asset.FixedAsset, error) {
	var (
		a             asset.FixedAsset
		method        string
		cost, salvage string
		rate          *string
		totalUnits    *int64
	)
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.PurchaseDate,
		&cost,
		&salvage,
		&a.UsefulLifeYears,
		&method,
		&rate,
		&totalUnits,
		&a.ExpenseAccountID,
		&a.AccumAccountID,
		&a.IsActive,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Method = asset.Method(method)
	if a.PurchaseCost, err = money.FromString(cost, money.AmountScale); err != nil {
		return nil, fmt.Errorf("corrupt purchase cost on asset %s: %w", a.ID, err)
	}
	if a.SalvageValue, err = money.FromString(salvage, money.AmountScale); err != nil {
		return nil, fmt.Errorf("corrupt salvage value on asset %s: %w", a.ID, err)
	}
	if rate != nil {
		if a.DecliningRate, err = money.FromString(*rate, money.RateScale); err != nil {
			return nil, fmt.Errorf("corrupt declining rate on asset %s: %w", a.ID, err)
		}
	}
	if totalUnits != nil {
		a.TotalEstimatedUnits = *totalUnits
	}
	return &a, nil
}
