package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/openledger-engine/internal/domain/asset"
	"github.com/openledger-engine/internal/platform/persistence"
)

// UnitsRepository implements the asset.UnitsReporter interface for
// PostgreSQL. Production counts are recorded by external collaborators; a
// period with no row simply produced nothing.
type UnitsRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewUnitsRepository creates a new PostgreSQL production units reporter
func NewUnitsRepository(logger *slog.Logger, db *persistence.PostgresDB) asset.UnitsReporter {
	return &UnitsRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// UnitsProduced returns the recorded production count for the asset and
// period, zero when nothing was recorded.
func (r *UnitsRepository) UnitsProduced(ctx context.Context, assetID uuid.UUID, period asset.Period) (int64, error) {
	query := `
		SELECT units
		FROM asset_production_units
		WHERE asset_id = $1 AND period_year = $2 AND period_month = $3
	`

	var units int64
	err := r.querier.QueryRow(ctx, query, assetID, period.Year, int(period.Month)).Scan(&units)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		r.logger.Error("Failed to get production units",
			"asset_id", assetID.String(), "period", period.String(), "error", err)
		return 0, fmt.Errorf("failed to get production units: %w", err)
	}

	return units, nil
}
