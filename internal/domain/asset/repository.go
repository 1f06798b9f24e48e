package asset

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages fixed asset records and their depreciation entry log.
type Repository interface {
	ListActive(ctx context.Context) ([]*FixedAsset, error)
	GetByID(ctx context.Context, id uuid.UUID) (*FixedAsset, error)
	// EntriesForAsset returns the asset's depreciation log ordered by period.
	EntriesForAsset(ctx context.Context, assetID uuid.UUID) ([]*DepreciationEntry, error)
	// RecordEntry appends one entry; called only after its transaction posted.
	RecordEntry(ctx context.Context, entry *DepreciationEntry) error
}

// UnitsReporter supplies production counts for units-of-production assets.
// The data comes from an external collaborator, not from the engine.
type UnitsReporter interface {
	UnitsProduced(ctx context.Context, assetID uuid.UUID, period Period) (int64, error)
}

// ErrAssetNotFound indicates a missing fixed asset record
type ErrAssetNotFound struct {
	AssetID uuid.UUID
}

func (e ErrAssetNotFound) Error() string {
	return "fixed asset not found: " + e.AssetID.String()
}

// Is implements the errors.Is interface for ErrAssetNotFound
func (e ErrAssetNotFound) Is(target error) bool {
	t, ok := target.(ErrAssetNotFound)
	if !ok {
		return false
	}
	if t.AssetID == uuid.Nil {
		return true
	}
	return e.AssetID == t.AssetID
}
