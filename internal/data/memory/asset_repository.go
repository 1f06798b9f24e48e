package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/asset"
)

// AssetRepository stores fixed assets and their depreciation logs in memory.
type AssetRepository struct {
	mu      sync.RWMutex
	assets  map[uuid.UUID]*asset.FixedAsset
	entries map[uuid.UUID][]*asset.DepreciationEntry
}

// NewAssetRepository creates an empty in-memory asset store.
func NewAssetRepository() *AssetRepository {
	return &AssetRepository{
		assets:  make(map[uuid.UUID]*asset.FixedAsset),
		entries: make(map[uuid.UUID][]*asset.DepreciationEntry),
	}
}

// Add registers an asset record.
func (r *AssetRepository) Add(a *asset.FixedAsset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *a
	r.assets[stored.ID] = &stored
}

// ListActive returns all active assets ordered by name.
func (r *AssetRepository) ListActive(_ context.Context) ([]*asset.FixedAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*asset.FixedAsset, 0, len(r.assets))
	for _, a := range r.assets {
		if !a.IsActive {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetByID returns a copy of the asset with the given id.
func (r *AssetRepository) GetByID(_ context.Context, id uuid.UUID) (*asset.FixedAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assets[id]
	if !ok {
		return nil, asset.ErrAssetNotFound{AssetID: id}
	}
	out := *a
	return &out, nil
}

// EntriesForAsset returns the asset's depreciation log ordered by period.
func (r *AssetRepository) EntriesForAsset(_ context.Context, assetID uuid.UUID) ([]*asset.DepreciationEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.entries[assetID]
	out := make([]*asset.DepreciationEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Compare(out[j].Period) < 0 })
	return out, nil
}

// RecordEntry appends one depreciation entry to the asset's log.
func (r *AssetRepository) RecordEntry(_ context.Context, entry *asset.DepreciationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[entry.AssetID]; !ok {
		return asset.ErrAssetNotFound{AssetID: entry.AssetID}
	}
	stored := *entry
	r.entries[entry.AssetID] = append(r.entries[entry.AssetID], &stored)
	return nil
}

// UnitsReporter serves production counts from a static table.
type UnitsReporter struct {
	mu    sync.RWMutex
	units map[uuid.UUID]map[asset.Period]int64
}

// NewUnitsReporter creates an empty units table.
func NewUnitsReporter() *UnitsReporter {
	return &UnitsReporter{units: make(map[uuid.UUID]map[asset.Period]int64)}
}

// Set records the units produced by an asset in a period.
func (r *UnitsReporter) Set(assetID uuid.UUID, period asset.Period, units int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.units[assetID] == nil {
		r.units[assetID] = make(map[asset.Period]int64)
	}
	r.units[assetID][period] = units
}

// UnitsProduced returns the recorded count for the period, zero if none.
func (r *UnitsReporter) UnitsProduced(_ context.Context, assetID uuid.UUID, period asset.Period) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.units[assetID][period], nil
}
