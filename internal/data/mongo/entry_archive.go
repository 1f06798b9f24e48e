// Package mongo provides the MongoDB implementation of the posted-entry
// archive.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openledger-engine/internal/domain/archive"
	"github.com/openledger-engine/internal/domain/journal"
)

const (
	// ArchiveCollectionName is the name of the entry archive collection
	ArchiveCollectionName = "journal_entry_archive"
)

// EntryArchive implements the archive.Repository interface for MongoDB
type EntryArchive struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewEntryArchive creates a new MongoDB entry archive
func NewEntryArchive(logger *slog.Logger, db *mongo.Database) archive.Repository {
	return &EntryArchive{
		db:     db,
		logger: logger,
	}
}

// ArchiveTransaction writes one document per entry of the transaction. A
// transaction that is already archived is skipped, so replays after a crash
// cannot duplicate documents.
func (r *EntryArchive) ArchiveTransaction(ctx context.Context, tx *journal.Transaction) error {
	collection := r.db.Collection(ArchiveCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"transaction_id": tx.ID})
	if err != nil {
		r.logger.Error("Failed to check for archived transaction",
			"transaction_id", tx.ID.String(), "error", err)
		return fmt.Errorf("failed to check for archived transaction: %w", err)
	}
	if count > 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(tx.Entries))
	for _, e := range archive.FlattenTransaction(tx) {
		docs = append(docs, e)
	}

	if _, err := collection.InsertMany(ctx, docs); err != nil {
		r.logger.Error("Failed to archive transaction",
			"transaction_id", tx.ID.String(), "error", err)
		return fmt.Errorf("failed to archive transaction: %w", err)
	}

	return nil
}

// GetByAccountID retrieves paginated archived entries for an account.
// Results are sorted by transaction date in descending order (newest first).
func (r *EntryArchive) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*archive.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"account_id": accountID}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "transaction_number", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived entries",
			"account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get archived entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*archive.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode archived entries",
			"account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to decode archived entries: %w", err)
	}

	return entries, nil
}

// CountByAccountID counts the archived entries for an account
func (r *EntryArchive) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"account_id": accountID})
	if err != nil {
		r.logger.Error("Failed to count archived entries",
			"account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count archived entries: %w", err)
	}

	return count, nil
}

// GetByTimeRange retrieves paginated archived entries dated within the window.
// Results are sorted by transaction date in descending order.
func (r *EntryArchive) GetByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*archive.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{
		"date": bson.M{
			"$gte": start,
			"$lte": end,
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "transaction_number", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived entries by time range",
			"start", start, "end", end, "error", err)
		return nil, fmt.Errorf("failed to get archived entries by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*archive.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode archived entries",
			"start", start, "end", end, "error", err)
		return nil, fmt.Errorf("failed to decode archived entries: %w", err)
	}

	return entries, nil
}
