package repository

import (
	"context"
	"fmt"
	"time"

	"printflow-core-monday-layer/internal/domain"
	"printflow-core-monday-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mondaySettingsDocID = "monday_integration"

// MongoSettingsRepository implements SettingsRepository using MongoDB. The
// integration configuration lives in a single well-known document; reads are
// per-request so admin saves take effect without a restart.
type MongoSettingsRepository struct {
	collection *mongo.Collection
}

// NewMongoSettingsRepository creates a new MongoDB settings repository.
func NewMongoSettingsRepository(db *mongo.Database) ports.SettingsRepository {
	return &MongoSettingsRepository{
		collection: db.Collection("settings"),
	}
}

// Get retrieves the Monday integration settings. A missing document yields
// disabled defaults rather than an error.
func (r *MongoSettingsRepository) Get(ctx context.Context) (*domain.MondaySettings, error) {
	var settings domain.MondaySettings
	err := r.collection.FindOne(ctx, bson.M{"_id": mondaySettingsDocID}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return &domain.MondaySettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monday settings: %w", err)
	}
	return &settings, nil
}

// Save upserts the Monday integration settings document. Concurrent admin
// saves are last-write-wins.
func (r *MongoSettingsRepository) Save(ctx context.Context, settings *domain.MondaySettings) error {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now()
	}

	opts := options.Update().SetUpsert(true)
	update := bson.M{"$set": settings}

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": mondaySettingsDocID}, update, opts); err != nil {
		return fmt.Errorf("failed to save monday settings: %w", err)
	}
	return nil
}
