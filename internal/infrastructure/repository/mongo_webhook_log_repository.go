package repository

import (
	"context"
	"fmt"
	"time"

	"printflow-core-monday-layer/internal/domain"
	"printflow-core-monday-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoWebhookLogRepository implements the append-only webhook audit trail
// using MongoDB. Log documents are inserted and never updated or deleted.
type MongoWebhookLogRepository struct {
	intakeCollection *mongo.Collection
	mondayCollection *mongo.Collection
}

// NewMongoWebhookLogRepository creates a new MongoDB webhook log repository.
func NewMongoWebhookLogRepository(db *mongo.Database) ports.WebhookLogRepository {
	return &MongoWebhookLogRepository{
		intakeCollection: db.Collection("webhook_logs"),
		mondayCollection: db.Collection("monday_webhook_logs"),
	}
}

// LogIntake appends an order-intake webhook audit record.
func (r *MongoWebhookLogRepository) LogIntake(ctx context.Context, log *domain.WebhookLog) error {
	if log.ID == "" {
		log.ID = primitive.NewObjectID().Hex()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	if _, err := r.intakeCollection.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}
	return nil
}

// LogMondaySync appends a reverse-sync webhook audit record.
func (r *MongoWebhookLogRepository) LogMondaySync(ctx context.Context, log *domain.MondayWebhookLog) error {
	if log.ID == "" {
		log.ID = primitive.NewObjectID().Hex()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	if _, err := r.mondayCollection.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to log monday webhook: %w", err)
	}
	return nil
}
