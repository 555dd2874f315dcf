package mongodb

import (
	"context"
	"fmt"
	"time"

	"drowsyguard/internal/models"
	"drowsyguard/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type alertRepository struct {
	collection *mongo.Collection
}

func NewAlertRepository(db *mongo.Database) interfaces.AlertRepository {
	return &alertRepository{
		collection: db.Collection("alerts"),
	}
}

func (r *alertRepository) Upsert(ctx context.Context, alert *models.StoredAlert) (*interfaces.UpsertResult, error) {
	alert.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, alert)
	if err != nil {
		// Duplicate alert id means a replayed delivery; hand back the
		// record the first delivery persisted.
		if mongo.IsDuplicateKeyError(err) {
			existing, getErr := r.GetByID(ctx, alert.AlertID)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load existing alert %s: %w", alert.AlertID, getErr)
			}
			return &interfaces.UpsertResult{Inserted: false, Existing: existing}, nil
		}
		return nil, fmt.Errorf("failed to insert alert: %w", err)
	}

	return &interfaces.UpsertResult{Inserted: true, Existing: alert}, nil
}

func (r *alertRepository) GetByID(ctx context.Context, alertID string) (*models.StoredAlert, error) {
	var alert models.StoredAlert
	err := r.collection.FindOne(ctx, bson.M{"_id": alertID}).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("alert %s not found", alertID)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return &alert, nil
}

func (r *alertRepository) GetByDriverID(ctx context.Context, driverID string, since time.Time, limit int64) ([]*models.StoredAlert, error) {
	filter := bson.M{
		"driver_id": driverID,
		"timestamp": bson.M{"$gte": since},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find alerts for driver %s: %w", driverID, err)
	}
	defer cursor.Close(ctx)

	var alerts []*models.StoredAlert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}

	return alerts, nil
}

func (r *alertRepository) MarkProcessed(ctx context.Context, alertID string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": alertID},
		bson.M{"$set": bson.M{"processed": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark alert processed: %w", err)
	}

	return nil
}
