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

// CacheService is the subset of the redis cache the repositories decorate
// reads with. A nil implementation disables caching.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const driverCacheTTL = 5 * time.Minute

type driverRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewDriverRepository(db *mongo.Database, cache CacheService) interfaces.DriverRepository {
	return &driverRepository{
		collection: db.Collection("driver_profiles"),
		cache:      cache,
	}
}

func (r *driverRepository) GetByDriverID(ctx context.Context, driverID string) (*models.DriverProfile, error) {
	if profile := r.getProfileFromCache(ctx, driverID); profile != nil {
		return profile, nil
	}

	var profile models.DriverProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": driverID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrDriverNotFound
		}
		return nil, fmt.Errorf("failed to get driver profile: %w", err)
	}

	r.cacheProfile(ctx, &profile)

	return &profile, nil
}

func (r *driverRepository) Upsert(ctx context.Context, profile *models.DriverProfile) error {
	// The filter only matches when the stored record is not newer; a
	// non-matching filter makes the upsert attempt an insert, which
	// trips the _id unique index. That duplicate key error is the
	// stale-update signal.
	filter := bson.M{
		"_id": profile.DriverID,
		"$or": []bson.M{
			{"last_updated": bson.M{"$exists": false}},
			{"last_updated": bson.M{"$lte": profile.LastUpdated}},
		},
	}

	_, err := r.collection.ReplaceOne(ctx, filter, profile, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrStaleProfileUpdate
		}
		return fmt.Errorf("failed to upsert driver profile: %w", err)
	}

	r.invalidateProfileCache(ctx, profile.DriverID)

	return nil
}

func (r *driverRepository) Delete(ctx context.Context, driverID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": driverID})
	if err != nil {
		return fmt.Errorf("failed to delete driver profile: %w", err)
	}

	r.invalidateProfileCache(ctx, driverID)

	return nil
}

// Cache helpers. Cache failures never surface; the directory read is the
// source of truth.
func (r *driverRepository) cacheProfile(ctx context.Context, profile *models.DriverProfile) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, driverCacheKey(profile.DriverID), profile, driverCacheTTL)
}

func (r *driverRepository) getProfileFromCache(ctx context.Context, driverID string) *models.DriverProfile {
	if r.cache == nil {
		return nil
	}

	var profile models.DriverProfile
	if err := r.cache.Get(ctx, driverCacheKey(driverID), &profile); err != nil {
		return nil
	}
	return &profile
}

func (r *driverRepository) invalidateProfileCache(ctx context.Context, driverID string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, driverCacheKey(driverID))
}

func driverCacheKey(driverID string) string {
	return "driver:profile:" + driverID
}
