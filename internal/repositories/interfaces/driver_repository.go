package interfaces

import (
	"context"

	"drowsyguard/internal/models"
)

// DriverRepository is the read/write interface over the driver directory.
// GetByDriverID returns models.ErrDriverNotFound when no profile exists;
// any other error is a transient directory failure the caller may retry.
type DriverRepository interface {
	GetByDriverID(ctx context.Context, driverID string) (*models.DriverProfile, error)

	// Upsert writes a profile keyed by driver id. An update whose
	// LastUpdated is older than the stored one returns
	// models.ErrStaleProfileUpdate and leaves the record untouched.
	Upsert(ctx context.Context, profile *models.DriverProfile) error

	Delete(ctx context.Context, driverID string) error
}
