package interfaces

import (
	"context"
	"time"

	"drowsyguard/internal/models"
)

// UpsertResult reports whether an alert write inserted a new record or hit
// an already-persisted one. Existing always carries the stored record.
type UpsertResult struct {
	Inserted bool
	Existing *models.StoredAlert
}

// AlertRepository is the alert history store. Upsert is atomic per alert
// id: concurrent writers for the same id see exactly one insert, and the
// losers receive the already-persisted record.
type AlertRepository interface {
	Upsert(ctx context.Context, alert *models.StoredAlert) (*UpsertResult, error)
	GetByID(ctx context.Context, alertID string) (*models.StoredAlert, error)

	// GetByDriverID is the secondary lookup by (driver id, timestamp),
	// newest first.
	GetByDriverID(ctx context.Context, driverID string, since time.Time, limit int64) ([]*models.StoredAlert, error)

	// MarkProcessed records that a fan-out round has been attempted.
	MarkProcessed(ctx context.Context, alertID string) error
}
