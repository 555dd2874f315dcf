package services

import (
	"context"
	"testing"
	"time"

	"drowsyguard/internal/models"
	"drowsyguard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfileUpdate() *models.ProfileUpdate {
	return &models.ProfileUpdate{
		DriverID:         "driver-1",
		Name:             "Somchai",
		BloodType:        "O+",
		EmergencyContact: "+66812345678",
		ChronicDiseases:  []string{"hypertension"},
		Timestamp:        "2026-08-30T09:00:00Z",
	}
}

func TestProcessUpdateStoresProfile(t *testing.T) {
	repo := newFakeDriverRepo()
	svc := NewProfileService(repo, 365*24*time.Hour, logger.NewNop())

	err := svc.ProcessUpdate(context.Background(), validProfileUpdate())
	require.NoError(t, err)

	profile, err := repo.GetByDriverID(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.Equal(t, "Somchai", profile.Name)
	assert.Equal(t, "O+", profile.BloodType)
	assert.Equal(t, time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC), profile.LastUpdated.UTC())
	assert.False(t, profile.Expiry.IsZero())
}

func TestProcessUpdateRejectsMalformedPayload(t *testing.T) {
	repo := newFakeDriverRepo()
	svc := NewProfileService(repo, 365*24*time.Hour, logger.NewNop())

	update := validProfileUpdate()
	update.DriverID = ""

	err := svc.ProcessUpdate(context.Background(), update)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMalformedAlert)
}

func TestProcessUpdateRejectsStaleUpdate(t *testing.T) {
	repo := newFakeDriverRepo()
	svc := NewProfileService(repo, 365*24*time.Hour, logger.NewNop())

	require.NoError(t, svc.ProcessUpdate(context.Background(), validProfileUpdate()))

	// An older update is rejected whole, never merged field-wise.
	stale := validProfileUpdate()
	stale.Name = "Overwritten"
	stale.Timestamp = "2026-08-29T09:00:00Z"

	err := svc.ProcessUpdate(context.Background(), stale)
	assert.ErrorIs(t, err, models.ErrStaleProfileUpdate)

	profile, err := repo.GetByDriverID(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.Equal(t, "Somchai", profile.Name)
}

func TestProcessUpdateAcceptsNewerUpdate(t *testing.T) {
	repo := newFakeDriverRepo()
	svc := NewProfileService(repo, 365*24*time.Hour, logger.NewNop())

	require.NoError(t, svc.ProcessUpdate(context.Background(), validProfileUpdate()))

	newer := validProfileUpdate()
	newer.Name = "Somchai J."
	newer.Timestamp = "2026-08-31T09:00:00Z"

	require.NoError(t, svc.ProcessUpdate(context.Background(), newer))

	profile, err := repo.GetByDriverID(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.Equal(t, "Somchai J.", profile.Name)
}
