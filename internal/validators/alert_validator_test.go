package validators

import (
	"testing"

	"drowsyguard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAlertEvent(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.AlertEvent)
		wantErr bool
	}{
		{
			name:   "valid event",
			mutate: func(e *models.AlertEvent) {},
		},
		{
			name:    "missing alert id",
			mutate:  func(e *models.AlertEvent) { e.AlertID = "" },
			wantErr: true,
		},
		{
			name:    "missing driver id",
			mutate:  func(e *models.AlertEvent) { e.DriverID = "" },
			wantErr: true,
		},
		{
			name:    "missing timestamp",
			mutate:  func(e *models.AlertEvent) { e.Timestamp = "" },
			wantErr: true,
		},
		{
			name:    "non-ISO timestamp",
			mutate:  func(e *models.AlertEvent) { e.Timestamp = "30/08/2026 10:15" },
			wantErr: true,
		},
		{
			name:   "timestamp with offset",
			mutate: func(e *models.AlertEvent) { e.Timestamp = "2026-08-30T17:15:00+07:00" },
		},
		{
			name:   "empty optional fields",
			mutate: func(e *models.AlertEvent) { e.Message = ""; e.Location = models.Location{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &models.AlertEvent{
				AlertID:   "alert-1",
				DriverID:  "driver-1",
				Timestamp: "2026-08-30T10:15:00Z",
				Message:   "Drowsiness detected",
			}
			tt.mutate(event)

			err := ValidateAlertEvent(event)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrMalformedAlert)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProfileUpdate(t *testing.T) {
	valid := func() *models.ProfileUpdate {
		return &models.ProfileUpdate{
			DriverID:  "driver-1",
			Name:      "Somchai",
			Timestamp: "2026-08-30T09:00:00Z",
		}
	}

	assert.NoError(t, ValidateProfileUpdate(valid()))

	missingDriver := valid()
	missingDriver.DriverID = ""
	assert.ErrorIs(t, ValidateProfileUpdate(missingDriver), models.ErrMalformedAlert)

	badTimestamp := valid()
	badTimestamp.Timestamp = "not-a-time"
	assert.ErrorIs(t, ValidateProfileUpdate(badTimestamp), models.ErrMalformedAlert)
}
