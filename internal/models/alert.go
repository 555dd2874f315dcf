package models

import (
	"errors"
	"time"
)

type AlertState string
type AckStatus string

const (
	AlertStateReceived     AlertState = "received"
	AlertStateValidated    AlertState = "validated"
	AlertStateJoined       AlertState = "joined"
	AlertStatePersisted    AlertState = "persisted"
	AlertStateDispatched   AlertState = "dispatched"
	AlertStateAcknowledged AlertState = "acknowledged"
	AlertStateRejected     AlertState = "rejected"

	AckStatusOK       AckStatus = "ok"
	AckStatusRejected AckStatus = "rejected"
)

// Error kinds surfaced by alert processing. Only ErrMalformedAlert is
// terminal; everything else degrades without failing the alert.
var (
	ErrMalformedAlert       = errors.New("malformed alert")
	ErrDriverNotFound       = errors.New("driver profile not found")
	ErrDirectoryUnavailable = errors.New("driver directory unavailable")
	ErrConnectionGone       = errors.New("connection gone")
)

type Location struct {
	Latitude    float64 `json:"latitude" bson:"latitude"`
	Longitude   float64 `json:"longitude" bson:"longitude"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
}

// AlertEvent is the untrusted inbound payload from the vehicle channel.
// Optional sensor fields are passed through to the dashboard unvalidated.
type AlertEvent struct {
	AlertID         string   `json:"alert_id" validate:"required"`
	DriverID        string   `json:"driver_id" validate:"required"`
	Timestamp       string   `json:"timestamp" validate:"required,iso8601"`
	Location        Location `json:"location"`
	Message         string   `json:"message"`
	DrowsinessLevel float64  `json:"drowsiness_level,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
	Speed           float64  `json:"speed,omitempty"`
}

// StoredAlert is the persisted projection of an AlertEvent. The alert id is
// the document key, so replayed deliveries collapse onto one record.
type StoredAlert struct {
	AlertID         string    `json:"alert_id" bson:"_id"`
	DriverID        string    `json:"driver_id" bson:"driver_id"`
	Timestamp       time.Time `json:"timestamp" bson:"timestamp"`
	Location        Location  `json:"location" bson:"location"`
	Message         string    `json:"message" bson:"message"`
	DrowsinessLevel float64   `json:"drowsiness_level,omitempty" bson:"drowsiness_level,omitempty"`
	Confidence      float64   `json:"confidence,omitempty" bson:"confidence,omitempty"`
	Speed           float64   `json:"speed,omitempty" bson:"speed,omitempty"`
	Processed       bool      `json:"processed" bson:"processed"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	Expiry          time.Time `json:"expiry" bson:"expiry"`
}

// EnrichedAlert is the join result pushed to dashboard connections.
// DriverInfo is nil when no profile exists for the driver; the alert is
// delivered regardless.
type EnrichedAlert struct {
	Alert      *StoredAlert   `json:"alert"`
	DriverInfo *DriverProfile `json:"driver_info"`
}

// Acknowledgment is the terminal status message sent back on the vehicle
// channel, one per received AlertEvent.
type Acknowledgment struct {
	AlertID string    `json:"alert_id"`
	Status  AckStatus `json:"status"`
	Reason  string    `json:"reason,omitempty"`
}

// AlertOutcome reports where an event's state machine ended up.
type AlertOutcome struct {
	AlertID   string
	State     AlertState
	Replayed  bool
	Reason    string
	Delivered int
	Failed    int
}
