package models

import (
	"errors"
	"time"
)

// ErrStaleProfileUpdate marks a profile update older than the stored
// record; last_updated is monotonically non-decreasing per driver.
var ErrStaleProfileUpdate = errors.New("stale profile update")

// DriverProfile is the medical/identity record joined onto alerts. It is
// written by the profile update channel and read-only to alert processing.
type DriverProfile struct {
	DriverID         string    `json:"driver_id" bson:"_id" validate:"required"`
	Name             string    `json:"name" bson:"name"`
	Gender           string    `json:"gender,omitempty" bson:"gender,omitempty"`
	DateOfBirth      string    `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	WeightKG         float64   `json:"weight,omitempty" bson:"weight,omitempty"`
	HeightCM         float64   `json:"height,omitempty" bson:"height,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty" bson:"emergency_contact,omitempty"`
	BloodType        string    `json:"blood_type,omitempty" bson:"blood_type,omitempty"`
	ChronicDiseases  []string  `json:"chronic_diseases,omitempty" bson:"chronic_diseases,omitempty"`
	Allergies        []string  `json:"allergies,omitempty" bson:"allergies,omitempty"`
	LastUpdated      time.Time `json:"last_updated" bson:"last_updated"`
	Expiry           time.Time `json:"expiry" bson:"expiry"`
}

// ProfileUpdate is the inbound upsert payload on the profile channel.
// LastUpdated orders competing updates; a stale one is rejected, not merged.
type ProfileUpdate struct {
	DriverID         string   `json:"driver_id" validate:"required"`
	Name             string   `json:"name"`
	Gender           string   `json:"gender,omitempty"`
	DateOfBirth      string   `json:"date_of_birth,omitempty"`
	WeightKG         float64  `json:"weight,omitempty"`
	HeightCM         float64  `json:"height,omitempty"`
	EmergencyContact string   `json:"emergency_contact,omitempty"`
	BloodType        string   `json:"blood_type,omitempty"`
	ChronicDiseases  []string `json:"chronic_diseases,omitempty"`
	Allergies        []string `json:"allergies,omitempty"`
	Timestamp        string   `json:"timestamp" validate:"required,iso8601"`
}
