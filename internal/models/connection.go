package models

import (
	"time"
)

type SubscriberRole string

const (
	RoleAmbulanceUnit   SubscriberRole = "ambulance-unit"
	RoleEmergencyCenter SubscriberRole = "emergency-center"
	RoleUnspecified     SubscriberRole = "unspecified"
)

// ConnectionEntry describes one live dashboard subscription. The entry is
// owned by the connection registry; Failures counts consecutive transient
// delivery failures and resets on the first success.
type ConnectionEntry struct {
	ConnectionID  string         `json:"connection_id"`
	Role          SubscriberRole `json:"subscriber_role"`
	EstablishedAt time.Time      `json:"established_at"`
	Expiry        time.Time      `json:"expiry"`
	Failures      int            `json:"-"`
}

func ParseSubscriberRole(s string) SubscriberRole {
	switch SubscriberRole(s) {
	case RoleAmbulanceUnit, RoleEmergencyCenter:
		return SubscriberRole(s)
	default:
		return RoleUnspecified
	}
}
