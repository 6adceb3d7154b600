package models

import (
	"fmt"
	"time"
)

// Kind classifies what condition an alert reports on
type Kind string

const (
	KindTemperature Kind = "temperature"
	KindHumidity    Kind = "humidity"
	KindSecurity    Kind = "security"
	KindBattery     Kind = "battery"
	KindOffline     Kind = "offline"
	KindSystem      Kind = "system"
)

// IsValid checks if the alert kind is a known member of the taxonomy
func (k Kind) IsValid() bool {
	switch k {
	case KindTemperature, KindHumidity, KindSecurity, KindBattery, KindOffline, KindSystem:
		return true
	default:
		return false
	}
}

// Severity is the ordinal classification of an alert
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid checks if the severity level is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Alert records a threshold breach or device condition with a lifecycle
// (active → acknowledged → resolved). Once Resolved is true the record is
// terminal and no field may change.
type Alert struct {
	// Unique identifier, generated at creation, never reused
	ID string `json:"id"`

	// Kind of condition this alert reports on
	Kind Kind `json:"kind"`

	// Severity classification
	Severity Severity `json:"severity"`

	// Short human-readable title
	Title string `json:"title"`

	// Description embedding device name, measured value and threshold
	Description string `json:"description"`

	// Device that produced the alert
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`

	// Creation time
	Timestamp time.Time `json:"timestamp"`

	// Lifecycle flags. Acknowledged and Resolved are independent.
	Acknowledged bool `json:"acknowledged"`
	Resolved     bool `json:"resolved"`

	// Measured value at creation, when applicable
	Value *float64 `json:"value,omitempty"`

	// Threshold that fired, when applicable
	Threshold *float64 `json:"threshold,omitempty"`
}

// Open reports whether the alert is still open (unresolved), regardless
// of acknowledgment.
func (a *Alert) Open() bool {
	return !a.Resolved
}

// AlertID builds the deterministic composite identifier for a new alert:
// kind tag, device id and creation time at nanosecond resolution.
func AlertID(tag, deviceID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", tag, deviceID, at.UnixNano())
}

// Float returns a pointer to v, for the optional Value/Threshold fields.
func Float(v float64) *float64 { return &v }
