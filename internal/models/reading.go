package models

import "time"

// SensorReading is the latest telemetry for one environmental sensor.
// Sensor fields are mutated only by the telemetry generator; Online and
// LastSeen may additionally change through an explicit connectivity toggle.
// Readings are never destroyed; the fleet is fixed at engine start.
type SensorReading struct {
	// Stable string identity
	ID string `json:"id"`

	// Display name and physical location
	Name     string `json:"name"`
	Location string `json:"location"`

	// Temperature in °C
	Temperature float64 `json:"temperature"`

	// Relative humidity in percent
	Humidity float64 `json:"humidity"`

	// Battery charge, 0–100
	Battery int `json:"battery"`

	// Signal strength, 0–100
	Signal float64 `json:"signal"`

	// Time of the last received reading
	LastSeen time.Time `json:"last_seen"`

	// Connectivity state
	Online bool `json:"online"`
}
