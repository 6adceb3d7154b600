package models

import "time"

// DeviceType identifies what a security device senses
type DeviceType string

const (
	DeviceDoor   DeviceType = "door"
	DeviceWindow DeviceType = "window"
	DeviceMotion DeviceType = "motion"
	DeviceGlass  DeviceType = "glass"
	DeviceSmoke  DeviceType = "smoke"
)

// IsValid checks if the device type is known
func (d DeviceType) IsValid() bool {
	switch d {
	case DeviceDoor, DeviceWindow, DeviceMotion, DeviceGlass, DeviceSmoke:
		return true
	default:
		return false
	}
}

// DeviceStatus is the arming state of a security device
type DeviceStatus string

const (
	StatusArmed     DeviceStatus = "armed"
	StatusDisarmed  DeviceStatus = "disarmed"
	StatusTriggered DeviceStatus = "triggered"
	StatusBypassed  DeviceStatus = "bypassed"
)

// IsValid checks if the device status is known
func (s DeviceStatus) IsValid() bool {
	switch s {
	case StatusArmed, StatusDisarmed, StatusTriggered, StatusBypassed:
		return true
	default:
		return false
	}
}

// SecurityDevice is one device of the security fleet (door/window contact,
// motion sensor, glass-break sensor, smoke detector).
type SecurityDevice struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     DeviceType   `json:"type"`
	Zone     string       `json:"zone"`
	Status   DeviceStatus `json:"status"`
	Battery  int          `json:"battery"`
	Signal   float64      `json:"signal"`
	LastSeen time.Time    `json:"last_seen"`
	Online   bool         `json:"online"`
	Tampered bool         `json:"tampered"`
}
