package models

import (
	"time"
)

// EventType names an alert lifecycle transition
type EventType string

const (
	EventCreated      EventType = "created"
	EventAcknowledged EventType = "acknowledged"
	EventResolved     EventType = "resolved"
)

// AlertEvent wraps an alert lifecycle transition for the outbound event
// stream (Kafka). Consumers see each transition exactly as the store
// applied it.
type AlertEvent struct {
	// Transition type
	Type EventType `json:"type"`

	// Alert state at the moment of the transition
	Alert Alert `json:"alert"`

	// Internal processing metadata
	EmittedAt    time.Time `json:"emitted_at"`
	Node         string    `json:"node"`
	PartitionKey string    `json:"partition_key"`
}

// NewAlertEvent creates an event for the given transition of alert.
func NewAlertEvent(typ EventType, alert Alert, node string) *AlertEvent {
	return &AlertEvent{
		Type:         typ,
		Alert:        alert,
		EmittedAt:    time.Now().UTC(),
		Node:         node,
		PartitionKey: alert.DeviceID, // partition by device for ordering
	}
}
