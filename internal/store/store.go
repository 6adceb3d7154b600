// Package store owns the device and alert state and is its single source
// of truth. All mutations — tick appends and external lifecycle commands —
// are serialized under one lock so a snapshot never observes a partially
// applied batch.
package store

import (
	"sync"
	"time"

	"sensorwatch/internal/logger"
	"sensorwatch/internal/metrics"
	"sensorwatch/internal/models"
)

// Store holds the sensor fleet, the security fleet and the append-only
// alert sequence. Alerts are kept in creation order and never reordered,
// compacted or evicted.
type Store struct {
	mu          sync.RWMutex
	sensors     []models.SensorReading
	devices     []models.SecurityDevice
	alerts      []models.Alert
	systemArmed bool
}

// Snapshot is a consistent, caller-owned view of the store. Consumers must
// not treat it as live; all changes flow through store mutations.
type Snapshot struct {
	Sensors     []models.SensorReading `json:"sensors"`
	Devices     []models.SecurityDevice `json:"security_devices"`
	Alerts      []models.Alert         `json:"alerts"`
	SystemArmed bool                   `json:"system_armed"`
}

// New creates a store over the given fleets. The fleets are fixed for the
// store's lifetime; only field values change.
func New(sensors []models.SensorReading, devices []models.SecurityDevice) *Store {
	s := &Store{
		sensors: make([]models.SensorReading, len(sensors)),
		devices: make([]models.SecurityDevice, len(devices)),
	}
	copy(s.sensors, sensors)
	copy(s.devices, devices)
	return s
}

// Readings returns a copy of the current sensor readings.
func (s *Store) Readings() []models.SensorReading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SensorReading, len(s.sensors))
	copy(out, s.sensors)
	return out
}

// Devices returns a copy of the current security devices.
func (s *Store) Devices() []models.SecurityDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SecurityDevice, len(s.devices))
	copy(out, s.devices)
	return out
}

// OpenAlerts returns copies of all unresolved alerts in creation order.
func (s *Store) OpenAlerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Alert
	for _, a := range s.alerts {
		if a.Open() {
			out = append(out, a)
		}
	}
	return out
}

// Snapshot returns the full current view of the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Sensors:     make([]models.SensorReading, len(s.sensors)),
		Devices:     make([]models.SecurityDevice, len(s.devices)),
		Alerts:      make([]models.Alert, len(s.alerts)),
		SystemArmed: s.systemArmed,
	}
	copy(snap.Sensors, s.sensors)
	copy(snap.Devices, s.devices)
	copy(snap.Alerts, s.alerts)
	return snap
}

// ApplyTick merges the generator's readings into the fleet and appends the
// new alerts in one atomic step. Only generator-owned measurement fields are
// written back; a connectivity toggle that lands while the generator runs on
// its copy must not be reverted by the write-back. Existing alert entries
// are never mutated by a tick.
func (s *Store) ApplyTick(readings []models.SensorReading, newAlerts []models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]models.SensorReading, len(readings))
	for _, r := range readings {
		byID[r.ID] = r
	}
	for i := range s.sensors {
		r, ok := byID[s.sensors[i].ID]
		// Skip sensors that were offline on either side of the tick: an
		// offline sensor does not drift, and a sensor toggled online
		// mid-tick carries stale generator values.
		if !ok || !s.sensors[i].Online || !r.Online {
			continue
		}
		s.sensors[i].Temperature = r.Temperature
		s.sensors[i].Humidity = r.Humidity
		s.sensors[i].Battery = r.Battery
		s.sensors[i].Signal = r.Signal
		s.sensors[i].LastSeen = r.LastSeen
	}
	s.alerts = append(s.alerts, newAlerts...)

	for _, a := range newAlerts {
		metrics.AlertsCreatedTotal.WithLabelValues(string(a.Kind), string(a.Severity)).Inc()
	}
	metrics.OpenAlerts.Set(float64(s.openCountLocked()))
}

// Acknowledge sets acknowledged on the matching alert and returns a copy of
// the record after the transition. Resolved alerts are terminal and unknown
// ids are a no-op; both cases report false. Idempotent.
func (s *Store) Acknowledge(id string) (models.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID != id {
			continue
		}
		if s.alerts[i].Resolved {
			return models.Alert{}, false
		}
		if !s.alerts[i].Acknowledged {
			s.alerts[i].Acknowledged = true
			metrics.AlertsAcknowledgedTotal.Inc()
		}
		return s.alerts[i], true
	}

	log := logger.WithComponent("store")
	log.Debug().Str("alert_id", id).Msg("acknowledge for unknown alert id")
	return models.Alert{}, false
}

// Resolve marks the matching alert resolved and returns a copy of the record
// after the transition. Resolution is terminal and idempotent; unknown ids
// are a no-op.
func (s *Store) Resolve(id string) (models.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID != id {
			continue
		}
		if !s.alerts[i].Resolved {
			s.alerts[i].Resolved = true
			metrics.AlertsResolvedTotal.Inc()
			metrics.OpenAlerts.Set(float64(s.openCountLocked()))
		}
		return s.alerts[i], true
	}

	log := logger.WithComponent("store")
	log.Debug().Str("alert_id", id).Msg("resolve for unknown alert id")
	return models.Alert{}, false
}

// SetDeviceOnline flips the connectivity flag of a sensor or security
// device, bypassing the generator. Returns false for unknown ids.
func (s *Store) SetDeviceOnline(id string, online bool, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sensors {
		if s.sensors[i].ID == id {
			s.sensors[i].Online = online
			s.sensors[i].LastSeen = now
			log := logger.WithDevice(id)
			log.Info().Bool("online", online).Msg("connectivity toggled")
			return true
		}
	}
	for i := range s.devices {
		if s.devices[i].ID == id {
			s.devices[i].Online = online
			s.devices[i].LastSeen = now
			log := logger.WithDevice(id)
			log.Info().Bool("online", online).Msg("connectivity toggled")
			return true
		}
	}
	return false
}

// SetSecurityStatus sets the arming state of a security device.
func (s *Store) SetSecurityStatus(id string, status models.DeviceStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].ID == id {
			s.devices[i].Status = status
			return true
		}
	}
	return false
}

// SetTampered sets the tamper flag of a security device.
func (s *Store) SetTampered(id string, tampered bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].ID == id {
			s.devices[i].Tampered = tampered
			return true
		}
	}
	return false
}

// SetSystemArmed sets the global arming flag.
func (s *Store) SetSystemArmed(armed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemArmed = armed
}

// SystemArmed reports the global arming flag.
func (s *Store) SystemArmed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.systemArmed
}

// AlertCount returns the total number of alerts ever created.
func (s *Store) AlertCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

func (s *Store) openCountLocked() int {
	n := 0
	for _, a := range s.alerts {
		if a.Open() {
			n++
		}
	}
	return n
}
