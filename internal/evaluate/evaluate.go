// Package evaluate classifies sensor readings and security device states
// against the configured thresholds and emits new alerts. Evaluation is a
// pure function of its inputs; it holds no state and never fails.
package evaluate

import (
	"fmt"
	"time"

	"sensorwatch/internal/models"
)

// Battery thresholds are fixed, not user-configurable.
const (
	batteryWarnLevel     = 20
	batteryCriticalLevel = 10
)

// Evaluate inspects every sensor reading and security device and returns
// the alerts to append this tick. An alert is only emitted when no open
// alert of the same (device, kind) pair exists in open; the high and low
// temperature checks share a single kind-level guard, so a device carries
// at most one open temperature alert regardless of direction.
func Evaluate(readings []models.SensorReading, devices []models.SecurityDevice, cfg models.ThresholdConfig, systemArmed bool, open []models.Alert, now time.Time) []models.Alert {
	guard := openIndex(open)

	var out []models.Alert
	for _, s := range readings {
		if a := temperatureAlert(s, cfg, guard, now); a != nil {
			out = append(out, *a)
		}
		if a := batteryAlert(s, guard, now); a != nil {
			out = append(out, *a)
		}
		if !s.Online && !guard.has(s.ID, models.KindOffline) {
			out = append(out, offlineAlert(s.ID, s.Name, now))
		}
	}

	for _, d := range devices {
		if a := securityAlert(d, cfg, systemArmed, guard, now); a != nil {
			out = append(out, *a)
		}
		if !d.Online && !guard.has(d.ID, models.KindOffline) {
			out = append(out, offlineAlert(d.ID, d.Name, now))
		}
	}
	return out
}

// openSet indexes open alerts by (deviceID, kind)
type openSet map[string]struct{}

func openIndex(open []models.Alert) openSet {
	idx := make(openSet, len(open))
	for _, a := range open {
		if a.Open() {
			idx[a.DeviceID+"\x00"+string(a.Kind)] = struct{}{}
		}
	}
	return idx
}

func (s openSet) has(deviceID string, kind models.Kind) bool {
	_, ok := s[deviceID+"\x00"+string(kind)]
	return ok
}

func temperatureAlert(s models.SensorReading, cfg models.ThresholdConfig, guard openSet, now time.Time) *models.Alert {
	if guard.has(s.ID, models.KindTemperature) {
		return nil
	}

	switch {
	case cfg.EnableHighAlerts && s.Temperature >= cfg.HighWarning:
		severity := models.SeverityHigh
		title := "High Temperature"
		if s.Temperature >= cfg.HighCritical && cfg.EnableCriticalAlerts {
			severity = models.SeverityCritical
			title = "Critical Temperature"
		}
		return &models.Alert{
			ID:          models.AlertID("temp_high", s.ID, now),
			Kind:        models.KindTemperature,
			Severity:    severity,
			Title:       title,
			Description: fmt.Sprintf("%s temperature is %.1f°C (threshold: %g°C)", s.Name, s.Temperature, cfg.HighWarning),
			DeviceID:    s.ID,
			DeviceName:  s.Name,
			Timestamp:   now,
			Value:       models.Float(s.Temperature),
			Threshold:   models.Float(cfg.HighWarning),
		}

	case cfg.EnableLowAlerts && s.Temperature <= cfg.LowWarning:
		severity := models.SeverityMedium
		title := "Low Temperature"
		if s.Temperature <= cfg.LowCritical && cfg.EnableCriticalAlerts {
			severity = models.SeverityCritical
			title = "Critical Low Temperature"
		}
		return &models.Alert{
			ID:          models.AlertID("temp_low", s.ID, now),
			Kind:        models.KindTemperature,
			Severity:    severity,
			Title:       title,
			Description: fmt.Sprintf("%s temperature is %.1f°C (threshold: %g°C)", s.Name, s.Temperature, cfg.LowWarning),
			DeviceID:    s.ID,
			DeviceName:  s.Name,
			Timestamp:   now,
			Value:       models.Float(s.Temperature),
			Threshold:   models.Float(cfg.LowWarning),
		}
	}
	return nil
}

func batteryAlert(s models.SensorReading, guard openSet, now time.Time) *models.Alert {
	if s.Battery > batteryWarnLevel || guard.has(s.ID, models.KindBattery) {
		return nil
	}

	severity := models.SeverityMedium
	if s.Battery <= batteryCriticalLevel {
		severity = models.SeverityHigh
	}
	return &models.Alert{
		ID:          models.AlertID("battery", s.ID, now),
		Kind:        models.KindBattery,
		Severity:    severity,
		Title:       "Low Battery",
		Description: fmt.Sprintf("%s battery is at %d%%", s.Name, s.Battery),
		DeviceID:    s.ID,
		DeviceName:  s.Name,
		Timestamp:   now,
		Value:       models.Float(float64(s.Battery)),
	}
}

func securityAlert(d models.SecurityDevice, cfg models.ThresholdConfig, systemArmed bool, guard openSet, now time.Time) *models.Alert {
	if guard.has(d.ID, models.KindSecurity) {
		return nil
	}

	switch {
	case d.Tampered:
		severity := models.SeverityCritical
		if !cfg.EnableCriticalAlerts {
			severity = models.SeverityHigh
		}
		return &models.Alert{
			ID:          models.AlertID("security", d.ID, now),
			Kind:        models.KindSecurity,
			Severity:    severity,
			Title:       "Tamper Detected",
			Description: fmt.Sprintf("%s in zone %s reports tampering", d.Name, d.Zone),
			DeviceID:    d.ID,
			DeviceName:  d.Name,
			Timestamp:   now,
		}

	case systemArmed && d.Status == models.StatusTriggered:
		return &models.Alert{
			ID:          models.AlertID("security", d.ID, now),
			Kind:        models.KindSecurity,
			Severity:    models.SeverityHigh,
			Title:       "Sensor Triggered",
			Description: fmt.Sprintf("%s in zone %s was triggered", d.Name, d.Zone),
			DeviceID:    d.ID,
			DeviceName:  d.Name,
			Timestamp:   now,
		}
	}
	return nil
}

func offlineAlert(deviceID, name string, now time.Time) models.Alert {
	return models.Alert{
		ID:          models.AlertID("offline", deviceID, now),
		Kind:        models.KindOffline,
		Severity:    models.SeverityMedium,
		Title:       "Device Offline",
		Description: fmt.Sprintf("%s is offline", name),
		DeviceID:    deviceID,
		DeviceName:  name,
		Timestamp:   now,
	}
}
