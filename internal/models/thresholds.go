package models

import "errors"

// Threshold validation errors
var (
	ErrHighOrder    = errors.New("high warning threshold must be below high critical")
	ErrLowOrder     = errors.New("low warning threshold must be above low critical")
	ErrBandInverted = errors.New("low warning threshold must be below high warning")
)

// ThresholdConfig holds the temperature classification thresholds (°C) and
// the alert enable switches. It is replaced wholesale on update and takes
// effect starting from the next evaluation tick; already-created alerts are
// never reclassified.
type ThresholdConfig struct {
	HighWarning  float64 `json:"high_warning" yaml:"high_warning"`
	HighCritical float64 `json:"high_critical" yaml:"high_critical"`
	LowWarning   float64 `json:"low_warning" yaml:"low_warning"`
	LowCritical  float64 `json:"low_critical" yaml:"low_critical"`

	EnableHighAlerts bool `json:"enable_high_alerts" yaml:"enable_high_alerts"`
	EnableLowAlerts  bool `json:"enable_low_alerts" yaml:"enable_low_alerts"`

	// EnableCriticalAlerts gates whether critical-severity alerts may be
	// created at all; when false a would-be-critical case is downgraded to
	// the non-critical severity of the rule that produced it.
	EnableCriticalAlerts bool `json:"enable_critical_alerts" yaml:"enable_critical_alerts"`
}

// DefaultThresholds returns the stock classification thresholds.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		HighWarning:          25,
		HighCritical:         27,
		LowWarning:           18,
		LowCritical:          15,
		EnableHighAlerts:     true,
		EnableLowAlerts:      true,
		EnableCriticalAlerts: true,
	}
}

// Validate checks threshold ordering. Misordered thresholds would classify
// inconsistently, so they are rejected at the update boundary rather than
// propagated into evaluation.
func (t ThresholdConfig) Validate() error {
	if t.HighWarning >= t.HighCritical {
		return ErrHighOrder
	}
	if t.LowWarning <= t.LowCritical {
		return ErrLowOrder
	}
	if t.LowWarning >= t.HighWarning {
		return ErrBandInverted
	}
	return nil
}
