package evaluate

import (
	"testing"
	"time"

	"sensorwatch/internal/models"
)

func testThresholds() models.ThresholdConfig {
	return models.ThresholdConfig{
		HighWarning:          25,
		HighCritical:         27,
		LowWarning:           18,
		LowCritical:          15,
		EnableHighAlerts:     true,
		EnableLowAlerts:      true,
		EnableCriticalAlerts: true,
	}
}

func sensor(id string, temp float64, battery int) models.SensorReading {
	return models.SensorReading{
		ID:          id,
		Name:        "Sensor " + id,
		Temperature: temp,
		Humidity:    50,
		Battery:     battery,
		Signal:      90,
		Online:      true,
	}
}

func TestTemperatureClassification(t *testing.T) {
	cases := []struct {
		name     string
		temp     float64
		severity models.Severity
	}{
		{"above critical", 27.5, models.SeverityCritical},
		{"above warning", 26, models.SeverityHigh},
		{"below warning", 16, models.SeverityMedium},
		{"below critical", 14, models.SeverityCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			readings := []models.SensorReading{sensor("s1", tc.temp, 80)}
			alerts := Evaluate(readings, nil, testThresholds(), false, nil, time.Now())

			if len(alerts) != 1 {
				t.Fatalf("expected 1 alert, got %d", len(alerts))
			}
			a := alerts[0]
			if a.Kind != models.KindTemperature {
				t.Errorf("kind: got %q, want temperature", a.Kind)
			}
			if a.Severity != tc.severity {
				t.Errorf("severity: got %q, want %q", a.Severity, tc.severity)
			}
			if a.Value == nil || *a.Value != tc.temp {
				t.Errorf("value: got %v, want %v", a.Value, tc.temp)
			}
		})
	}
}

func TestTemperatureThresholdField(t *testing.T) {
	readings := []models.SensorReading{sensor("s1", 26, 80)}
	alerts := Evaluate(readings, nil, testThresholds(), false, nil, time.Now())

	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Threshold == nil || *alerts[0].Threshold != 25 {
		t.Errorf("threshold: got %v, want 25", alerts[0].Threshold)
	}
}

func TestNormalTemperatureNoAlert(t *testing.T) {
	readings := []models.SensorReading{sensor("s1", 22, 80)}
	alerts := Evaluate(readings, nil, testThresholds(), false, nil, time.Now())
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts))
	}
}

func TestBatterySeverity(t *testing.T) {
	cases := []struct {
		battery  int
		want     int
		severity models.Severity
	}{
		{15, 1, models.SeverityMedium},
		{8, 1, models.SeverityHigh},
		{25, 0, ""},
	}

	for _, tc := range cases {
		readings := []models.SensorReading{sensor("s1", 22, tc.battery)}
		alerts := Evaluate(readings, nil, testThresholds(), false, nil, time.Now())

		if len(alerts) != tc.want {
			t.Fatalf("battery=%d: expected %d alerts, got %d", tc.battery, tc.want, len(alerts))
		}
		if tc.want == 1 {
			if alerts[0].Kind != models.KindBattery {
				t.Errorf("battery=%d: kind got %q", tc.battery, alerts[0].Kind)
			}
			if alerts[0].Severity != tc.severity {
				t.Errorf("battery=%d: severity got %q, want %q", tc.battery, alerts[0].Severity, tc.severity)
			}
		}
	}
}

func TestOpenAlertSuppressesNewTemperature(t *testing.T) {
	now := time.Now()
	open := []models.Alert{{
		ID:       "temp_high_s1_1",
		Kind:     models.KindTemperature,
		DeviceID: "s1",
	}}

	readings := []models.SensorReading{sensor("s1", 30, 80)}
	alerts := Evaluate(readings, nil, testThresholds(), false, open, now)
	if len(alerts) != 0 {
		t.Fatalf("expected suppression, got %d alerts", len(alerts))
	}

	// After the prior alert resolves, the next qualifying tick produces
	// exactly one new alert.
	open[0].Resolved = true
	alerts = Evaluate(readings, nil, testThresholds(), false, open, now)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert after resolve, got %d", len(alerts))
	}
}

func TestTemperatureGuardSharedAcrossDirections(t *testing.T) {
	// An open high-temperature alert also suppresses low-temperature
	// evaluation for the same device; the guard is keyed by kind only.
	open := []models.Alert{{
		ID:       "temp_high_s1_1",
		Kind:     models.KindTemperature,
		DeviceID: "s1",
	}}

	readings := []models.SensorReading{sensor("s1", 12, 80)}
	alerts := Evaluate(readings, nil, testThresholds(), false, open, time.Now())
	if len(alerts) != 0 {
		t.Fatalf("expected shared-guard suppression, got %d alerts", len(alerts))
	}
}

func TestTemperatureAndBatterySameTick(t *testing.T) {
	readings := []models.SensorReading{sensor("s1", 30, 12)}
	alerts := Evaluate(readings, nil, testThresholds(), false, nil, time.Now())

	if len(alerts) != 2 {
		t.Fatalf("expected 2 independent alerts, got %d", len(alerts))
	}
	kinds := map[models.Kind]bool{}
	for _, a := range alerts {
		kinds[a.Kind] = true
	}
	if !kinds[models.KindTemperature] || !kinds[models.KindBattery] {
		t.Errorf("expected temperature and battery kinds, got %v", kinds)
	}
}

func TestCriticalGatingDowngrades(t *testing.T) {
	cfg := testThresholds()
	cfg.EnableCriticalAlerts = false

	readings := []models.SensorReading{sensor("s1", 30, 80)}
	alerts := Evaluate(readings, nil, cfg, false, nil, time.Now())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != models.SeverityHigh {
		t.Errorf("high side: severity got %q, want high", alerts[0].Severity)
	}

	readings = []models.SensorReading{sensor("s2", 12, 80)}
	alerts = Evaluate(readings, nil, cfg, false, nil, time.Now())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != models.SeverityMedium {
		t.Errorf("low side: severity got %q, want medium", alerts[0].Severity)
	}
}

func TestDirectionSwitchesDisabled(t *testing.T) {
	cfg := testThresholds()
	cfg.EnableHighAlerts = false
	readings := []models.SensorReading{sensor("s1", 30, 80)}
	if alerts := Evaluate(readings, nil, cfg, false, nil, time.Now()); len(alerts) != 0 {
		t.Errorf("high disabled: expected no alerts, got %d", len(alerts))
	}

	cfg = testThresholds()
	cfg.EnableLowAlerts = false
	readings = []models.SensorReading{sensor("s1", 12, 80)}
	if alerts := Evaluate(readings, nil, cfg, false, nil, time.Now()); len(alerts) != 0 {
		t.Errorf("low disabled: expected no alerts, got %d", len(alerts))
	}
}

func TestOfflineAlert(t *testing.T) {
	s := sensor("s1", 22, 80)
	s.Online = false

	alerts := Evaluate([]models.SensorReading{s}, nil, testThresholds(), false, nil, time.Now())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Kind != models.KindOffline {
		t.Errorf("kind: got %q, want offline", alerts[0].Kind)
	}
	if alerts[0].Severity != models.SeverityMedium {
		t.Errorf("severity: got %q, want medium", alerts[0].Severity)
	}

	// Guarded like any other kind.
	open := alerts
	alerts = Evaluate([]models.SensorReading{s}, nil, testThresholds(), false, open, time.Now())
	if len(alerts) != 0 {
		t.Fatalf("expected offline suppression, got %d alerts", len(alerts))
	}
}

func TestSecurityTamper(t *testing.T) {
	d := models.SecurityDevice{
		ID: "door_001", Name: "Front Door", Type: models.DeviceDoor,
		Zone: "Entry", Status: models.StatusArmed, Online: true, Tampered: true,
	}

	alerts := Evaluate(nil, []models.SecurityDevice{d}, testThresholds(), false, nil, time.Now())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Kind != models.KindSecurity {
		t.Errorf("kind: got %q, want security", alerts[0].Kind)
	}
	if alerts[0].Severity != models.SeverityCritical {
		t.Errorf("severity: got %q, want critical", alerts[0].Severity)
	}
}

func TestSecurityTriggerRequiresArmedSystem(t *testing.T) {
	d := models.SecurityDevice{
		ID: "motion_001", Name: "Hallway Motion", Type: models.DeviceMotion,
		Zone: "Hallway", Status: models.StatusTriggered, Online: true,
	}

	alerts := Evaluate(nil, []models.SecurityDevice{d}, testThresholds(), false, nil, time.Now())
	if len(alerts) != 0 {
		t.Fatalf("disarmed system: expected no alerts, got %d", len(alerts))
	}

	alerts = Evaluate(nil, []models.SecurityDevice{d}, testThresholds(), true, nil, time.Now())
	if len(alerts) != 1 {
		t.Fatalf("armed system: expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != models.SeverityHigh {
		t.Errorf("severity: got %q, want high", alerts[0].Severity)
	}
}

func TestAlertIDsUniquePerTick(t *testing.T) {
	now := time.Now()
	readings := []models.SensorReading{
		sensor("s1", 30, 80),
		sensor("s2", 30, 80),
	}
	alerts := Evaluate(readings, nil, testThresholds(), false, nil, now)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].ID == alerts[1].ID {
		t.Errorf("alert IDs collide: %q", alerts[0].ID)
	}
}
