package engine

import (
	"sync"
	"testing"
	"time"

	"sensorwatch/internal/audio"
	"sensorwatch/internal/models"
	"sensorwatch/internal/store"
)

// scriptedGen replays a fixed temperature trace on the first sensor.
type scriptedGen struct {
	temps []float64
	i     int
}

func (g *scriptedGen) Advance(readings []models.SensorReading, now time.Time) []models.SensorReading {
	out := make([]models.SensorReading, len(readings))
	copy(out, readings)
	for j := range out {
		out[j].LastSeen = now
	}
	if len(out) > 0 && g.i < len(g.temps) {
		out[0].Temperature = g.temps[g.i]
		g.i++
	}
	return out
}

// clock is a manually advanced time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Now()} }

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type eventLog struct {
	mu     sync.Mutex
	events []models.AlertEvent
}

func (l *eventLog) record(e *models.AlertEvent) {
	l.mu.Lock()
	l.events = append(l.events, *e)
	l.mu.Unlock()
}

func (l *eventLog) types() []models.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

func testSensor() models.SensorReading {
	return models.SensorReading{
		ID:          "temp_001",
		Name:        "Living Room",
		Location:    "Living Room",
		Temperature: 22.5,
		Humidity:    45,
		Battery:     87,
		Signal:      95,
		Online:      true,
	}
}

func testEngine(t *testing.T, gen *scriptedGen, clk *clock, log *eventLog) *Engine {
	t.Helper()

	st := store.New([]models.SensorReading{testSensor()}, nil)
	sched := audio.NewScheduler(audio.Config{Enabled: true, Volume: 0.7, FreshnessWindow: time.Minute})

	events := func(*models.AlertEvent) {}
	if log != nil {
		events = log.record
	}

	e := New(Config{
		Store:      st,
		Generator:  gen,
		Scheduler:  sched,
		Thresholds: models.DefaultThresholds(),
		Events:     events,
		Node:       "test",
	})
	e.now = clk.now
	return e
}

func TestAlertLifecycle(t *testing.T) {
	clk := newClock()
	log := &eventLog{}
	gen := &scriptedGen{temps: []float64{22.5, 26.0, 26.0, 26.0, 26.0, 26.0}}
	e := testEngine(t, gen, clk, log)

	// Nominal reading: nothing fires.
	e.Tick()
	if n := len(e.Snapshot().Alerts); n != 0 {
		t.Fatalf("nominal tick: got %d alerts, want 0", n)
	}

	// Crossing the high-warning threshold creates exactly one alert.
	clk.advance(2 * time.Second)
	e.Tick()
	alerts := e.Snapshot().Alerts
	if len(alerts) != 1 {
		t.Fatalf("threshold crossing: got %d alerts, want 1", len(alerts))
	}
	a := alerts[0]
	if a.Kind != models.KindTemperature || a.Severity != models.SeverityHigh {
		t.Errorf("got %s/%s, want temperature/high", a.Kind, a.Severity)
	}
	if a.Value == nil || *a.Value != 26.0 {
		t.Errorf("value: got %v, want 26.0", a.Value)
	}
	if a.Threshold == nil || *a.Threshold != 25.0 {
		t.Errorf("threshold: got %v, want 25.0", a.Threshold)
	}

	// Still above threshold: the open alert suppresses a duplicate.
	clk.advance(2 * time.Second)
	e.Tick()
	if n := len(e.Snapshot().Alerts); n != 1 {
		t.Fatalf("sustained breach: got %d alerts, want 1", n)
	}

	// Acknowledging keeps the alert open and still suppresses re-creation.
	if !e.Acknowledge(a.ID) {
		t.Fatal("acknowledge should succeed")
	}
	clk.advance(2 * time.Second)
	e.Tick()
	alerts = e.Snapshot().Alerts
	if len(alerts) != 1 || !alerts[0].Acknowledged {
		t.Fatalf("post-ack: got %d alerts, acked=%v", len(alerts), alerts[0].Acknowledged)
	}

	// Resolving lifts the suppression: the sustained breach re-fires as a
	// new alert under a new id.
	if !e.Resolve(a.ID) {
		t.Fatal("resolve should succeed")
	}
	clk.advance(2 * time.Second)
	e.Tick()
	alerts = e.Snapshot().Alerts
	if len(alerts) != 2 {
		t.Fatalf("post-resolve breach: got %d alerts, want 2", len(alerts))
	}
	if alerts[1].ID == a.ID {
		t.Error("re-fired alert must carry a fresh id")
	}
	if !alerts[0].Resolved || alerts[1].Resolved {
		t.Error("first alert resolved, second open")
	}

	// Acknowledging the resolved alert is rejected.
	if e.Acknowledge(a.ID) {
		t.Error("acknowledge after resolve should fail")
	}

	want := []models.EventType{
		models.EventCreated,
		models.EventAcknowledged,
		models.EventResolved,
		models.EventCreated,
	}
	got := log.types()
	if len(got) != len(want) {
		t.Fatalf("event stream: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event stream: got %v, want %v", got, want)
		}
	}
}

func TestSustainedBreachCreatesOneAlert(t *testing.T) {
	clk := newClock()
	temps := make([]float64, 50)
	for i := range temps {
		temps[i] = 28.5
	}
	gen := &scriptedGen{temps: temps}
	e := testEngine(t, gen, clk, nil)

	for i := 0; i < 50; i++ {
		e.Tick()
		clk.advance(2 * time.Second)
	}

	if n := len(e.Snapshot().Alerts); n != 1 {
		t.Errorf("50 breaching ticks: got %d alerts, want 1", n)
	}
}

func TestUnknownAlertCommands(t *testing.T) {
	clk := newClock()
	e := testEngine(t, &scriptedGen{}, clk, nil)

	if e.Acknowledge("nope") {
		t.Error("acknowledge of unknown id should fail")
	}
	if e.Resolve("nope") {
		t.Error("resolve of unknown id should fail")
	}
}

func TestUpdateThresholds(t *testing.T) {
	clk := newClock()
	gen := &scriptedGen{temps: []float64{26.0, 26.0}}
	e := testEngine(t, gen, clk, nil)

	bad := models.DefaultThresholds()
	bad.HighWarning = 30
	bad.HighCritical = 28
	if err := e.UpdateThresholds(bad); err == nil {
		t.Fatal("inverted high band should be rejected")
	}
	if e.Thresholds().HighWarning != 25 {
		t.Fatal("rejected update must not change the active config")
	}

	// Raising the warning threshold above the trace keeps the tick quiet.
	raised := models.DefaultThresholds()
	raised.HighWarning = 27
	raised.HighCritical = 29
	if err := e.UpdateThresholds(raised); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}

	e.Tick()
	if n := len(e.Snapshot().Alerts); n != 0 {
		t.Errorf("26.0 under raised threshold: got %d alerts, want 0", n)
	}
}

func TestSecurityCommands(t *testing.T) {
	clk := newClock()
	st := store.New(nil, []models.SecurityDevice{{
		ID:     "door_001",
		Name:   "Front Door",
		Type:   models.DeviceDoor,
		Status: models.StatusArmed,
		Zone:   "Entry",
		Online: true,
	}})
	log := &eventLog{}
	e := New(Config{
		Store:      st,
		Generator:  &scriptedGen{},
		Thresholds: models.DefaultThresholds(),
		Events:     log.record,
		Node:       "test",
	})
	e.now = clk.now

	e.SetSystemArmed(true)
	if !e.SetSecurityStatus("door_001", models.StatusTriggered) {
		t.Fatal("status update should succeed")
	}
	if e.SetSecurityStatus("door_001", models.DeviceStatus("bogus")) {
		t.Error("invalid status should be rejected")
	}

	e.Tick()
	alerts := e.Snapshot().Alerts
	if len(alerts) != 1 {
		t.Fatalf("triggered device while armed: got %d alerts, want 1", len(alerts))
	}
	if alerts[0].Kind != models.KindSecurity || alerts[0].Severity != models.SeverityHigh {
		t.Errorf("got %s/%s, want security/high", alerts[0].Kind, alerts[0].Severity)
	}

	// The open alert guards the (device, kind) pair; resolving it lets the
	// tamper condition fire.
	if !e.Resolve(alerts[0].ID) {
		t.Fatal("resolve should succeed")
	}
	if !e.SetTampered("door_001", true) {
		t.Fatal("tamper update should succeed")
	}
	clk.advance(2 * time.Second)
	e.Tick()
	alerts = e.Snapshot().Alerts
	if len(alerts) != 2 {
		t.Fatalf("tampered device: got %d alerts, want 2", len(alerts))
	}
	if alerts[1].Severity != models.SeverityCritical {
		t.Errorf("tamper severity: got %s, want critical", alerts[1].Severity)
	}
}

// commandingGen toggles a sensor offline through the store while the tick
// is advancing its copy of the readings, like an API call landing mid-tick.
type commandingGen struct {
	store *store.Store
	now   time.Time
}

func (g *commandingGen) Advance(readings []models.SensorReading, now time.Time) []models.SensorReading {
	out := make([]models.SensorReading, len(readings))
	copy(out, readings)
	for i := range out {
		out[i].Temperature += 0.5
		out[i].LastSeen = now
	}
	g.store.SetDeviceOnline("temp_001", false, g.now)
	return out
}

func TestTickDoesNotRevertConcurrentCommand(t *testing.T) {
	clk := newClock()
	st := store.New([]models.SensorReading{testSensor()}, nil)
	e := New(Config{
		Store:      st,
		Generator:  &commandingGen{store: st, now: clk.now()},
		Thresholds: models.DefaultThresholds(),
	})
	e.now = clk.now

	e.Tick()

	snap := e.Snapshot()
	if snap.Sensors[0].Online {
		t.Error("connectivity command issued mid-tick was reverted")
	}
}

func TestConnectivityCommand(t *testing.T) {
	clk := newClock()
	e := testEngine(t, &scriptedGen{}, clk, nil)

	if !e.SetDeviceOnline("temp_001", false) {
		t.Fatal("known sensor should toggle")
	}
	if e.SetDeviceOnline("ghost", false) {
		t.Error("unknown device should not toggle")
	}

	e.Tick()
	alerts := e.Snapshot().Alerts
	if len(alerts) != 1 || alerts[0].Kind != models.KindOffline {
		t.Fatalf("offline sensor: got %+v, want one offline alert", alerts)
	}

	// Bringing it back updates LastSeen so the generator resumes it.
	if !e.SetDeviceOnline("temp_001", true) {
		t.Fatal("toggle back should succeed")
	}
	snap := e.Snapshot()
	if !snap.Sensors[0].Online {
		t.Error("sensor should be online again")
	}
}

func TestSnapshotCarriesAudioState(t *testing.T) {
	clk := newClock()
	e := testEngine(t, &scriptedGen{}, clk, nil)

	e.SetVolume(0.3)
	snap := e.Snapshot()
	if !snap.AudioEnabled || snap.Volume != 0.3 {
		t.Errorf("audio state: enabled=%v volume=%v", snap.AudioEnabled, snap.Volume)
	}

	e.SetAudioEnabled(false)
	if e.Snapshot().AudioEnabled {
		t.Error("audio should report disabled")
	}
}
