// Package engine coordinates the generator → evaluator → store tick and
// exposes the command/query surface consumed by the presentation layer.
// All state lives in the store, the threshold config and the scheduler; the
// engine itself only sequences them.
package engine

import (
	"context"
	"sync"
	"time"

	"sensorwatch/internal/audio"
	"sensorwatch/internal/evaluate"
	"sensorwatch/internal/logger"
	"sensorwatch/internal/metrics"
	"sensorwatch/internal/models"
	"sensorwatch/internal/store"
	"sensorwatch/internal/telemetry"
)

// EventFunc receives alert lifecycle events. It must not block; the
// dispatcher behind it drops on overflow.
type EventFunc func(*models.AlertEvent)

// Config holds engine wiring.
type Config struct {
	Store        *store.Store
	Generator    telemetry.Generator
	Scheduler    *audio.Scheduler
	Thresholds   models.ThresholdConfig
	TickInterval time.Duration
	Events       EventFunc
	Node         string
}

// Engine drives periodic evaluation and serializes external commands
// against the in-flight tick.
type Engine struct {
	store     *store.Store
	gen       telemetry.Generator
	scheduler *audio.Scheduler
	events    EventFunc
	node      string

	// tickMu makes ticks mutually exclusive: one tick completes fully
	// before the next begins.
	tickMu       sync.Mutex
	tickInterval time.Duration

	cfgMu      sync.RWMutex
	thresholds models.ThresholdConfig

	now func() time.Time
}

// New constructs an Engine from cfg.
func New(cfg Config) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 2 * time.Second
	}
	if cfg.Events == nil {
		cfg.Events = func(*models.AlertEvent) {}
	}

	return &Engine{
		store:        cfg.Store,
		gen:          cfg.Generator,
		scheduler:    cfg.Scheduler,
		events:       cfg.Events,
		node:         cfg.Node,
		tickInterval: cfg.TickInterval,
		thresholds:   cfg.Thresholds,
		now:          time.Now,
	}
}

// Run drives the tick loop until ctx is cancelled. The loop is the only
// writer that adds new readings or alerts.
func (e *Engine) Run(ctx context.Context) {
	log := logger.WithComponent("engine")
	log.Info().Dur("tick_interval", e.tickInterval).Msg("engine started")

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("engine stopped")
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick runs one generator → evaluator → store pass synchronously. Exposed
// so tests and callers can drive evaluation without waiting on timers.
func (e *Engine) Tick() {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	start := time.Now()
	now := e.now()

	readings := e.gen.Advance(e.store.Readings(), now)
	devices := e.store.Devices()
	open := e.store.OpenAlerts()

	newAlerts := evaluate.Evaluate(readings, devices, e.Thresholds(), e.store.SystemArmed(), open, now)
	e.store.ApplyTick(readings, newAlerts)

	log := logger.WithComponent("engine")
	for _, a := range newAlerts {
		log.Info().
			Str("alert_id", a.ID).
			Str("kind", string(a.Kind)).
			Str("severity", string(a.Severity)).
			Str("device_id", a.DeviceID).
			Msg("alert created")
		e.events(models.NewAlertEvent(models.EventCreated, a, e.node))
	}

	metrics.TicksTotal.Inc()
	metrics.TickDuration.Observe(time.Since(start).Seconds())

	e.notify()
}

// notify hands the post-mutation alert sequence to the scheduler. A nil
// scheduler means audio is absent entirely; alert state is unaffected.
func (e *Engine) notify() {
	if e.scheduler == nil {
		return
	}
	e.scheduler.OnSnapshot(e.store.Snapshot().Alerts)
}

// Acknowledge marks an alert acknowledged. Unknown or resolved ids are a
// no-op and report false.
func (e *Engine) Acknowledge(id string) bool {
	alert, ok := e.store.Acknowledge(id)
	if ok {
		e.events(models.NewAlertEvent(models.EventAcknowledged, alert, e.node))
		e.notify()
	}
	return ok
}

// Resolve marks an alert resolved (terminal). Unknown ids are a no-op and
// report false.
func (e *Engine) Resolve(id string) bool {
	alert, ok := e.store.Resolve(id)
	if ok {
		e.events(models.NewAlertEvent(models.EventResolved, alert, e.node))
		e.notify()
	}
	return ok
}

// UpdateThresholds replaces the threshold config wholesale. Validation
// happens here, at the boundary; the evaluator itself never validates.
// The new config takes effect from the next tick only.
func (e *Engine) UpdateThresholds(cfg models.ThresholdConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.cfgMu.Lock()
	e.thresholds = cfg
	e.cfgMu.Unlock()

	log := logger.WithComponent("engine")
	log.Info().
		Float64("high_warning", cfg.HighWarning).
		Float64("high_critical", cfg.HighCritical).
		Float64("low_warning", cfg.LowWarning).
		Float64("low_critical", cfg.LowCritical).
		Msg("thresholds updated")
	return nil
}

// Thresholds returns the current threshold config.
func (e *Engine) Thresholds() models.ThresholdConfig {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.thresholds
}

// SetDeviceOnline toggles connectivity of a sensor or security device,
// bypassing the generator.
func (e *Engine) SetDeviceOnline(id string, online bool) bool {
	ok := e.store.SetDeviceOnline(id, online, e.now())
	if ok {
		e.notify()
	}
	return ok
}

// SetSecurityStatus sets the arming state of one security device.
func (e *Engine) SetSecurityStatus(id string, status models.DeviceStatus) bool {
	if !status.IsValid() {
		return false
	}
	return e.store.SetSecurityStatus(id, status)
}

// SetTampered sets the tamper flag of one security device.
func (e *Engine) SetTampered(id string, tampered bool) bool {
	return e.store.SetTampered(id, tampered)
}

// SetSystemArmed sets the global arming flag.
func (e *Engine) SetSystemArmed(armed bool) {
	e.store.SetSystemArmed(armed)
}

// SetAudioEnabled toggles the notification scheduler globally.
func (e *Engine) SetAudioEnabled(enabled bool) {
	if e.scheduler != nil {
		e.scheduler.SetEnabled(enabled)
	}
}

// SetVolume sets playback volume, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) {
	if e.scheduler != nil {
		e.scheduler.SetVolume(v)
	}
}

// TestSound plays the named cue immediately, bypassing dedup.
func (e *Engine) TestSound(cue audio.Cue) {
	if e.scheduler != nil {
		e.scheduler.Test(cue)
	}
}

// Snapshot is the full read-only view exposed to consumers.
type Snapshot struct {
	store.Snapshot
	Thresholds   models.ThresholdConfig `json:"thresholds"`
	AudioEnabled bool                   `json:"audio_enabled"`
	Volume       float64                `json:"volume"`
	LastUpdate   time.Time              `json:"last_update"`
}

// Snapshot returns the current engine state. Consumers must not mutate it;
// all changes flow through the commands above.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Snapshot:   e.store.Snapshot(),
		Thresholds: e.Thresholds(),
		LastUpdate: e.now(),
	}
	if e.scheduler != nil {
		snap.AudioEnabled = e.scheduler.Enabled()
		snap.Volume = e.scheduler.Volume()
	}
	return snap
}
