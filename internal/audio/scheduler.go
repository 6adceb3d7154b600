// Package audio turns fresh alerts into tone sequences, playing each alert
// exactly once while it remains open. Playback is fire-and-forget: tones
// already scheduled are never cancelled, not even when audio is disabled
// mid-sequence.
package audio

import (
	"sync"
	"time"

	"sensorwatch/internal/logger"
	"sensorwatch/internal/metrics"
	"sensorwatch/internal/models"
)

// Sink receives individual tone emissions. A sink that fails degrades
// silently; alerts are still recorded and visible.
type Sink interface {
	Play(tone Tone, volume float64) error
}

// LogSink logs tones at debug level. The default when no audio backend is
// attached — the dashboard renders actual audio client-side.
type LogSink struct{}

func (LogSink) Play(tone Tone, volume float64) error {
	log := logger.WithComponent("audio")
	log.Debug().
		Float64("frequency", tone.Frequency).
		Dur("duration", tone.Duration).
		Str("waveform", string(tone.Waveform)).
		Float64("volume", volume).
		Msg("tone")
	return nil
}

// Config holds scheduler configuration.
type Config struct {
	Sink            Sink
	Enabled         bool
	Volume          float64
	FreshnessWindow time.Duration
}

// Scheduler consumes alert snapshots and schedules audio cues, deduplicated
// by alert id through the played-set.
type Scheduler struct {
	mu        sync.Mutex
	sink      Sink
	enabled   bool
	volume    float64
	freshness time.Duration
	played    map[string]struct{}

	now   func() time.Time
	after func(d time.Duration, f func()) // injectable for deterministic tests
}

// NewScheduler creates a scheduler from cfg.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Sink == nil {
		cfg.Sink = LogSink{}
	}
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = 5 * time.Second
	}

	return &Scheduler{
		sink:      cfg.Sink,
		enabled:   cfg.Enabled,
		volume:    clampVolume(cfg.Volume),
		freshness: cfg.FreshnessWindow,
		played:    make(map[string]struct{}),
		now:       time.Now,
		after:     func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// OnSnapshot scans the current alert sequence, plays cues for fresh
// unacknowledged alerts not yet played, and garbage-collects the played-set
// against resolved alerts. Invoked after every store mutation.
func (s *Scheduler) OnSnapshot(alerts []models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enabled {
		now := s.now()
		for _, a := range alerts {
			if a.Resolved || a.Acknowledged {
				continue
			}
			if _, done := s.played[a.ID]; done {
				continue
			}
			if now.Sub(a.Timestamp) > s.freshness {
				continue
			}

			// Mark at initiation so a second pass within the freshness
			// window cannot double-trigger.
			s.played[a.ID] = struct{}{}
			s.playLocked(CueFor(a), a.ID)
		}
	}

	// Resolved ids are never reused, so dropping them from the played-set
	// only bounds memory; it cannot re-enable playback.
	open := make(map[string]struct{}, len(alerts))
	for _, a := range alerts {
		if a.Open() {
			open[a.ID] = struct{}{}
		}
	}
	for id := range s.played {
		if _, ok := open[id]; !ok {
			delete(s.played, id)
		}
	}
}

// Test plays the named cue immediately, bypassing dedup.
func (s *Scheduler) Test(cue Cue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	if !cue.IsValid() {
		cue = CueNeutral
	}
	s.playLocked(cue, "")
}

// playLocked schedules the tone sequence of cue as independent delayed
// emissions. Volume is captured at initiation.
func (s *Scheduler) playLocked(cue Cue, alertID string) {
	volume := s.volume
	log := logger.WithComponent("audio")
	log.Info().Str("cue", string(cue)).Str("alert_id", alertID).Msg("scheduling cue")
	metrics.TonesScheduledTotal.WithLabelValues(string(cue)).Inc()

	for _, step := range Sequence(cue) {
		tone := step.Tone
		s.after(step.Delay, func() {
			if err := s.sink.Play(tone, volume); err != nil {
				// Audio subsystem unavailable: no retry, no propagation.
				log.Debug().Err(err).Msg("tone playback failed")
			}
		})
	}
}

// SetEnabled toggles audio globally. Disabling only prevents new playback
// from being scheduled.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Enabled reports the global audio flag.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetVolume sets playback volume, clamped to [0, 1].
func (s *Scheduler) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clampVolume(v)
}

// Volume reports the current playback volume.
func (s *Scheduler) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
