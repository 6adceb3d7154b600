package audio

import (
	"time"

	"sensorwatch/internal/models"
)

// Waveform selects the oscillator shape of a tone
type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Triangle Waveform = "triangle"
)

// Tone is one synthesized tone emission.
type Tone struct {
	Frequency float64
	Duration  time.Duration
	Waveform  Waveform
}

// Step is one tone of a cue sequence, offset from playback initiation.
type Step struct {
	Delay time.Duration
	Tone  Tone
}

// Cue names a tone sequence
type Cue string

const (
	CueHighTemp Cue = "high_temp"
	CueLowTemp  Cue = "low_temp"
	CueCritical Cue = "critical"
	CueSecurity Cue = "security"
	CueGentle   Cue = "gentle"
	CueNeutral  Cue = "neutral"
)

// IsValid checks if the cue name is known
func (c Cue) IsValid() bool {
	switch c {
	case CueHighTemp, CueLowTemp, CueCritical, CueSecurity, CueGentle, CueNeutral:
		return true
	default:
		return false
	}
}

// Sequence returns the tone steps of a cue. The mapping is closed over the
// cue set; unknown cues fall back to the neutral tone.
func Sequence(cue Cue) []Step {
	switch cue {
	case CueHighTemp:
		// 3 sharp high-pitched beeps
		steps := make([]Step, 3)
		for i := range steps {
			steps[i] = Step{
				Delay: time.Duration(i) * 400 * time.Millisecond,
				Tone:  Tone{Frequency: 1000, Duration: 300 * time.Millisecond, Waveform: Square},
			}
		}
		return steps

	case CueLowTemp:
		// 2 soft low-pitched tones
		steps := make([]Step, 2)
		for i := range steps {
			steps[i] = Step{
				Delay: time.Duration(i) * 600 * time.Millisecond,
				Tone:  Tone{Frequency: 400, Duration: 500 * time.Millisecond, Waveform: Triangle},
			}
		}
		return steps

	case CueCritical:
		// continuous alternating-pitch alarm
		steps := make([]Step, 6)
		for i := range steps {
			freq := 800.0
			if i%2 == 1 {
				freq = 1200
			}
			steps[i] = Step{
				Delay: time.Duration(i) * 250 * time.Millisecond,
				Tone:  Tone{Frequency: freq, Duration: 200 * time.Millisecond, Waveform: Square},
			}
		}
		return steps

	case CueSecurity:
		// rising siren
		steps := make([]Step, 4)
		for i := range steps {
			steps[i] = Step{
				Delay: time.Duration(i) * 300 * time.Millisecond,
				Tone:  Tone{Frequency: 600 + float64(i)*100, Duration: 400 * time.Millisecond, Waveform: Sine},
			}
		}
		return steps

	case CueGentle:
		return []Step{{Tone: Tone{Frequency: 500, Duration: 800 * time.Millisecond, Waveform: Sine}}}

	default:
		return []Step{{Tone: Tone{Frequency: 600, Duration: 500 * time.Millisecond, Waveform: Triangle}}}
	}
}

// CueFor maps an alert onto its audio cue.
func CueFor(a models.Alert) Cue {
	switch a.Kind {
	case models.KindTemperature:
		if a.Severity == models.SeverityCritical {
			return CueCritical
		}
		if a.Value != nil && a.Threshold != nil && *a.Value <= *a.Threshold {
			return CueLowTemp
		}
		// High temperature, or direction unknown
		return CueHighTemp
	case models.KindSecurity:
		return CueSecurity
	case models.KindBattery, models.KindOffline:
		return CueGentle
	default:
		return CueNeutral
	}
}
