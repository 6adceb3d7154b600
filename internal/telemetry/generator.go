package telemetry

import (
	"math"
	"math/rand"
	"time"

	"sensorwatch/internal/models"
)

// Physical bounds of the simulated fleet
const (
	minTemperature = 10.0
	maxTemperature = 35.0
	minHumidity    = 20.0
	maxHumidity    = 80.0
	minSignal      = 70.0
	maxSignal      = 100.0

	// Probability of losing one percent of battery per tick
	batteryDrainChance = 0.01
)

// Generator produces one updated reading per sensor per tick. A real
// ingestion adapter satisfies the same interface; the simulator below
// stands in for it.
type Generator interface {
	Advance(readings []models.SensorReading, now time.Time) []models.SensorReading
}

// Simulator applies independent bounded random-walk perturbations to each
// sensor reading. The random source is injected so tests can assert exact
// post-perturbation values.
type Simulator struct {
	rng *rand.Rand
}

// NewSimulator creates a simulator seeded with the given value.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Advance returns a new reading set derived from readings. Offline sensors
// are carried over unchanged; a sensor that is not reporting cannot drift.
func (s *Simulator) Advance(readings []models.SensorReading, now time.Time) []models.SensorReading {
	out := make([]models.SensorReading, len(readings))
	for i, r := range readings {
		if !r.Online {
			out[i] = r
			continue
		}

		temp := clamp(r.Temperature+s.uniform(1.0), minTemperature, maxTemperature)
		humidity := clamp(r.Humidity+s.uniform(3.0), minHumidity, maxHumidity)

		battery := r.Battery
		if s.rng.Float64() < batteryDrainChance && battery > 0 {
			battery--
		}

		r.Temperature = math.Round(temp*10) / 10
		r.Humidity = math.Round(humidity)
		r.Battery = battery
		r.Signal = clamp(r.Signal+s.uniform(5.0), minSignal, maxSignal)
		r.LastSeen = now
		out[i] = r
	}
	return out
}

// uniform returns a value in (-span, +span)
func (s *Simulator) uniform(span float64) float64 {
	return (s.rng.Float64() - 0.5) * 2 * span
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
