package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sensorwatch/internal/models"
)

// Config holds runtime configuration for the monitoring engine and its
// service surface.
type Config struct {
	// Log level: trace, debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	Engine EngineConfig `yaml:"engine"`
	Audio  AudioConfig  `yaml:"audio"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	HTTP   HTTPConfig   `yaml:"http"`

	// Initial temperature thresholds
	Thresholds models.ThresholdConfig `yaml:"thresholds"`
}

// EngineConfig controls the evaluation tick loop.
type EngineConfig struct {
	// Period of the generator/evaluator/store tick
	TickInterval time.Duration `yaml:"tick_interval"`
}

// AudioConfig controls the notification scheduler.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`

	// How long after creation an alert is still considered fresh enough
	// to play a cue for
	FreshnessWindow time.Duration `yaml:"freshness_window"`
}

// KafkaConfig controls the optional alert event stream.
type KafkaConfig struct {
	// When false no producer is created and events are discarded
	Enabled  bool           `yaml:"enabled"`
	Brokers  []string       `yaml:"brokers"`
	Topic    string         `yaml:"topic"`
	Producer ProducerConfig `yaml:"producer"`
}

// ProducerConfig holds Kafka producer tuning.
type ProducerConfig struct {
	PoolSize     int           `yaml:"pool_size"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	RequiredAcks int           `yaml:"required_acks"`
	Compression  string        `yaml:"compression"` // gzip, snappy, lz4, zstd
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// HTTPConfig controls the HTTP/WebSocket surface.
type HTTPConfig struct {
	Addr string `yaml:"addr"`

	// Interval between WebSocket snapshot broadcasts
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// Default returns a sensible default config for local dev.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Engine: EngineConfig{
			TickInterval: 2 * time.Second,
		},
		Audio: AudioConfig{
			Enabled:         true,
			Volume:          0.7,
			FreshnessWindow: 5 * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "sensorwatch.alerts",
			Producer: ProducerConfig{
				PoolSize:     2,
				BatchSize:    100,
				BatchTimeout: 100 * time.Millisecond,
				WriteTimeout: 10 * time.Second,
				RequiredAcks: 1,
				Compression:  "snappy",
				MaxRetries:   3,
				RetryBackoff: 250 * time.Millisecond,
			},
		},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			BroadcastInterval: 2 * time.Second,
		},
		Thresholds: models.DefaultThresholds(),
	}
}

// Load reads a YAML config file, applying defaults for any omitted field.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("engine.tick_interval must be positive, got %s", c.Engine.TickInterval)
	}
	if c.Audio.FreshnessWindow <= 0 {
		return fmt.Errorf("audio.freshness_window must be positive, got %s", c.Audio.FreshnessWindow)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.enabled requires at least one broker")
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	return nil
}
