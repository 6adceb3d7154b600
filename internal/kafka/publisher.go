package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"sensorwatch/internal/config"
	"sensorwatch/internal/logger"
	"sensorwatch/internal/metrics"
	"sensorwatch/internal/models"
)

// Publisher errors
var (
	ErrPublisherClosed = errors.New("publisher is closed")
	ErrSerializeFailed = errors.New("failed to serialize event")
)

// Publisher writes alert lifecycle events to Kafka with connection pooling,
// retry, and batching.
type Publisher struct {
	cfg     config.ProducerConfig
	topic   string
	writers []*kafka.Writer
	pool    chan *kafka.Writer
	closed  atomic.Bool

	// Metrics
	messagesSent   atomic.Uint64
	messagesFailed atomic.Uint64
	bytesWritten   atomic.Uint64
}

// NewPublisher creates a Kafka publisher for alert events.
func NewPublisher(brokers []string, topic string, cfg config.ProducerConfig) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}

	if topic == "" {
		return nil, errors.New("topic is required")
	}

	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 2
	}

	p := &Publisher{
		cfg:     cfg,
		topic:   topic,
		writers: make([]*kafka.Writer, cfg.PoolSize),
		pool:    make(chan *kafka.Writer, cfg.PoolSize),
	}

	compression := getCompression(cfg.Compression)

	for i := 0; i < cfg.PoolSize; i++ {
		writer := &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // Partition by key
			BatchSize:    cfg.BatchSize,
			BatchTimeout: cfg.BatchTimeout,
			WriteTimeout: cfg.WriteTimeout,
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  compression,
			MaxAttempts:  cfg.MaxRetries + 1,
			Async:        false, // Sync for reliability
		}
		p.writers[i] = writer
		p.pool <- writer
	}

	return p, nil
}

// getCompression returns the kafka compression codec
func getCompression(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Gzip
	case "snappy":
		return compress.Snappy
	case "lz4":
		return compress.Lz4
	case "zstd":
		return compress.Zstd
	default:
		return compress.None
	}
}

// message converts an alert event to a Kafka message
func message(event *models.AlertEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("%w: %v", ErrSerializeFailed, err)
	}

	return kafka.Message{
		Key:   []byte(event.PartitionKey), // Partition by device
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "alert_id", Value: []byte(event.Alert.ID)},
			{Key: "device_id", Value: []byte(event.Alert.DeviceID)},
		},
		Time: event.EmittedAt,
	}, nil
}

// Publish sends one alert event to Kafka
func (p *Publisher) Publish(ctx context.Context, event *models.AlertEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	msg, err := message(event)
	if err != nil {
		p.messagesFailed.Add(1)
		return err
	}

	// Get writer from pool with timeout
	var writer *kafka.Writer
	select {
	case writer = <-p.pool:
		defer func() { p.pool <- writer }()
	case <-ctx.Done():
		p.messagesFailed.Add(1)
		return ctx.Err()
	}

	if err := p.publishWithRetry(ctx, writer, msg); err != nil {
		p.messagesFailed.Add(1)
		return err
	}

	p.messagesSent.Add(1)
	p.bytesWritten.Add(uint64(len(msg.Value)))
	return nil
}

// PublishBatch sends multiple alert events to Kafka in a single batch
func (p *Publisher) PublishBatch(ctx context.Context, events []*models.AlertEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	if len(events) == 0 {
		return nil
	}

	log := logger.WithComponent("kafka_publisher")
	start := time.Now()

	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := message(event)
		if err != nil {
			log.Error().
				Err(err).
				Str("alert_id", event.Alert.ID).
				Msg("failed to serialize event")
			p.messagesFailed.Add(1)
			metrics.KafkaPublishTotal.WithLabelValues("failed").Inc()
			continue
		}
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		return nil
	}

	// Get writer from pool
	var writer *kafka.Writer
	select {
	case writer = <-p.pool:
		defer func() { p.pool <- writer }()
	case <-ctx.Done():
		p.messagesFailed.Add(uint64(len(messages)))
		return ctx.Err()
	}

	err := p.publishBatchWithRetry(ctx, writer, messages)
	duration := time.Since(start)

	metrics.KafkaPublishDuration.Observe(duration.Seconds())

	if err != nil {
		log.Error().
			Err(err).
			Int("batch_size", len(messages)).
			Dur("duration", duration).
			Msg("failed to publish batch to kafka")
		p.messagesFailed.Add(uint64(len(messages)))
		metrics.KafkaPublishTotal.WithLabelValues("failed").Add(float64(len(messages)))
		return err
	}

	log.Debug().
		Int("batch_size", len(messages)).
		Dur("duration", duration).
		Msg("batch published to kafka")

	p.messagesSent.Add(uint64(len(messages)))
	metrics.KafkaPublishTotal.WithLabelValues("success").Add(float64(len(messages)))

	bytesTotal := uint64(0)
	for _, msg := range messages {
		bytesTotal += uint64(len(msg.Value))
	}
	p.bytesWritten.Add(bytesTotal)
	metrics.KafkaBytesWritten.Add(float64(bytesTotal))

	return nil
}

// publishWithRetry publishes a single message with exponential backoff retry
func (p *Publisher) publishWithRetry(ctx context.Context, writer *kafka.Writer, msg kafka.Message) error {
	log := logger.WithComponent("kafka_publisher")
	var lastErr error
	backoff := p.cfg.RetryBackoff

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying kafka publish")

			metrics.KafkaPublishRetries.Inc()

			select {
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Msg("kafka publish attempt failed")

		// Check for non-retryable errors
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	log.Error().
		Err(lastErr).
		Int("max_retries", p.cfg.MaxRetries+1).
		Msg("kafka publish failed after all retries")

	return fmt.Errorf("failed after %d attempts: %w", p.cfg.MaxRetries+1, lastErr)
}

// publishBatchWithRetry publishes a batch of messages with exponential backoff retry
func (p *Publisher) publishBatchWithRetry(ctx context.Context, writer *kafka.Writer, messages []kafka.Message) error {
	log := logger.WithComponent("kafka_publisher")
	var lastErr error
	backoff := p.cfg.RetryBackoff

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Int("attempt", attempt).
				Int("batch_size", len(messages)).
				Dur("backoff", backoff).
				Msg("retrying kafka batch publish")

			metrics.KafkaPublishRetries.Inc()

			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := writer.WriteMessages(ctx, messages...)
		if err == nil {
			return nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("batch_size", len(messages)).
			Msg("kafka batch publish attempt failed")

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	log.Error().
		Err(lastErr).
		Int("max_retries", p.cfg.MaxRetries+1).
		Int("batch_size", len(messages)).
		Msg("kafka batch publish failed after all retries")

	return fmt.Errorf("batch failed after %d attempts: %w", p.cfg.MaxRetries+1, lastErr)
}

// Close closes all writers in the pool
func (p *Publisher) Close() error {
	if p.closed.Swap(true) {
		return nil // Already closed
	}

	var errs []error
	for _, writer := range p.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing writers: %v", errs)
	}
	return nil
}

// Stats returns publisher statistics
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		MessagesSent:   p.messagesSent.Load(),
		MessagesFailed: p.messagesFailed.Load(),
		BytesWritten:   p.bytesWritten.Load(),
	}
}

// PublisherStats holds publisher metrics
type PublisherStats struct {
	MessagesSent   uint64
	MessagesFailed uint64
	BytesWritten   uint64
}

// HealthCheck verifies the publisher can reach its writers
func (p *Publisher) HealthCheck(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	var writer *kafka.Writer
	select {
	case writer = <-p.pool:
		defer func() { p.pool <- writer }()
	case <-ctx.Done():
		return ctx.Err()
	}

	_ = writer.Stats()
	return nil
}
