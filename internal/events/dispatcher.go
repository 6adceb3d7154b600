// Package events fans alert lifecycle events out to an external publisher.
// The dispatcher sits between the engine and the Kafka producer so that no
// failure or slowness in the notification path can block alert creation or
// lifecycle transitions.
package events

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"sensorwatch/internal/logger"
	"sensorwatch/internal/metrics"
	"sensorwatch/internal/models"
)

// Publisher defines the interface for publishing alert events
type Publisher interface {
	Publish(ctx context.Context, event *models.AlertEvent) error
	PublishBatch(ctx context.Context, events []*models.AlertEvent) error
}

// Dispatcher manages a pool of workers that consume alert events and
// publish them in batches.
type Dispatcher struct {
	publisher    Publisher
	eventChan    chan *models.AlertEvent
	workers      int
	batchSize    int
	batchTimeout time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// Metrics
	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// Config holds dispatcher configuration
type Config struct {
	Publisher    Publisher
	QueueSize    int
	Workers      int
	BatchSize    int
	BatchTimeout time.Duration
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 100 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	metrics.EventQueueCapacity.Set(float64(cfg.QueueSize))

	return &Dispatcher{
		publisher:    cfg.Publisher,
		eventChan:    make(chan *models.AlertEvent, cfg.QueueSize),
		workers:      cfg.Workers,
		batchSize:    cfg.BatchSize,
		batchTimeout: cfg.BatchTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Enqueue offers an event to the dispatch queue without blocking. A full
// queue drops the event; alert state has already been applied by then.
func (d *Dispatcher) Enqueue(event *models.AlertEvent) {
	select {
	case d.eventChan <- event:
		metrics.EventQueueSize.Set(float64(len(d.eventChan)))
	default:
		d.dropped.Add(1)
		metrics.EventsDroppedTotal.Inc()
		log := logger.WithComponent("dispatcher")
		log.Warn().
			Str("event_type", string(event.Type)).
			Str("alert_id", event.Alert.ID).
			Msg("event queue full, dropping event")
	}
}

// Start begins draining the event queue
func (d *Dispatcher) Start() {
	log := logger.WithComponent("dispatcher")
	log.Info().
		Int("workers", d.workers).
		Int("batch_size", d.batchSize).
		Dur("batch_timeout", d.batchTimeout).
		Msg("starting event dispatcher")

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop gracefully stops all workers, flushing buffered batches
func (d *Dispatcher) Stop() {
	log := logger.WithComponent("dispatcher")
	log.Info().Msg("stopping event dispatcher")
	d.cancel()
	d.wg.Wait()
	log.Info().Msg("event dispatcher stopped")
}

// worker processes events from the queue
func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	log := logger.WithComponent("dispatcher").With().Int("worker_id", id).Logger()

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			log.Error().
				Interface("panic", r).
				Bytes("stack", stack).
				Msg("dispatcher worker panic recovered")
			metrics.PanicsRecovered.WithLabelValues("dispatcher").Inc()
		}
	}()

	log.Info().Msg("worker started")
	defer log.Info().Msg("worker stopped")

	batch := make([]*models.AlertEvent, 0, d.batchSize)
	timer := time.NewTimer(d.batchTimeout)
	defer timer.Stop()

	for {
		select {
		case <-d.ctx.Done():
			// Flush remaining batch before exiting
			if len(batch) > 0 {
				d.publishBatch(batch)
			}
			return

		case event, ok := <-d.eventChan:
			if !ok {
				if len(batch) > 0 {
					d.publishBatch(batch)
				}
				return
			}

			batch = append(batch, event)
			metrics.EventQueueSize.Set(float64(len(d.eventChan)))

			if len(batch) >= d.batchSize {
				d.publishBatch(batch)
				batch = batch[:0]
				timer.Reset(d.batchTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				d.publishBatch(batch)
				batch = batch[:0]
			}
			timer.Reset(d.batchTimeout)
		}
	}
}

// publishBatch publishes a batch of alert events
func (d *Dispatcher) publishBatch(batch []*models.AlertEvent) {
	if len(batch) == 0 {
		return
	}

	log := logger.WithComponent("dispatcher")
	start := time.Now()

	ctx, cancel := context.WithTimeout(d.ctx, 10*time.Second)
	defer cancel()

	err := d.publisher.PublishBatch(ctx, batch)
	duration := time.Since(start)

	metrics.DispatcherBatchPublishDuration.Observe(duration.Seconds())

	if err != nil {
		log.Error().
			Err(err).
			Int("batch_size", len(batch)).
			Dur("duration", duration).
			Msg("failed to publish event batch")

		d.failed.Add(uint64(len(batch)))
		metrics.DispatcherFailedTotal.Add(float64(len(batch)))

		// Fallback: try publishing individually
		d.publishIndividually(batch)
	} else {
		log.Debug().
			Int("batch_size", len(batch)).
			Dur("duration", duration).
			Msg("event batch published")

		d.published.Add(uint64(len(batch)))
		metrics.DispatcherPublishedTotal.Add(float64(len(batch)))
	}
}

// publishIndividually tries to publish each event separately (fallback)
func (d *Dispatcher) publishIndividually(batch []*models.AlertEvent) {
	log := logger.WithComponent("dispatcher")
	log.Warn().Int("count", len(batch)).Msg("attempting individual publish for failed batch")

	for _, event := range batch {
		ctx, cancel := context.WithTimeout(d.ctx, 5*time.Second)
		err := d.publisher.Publish(ctx, event)
		cancel()

		if err != nil {
			log.Error().
				Err(err).
				Str("event_type", string(event.Type)).
				Str("alert_id", event.Alert.ID).
				Msg("failed to publish event individually")
		} else {
			log.Debug().
				Str("alert_id", event.Alert.ID).
				Msg("event published individually")

			// Don't count twice - subtract from failed, add to published
			d.failed.Add(^uint64(0)) // Subtract 1
			d.published.Add(1)
		}
	}
}

// Stats returns dispatcher statistics
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Published: d.published.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

// Stats holds dispatcher metrics
type Stats struct {
	Published uint64
	Failed    uint64
	Dropped   uint64
}
