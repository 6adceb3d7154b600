// Package service wires the engine, dispatcher, Kafka publisher and HTTP
// surface into one runnable unit.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sensorwatch/internal/api"
	"sensorwatch/internal/audio"
	"sensorwatch/internal/config"
	"sensorwatch/internal/engine"
	"sensorwatch/internal/events"
	"sensorwatch/internal/kafka"
	"sensorwatch/internal/logger"
	"sensorwatch/internal/middleware"
	"sensorwatch/internal/store"
	"sensorwatch/internal/telemetry"
	"sensorwatch/internal/ws"
)

// Service is the high-level coordinator for simulation, evaluation,
// notification and the HTTP surface.
type Service struct {
	cfg        *config.Config
	store      *store.Store
	engine     *engine.Engine
	scheduler  *audio.Scheduler
	dispatcher *events.Dispatcher
	publisher  *kafka.Publisher
	hub        *ws.Hub
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New constructs a Service with given config.
func New(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Run starts background goroutines and blocks until context cancelled.
func (s *Service) Run(ctx context.Context) error {
	log := logger.WithComponent("service")
	log.Info().Msg("service starting")

	now := time.Now()
	s.store = store.New(telemetry.DefaultFleet(now), telemetry.DefaultSecurityFleet(now))

	s.scheduler = audio.NewScheduler(audio.Config{
		Sink:            audio.LogSink{},
		Enabled:         s.cfg.Audio.Enabled,
		Volume:          s.cfg.Audio.Volume,
		FreshnessWindow: s.cfg.Audio.FreshnessWindow,
	})

	eventFn, err := s.initEventStream()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize event stream")
		return fmt.Errorf("failed to initialize event stream: %w", err)
	}
	if s.dispatcher != nil {
		s.dispatcher.Start()
	}
	if s.publisher != nil {
		defer s.publisher.Close()
	}

	node, _ := os.Hostname()
	s.engine = engine.New(engine.Config{
		Store:        s.store,
		Generator:    telemetry.NewSimulator(time.Now().UnixNano()),
		Scheduler:    s.scheduler,
		Thresholds:   s.cfg.Thresholds,
		TickInterval: s.cfg.Engine.TickInterval,
		Events:       eventFn,
		Node:         node,
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.engine.Run(ctx)
	}()

	s.hub = ws.New(s.engine, s.cfg.HTTP.BroadcastInterval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(ctx)
	}()

	s.initHTTPServer()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info().Str("addr", s.cfg.HTTP.Addr).Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Stats reporting goroutine
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.reportStats(ctx)
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return s.shutdown()
}

// initEventStream creates the Kafka publisher and dispatcher when the
// event stream is enabled. When disabled, events are discarded; the engine
// never depends on the notification path.
func (s *Service) initEventStream() (engine.EventFunc, error) {
	log := logger.WithComponent("service")

	if !s.cfg.Kafka.Enabled {
		log.Info().Msg("kafka event stream disabled")
		return nil, nil
	}

	publisher, err := kafka.NewPublisher(
		s.cfg.Kafka.Brokers,
		s.cfg.Kafka.Topic,
		s.cfg.Kafka.Producer,
	)
	if err != nil {
		return nil, err
	}
	s.publisher = publisher

	s.dispatcher = events.NewDispatcher(events.Config{
		Publisher:    publisher,
		Workers:      s.cfg.Kafka.Producer.PoolSize,
		BatchSize:    s.cfg.Kafka.Producer.BatchSize,
		BatchTimeout: s.cfg.Kafka.Producer.BatchTimeout,
	})

	log.Info().
		Strs("brokers", s.cfg.Kafka.Brokers).
		Str("topic", s.cfg.Kafka.Topic).
		Msg("kafka event stream initialized")

	return s.dispatcher.Enqueue, nil
}

// initHTTPServer initializes the HTTP server with handlers
func (s *Service) initHTTPServer() {
	mux := http.NewServeMux()

	apiHandler := api.New(s.engine)
	apiHandler.Register(mux)

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /ws", s.hub)

	s.httpServer = &http.Server{
		Addr: s.cfg.HTTP.Addr,
		Handler: middleware.Chain(
			mux,
			middleware.Recovery,
			middleware.Logging,
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// shutdown performs graceful shutdown
func (s *Service) shutdown() error {
	log := logger.WithComponent("service")
	log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("stopping HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if s.dispatcher != nil {
		done := make(chan struct{})
		go func() {
			s.dispatcher.Stop()
			close(done)
		}()

		select {
		case <-done:
			log.Info().Msg("dispatcher stopped gracefully")
		case <-time.After(15 * time.Second):
			log.Warn().Msg("dispatcher shutdown timeout - forcing exit")
		}
	}

	if s.publisher != nil {
		log.Info().Msg("closing kafka publisher")
		if err := s.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("publisher close error")
		}
	}

	s.wg.Wait()

	log.Info().Msg("service stopped gracefully")
	return nil
}

// reportStats periodically logs statistics
func (s *Service) reportStats(ctx context.Context) {
	log := logger.WithComponent("service")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.store.Snapshot()
			open := 0
			for _, a := range snap.Alerts {
				if a.Open() {
					open++
				}
			}

			ev := log.Info().
				Int("alerts_total", len(snap.Alerts)).
				Int("alerts_open", open).
				Int("ws_clients", s.hub.Count())

			if s.dispatcher != nil {
				ds := s.dispatcher.Stats()
				ev = ev.
					Uint64("events_published", ds.Published).
					Uint64("events_failed", ds.Failed).
					Uint64("events_dropped", ds.Dropped)
			}
			ev.Msg("stats")
		}
	}
}

// healthHandler handles health check requests
func (s *Service) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.publisher != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.publisher.HealthCheck(ctx); err != nil {
			http.Error(w, fmt.Sprintf("unhealthy: %v", err), http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// statsHandler returns current statistics
func (s *Service) statsHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	open := 0
	for _, a := range snap.Alerts {
		if a.Open() {
			open++
		}
	}

	stats := map[string]any{
		"alerts": map[string]any{
			"total": len(snap.Alerts),
			"open":  open,
		},
		"sensors":          len(snap.Sensors),
		"security_devices": len(snap.Devices),
		"ws_clients":       s.hub.Count(),
	}

	if s.dispatcher != nil {
		ds := s.dispatcher.Stats()
		stats["events"] = map[string]any{
			"published": ds.Published,
			"failed":    ds.Failed,
			"dropped":   ds.Dropped,
		}
	}
	if s.publisher != nil {
		ps := s.publisher.Stats()
		stats["kafka"] = map[string]any{
			"messages_sent":   ps.MessagesSent,
			"messages_failed": ps.MessagesFailed,
			"bytes_written":   ps.BytesWritten,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}
