package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"sangha/sangha-aggregator/internal/aggregator"
	"sangha/sangha-aggregator/internal/config"
	"sangha/sangha-aggregator/internal/consumer"
	"sangha/sangha-aggregator/internal/publisher"
	"sangha/sangha-aggregator/internal/source"
	"sangha/sangha-common/mqtt"
	sangharedis "sangha/sangha-common/redis"
)

type eventRunner interface {
	Start(ctx context.Context) error
}

// AggregatorService keeps the cached dashboard current.
type AggregatorService struct {
	config        *config.Config
	logger        *zap.Logger
	redisClient   *redis.Client
	mqttClient    *mqtt.Client
	refresher     consumer.Refresher
	eventConsumer eventRunner
}

// NewAggregatorService connects to Redis (and MQTT when enabled) and wires the
// refresh pipeline.
func NewAggregatorService(cfg *config.Config, logger *zap.Logger) (*AggregatorService, error) {
	redisClient := sangharedis.NewClient(&cfg.Redis)
	if err := sangharedis.Ping(context.Background(), redisClient); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	var (
		mqttClient *mqtt.Client
		pub        aggregator.Publisher
	)
	if cfg.MQTT.Enabled {
		c, err := mqtt.Connect(&cfg.MQTT)
		if err != nil {
			_ = redisClient.Close()
			return nil, err
		}
		mqttClient = c
		pub = publisher.NewSummaryPublisher(c, cfg.MQTT.Topic, cfg.MQTT.QoS, logger)
	}

	agg := cfg.Aggregator
	cache := aggregator.NewCacheManager(sangharedis.NewKVStore(redisClient), agg.DashboardKey, agg.DashboardTTL, logger)
	src := source.NewDataClient(agg.DataBaseURL, agg.RequestTimeout, logger)
	refresher := aggregator.NewRefresher(src, cache, pub, logger)

	var eventConsumer eventRunner
	if agg.TriggerMode == config.TriggerEvents {
		eventConsumer = consumer.NewEventConsumer(
			redisClient,
			refresher,
			logger,
			agg.EventStream,
			agg.ConsumerGroup,
			agg.ConsumerName,
			agg.BatchSize,
		)
	}

	s := newAggregatorService(cfg, logger, refresher, eventConsumer)
	s.redisClient = redisClient
	s.mqttClient = mqttClient
	return s, nil
}

func newAggregatorService(cfg *config.Config, logger *zap.Logger, refresher consumer.Refresher, events eventRunner) *AggregatorService {
	return &AggregatorService{
		config:        cfg,
		logger:        logger,
		refresher:     refresher,
		eventConsumer: events,
	}
}

// Start blocks until ctx is done or the trigger loop fails.
func (s *AggregatorService) Start(ctx context.Context) error {
	mode := s.config.Aggregator.TriggerMode
	s.logger.Info("Starting sangha aggregator service",
		zap.String("trigger_mode", mode),
		zap.Bool("mqtt_enabled", s.config.MQTT.Enabled),
	)

	switch mode {
	case config.TriggerPolling:
		return s.startPollingMode(ctx)
	case config.TriggerEvents:
		return s.startEventDrivenMode(ctx)
	default:
		return fmt.Errorf("unsupported trigger mode: %s", mode)
	}
}

func (s *AggregatorService) startPollingMode(ctx context.Context) error {
	s.logger.Info("Starting polling mode", zap.Duration("interval", s.config.Aggregator.PollInterval))
	s.refresh(ctx)
	s.poll(ctx)
	return nil
}

// startEventDrivenMode refreshes on member events. Polling keeps running as a
// safety net for events lost while the consumer was down.
func (s *AggregatorService) startEventDrivenMode(ctx context.Context) error {
	if s.eventConsumer == nil {
		return errors.New("event consumer not initialized")
	}
	s.logger.Info("Starting event-driven mode")

	s.refresh(ctx)
	go s.poll(ctx)
	return s.eventConsumer.Start(ctx)
}

func (s *AggregatorService) poll(ctx context.Context) {
	interval := s.config.Aggregator.PollInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *AggregatorService) refresh(ctx context.Context) {
	_, err := s.refresher.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, aggregator.ErrSuperseded), errors.Is(err, aggregator.ErrStale):
		s.logger.Debug("Refresh skipped", zap.Error(err))
	case ctx.Err() != nil:
	default:
		s.logger.Error("Failed to refresh dashboard", zap.Error(err))
	}
}

// Stop releases connections.
func (s *AggregatorService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping sangha aggregator service")

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if err := sangharedis.Close(s.redisClient); err != nil {
		s.logger.Error("Error closing redis connection", zap.Error(err))
	}

	s.logger.Info("Sangha aggregator service stopped")
	return nil
}
