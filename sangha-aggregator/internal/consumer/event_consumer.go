package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"sangha/sangha-aggregator/internal/aggregator"
	"sangha/sangha-common/domain"
	sangharedis "sangha/sangha-common/redis"
	"sangha/sangha-common/stats"
)

const defaultBlock = 5 * time.Second

// Refresher recomputes the dashboard.
type Refresher interface {
	Refresh(ctx context.Context) (*stats.Dashboard, error)
	LastVersion() (domain.Version, bool)
}

// EventConsumer reads member events from a Redis stream consumer group and
// refreshes the dashboard once per batch that changes the member store.
type EventConsumer struct {
	redisClient  *redis.Client
	refresher    Refresher
	logger       *zap.Logger
	stream       string
	groupName    string
	consumerName string
	batchSize    int64
	block        time.Duration
}

// NewEventConsumer creates an event consumer.
func NewEventConsumer(
	redisClient *redis.Client,
	refresher Refresher,
	logger *zap.Logger,
	stream string,
	groupName string,
	consumerName string,
	batchSize int64,
) *EventConsumer {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &EventConsumer{
		redisClient:  redisClient,
		refresher:    refresher,
		logger:       logger,
		stream:       stream,
		groupName:    groupName,
		consumerName: consumerName,
		batchSize:    batchSize,
		block:        defaultBlock,
	}
}

// Start consumes until ctx is done, backing off exponentially on errors.
func (c *EventConsumer) Start(ctx context.Context) error {
	if err := sangharedis.EnsureGroup(ctx, c.redisClient, c.stream, c.groupName); err != nil {
		return err
	}

	c.logger.Info("Event consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := c.consumeEvents(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume events",
				zap.Error(err),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}
		backoff = time.Second
	}
}

// consumeEvents handles one batch. Messages that parse are acked once the
// refresh they require has succeeded; unparseable ones stay pending.
func (c *EventConsumer) consumeEvents(ctx context.Context) error {
	messages, err := sangharedis.ReadGroup(ctx, c.redisClient, c.stream, c.groupName, c.consumerName, c.batchSize, c.block)
	if err != nil {
		return fmt.Errorf("read from stream: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	var (
		ack         []string
		needRefresh bool
	)
	for _, msg := range messages {
		event, err := parseEvent(msg)
		if err != nil {
			c.logger.Error("Failed to parse event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		if c.requiresRefresh(event) {
			needRefresh = true
		}
		ack = append(ack, msg.ID)
	}

	if needRefresh {
		if _, err := c.refresher.Refresh(ctx); err != nil &&
			!errors.Is(err, aggregator.ErrSuperseded) && !errors.Is(err, aggregator.ErrStale) {
			return fmt.Errorf("refresh dashboard: %w", err)
		}
	}

	if err := sangharedis.Ack(ctx, c.redisClient, c.stream, c.groupName, ack...); err != nil {
		c.logger.Warn("Failed to ack messages",
			zap.Strings("message_ids", ack),
			zap.Error(err),
		)
	}
	return nil
}

func (c *EventConsumer) requiresRefresh(event *domain.MemberEvent) bool {
	switch event.EventType {
	case domain.EventMemberCreated, domain.EventMemberUpdated, domain.EventMemberDeleted:
	default:
		c.logger.Warn("Unknown event type", zap.String("event_type", event.EventType))
		return false
	}

	c.logger.Debug("Processing member event",
		zap.String("event_type", event.EventType),
		zap.String("member_id", event.MemberID),
		zap.String("epoch", event.Epoch),
		zap.Uint64("revision", event.Revision),
	)

	// Events from another store epoch always refresh.
	if last, ok := c.refresher.LastVersion(); ok && event.Revision != 0 && last.Covers(event.Version()) {
		return false
	}
	return true
}

// parseEvent reads the JSON "data" field, falling back to flat stream fields.
func parseEvent(msg sangharedis.StreamMessage) (*domain.MemberEvent, error) {
	if data, ok := msg.Values["data"].(string); ok {
		var event domain.MemberEvent
		if err := json.Unmarshal([]byte(data), &event); err == nil && event.EventType != "" {
			return &event, nil
		}
	}

	event := &domain.MemberEvent{}
	if v, ok := msg.Values["eventType"].(string); ok {
		event.EventType = v
	}
	if v, ok := msg.Values["memberId"].(string); ok {
		event.MemberID = v
	}
	if v, ok := msg.Values["epoch"].(string); ok {
		event.Epoch = v
	}
	if v, ok := msg.Values["revision"].(string); ok {
		event.Revision, _ = strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	}
	if event.EventType == "" {
		return nil, fmt.Errorf("invalid event: missing eventType")
	}
	return event, nil
}
