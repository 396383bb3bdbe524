package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"sangha/sangha-common/domain"
	sangharedis "sangha/sangha-common/redis"
)

// StreamPublisher appends member events to a Redis stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) Publish(ctx context.Context, ev domain.MemberEvent) error {
	if _, err := sangharedis.PublishJSON(ctx, p.client, p.stream, ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.EventType, err)
	}
	return nil
}
