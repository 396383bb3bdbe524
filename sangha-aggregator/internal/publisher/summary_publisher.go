package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"sangha/sangha-common/stats"
)

// MessageClient is the MQTT client surface the publisher needs.
type MessageClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// SummaryPublisher broadcasts dashboards as retained MQTT messages, so a
// subscriber that connects later still receives the latest one.
type SummaryPublisher struct {
	client MessageClient
	topic  string
	qos    byte
	logger *zap.Logger
}

func NewSummaryPublisher(client MessageClient, topic string, qos byte, logger *zap.Logger) *SummaryPublisher {
	return &SummaryPublisher{
		client: client,
		topic:  topic,
		qos:    qos,
		logger: logger,
	}
}

// Publish sends d as JSON to the configured topic.
func (p *SummaryPublisher) Publish(ctx context.Context, d stats.Dashboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal dashboard: %w", err)
	}
	if err := p.client.Publish(p.topic, p.qos, true, payload); err != nil {
		return err
	}

	p.logger.Debug("Published dashboard",
		zap.String("topic", p.topic),
		zap.Uint64("revision", d.Revision),
		zap.Int("payload_bytes", len(payload)),
	)
	return nil
}
