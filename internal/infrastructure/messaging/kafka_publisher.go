package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fraudscope/fraudscope/internal/domain/port"
	"github.com/fraudscope/fraudscope/pkg/events"
	"github.com/fraudscope/fraudscope/pkg/kafka"
)

var (
	_ port.EventPublisher = (*KafkaPublisher)(nil)
	_ port.EventPublisher = (*LogPublisher)(nil)
)

// MessageProducer is satisfied by *kafka.Producer.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, messages ...kafka.Message) error
}

// KafkaPublisher implements port.EventPublisher using Kafka. Events are keyed
// by aggregate ID so every event of one prediction lands on one partition.
type KafkaPublisher struct {
	producer MessageProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher creates a new Kafka event publisher.
func NewKafkaPublisher(producer MessageProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends domain events to Kafka in a single batch.
func (p *KafkaPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		msg, err := encode(evt)
		if err != nil {
			return err
		}
		messages = append(messages, msg)
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish %d events: %w", len(messages), err)
	}

	p.logger.Debug("published events",
		slog.String("topic", p.topic),
		slog.Int("count", len(messages)),
	)
	return nil
}

func encode(evt events.DomainEvent) (kafka.Message, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event %s: %w", evt.EventType(), err)
	}

	return kafka.Message{
		Key:   []byte(evt.AggregateID().String()),
		Value: payload,
		Headers: map[string]string{
			"event_id":     evt.EventID().String(),
			"event_type":   evt.EventType(),
			"content-type": "application/json",
		},
	}, nil
}

// LogPublisher writes events to the log instead of a broker. It is used when
// no Kafka brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that only logs.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	for _, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", evt.EventType(), err)
		}

		p.logger.Info("publishing event",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID().String()),
			slog.Int("payload_size", len(payload)),
		)
		p.logger.Debug("event payload",
			slog.String("event_type", evt.EventType()),
			slog.String("payload", string(payload)),
		)
	}
	return nil
}
