package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Publisher публикует события регистратора из outbox в Kafka topic.
type Publisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewPublisher создаёт Kafka-паблишер для outbox.
func NewPublisher(producer *Producer, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: producer, topic: topic, now: time.Now}
}

// Publish реализует domain.OutboxPublisher.
func (p *Publisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka publisher is not initialized")
	}

	value, err := domain.NewEnvelope(event, p.now()).Marshal()
	if err != nil {
		return err
	}

	return p.producer.Send(ctx, p.topic, PartitionKey, value, map[string]string{
		HeaderEventID:   event.ID,
		HeaderEventType: string(event.EventType),
	})
}

// Close закрывает producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}

var _ domain.OutboxPublisher = (*Publisher)(nil)
