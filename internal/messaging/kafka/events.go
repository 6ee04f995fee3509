package kafka

import (
	"fmt"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// DefaultTopic задаёт topic событий регистратора.
const DefaultTopic = "checkout.register.events"

// PartitionKey: все события одного регистратора идут в одну партицию,
// чтобы потребители видели их в порядке записи.
const PartitionKey = "register"

// Заголовки сообщений.
const (
	HeaderEventID   = "x-event-id"
	HeaderEventType = "x-event-type"
)

// ParseEnvelope разбирает событие регистратора из сообщения Kafka.
func ParseEnvelope(message *sarama.ConsumerMessage) (domain.EventEnvelope, error) {
	env, err := domain.ParseEnvelope(message.Value)
	if err != nil {
		return domain.EventEnvelope{}, fmt.Errorf("offset %d: %w", message.Offset, err)
	}
	return env, nil
}

func headerValue(headers []*sarama.RecordHeader, key string) string {
	for _, h := range headers {
		if h != nil && string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}
