package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventEnvelope задаёт формат события регистратора в брокере.
type EventEnvelope struct {
	ID          string          `json:"id"`
	EventType   EventType       `json:"event_type"`
	OccurredAt  time.Time       `json:"occurred_at"`
	PublishedAt time.Time       `json:"published_at"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEnvelope упаковывает сообщение outbox для публикации.
func NewEnvelope(msg OutboxMessage, publishedAt time.Time) EventEnvelope {
	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	return EventEnvelope{
		ID:          msg.ID,
		EventType:   msg.EventType,
		OccurredAt:  msg.OccurredAt,
		PublishedAt: publishedAt.UTC(),
		Payload:     payload,
	}
}

// Marshal кодирует конверт в JSON.
func (e EventEnvelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event envelope: %w", err)
	}
	return data, nil
}

// ParseEnvelope разбирает конверт события.
func ParseEnvelope(data []byte) (EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return EventEnvelope{}, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if env.EventType == "" {
		return EventEnvelope{}, fmt.Errorf("unmarshal event envelope: missing event_type")
	}
	return env, nil
}
