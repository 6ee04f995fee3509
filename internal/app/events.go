package app

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/rabbitmq"
)

// eventPublisher публикует outbox и закрывается при остановке.
type eventPublisher interface {
	domain.OutboxPublisher
	io.Closer
}

// initEventPublisher подключается к брокеру согласно cfg.EventsDriver.
// Для EventsDriverNone возвращает nil, nil.
func initEventPublisher(cfg Config, logger *log.Entry) (eventPublisher, error) {
	switch cfg.EventsDriver {
	case EventsDriverNone, "":
		return nil, nil
	case EventsDriverKafka:
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		logger.WithFields(log.Fields{
			"brokers": cfg.KafkaBrokers,
			"topic":   cfg.KafkaTopic,
		}).Info("kafka producer initialized")
		return kafka.NewPublisher(producer, cfg.KafkaTopic), nil
	case EventsDriverRabbitMQ:
		publisher, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		logger.WithField("exchange", cfg.RabbitMQExchange).Info("rabbitmq publisher initialized")
		return publisher, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.EventsDriver)
	}
}

// closePublisher закрывает паблишер, если он не nil.
func closePublisher(publisher eventPublisher, logger *log.Entry) {
	if publisher == nil {
		return
	}
	if err := publisher.Close(); err != nil {
		logger.WithError(err).Warn("failed to close event publisher")
	} else {
		logger.Info("event publisher closed")
	}
}
