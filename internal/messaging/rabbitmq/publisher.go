package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// DefaultExchange задаёт topic exchange событий регистратора.
const DefaultExchange = "checkout.events"

// ErrNack возвращается, когда брокер не подтвердил публикацию.
var ErrNack = errors.New("publish NACK from broker")

// confirmation ждёт подтверждения одной конкретной публикации.
// Реализуется *amqp.DeferredConfirmation.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// channel описывает часть *amqp.Channel, нужную паблишеру.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

// amqpChannel связывает публикацию с её delivery tag через deferred confirm.
type amqpChannel struct {
	*amqp.Channel
}

func (c amqpChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil || dc == nil {
		return nil, err
	}
	return dc, nil
}

// Publisher публикует события outbox в RabbitMQ с publisher confirms.
// Routing key совпадает с типом события.
type Publisher struct {
	ch       channel
	conn     *amqp.Connection
	exchange string
	now      func() time.Time
	logger   *log.Entry
}

// Dial подключается к брокеру, объявляет exchange и включает confirms.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	p, err := newPublisher(amqpChannel{ch}, exchange)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		now:      time.Now,
		logger:   log.WithField("component", "rabbitmq-publisher"),
	}, nil
}

// Publish реализует domain.OutboxPublisher и ждёт ack от брокера.
func (p *Publisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	publishedAt := p.now().UTC()
	body, err := domain.NewEnvelope(event, publishedAt).Marshal()
	if err != nil {
		return err
	}

	confirm, err := p.ch.publish(ctx, p.exchange, string(event.EventType), amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         string(event.EventType),
		Timestamp:    publishedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType, err)
	}
	if confirm == nil {
		return fmt.Errorf("publish %s: channel is not in confirm mode", event.EventType)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return fmt.Errorf("publish %s: %w", event.EventType, ErrNack)
	}
	p.logger.WithFields(log.Fields{
		"event_id":   event.ID,
		"event_type": event.EventType,
	}).Debug("event confirmed by rabbitmq")
	return nil
}

// Close закрывает канал и соединение.
func (p *Publisher) Close() error {
	var errs []error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ domain.OutboxPublisher = (*Publisher)(nil)
