package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeConfirmation struct {
	done chan struct{}
	ack  bool
}

func (c *fakeConfirmation) resolve(ack bool) {
	c.ack = ack
	close(c.done)
}

func (c *fakeConfirmation) WaitContext(ctx context.Context) (bool, error) {
	select {
	case <-c.done:
		return c.ack, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type fakeChannel struct {
	declared   string
	declareErr error
	publishErr error
	noConfirm  bool
	published  []published
	confirms   []*fakeConfirmation
	ack        *bool
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	if f.declareErr != nil {
		return f.declareErr
	}
	f.declared = name + ":" + kind
	return nil
}

func (f *fakeChannel) publish(_ context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	if f.noConfirm {
		return nil, nil
	}
	c := &fakeConfirmation{done: make(chan struct{})}
	f.confirms = append(f.confirms, c)
	if f.ack != nil {
		c.resolve(*f.ack)
	}
	return c, nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func newFake(ack *bool) *fakeChannel {
	return &fakeChannel{ack: ack}
}

func boolPtr(v bool) *bool { return &v }

func TestPublisher_PublishAck(t *testing.T) {
	ch := newFake(boolPtr(true))
	p, err := newPublisher(ch, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultExchange+":"+amqp.ExchangeTopic, ch.declared)

	err = p.Publish(context.Background(), domain.OutboxMessage{
		ID:        "evt-1",
		EventType: domain.EventCheckoutRecorded,
		Payload:   []byte(`{"order_id":"o-1"}`),
	})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, DefaultExchange, got.exchange)
	assert.Equal(t, string(domain.EventCheckoutRecorded), got.key)
	assert.Equal(t, "evt-1", got.msg.MessageId)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	env, err := domain.ParseEnvelope(got.msg.Body)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCheckoutRecorded, env.EventType)
	assert.JSONEq(t, `{"order_id":"o-1"}`, string(env.Payload))
}

func TestPublisher_PublishNack(t *testing.T) {
	ch := newFake(boolPtr(false))
	p, err := newPublisher(ch, "custom")
	require.NoError(t, err)

	err = p.Publish(context.Background(), domain.OutboxMessage{ID: "evt", EventType: domain.EventProductsCleared})
	require.ErrorIs(t, err, ErrNack)
	assert.Equal(t, "custom", ch.published[0].exchange)
}

func TestPublisher_PublishError(t *testing.T) {
	ch := newFake(nil)
	ch.publishErr = amqp.ErrClosed
	p, err := newPublisher(ch, "")
	require.NoError(t, err)

	err = p.Publish(context.Background(), domain.OutboxMessage{ID: "evt", EventType: domain.EventProductAdded})
	require.ErrorIs(t, err, amqp.ErrClosed)
}

func TestPublisher_WaitConfirmCanceled(t *testing.T) {
	ch := newFake(nil)
	p, err := newPublisher(ch, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = p.Publish(ctx, domain.OutboxMessage{ID: "evt", EventType: domain.EventProductAdded})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublisher_NotInConfirmMode(t *testing.T) {
	ch := newFake(nil)
	ch.noConfirm = true
	p, err := newPublisher(ch, "")
	require.NoError(t, err)

	err = p.Publish(context.Background(), domain.OutboxMessage{ID: "evt", EventType: domain.EventProductAdded})
	require.Error(t, err)
}

func TestPublisher_LateConfirmDoesNotLeakIntoNextPublish(t *testing.T) {
	ch := newFake(nil)
	p, err := newPublisher(ch, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = p.Publish(ctx, domain.OutboxMessage{ID: "evt-1", EventType: domain.EventProductAdded})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// брокер отвечает на первую публикацию уже после таймаута
	require.Len(t, ch.confirms, 1)
	ch.confirms[0].resolve(false)

	ch.ack = boolPtr(true)
	err = p.Publish(context.Background(), domain.OutboxMessage{ID: "evt-2", EventType: domain.EventProductAdded})
	require.NoError(t, err)
	require.Len(t, ch.confirms, 2)
}

func TestNewPublisher_DeclareError(t *testing.T) {
	ch := newFake(nil)
	ch.declareErr = errors.New("access refused")

	_, err := newPublisher(ch, "")
	require.Error(t, err)
}

func TestPublisher_Close(t *testing.T) {
	ch := newFake(nil)
	p, err := newPublisher(ch, "")
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
