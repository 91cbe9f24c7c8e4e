package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "receipts.events"}

	evt := entity.ReceiptEvent{
		ID: "e1", Type: entity.EventReceiptEmailSent, ReceiptID: "r1", UserID: "u1",
		SentTo: "ana@test.com", OccurredAt: time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), evt))

	assert.Equal(t, "receipts.events", ch.exchange)
	assert.Equal(t, "receipt.email_sent", ch.key, "la routing key es el tipo de evento")
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "u1", ch.msg.Headers["user_id"])

	var got entity.ReceiptEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, evt, got)
}

func TestPublisher_ErrorDelCanal(t *testing.T) {
	p := &Publisher{ch: &fakeChannel{err: errors.New("channel closed")}, exchange: "x"}
	err := p.Publish(context.Background(), entity.ReceiptEvent{Type: entity.EventReceiptCreated})
	assert.ErrorContains(t, err, "channel closed")
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), entity.ReceiptEvent{}))
}
