package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/ereceipt-api/internal/application/billing"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
)

var (
	_ billing.EventPublisher = (*Publisher)(nil)
	_ billing.EventPublisher = Noop{}
)

// channel lo que Publisher usa de *amqp.Channel.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher publica eventos de recibos en un exchange topic; la routing key es el tipo de evento.
type Publisher struct {
	ch       channel
	exchange string
}

// NewPublisher construye el publicador sobre un canal ya abierto.
func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// Publish serializa el evento como JSON y lo publica persistente.
func (p *Publisher) Publish(ctx context.Context, evt entity.ReceiptEvent) error {
	return p.PublishJSON(ctx, evt.Type, evt, amqp.Table{"user_id": evt.UserID})
}

// PublishJSON publica v como JSON con la routing key dada.
func (p *Publisher) PublishJSON(ctx context.Context, routingKey string, v any, headers amqp.Table) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	ctx, cancel := WithTimeout(ctx)
	defer cancel()
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         b,
			Headers:      headers,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Noop descarta los eventos (RABBIT_URL vacío).
type Noop struct{}

// Publish no hace nada.
func (Noop) Publish(context.Context, entity.ReceiptEvent) error { return nil }
