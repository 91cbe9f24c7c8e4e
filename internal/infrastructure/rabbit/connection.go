package rabbit

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Conn conexión y canal AMQP.
type Conn struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

// Connect abre conexión y canal.
func Connect(url string) (*Conn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	return &Conn{Conn: conn, Ch: ch}, nil
}

// Close cierra canal y conexión.
func (c *Conn) Close() error {
	_ = c.Ch.Close()
	return c.Conn.Close()
}

// DeclareExchange declara el exchange topic durable de eventos de recibos.
func DeclareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
}

// WithTimeout contexto acotado para una publicación.
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 5*time.Second)
}
