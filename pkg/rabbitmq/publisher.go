package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"call-insights/config"
)

// Publisher pushes JSON messages onto a queue binding.
type Publisher interface {
	Publish(ctx context.Context, spec QueueSpec, payload any) error
}

type publisher struct {
	conn *amqp.Connection
	cfg  *config.RabbitMQ
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) Publisher {
	return &publisher{conn: conn, cfg: cfg}
}

func (p *publisher) Publish(ctx context.Context, spec QueueSpec, payload any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(spec.Exchange, p.cfg.Kind, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, spec.Exchange, spec.RoutingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
