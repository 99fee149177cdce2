package observability

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher delivers event envelopes to a broker. The process-wide default
// may be nil, in which case events are dropped; chat operations never
// depend on delivery.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, env EventEnvelope, headers map[string]string) error
}

// AMQPPublisher publishes envelopes to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher dials the broker and declares the topic exchange.
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

// Publish sends one envelope as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, env EventEnvelope, headers map[string]string) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	table := amqp.Table{}
	for key, value := range headers {
		table[key] = value
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      table,
	})
	if err != nil && p.logger != nil {
		p.logger.Warn("event publish failed",
			zap.String("routing_key", routingKey),
			zap.String("event", env.Event),
			zap.Error(err))
	}
	return err
}

// Close tears down the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

var defaultPublisher Publisher

// SetPublisher installs the process-wide publisher.
func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

// PublishEvent routes an envelope through the installed publisher. Failures
// are counted and returned to the caller, which ignores them; event
// delivery must never fail a chat request.
func PublishEvent(ctx context.Context, routingKey string, env EventEnvelope, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	if err := defaultPublisher.Publish(ctx, routingKey, env, headers); err != nil {
		IncAMQPPublishError()
		return err
	}
	return nil
}
