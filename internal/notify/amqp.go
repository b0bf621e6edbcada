package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AMQPPublisher publishes JSON messages to a durable topic exchange using the
// message type as routing key.
type AMQPPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
	logger   zerolog.Logger
}

// NewAMQPPublisher dials url and declares the exchange.
func NewAMQPPublisher(url, exchange string, logger zerolog.Logger) (*AMQPPublisher, error) {
	conn, ch, err := dial(url, exchange)
	if err != nil {
		return nil, err
	}
	p := &AMQPPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger.With().Str("component", "notify").Logger(),
	}
	p.logger.Info().Str("exchange", exchange).Msg("amqp publisher initialized")
	return p, nil
}

func dial(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return conn, ch, nil
}

// Publish sends msg as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchange, msg.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Type:         msg.Type,
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("publish", "error").Inc()
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}
	metrics.NotificationsTotal.WithLabelValues("publish", "ok").Inc()
	p.logger.Debug().Str("type", msg.Type).Str("event_id", msg.EventID).Msg("message published")
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Consumer reads registration messages from a durable queue bound to the
// exchange for every registration.* routing key.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	handler Handler
	logger  zerolog.Logger
}

// NewConsumer dials url, declares the exchange and queue and binds them.
func NewConsumer(url, exchange, queue string, handler Handler, logger zerolog.Logger) (*Consumer, error) {
	conn, ch, err := dial(url, exchange)
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, "registration.*", exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind queue %s: %w", queue, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &Consumer{
		conn:    conn,
		channel: ch,
		queue:   queue,
		handler: handler,
		logger:  logger.With().Str("component", "notify-consumer").Logger(),
	}, nil
}

// Run consumes until ctx is cancelled or the delivery channel closes.
// Messages are acked after the handler succeeds. A failed message is requeued
// once; undecodable bodies are dropped.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", c.queue, err)
	}
	c.logger.Info().Str("queue", c.queue).Msg("consuming")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	switch err := c.process(ctx, d.Body); {
	case err == nil:
		metrics.NotificationsTotal.WithLabelValues("consume", "ok").Inc()
		_ = d.Ack(false)
	case isPoison(err):
		metrics.NotificationsTotal.WithLabelValues("consume", "dropped").Inc()
		c.logger.Error().Err(err).Msg("dropping undecodable message")
		_ = d.Nack(false, false)
	default:
		metrics.NotificationsTotal.WithLabelValues("consume", "retry").Inc()
		c.logger.Warn().Err(err).Msg("failed to process message")
		_ = d.Nack(false, !d.Redelivered)
	}
}

type poisonError struct{ err error }

func (e poisonError) Error() string { return "decode message: " + e.err.Error() }
func (e poisonError) Unwrap() error { return e.err }

func isPoison(err error) bool {
	_, ok := err.(poisonError)
	return ok
}

func (c *Consumer) process(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return poisonError{err: err}
	}
	if msg.Type == "" {
		return poisonError{err: fmt.Errorf("missing type")}
	}
	return c.handler(ctx, msg)
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
