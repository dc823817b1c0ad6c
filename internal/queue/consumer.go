package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultWarmerQueue is the queue the insight warmer consumes
	DefaultWarmerQueue = "selfspeak_insight_warmer"
	// DefaultDeadLetterTTL ages rejected messages out of the dead-letter queue
	DefaultDeadLetterTTL = 24 * time.Hour

	analysisRoutingKey = "analysis.*"
)

// Message is one delivered event awaiting acknowledgement.
type Message interface {
	Event() *Event
	Redelivered() bool
	Ack() error
	// Nack rejects the message. Without requeue it goes to the dead-letter queue.
	Nack(requeue bool) error
}

// ConsumerConfig names the queue an event consumer reads.
type ConsumerConfig struct {
	URL           string
	Exchange      string
	Queue         string
	Prefetch      int
	DeadLetterTTL time.Duration
}

// RabbitMQConsumer reads analysis events from a durable queue bound to the
// event exchange, with a dead-letter queue for rejected messages.
type RabbitMQConsumer struct {
	conn *amqp.Connection
	cfg  ConsumerConfig
}

// NewRabbitMQConsumer connects and declares the exchange, queue and dead-letter queue.
func NewRabbitMQConsumer(cfg ConsumerConfig) (*RabbitMQConsumer, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchangeName
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultWarmerQueue
	}
	if cfg.Prefetch < 1 {
		cfg.Prefetch = 1
	}
	if cfg.DeadLetterTTL <= 0 {
		cfg.DeadLetterTTL = DefaultDeadLetterTTL
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	c := &RabbitMQConsumer{conn: conn, cfg: cfg}
	if err := c.setup(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *RabbitMQConsumer) setup() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(c.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	dlq := c.deadLetterQueue()
	_, err = ch.QueueDeclare(dlq, true, false, false, false, amqp.Table{
		"x-message-ttl": c.cfg.DeadLetterTTL.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	// Rejected messages go straight to the DLQ through the default exchange.
	_, err = ch.QueueDeclare(c.cfg.Queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlq,
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(c.cfg.Queue, analysisRoutingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue to exchange: %w", err)
	}
	return nil
}

func (c *RabbitMQConsumer) deadLetterQueue() string {
	return c.cfg.Queue + ".dlq"
}

// Consume delivers messages until ctx is cancelled or the connection drops.
// Undecodable messages are dead-lettered and reported on the error channel.
func (c *RabbitMQConsumer) Consume(ctx context.Context) (<-chan Message, <-chan error, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := ch.Consume(
		c.cfg.Queue,
		"",    // consumer tag (empty = auto-generate)
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgs := make(chan Message, c.cfg.Prefetch)
	errs := make(chan error, 1)

	go func() {
		defer close(msgs)
		defer close(errs)
		defer func() { _ = ch.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					select {
					case errs <- fmt.Errorf("delivery channel closed"):
					default:
					}
					return
				}

				msg, err := decodeDelivery(d)
				if err != nil {
					_ = d.Nack(false, false)
					select {
					case errs <- err:
					default:
					}
					continue
				}

				select {
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				case msgs <- msg:
				}
			}
		}
	}()

	return msgs, errs, nil
}

// Close closes the connection
func (c *RabbitMQConsumer) Close() error {
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}

type delivery struct {
	event *Event
	d     amqp.Delivery
}

func decodeDelivery(d amqp.Delivery) (*delivery, error) {
	var event Event
	if err := json.Unmarshal(d.Body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" || event.UserID == "" {
		return nil, fmt.Errorf("event %s is missing its type or user", event.ID)
	}
	return &delivery{event: &event, d: d}, nil
}

func (m *delivery) Event() *Event           { return m.event }
func (m *delivery) Redelivered() bool       { return m.d.Redelivered }
func (m *delivery) Ack() error              { return m.d.Ack(false) }
func (m *delivery) Nack(requeue bool) error { return m.d.Nack(false, requeue) }

