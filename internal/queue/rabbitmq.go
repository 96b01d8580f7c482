package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
)

// RabbitMQQueue is a ports.Queue on a durable RabbitMQ queue, used when the
// HTTP server and the download workers run as separate processes.
type RabbitMQQueue struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  observability.Logger
	metrics observability.Metrics
}

// NewRabbitMQQueue connects to the broker at url.
func NewRabbitMQQueue(url string, logger observability.Logger, metrics observability.Metrics) (*RabbitMQQueue, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	logger.Info("rabbitmq queue initialized")
	return &RabbitMQQueue{
		conn:    conn,
		channel: channel,
		logger:  logger,
		metrics: metrics,
	}, nil
}

func (q *RabbitMQQueue) Publish(ctx context.Context, message *ports.QueueMessage) error {
	body, err := json.Marshal(message.Body)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	// Declaring is idempotent; it keeps publish and consume order-independent.
	if _, err := q.declare(message.Target); err != nil {
		return err
	}

	err = q.channel.PublishWithContext(ctx,
		"",             // default exchange
		message.Target, // routing key is the queue name
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			DeliveryMode: amqp091.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		q.metrics.IncrementCounter("queue.publish",
			map[string]string{"target": message.Target, "outcome": "error"})
		return fmt.Errorf("publish message: %w", err)
	}

	q.metrics.IncrementCounter("queue.publish",
		map[string]string{"target": message.Target, "outcome": "success"})
	return nil
}

func (q *RabbitMQQueue) Consume(ctx context.Context, target string, handle func(ctx context.Context, body []byte) error) error {
	if _, err := q.declare(target); err != nil {
		return err
	}

	deliveries, err := q.channel.Consume(
		target,
		"",    // consumer tag assigned by the broker
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq delivery channel closed")
			}
			if err := handle(ctx, delivery.Body); err != nil {
				q.logger.Error("message handling failed", "target", target, "error", err)
				// Drop rather than requeue; the handler already persisted a
				// terminal status, and redelivery would double-download.
				_ = delivery.Nack(false, false)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

func (q *RabbitMQQueue) Close() error {
	if err := q.channel.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

func (q *RabbitMQQueue) declare(target string) (amqp091.Queue, error) {
	declared, err := q.channel.QueueDeclare(
		target,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp091.Queue{}, fmt.Errorf("declare queue %s: %w", target, err)
	}
	return declared, nil
}
