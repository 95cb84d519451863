package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer reads research jobs with manual acks. Prefetch bounds the number
// of unacked deliveries, so it should equal the worker pool size.
type Consumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	retryDelay time.Duration
}

func NewConsumer(url, queue string, prefetch int, retryDelay time.Duration) (*Consumer, error) {
	conn, ch, err := dial(url)
	if err != nil {
		return nil, err
	}
	if err := declare(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("qos: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, retryDelay: retryDelay}, nil
}

func (c *Consumer) Deliveries() (<-chan amqp.Delivery, error) {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return msgs, nil
}

// Retry republishes the delivery body to the retry queue; it comes back to
// the main queue after attempt*retryDelay.
func (c *Consumer) Retry(ctx context.Context, d amqp.Delivery, attempt int) error {
	return publish(ctx, c.ch, RetryQueue(c.queue), d.Body, attempt, time.Duration(attempt)*c.retryDelay)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
