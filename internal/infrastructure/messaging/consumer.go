package messaging

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrConsumerClosed reports that the underlying delivery stream ended, which
// happens when the broker connection drops. The caller decides whether to
// reconnect.
var ErrConsumerClosed = errors.New("consumer stream closed")

// Record is one consumed bus record.
type Record struct {
	Topic string
	Body  []byte
}

// Consumer is a pull-style view over one queue. Subscribe binds the queue to
// the given routing keys and opens the delivery stream; Next blocks for the
// following record.
type Consumer struct {
	rmq        *RabbitMQ
	queue      string
	deliveries <-chan amqp.Delivery
}

func NewConsumer(rmq *RabbitMQ, queue string) *Consumer {
	return &Consumer{
		rmq:   rmq,
		queue: queue,
	}
}

func (c *Consumer) Subscribe(topics []string) error {
	if err := c.rmq.declareAndBindQueue(c.queue, topics, EventsExchange); err != nil {
		return err
	}

	deliveries, err := c.rmq.Channel.Consume(
		c.queue, // queue
		"",      // consumer tag
		true,    // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %v", c.queue, err)
	}

	c.deliveries = deliveries
	return nil
}

func (c *Consumer) Next(ctx context.Context) (Record, error) {
	if c.deliveries == nil {
		return Record{}, errors.New("consumer is not subscribed")
	}

	select {
	case <-ctx.Done():
		return Record{}, ctx.Err()
	case d, ok := <-c.deliveries:
		if !ok {
			return Record{}, ErrConsumerClosed
		}
		return Record{Topic: d.RoutingKey, Body: d.Body}, nil
	}
}

func (c *Consumer) Close() error {
	c.rmq.Close()
	return nil
}
