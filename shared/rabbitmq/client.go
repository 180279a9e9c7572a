package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tradeguard/platform/shared/logging"
)

// Handler processes one delivery body. Returning an error nacks the
// delivery back onto the queue.
type Handler func(ctx context.Context, body []byte) error

// RabbitmqClient owns one connection and one channel.
type RabbitmqClient struct {
	conn   *amqp.Connection
	chn    *amqp.Channel
	logger *logging.Logger
}

// NewClient dials the broker and opens a channel.
func NewClient(url string, logger *logging.Logger) (*RabbitmqClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	// one unacked message per worker
	if err := chn.Qos(1, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set rabbitmq qos: %w", err)
	}

	return &RabbitmqClient{
		conn:   conn,
		chn:    chn,
		logger: logger.WithComponent("rabbitmq"),
	}, nil
}

// Close cleans up the channel then the connection.
func (r *RabbitmqClient) Close() error {
	if err := r.chn.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}

// CreateQueue declares a durable queue.
func (r *RabbitmqClient) CreateQueue(queueName string) error {
	_, err := r.chn.QueueDeclare(
		queueName, //name of queue
		true,      //durable
		false,     //delete when unused
		false,     //exclusive
		false,     //no-wait
		nil,       //arguments
	)
	return err
}

// Publish sends a persistent JSON message to a queue on the default exchange.
func (r *RabbitmqClient) Publish(ctx context.Context, queueName string, body []byte) error {
	return r.chn.PublishWithContext(
		ctx,
		"",        //exchange
		queueName, //routing key (queue name)
		false,     //mandatory
		false,     //immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume returns the delivery stream of a queue with manual acks.
func (r *RabbitmqClient) Consume(queueName string) (<-chan amqp.Delivery, error) {
	return r.chn.Consume(
		queueName, //queue
		"",        //consumer
		false,     //auto-ack
		false,     //exclusive
		false,     //no-local
		false,     //no-wait
		nil,       //args
	)
}

// Work consumes queueName until ctx is cancelled or the channel closes,
// acking each delivery the handler accepts.
func (r *RabbitmqClient) Work(ctx context.Context, queueName string, handle Handler) error {
	msgs, err := r.Consume(queueName)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queueName, err)
	}
	return Drain(ctx, msgs, handle, r.logger.WithOperation(queueName))
}

// Acknowledger is the part of amqp.Delivery that Drain settles.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Drain runs handle for every delivery. A failed delivery is requeued once;
// a redelivered one that fails again is dropped.
func Drain(ctx context.Context, msgs <-chan amqp.Delivery, handle Handler, logger *logging.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			settle(ctx, &d, d.Body, d.Redelivered, handle, logger)
		}
	}
}

func settle(ctx context.Context, ack Acknowledger, body []byte, redelivered bool, handle Handler, logger *logging.Logger) {
	if err := handle(ctx, body); err != nil {
		logger.WithError(err).Error("Job failed", "redelivered", redelivered)
		_ = ack.Nack(false, !redelivered)
		return
	}
	_ = ack.Ack(false)
}
