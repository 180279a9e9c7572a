package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tradeguard/platform/shared/logging"
	"github.com/tradeguard/platform/shared/metrics"
)

// Reader is the subset of kafka.Reader the consumer loop drives.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs a fetch, handle, commit loop over one topic.
type Consumer struct {
	reader         Reader
	topic          string
	groupID        string
	logger         *logging.Logger
	metrics        *metrics.Metrics
	handlerTimeout time.Duration
	retryBackoff   time.Duration
}

// Handler processes one message. A non-nil error leaves the offset
// uncommitted so the message is delivered again.
type Handler func(ctx context.Context, key []byte, value []byte) error

// NewConsumer creates a group consumer. groupID lets several replicas split
// the partitions instead of all reading every message.
func NewConsumer(brokers []string, topic string, groupID string, logger *logging.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return NewConsumerWithReader(r, topic, groupID, logger)
}

// NewConsumerWithReader allows injecting a test reader.
func NewConsumerWithReader(r Reader, topic, groupID string, logger *logging.Logger) *Consumer {
	return &Consumer{
		reader:         r,
		topic:          topic,
		groupID:        groupID,
		logger:         logger.WithComponent("kafka-consumer"),
		handlerTimeout: 10 * time.Second,
		retryBackoff:   time.Second,
	}
}

// WithMetrics counts consumed messages on m, labelled by the producer's
// "event" header.
func (c *Consumer) WithMetrics(m *metrics.Metrics) *Consumer {
	c.metrics = m
	return c
}

func eventHeader(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event" {
			return string(h.Value)
		}
	}
	return "unknown"
}

// Start blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, handler Handler) {
	c.logger.Info("Kafka consumer started", "topic", c.topic, "group", c.groupID)

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.WithError(err).Warn("Error fetching message")
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryBackoff):
			}
			continue
		}

		if !c.process(ctx, m, handler) {
			return
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.WithError(err).Error("Failed to commit offset", "offset", m.Offset)
		}
	}
}

// process runs handler on m until it succeeds. Group offsets are cumulative
// per partition, so moving on to the next message would commit past a failed
// one. It reports false when ctx ends first.
func (c *Consumer) process(ctx context.Context, m kafka.Message, handler Handler) bool {
	for {
		processCtx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
		err := handler(processCtx, m.Key, m.Value)
		cancel()
		if c.metrics != nil {
			c.metrics.RecordKafkaConsume(c.topic, eventHeader(m), err == nil)
		}
		if err == nil {
			return true
		}

		c.logger.WithError(err).Error("Processing failed, retrying", "offset", m.Offset, "partition", m.Partition)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.retryBackoff):
		}
	}
}

// Close disconnects from the server.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
