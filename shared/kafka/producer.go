package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	skafka "github.com/segmentio/kafka-go"

	"github.com/tradeguard/platform/shared/logging"
	"github.com/tradeguard/platform/shared/metrics"
)

// Writer defines the subset of segmentio kafka.Writer we need. This makes the producer testable.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Publisher is the interface used by services to publish events.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}

// typed is implemented by event envelopes that know their own name.
type typed interface {
	EventType() string
}

// KafkaProducer is a thin wrapper around a kafka writer implementing Publisher.
type KafkaProducer struct {
	writer  Writer
	topic   string
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewKafkaProducer creates a real KafkaProducer that writes to the provided broker/topic.
func NewKafkaProducer(brokerURL, topic string, logger *logging.Logger) *KafkaProducer {
	w := &skafka.Writer{
		Addr:                   skafka.TCP(brokerURL),
		Topic:                  topic,
		Balancer:               &skafka.Hash{},
		RequiredAcks:           skafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return NewKafkaProducerWithWriter(w, topic, logger)
}

// NewKafkaProducerWithWriter allows injecting a test writer.
func NewKafkaProducerWithWriter(w Writer, topic string, logger *logging.Logger) *KafkaProducer {
	return &KafkaProducer{
		writer: w,
		topic:  topic,
		logger: logger.WithComponent("kafka-producer"),
	}
}

// WithMetrics records publish counts and latency on m.
func (p *KafkaProducer) WithMetrics(m *metrics.Metrics) *KafkaProducer {
	p.metrics = m
	return p
}

// Publish marshals the value to JSON and writes a kafka message with the given key.
// Keys hash to a fixed partition, so events for one consignment stay ordered.
func (p *KafkaProducer) Publish(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal kafka value: %w", err)
	}

	eventType := "unknown"
	if t, ok := value.(typed); ok {
		eventType = t.EventType()
	}

	start := time.Now()
	msg := skafka.Message{
		Key:     []byte(key),
		Value:   b,
		Headers: []skafka.Header{{Key: "event", Value: []byte(eventType)}},
	}
	err = p.writer.WriteMessages(ctx, msg)
	duration := time.Since(start)

	p.logger.KafkaPublish(ctx, p.topic, key, err == nil, duration)
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(p.topic, eventType, err == nil, duration)
	}
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", eventType, err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct {
	Logger *logging.Logger
}

func (n NopPublisher) Publish(ctx context.Context, key string, value any) error {
	if n.Logger != nil {
		n.Logger.WithContext(ctx).Debug("Kafka disabled, event dropped", "key", key)
	}
	return nil
}

func (NopPublisher) Close() error { return nil }
