// Package bridge translates consignment events from Kafka into RabbitMQ
// jobs: facts in, tasks out.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tradeguard/platform/shared/contracts"
	"github.com/tradeguard/platform/shared/logging"
	"github.com/tradeguard/platform/shared/metrics"
)

const (
	AlertQueue  = "compliance_alerts"
	NoticeQueue = "consignment_notices"
)

// Job types.
const (
	JobReviewRequired = "compliance_review_required"
	JobReceived       = "consignment_received"
	JobCleared        = "compliance_cleared"
	JobStatusChanged  = "compliance_status_changed"
)

// Job is the body put on a queue.
type Job struct {
	Type       string                            `json:"type"`
	Event      string                            `json:"event"`
	Payload    contracts.ConsignmentEventPayload `json:"payload"`
	OccurredAt time.Time                         `json:"occurred_at"`
}

// JobPublisher is satisfied by *rabbitmq.RabbitmqClient.
type JobPublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

type Bridge struct {
	jobs    JobPublisher
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// New returns a bridge publishing to jobs. m may be nil.
func New(jobs JobPublisher, logger *logging.Logger, m *metrics.Metrics) *Bridge {
	return &Bridge{jobs: jobs, logger: logger.WithComponent("bridge"), metrics: m}
}

// route picks the queue and job type for an event, or "" to skip it.
func route(e contracts.ConsignmentEvent) (queue, jobType string) {
	switch e.Event {
	case contracts.EventConsignmentCreated:
		return NoticeQueue, JobReceived
	case contracts.EventComplianceChecked:
		if e.Payload.Compliant == contracts.ComplianceCompliant {
			return NoticeQueue, JobCleared
		}
		return AlertQueue, JobReviewRequired
	case contracts.EventComplianceUpdated:
		if e.Payload.Compliant == contracts.ComplianceFlagged {
			return AlertQueue, JobReviewRequired
		}
		return NoticeQueue, JobStatusChanged
	}
	return "", ""
}

// Handle is a kafka.Handler. Undecodable messages are logged and skipped
// since redelivery cannot fix them; a failed publish is returned so the
// consumer retries the same message before committing.
func (b *Bridge) Handle(ctx context.Context, key, value []byte) error {
	var event contracts.ConsignmentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		b.logger.WithError(err).Error("Skipping undecodable event", "key", string(key))
		return nil
	}

	queue, jobType := route(event)
	if queue == "" {
		b.logger.Debug("Event ignored", "event", event.Event)
		return nil
	}

	body, err := json.Marshal(Job{
		Type:       jobType,
		Event:      event.Event,
		Payload:    event.Payload,
		OccurredAt: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal %s job: %w", jobType, err)
	}

	err = b.jobs.Publish(ctx, queue, body)
	if b.metrics != nil {
		b.metrics.RecordAlertDispatched(queue, err == nil)
	}
	if err != nil {
		return fmt.Errorf("publish %s job: %w", jobType, err)
	}
	b.logger.WithContext(ctx).Info("Job queued",
		"queue", queue,
		"type", jobType,
		"consignmentId", event.Payload.UUID,
		"shipmentId", event.Payload.ShipmentID,
	)
	return nil
}

// Worker returns a rabbitmq.Handler that logs each job of a queue.
// Delivery channels (mail, SMS) hang off this.
func (b *Bridge) Worker(queue string) func(ctx context.Context, body []byte) error {
	log := b.logger.WithOperation(queue + "-worker")
	return func(ctx context.Context, body []byte) error {
		var job Job
		if err := json.Unmarshal(body, &job); err != nil {
			return fmt.Errorf("decode job: %w", err)
		}
		attrs := []any{
			"type", job.Type,
			"consignmentId", job.Payload.UUID,
			"shipmentId", job.Payload.ShipmentID,
			"compliant", job.Payload.Compliant,
		}
		if job.Payload.Score != nil {
			attrs = append(attrs, "score", *job.Payload.Score, "riskLevel", job.Payload.RiskLevel)
		}
		if queue == AlertQueue {
			log.Warn("Compliance review required", attrs...)
		} else {
			log.Info("Consignment notice", attrs...)
		}
		return nil
	}
}
