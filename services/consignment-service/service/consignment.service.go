// service/consignment.service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/tradeguard/platform/services/authentication-service/authapi"
	"github.com/tradeguard/platform/services/consignment-service/compliance"
	"github.com/tradeguard/platform/services/consignment-service/internal/hscode"
	"github.com/tradeguard/platform/services/consignment-service/report"
	"github.com/tradeguard/platform/services/consignment-service/shipment"
	"github.com/tradeguard/platform/services/consignment-service/store"
	"github.com/tradeguard/platform/shared/contracts"
	"github.com/tradeguard/platform/shared/kafka"
	"github.com/tradeguard/platform/shared/logging"
	"github.com/tradeguard/platform/shared/metrics"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvalidStatus   = errors.New("invalid compliance status")
)

// WorkflowStarter is the part of the Temporal client the service needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// ConsignmentService handles business logic for consignments, using a
// ConsignmentStore for data access and Kafka for change events.
type ConsignmentService struct {
	store     store.ConsignmentStore
	producer  kafka.Publisher
	workflows WorkflowStarter
	scorer    *compliance.Scorer
	catalog   *hscode.Catalog
	logger    *logging.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*ConsignmentService)

// WithWorkflows enables the asynchronous compliance check after create.
func WithWorkflows(w WorkflowStarter) Option {
	return func(s *ConsignmentService) { s.workflows = w }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ConsignmentService) { s.metrics = m }
}

func WithCatalog(c *hscode.Catalog) Option {
	return func(s *ConsignmentService) { s.catalog = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *ConsignmentService) { s.now = now }
}

// NewConsignmentService creates a service over store. producer may be a
// kafka.NopPublisher when Kafka is not configured.
func NewConsignmentService(st store.ConsignmentStore, producer kafka.Publisher, logger *logging.Logger, opts ...Option) (*ConsignmentService, error) {
	s := &ConsignmentService{
		store:    st,
		producer: producer,
		scorer:   compliance.NewScorer(),
		logger:   logger.WithComponent("consignment-service"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		c, err := hscode.Default()
		if err != nil {
			return nil, err
		}
		s.catalog = c
	}
	return s, nil
}

// CreateConsignment stores c as a new pending consignment, announces it on
// Kafka and starts the compliance check. Event and workflow failures are
// logged; the consignment is already stored and the request succeeds.
func (s *ConsignmentService) CreateConsignment(ctx context.Context, actor authapi.Principal, c contracts.Consignment) (contracts.Consignment, error) {
	if err := shipment.ValidateCountries(shipment.Country(c.SenderCountry), shipment.Country(c.ReceiverCountry)); err != nil {
		return contracts.Consignment{}, err
	}

	now := s.now().UTC()
	c.UUID = uuid.New()
	c.Compliant = contracts.CompliancePending
	c.HasCommercialInvoice = len(c.CommercialInvoice) > 0
	c.CreatedAt = now
	if c.ShipmentDate == "" {
		c.ShipmentDate = now.Format(time.DateOnly)
	}

	if err := s.store.CreateConsignment(ctx, c); err != nil {
		return contracts.Consignment{}, err
	}

	log := s.logger.WithContext(ctx)
	log.Audit(ctx, "CONSIGNMENT_CREATED", "consignment", c.UUID.String(), actor.UserID.String(),
		map[string]any{"shipmentId": c.ShipmentID})
	if s.metrics != nil {
		s.metrics.RecordConsignmentCreated(c.SenderCountry + "-" + c.ReceiverCountry)
	}

	s.publish(ctx, contracts.NewConsignmentEvent(contracts.EventConsignmentCreated, c))
	s.startComplianceCheck(ctx, c.UUID)

	return c, nil
}

func (s *ConsignmentService) startComplianceCheck(ctx context.Context, id uuid.UUID) {
	if s.workflows == nil {
		return
	}
	log := s.logger.WithContext(ctx).WithOperation("start-compliance-check")

	run, err := s.workflows.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "compliance-check-" + id.String(),
		TaskQueue: contracts.ComplianceCheckTaskQueue,
	}, contracts.ComplianceCheckWorkflowName, id.String())
	if err != nil {
		log.WithError(err).Error("Failed to start compliance workflow", "consignmentId", id)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordWorkflowStarted(contracts.ComplianceCheckWorkflowName)
	}
	log.Info("Compliance workflow started", "consignmentId", id, "workflowId", run.GetID(), "runId", run.GetRunID())
}

func (s *ConsignmentService) publish(ctx context.Context, event contracts.ConsignmentEvent) {
	if err := s.producer.Publish(ctx, event.Payload.UUID.String(), event); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Consignment event not published",
			"event", event.Event, "consignmentId", event.Payload.UUID)
	}
}

// ListConsignments returns every consignment, newest first.
func (s *ConsignmentService) ListConsignments(ctx context.Context) ([]contracts.Consignment, error) {
	return s.store.GetConsignments(ctx)
}

func (s *ConsignmentService) GetConsignment(ctx context.Context, id uuid.UUID) (contracts.Consignment, error) {
	return s.store.GetConsignment(ctx, id)
}

// Invoice returns the stored commercial invoice and its download name.
func (s *ConsignmentService) Invoice(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	c, err := s.store.GetConsignment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrInvoiceNotFound
	}
	if err != nil {
		return "", nil, err
	}
	if len(c.CommercialInvoice) == 0 {
		return "", nil, ErrInvoiceNotFound
	}
	return fmt.Sprintf("invoice_%s.pdf", c.ShipmentID), c.CommercialInvoice, nil
}

// UpdateCompliance sets the reviewed status and announces the change.
func (s *ConsignmentService) UpdateCompliance(ctx context.Context, actor authapi.Principal, id uuid.UUID, status contracts.ComplianceStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.store.UpdateCompliance(ctx, id, status); err != nil {
		return err
	}

	s.logger.Audit(ctx, "COMPLIANCE_UPDATED", "consignment", id.String(), actor.UserID.String(),
		map[string]any{"status": string(status)})

	c, err := s.store.GetConsignment(ctx, id)
	if err != nil {
		// the update is committed; only the event is lost
		s.logger.WithContext(ctx).WithError(err).Warn("Could not reload consignment for event", "consignmentId", id)
		return nil
	}
	s.publish(ctx, contracts.NewConsignmentEvent(contracts.EventComplianceUpdated, c))
	return nil
}

// Score evaluates a record that has not been stored (the compliance check page).
func (s *ConsignmentService) Score(r shipment.Record) compliance.Result {
	result := s.scorer.Evaluate(r)
	s.recordScore(result)
	return result
}

// ScoreConsignment evaluates a stored consignment.
func (s *ConsignmentService) ScoreConsignment(ctx context.Context, id uuid.UUID) (contracts.Consignment, compliance.Result, error) {
	c, err := s.store.GetConsignment(ctx, id)
	if err != nil {
		return contracts.Consignment{}, compliance.Result{}, err
	}
	return c, s.Score(shipment.FromConsignment(c)), nil
}

// Report builds the printable compliance report for a stored consignment.
func (s *ConsignmentService) Report(ctx context.Context, id uuid.UUID) (report.Report, error) {
	c, result, err := s.ScoreConsignment(ctx, id)
	if err != nil {
		return report.Report{}, err
	}
	return report.New(c.UUID, shipment.FromConsignment(c), result, s.now()), nil
}

// LookupHSCode resolves a category pair for a destination.
func (s *ConsignmentService) LookupHSCode(mainCategory, subCategory string, destination shipment.Country) (string, error) {
	return s.catalog.Lookup(mainCategory, subCategory, destination)
}

func (s *ConsignmentService) recordScore(r compliance.Result) {
	if s.metrics != nil {
		s.metrics.RecordComplianceCheck(string(r.Status), string(r.RiskLevel), r.Score)
	}
}
