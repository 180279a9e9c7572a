package activities

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/tradeguard/platform/services/consignment-service/compliance"
	"github.com/tradeguard/platform/services/consignment-service/shipment"
	"github.com/tradeguard/platform/services/consignment-service/store"
	"github.com/tradeguard/platform/shared/contracts"
	"github.com/tradeguard/platform/shared/kafka"
	"github.com/tradeguard/platform/shared/metrics"
)

// Activity names as registered from ComplianceActivities' methods.
const (
	LoadConsignmentName          = "LoadConsignment"
	ScoreConsignmentName         = "ScoreConsignment"
	SaveComplianceStatusName     = "SaveComplianceStatus"
	PublishComplianceCheckedName = "PublishComplianceChecked"
)

// Non-retryable error types; retrying cannot fix them.
const (
	ErrTypeInvalidID = "InvalidConsignmentID"
	ErrTypeNotFound  = "ConsignmentNotFound"
)

// ComplianceActivities hosts the steps of the compliance check. The worker
// injects the store and the Kafka publisher.
type ComplianceActivities struct {
	Store    store.ConsignmentStore
	Producer kafka.Publisher
	Scorer   *compliance.Scorer
	Metrics  *metrics.Metrics // optional
}

// Checked is what the last step publishes.
type Checked struct {
	Consignment contracts.Consignment
	Result      compliance.Result
}

func (a *ComplianceActivities) record(name string, err error) {
	if a.Metrics != nil {
		a.Metrics.RecordActivityCompleted(name, err == nil)
	}
}

// finish counts a run that ends at the current step: a non-retryable failure
// or the final publish.
func (a *ComplianceActivities) finish(err error) {
	if a.Metrics == nil {
		return
	}
	var appErr *temporal.ApplicationError
	if err == nil || (errors.As(err, &appErr) && appErr.NonRetryable()) {
		a.Metrics.RecordWorkflowCompleted(contracts.ComplianceCheckWorkflowName, err == nil)
	}
}

// LoadConsignment reads the consignment the workflow was started for.
func (a *ComplianceActivities) LoadConsignment(ctx context.Context, id string) (c contracts.Consignment, err error) {
	defer func() {
		a.record(LoadConsignmentName, err)
		if err != nil {
			a.finish(err)
		}
	}()

	parsed, err := uuid.Parse(id)
	if err != nil {
		return contracts.Consignment{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("invalid consignment id %q", id), ErrTypeInvalidID, err)
	}
	c, err = a.Store.GetConsignment(ctx, parsed)
	if errors.Is(err, store.ErrNotFound) {
		return contracts.Consignment{}, temporal.NewNonRetryableApplicationError(
			"consignment "+id+" not found", ErrTypeNotFound, err)
	}
	if err != nil {
		return contracts.Consignment{}, err
	}
	// invoice bytes stay in the store; HasCommercialInvoice carries presence
	c.CommercialInvoice = nil
	return c, nil
}

// ScoreConsignment runs the rule set. It is pure but kept as an activity so
// rule changes never break workflow replay.
func (a *ComplianceActivities) ScoreConsignment(ctx context.Context, c contracts.Consignment) (compliance.Result, error) {
	result := a.Scorer.Evaluate(shipment.FromConsignment(c))
	activity.GetLogger(ctx).Info("Consignment scored",
		"consignmentId", c.UUID, "score", result.Score, "status", result.Status)
	if a.Metrics != nil {
		a.Metrics.RecordComplianceCheck(string(result.Status), string(result.RiskLevel), result.Score)
	}
	a.record(ScoreConsignmentName, nil)
	return result, nil
}

// SaveComplianceStatus stores the status the score maps to.
func (a *ComplianceActivities) SaveComplianceStatus(ctx context.Context, id string, status contracts.ComplianceStatus) (err error) {
	defer func() {
		a.record(SaveComplianceStatusName, err)
		if err != nil {
			a.finish(err)
		}
	}()

	parsed, err := uuid.Parse(id)
	if err != nil {
		return temporal.NewNonRetryableApplicationError("invalid consignment id", ErrTypeInvalidID, err)
	}
	err = a.Store.UpdateCompliance(ctx, parsed, status)
	if errors.Is(err, store.ErrNotFound) {
		return temporal.NewNonRetryableApplicationError("consignment "+id+" not found", ErrTypeNotFound, err)
	}
	return err
}

// PublishComplianceChecked announces the result. No go routine here;
// Temporal retries the publish until the broker accepts it.
func (a *ComplianceActivities) PublishComplianceChecked(ctx context.Context, in Checked) (err error) {
	defer func() {
		a.record(PublishComplianceCheckedName, err)
		if err == nil {
			a.finish(nil)
		}
	}()

	in.Consignment.Compliant = in.Result.Status.Stored()
	event := contracts.NewConsignmentEvent(contracts.EventComplianceChecked, in.Consignment)
	score := in.Result.Score
	event.Payload.Score = &score
	event.Payload.RiskLevel = string(in.Result.RiskLevel)
	event.Payload.IssueCount = len(in.Result.Issues)

	return a.Producer.Publish(ctx, in.Consignment.UUID.String(), event)
}
