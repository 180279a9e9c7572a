package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/tradeguard/platform/services/consignment-service/compliance"
	"github.com/tradeguard/platform/services/workflow-orchestrator/internal/activities"
	"github.com/tradeguard/platform/shared/contracts"
)

// CheckResult is the workflow's return value.
type CheckResult struct {
	ConsignmentID string                     `json:"consignment_id"`
	Score         int                        `json:"score"`
	Status        contracts.ComplianceStatus `json:"status"`
	RiskLevel     compliance.RiskLevel       `json:"risk_level"`
	IssueCount    int                        `json:"issue_count"`
}

// ComplianceCheckWorkflow loads a freshly stored consignment, scores it,
// stores the resulting status and publishes a compliance_checked event.
// It is registered as contracts.ComplianceCheckWorkflowName.
func ComplianceCheckWorkflow(ctx workflow.Context, consignmentID string) (CheckResult, error) {
	//Configure Retries
	//If the db or kafka is down retry with backoff
	retrypolicy := &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    100,
		NonRetryableErrorTypes: []string{
			activities.ErrTypeInvalidID,
			activities.ErrTypeNotFound,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         retrypolicy,
	})
	logger := workflow.GetLogger(ctx)

	//Step 1: load
	var c contracts.Consignment
	if err := workflow.ExecuteActivity(ctx, activities.LoadConsignmentName, consignmentID).Get(ctx, &c); err != nil {
		return CheckResult{}, err
	}

	//Step 2: score
	var result compliance.Result
	if err := workflow.ExecuteActivity(ctx, activities.ScoreConsignmentName, c).Get(ctx, &result); err != nil {
		return CheckResult{}, err
	}

	//Step 3: store status
	status := result.Status.Stored()
	if err := workflow.ExecuteActivity(ctx, activities.SaveComplianceStatusName, consignmentID, status).Get(ctx, nil); err != nil {
		return CheckResult{}, err
	}

	//Step 4: publish event
	checked := activities.Checked{Consignment: c, Result: result}
	if err := workflow.ExecuteActivity(ctx, activities.PublishComplianceCheckedName, checked).Get(ctx, nil); err != nil {
		return CheckResult{}, err
	}

	logger.Info("Compliance check finished", "consignmentId", consignmentID, "score", result.Score, "status", status)
	return CheckResult{
		ConsignmentID: consignmentID,
		Score:         result.Score,
		Status:        status,
		RiskLevel:     result.RiskLevel,
		IssueCount:    len(result.Issues),
	}, nil
}
