// Package compliance scores a shipment record against the fixed rule set
// the product ships with. Scoring is pure: the same record always yields
// the same result.
package compliance

import (
	"github.com/tradeguard/platform/services/consignment-service/shipment"
	"github.com/tradeguard/platform/shared/contracts"
)

type Status string

const (
	StatusCompliant Status = "Compliant"
	StatusFlagged   Status = "Flagged"
	StatusPending   Status = "Pending"
)

// Stored maps the display status to the value persisted with a consignment.
func (s Status) Stored() contracts.ComplianceStatus {
	switch s {
	case StatusCompliant:
		return contracts.ComplianceCompliant
	case StatusFlagged:
		return contracts.ComplianceFlagged
	default:
		return contracts.CompliancePending
	}
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one failed rule.
type Issue struct {
	Severity   Severity `json:"type"`
	Category   string   `json:"category"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
}

type Result struct {
	Score     int       `json:"score"`
	Status    Status    `json:"status"`
	RiskLevel RiskLevel `json:"riskLevel"`
	Issues    []Issue   `json:"issues"`
}

// Rule deducts Penalty from the score when Applies holds.
type Rule struct {
	Name    string
	Penalty int
	Issue   Issue
	Applies func(shipment.Record) bool
}

// MinHSCodeLength is the shortest HS code accepted (the 6-digit subheading).
const MinHSCodeLength = 6

// DefaultRules returns the production rule set in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "hs-code",
			Penalty: 20,
			Issue: Issue{
				Severity:   SeverityError,
				Category:   "HS Code",
				Message:    "Invalid or missing HS Code",
				Suggestion: "Provide a valid 6-digit HS Code",
			},
			Applies: func(r shipment.Record) bool {
				return shipment.UsesHSCode(r.Classification) && len(shipment.HSCode(r.Classification)) < MinHSCodeLength
			},
		},
		{
			Name:    "us-eu",
			Penalty: 10,
			Issue: Issue{
				Severity:   SeverityWarning,
				Category:   "Trade Regulations",
				Message:    "Special documentation required for US-EU trade",
				Suggestion: "Include EUR.1 movement certificate",
			},
			Applies: func(r shipment.Record) bool {
				return r.Origin == shipment.UnitedStates && r.Destination == shipment.Europe
			},
		},
		{
			Name:    "invoice",
			Penalty: 15,
			Issue: Issue{
				Severity:   SeverityError,
				Category:   "Documentation",
				Message:    "Missing commercial invoice",
				Suggestion: "Upload commercial invoice in PDF format",
			},
			Applies: func(r shipment.Record) bool {
				return !r.HasCommercialInvoice()
			},
		},
	}
}

type Scorer struct {
	rules []Rule
}

// NewScorer returns a scorer over rules, or DefaultRules when none are given.
func NewScorer(rules ...Rule) *Scorer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Scorer{rules: rules}
}

// Evaluate starts at 100 and subtracts every applicable penalty. There is
// no floor. Issues are in rule order and never nil.
func (s *Scorer) Evaluate(r shipment.Record) Result {
	score := 100
	issues := []Issue{}
	for _, rule := range s.rules {
		if rule.Applies(r) {
			score -= rule.Penalty
			issues = append(issues, rule.Issue)
		}
	}

	status, risk := Classify(score)
	return Result{
		Score:     score,
		Status:    status,
		RiskLevel: risk,
		Issues:    issues,
	}
}

// Classify maps a score to its tier: >= 90 compliant, 70-89 flagged,
// below 70 pending review.
func Classify(score int) (Status, RiskLevel) {
	switch {
	case score >= 90:
		return StatusCompliant, RiskLow
	case score >= 70:
		return StatusFlagged, RiskMedium
	default:
		return StatusPending, RiskHigh
	}
}
