package contracts

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceStatus is the review state stored with every consignment.
type ComplianceStatus string

const (
	CompliancePending   ComplianceStatus = "pending"
	ComplianceCompliant ComplianceStatus = "compliant"
	ComplianceFlagged   ComplianceStatus = "flagged"
)

// Valid reports whether s is one of the three stored states.
func (s ComplianceStatus) Valid() bool {
	switch s {
	case CompliancePending, ComplianceCompliant, ComplianceFlagged:
		return true
	}
	return false
}

// Consignment is the single source of truth for a submitted shipment.
// The consignment API, the compliance workflow and the communications
// bridge all use this struct. JSON names match what the web client reads.
type Consignment struct {
	UUID            uuid.UUID `json:"uuid"`
	SenderName      string    `json:"sender_name"`
	SenderAddress   string    `json:"sender_address"`
	SenderCountry   string    `json:"sender_country"`
	SenderMail      string    `json:"sender_mail"`
	SenderPhone     string    `json:"sender_phone"`
	ReceiverName    string    `json:"receiver_name"`
	ReceiverAddress string    `json:"receiver_address"`
	ReceiverCountry string    `json:"receiver_country"`
	ShipmentID      string    `json:"shipment_id"`
	ShipmentDate    string    `json:"shipment_date"` // YYYY-MM-DD
	PackageQuantity int       `json:"package_quantity"`
	HSCode          string    `json:"hs_code"`
	TotalWeight     float64   `json:"total_weight"`
	ItemDesc        string    `json:"item_desc"`
	HandlingInst    string    `json:"handling_inst"`

	// CommercialInvoice holds the uploaded PDF. List queries leave it nil and
	// only fill HasCommercialInvoice.
	CommercialInvoice    []byte `json:"-"`
	HasCommercialInvoice bool   `json:"has_commercial_invoice"`

	Compliant ComplianceStatus `json:"compliant"`
	CreatedAt time.Time        `json:"created_at"`
}

// Event names published on the consignment topic.
const (
	EventConsignmentCreated     = "consignment.created"
	EventComplianceUpdated      = "consignment.compliance_updated"
	EventComplianceChecked      = "consignment.compliance_checked"
	ComplianceCheckTaskQueue    = "COMPLIANCE_TASK_QUEUE"
	ComplianceCheckWorkflowName = "ComplianceCheckWorkflow"
)

// ConsignmentEvent is the envelope written to Kafka. The consignment UUID is
// the message key so every event for one consignment lands on one partition.
type ConsignmentEvent struct {
	Event      string                  `json:"event"`
	Payload    ConsignmentEventPayload `json:"payload"`
	OccurredAt time.Time               `json:"occurred_at"`
}

// ConsignmentEventPayload carries what downstream consumers need without the
// invoice bytes or party contact details.
type ConsignmentEventPayload struct {
	UUID            uuid.UUID        `json:"uuid"`
	ShipmentID      string           `json:"shipment_id"`
	SenderName      string           `json:"sender_name"`
	SenderCountry   string           `json:"sender_country"`
	ReceiverCountry string           `json:"receiver_country"`
	Compliant       ComplianceStatus `json:"compliant"`
	Score           *int             `json:"score,omitempty"`
	RiskLevel       string           `json:"risk_level,omitempty"`
	IssueCount      int              `json:"issue_count,omitempty"`
}

// NewConsignmentEvent builds an event envelope for c.
func NewConsignmentEvent(event string, c Consignment) ConsignmentEvent {
	return ConsignmentEvent{
		Event: event,
		Payload: ConsignmentEventPayload{
			UUID:            c.UUID,
			ShipmentID:      c.ShipmentID,
			SenderName:      c.SenderName,
			SenderCountry:   c.SenderCountry,
			ReceiverCountry: c.ReceiverCountry,
			Compliant:       c.Compliant,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// EventType lets publishers label metrics without knowing the payload type.
func (e ConsignmentEvent) EventType() string { return e.Event }
