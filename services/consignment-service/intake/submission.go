package intake

import (
	"context"
	"strconv"

	"github.com/tradeguard/platform/services/consignment-service/shipment"
)

// Multipart field names of the add-consignment endpoint.
const (
	FieldSenderName        = "sender_name"
	FieldSenderAddress     = "sender_address"
	FieldSenderCountry     = "sender_country"
	FieldSenderMail        = "sender_mail"
	FieldSenderPhone       = "sender_phone"
	FieldReceiverName      = "receiver_name"
	FieldReceiverAddress   = "receiver_address"
	FieldReceiverCountry   = "receiver_country"
	FieldShipmentID        = "shipment_id"
	FieldShipmentDate      = "shipment_date"
	FieldPackageQuantity   = "PackageQuantity"
	FieldHSCode            = "HS_code"
	FieldTotalWeight       = "totalWeight"
	FieldItemDesc          = "Item_desc"
	FieldHandlingInst      = "handling_inst"
	FieldCommercialInvoice = "commercial_invoice"
)

// Submission is what the form hands to the backend.
type Submission struct {
	SenderName        string
	SenderAddress     string
	SenderCountry     shipment.Country
	SenderMail        string
	SenderPhone       string
	ReceiverName      string
	ReceiverAddress   string
	ReceiverCountry   shipment.Country
	ShipmentID        string
	ShipmentDate      string
	PackageQuantity   int
	HSCode            string
	TotalWeight       float64
	ItemDesc          string
	HandlingInst      string
	CommercialInvoice *shipment.Document
}

// NewSubmission flattens r. hsCode is the code to send, which in category
// mode is the resolved one.
func NewSubmission(r shipment.Record, hsCode string) Submission {
	return Submission{
		SenderName:        r.Exporter.Name,
		SenderAddress:     r.Exporter.Address,
		SenderCountry:     r.Origin,
		SenderMail:        r.Exporter.Email,
		SenderPhone:       r.Exporter.Phone,
		ReceiverName:      r.Consignee.Name,
		ReceiverAddress:   r.Consignee.Address,
		ReceiverCountry:   r.Destination,
		ShipmentID:        r.ShipmentID,
		ShipmentDate:      r.ShipmentDate,
		PackageQuantity:   r.PackageCount,
		HSCode:            hsCode,
		TotalWeight:       r.TotalWeight,
		ItemDesc:          r.ItemDescription,
		HandlingInst:      r.HandlingInstructions,
		CommercialInvoice: r.Documents.CommercialInvoice,
	}
}

// Fields returns the text parts of the multipart body.
func (s Submission) Fields() map[string]string {
	return map[string]string{
		FieldSenderName:      s.SenderName,
		FieldSenderAddress:   s.SenderAddress,
		FieldSenderCountry:   string(s.SenderCountry),
		FieldSenderMail:      s.SenderMail,
		FieldSenderPhone:     s.SenderPhone,
		FieldReceiverName:    s.ReceiverName,
		FieldReceiverAddress: s.ReceiverAddress,
		FieldReceiverCountry: string(s.ReceiverCountry),
		FieldShipmentID:      s.ShipmentID,
		FieldShipmentDate:    s.ShipmentDate,
		FieldPackageQuantity: strconv.Itoa(s.PackageQuantity),
		FieldHSCode:          s.HSCode,
		FieldTotalWeight:     strconv.FormatFloat(s.TotalWeight, 'f', -1, 64),
		FieldItemDesc:        s.ItemDesc,
		FieldHandlingInst:    s.HandlingInst,
	}
}

// SubmitResult is the backend's answer to an accepted submission.
type SubmitResult struct {
	UUID    string `json:"uuid"`
	Message string `json:"message"`
}

// Submitter delivers a submission, typically over HTTP with a session.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (SubmitResult, error)
}

// HSCodeResolver maps a category pair to an HS code for a destination.
// Submitters that also implement it let category-mode forms submit.
type HSCodeResolver interface {
	ResolveHSCode(ctx context.Context, mainCategory, subCategory string, destination shipment.Country) (string, error)
}
