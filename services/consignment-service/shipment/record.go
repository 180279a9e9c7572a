// Package shipment holds the shipment record assembled by the intake form
// and scored by the compliance checker, plus its derivation rules.
package shipment

import (
	"github.com/tradeguard/platform/shared/contracts"
)

// Party is the exporter or the consignee.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Document is an uploaded file. The record treats it as an opaque handle.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

type Documents struct {
	CommercialInvoice *Document
	PackingList       *Document
}

// Classification is either an HS code or a category pair, never both.
type Classification interface {
	isClassification()
}

type HSCodeClassification struct {
	Code string
}

type CategoryClassification struct {
	MainCategory string
	SubCategory  string
}

func (HSCodeClassification) isClassification()   {}
func (CategoryClassification) isClassification() {}

// UsesHSCode reports whether c is in HS-code mode. A nil classification
// counts as HS-code mode with no code.
func UsesHSCode(c Classification) bool {
	_, isCategory := c.(CategoryClassification)
	return !isCategory
}

// HSCode returns the code of an HS-code classification, or "".
func HSCode(c Classification) string {
	if hs, ok := c.(HSCodeClassification); ok {
		return hs.Code
	}
	return ""
}

// Record is the complete intake payload.
type Record struct {
	Exporter          Party
	Consignee         Party
	LogisticsProvider string

	ShipmentID    string
	ShipmentDate  string // YYYY-MM-DD
	PackageCount  int
	TotalWeight   float64
	Dimensions    Dimensions
	DeclaredValue float64
	Currency      string
	Origin        Country
	Destination   Country

	ItemDescription      string
	Classification       Classification
	Quantity             int
	ItemWeight           float64
	PackagingType        string
	HandlingInstructions string

	Documents Documents
}

// HasCommercialInvoice reports whether an invoice handle is attached.
func (r Record) HasCommercialInvoice() bool {
	return r.Documents.CommercialInvoice != nil
}

// FromConsignment rebuilds a record from a stored consignment so it can be
// scored. Stored consignments always carry a resolved HS code.
func FromConsignment(c contracts.Consignment) Record {
	r := Record{
		Exporter: Party{
			Name:    c.SenderName,
			Address: c.SenderAddress,
			Email:   c.SenderMail,
			Phone:   c.SenderPhone,
		},
		Consignee: Party{
			Name:    c.ReceiverName,
			Address: c.ReceiverAddress,
		},
		ShipmentID:           c.ShipmentID,
		ShipmentDate:         c.ShipmentDate,
		PackageCount:         c.PackageQuantity,
		TotalWeight:          c.TotalWeight,
		Origin:               Country(c.SenderCountry),
		Destination:          Country(c.ReceiverCountry),
		ItemDescription:      c.ItemDesc,
		Classification:       HSCodeClassification{Code: c.HSCode},
		HandlingInstructions: c.HandlingInst,
	}
	if len(c.CommercialInvoice) > 0 || c.HasCommercialInvoice {
		r.Documents.CommercialInvoice = &Document{
			Name:        "invoice_" + c.ShipmentID + ".pdf",
			ContentType: "application/pdf",
			Data:        c.CommercialInvoice,
		}
	}
	return r
}
