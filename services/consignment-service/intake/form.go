// Package intake manages the four-step shipment intake form: field
// updates, the derived shipment ID, cross-field checks and submission.
package intake

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"

	"github.com/tradeguard/platform/services/consignment-service/shipment"
)

type Step int

const (
	StepParties Step = iota + 1
	StepShipment
	StepProduct
	StepDocuments
)

var stepTitles = map[Step]string{
	StepParties:   "Exporter & Consignee Details",
	StepShipment:  "Shipment Information",
	StepProduct:   "Product Details",
	StepDocuments: "Documentation",
}

func (s Step) Title() string { return stepTitles[s] }

var (
	ErrNotFinalStep       = errors.New("submission is only possible from the documentation step")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrUnknownField       = errors.New("unknown form field")
	ErrReadOnlyField      = errors.New("field is derived and cannot be set")
	ErrInvalidValue       = errors.New("invalid field value")
	ErrHSCodeUnresolved   = errors.New("no HS code resolver available for category mode")
	ErrEmptyDocument      = errors.New("document is empty")
)

// DocumentKind names an upload slot.
type DocumentKind string

const (
	CommercialInvoice DocumentKind = "commercialInvoice"
	PackingList       DocumentKind = "packingList"
)

// Form is safe for concurrent use.
type Form struct {
	mu     sync.Mutex
	ids    *shipment.IDGenerator
	step   Step
	record shipment.Record
	errs   map[string]string

	useHSCode    bool
	hsCode       string
	mainCategory string
	subCategory  string

	submitting bool
}

type Option func(*Form)

// WithIDGenerator sets the shipment ID source.
func WithIDGenerator(g *shipment.IDGenerator) Option {
	return func(f *Form) { f.ids = g }
}

// NewForm returns an empty form on step 1 in HS-code mode.
func NewForm(opts ...Option) *Form {
	f := &Form{
		ids:       shipment.NewIDGenerator(),
		step:      StepParties,
		errs:      map[string]string{},
		useHSCode: true,
	}
	f.record.Currency = "USD"
	f.record.Classification = shipment.HSCodeClassification{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Form) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Next advances one step, stopping at the last.
func (f *Form) Next() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step < StepDocuments {
		f.step++
	}
	return f.step
}

// Previous goes back one step, stopping at the first.
func (f *Form) Previous() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step > StepParties {
		f.step--
	}
	return f.step
}

// Record returns a copy of the current record.
func (f *Form) Record() shipment.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record
}

// Errors returns the current field errors.
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.errs)
}

func (f *Form) UseHSCode() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.useHSCode
}

// Set applies one field change using the web form's field names. A
// rejected value is not committed and its message is kept as the field
// error until a valid value arrives.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := &f.record
	switch field {
	case "originCountry", "destinationCountry", "shipmentDate":
		return f.setRouting(field, value)
	case "shipmentId":
		return fmt.Errorf("%w: %s", ErrReadOnlyField, field)

	case "exporterName":
		r.Exporter.Name = value
	case "exporterAddress":
		r.Exporter.Address = value
	case "exporterEmail":
		r.Exporter.Email = value
	case "exporterPhone":
		r.Exporter.Phone = value
	case "consigneeName":
		r.Consignee.Name = value
	case "consigneeAddress":
		r.Consignee.Address = value
	case "consigneeEmail":
		r.Consignee.Email = value
	case "consigneePhone":
		r.Consignee.Phone = value
	case "logisticsProvider":
		r.LogisticsProvider = value
	case "currency":
		r.Currency = value
	case "itemDescription":
		r.ItemDescription = value
	case "packagingType":
		r.PackagingType = value
	case "handlingInstructions":
		r.HandlingInstructions = value

	case "hsCode":
		f.hsCode = value
		f.syncClassification()
	case "mainCategory":
		f.mainCategory = value
		f.syncClassification()
	case "subCategory":
		f.subCategory = value
		f.syncClassification()

	case "packageCount":
		return f.setInt(field, value, &r.PackageCount)
	case "quantity":
		return f.setInt(field, value, &r.Quantity)
	case "weight":
		return f.setFloat(field, value, &r.TotalWeight)
	case "itemWeight":
		return f.setFloat(field, value, &r.ItemWeight)
	case "declaredValue":
		return f.setFloat(field, value, &r.DeclaredValue)
	case "dimensions.length":
		return f.setFloat(field, value, &r.Dimensions.Length)
	case "dimensions.width":
		return f.setFloat(field, value, &r.Dimensions.Width)
	case "dimensions.height":
		return f.setFloat(field, value, &r.Dimensions.Height)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	delete(f.errs, field)
	return nil
}

// setRouting runs the country check before anything else, then
// regenerates the shipment ID from the new triple.
func (f *Form) setRouting(field, value string) error {
	origin, destination, date := f.record.Origin, f.record.Destination, f.record.ShipmentDate

	switch field {
	case "shipmentDate":
		date = value
	default:
		c, err := shipment.ParseCountry(value)
		if err != nil {
			f.errs[field] = "Select one of the available countries"
			return err
		}
		if field == "originCountry" {
			origin = c
		} else {
			destination = c
		}
		if err := shipment.ValidateCountries(origin, destination); err != nil {
			f.errs[field] = err.Error()
			return err
		}
	}

	f.record.Origin, f.record.Destination, f.record.ShipmentDate = origin, destination, date
	f.record.ShipmentID = f.ids.Derive(origin, destination, date)
	delete(f.errs, field)
	if field != "shipmentDate" {
		delete(f.errs, "originCountry")
		delete(f.errs, "destinationCountry")
	}
	return nil
}

func (f *Form) setInt(field, value string, dst *int) error {
	if strings.TrimSpace(value) == "" {
		*dst = 0
		delete(f.errs, field)
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		f.errs[field] = "Enter a whole number of 0 or more"
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, field, value)
	}
	*dst = n
	delete(f.errs, field)
	return nil
}

func (f *Form) setFloat(field, value string, dst *float64) error {
	if strings.TrimSpace(value) == "" {
		*dst = 0
		delete(f.errs, field)
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v < 0 {
		f.errs[field] = "Enter a number of 0 or more"
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, field, value)
	}
	*dst = v
	delete(f.errs, field)
	return nil
}

// SetUseHSCode switches classification mode. Values typed in the other
// mode are kept and come back when switching again.
func (f *Form) SetUseHSCode(use bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.useHSCode = use
	f.syncClassification()
}

func (f *Form) syncClassification() {
	if f.useHSCode {
		f.record.Classification = shipment.HSCodeClassification{Code: f.hsCode}
		delete(f.errs, "mainCategory")
		delete(f.errs, "subCategory")
		return
	}
	f.record.Classification = shipment.CategoryClassification{
		MainCategory: f.mainCategory,
		SubCategory:  f.subCategory,
	}
	delete(f.errs, "hsCode")
}

// Attach stores an uploaded document; nil removes it.
func (f *Form) Attach(kind DocumentKind, doc *shipment.Document) error {
	if doc != nil && len(doc.Data) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyDocument, kind)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch kind {
	case CommercialInvoice:
		f.record.Documents.CommercialInvoice = doc
	case PackingList:
		f.record.Documents.PackingList = doc
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, kind)
	}
	delete(f.errs, string(kind))
	return nil
}

// Validate reports required fields that are still missing across all
// steps. Only the active classification's fields are required.
func (f *Form) Validate() shipment.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validate(StepParties, StepDocuments)
}

// ValidateStep reports missing required fields of a single step.
func (f *Form) ValidateStep(s Step) shipment.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validate(s, s)
}

func (f *Form) validate(from, to Step) shipment.FieldErrors {
	r := f.record
	errs := shipment.FieldErrors{}
	need := func(step Step, field string, ok bool) {
		if step >= from && step <= to && !ok {
			errs[field] = "is required"
		}
	}

	need(StepParties, "exporterName", r.Exporter.Name != "")
	need(StepParties, "exporterAddress", r.Exporter.Address != "")
	need(StepParties, "exporterEmail", r.Exporter.Email != "")
	need(StepParties, "exporterPhone", r.Exporter.Phone != "")
	need(StepParties, "originCountry", r.Origin != "")
	need(StepParties, "consigneeName", r.Consignee.Name != "")
	need(StepParties, "consigneeAddress", r.Consignee.Address != "")
	need(StepParties, "consigneeEmail", r.Consignee.Email != "")
	need(StepParties, "consigneePhone", r.Consignee.Phone != "")
	need(StepParties, "destinationCountry", r.Destination != "")

	need(StepShipment, "shipmentDate", r.ShipmentDate != "")
	need(StepShipment, "shipmentId", r.ShipmentID != "")
	need(StepShipment, "packageCount", r.PackageCount > 0)
	need(StepShipment, "weight", r.TotalWeight > 0)

	need(StepProduct, "itemDescription", r.ItemDescription != "")
	switch c := r.Classification.(type) {
	case shipment.CategoryClassification:
		need(StepProduct, "mainCategory", c.MainCategory != "")
		need(StepProduct, "subCategory", c.SubCategory != "")
	default:
		need(StepProduct, "hsCode", shipment.HSCode(c) != "")
	}
	need(StepProduct, "dimensions.length", r.Dimensions.Length > 0)
	need(StepProduct, "dimensions.width", r.Dimensions.Width > 0)
	need(StepProduct, "dimensions.height", r.Dimensions.Height > 0)
	need(StepProduct, "packagingType", r.PackagingType != "")

	need(StepDocuments, string(CommercialInvoice), r.HasCommercialInvoice())

	// pending rejections also block
	for field, msg := range f.errs {
		if _, ok := errs[field]; !ok && fieldStep(field) >= from && fieldStep(field) <= to {
			errs[field] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func fieldStep(field string) Step {
	switch field {
	case "shipmentDate", "packageCount", "weight", "logisticsProvider", "declaredValue", "currency":
		return StepShipment
	case "itemDescription", "hsCode", "mainCategory", "subCategory", "quantity", "itemWeight",
		"packagingType", "handlingInstructions", "dimensions.length", "dimensions.width", "dimensions.height":
		return StepProduct
	case string(CommercialInvoice), string(PackingList):
		return StepDocuments
	default:
		return StepParties
	}
}

// Submit validates the form and hands it to s. It is only allowed from the
// documentation step, and only one submission may run at a time. In
// category mode the HS code is resolved through s first.
func (f *Form) Submit(ctx context.Context, s Submitter) (SubmitResult, error) {
	f.mu.Lock()
	if f.step != StepDocuments {
		f.mu.Unlock()
		return SubmitResult{}, ErrNotFinalStep
	}
	if f.submitting {
		f.mu.Unlock()
		return SubmitResult{}, ErrSubmissionInFlight
	}
	if errs := f.validate(StepParties, StepDocuments); errs != nil {
		f.mu.Unlock()
		return SubmitResult{}, errs
	}
	f.submitting = true
	record := f.record
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	hsCode := shipment.HSCode(record.Classification)
	if c, ok := record.Classification.(shipment.CategoryClassification); ok {
		resolver, ok := s.(HSCodeResolver)
		if !ok {
			return SubmitResult{}, ErrHSCodeUnresolved
		}
		code, err := resolver.ResolveHSCode(ctx, c.MainCategory, c.SubCategory, record.Destination)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("resolve hs code: %w", err)
		}
		hsCode = code
	}

	return s.Submit(ctx, NewSubmission(record, hsCode))
}
