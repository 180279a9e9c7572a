package intake

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeguard/platform/services/consignment-service/shipment"
)

func fixedIDs(n ...int) *shipment.IDGenerator {
	i := 0
	return shipment.NewIDGenerator(shipment.WithDraw(func() int {
		v := n[i%len(n)]
		i++
		return v
	}))
}

func setAll(t *testing.T, f *Form, fields map[string]string) {
	t.Helper()
	for k, v := range fields {
		require.NoError(t, f.Set(k, v), k)
	}
}

// completeForm fills every required field in HS-code mode and moves to step 4.
func completeForm(t *testing.T) *Form {
	t.Helper()
	f := NewForm(WithIDGenerator(fixedIDs(4821)))
	setAll(t, f, map[string]string{
		"exporterName":       "Acme Exports",
		"exporterAddress":    "12 MG Road, Pune",
		"exporterEmail":      "ops@acme.in",
		"exporterPhone":      "+91 20 5555 0101",
		"consigneeName":      "Globex",
		"consigneeAddress":   "1 Main St, Springfield",
		"consigneeEmail":     "imports@globex.com",
		"consigneePhone":     "+1 555 0100",
		"packageCount":       "3",
		"weight":             "42.5",
		"itemDescription":    "Cotton shirts",
		"hsCode":             "620520",
		"dimensions.length":  "40",
		"dimensions.width":   "30",
		"dimensions.height":  "20",
		"packagingType":      "Carton",
	})
	require.NoError(t, f.Set("handlingInstructions", "Keep dry"))
	require.NoError(t, f.Set("originCountry", "IN"))
	require.NoError(t, f.Set("destinationCountry", "US"))
	require.NoError(t, f.Set("shipmentDate", "2024-03-15"))
	require.NoError(t, f.Attach(CommercialInvoice, &shipment.Document{Name: "invoice.pdf", Data: []byte("%PDF")}))
	for f.Step() != StepDocuments {
		f.Next()
	}
	return f
}

func TestStepBounds(t *testing.T) {
	f := NewForm()
	assert.Equal(t, StepParties, f.Previous())
	assert.Equal(t, StepShipment, f.Next())
	assert.Equal(t, StepProduct, f.Next())
	assert.Equal(t, StepDocuments, f.Next())
	assert.Equal(t, StepDocuments, f.Next())
	assert.Equal(t, "Documentation", f.Step().Title())
	assert.Equal(t, StepProduct, f.Previous())
}

func TestShipmentIDDerivation(t *testing.T) {
	f := NewForm(WithIDGenerator(fixedIDs(1111, 2222, 3333)))

	require.NoError(t, f.Set("originCountry", "IN"))
	require.NoError(t, f.Set("destinationCountry", "US"))
	assert.Empty(t, f.Record().ShipmentID, "no id until the date is set")

	require.NoError(t, f.Set("shipmentDate", "2024-03-15"))
	assert.Equal(t, "IN-US-240315-1111", f.Record().ShipmentID)

	// any edit of the triple redraws the nonce
	require.NoError(t, f.Set("shipmentDate", "2024-03-16"))
	assert.Equal(t, "IN-US-240316-2222", f.Record().ShipmentID)

	require.NoError(t, f.Set("shipmentDate", ""))
	assert.Empty(t, f.Record().ShipmentID)

	assert.ErrorIs(t, f.Set("shipmentId", "MANUAL"), ErrReadOnlyField)
}

func TestSameCountryRejected(t *testing.T) {
	f := NewForm(WithIDGenerator(fixedIDs(5000, 6000)))
	require.NoError(t, f.Set("originCountry", "UK"))
	require.NoError(t, f.Set("destinationCountry", "EU"))
	require.NoError(t, f.Set("shipmentDate", "2024-01-02"))
	before := f.Record()

	err := f.Set("destinationCountry", "UK")
	assert.ErrorIs(t, err, shipment.ErrSameCountry)

	after := f.Record()
	assert.Equal(t, shipment.Europe, after.Destination, "rejected value is not committed")
	assert.Equal(t, before.ShipmentID, after.ShipmentID, "id is not regenerated")
	assert.Equal(t, "Origin and destination countries cannot be the same", f.Errors()["destinationCountry"])

	require.NoError(t, f.Set("destinationCountry", "US"))
	assert.Empty(t, f.Errors())
	assert.Equal(t, "UK-US-240102-6000", f.Record().ShipmentID)
}

func TestNumericFieldKeepsLastValidValue(t *testing.T) {
	f := NewForm()
	require.NoError(t, f.Set("packageCount", "4"))

	assert.ErrorIs(t, f.Set("packageCount", "four"), ErrInvalidValue)
	assert.ErrorIs(t, f.Set("weight", "-1"), ErrInvalidValue)
	assert.Equal(t, 4, f.Record().PackageCount)
	assert.Contains(t, f.Errors(), "packageCount")

	require.NoError(t, f.Set("packageCount", "5"))
	assert.NotContains(t, f.Errors(), "packageCount")
}

func TestUnknownField(t *testing.T) {
	assert.ErrorIs(t, NewForm().Set("colour", "red"), ErrUnknownField)
	assert.ErrorIs(t, NewForm().Set("originCountry", "FR"), shipment.ErrUnknownCountry)
}

func TestAttachRejectsEmptyDocument(t *testing.T) {
	f := NewForm()
	err := f.Attach(CommercialInvoice, &shipment.Document{Name: "invoice.pdf"})
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.False(t, f.Record().HasCommercialInvoice())
	assert.Contains(t, f.Validate(), string(CommercialInvoice))

	require.NoError(t, f.Attach(CommercialInvoice, &shipment.Document{Name: "invoice.pdf", Data: []byte("%PDF")}))
	require.NoError(t, f.Attach(CommercialInvoice, nil))
	assert.False(t, f.Record().HasCommercialInvoice())
}

func TestClassificationToggleRemembersValues(t *testing.T) {
	f := NewForm()
	require.NoError(t, f.Set("hsCode", "620520"))
	f.SetUseHSCode(false)
	require.NoError(t, f.Set("mainCategory", "Textiles"))
	require.NoError(t, f.Set("subCategory", "Cotton Shirts"))
	assert.Equal(t, shipment.CategoryClassification{MainCategory: "Textiles", SubCategory: "Cotton Shirts"}, f.Record().Classification)

	f.SetUseHSCode(true)
	assert.Equal(t, shipment.HSCodeClassification{Code: "620520"}, f.Record().Classification)

	f.SetUseHSCode(false)
	assert.Equal(t, "Textiles", f.Record().Classification.(shipment.CategoryClassification).MainCategory)
}

func TestValidateOnlyRequiresActiveClassification(t *testing.T) {
	f := completeForm(t)
	assert.Nil(t, f.Validate())

	f.SetUseHSCode(false)
	errs := f.Validate()
	assert.Contains(t, errs, "mainCategory")
	assert.Contains(t, errs, "subCategory")
	assert.NotContains(t, errs, "hsCode")

	assert.Contains(t, NewForm().ValidateStep(StepDocuments), "commercialInvoice")
	assert.NotContains(t, NewForm().ValidateStep(StepDocuments), "exporterName")
}

type fakeSubmitter struct {
	mu      sync.Mutex
	got     []Submission
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (s *fakeSubmitter) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	if s.entered != nil {
		close(s.entered)
	}
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, sub)
	return SubmitResult{UUID: "c0ffee", Message: "Consignment added successfully"}, s.err
}

type resolvingSubmitter struct {
	fakeSubmitter
	dest shipment.Country
}

func (r *resolvingSubmitter) ResolveHSCode(ctx context.Context, main, sub string, dest shipment.Country) (string, error) {
	r.dest = dest
	if main == "Textiles" && sub == "Cotton Shirts" {
		return "620520", nil
	}
	return "", errors.New("HS Code not found")
}

func TestSubmitOnlyFromFinalStep(t *testing.T) {
	f := completeForm(t)
	f.Previous()

	_, err := f.Submit(context.Background(), &fakeSubmitter{})
	assert.ErrorIs(t, err, ErrNotFinalStep)
}

func TestSubmitRejectsIncompleteForm(t *testing.T) {
	f := NewForm()
	for i := 0; i < 3; i++ {
		f.Next()
	}
	sub := &fakeSubmitter{}

	_, err := f.Submit(context.Background(), sub)
	fe, ok := shipment.AsFieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fe, "exporterName")
	assert.Empty(t, sub.got)
}

func TestSubmitHandsOffPayload(t *testing.T) {
	f := completeForm(t)
	sub := &fakeSubmitter{}

	res, err := f.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "c0ffee", res.UUID)

	require.Len(t, sub.got, 1)
	fields := sub.got[0].Fields()
	assert.Equal(t, "Acme Exports", fields[FieldSenderName])
	assert.Equal(t, "IN", fields[FieldSenderCountry])
	assert.Equal(t, "US", fields[FieldReceiverCountry])
	assert.Equal(t, "IN-US-240315-4821", fields[FieldShipmentID])
	assert.Equal(t, "3", fields[FieldPackageQuantity])
	assert.Equal(t, "42.5", fields[FieldTotalWeight])
	assert.Equal(t, "620520", fields[FieldHSCode])
	assert.Equal(t, "Keep dry", fields[FieldHandlingInst])
	assert.Equal(t, "invoice.pdf", sub.got[0].CommercialInvoice.Name)
}

func TestSubmitResolvesCategory(t *testing.T) {
	f := completeForm(t)
	f.SetUseHSCode(false)
	require.NoError(t, f.Set("mainCategory", "Textiles"))
	require.NoError(t, f.Set("subCategory", "Cotton Shirts"))

	_, err := f.Submit(context.Background(), &fakeSubmitter{})
	assert.ErrorIs(t, err, ErrHSCodeUnresolved)

	rs := &resolvingSubmitter{}
	_, err = f.Submit(context.Background(), rs)
	require.NoError(t, err)
	assert.Equal(t, shipment.UnitedStates, rs.dest)
	assert.Equal(t, "620520", rs.got[0].HSCode)

	require.NoError(t, f.Set("subCategory", "Silk"))
	_, err = f.Submit(context.Background(), rs)
	assert.ErrorContains(t, err, "HS Code not found")
}

func TestSubmitInFlightGuard(t *testing.T) {
	f := completeForm(t)
	slow := &fakeSubmitter{block: make(chan struct{}), entered: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background(), slow)
		done <- err
	}()
	<-slow.entered

	_, err := f.Submit(context.Background(), &fakeSubmitter{})
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(slow.block)
	require.NoError(t, <-done)

	// guard released after completion
	_, err = f.Submit(context.Background(), &fakeSubmitter{})
	assert.NoError(t, err)
}
