package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeguard/platform/services/consignment-service/intake"
	"github.com/tradeguard/platform/services/consignment-service/shipment"
)

const hsAnswers = `
fields:
  exporterName: Acme Exports
  exporterAddress: 12 MG Road, Pune
  exporterEmail: ops@acme.in
  exporterPhone: "+91 20 5555 0101"
  consigneeName: Globex
  consigneeAddress: 1 Main St, Springfield
  consigneeEmail: imports@globex.com
  consigneePhone: "+1 555 0100"
  originCountry: IN
  destinationCountry: US
  shipmentDate: "2024-03-15"
  packageCount: "3"
  weight: "42.5"
  dimensions.length: "40"
  dimensions.width: "30"
  dimensions.height: "20"
  itemDescription: Cotton shirts
  packagingType: Carton
  hsCode: "620520"
documents:
  commercialInvoice: invoice.pdf
`

const categoryAnswers = `{
  "useHsCode": false,
  "fields": {
    "exporterName": "Acme Exports",
    "exporterAddress": "12 MG Road, Pune",
    "exporterEmail": "ops@acme.in",
    "exporterPhone": "+91 20 5555 0101",
    "consigneeName": "Globex",
    "consigneeAddress": "1 Main St, Springfield",
    "consigneeEmail": "imports@globex.com",
    "consigneePhone": "+1 555 0100",
    "originCountry": "IN",
    "destinationCountry": "US",
    "shipmentDate": "2024-03-15",
    "packageCount": "3",
    "weight": "42.5",
    "dimensions.length": "40",
    "dimensions.width": "30",
    "dimensions.height": "20",
    "itemDescription": "Cotton shirts",
    "packagingType": "Carton",
    "mainCategory": "Textiles",
    "subCategory": "Cotton Shirts"
  },
  "documents": {"commercialInvoice": "invoice.pdf"}
}`

// writeAnswers puts an answers file and a dummy invoice in a fresh dir.
func writeAnswers(t *testing.T, name, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice.pdf"), []byte("%PDF-1.4"), 0o600))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestAnswersForm(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		body      string
		useHSCode bool
	}{
		{"yaml with hs code", "answers.yaml", hsAnswers, true},
		{"json with categories", "answers.json", categoryAnswers, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := LoadAnswers(writeAnswers(t, tt.file, tt.body))
			require.NoError(t, err)

			f, err := a.Form()
			require.NoError(t, err)
			assert.Equal(t, intake.StepDocuments, f.Step())
			assert.Equal(t, tt.useHSCode, f.UseHSCode())
			assert.Nil(t, f.Validate())

			r := f.Record()
			assert.True(t, strings.HasPrefix(r.ShipmentID, "IN-US-240315-"), r.ShipmentID)
			assert.Equal(t, 3, r.PackageCount)
			require.True(t, r.HasCommercialInvoice())
			assert.Equal(t, "invoice.pdf", r.Documents.CommercialInvoice.Name)
			assert.Equal(t, []byte("%PDF-1.4"), r.Documents.CommercialInvoice.Data)
		})
	}
}

func TestAnswersFormCollectsErrors(t *testing.T) {
	body := `
fields:
  packageCount: three
  originCountry: XX
  shipmentId: IN-US-240315-1234
documents:
  commercialInvoice: missing.pdf
`
	a, err := LoadAnswers(writeAnswers(t, "answers.yaml", body))
	require.NoError(t, err)

	_, err = a.Form()
	errs, ok := shipment.AsFieldErrors(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, errs, "packageCount")
	assert.Contains(t, errs, "originCountry")
	assert.Contains(t, errs, "shipmentId")
	assert.Contains(t, errs, string(intake.CommercialInvoice))
}

func TestAnswersFormRejectsEmptyInvoice(t *testing.T) {
	path := writeAnswers(t, "answers.yaml", "documents:\n  commercialInvoice: empty.pdf\n")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "empty.pdf"), nil, 0o600))
	a, err := LoadAnswers(path)
	require.NoError(t, err)

	_, err = a.Form()
	errs, ok := shipment.AsFieldErrors(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, errs[string(intake.CommercialInvoice)], "document is empty")
}

func TestFieldErrorsListedInOrder(t *testing.T) {
	var out bytes.Buffer
	err := fieldErrors(&out, shipment.FieldErrors{
		"weight":        "must be a non-negative number",
		"originCountry": "must be one of: IN, EU, UK, US",
		"packageCount":  "must be a non-negative integer",
	})
	assert.EqualError(t, err, "3 field(s) need attention")
	assert.Equal(t, "  originCountry: must be one of: IN, EU, UK, US\n"+
		"  packageCount: must be a non-negative integer\n"+
		"  weight: must be a non-negative number\n", out.String())

	plain := errors.New("connection refused")
	assert.Equal(t, plain, fieldErrors(&out, plain))
}

func TestLoadAnswersErrors(t *testing.T) {
	_, err := LoadAnswers(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = LoadAnswers(writeAnswers(t, "bad.yaml", "fields: [unterminated"))
	assert.ErrorContains(t, err, "parse answers")
}

func TestAnswersPayload(t *testing.T) {
	a, err := LoadAnswers(writeAnswers(t, "answers.json", categoryAnswers))
	require.NoError(t, err)

	p := a.Payload()
	assert.Equal(t, "IN", p.OriginCountry)
	assert.Equal(t, "Textiles", p.MainCategory)
	assert.Equal(t, "30", p.Dimensions.Width)
	require.NotNil(t, p.UseHSCode)
	assert.False(t, *p.UseHSCode)
	assert.True(t, p.CommercialInvoice)
	assert.False(t, p.PackingList)
}
