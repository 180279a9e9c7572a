package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tradeguard/platform/services/consignment-service/intake"
	"github.com/tradeguard/platform/services/consignment-service/shipment"
)

// Answers is an intake form filled in ahead of time. Keys of Fields are the
// web form's field names; JSON files load too.
//
//	useHsCode: false
//	fields:
//	  exporterName: Acme Exports
//	  mainCategory: Textiles
//	documents:
//	  commercialInvoice: ./invoice.pdf
type Answers struct {
	UseHSCode *bool             `yaml:"useHsCode"`
	Fields    map[string]string `yaml:"fields"`
	Documents struct {
		CommercialInvoice string `yaml:"commercialInvoice"`
		PackingList       string `yaml:"packingList"`
	} `yaml:"documents"`

	// dir resolves relative document paths.
	dir string
}

// LoadAnswers reads a YAML or JSON answers file.
func LoadAnswers(path string) (Answers, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Answers{}, fmt.Errorf("read answers: %w", err)
	}
	var a Answers
	if err := yaml.Unmarshal(raw, &a); err != nil {
		return Answers{}, fmt.Errorf("parse answers %s: %w", path, err)
	}
	a.dir = filepath.Dir(path)
	return a, nil
}

// Form replays the answers into a new intake form positioned on the
// documentation step. Rejected values are returned together as
// shipment.FieldErrors.
func (a Answers) Form(opts ...intake.Option) (*intake.Form, error) {
	f := intake.NewForm(opts...)
	if a.UseHSCode != nil {
		f.SetUseHSCode(*a.UseHSCode)
	}

	errs := shipment.FieldErrors{}
	// sorted so repeated runs report the same errors
	keys := make([]string, 0, len(a.Fields))
	for k := range a.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := f.Set(k, strings.TrimSpace(a.Fields[k])); err != nil {
			errs[k] = err.Error()
		}
	}

	for kind, path := range map[intake.DocumentKind]string{
		intake.CommercialInvoice: a.Documents.CommercialInvoice,
		intake.PackingList:       a.Documents.PackingList,
	} {
		if path == "" {
			continue
		}
		doc, err := a.readDocument(path)
		if err != nil {
			errs[string(kind)] = err.Error()
			continue
		}
		if err := f.Attach(kind, doc); err != nil {
			errs[string(kind)] = err.Error()
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	for f.Step() != intake.StepDocuments {
		f.Next()
	}
	return f, nil
}

func (a Answers) readDocument(path string) (*shipment.Document, error) {
	if !filepath.IsAbs(path) && a.dir != "" {
		path = filepath.Join(a.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &shipment.Document{
		Name:        filepath.Base(path),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// Payload maps the answers onto the compliance-check request body.
func (a Answers) Payload() shipment.FormPayload {
	v := a.Fields
	p := shipment.FormPayload{
		ExporterName:         v["exporterName"],
		ExporterAddress:      v["exporterAddress"],
		ExporterEmail:        v["exporterEmail"],
		ExporterPhone:        v["exporterPhone"],
		ConsigneeName:        v["consigneeName"],
		ConsigneeAddress:     v["consigneeAddress"],
		ConsigneeEmail:       v["consigneeEmail"],
		ConsigneePhone:       v["consigneePhone"],
		LogisticsProvider:    v["logisticsProvider"],
		ShipmentDate:         v["shipmentDate"],
		PackageCount:         v["packageCount"],
		Weight:               v["weight"],
		DeclaredValue:        v["declaredValue"],
		Currency:             v["currency"],
		OriginCountry:        v["originCountry"],
		DestinationCountry:   v["destinationCountry"],
		ItemDescription:      v["itemDescription"],
		UseHSCode:            a.UseHSCode,
		HSCode:               v["hsCode"],
		MainCategory:         v["mainCategory"],
		SubCategory:          v["subCategory"],
		Quantity:             v["quantity"],
		ItemWeight:           v["itemWeight"],
		PackagingType:        v["packagingType"],
		HandlingInstructions: v["handlingInstructions"],
		CommercialInvoice:    a.Documents.CommercialInvoice != "",
		PackingList:          a.Documents.PackingList != "",
	}
	p.Dimensions.Length = v["dimensions.length"]
	p.Dimensions.Width = v["dimensions.width"]
	p.Dimensions.Height = v["dimensions.height"]
	return p
}
