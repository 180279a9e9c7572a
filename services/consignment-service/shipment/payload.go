package shipment

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

// FormPayload is the flat shape the web client posts to the compliance
// check endpoint. Numeric fields arrive as the strings typed in the form.
type FormPayload struct {
	ExporterName      string `json:"exporterName"`
	ExporterAddress   string `json:"exporterAddress"`
	ExporterEmail     string `json:"exporterEmail"`
	ExporterPhone     string `json:"exporterPhone"`
	ConsigneeName     string `json:"consigneeName"`
	ConsigneeAddress  string `json:"consigneeAddress"`
	ConsigneeEmail    string `json:"consigneeEmail"`
	ConsigneePhone    string `json:"consigneePhone"`
	LogisticsProvider string `json:"logisticsProvider"`

	ShipmentID   string `json:"shipmentId"`
	ShipmentDate string `json:"shipmentDate"`
	PackageCount string `json:"packageCount"`
	Weight       string `json:"weight"`
	Dimensions   struct {
		Length string `json:"length"`
		Width  string `json:"width"`
		Height string `json:"height"`
	} `json:"dimensions"`
	DeclaredValue      string `json:"declaredValue"`
	Currency           string `json:"currency"`
	OriginCountry      string `json:"originCountry"`
	DestinationCountry string `json:"destinationCountry"`

	ItemDescription      string `json:"itemDescription"`
	UseHSCode            *bool  `json:"useHsCode"`
	HSCode               string `json:"hsCode"`
	MainCategory         string `json:"mainCategory"`
	SubCategory          string `json:"subCategory"`
	Quantity             string `json:"quantity"`
	ItemWeight           string `json:"itemWeight"`
	PackagingType        string `json:"packagingType"`
	HandlingInstructions string `json:"handlingInstructions"`

	// Presence flags; file bytes travel separately.
	CommercialInvoice bool `json:"commercialInvoice"`
	PackingList       bool `json:"packingList"`
}

// FieldErrors maps a payload field name to what is wrong with it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+": "+v)
	}
	slices.Sort(parts)
	return "invalid fields: " + strings.Join(parts, ", ")
}

// ToRecord converts the payload. Blank numbers become zero; anything else
// that does not parse is reported in a FieldErrors.
func (p FormPayload) ToRecord() (Record, error) {
	errs := FieldErrors{}
	num := func(field, raw string) float64 {
		if strings.TrimSpace(raw) == "" {
			return 0
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || v < 0 {
			errs[field] = "must be a non-negative number"
			return 0
		}
		return v
	}
	integer := func(field, raw string) int {
		if strings.TrimSpace(raw) == "" {
			return 0
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || v < 0 {
			errs[field] = "must be a non-negative integer"
			return 0
		}
		return v
	}
	country := func(field, raw string) Country {
		c, err := ParseCountry(raw)
		if err != nil {
			errs[field] = "must be one of: IN, EU, UK, US"
		}
		return c
	}

	r := Record{
		Exporter: Party{
			Name:    p.ExporterName,
			Address: p.ExporterAddress,
			Email:   p.ExporterEmail,
			Phone:   p.ExporterPhone,
		},
		Consignee: Party{
			Name:    p.ConsigneeName,
			Address: p.ConsigneeAddress,
			Email:   p.ConsigneeEmail,
			Phone:   p.ConsigneePhone,
		},
		LogisticsProvider: p.LogisticsProvider,
		ShipmentID:        p.ShipmentID,
		ShipmentDate:      p.ShipmentDate,
		PackageCount:      integer("packageCount", p.PackageCount),
		TotalWeight:       num("weight", p.Weight),
		Dimensions: Dimensions{
			Length: num("dimensions.length", p.Dimensions.Length),
			Width:  num("dimensions.width", p.Dimensions.Width),
			Height: num("dimensions.height", p.Dimensions.Height),
		},
		DeclaredValue:        num("declaredValue", p.DeclaredValue),
		Currency:             p.Currency,
		Origin:               country("originCountry", p.OriginCountry),
		Destination:          country("destinationCountry", p.DestinationCountry),
		ItemDescription:      p.ItemDescription,
		Quantity:             integer("quantity", p.Quantity),
		ItemWeight:           num("itemWeight", p.ItemWeight),
		PackagingType:        p.PackagingType,
		HandlingInstructions: p.HandlingInstructions,
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}

	if p.UseHSCode == nil || *p.UseHSCode {
		r.Classification = HSCodeClassification{Code: p.HSCode}
	} else {
		r.Classification = CategoryClassification{MainCategory: p.MainCategory, SubCategory: p.SubCategory}
	}

	if p.CommercialInvoice {
		r.Documents.CommercialInvoice = &Document{Name: "commercial_invoice"}
	}
	if p.PackingList {
		r.Documents.PackingList = &Document{Name: "packing_list"}
	}

	if err := ValidateCountries(r.Origin, r.Destination); err != nil {
		errs["destinationCountry"] = err.Error()
	}

	if len(errs) > 0 {
		return r, errs
	}
	return r, nil
}

// AsFieldErrors unwraps a FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
