package shipment

import (
	"errors"
	"fmt"
)

// Country is one of the trade lanes the product supports. The empty value
// means "not selected yet".
type Country string

const (
	India         Country = "IN"
	Europe        Country = "EU"
	UnitedKingdom Country = "UK"
	UnitedStates  Country = "US"
)

// Countries lists the selectable codes in display order.
var Countries = []Country{India, Europe, UnitedKingdom, UnitedStates}

var countryNames = map[Country]string{
	India:         "India",
	Europe:        "Europe",
	UnitedKingdom: "United Kingdom",
	UnitedStates:  "United States",
}

var (
	ErrUnknownCountry = errors.New("unknown country code")
	ErrSameCountry    = errors.New("Origin and destination countries cannot be the same")
)

// ParseCountry accepts "" (unset) or one of the four codes.
func ParseCountry(s string) (Country, error) {
	if s == "" {
		return "", nil
	}
	c := Country(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCountry, s)
	}
	return c, nil
}

func (c Country) Valid() bool {
	_, ok := countryNames[c]
	return ok
}

// Name is the display name, or the raw code when unknown.
func (c Country) Name() string {
	if n, ok := countryNames[c]; ok {
		return n
	}
	return string(c)
}

// ValidateCountries rejects an origin equal to the destination. Either side
// may still be unset.
func ValidateCountries(origin, destination Country) error {
	if origin != "" && origin == destination {
		return ErrSameCountry
	}
	return nil
}
