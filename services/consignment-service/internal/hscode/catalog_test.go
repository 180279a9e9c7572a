package hscode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeguard/platform/services/consignment-service/shipment"
)

func TestLookup(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name    string
		main    string
		sub     string
		dest    shipment.Country
		want    string
		wantErr error
	}{
		{"national line", "Electronics", "Laptops", shipment.UnitedStates, "8471300100", nil},
		{"falls back to subheading", "Electronics", "Headphones", shipment.Europe, "851830", nil},
		{"case and spacing insensitive", "  textiles ", "cotton   shirts", shipment.India, "62052000", nil},
		{"unknown main", "Weapons", "Laptops", shipment.India, "", ErrNotFound},
		{"unknown sub", "Electronics", "Toasters", shipment.India, "", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Lookup(tt.main, tt.sub, tt.dest)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, len(got), 6)
		})
	}
}

func TestCategories(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "Textiles", c.Categories()[0])
	assert.Equal(t, []string{"Headphones", "Laptops", "Mobile Phones"}, c.Subcategories("electronics"))
}

func TestParseRejectsShortCodes(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - main: Misc
    subcategories:
      - name: Thing
        code: "1234"
`))
	assert.ErrorContains(t, err, "not 6 digits")
}
