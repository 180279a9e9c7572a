package shipment

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// IDGenerator derives shipment identifiers of the form
// {origin}-{destination}-{YYMMDD}-{NNNN}.
type IDGenerator struct {
	draw func() int
}

// IDOption configures an IDGenerator.
type IDOption func(*IDGenerator)

// WithDraw replaces the nonce source. fn must return values in [1000, 9999].
func WithDraw(fn func() int) IDOption {
	return func(g *IDGenerator) { g.draw = fn }
}

func NewIDGenerator(opts ...IDOption) *IDGenerator {
	g := &IDGenerator{
		draw: func() int { return 1000 + rand.IntN(9000) },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Derive returns "" unless all three inputs are set and date is a valid
// YYYY-MM-DD calendar date. Every call draws a fresh nonce, so the result
// changes whenever any input is edited, even back to an earlier value.
func (g *IDGenerator) Derive(origin, destination Country, date string) string {
	if origin == "" || destination == "" || date == "" {
		return ""
	}
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s-%04d", origin, destination, d.Format("060102"), g.draw())
}
