// Package hscode resolves a product category pair to an HS code for a
// destination country.
package hscode

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tradeguard/platform/services/consignment-service/shipment"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrNotFound = errors.New("HS Code not found for the given category and destination")

type subcategory struct {
	Name     string            `yaml:"name"`
	Code     string            `yaml:"code"`
	National map[string]string `yaml:"national"`
}

type category struct {
	Main          string        `yaml:"main"`
	Subcategories []subcategory `yaml:"subcategories"`
}

type file struct {
	Categories []category `yaml:"categories"`
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	// keyed by lower-cased main, then sub
	entries map[string]map[string]subcategory
	mains   []string
}

// Default parses the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse hs catalog: %w", err)
	}

	c := &Catalog{entries: make(map[string]map[string]subcategory)}
	for _, cat := range f.Categories {
		key := normalize(cat.Main)
		if _, dup := c.entries[key]; !dup {
			c.mains = append(c.mains, cat.Main)
			c.entries[key] = make(map[string]subcategory)
		}
		for _, sub := range cat.Subcategories {
			if len(sub.Code) != 6 {
				return nil, fmt.Errorf("hs catalog: %s/%s: code %q is not 6 digits", cat.Main, sub.Name, sub.Code)
			}
			c.entries[key][normalize(sub.Name)] = sub
		}
	}
	return c, nil
}

// Lookup returns the destination's national tariff line when known and the
// HS subheading otherwise. Names match case-insensitively.
func (c *Catalog) Lookup(mainCategory, subCategory string, destination shipment.Country) (string, error) {
	subs, ok := c.entries[normalize(mainCategory)]
	if !ok {
		return "", ErrNotFound
	}
	sub, ok := subs[normalize(subCategory)]
	if !ok {
		return "", ErrNotFound
	}
	if code, ok := sub.National[string(destination)]; ok && code != "" {
		return code, nil
	}
	return sub.Code, nil
}

// Categories lists main categories in catalog order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.mains...)
}

// Subcategories lists the sub categories of main, sorted.
func (c *Catalog) Subcategories(main string) []string {
	subs := c.entries[normalize(main)]
	names := make([]string, 0, len(subs))
	for _, s := range subs {
		names = append(names, s.Name)
	}
	slices.Sort(names)
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
