// Package catalog holds the static activity configuration: the categories a
// timeline entry can use, the options under each category with their
// document requirement, and the trip types with their minimum timeline size.
//
// The table ships embedded in the binary and can be replaced at startup from
// a YAML file with the same shape.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tripdesk/backend/internal/domain"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Option is one selectable sub-category.
type Option struct {
	Label   string `yaml:"label" json:"label"`
	License bool   `yaml:"license" json:"license"`
}

// Category groups the options shown for one timeline category.
type Category struct {
	Key     string   `yaml:"key" json:"key"`
	Label   string   `yaml:"label" json:"label"`
	Options []Option `yaml:"options" json:"options"`
}

// TripType is a kind of trip and the minimum number of timeline entries it
// needs before it can be submitted.
type TripType struct {
	Key     string `yaml:"key" json:"key"`
	Label   string `yaml:"label" json:"label"`
	MinRows int    `yaml:"min_rows" json:"min_rows"`
}

// Catalog is the parsed configuration table. It is immutable after Parse.
type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories"`
	TripTypes  []TripType `yaml:"trip_types" json:"trip_types"`

	byCategory map[string]map[string]Option
	byTripType map[string]TripType
}

// Default returns the embedded catalog. It panics if the embedded file is
// malformed, which can only happen at development time.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic("catalog: embedded catalog.yaml: " + err.Error())
	}
	return c
}

// Load reads a catalog from path, or returns the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and indexes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, fmt.Errorf("parse catalog: no categories defined")
	}

	c.byCategory = make(map[string]map[string]Option, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Key == "" {
			return nil, fmt.Errorf("parse catalog: category without key")
		}
		opts := make(map[string]Option, len(cat.Options))
		for _, o := range cat.Options {
			opts[o.Label] = o
		}
		c.byCategory[cat.Key] = opts
	}

	c.byTripType = make(map[string]TripType, len(c.TripTypes))
	for _, tt := range c.TripTypes {
		if tt.MinRows < 1 {
			return nil, fmt.Errorf("parse catalog: trip type %q: min_rows must be at least 1", tt.Key)
		}
		c.byTripType[tt.Key] = tt
	}
	return &c, nil
}

// RequiresLicense reports whether entries with this category and
// sub-category need a license and insurance documents.
//
// Unknown categories and sub-categories resolve to false. Legacy records
// reference options that no longer exist and must stay submittable, so the
// lookup fails open.
func (c *Catalog) RequiresLicense(category, subCategory string) bool {
	opts, ok := c.byCategory[category]
	if !ok {
		return false
	}
	return opts[subCategory].License
}

// HasCategory reports whether key is a configured category.
func (c *Catalog) HasCategory(key string) bool {
	_, ok := c.byCategory[key]
	return ok
}

// HasOption reports whether subCategory is selectable under category.
// The literal "other" is accepted under every known category.
func (c *Catalog) HasOption(category, subCategory string) bool {
	opts, ok := c.byCategory[category]
	if !ok {
		return false
	}
	if strings.EqualFold(subCategory, domain.SubCategoryOther) {
		return true
	}
	_, ok = opts[subCategory]
	return ok
}

// TripType returns the trip type with the given key.
func (c *Catalog) TripType(key string) (TripType, bool) {
	tt, ok := c.byTripType[key]
	return tt, ok
}
