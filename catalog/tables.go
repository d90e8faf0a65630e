package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

//go:embed data/catalog.json
var defaultData embed.FS

// GarmentType is one row of the product-type table.
type GarmentType struct {
	Name        string                     `json:"name"`
	Sizes       []string                   `json:"sizes"`
	Price       *decimal.Decimal           `json:"price,omitempty"`
	PriceBySize map[string]decimal.Decimal `json:"price_by_size,omitempty"`
}

// PriceFor returns the per-size price, falling back to the flat price.
func (g GarmentType) PriceFor(size string) (decimal.Decimal, bool) {
	if p, ok := g.PriceBySize[size]; ok {
		return p, true
	}
	if g.Price != nil {
		return *g.Price, true
	}
	return decimal.Decimal{}, false
}

// Tables is the static reference data the expander works from. ProductTypes
// is a list so that output order follows declaration order.
type Tables struct {
	GarmentKeys   []string            `json:"garment_keys"`
	ProductTypes  []GarmentType       `json:"product_types"`
	Colors        map[string][]string `json:"colors"`
	SizeGuides    map[string]string   `json:"size_guides"`
	ProductExtras map[string]string   `json:"product_extras"`
}

// DefaultTables returns the embedded reference tables.
func DefaultTables() (*Tables, error) {
	data, err := defaultData.ReadFile("data/catalog.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded catalog tables: %w", err)
	}
	return parseTables(data)
}

// LoadTables reads tables from path, or the embedded defaults when path is empty.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables()
	}

	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog tables: %w", err)
	}
	return parseTables(data)
}

func parseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse catalog tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog tables: %w", err)
	}
	return &t, nil
}

// Validate checks that every product type can be expanded.
func (t *Tables) Validate() error {
	if len(t.GarmentKeys) == 0 {
		return fmt.Errorf("garment_keys are required")
	}
	if len(t.ProductTypes) == 0 {
		return fmt.Errorf("product_types are required")
	}

	keys := make(map[string]bool, len(t.GarmentKeys))
	for _, k := range t.GarmentKeys {
		keys[k] = true
	}

	seen := make(map[string]bool, len(t.ProductTypes))
	for _, pt := range t.ProductTypes {
		if seen[pt.Name] {
			return fmt.Errorf("product type %q declared twice", pt.Name)
		}
		seen[pt.Name] = true

		if !keys[pt.Name] {
			return fmt.Errorf("product type %q is not a garment key", pt.Name)
		}
		if len(pt.Sizes) == 0 {
			return fmt.Errorf("product type %q has no sizes", pt.Name)
		}
		if len(t.Colors[pt.Name]) == 0 {
			return fmt.Errorf("product type %q has no colors", pt.Name)
		}
		if _, ok := t.SizeGuides[pt.Name]; !ok {
			return fmt.Errorf("product type %q has no size guide", pt.Name)
		}
		for _, size := range pt.Sizes {
			if _, ok := pt.PriceFor(size); !ok {
				return fmt.Errorf("product type %q has no price for size %q", pt.Name, size)
			}
		}
	}
	return nil
}
