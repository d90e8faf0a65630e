package catalog

import (
	"fmt"
	"strings"

	"sku-generator/models"
)

const (
	variantGrams        = 300
	variantInventoryQty = 25
)

// Defaults are the store-wide values copied onto every row.
type Defaults struct {
	Vendor             string
	Published          bool
	InventoryPolicy    string
	FulfillmentService string
	RequiresShipping   bool
	Taxable            bool
	InventoryTracker   string
	CustomLabel0       string
}

// Input is everything one expansion needs besides the static tables.
type Input struct {
	Metadata models.DesignMetadata
	// Excluded overrides Metadata.Restrictions when non-nil.
	Excluded []string
	// ImageLinks enables image resolution when non-nil.
	ImageLinks map[int]string
}

// Expander turns design metadata into variant rows. It holds no mutable
// state and is safe for concurrent use.
type Expander struct {
	tables   *Tables
	defaults Defaults
}

// NewExpander creates an Expander over the given tables.
func NewExpander(tables *Tables, defaults Defaults) *Expander {
	return &Expander{tables: tables, defaults: defaults}
}

// Tables returns the reference tables the expander was built with.
func (e *Expander) Tables() *Tables {
	return e.tables
}

// Expand produces one row per (garment type, size, color). Rows follow
// product-type declaration order, then sizes, then colors.
func (e *Expander) Expand(in Input) ([]models.VariantRow, error) {
	meta := in.Metadata.Normalize()

	descriptions, err := e.validate(meta)
	if err != nil {
		return nil, err
	}

	excluded := in.Excluded
	if excluded == nil {
		excluded = meta.ExcludedColors()
	}

	seoTitles := make(map[string]string)
	if len(meta.PageTitles) == len(e.tables.GarmentKeys) {
		for i, key := range e.tables.GarmentKeys {
			seoTitles[key] = strings.TrimSpace(meta.PageTitles[i])
		}
	}

	tags := meta.TagsCSV()

	var rows []models.VariantRow
	for _, gt := range e.tables.ProductTypes {
		baseType := gt.Name
		colors, mainColor := orderColors(baseType, e.tables.Colors[baseType], meta.MainColor, excluded)

		title := fmt.Sprintf("%s %s", meta.ProductName, baseType)
		seoTitle := title
		if t := seoTitles[baseType]; t != "" {
			seoTitle = t
		}
		handle := Handle(seoTitle)
		body := fmt.Sprintf("%s<br><br><b>Size Guide:</b><br>%s%s",
			descriptions[baseType], e.tables.SizeGuides[baseType], e.tables.ProductExtras[baseType])

		for _, size := range gt.Sizes {
			price, _ := gt.PriceFor(size)
			for _, color := range colors {
				if skipColor(baseType, color) {
					continue
				}

				row := models.VariantRow{
					Handle:             handle,
					Title:              title,
					SEOTitle:           seoTitle,
					BodyHTML:           body,
					Vendor:             e.defaults.Vendor,
					Type:               StorefrontType(baseType),
					BaseType:           baseType,
					Tags:               tags,
					Published:          e.defaults.Published,
					Color:              color,
					Size:               size,
					SKU:                BuildSKU(baseType, size, color, meta.SKUSuffix),
					Grams:              variantGrams,
					InventoryTracker:   e.defaults.InventoryTracker,
					InventoryQty:       variantInventoryQty,
					InventoryPolicy:    e.defaults.InventoryPolicy,
					FulfillmentService: e.defaults.FulfillmentService,
					Price:              price,
					RequiresShipping:   e.defaults.RequiresShipping,
					Taxable:            e.defaults.Taxable,
					Collection:         meta.Collection,
					SEODescription:     SEODescription(body),
					CustomLabel0:       e.defaults.CustomLabel0,
				}

				if in.ImageLinks != nil {
					if url, ok := ResolveImage(in.ImageLinks, baseType, strings.TrimSpace(color)); ok {
						row.ImageURL = url
						row.VariantImage = url
						row.ImageAltText = StripAfterPipe(seoTitle)
						if mainColor != "" && strings.EqualFold(color, mainColor) {
							row.ImagePosition = 1
						}
					}
				}

				rows = append(rows, row)
			}
		}
	}

	return rows, nil
}

// Validate reports whether meta can be expanded, without producing rows.
func (e *Expander) Validate(meta models.DesignMetadata) error {
	_, err := e.validate(meta.Normalize())
	return err
}

// validate checks the required fields and the description count, and returns
// the descriptions keyed by garment.
func (e *Expander) validate(meta models.DesignMetadata) (map[string]string, error) {
	fields := make(map[string]string)
	if meta.ProductName == "" {
		fields["product_name"] = "required"
	}
	if meta.SKUSuffix == "" {
		fields["sku_suffix"] = "required"
	}
	if meta.MainColor == "" {
		fields["main_color"] = "required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Message: "metadata missing product_name / sku_suffix / main_color", Fields: fields}
	}

	want := len(e.tables.GarmentKeys)
	if len(meta.Descriptions) != want {
		return nil, &ValidationError{
			Message: fmt.Sprintf("descriptions must have %d items, got %d", want, len(meta.Descriptions)),
			Fields:  map[string]string{"descriptions": "wrong count"},
		}
	}

	descriptions := make(map[string]string, want)
	for i, key := range e.tables.GarmentKeys {
		d := strings.TrimSpace(meta.Descriptions[i])
		if d == "" {
			return nil, &ValidationError{
				Message: fmt.Sprintf("description %d (%s) is blank", i+1, key),
				Fields:  map[string]string{"descriptions": "blank entry"},
			}
		}
		descriptions[key] = d
	}
	return descriptions, nil
}
