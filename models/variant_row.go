package models

import "github.com/shopspring/decimal"

// VariantRow is one sellable (garment type, size, color) combination.
//
// Type is the storefront label (e.g. "Adult T Shirt"). BaseType keeps the
// unmapped garment name and is the only key used for SKU, color and image lookups.
type VariantRow struct {
	Handle             string          `json:"handle"`
	Title              string          `json:"title"`
	SEOTitle           string          `json:"seoTitle"`
	BodyHTML           string          `json:"bodyHtml"`
	Vendor             string          `json:"vendor"`
	Type               string          `json:"type"`
	BaseType           string          `json:"baseType"`
	Tags               string          `json:"tags"`
	Published          bool            `json:"published"`
	Color              string          `json:"color"`
	Size               string          `json:"size"`
	SKU                string          `json:"sku"`
	Grams              int             `json:"grams"`
	InventoryTracker   string          `json:"inventoryTracker"`
	InventoryQty       int             `json:"inventoryQty"`
	InventoryPolicy    string          `json:"inventoryPolicy"`
	FulfillmentService string          `json:"fulfillmentService"`
	Price              decimal.Decimal `json:"price"`
	RequiresShipping   bool            `json:"requiresShipping"`
	Taxable            bool            `json:"taxable"`
	Collection         string          `json:"collection"`
	ImageURL           string          `json:"imageUrl,omitempty"`
	ImageAltText       string          `json:"imageAltText,omitempty"`
	ImagePosition      int             `json:"imagePosition,omitempty"` // 0 means unset
	VariantImage       string          `json:"variantImage,omitempty"`
	SEODescription     string          `json:"seoDescription,omitempty"`
	CustomLabel0       string          `json:"customLabel0,omitempty"`
}

// ImageSource returns the image to upload for this row, if any.
func (r VariantRow) ImageSource() string {
	if r.ImageURL != "" {
		return r.ImageURL
	}
	return r.VariantImage
}
