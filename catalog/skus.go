package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

const defaultSKUPrefix = "SKU"

// skuPrefixes maps a base garment type to its blank-supplier prefix.
var skuPrefixes = map[string]string{
	"T Shirt":            "UC301",
	"Hoodie":             "JH1001",
	"Sweatshirt":         "JH030",
	"Ladies Shirt":       "5000L",
	"Tank-Top":           "JD012",
	"Longsleeve T-Shirt": "JD011",
	"Oversized T Shirts": "BY102",
	"Kids T Shirt":       "T06",
	"Kids Hoodie":        "JH01J",
	"Kids Sweatshirt":    "JH30J",
	"Ringer T-Shirt":     "JH300",
	"Raglan T-Shirt":     "JH400",
}

// storefrontTypes relabels adult garments for the Type column only.
var storefrontTypes = map[string]string{
	"T Shirt":    "Adult T Shirt",
	"Hoodie":     "Adult Hoodie",
	"Sweatshirt": "Adult Sweatshirt",
}

// SKUPrefix returns the prefix for baseType, or "SKU" for unknown types.
func SKUPrefix(baseType string) string {
	if p, ok := skuPrefixes[baseType]; ok {
		return p
	}
	return defaultSKUPrefix
}

// StorefrontType returns the cosmetic Type label for baseType.
func StorefrontType(baseType string) string {
	if t, ok := storefrontTypes[baseType]; ok {
		return t
	}
	return baseType
}

// BuildSKU formats {prefix}-{size}-{color without spaces}-{suffix}.
func BuildSKU(baseType, size, color, suffix string) string {
	return fmt.Sprintf("%s-%s-%s-%s", SKUPrefix(baseType), size, strings.ReplaceAll(color, " ", ""), suffix)
}

var slugStrip = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s-]`)

// Handle slugs the part of title before any "|": lowercased, punctuation
// removed, spaces to dashes, with the "-bootleg" and "-adult" noise dropped.
func Handle(title string) string {
	head := StripAfterPipe(title)
	slug := slugStrip.ReplaceAllString(strings.ToLower(head), "")
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "-bootleg", "")
	return strings.ReplaceAll(slug, "-adult", "")
}
