package catalog

import "strings"

const (
	oversizedTees = "Oversized T Shirts"
	defaultFamily = "*"
)

// ColorEquivalences maps a garment family to {requested color -> canonical color}.
// Families without an entry use the defaultFamily row.
var ColorEquivalences = map[string]map[string]string{
	oversizedTees: {
		"Pink":        "Hibiskus Pink",
		"Grey":        "Dark Grey",
		"Blue":        "Intense Blue",
		"Red":         "City Red",
		"Light Blue":  "Vintage Blue",
		"Green":       "Retro Green",
		"Kelly Green": "Retro Green",
		"Kelly":       "Retro Green",
		"Royal":       "Intense Blue",
		"Royal Blue":  "Intense Blue",
	},
	defaultFamily: {
		"Royal Blue": "Royal",
		"Navy Blue":  "Navy",
	},
}

// CanonicalColor translates a requested color into the family's own name for it.
func CanonicalColor(baseType, color string) string {
	color = strings.TrimSpace(color)
	table, ok := ColorEquivalences[baseType]
	if !ok {
		table = ColorEquivalences[defaultFamily]
	}
	for requested, canonical := range table {
		if strings.EqualFold(requested, color) {
			return canonical
		}
	}
	return color
}

// skipColor reports the one hard-coded exclusion: the oversized tees never
// list plain "Pink", whatever the caller excluded.
func skipColor(baseType, color string) bool {
	return baseType == oversizedTees && color == "Pink"
}

// orderColors moves the main color to the front and drops excluded colors.
// It returns the ordered list and the main color as spelled in the table, or
// "" when the table does not carry it.
func orderColors(baseType string, colors []string, mainColor string, excluded []string) ([]string, string) {
	target := CanonicalColor(baseType, mainColor)

	resolved := ""
	for _, c := range colors {
		if strings.EqualFold(c, target) {
			resolved = c
			break
		}
	}

	ordered := make([]string, 0, len(colors))
	if resolved != "" {
		ordered = append(ordered, resolved)
	}
	for _, c := range colors {
		if c != resolved {
			ordered = append(ordered, c)
		}
	}

	out := ordered[:0]
	for _, c := range ordered {
		if !containsFold(excluded, c) {
			out = append(out, c)
		}
	}
	return out, resolved
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), s) {
			return true
		}
	}
	return false
}
