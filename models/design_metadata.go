package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DesignMetadata is the per-design JSON stored next to the artwork.
type DesignMetadata struct {
	ProductName  string   `json:"product_name"`
	SKUSuffix    string   `json:"sku_suffix"`
	MainColor    string   `json:"main_color"`
	Tags         []string `json:"tags"`
	Descriptions TextList `json:"descriptions"`
	PageTitles   TextList `json:"page_titles"`
	Collection   string   `json:"Collection"`
	Restrictions string   `json:"Restrictions"` // comma separated excluded colors
}

// Normalize trims the scalar fields and upper-cases the SKU suffix.
func (m DesignMetadata) Normalize() DesignMetadata {
	m.ProductName = strings.TrimSpace(m.ProductName)
	m.SKUSuffix = strings.ToUpper(strings.TrimSpace(m.SKUSuffix))
	m.MainColor = strings.TrimSpace(m.MainColor)
	m.Collection = strings.TrimSpace(m.Collection)
	return m
}

// ExcludedColors parses Restrictions. Missing or empty means no restriction.
func (m DesignMetadata) ExcludedColors() []string {
	var out []string
	for _, c := range strings.Split(m.Restrictions, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// TagsCSV joins the non-blank tags with ", ".
func (m DesignMetadata) TagsCSV() string {
	var tags []string
	for _, t := range m.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return strings.Join(tags, ", ")
}

// TextList accepts either a JSON array of strings or a single "|" separated string.
type TextList []string

func (l *TextList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected a list or a \"|\" separated string: %w", err)
	}
	*l = SplitPipe(s)
	return nil
}

// SplitPipe splits s on "|" and drops blank parts.
func SplitPipe(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
