package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sku-generator/models"
)

func reviewRows() []models.VariantRow {
	row := func(baseType, size, color string, price string, pos int) models.VariantRow {
		return models.VariantRow{
			Handle:        "acme-" + strings.ToLower(strings.ReplaceAll(baseType, " ", "-")),
			Title:         "Acme " + baseType,
			SEOTitle:      "Acme " + baseType + " | Spoofy",
			BodyHTML:      "<p>Soft cotton</p>",
			Type:          "Adult " + baseType,
			BaseType:      baseType,
			Size:          size,
			Color:         color,
			Price:         decimal.RequireFromString(price),
			ImageURL:      "https://cdn.test/" + color + ".png",
			ImagePosition: pos,
		}
	}
	return []models.VariantRow{
		row("T Shirt", "S", "White", "19.99", 1),
		row("T Shirt", "S", "Black", "19.99", 0),
		row("T Shirt", "M", "White", "19.99", 1),
		row("T Shirt", "M", "Black", "19.99", 0),
		row("Hoodie", "L", "Navy", "34.5", 0),
	}
}

func TestReviewCards(t *testing.T) {
	cards := reviewCards(reviewRows())
	require.Len(t, cards, 2)

	tee := cards[0]
	assert.Equal(t, "Adult T Shirt", tee.Type)
	assert.Equal(t, "White", tee.MainColor)
	assert.Equal(t, []string{"White", "Black"}, tee.Colors)
	assert.Equal(t, []reviewSize{{"S", "£19.99"}, {"M", "£19.99"}}, tee.Sizes)
	assert.Len(t, tee.Images, 2)

	hoodie := cards[1]
	assert.Equal(t, "Navy", hoodie.MainColor, "first color when no main image")
	assert.Equal(t, []reviewSize{{"L", "£34.50"}}, hoodie.Sizes)
}

func TestRenderReviewHTML(t *testing.T) {
	svc := NewReviewService("http://localhost:8080/", nil)
	meta := models.DesignMetadata{ProductName: "Acme <Logo>", SKUSuffix: "acme", Tags: []string{"a", "b"}}

	html, err := svc.RenderReviewHTML(reviewRows(), meta)
	require.NoError(t, err)

	assert.Contains(t, html, "Acme &lt;Logo&gt;")
	assert.Contains(t, html, "<b>ACME</b>")
	assert.Contains(t, html, "5 variants")
	assert.Contains(t, html, "<p>Soft cotton</p>")
	assert.Contains(t, html, `<span class="main">White</span>`)
	assert.Contains(t, html, `src="https://cdn.test/Navy.png"`)
	assert.Equal(t, 2, strings.Count(html, `<section class="card">`))
}

func TestReviewURL(t *testing.T) {
	svc := NewReviewService("http://localhost:8080/", nil)
	assert.Equal(t, "http://localhost:8080/admin/designs/Acme%20Logo/review", svc.ReviewURL("Acme Logo"))
}

func TestGenerateReviewPDF_RejectsBadFolder(t *testing.T) {
	svc := NewReviewService("http://localhost:8080", nil)
	_, err := svc.GenerateReviewPDF(context.Background(), "../x")
	assert.Error(t, err)
}
