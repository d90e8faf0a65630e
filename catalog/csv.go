package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"sku-generator/models"
)

const utf8BOM = "\ufeff"

// Column names of the product CSV. Order and spelling are relied on by the
// store importer and by ReadCSV.
const (
	ColHandle             = "Handle"
	ColTitle              = "Title"
	ColSEOTitle           = "SEO Title"
	ColBody               = "Body (HTML)"
	ColVendor             = "Vendor"
	ColType               = "Type"
	ColBaseType           = "Base Type"
	ColTags               = "Tags"
	ColPublished          = "Published"
	ColOption1Name        = "Option1 Name"
	ColOption1Value       = "Option1 Value"
	ColOption2Name        = "Option2 Name"
	ColOption2Value       = "Option2 Value"
	ColSKU                = "Variant SKU"
	ColGrams              = "Variant Grams"
	ColInventoryTracker   = "Variant Inventory Tracker"
	ColInventoryQty       = "Variant Inventory Qty"
	ColInventoryPolicy    = "Variant Inventory Policy"
	ColFulfillmentService = "Variant Fulfillment Service"
	ColPrice              = "Variant Price"
	ColRequiresShipping   = "Variant Requires Shipping"
	ColTaxable            = "Variant Taxable"
	ColCollection         = "Collection"
	ColImageURL           = "Image URL"
	ColImageAltText       = "Image Alt Text"
	ColImagePosition      = "Image Position"
	ColVariantImage       = "Variant Image"
	ColImageSrc           = "Image Src"
	ColSEODescription     = "SEO Description"
	ColCustomLabel0       = "Google Shopping / Custom Label 0"

	OptionColour = "Colour"
	OptionSize   = "Size"
)

// Columns is the header of every CSV this package writes.
var Columns = []string{
	ColHandle, ColTitle, ColSEOTitle, ColBody, ColVendor, ColType, ColBaseType, ColTags, ColPublished,
	ColOption1Name, ColOption1Value, ColOption2Name, ColOption2Value,
	ColSKU, ColGrams, ColInventoryTracker, ColInventoryQty, ColInventoryPolicy, ColFulfillmentService,
	ColPrice, ColRequiresShipping, ColTaxable, ColCollection,
	ColImageURL, ColImageAltText, ColImagePosition, ColVariantImage,
	ColImageSrc, ColSEODescription, ColCustomLabel0,
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func record(r models.VariantRow) []string {
	position := ""
	if r.ImagePosition > 0 {
		position = strconv.Itoa(r.ImagePosition)
	}
	return []string{
		r.Handle, r.Title, r.SEOTitle, r.BodyHTML, r.Vendor, r.Type, r.BaseType, r.Tags, formatBool(r.Published),
		OptionColour, r.Color, OptionSize, r.Size,
		r.SKU, strconv.Itoa(r.Grams), r.InventoryTracker, strconv.Itoa(r.InventoryQty), r.InventoryPolicy, r.FulfillmentService,
		r.Price.StringFixed(2), formatBool(r.RequiresShipping), formatBool(r.Taxable), r.Collection,
		r.ImageURL, r.ImageAltText, position, r.VariantImage,
		r.ImageURL, r.SEODescription, r.CustomLabel0,
	}
}

// WriteCSV writes a BOM, the header and one record per row.
func WriteCSV(w io.Writer, rows []models.VariantRow) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeCSV renders rows into a byte slice.
func EncodeCSV(rows []models.VariantRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadCSV parses a product CSV. Size and color are taken from whichever
// option column is named "Size" or "Colour"/"Color".
func ReadCSV(r io.Reader) ([]models.VariantRow, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColHandle, ColTitle, ColSKU, ColOption1Value, ColOption2Value} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", required)
		}
	}

	var rows []models.VariantRow
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		get := func(col string) string {
			if i, ok := idx[col]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		row := models.VariantRow{
			Handle:             get(ColHandle),
			Title:              get(ColTitle),
			SEOTitle:           get(ColSEOTitle),
			BodyHTML:           get(ColBody),
			Vendor:             get(ColVendor),
			Type:               get(ColType),
			BaseType:           get(ColBaseType),
			Tags:               get(ColTags),
			Published:          parseBool(get(ColPublished), true),
			SKU:                get(ColSKU),
			Grams:              parseInt(get(ColGrams)),
			InventoryTracker:   get(ColInventoryTracker),
			InventoryQty:       parseInt(get(ColInventoryQty)),
			InventoryPolicy:    get(ColInventoryPolicy),
			FulfillmentService: get(ColFulfillmentService),
			RequiresShipping:   parseBool(get(ColRequiresShipping), true),
			Taxable:            parseBool(get(ColTaxable), true),
			Collection:         get(ColCollection),
			ImageURL:           get(ColImageURL),
			ImageAltText:       get(ColImageAltText),
			ImagePosition:      parseInt(get(ColImagePosition)),
			VariantImage:       get(ColVariantImage),
			SEODescription:     get(ColSEODescription),
			CustomLabel0:       get(ColCustomLabel0),
		}
		if src := get(ColImageSrc); src != "" {
			row.ImageURL = src
		}
		if p := get(ColPrice); p != "" {
			price, err := decimal.NewFromString(p)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: invalid price %q: %w", line, p, err)
			}
			row.Price = price
		}

		row.Color, row.Size = get(ColOption1Value), get(ColOption2Value)
		if isSizeOption(get(ColOption1Name)) || isColorOption(get(ColOption2Name)) {
			row.Color, row.Size = row.Size, row.Color
		}

		rows = append(rows, row)
	}
	return rows, nil
}

func isSizeOption(name string) bool {
	return strings.EqualFold(name, OptionSize)
}

func isColorOption(name string) bool {
	return strings.EqualFold(name, OptionColour) || strings.EqualFold(name, "Color")
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// SplitByLimits packs rows into parts whose encoded CSV stays within
// maxBytes and maxRows. Rows of one handle stay together unless that handle
// alone exceeds a limit, in which case it is cut into halving pieces.
// A limit <= 0 is ignored.
func SplitByLimits(rows []models.VariantRow, maxBytes int64, maxRows int) ([][]models.VariantRow, error) {
	headerLen, err := encodedLen(nil)
	if err != nil {
		return nil, err
	}

	rowLens := make([]int64, len(rows))
	for i, r := range rows {
		n, err := encodedLen([][]string{record(r)})
		if err != nil {
			return nil, err
		}
		rowLens[i] = n
	}

	tooBig := func(size int64, count int) bool {
		if maxBytes > 0 && headerLen+size > maxBytes {
			return true
		}
		return maxRows > 0 && count > maxRows
	}

	var (
		parts    [][]models.VariantRow
		cur      []models.VariantRow
		curBytes int64
	)
	flush := func() {
		if len(cur) > 0 {
			parts = append(parts, cur)
			cur, curBytes = nil, 0
		}
	}

	for _, g := range groupIndexes(rows) {
		var gBytes int64
		for _, i := range g {
			gBytes += rowLens[i]
		}

		if tooBig(gBytes, len(g)) {
			flush()
			step := len(g)
			if maxRows > 0 && maxRows < step {
				step = maxRows
			}
			for start := 0; start < len(g); {
				end := min(start+step, len(g))
				for end-start > 1 && tooBig(sumLens(rowLens, g[start:end]), end-start) {
					step = max(1, step/2)
					end = min(start+step, len(g))
				}
				piece := make([]models.VariantRow, 0, end-start)
				for _, i := range g[start:end] {
					piece = append(piece, rows[i])
				}
				parts = append(parts, piece)
				start = end
			}
			continue
		}

		if len(cur) > 0 && tooBig(curBytes+gBytes, len(cur)+len(g)) {
			flush()
		}
		for _, i := range g {
			cur = append(cur, rows[i])
		}
		curBytes += gBytes
	}
	flush()
	return parts, nil
}

// groupIndexes groups row indexes by handle in first-appearance order.
func groupIndexes(rows []models.VariantRow) [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, r := range rows {
		g, ok := pos[r.Handle]
		if !ok {
			g = len(groups)
			pos[r.Handle] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func sumLens(lens []int64, idx []int) int64 {
	var n int64
	for _, i := range idx {
		n += lens[i]
	}
	return n
}

// encodedLen returns the encoded size of records; with nil it returns the
// size of the BOM plus header.
func encodedLen(records [][]string) (int64, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if records == nil {
		buf.WriteString(utf8BOM)
		records = [][]string{Columns}
	}
	if err := cw.WriteAll(records); err != nil {
		return 0, fmt.Errorf("failed to size csv rows: %w", err)
	}
	return int64(buf.Len()), nil
}
