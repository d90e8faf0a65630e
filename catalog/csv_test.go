package catalog

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sku-generator/models"
)

func sampleRows(t *testing.T) []models.VariantRow {
	t.Helper()
	links := map[int]string{59: "https://img.example/59.png", 65: "https://img.example/65.png"}
	rows, err := NewExpander(acmeTables(), testDefaults).Expand(Input{Metadata: acmeMetadata(), ImageLinks: links})
	require.NoError(t, err)
	return rows
}

func TestWriteCSV_HeaderAndBOM(t *testing.T) {
	data, err := EncodeCSV(sampleRows(t))
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(data, []byte(utf8BOM)))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, Columns, records[0])

	first := records[1]
	assert.Equal(t, "acme-logo-t-shirt", first[0])
	assert.Equal(t, "Colour", first[9])
	assert.Equal(t, "White", first[10])
	assert.Equal(t, "Size", first[11])
	assert.Equal(t, "S", first[12])
	assert.Equal(t, "10.00", first[19])
	assert.Equal(t, "1", first[25])
	assert.Equal(t, "TRUE", first[8])
}

func TestReadCSV_RoundTripsWrittenRows(t *testing.T) {
	rows := sampleRows(t)
	data, err := EncodeCSV(rows)
	require.NoError(t, err)

	got, err := ReadCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, len(rows))

	for i := range rows {
		assert.Equal(t, rows[i].SKU, got[i].SKU)
		assert.Equal(t, rows[i].Color, got[i].Color)
		assert.Equal(t, rows[i].Size, got[i].Size)
		assert.Equal(t, rows[i].ImagePosition, got[i].ImagePosition)
		assert.True(t, rows[i].Price.Equal(got[i].Price))
		assert.Equal(t, rows[i].BodyHTML, got[i].BodyHTML)
	}
}

func TestReadCSV_OptionsMappedByName(t *testing.T) {
	in := strings.Join([]string{
		"Handle,Title,Option1 Name,Option1 Value,Option2 Name,Option2 Value,Variant SKU,Variant Price,Image Src",
		"tee,Tee,Size,M,Color,Navy,UC301-M-Navy-X,19.5,https://img.example/a.png",
	}, "\n")

	rows, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "M", rows[0].Size)
	assert.Equal(t, "Navy", rows[0].Color)
	assert.True(t, rows[0].Price.Equal(decimal.RequireFromString("19.5")))
	assert.Equal(t, "https://img.example/a.png", rows[0].ImageURL)
	assert.True(t, rows[0].Published, "missing booleans default to true")
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Handle,Title\nx,y\n"))
	assert.ErrorContains(t, err, "Variant SKU")

	in := "Handle,Title,Option1 Value,Option2 Value,Variant SKU,Variant Price\nx,X,Red,S,SKU-1,abc\n"
	_, err = ReadCSV(strings.NewReader(in))
	assert.ErrorContains(t, err, "invalid price")

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func rowsForHandles(counts map[string]int, order []string) []models.VariantRow {
	var rows []models.VariantRow
	for _, h := range order {
		for i := 0; i < counts[h]; i++ {
			rows = append(rows, models.VariantRow{
				Handle: h,
				Title:  h,
				SKU:    h + "-" + strings.Repeat("x", i+1),
				Price:  decimal.NewFromInt(10),
			})
		}
	}
	return rows
}

func TestSplitByLimits_KeepsHandlesTogether(t *testing.T) {
	rows := rowsForHandles(map[string]int{"a": 3, "b": 3, "c": 2}, []string{"a", "b", "c"})

	parts, err := SplitByLimits(rows, 0, 5)
	require.NoError(t, err)
	require.Len(t, parts, 2)

	assert.Len(t, parts[0], 3)
	assert.Len(t, parts[1], 5)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 5)
	}
}

func TestSplitByLimits_NoLimitsIsOnePart(t *testing.T) {
	rows := rowsForHandles(map[string]int{"a": 4, "b": 4}, []string{"a", "b"})

	parts, err := SplitByLimits(rows, 0, 0)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Len(t, parts[0], 8)
}

func TestSplitByLimits_OversizedHandleIsCut(t *testing.T) {
	rows := rowsForHandles(map[string]int{"big": 7}, []string{"big"})

	parts, err := SplitByLimits(rows, 0, 3)
	require.NoError(t, err)

	total := 0
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 3)
		total += len(p)
	}
	assert.Equal(t, 7, total)
}

func TestSplitByLimits_RespectsByteLimit(t *testing.T) {
	rows := rowsForHandles(map[string]int{"a": 2, "b": 2, "c": 2, "d": 2}, []string{"a", "b", "c", "d"})

	header, err := encodedLen(nil)
	require.NoError(t, err)
	one, err := encodedLen([][]string{record(rows[0])})
	require.NoError(t, err)

	limit := header + one*4 + 8
	parts, err := SplitByLimits(rows, limit, 0)
	require.NoError(t, err)
	require.Greater(t, len(parts), 1)

	for _, p := range parts {
		data, err := EncodeCSV(p)
		require.NoError(t, err)
		assert.LessOrEqual(t, int64(len(data)), limit)
	}
}
