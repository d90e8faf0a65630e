package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuffixRows(t *testing.T) {
	values := [][]interface{}{
		{"Suffix", "Lister", "Date"},
		{" acme ", "StreamlitAuto", "2025-06-01T10:20:30.123456"},
		{"BOLT", "Sal"},
		{},
		{"", "Nobody", "2025-06-01"},
		{"CORA", "StreamlitBatch", "2025-06-02T08:00:00Z"},
		{"DUNE", "Hannan", "yesterday"},
	}

	records := parseSuffixRows(values)
	require.Len(t, records, 4)

	assert.Equal(t, "ACME", records[0].Suffix)
	assert.Equal(t, "StreamlitAuto", records[0].Lister)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 20, 30, 123456000, time.UTC), records[0].RecordedAt)

	assert.Equal(t, "BOLT", records[1].Suffix)
	assert.True(t, records[1].RecordedAt.IsZero())

	assert.Equal(t, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), records[2].RecordedAt)
	assert.True(t, records[3].RecordedAt.IsZero())
}

func TestParseSuffixRows_HeaderOnly(t *testing.T) {
	assert.Empty(t, parseSuffixRows([][]interface{}{{"Suffix"}}))
	assert.Empty(t, parseSuffixRows(nil))
}
