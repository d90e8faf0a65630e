package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseSlotFileName(t *testing.T) {
	tests := []struct {
		name string
		slot int
		ok   bool
	}{
		{"59.png", 59, true},
		{"1.PNG", 1, true},
		{"0.png", 0, false},
		{"59.jpg", 0, false},
		{"design.png", 0, false},
		{"12a.png", 0, false},
	}
	for _, tt := range tests {
		slot, ok := ParseSlotFileName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.slot, slot, tt.name)
	}
	assert.Equal(t, "7.png", SlotFileName(7))
}

func TestIsArtworkFor(t *testing.T) {
	assert.True(t, IsArtworkFor("AcmeLogo", "AcmeLogo.png"))
	assert.True(t, IsArtworkFor("AcmeLogo", "acmelogo.JPEG"))
	assert.True(t, IsArtworkFor("AcmeLogo", "AcmeLogo.webp"))
	assert.False(t, IsArtworkFor("AcmeLogo", "AcmeLogo.psd"))
	assert.False(t, IsArtworkFor("AcmeLogo", "Other.png"))
	assert.False(t, IsArtworkFor("AcmeLogo", "1.png"))

	assert.True(t, IsMetadataFile("meta.JSON"))
	assert.True(t, IsNotesFile("notes.txt"))
	assert.True(t, IsNotesFile("brief.PDF"))
	assert.False(t, IsNotesFile("meta.json"))
}

func TestParseNumberedImage(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"1.png", 1, true},
		{"127.JPG", 127, true},
		{"80.webp", 80, true},
		{"999.jpeg", 999, true},
		{"0.png", 0, false},
		{"1000.png", 0, false},
		{"01.png", 0, false},
		{"AcmeLogo.png", 0, false},
		{"12.gif", 0, false},
	}
	for _, tt := range tests {
		n, ok := ParseNumberedImage(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, n, tt.name)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "£19.99", FormatPrice(decimal.RequireFromString("19.99"), "£"))
	assert.Equal(t, "£1,234.50", FormatPrice(decimal.RequireFromString("1234.5"), "£"))
	assert.Equal(t, "-£1,000,000.00", FormatPrice(decimal.NewFromInt(-1000000), "£"))
	assert.Equal(t, "£0.00", FormatPrice(decimal.Zero, "£"))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "4.2s", FormatElapsed(4200*time.Millisecond))
	assert.Equal(t, "2m 5.5s", FormatElapsed(125500*time.Millisecond))
	assert.Equal(t, "1h 1m 5s", FormatElapsed(time.Hour+time.Minute+5*time.Second))
}
