package utils

import (
	"fmt"
	"math"
	"time"
)

// FormatElapsed renders a duration as "12.3s", "4m 5.6s" or "1h 2m 3s".
func FormatElapsed(d time.Duration) string {
	sec := d.Seconds()
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	m := math.Floor(sec / 60)
	s := sec - m*60
	if m < 60 {
		return fmt.Sprintf("%dm %.1fs", int(m), s)
	}
	h := int(m) / 60
	return fmt.Sprintf("%dh %dm %.0fs", h, int(m)%60, s)
}
