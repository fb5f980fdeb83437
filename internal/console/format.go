package console

import (
	"fmt"
	"time"

	"github.com/nerrad567/asset-registry/internal/asset"
)

// ClockLayout is the 24-hour wall clock format.
const ClockLayout = "15:04:05"

// displayDateLayout renders maintenance dates like "Jan 10, 2024".
const displayDateLayout = "Jan 02, 2006"

// CountLabel returns "1 Asset" or "N Assets".
func CountLabel(n int) string {
	if n == 1 {
		return "1 Asset"
	}
	return fmt.Sprintf("%d Assets", n)
}

// FormatOEE renders a score with two decimals and a percent sign.
func FormatOEE(score float64) string {
	return fmt.Sprintf("%.2f%%", score)
}

// FormatDate renders a YYYY-MM-DD date for display. Unparsable input is
// returned unchanged.
func FormatDate(date string) string {
	t, err := time.Parse(asset.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(displayDateLayout)
}

// StatusClass is the CSS class suffix for a status badge. Unknown values
// render as running.
func StatusClass(s asset.Status) string {
	switch s {
	case asset.StatusMaintenance:
		return "maintenance"
	case asset.StatusDown:
		return "down"
	default:
		return "running"
	}
}
