package cli

import (
	"fmt"
	"math"
	"time"

	"position-engine/pkg/utils"
)

// FormatDate formats a trading date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// FormatDateTime formats a timestamp in local time.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatIndicator formats an indicator value for a terminal table.
func FormatIndicator(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return utils.FormatNumber(v, 2)
}

// FormatStatusCounts formats applied/clipped/skipped/lost counts compactly.
func FormatStatusCounts(applied, clipped, skipped, lost int) string {
	return fmt.Sprintf("%d/%d/%d/%d", applied, clipped, skipped, lost)
}
