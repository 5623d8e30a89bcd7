package library

import "fmt"

// FormatDuration renders a millisecond duration as "XhYm" (seconds dropped
// at an hour or more) or "XmYs" below that. Zero is "0m 0s".
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}

	seconds := ms / 1000
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	seconds = seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
