// Text helpers shared by every embed Waitingway renders.

package discord

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp styles understood by the discord client.
const (
	StyleRelative  = "R"
	StyleLongTime  = "T"
	StyleShortTime = "t"
)

// Returns discord timestamp markup, rendered in the reader's timezone.
func Timestamp(t time.Time, style string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}

// Formats a queue duration like 1h 2m 3s, zero reads Instant.
func FormatQueueDuration(d time.Duration) string {
	return formatDuration(d, true, "Instant")
}

// Formats a duration like 1h 2m 3s, zero reads 0s.
func FormatDuration(d time.Duration) string {
	return formatDuration(d, true, "0s")
}

// Formats a duty ETA without seconds, zero reads 0m.
func FormatDutyETA(d time.Duration) string {
	return formatDuration(d, false, "0m")
}

// Helper printing days, hours, minutes and seconds, leading zero units are skipped.
func formatDuration(d time.Duration, withSeconds bool, zero string) string {
	seconds := int64(d / time.Second)
	if seconds <= 0 {
		return zero
	}
	minutes, seconds := seconds/60, seconds%60
	hours, minutes := minutes/60, minutes%60
	days, hours := hours/24, hours%24

	var parts []string
	write := false
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
		write = true
	}
	if hours > 0 || write {
		parts = append(parts, fmt.Sprintf("%dh", hours))
		write = true
	}
	if minutes > 0 || write {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
		write = true
	}
	if withSeconds && (seconds > 0 || write) {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	if len(parts) == 0 {
		return zero
	}
	return strings.Join(parts, " ")
}
