package util

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count in human-readable IEC units
func FormatBytes(n int64) string {
	return humanize.IBytes(uint64(n))
}

// FormatCount renders a count with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatTimeAgo renders a timestamp relative to now ("3 minutes ago")
func FormatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
