package ui

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle shortens a string by removing characters from the middle,
// keeping more of the end (the file name for paths).
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 5 {
		return string(runes[:limit])
	}
	endLen := (limit - 3) * 2 / 3
	startLen := limit - 3 - endLen
	return string(runes[:startLen]) + "..." + string(runes[len(runes)-endLen:])
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// padLeft right-aligns s within width.
func padLeft(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(r)) + s
}

// formatMoney renders a price with two decimals.
func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// formatSaleDate renders a sale timestamp in local time, or "-" when unknown.
func formatSaleDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// ternary returns a if cond is true, otherwise b.
func ternary(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
