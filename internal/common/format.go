package common

import (
	"fmt"
	"strings"
	"time"
)

const DefaultWidth = 72

func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a title framed by separators
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// BoxPrefix returns the box-drawing prefix for a list item
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "├  "
}

// BoxDetailPrefix returns the prefix for lines nested under a list item
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// FormatPremium renders a premium expiry relative to now.
func FormatPremium(premiumUntil *time.Time, now time.Time) string {
	switch {
	case premiumUntil == nil:
		return "none"
	case !premiumUntil.After(now):
		return fmt.Sprintf("expired %s", premiumUntil.UTC().Format(time.RFC3339))
	default:
		remaining := premiumUntil.Sub(now).Truncate(time.Hour)
		return fmt.Sprintf("active until %s (%s left)", premiumUntil.UTC().Format(time.RFC3339), formatDays(remaining))
	}
}

func formatDays(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)
	if days == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dd %dh", days, hours)
}

// FormatSignedAmount prefixes spends with a minus sign.
func FormatSignedAmount(transactionType string, amount int64) string {
	if transactionType == "spend" {
		return fmt.Sprintf("-%d", amount)
	}
	return fmt.Sprintf("+%d", amount)
}

// PrintBoxSeparator prints a box-drawing separator line for sub-sections
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}
