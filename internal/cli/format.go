// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatAmount formats a currency amount with comma separators and the
// given number of decimals.
// e.g., FormatAmount(1234.5, 2) -> "1,234.50"
func FormatAmount(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	if decimals < 0 {
		decimals = 0
	}

	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	whole, frac, _ := strings.Cut(s, ".")

	// values beyond int64 are left ungrouped
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		s = FormatNumber(n)
		if frac != "" {
			s += "." + frac
		}
	}
	if v < 0 && strings.Trim(s, "0.,") != "" {
		return "-" + s
	}
	return s
}

// FormatSigned formats an amount with an explicit sign, for net changes.
// e.g., 700 -> "+700.00", -100 -> "-100.00"
func FormatSigned(v float64, decimals int) string {
	s := FormatAmount(v, decimals)
	if v > 0 && s != "n/a" {
		return "+" + s
	}
	return s
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatRate formats a whole-percent slider value with its sign.
// e.g., 10 -> "+10%", -2.5 -> "-2.5%"
func FormatRate(rate float64) string {
	s := strconv.FormatFloat(rate, 'f', -1, 64) + "%"
	if rate > 0 {
		return "+" + s
	}
	return s
}

// FormatMonths formats a survival figure, or a dash when there is none.
func FormatMonths(months *float64) string {
	if months == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f months", *months)
}

// FormatDays formats a lead time with one decimal.
func FormatDays(days float64, unit string) string {
	if unit == "" {
		unit = "days"
	}
	return fmt.Sprintf("%.1f %s", days, unit)
}
