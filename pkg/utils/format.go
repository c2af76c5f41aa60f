// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatCurrency formats an amount with thousands separators and two decimals.
func FormatCurrency(symbol string, amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return symbol + "-"
	}
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := symbol + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats P&L with a leading sign for profits.
func FormatPnL(symbol string, pnl float64) string {
	formatted := FormatCurrency(symbol, pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatQuantity formats a quantity, dropping the fraction for whole numbers.
func FormatQuantity(qty float64) string {
	if qty == math.Trunc(qty) && math.Abs(qty) < 1e15 {
		return groupSigned(int64(qty))
	}
	return fmt.Sprintf("%.4g", qty)
}

func groupSigned(n int64) string {
	if n < 0 {
		return "-" + groupThousands(fmt.Sprintf("%d", -n))
	}
	return groupThousands(fmt.Sprintf("%d", n))
}

// TruncateString shortens s to max runes, marking the cut with "...".
func TruncateString(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
