package monitor

import (
	"fmt"
	"math"
	"strings"
)

// FormatUSD renders a dollar amount for dashboard cards.
func FormatUSD(v float64) string {
	if v <= 0 {
		return "-"
	}
	return "$" + formatNum(v)
}

// FormatPercent renders a fraction (0.1234) as "12.34%".
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatRate renders an exchange rate with six decimals.
func FormatRate(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.6f", v)
}

func formatNum(v float64) string {
	if v >= 1_000_000_000 {
		return fmt.Sprintf("%.2fB", v/1_000_000_000)
	}
	if v >= 1_000_000 {
		return fmt.Sprintf("%.2fM", v/1_000_000)
	}
	if v >= 1_000 {
		return addCommas(fmt.Sprintf("%.2f", math.Round(v*100)/100))
	}
	return fmt.Sprintf("%.2f", v)
}

func addCommas(s string) string {
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	n := len(intPart)
	if n <= 3 {
		if len(parts) == 2 {
			return intPart + "." + parts[1]
		}
		return intPart
	}
	var result []byte
	for i, c := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	if len(parts) == 2 {
		return string(result) + "." + parts[1]
	}
	return string(result)
}
