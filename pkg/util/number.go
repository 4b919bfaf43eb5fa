package util

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatFixed renders n with exactly scale decimals.
func FormatFixed(n float64, scale int) string {
	if scale < 0 {
		scale = 0
	}
	return strconv.FormatFloat(n, 'f', scale, 64)
}

// FormatNumberEn groups a numeric string with commas and truncates (never
// rounds) its decimals to precision, padding with zeros when shorter.
// Non-numeric input is returned unchanged.
func FormatNumberEn(s string, precision int) string {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	if precision < 0 {
		precision = 0
	}
	return groupDigits(d.Truncate(int32(precision)).StringFixed(int32(precision)), ",")
}

// ParseFloatDefault parses s or returns def when empty/invalid.
func ParseFloatDefault(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return v
}

func groupDigits(fixed, sep string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(sep)
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
