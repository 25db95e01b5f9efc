package runner

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCurrency extracts the numeric amount from a balance string such as
// "R$ 1.234,56", "$1,234.56" or "1234.56". Separator roles are inferred
// from position rather than assumed from one locale: when both '.' and ','
// appear, whichever comes last is the decimal point; a lone separator
// followed by exactly three digits is a thousands separator.
func ParseCurrency(s string) (float64, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("no numeric amount in %q", s)
	}

	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	case lastComma >= 0:
		cleaned = normalizeSingleSep(cleaned, ',', lastComma)
	case lastDot >= 0:
		cleaned = normalizeSingleSep(cleaned, '.', lastDot)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// normalizeSingleSep resolves a string containing only one separator kind.
// Repeated occurrences or a three-digit tail mean grouping; otherwise it is
// the decimal point.
func normalizeSingleSep(s string, sep byte, lastIdx int) string {
	sepStr := string(sep)
	if strings.Count(s, sepStr) > 1 || len(s)-lastIdx-1 == 3 {
		return strings.ReplaceAll(s, sepStr, "")
	}
	if sep == ',' {
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}
