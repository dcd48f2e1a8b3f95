package export

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatEUR renders an amount in Spanish notation with two decimals,
// e.g. 1.234,50 €
func FormatEUR(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	raw := amount.Abs().StringFixed(2)

	parts := strings.SplitN(raw, ".", 2)
	intPart, decPart := parts[0], parts[1]

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}

	result := b.String() + "," + decPart + " €"
	if negative {
		result = "-" + result
	}
	return result
}

// FormatPercent renders a rate such as 0.21 as "21%"
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).Round(2).String() + "%"
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}
