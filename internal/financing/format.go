package financing

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	thousandsSeparator = "."
	decimalSeparator   = ","
)

// FormatCurrency renders value the way prices are shown to customers
// (es-AR: "." groups thousands, "," separates cents), e.g. 9166.67 -> "9.166,67".
// The value is rounded with the same rule as the installment math so the
// displayed figure always matches the computed one.
func FormatCurrency(value decimal.Decimal) string {
	fixed := roundMoney(value).StringFixed(MoneyPlaces)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.Grow(len(sign) + len(intPart) + len(intPart)/3 + 1 + len(fracPart))
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousandsSeparator)
		}
		b.WriteRune(r)
	}
	b.WriteString(decimalSeparator)
	b.WriteString(fracPart)
	return b.String()
}
