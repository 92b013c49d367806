package payables

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places kept for every amount
const MoneyPlaces = 2

// ParseBRL converts Brazilian-formatted money ("R$ 1.234,56", "1234,5", "99.90")
// into a decimal rounded to cents. A lone dot followed by one or two digits is
// read as the decimal separator, any other dot as a thousands separator.
func ParseBRL(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "R$")
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.ReplaceAll(raw, "\u00a0", "")
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	switch {
	case strings.Contains(raw, ","):
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
	case strings.Count(raw, ".") == 1:
		if idx := strings.Index(raw, "."); len(raw)-idx-1 > 2 {
			raw = strings.ReplaceAll(raw, ".", "")
		}
	default:
		raw = strings.ReplaceAll(raw, ".", "")
	}

	if strings.ContainsAny(raw, ",eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d.Round(MoneyPlaces), nil
}

// FormatBRL renders an amount as "R$ 1.234,56"
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + FormatDecimalBR(d)
}

// FormatDecimalBR renders an amount as "1.234,56"
func FormatDecimalBR(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(MoneyPlaces)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.IsNegative() && !d.Round(MoneyPlaces).IsZero() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
