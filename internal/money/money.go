// Package money holds integer rupiah helpers shared by the cart and the
// HTTP layer. Amounts are whole rupiah; there is no fractional unit.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatRupiah renders an amount as "Rp 15.000" with dot thousand
// separators. Negative amounts keep the sign in front of the currency mark.
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%sRp %s", sign, b.String())
}

// ParseAmount reads a cashier-entered amount, tolerating "Rp" prefixes,
// separators, and surrounding whitespace. Empty input parses to 0.
func ParseAmount(raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "Rp")
	cleaned = strings.TrimPrefix(cleaned, "rp")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, nil
	}

	amount, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

// Subtotal multiplies quantity by unit price. Quantities are clamped at
// zero so a stray negative input can never produce a negative subtotal.
func Subtotal(qty int, unitPrice int64) int64 {
	if qty < 0 {
		qty = 0
	}
	return int64(qty) * unitPrice
}
