package payables

import (
	"errors"
	"strings"
)

var errPhoneLength = errors.New("must have between 10 and 13 digits")

// NormalizePhone strips formatting such as "(11) 98765-4321" down to digits.
// Empty input is allowed and stays empty.
func NormalizePhone(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", nil
	}
	if len(digits) < 10 || len(digits) > 13 {
		return "", errPhoneLength
	}
	return digits, nil
}

// WhatsAppNumber prefixes the Brazilian country code to local numbers
func WhatsAppNumber(phone string) string {
	if len(phone) == 10 || len(phone) == 11 {
		return "55" + phone
	}
	return phone
}
