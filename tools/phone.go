package tools

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizeMSISDN normalizes a phone number to international format without
// the leading '+' (the format USSD gateways and SMS aggregators hand us).
//
// Heuristic (Kenya first, since that is where the gateways run):
// - strip everything that is not a digit
// - "07XXXXXXXX" / "01XXXXXXXX" (10 digits, trunk prefix) -> "254" + rest
// - "7XXXXXXXX" / "1XXXXXXXX" (9 digits) -> "254" + number
// - 12+ digits: assume country code already present, keep as-is
func NormalizeMSISDN(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty phone")
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	phone := b.String()

	if len(phone) == 10 && (strings.HasPrefix(phone, "07") || strings.HasPrefix(phone, "01")) {
		phone = "254" + phone[1:]
	} else if len(phone) == 9 && (phone[0] == '7' || phone[0] == '1') {
		phone = "254" + phone
	}

	if len(phone) < 11 {
		return "", fmt.Errorf("invalid phone length: %d", len(phone))
	}
	return phone, nil
}

// IsValidMSISDN reports whether raw normalizes cleanly.
func IsValidMSISDN(raw string) bool {
	_, err := NormalizeMSISDN(raw)
	return err == nil
}
