package tools

import (
	"math/rand"
	"time"
)

const numbers = "0123456789"

// Ambiguous glyphs (0/O, 1/I, L) are excluded so codes survive being read
// back over a bad line or typed on a T9 keypad.
const codeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))

func RandomNumbers(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = numbers[seededRand.Intn(len(numbers))]
	}
	return string(b)
}

// RandomCode generates a short confirmation code for SMS handshakes.
func RandomCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = codeCharset[seededRand.Intn(len(codeCharset))]
	}
	return string(b)
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
// Truncation is always visible; callers never get a silently cut string.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
