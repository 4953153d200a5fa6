package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMSISDN(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"0712345678", "254712345678"},
		{"712345678", "254712345678"},
		{"+254712345678", "254712345678"},
		{"254712345678", "254712345678"},
		{"+254 712 345 678", "254712345678"},
		{"0110345678", "254110345678"},
	}
	for _, tc := range cases {
		got, err := NormalizeMSISDN(tc.raw)
		require.NoError(t, err, "raw %q", tc.raw)
		assert.Equal(t, tc.want, got, "raw %q", tc.raw)
	}

	for _, bad := range []string{"", "12345", "gibberish"} {
		_, err := NormalizeMSISDN(bad)
		assert.Error(t, err, "raw %q", bad)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 30))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "long st...", Truncate("long string here", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	// Rune-safe on multibyte text.
	assert.Equal(t, "Thika...", Truncate("Thika Road Mall étage", 8))
}

func TestRandomCode(t *testing.T) {
	code := RandomCode(4)
	assert.Len(t, code, 4)
	for _, r := range code {
		assert.Contains(t, codeCharset, string(r))
	}
	// No ambiguous glyphs in the alphabet.
	assert.NotContains(t, codeCharset, "0")
	assert.NotContains(t, codeCharset, "O")
	assert.NotContains(t, codeCharset, "1")
	assert.NotContains(t, codeCharset, "I")
	assert.NotContains(t, codeCharset, "L")
}
