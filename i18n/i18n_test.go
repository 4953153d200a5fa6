package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupAndFallback(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)

	assert.Contains(t, tr.T("ussd.main_menu", "en", nil), "Welcome to UBI")
	assert.Contains(t, tr.T("ussd.main_menu", "sw", nil), "Karibu UBI")

	// French tables are partial; missing keys fall back to the English text.
	assert.Equal(t, tr.T("ussd.wallet_topup_min", "en", nil), tr.T("ussd.wallet_topup_min", "fr", nil))

	// A key in no table comes back as the key itself, never empty.
	assert.Equal(t, "nope.missing", tr.T("nope.missing", "sw", nil))
}

func TestInterpolation(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)

	got := tr.T("ussd.booking_confirmed", "en", map[string]string{
		"driver": "James", "plate": "KDA 123X", "eta": "7 mins",
	})
	assert.Contains(t, got, "James")
	assert.Contains(t, got, "KDA 123X")
	assert.Contains(t, got, "7 mins")
	assert.NotContains(t, got, "{driver}")
}

func TestPluralization(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)

	assert.Equal(t, "1 min", tr.N("common.eta_minutes", "en", 1, nil))
	assert.Equal(t, "7 mins", tr.N("common.eta_minutes", "en", 7, nil))
}

func TestFormatMoney(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)

	assert.Equal(t, "KES 350", tr.FormatMoney(350, "en"))
	assert.Equal(t, "KES 1,500", tr.FormatMoney(1500, "en"))
}

func TestFormatETA(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)
	assert.Equal(t, "3 mins", tr.FormatETA(3, "en"))
}
