package sms

import (
	"regexp"

	"ubilite/models"
)

// GSM-7 single-segment and concatenated-segment budgets; UCS-2 for
// anything outside the basic charset.
const (
	gsm7SingleLen = 160
	gsm7MultiLen  = 153
	ucs2SingleLen = 70
	ucs2MultiLen  = 67
)

// gsm7Chars approximates the GSM 03.38 basic character set. Anything
// outside it forces the whole message to UCS-2.
var gsm7Chars = regexp.MustCompile("^[A-Za-z0-9 \\r\\n@£$¥èéùìòÇØøÅåΔ_ΦΓΛΩΠΨΣΘΞÆæßÉ!\"#¤%&'()*+,\\-./:;<=>?¡ÄÖÑÜ§¿äöñüà^{}\\\\\\[\\]~|€]*$")

// Segments splits text for multi-part delivery. A message that fits one
// segment comes back whole; longer ones are cut at the concatenated
// budget for the detected charset.
func Segments(text string) []string {
	runes := []rune(text)
	single, multi := gsm7SingleLen, gsm7MultiLen
	if !gsm7Chars.MatchString(text) {
		single, multi = ucs2SingleLen, ucs2MultiLen
	}
	if len(runes) <= single {
		return []string{text}
	}
	var parts []string
	for len(runes) > 0 {
		n := multi
		if n > len(runes) {
			n = len(runes)
		}
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return parts
}

// BuildOutgoing packs a reply for the aggregator. Only the first segment
// is sent; the aggregator contract has no concatenation support yet, so
// replies are written to fit one segment.
func BuildOutgoing(recipient, text, priority string) models.OutgoingSMS {
	return models.OutgoingSMS{
		Recipient: recipient,
		Message:   Segments(text)[0],
		Priority:  priority,
	}
}
