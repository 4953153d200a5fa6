package sms

import "strings"

// Marker words for senders with no stored language preference. Command
// keywords themselves are English on every channel, so only the free-text
// part of the body carries a signal.
var languageMarkers = map[string][]string{
	"sw": {"nataka", "safari", "kwenda", "kutoka", "pesa", "salio", "tafadhali", "nyumbani", "kazini", "asante"},
	"fr": {"je", "vais", "course", "maison", "travail", "argent", "solde", "merci", "depuis", "vers"},
}

var markerOrder = []string{"sw", "fr"}

// DetectLanguage scans the body for marker words and returns a language
// code, or "" when nothing matches. Ties resolve in a fixed order so the
// result is stable for a given body.
func DetectLanguage(body string) string {
	words := strings.Fields(strings.ToLower(body))
	best, bestHits := "", 0
	for _, lang := range markerOrder {
		markers := languageMarkers[lang]
		hits := 0
		for _, w := range words {
			for _, m := range markers {
				if w == m {
					hits++
				}
			}
		}
		if hits > bestHits {
			best, bestHits = lang, hits
		}
	}
	return best
}
