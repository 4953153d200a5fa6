package voice

import (
	"strings"

	"ubilite/models"
)

// MinSpeechConfidence is the transcription confidence below which the
// caller is asked to confirm what we heard before it is acted on.
const MinSpeechConfidence = 0.7

type phrase struct {
	words string
	digit string
}

// Universal phrases work in every state and map onto the same digits the
// keypad path uses. Ordered lists keep the mapping deterministic when a
// transcript contains more than one phrase.
var universalPhrases = []phrase{
	{"go back", "0"}, {"back", "0"}, {"rudi", "0"},
	{"main menu", "*"}, {"start over", "*"}, {"menu", "*"}, {"anza", "*"},
	{"repeat", "#"}, {"again", "#"}, {"rudia", "#"},
	{"agent", "9"}, {"operator", "9"}, {"help me", "9"}, {"wakala", "9"}, {"msaada", "9"},
}

// statePhrases are per-state keyword sets, checked after the universal
// ones.
var statePhrases = map[string][]phrase{
	models.CALL_STATE_MAIN_MENU: {
		{"book", "1"}, {"booking", "1"}, {"ride", "1"}, {"safari", "1"}, {"taxi", "1"},
		{"status", "2"}, {"track", "2"}, {"where", "2"}, {"wapi", "2"},
		{"wallet", "3"}, {"balance", "3"}, {"money", "3"}, {"pochi", "3"}, {"salio", "3"},
		{"language", "4"}, {"lugha", "4"}, {"langue", "4"},
	},
	models.CALL_STATE_CONFIRM_BOOKING: {
		{"yes", "1"}, {"confirm", "1"}, {"correct", "1"}, {"ndiyo", "1"}, {"sawa", "1"}, {"oui", "1"},
		{"no", "2"}, {"cancel", "2"}, {"hapana", "2"}, {"non", "2"},
	},
	models.CALL_STATE_ENTER_DESTINATION: {
		{"home", "1"}, {"nyumbani", "1"}, {"maison", "1"},
		{"work", "2"}, {"office", "2"}, {"kazini", "2"}, {"travail", "2"},
	},
	models.CALL_STATE_LANGUAGE_SELECT: {
		{"english", "1"}, {"kiswahili", "2"}, {"swahili", "2"}, {"french", "3"}, {"francais", "3"},
	},
}

// freeTextStates accept arbitrary speech (addresses); an unmatched
// transcript passes through verbatim instead of becoming invalid input.
var freeTextStates = map[string]bool{
	models.CALL_STATE_BOOK_RIDE:         true,
	models.CALL_STATE_ENTER_PICKUP:      true,
	models.CALL_STATE_ENTER_DESTINATION: true,
}

// speechToCommand maps a transcript onto the digit alphabet for the given
// state. ok=false means the utterance was not understood.
func speechToCommand(transcript, state string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(transcript))
	if t == "" {
		return "", false
	}

	for _, p := range universalPhrases {
		if containsWord(t, p.words) {
			return p.digit, true
		}
	}
	for _, p := range statePhrases[state] {
		if containsWord(t, p.words) {
			return p.digit, true
		}
	}
	if freeTextStates[state] {
		return transcript, true
	}
	return "", false
}

// containsWord matches the phrase on whole words only: "track" never fires
// inside "backtrack". Inflected forms the menus care about are listed as
// their own keywords.
func containsWord(text, words string) bool {
	fields := strings.Fields(text)
	parts := strings.Fields(words)
	if len(parts) == 0 {
		return false
	}
	for i := 0; i+len(parts) <= len(fields); i++ {
		match := true
		for j, p := range parts {
			if fields[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
