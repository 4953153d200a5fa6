package voice

/************************************************
/**** MARK: ACTION TYPES ****/
/************************************************/
const ACTION_SPEAK = "SPEAK"
const ACTION_GATHER = "GATHER"
const ACTION_TRANSFER = "TRANSFER"
const ACTION_PLAY = "PLAY"
const ACTION_HANGUP = "HANGUP"

/************************************************
/**** MARK: GATHER INPUT MODES ****/
/************************************************/
const INPUT_DTMF = "dtmf"
const INPUT_SPEECH = "speech"
const INPUT_DTMF_SPEECH = "dtmf speech"

// Action is one declarative instruction for the telephony transport. A
// handler returns an ordered list of these; it never touches the call leg
// itself.
type Action struct {
	Type string `json:"type"`

	// SPEAK
	Text     string  `json:"text,omitempty"`
	Voice    string  `json:"voice,omitempty"`
	Rate     float64 `json:"rate,omitempty"`
	Language string  `json:"language,omitempty"`

	// GATHER
	InputMode      string `json:"input_mode,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	NumDigits      int    `json:"num_digits,omitempty"`

	// TRANSFER
	Destination string            `json:"destination,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`

	// PLAY
	AudioURL string `json:"audio_url,omitempty"`
}

// Default speech rate is slowed slightly; most callers are on noisy
// feature-phone lines.
const defaultRate = 0.9

const defaultGatherTimeout = 8

func speak(text, lang string) Action {
	return Action{Type: ACTION_SPEAK, Text: text, Voice: "female", Rate: defaultRate, Language: lang}
}

func gather(mode string) Action {
	return Action{Type: ACTION_GATHER, InputMode: mode, TimeoutSeconds: defaultGatherTimeout}
}

func transfer(destination string, headers map[string]string) Action {
	return Action{Type: ACTION_TRANSFER, Destination: destination, Headers: headers}
}

func play(url string) Action {
	return Action{Type: ACTION_PLAY, AudioURL: url}
}

func hangup() Action {
	return Action{Type: ACTION_HANGUP}
}
