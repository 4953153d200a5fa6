package models

/************************************************
/**** MARK: AGENT STATUS ****/
/************************************************/
const AGENT_STATUS_AVAILABLE = "AVAILABLE"
const AGENT_STATUS_BUSY = "BUSY"
const AGENT_STATUS_OFFLINE = "OFFLINE"

// CallAgent is one human agent in the call-center pool. Pool state is
// process-wide, seeded at startup and mutated by assignment/release events.
type CallAgent struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Languages    []string `json:"languages"`
	Status       string   `json:"status"`
	CurrentCall  string   `json:"current_call,omitempty"` // session id when BUSY
	CurrentCalls int      `json:"current_calls"`
	MaxCalls     int      `json:"max_calls"`
	Extension    string   `json:"extension"`
}

// Speaks reports whether the agent covers the given language code.
func (a CallAgent) Speaks(lang string) bool {
	for _, l := range a.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
