package sms

import (
	"regexp"
	"strings"
)

/************************************************
/**** MARK: COMMAND TYPES ****/
/************************************************/
const CMD_BOOK = "BOOK"
const CMD_TRACK = "TRACK"
const CMD_CANCEL = "CANCEL"
const CMD_BALANCE = "BALANCE"
const CMD_HELP = "HELP"
const CMD_PRICE = "PRICE"
const CMD_REGISTER = "REGISTER"
const CMD_FEEDBACK = "FEEDBACK"
const CMD_CONFIRM = "CONFIRM"
const CMD_DRIVER = "DRIVER"
const CMD_SET_HOME = "SET_HOME"
const CMD_SET_WORK = "SET_WORK"
const CMD_UNKNOWN = "UNKNOWN"

// Command is one parsed SMS. Args holds the capture groups of the pattern
// that matched, in order.
type Command struct {
	Type string
	Args []string
}

type pattern struct {
	cmd string
	re  *regexp.Regexp
}

// patterns is an ordered list; the first match wins, so the more specific
// BOOK FROM..TO shape sits above the bare BOOK shape.
var patterns = []pattern{
	{CMD_BOOK, regexp.MustCompile(`(?i)^BOOK\s+FROM\s+(.+?)\s+TO\s+(.+)$`)},
	{CMD_BOOK, regexp.MustCompile(`(?i)^BOOK\s+(?:TO\s+)?(.+)$`)},
	{CMD_TRACK, regexp.MustCompile(`(?i)^TRACK$`)},
	{CMD_CANCEL, regexp.MustCompile(`(?i)^CANCEL$`)},
	{CMD_BALANCE, regexp.MustCompile(`(?i)^BALANCE$`)},
	{CMD_HELP, regexp.MustCompile(`(?i)^HELP$`)},
	{CMD_PRICE, regexp.MustCompile(`(?i)^PRICE\s+(.+?)\s+TO\s+(.+)$`)},
	{CMD_REGISTER, regexp.MustCompile(`(?i)^REGISTER\s+(.+)$`)},
	{CMD_FEEDBACK, regexp.MustCompile(`(?i)^FEEDBACK\s+(.+)$`)},
	{CMD_CONFIRM, regexp.MustCompile(`(?i)^CONFIRM(?:\s+([A-Z0-9]+))?$`)},
	{CMD_DRIVER, regexp.MustCompile(`(?i)^DRIVER$`)},
	{CMD_SET_HOME, regexp.MustCompile(`(?i)^SET\s*HOME\s+(.+)$`)},
	{CMD_SET_WORK, regexp.MustCompile(`(?i)^SET\s*WORK\s+(.+)$`)},
}

// ParseCommand maps one message body onto the command set. Matching is
// deterministic: same body, same command, every time.
func ParseCommand(body string) Command {
	body = strings.TrimSpace(body)
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(body); m != nil {
			args := make([]string, 0, len(m)-1)
			for _, a := range m[1:] {
				args = append(args, strings.TrimSpace(a))
			}
			return Command{Type: p.cmd, Args: args}
		}
	}
	return Command{Type: CMD_UNKNOWN}
}
