package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

/************************************************
/**** MARK: CONFIRMATION ACTIONS ****/
/************************************************/
const CONFIRM_ACTION_BOOK = "book"
const CONFIRM_ACTION_CANCEL = "cancel"
const CONFIRM_ACTION_SEND = "send"

/************************************************
/**** MARK: SMS PRIORITY ****/
/************************************************/
const SMS_PRIORITY_NORMAL = "normal"
const SMS_PRIORITY_HIGH = "high"

// IncomingSMS is one message as delivered by the aggregator webhook.
type IncomingSMS struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// OutgoingSMS is what we hand to the delivery transport. Message holds a
// single segment; transports that support concatenation can ask the
// segmenter for the rest.
type OutgoingSMS struct {
	Recipient string `json:"recipient"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Priority  string `json:"priority"`
}

// PendingConfirmation is the stored half of the CONFIRM handshake, keyed
// "phone:CODE". Consuming it is exactly-once: deleted on read regardless of
// what happens afterwards.
type PendingConfirmation struct {
	Code      string              `json:"code"`
	Phone     string              `json:"phone"`
	Action    string              `json:"action"` // book | cancel | send
	Payload   ConfirmationPayload `json:"payload"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// ConfirmationPayload carries whatever the deferred action needs to run.
type ConfirmationPayload struct {
	UserID         string       `json:"user_id,omitempty"`
	TripID         string       `json:"trip_id,omitempty"`
	PickupCoords   *Coordinates `json:"pickup_coords,omitempty"`
	PickupAddress  string       `json:"pickup_address,omitempty"`
	DropoffCoords  *Coordinates `json:"dropoff_coords,omitempty"`
	DropoffAddress string       `json:"dropoff_address,omitempty"`
	Fare           float64      `json:"fare,omitempty"`
	Fee            float64      `json:"fee,omitempty"`
	Recipient      string       `json:"recipient,omitempty"`
	Amount         float64      `json:"amount,omitempty"`
}

// SMSTemplate is a stored outbound message template. Every {placeholder} in
// a content string must appear in Variables.
type SMSTemplate struct {
	ID        string            `gorm:"primary_key" json:"id"`
	Content   map[string]string `gorm:"-" json:"content"` // language -> text
	ContentJSON string          `gorm:"column:content;type:text" json:"-"`
	Variables []string          `gorm:"-" json:"variables"`
	VariablesJSON string        `gorm:"column:variables;type:text" json:"-"`
	Priority  string            `gorm:"default:'normal'" json:"priority"`
	MaxLength int               `gorm:"default:160" json:"max_length"`
	CreatedAt *time.Time        `json:"created_at"`
	UpdatedAt *time.Time        `json:"updated_at"`
}

var templatePlaceholders = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)

// Validate checks the template contract: every {placeholder} used in any
// language's content must be declared in Variables.
func (t *SMSTemplate) Validate() error {
	declared := make(map[string]bool, len(t.Variables))
	for _, v := range t.Variables {
		declared[v] = true
	}
	for lang, body := range t.Content {
		for _, m := range templatePlaceholders.FindAllStringSubmatch(body, -1) {
			if !declared[m[1]] {
				return fmt.Errorf("template %s: placeholder {%s} in %s content is not declared", t.ID, m[1], lang)
			}
		}
	}
	return nil
}

// BeforeSave packs the map fields into their JSON columns.
func (t *SMSTemplate) BeforeSave() error {
	content, err := json.Marshal(t.Content)
	if err != nil {
		return err
	}
	vars, err := json.Marshal(t.Variables)
	if err != nil {
		return err
	}
	t.ContentJSON = string(content)
	t.VariablesJSON = string(vars)
	return nil
}

// AfterFind unpacks the JSON columns.
func (t *SMSTemplate) AfterFind() error {
	if t.ContentJSON != "" {
		if err := json.Unmarshal([]byte(t.ContentJSON), &t.Content); err != nil {
			return err
		}
	}
	if t.VariablesJSON != "" {
		if err := json.Unmarshal([]byte(t.VariablesJSON), &t.Variables); err != nil {
			return err
		}
	}
	return nil
}
