package models

import "time"

/************************************************
/**** MARK: SESSION CHANNELS ****/
/************************************************/
const CHANNEL_USSD = "ussd"
const CHANNEL_SMS = "sms"
const CHANNEL_VOICE = "voice"

/************************************************
/**** MARK: USSD STATES ****/
/************************************************/
const STATE_MAIN_MENU = "MAIN_MENU"
const STATE_BOOK_RIDE_METHOD = "BOOK_RIDE_METHOD"
const STATE_ENTER_PICKUP = "ENTER_PICKUP"
const STATE_ENTER_DESTINATION = "ENTER_DESTINATION"
const STATE_SELECT_VEHICLE = "SELECT_VEHICLE"
const STATE_CONFIRM_BOOKING = "CONFIRM_BOOKING"
const STATE_TRACK_RIDE = "TRACK_RIDE"
const STATE_WALLET_MENU = "WALLET_MENU"
const STATE_WALLET_TOPUP = "WALLET_TOPUP"
const STATE_WALLET_SEND = "WALLET_SEND"
const STATE_RECENT_TRIPS = "RECENT_TRIPS"
const STATE_SAVED_PLACES = "SAVED_PLACES"
const STATE_LANGUAGE_SELECT = "LANGUAGE_SELECT"
const STATE_ENTER_PIN = "ENTER_PIN"
const STATE_HELP = "HELP"

/************************************************
/**** MARK: IVR CALL STATES ****/
/************************************************/
const CALL_STATE_WELCOME = "WELCOME"
const CALL_STATE_MAIN_MENU = "MAIN_MENU"
const CALL_STATE_LANGUAGE_SELECT = "LANGUAGE_SELECT"
const CALL_STATE_BOOK_RIDE = "BOOK_RIDE"
const CALL_STATE_ENTER_PICKUP = "ENTER_PICKUP"
const CALL_STATE_ENTER_DESTINATION = "ENTER_DESTINATION"
const CALL_STATE_CONFIRM_BOOKING = "CONFIRM_BOOKING"
const CALL_STATE_TRIP_STATUS = "TRIP_STATUS"
const CALL_STATE_WALLET_MENU = "WALLET_MENU"
const CALL_STATE_HELP = "HELP"
const CALL_STATE_AWAITING_AGENT = "AWAITING_AGENT"
const CALL_STATE_WITH_AGENT = "WITH_AGENT"
const CALL_STATE_BOOKING_CONFIRMED = "BOOKING_CONFIRMED"
const CALL_STATE_ENDED = "ENDED"

// SessionData is the typed transient bag a conversation accumulates while a
// flow is in progress. It replaces the untyped dictionaries the handlers
// used to pass around.
type SessionData struct {
	PickupCoords   *Coordinates `json:"pickup_coords,omitempty"`
	PickupAddress  string       `json:"pickup_address,omitempty"`
	DropoffCoords  *Coordinates `json:"dropoff_coords,omitempty"`
	DropoffAddress string       `json:"dropoff_address,omitempty"`
	Estimate       *FareEstimate `json:"estimate,omitempty"`
	VehicleType    string       `json:"vehicle_type,omitempty"`
	TripID         string       `json:"trip_id,omitempty"`

	// Saved-places list doubles as a pickup selector during booking.
	SelectingPickup bool `json:"selecting_pickup,omitempty"`

	// Wallet transfer collector
	SendRecipient string  `json:"send_recipient,omitempty"`
	SendAmount    float64 `json:"send_amount,omitempty"`
	TopUpAmount   float64 `json:"topup_amount,omitempty"`

	// IVR speech confirmation: transcript waiting for a digit yes/no
	PendingTranscript string `json:"pending_transcript,omitempty"`

	// Agent hand-off
	AgentID string `json:"agent_id,omitempty"`
}

// Session is one active conversation on a stateless transport. Keyed by the
// transport id (USSD sessionId, IVR callSid). One session is only ever
// touched by its single in-flight turn; different sessions are independent.
type Session struct {
	ID          string       `json:"id"`
	Channel     string       `json:"channel"`
	PhoneNumber string       `json:"phone_number"`
	UserID      string       `json:"user_id,omitempty"` // empty for anonymous sessions
	State       string       `json:"state"`
	MenuPath    []string     `json:"menu_path"` // stack of visited states, for "back"
	Data        SessionData  `json:"data"`
	Inputs      []string     `json:"inputs"` // audit trail of raw inputs
	Language    string       `json:"language"`
	RetryCount  int          `json:"retry_count"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// PushState records the current state on the menu path before a transition.
func (s *Session) PushState() {
	s.MenuPath = append(s.MenuPath, s.State)
}

// PopState removes and returns the most recent state on the menu path.
// Returns "" when the path is empty.
func (s *Session) PopState() string {
	if len(s.MenuPath) == 0 {
		return ""
	}
	last := s.MenuPath[len(s.MenuPath)-1]
	s.MenuPath = s.MenuPath[:len(s.MenuPath)-1]
	return last
}

// ClearFlow drops all transient booking/wallet data, keeping identity and
// language. Used by the global cancel command.
func (s *Session) ClearFlow() {
	s.Data = SessionData{}
	s.MenuPath = nil
	s.RetryCount = 0
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
