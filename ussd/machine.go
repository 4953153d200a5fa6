// Package ussd implements the menu-driven USSD state machine. Each gateway
// request is one synchronous turn: look the session up (or create it),
// dispatch on state, render the next menu, persist the session with a
// refreshed TTL. Responses never exceed the gateway's 182-character limit.
package ussd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ubilite/audit"
	"ubilite/clients"
	"ubilite/i18n"
	"ubilite/models"
	"ubilite/store"
	"ubilite/tools"
)

// MaxMessageLen is the USSD gateway response budget. Longer menus are
// truncated with an ellipsis, never split.
const MaxMessageLen = 182

// DefaultSessionTTL is refreshed on every turn.
const DefaultSessionTTL = 180 * time.Second

const sessionKeyPrefix = "ussd:sess:"

// Display budget for addresses on the confirm screen.
const confirmAddressChars = 35

const minTopUp = 100
const minTransfer = 50

// parentState drives the "0"/"back" command. States not listed fall back
// to the main menu.
var parentState = map[string]string{
	models.STATE_BOOK_RIDE_METHOD:  models.STATE_MAIN_MENU,
	models.STATE_ENTER_PICKUP:      models.STATE_BOOK_RIDE_METHOD,
	models.STATE_ENTER_DESTINATION: models.STATE_BOOK_RIDE_METHOD,
	models.STATE_SELECT_VEHICLE:    models.STATE_ENTER_DESTINATION,
	models.STATE_CONFIRM_BOOKING:   models.STATE_ENTER_DESTINATION,
	models.STATE_TRACK_RIDE:        models.STATE_MAIN_MENU,
	models.STATE_WALLET_MENU:       models.STATE_MAIN_MENU,
	models.STATE_WALLET_TOPUP:      models.STATE_WALLET_MENU,
	models.STATE_WALLET_SEND:       models.STATE_WALLET_MENU,
	models.STATE_ENTER_PIN:         models.STATE_WALLET_SEND,
	models.STATE_RECENT_TRIPS:      models.STATE_MAIN_MENU,
	models.STATE_SAVED_PLACES:      models.STATE_MAIN_MENU,
	models.STATE_LANGUAGE_SELECT:   models.STATE_MAIN_MENU,
	models.STATE_HELP:              models.STATE_MAIN_MENU,
}

// Request is one gateway turn.
type Request struct {
	SessionID   string
	PhoneNumber string
	Input       string
	ServiceCode string
	Carrier     string
}

// Response is what the gateway renders. ContinueSession=false ends the
// USSD dialog.
type Response struct {
	Message         string
	ContinueSession bool
}

// Machine holds the collaborators one USSD turn may touch.
type Machine struct {
	store   store.Store
	tr      *i18n.Translator
	geo     clients.Geocoder
	trips   clients.TripService
	wallet  clients.WalletService
	users   clients.UserService
	places  clients.SavedPlaces
	sms     clients.Messenger
	audit   audit.Recorder
	ttl     time.Duration
	defLang string
	now     func() time.Time
}

type Deps struct {
	Store    store.Store
	Translator *i18n.Translator
	Geocoder clients.Geocoder
	Trips    clients.TripService
	Wallet   clients.WalletService
	Users    clients.UserService
	Places   clients.SavedPlaces
	SMS      clients.Messenger
	Audit    audit.Recorder
	TTL      time.Duration
	DefaultLanguage string
}

func New(d Deps) *Machine {
	m := &Machine{
		store: d.Store, tr: d.Translator, geo: d.Geocoder, trips: d.Trips,
		wallet: d.Wallet, users: d.Users, places: d.Places, sms: d.SMS,
		audit: d.Audit, ttl: d.TTL, defLang: d.DefaultLanguage, now: time.Now,
	}
	if m.ttl <= 0 {
		m.ttl = DefaultSessionTTL
	}
	if m.defLang == "" {
		m.defLang = i18n.DefaultLanguage
	}
	if m.audit == nil {
		m.audit = audit.Nop{}
	}
	return m
}

// HandleRequest processes one turn. It never returns an error to the
// gateway: dispatch failures become a localized generic message with the
// session terminated.
func (m *Machine) HandleRequest(ctx context.Context, req Request) Response {
	start := m.now()

	sess, fresh, err := m.loadOrCreate(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Str("phone", req.PhoneNumber).Msg("ussd session load failed")
		return Response{Message: m.tr.T("error.generic", m.defLang, nil), ContinueSession: false}
	}

	var resp Response
	if fresh && req.Input != "" {
		// Input composed against an expired dialog must not drive the new
		// one: the turn restarts at the main menu.
		resp, err = m.render(ctx, sess, m.tr.T("error.session_expired", sess.Language, nil))
	} else {
		resp, err = m.dispatch(ctx, sess, req.Input)
	}
	if err != nil {
		log.Error().Err(err).
			Str("session_id", sess.ID).Str("phone", sess.PhoneNumber).Str("state", sess.State).
			Msg("ussd dispatch failed")
		resp = Response{Message: m.tr.T("error.generic", sess.Language, nil), ContinueSession: false}
	}

	resp.Message = clamp(resp.Message)

	sess.Inputs = append(sess.Inputs, req.Input)
	sess.UpdatedAt = m.now()
	sess.ExpiresAt = sess.UpdatedAt.Add(m.ttl)
	if resp.ContinueSession {
		if err := store.SetJSON(ctx, m.store, sessionKeyPrefix+sess.ID, sess, m.ttl); err != nil {
			log.Error().Err(err).Str("session_id", sess.ID).Msg("ussd session save failed")
		}
	} else {
		_ = m.store.Delete(ctx, sessionKeyPrefix+sess.ID)
	}

	m.audit.Record(models.AuditEvent{
		EventID:     uuid.NewString(),
		Channel:     models.CHANNEL_USSD,
		TransportID: sess.ID,
		Phone:       sess.PhoneNumber,
		State:       sess.State,
		Input:       req.Input,
		Response:    resp.Message,
		LatencyMs:   m.now().Sub(start).Milliseconds(),
	})
	return resp
}

// loadOrCreate treats an expired session as absent: a turn after expiry is
// a brand-new dialog. The second return reports whether this turn had to
// create the session.
func (m *Machine) loadOrCreate(ctx context.Context, req Request) (*models.Session, bool, error) {
	var sess models.Session
	ok, err := store.GetJSON(ctx, m.store, sessionKeyPrefix+req.SessionID, &sess)
	if err != nil {
		return nil, false, err
	}
	if ok && !sess.Expired(m.now()) {
		return &sess, false, nil
	}

	phone, err := tools.NormalizeMSISDN(req.PhoneNumber)
	if err != nil {
		phone = req.PhoneNumber
	}

	now := m.now()
	sess = models.Session{
		ID:          req.SessionID,
		Channel:     models.CHANNEL_USSD,
		PhoneNumber: phone,
		State:       models.STATE_MAIN_MENU,
		Language:    m.defLang,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}

	// Anonymous sessions are allowed; a registered user brings a language
	// preference and a wallet.
	if user, err := m.users.FindByPhone(ctx, phone); err != nil {
		log.Warn().Err(err).Str("phone", phone).Msg("user lookup failed, continuing anonymous")
	} else if user != nil {
		sess.UserID = user.ID
		if user.Language != "" {
			sess.Language = user.Language
		}
	}
	return &sess, true, nil
}

// dispatch applies the global commands, then the per-state handler.
func (m *Machine) dispatch(ctx context.Context, sess *models.Session, input string) (Response, error) {
	input = lastComponent(strings.TrimSpace(input))

	// Global commands win over state handlers.
	switch strings.ToLower(input) {
	case "00", "cancel":
		sess.ClearFlow()
		sess.State = models.STATE_MAIN_MENU
		return m.render(ctx, sess, "")
	case "0", "back":
		parent, ok := parentState[sess.State]
		if !ok {
			parent = models.STATE_MAIN_MENU
		}
		sess.State = parent
		sess.PopState()
		return m.render(ctx, sess, "")
	}

	switch sess.State {
	case models.STATE_MAIN_MENU:
		return m.handleMainMenu(ctx, sess, input)
	case models.STATE_BOOK_RIDE_METHOD:
		return m.handleBookMethod(ctx, sess, input)
	case models.STATE_ENTER_PICKUP:
		return m.handleEnterPickup(ctx, sess, input)
	case models.STATE_ENTER_DESTINATION:
		return m.handleEnterDestination(ctx, sess, input)
	case models.STATE_SELECT_VEHICLE:
		return m.handleSelectVehicle(ctx, sess, input)
	case models.STATE_CONFIRM_BOOKING:
		return m.handleConfirmBooking(ctx, sess, input)
	case models.STATE_TRACK_RIDE:
		return m.render(ctx, sess, "")
	case models.STATE_WALLET_MENU:
		return m.handleWalletMenu(ctx, sess, input)
	case models.STATE_WALLET_TOPUP:
		return m.handleWalletTopUp(ctx, sess, input)
	case models.STATE_WALLET_SEND:
		return m.handleWalletSend(ctx, sess, input)
	case models.STATE_ENTER_PIN:
		return m.handleEnterPIN(ctx, sess, input)
	case models.STATE_RECENT_TRIPS, models.STATE_HELP:
		return m.render(ctx, sess, "")
	case models.STATE_SAVED_PLACES:
		return m.handleSavedPlaces(ctx, sess, input)
	case models.STATE_LANGUAGE_SELECT:
		return m.handleLanguageSelect(ctx, sess, input)
	default:
		return Response{}, fmt.Errorf("unknown session state %q", sess.State)
	}
}

// clamp enforces the gateway message budget.
func clamp(msg string) string {
	return tools.Truncate(msg, MaxMessageLen)
}

// lastComponent strips the cumulative "1*2*Westlands" path some carriers
// send; the final component is this turn's input.
func lastComponent(s string) string {
	if i := strings.LastIndexByte(s, '*'); i >= 0 {
		return s[i+1:]
	}
	return s
}
