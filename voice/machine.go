// Package voice implements the IVR call flow. DTMF digits and speech
// transcripts converge on one digit-based dispatcher; every handler
// returns a declarative action list for the telephony transport.
package voice

import (
	"context"
	"strconv"
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

// DefaultSessionTTL is longer than USSD's: a call survives hold music.
const DefaultSessionTTL = 600 * time.Second

const sessionKeyPrefix = "ivr:sess:"

// MaxRetries bounds invalid input in the free-text states before the
// caller is handed to a human.
const MaxRetries = 3

const defaultHoldMusicURL = "https://cdn.ubi.co.ke/ivr/hold.mp3"

// parentCallState drives the "0" command. States not listed fall back to
// the main menu.
var parentCallState = map[string]string{
	models.CALL_STATE_ENTER_PICKUP:      models.CALL_STATE_MAIN_MENU,
	models.CALL_STATE_BOOK_RIDE:         models.CALL_STATE_MAIN_MENU,
	models.CALL_STATE_ENTER_DESTINATION: models.CALL_STATE_ENTER_PICKUP,
	models.CALL_STATE_CONFIRM_BOOKING:   models.CALL_STATE_ENTER_DESTINATION,
}

// CallEvent is the webhook for a new inbound call leg.
type CallEvent struct {
	CallSID string
	From    string
	To      string
}

type Machine struct {
	store     store.Store
	tr        *i18n.Translator
	geo       clients.Geocoder
	trips     clients.TripService
	wallet    clients.WalletService
	users     clients.UserService
	places    clients.SavedPlaces
	pool      *Pool
	audit     audit.Recorder
	ttl       time.Duration
	defLang   string
	holdMusic string
	now       func() time.Time
}

type Deps struct {
	Store           store.Store
	Translator      *i18n.Translator
	Geocoder        clients.Geocoder
	Trips           clients.TripService
	Wallet          clients.WalletService
	Users           clients.UserService
	Places          clients.SavedPlaces
	Pool            *Pool
	Audit           audit.Recorder
	TTL             time.Duration
	DefaultLanguage string
	HoldMusicURL    string
}

func New(d Deps) *Machine {
	m := &Machine{
		store: d.Store, tr: d.Translator, geo: d.Geocoder, trips: d.Trips,
		wallet: d.Wallet, users: d.Users, places: d.Places, pool: d.Pool,
		audit: d.Audit, ttl: d.TTL, defLang: d.DefaultLanguage,
		holdMusic: d.HoldMusicURL, now: time.Now,
	}
	if m.ttl <= 0 {
		m.ttl = DefaultSessionTTL
	}
	if m.defLang == "" {
		m.defLang = i18n.DefaultLanguage
	}
	if m.holdMusic == "" {
		m.holdMusic = defaultHoldMusicURL
	}
	if m.pool == nil {
		m.pool = NewPool(nil)
	}
	if m.audit == nil {
		m.audit = audit.Nop{}
	}
	return m
}

// HandleIncomingCall starts a session. A caller with a trip in progress
// skips the menu and hears their trip status first.
func (m *Machine) HandleIncomingCall(ctx context.Context, ev CallEvent) []Action {
	start := m.now()
	now := start

	phone, err := tools.NormalizeMSISDN(ev.From)
	if err != nil {
		phone = ev.From
	}

	sess := &models.Session{
		ID:          ev.CallSID,
		Channel:     models.CHANNEL_VOICE,
		PhoneNumber: phone,
		State:       models.CALL_STATE_WELCOME,
		Language:    m.defLang,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}
	if user, err := m.users.FindByPhone(ctx, phone); err != nil {
		log.Warn().Err(err).Str("phone", phone).Msg("ivr user lookup failed, continuing anonymous")
	} else if user != nil {
		sess.UserID = user.ID
		if user.Language != "" {
			sess.Language = user.Language
		}
	}

	actions := []Action{speak(m.tr.T("ivr.welcome", sess.Language, nil), sess.Language)}

	// Active trip fast-track.
	if sess.UserID != "" {
		if trip, err := m.trips.GetActive(ctx, sess.UserID); err != nil {
			log.Warn().Err(err).Str("user_id", sess.UserID).Msg("ivr active trip lookup failed")
		} else if trip != nil {
			sess.State = models.CALL_STATE_TRIP_STATUS
			actions = append(actions, m.tripStatusActions(sess, trip)...)
			m.persist(ctx, sess)
			m.record(sess, "", actions, start)
			return actions
		}
	}

	sess.State = models.CALL_STATE_MAIN_MENU
	actions = append(actions, m.promptActions(ctx, sess)...)
	m.persist(ctx, sess)
	m.record(sess, "", actions, start)
	return actions
}

// HandleDTMF processes keypad digits for an ongoing call.
func (m *Machine) HandleDTMF(ctx context.Context, callSID, digits string) []Action {
	start := m.now()
	sess, ok := m.load(ctx, callSID)
	if !ok {
		return []Action{speak(m.tr.T("ivr.goodbye", m.defLang, nil), m.defLang), hangup()}
	}
	actions := m.processInput(ctx, sess, digits)
	m.persist(ctx, sess)
	m.record(sess, digits, actions, start)
	return actions
}

// HandleSpeech processes a transcript. Low-confidence recognition is
// echoed back for digit confirmation instead of being acted on.
func (m *Machine) HandleSpeech(ctx context.Context, callSID, transcript string, confidence float64) []Action {
	start := m.now()
	sess, ok := m.load(ctx, callSID)
	if !ok {
		return []Action{speak(m.tr.T("ivr.goodbye", m.defLang, nil), m.defLang), hangup()}
	}

	var actions []Action
	if confidence < MinSpeechConfidence {
		sess.Data.PendingTranscript = transcript
		actions = []Action{
			speak(m.tr.T("ivr.speech_confirm", sess.Language, map[string]string{"transcript": transcript}), sess.Language),
			gather(INPUT_DTMF),
		}
	} else if input, ok := speechToCommand(transcript, sess.State); ok {
		actions = m.processInput(ctx, sess, input)
	} else {
		actions = m.invalid(ctx, sess)
	}
	m.persist(ctx, sess)
	m.record(sess, transcript, actions, start)
	return actions
}

// processInput is the shared dispatcher both input modalities land on.
func (m *Machine) processInput(ctx context.Context, sess *models.Session, input string) []Action {
	// A transcript awaiting confirmation intercepts the next digit.
	if sess.Data.PendingTranscript != "" {
		transcript := sess.Data.PendingTranscript
		sess.Data.PendingTranscript = ""
		if input == "1" {
			if converted, ok := speechToCommand(transcript, sess.State); ok {
				return m.processInput(ctx, sess, converted)
			}
			return m.invalid(ctx, sess)
		}
		return m.promptActions(ctx, sess)
	}

	switch input {
	case "0":
		parent, ok := parentCallState[sess.State]
		if !ok {
			parent = models.CALL_STATE_MAIN_MENU
		}
		sess.State = parent
		sess.PopState()
		return m.promptActions(ctx, sess)
	case "*":
		sess.ClearFlow()
		sess.State = models.CALL_STATE_MAIN_MENU
		return m.promptActions(ctx, sess)
	case "#":
		return m.promptActions(ctx, sess)
	case "9":
		return m.escalate(ctx, sess)
	}

	switch sess.State {
	case models.CALL_STATE_WELCOME, models.CALL_STATE_MAIN_MENU:
		return m.handleMainMenu(ctx, sess, input)
	case models.CALL_STATE_LANGUAGE_SELECT:
		return m.handleLanguageSelect(ctx, sess, input)
	case models.CALL_STATE_BOOK_RIDE, models.CALL_STATE_ENTER_PICKUP:
		return m.handleEnterPickup(ctx, sess, input)
	case models.CALL_STATE_ENTER_DESTINATION:
		return m.handleEnterDestination(ctx, sess, input)
	case models.CALL_STATE_CONFIRM_BOOKING:
		return m.handleConfirmBooking(ctx, sess, input)
	case models.CALL_STATE_TRIP_STATUS, models.CALL_STATE_WALLET_MENU, models.CALL_STATE_HELP:
		return m.promptActions(ctx, sess)
	case models.CALL_STATE_AWAITING_AGENT:
		return m.escalate(ctx, sess)
	default:
		return []Action{speak(m.tr.T("ivr.goodbye", sess.Language, nil), sess.Language), hangup()}
	}
}

// escalate hands the caller to the agent pool: a direct transfer when an
// agent is free, otherwise the queue with hold music.
func (m *Machine) escalate(ctx context.Context, sess *models.Session) []Action {
	agent, position := m.pool.Assign(sess.ID, sess.Language)
	if agent != nil {
		sess.State = models.CALL_STATE_WITH_AGENT
		sess.Data.AgentID = agent.ID
		headers := map[string]string{
			"X-Caller-Phone": sess.PhoneNumber,
			"X-Session-ID":   sess.ID,
			"X-Language":     sess.Language,
		}
		if sess.UserID != "" {
			headers["X-User-ID"] = sess.UserID
		}
		return []Action{
			speak(m.tr.T("ivr.agent_connect", sess.Language, map[string]string{"agent": agent.Name}), sess.Language),
			transfer(agent.Extension, headers),
		}
	}
	sess.State = models.CALL_STATE_AWAITING_AGENT
	return []Action{
		speak(m.tr.T("ivr.agent_queue", sess.Language, map[string]string{"position": strconv.Itoa(position)}), sess.Language),
		play(m.holdMusic),
		gather(INPUT_DTMF),
	}
}

// ReleaseAgent frees an agent after a call and, when someone is waiting,
// returns the held session now assigned to that agent together with the
// transfer actions for its call leg.
func (m *Machine) ReleaseAgent(ctx context.Context, agentID string) (string, []Action) {
	nextSession, _ := m.pool.Release(agentID)
	if nextSession == "" {
		return "", nil
	}
	sess, ok := m.load(ctx, nextSession)
	if !ok {
		return "", nil
	}
	sess.State = models.CALL_STATE_WITH_AGENT
	sess.Data.AgentID = agentID
	m.persist(ctx, sess)
	return nextSession, []Action{
		speak(m.tr.T("ivr.agent_connect", sess.Language, map[string]string{"agent": agentID}), sess.Language),
		transfer(agentID, map[string]string{"X-Caller-Phone": sess.PhoneNumber, "X-Session-ID": sess.ID}),
	}
}

func (m *Machine) invalid(ctx context.Context, sess *models.Session) []Action {
	actions := []Action{speak(m.tr.T("ivr.invalid", sess.Language, nil), sess.Language)}
	return append(actions, m.promptActions(ctx, sess)...)
}

func (m *Machine) load(ctx context.Context, callSID string) (*models.Session, bool) {
	var sess models.Session
	ok, err := store.GetJSON(ctx, m.store, sessionKeyPrefix+callSID, &sess)
	if err != nil {
		log.Error().Err(err).Str("call_sid", callSID).Msg("ivr session load failed")
		return nil, false
	}
	if !ok || sess.Expired(m.now()) {
		return nil, false
	}
	return &sess, true
}

func (m *Machine) persist(ctx context.Context, sess *models.Session) {
	sess.UpdatedAt = m.now()
	sess.ExpiresAt = sess.UpdatedAt.Add(m.ttl)
	if sess.State == models.CALL_STATE_ENDED {
		_ = m.store.Delete(ctx, sessionKeyPrefix+sess.ID)
		return
	}
	if err := store.SetJSON(ctx, m.store, sessionKeyPrefix+sess.ID, sess, m.ttl); err != nil {
		log.Error().Err(err).Str("call_sid", sess.ID).Msg("ivr session save failed")
	}
}

func (m *Machine) record(sess *models.Session, input string, actions []Action, start time.Time) {
	response := ""
	for _, a := range actions {
		if a.Type == ACTION_SPEAK {
			response = a.Text
			break
		}
	}
	m.audit.Record(models.AuditEvent{
		EventID:     uuid.NewString(),
		Channel:     models.CHANNEL_VOICE,
		TransportID: sess.ID,
		Phone:       sess.PhoneNumber,
		State:       sess.State,
		Input:       input,
		Response:    response,
		LatencyMs:   m.now().Sub(start).Milliseconds(),
	})
}
