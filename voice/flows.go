package voice

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"ubilite/clients"
	"ubilite/models"
)

func (m *Machine) handleMainMenu(ctx context.Context, sess *models.Session, input string) []Action {
	switch input {
	case "1":
		sess.PushState()
		sess.State = models.CALL_STATE_ENTER_PICKUP
	case "2":
		sess.PushState()
		sess.State = models.CALL_STATE_TRIP_STATUS
	case "3":
		if sess.UserID == "" {
			actions := []Action{speak(m.tr.T("error.not_registered", sess.Language, map[string]string{"shortcode": "40404"}), sess.Language)}
			return append(actions, m.promptActions(ctx, sess)...)
		}
		sess.PushState()
		sess.State = models.CALL_STATE_WALLET_MENU
	case "4":
		sess.PushState()
		sess.State = models.CALL_STATE_LANGUAGE_SELECT
	case "5":
		sess.PushState()
		sess.State = models.CALL_STATE_HELP
	default:
		return m.invalid(ctx, sess)
	}
	return m.promptActions(ctx, sess)
}

func (m *Machine) handleLanguageSelect(ctx context.Context, sess *models.Session, input string) []Action {
	var lang string
	switch input {
	case "1":
		lang = "en"
	case "2":
		lang = "sw"
	case "3":
		lang = "fr"
	default:
		return m.invalid(ctx, sess)
	}
	sess.Language = lang
	if sess.UserID != "" {
		_ = m.users.SetLanguage(ctx, sess.UserID, lang)
	}
	sess.State = models.CALL_STATE_MAIN_MENU
	return m.promptActions(ctx, sess)
}

func (m *Machine) handleEnterPickup(ctx context.Context, sess *models.Session, input string) []Action {
	loc, err := m.geo.Geocode(ctx, input)
	if err != nil {
		log.Error().Err(err).Str("call_sid", sess.ID).Msg("ivr geocode pickup failed")
		return m.addressRetry(ctx, sess)
	}
	if loc == nil {
		return m.addressRetry(ctx, sess)
	}
	sess.RetryCount = 0
	sess.Data.PickupCoords = &loc.Coords
	sess.Data.PickupAddress = loc.Address
	sess.PushState()
	sess.State = models.CALL_STATE_ENTER_DESTINATION
	return m.promptActions(ctx, sess)
}

func (m *Machine) handleEnterDestination(ctx context.Context, sess *models.Session, input string) []Action {
	loc, err := m.resolveDestination(ctx, sess, input)
	if err != nil {
		log.Error().Err(err).Str("call_sid", sess.ID).Msg("ivr geocode destination failed")
		return m.addressRetry(ctx, sess)
	}
	if loc == nil {
		return m.addressRetry(ctx, sess)
	}
	sess.RetryCount = 0
	sess.Data.DropoffCoords = &loc.Coords
	sess.Data.DropoffAddress = loc.Address

	var pickup models.Coordinates
	if sess.Data.PickupCoords != nil {
		pickup = *sess.Data.PickupCoords
	}
	est, err := m.trips.Estimate(ctx, pickup, loc.Coords)
	if err != nil {
		log.Error().Err(err).Str("call_sid", sess.ID).Msg("ivr fare estimate failed")
		return m.invalid(ctx, sess)
	}
	sess.Data.Estimate = est
	sess.PushState()
	sess.State = models.CALL_STATE_CONFIRM_BOOKING
	return m.promptActions(ctx, sess)
}

func (m *Machine) resolveDestination(ctx context.Context, sess *models.Session, input string) (*models.Location, error) {
	label := ""
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1":
		label = "home"
	case "2":
		label = "work"
	}
	if label != "" && sess.UserID != "" {
		places, err := m.places.ByUser(ctx, sess.UserID)
		if err != nil {
			return nil, err
		}
		for _, p := range places {
			if strings.EqualFold(p.Label, label) {
				loc := p.Location()
				return &loc, nil
			}
		}
		return nil, nil
	}
	return m.geo.Geocode(ctx, input)
}

func (m *Machine) handleConfirmBooking(ctx context.Context, sess *models.Session, input string) []Action {
	switch input {
	case "1":
		return m.createTrip(ctx, sess)
	case "2":
		sess.ClearFlow()
		sess.State = models.CALL_STATE_MAIN_MENU
		return m.promptActions(ctx, sess)
	default:
		return m.invalid(ctx, sess)
	}
}

func (m *Machine) createTrip(ctx context.Context, sess *models.Session) []Action {
	req := clients.TripRequest{
		UserID:         sess.UserID,
		Phone:          sess.PhoneNumber,
		PickupAddress:  sess.Data.PickupAddress,
		DropoffAddress: sess.Data.DropoffAddress,
		Channel:        models.CHANNEL_VOICE,
	}
	if sess.Data.PickupCoords != nil {
		req.PickupCoords = *sess.Data.PickupCoords
	}
	if sess.Data.DropoffCoords != nil {
		req.DropoffCoords = *sess.Data.DropoffCoords
	}
	trip, err := m.trips.Create(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("call_sid", sess.ID).Msg("ivr trip create failed")
		return []Action{
			speak(m.tr.T("ivr.no_drivers", sess.Language, nil), sess.Language),
			gather(INPUT_DTMF),
		}
	}
	sess.Data.TripID = trip.ID
	sess.State = models.CALL_STATE_ENDED
	return []Action{
		speak(m.tr.T("ivr.booking_confirmed", sess.Language, map[string]string{
			"driver": trip.DriverName,
			"plate":  trip.VehiclePlate,
			"eta":    m.tr.FormatETA(trip.ETAMinutes, sess.Language),
		}), sess.Language),
		hangup(),
	}
}

// addressRetry counts failed address attempts; after MaxRetries the
// caller goes to a human instead of looping.
func (m *Machine) addressRetry(ctx context.Context, sess *models.Session) []Action {
	sess.RetryCount++
	if sess.RetryCount >= MaxRetries {
		sess.RetryCount = 0
		return m.escalate(ctx, sess)
	}
	actions := []Action{speak(m.tr.T("ivr.address_retry", sess.Language, nil), sess.Language)}
	return append(actions, gather(INPUT_DTMF_SPEECH))
}

// promptActions speaks the current state's prompt and opens the right
// input gather.
func (m *Machine) promptActions(ctx context.Context, sess *models.Session) []Action {
	lang := sess.Language
	switch sess.State {
	case models.CALL_STATE_WELCOME, models.CALL_STATE_MAIN_MENU:
		return []Action{speak(m.tr.T("ivr.main_menu", lang, nil), lang), gather(INPUT_DTMF_SPEECH)}
	case models.CALL_STATE_LANGUAGE_SELECT:
		return []Action{speak(m.tr.T("ivr.language_select", lang, nil), lang), gather(INPUT_DTMF_SPEECH)}
	case models.CALL_STATE_BOOK_RIDE, models.CALL_STATE_ENTER_PICKUP:
		return []Action{speak(m.tr.T("ivr.enter_pickup", lang, nil), lang), gather(INPUT_DTMF_SPEECH)}
	case models.CALL_STATE_ENTER_DESTINATION:
		return []Action{speak(m.tr.T("ivr.enter_destination", lang, nil), lang), gather(INPUT_DTMF_SPEECH)}
	case models.CALL_STATE_CONFIRM_BOOKING:
		params := map[string]string{
			"pickup":  sess.Data.PickupAddress,
			"dropoff": sess.Data.DropoffAddress,
		}
		if est := sess.Data.Estimate; est != nil {
			params["fare"] = m.tr.FormatMoney(est.Fare, lang)
			params["eta"] = m.tr.FormatETA(est.ETAMinutes, lang)
		}
		return []Action{speak(m.tr.T("ivr.confirm_booking", lang, params), lang), gather(INPUT_DTMF_SPEECH)}
	case models.CALL_STATE_TRIP_STATUS:
		return m.tripStatusPrompt(ctx, sess)
	case models.CALL_STATE_WALLET_MENU:
		balance, err := m.wallet.Balance(ctx, sess.UserID)
		if err != nil {
			log.Error().Err(err).Str("user_id", sess.UserID).Msg("ivr wallet balance failed")
			return []Action{speak(m.tr.T("error.generic", lang, nil), lang), gather(INPUT_DTMF)}
		}
		return []Action{speak(m.tr.T("ivr.wallet_menu", lang, map[string]string{
			"balance": m.tr.FormatMoney(balance, lang),
		}), lang), gather(INPUT_DTMF)}
	case models.CALL_STATE_HELP:
		return []Action{speak(m.tr.T("ivr.help", lang, nil), lang), gather(INPUT_DTMF)}
	case models.CALL_STATE_AWAITING_AGENT:
		position := m.pool.Position(sess.ID, lang)
		return []Action{
			speak(m.tr.T("ivr.agent_queue", lang, map[string]string{"position": strconv.Itoa(position)}), lang),
			play(m.holdMusic),
			gather(INPUT_DTMF),
		}
	default:
		return []Action{speak(m.tr.T("ivr.goodbye", lang, nil), lang), hangup()}
	}
}

func (m *Machine) tripStatusPrompt(ctx context.Context, sess *models.Session) []Action {
	lang := sess.Language
	if sess.UserID == "" {
		sess.State = models.CALL_STATE_MAIN_MENU
		actions := []Action{speak(m.tr.T("ivr.no_active_trip", lang, nil), lang)}
		return append(actions, m.promptActions(ctx, sess)...)
	}
	trip, err := m.trips.GetActive(ctx, sess.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", sess.UserID).Msg("ivr active trip lookup failed")
		return []Action{speak(m.tr.T("error.generic", lang, nil), lang), gather(INPUT_DTMF)}
	}
	if trip == nil {
		sess.State = models.CALL_STATE_MAIN_MENU
		actions := []Action{speak(m.tr.T("ivr.no_active_trip", lang, nil), lang)}
		return append(actions, m.promptActions(ctx, sess)...)
	}
	return m.tripStatusActions(sess, trip)
}

func (m *Machine) tripStatusActions(sess *models.Session, trip *models.TripSummary) []Action {
	lang := sess.Language
	return []Action{
		speak(m.tr.T("ivr.trip_status", lang, map[string]string{
			"status": trip.Status,
			"driver": trip.DriverName,
			"plate":  trip.VehiclePlate,
			"eta":    m.tr.FormatETA(trip.ETAMinutes, lang),
		}), lang),
		gather(INPUT_DTMF),
	}
}
