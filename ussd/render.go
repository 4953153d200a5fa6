package ussd

import (
	"context"
	"fmt"
	"strings"

	"ubilite/models"
	"ubilite/tools"
)

const supportLine = "+254709000000"
const smsShortcode = "40404"

// render composes the prompt for the session's current state, optionally
// prefixed with an error line. Invalid input never advances state; it comes
// back through here with the error up top.
func (m *Machine) render(ctx context.Context, sess *models.Session, errLine string) (Response, error) {
	msg, cont, err := m.renderState(ctx, sess)
	if err != nil {
		return Response{}, err
	}
	if errLine != "" {
		msg = errLine + "\n" + msg
	}
	return Response{Message: msg, ContinueSession: cont}, nil
}

func (m *Machine) renderState(ctx context.Context, sess *models.Session) (string, bool, error) {
	lang := sess.Language
	switch sess.State {
	case models.STATE_MAIN_MENU:
		return m.tr.T("ussd.main_menu", lang, nil), true, nil

	case models.STATE_BOOK_RIDE_METHOD:
		return m.tr.T("ussd.book_method", lang, nil), true, nil

	case models.STATE_ENTER_PICKUP:
		return m.tr.T("ussd.enter_pickup", lang, nil), true, nil

	case models.STATE_ENTER_DESTINATION:
		return m.tr.T("ussd.enter_destination", lang, nil), true, nil

	case models.STATE_SELECT_VEHICLE:
		return m.tr.T("ussd.select_vehicle", lang, nil), true, nil

	case models.STATE_CONFIRM_BOOKING:
		est := sess.Data.Estimate
		if est == nil {
			return m.tr.T("error.generic", lang, nil), false, nil
		}
		return m.tr.T("ussd.confirm_booking", lang, map[string]string{
			"pickup":  tools.Truncate(sess.Data.PickupAddress, confirmAddressChars),
			"dropoff": tools.Truncate(sess.Data.DropoffAddress, confirmAddressChars),
			"fare":    m.tr.FormatMoney(est.Fare, lang),
			"eta":     m.tr.FormatETA(est.ETAMinutes, lang),
		}), true, nil

	case models.STATE_TRACK_RIDE:
		return m.renderTrackRide(ctx, sess)

	case models.STATE_WALLET_MENU:
		balance, err := m.wallet.Balance(ctx, sess.UserID)
		if err != nil {
			return "", false, fmt.Errorf("wallet balance: %w", err)
		}
		return m.tr.T("ussd.wallet_menu", lang, map[string]string{
			"balance": m.tr.FormatMoney(balance, lang),
		}), true, nil

	case models.STATE_WALLET_TOPUP:
		return m.tr.T("ussd.wallet_topup_prompt", lang, nil), true, nil

	case models.STATE_WALLET_SEND:
		if sess.Data.SendRecipient == "" {
			return m.tr.T("ussd.wallet_send_recipient", lang, nil), true, nil
		}
		return m.tr.T("ussd.wallet_send_amount", lang, nil), true, nil

	case models.STATE_ENTER_PIN:
		return m.tr.T("ussd.enter_pin", lang, map[string]string{
			"amount":    m.tr.FormatMoney(sess.Data.SendAmount, lang),
			"recipient": sess.Data.SendRecipient,
		}), true, nil

	case models.STATE_RECENT_TRIPS:
		return m.renderRecentTrips(ctx, sess)

	case models.STATE_SAVED_PLACES:
		return m.renderSavedPlaces(ctx, sess)

	case models.STATE_LANGUAGE_SELECT:
		return m.tr.T("ussd.language_select", lang, nil), true, nil

	case models.STATE_HELP:
		return m.tr.T("ussd.help", lang, map[string]string{
			"support":   supportLine,
			"shortcode": smsShortcode,
		}), true, nil
	}
	return "", false, fmt.Errorf("no renderer for state %q", sess.State)
}

func (m *Machine) renderTrackRide(ctx context.Context, sess *models.Session) (string, bool, error) {
	lang := sess.Language
	if sess.UserID == "" {
		return m.tr.T("ussd.no_active_trip", lang, nil), true, nil
	}
	trip, err := m.trips.GetActive(ctx, sess.UserID)
	if err != nil {
		return "", false, fmt.Errorf("active trip: %w", err)
	}
	if trip == nil {
		return m.tr.T("ussd.no_active_trip", lang, nil), true, nil
	}
	msg := m.tr.T("ussd.track_ride", lang, map[string]string{
		"status": trip.Status,
		"driver": trip.DriverName,
		"plate":  trip.VehiclePlate,
		"eta":    m.tr.FormatETA(trip.ETAMinutes, lang),
	})
	return msg + "\n0. Back", true, nil
}

func (m *Machine) renderRecentTrips(ctx context.Context, sess *models.Session) (string, bool, error) {
	lang := sess.Language
	if sess.UserID == "" {
		return m.tr.T("ussd.recent_trips_empty", lang, nil), true, nil
	}
	trips, err := m.trips.Recent(ctx, sess.UserID, 3)
	if err != nil {
		return "", false, fmt.Errorf("recent trips: %w", err)
	}
	if len(trips) == 0 {
		return m.tr.T("ussd.recent_trips_empty", lang, nil), true, nil
	}
	var b strings.Builder
	b.WriteString(m.tr.T("ussd.recent_trips", lang, nil))
	for i, t := range trips {
		b.WriteString(fmt.Sprintf("\n%d. %s %s", i+1,
			tools.Truncate(t.DropoffAddress, 20), m.tr.FormatMoney(t.Fare, lang)))
	}
	b.WriteString("\n0. Back")
	return b.String(), true, nil
}

func (m *Machine) renderSavedPlaces(ctx context.Context, sess *models.Session) (string, bool, error) {
	lang := sess.Language
	if sess.UserID == "" {
		return m.tr.T("ussd.saved_places_empty", lang, nil), true, nil
	}
	places, err := m.places.ByUser(ctx, sess.UserID)
	if err != nil {
		return "", false, fmt.Errorf("saved places: %w", err)
	}
	if len(places) == 0 {
		return m.tr.T("ussd.saved_places_empty", lang, nil), true, nil
	}
	var b strings.Builder
	b.WriteString(m.tr.T("ussd.saved_places", lang, nil))
	for i, p := range places {
		b.WriteString(fmt.Sprintf("\n%d. %s: %s", i+1, p.Label, tools.Truncate(p.Address, 20)))
	}
	b.WriteString("\n0. Back")
	return b.String(), true, nil
}
