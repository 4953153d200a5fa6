package ussd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"ubilite/clients"
	"ubilite/models"
	"ubilite/tools"
)

func (m *Machine) handleMainMenu(ctx context.Context, sess *models.Session, input string) (Response, error) {
	switch input {
	case "1":
		sess.PushState()
		sess.State = models.STATE_BOOK_RIDE_METHOD
	case "2":
		sess.PushState()
		sess.State = models.STATE_TRACK_RIDE
	case "3":
		if sess.UserID == "" {
			return m.render(ctx, sess, m.notRegistered(sess))
		}
		sess.PushState()
		sess.State = models.STATE_WALLET_MENU
	case "4":
		sess.PushState()
		sess.State = models.STATE_RECENT_TRIPS
	case "5":
		sess.PushState()
		sess.State = models.STATE_SAVED_PLACES
	case "6":
		sess.PushState()
		sess.State = models.STATE_LANGUAGE_SELECT
	case "7":
		sess.PushState()
		sess.State = models.STATE_HELP
	case "":
		// Repeat turn: re-render the menu.
	default:
		return m.render(ctx, sess, m.tr.T("ussd.invalid_option", sess.Language, nil))
	}
	return m.render(ctx, sess, "")
}

func (m *Machine) handleBookMethod(ctx context.Context, sess *models.Session, input string) (Response, error) {
	switch input {
	case "1":
		// No GPS on a feature phone: the carrier cell lookup rarely
		// resolves, so the driver confirms the exact spot by phone.
		loc := m.lookupCurrentLocation(ctx, sess)
		if loc != nil {
			sess.Data.PickupCoords = &loc.Coords
			sess.Data.PickupAddress = loc.Address
		} else {
			sess.Data.PickupCoords = nil
			sess.Data.PickupAddress = "Current location"
		}
		sess.PushState()
		sess.State = models.STATE_ENTER_DESTINATION
	case "2":
		sess.PushState()
		sess.State = models.STATE_ENTER_PICKUP
	case "3":
		sess.Data.SelectingPickup = true
		sess.PushState()
		sess.State = models.STATE_SAVED_PLACES
	default:
		return m.render(ctx, sess, m.tr.T("ussd.invalid_option", sess.Language, nil))
	}
	return m.render(ctx, sess, "")
}

// lookupCurrentLocation asks for the rider's last known position via their
// most recent trip. Best-effort only.
func (m *Machine) lookupCurrentLocation(ctx context.Context, sess *models.Session) *models.Location {
	if sess.UserID == "" {
		return nil
	}
	trips, err := m.trips.Recent(ctx, sess.UserID, 1)
	if err != nil || len(trips) == 0 {
		return nil
	}
	if trips[0].PickupAddress == "" {
		return nil
	}
	return &models.Location{Address: trips[0].PickupAddress}
}

func (m *Machine) handleEnterPickup(ctx context.Context, sess *models.Session, input string) (Response, error) {
	if input == "" {
		return m.render(ctx, sess, "")
	}
	loc, err := m.geo.Geocode(ctx, input)
	if err != nil {
		return Response{}, fmt.Errorf("geocode pickup: %w", err)
	}
	if loc == nil {
		return m.render(ctx, sess, m.tr.T("ussd.address_not_found", sess.Language, nil))
	}
	sess.Data.PickupCoords = &loc.Coords
	sess.Data.PickupAddress = loc.Address
	sess.PushState()
	sess.State = models.STATE_ENTER_DESTINATION
	return m.render(ctx, sess, "")
}

func (m *Machine) handleEnterDestination(ctx context.Context, sess *models.Session, input string) (Response, error) {
	if input == "" {
		return m.render(ctx, sess, "")
	}

	loc, err := m.resolveDestination(ctx, sess, input)
	if err != nil {
		return Response{}, err
	}
	if loc == nil {
		return m.render(ctx, sess, m.tr.T("ussd.address_not_found", sess.Language, nil))
	}
	sess.Data.DropoffCoords = &loc.Coords
	sess.Data.DropoffAddress = loc.Address

	if err := m.refreshEstimate(ctx, sess); err != nil {
		return Response{}, err
	}
	sess.PushState()
	sess.State = models.STATE_CONFIRM_BOOKING
	return m.render(ctx, sess, "")
}

// resolveDestination checks the saved-place shortcuts before geocoding
// free text.
func (m *Machine) resolveDestination(ctx context.Context, sess *models.Session, input string) (*models.Location, error) {
	low := strings.ToLower(input)
	if label, ok := shortcutLabel(low); ok && sess.UserID != "" {
		places, err := m.places.ByUser(ctx, sess.UserID)
		if err != nil {
			return nil, fmt.Errorf("saved places: %w", err)
		}
		for _, p := range places {
			if strings.EqualFold(p.Label, label) {
				loc := p.Location()
				return &loc, nil
			}
		}
		// Shortcut chosen but nothing saved under it: fall through to
		// geocoding so "home" typed as an address still has a chance.
	}
	loc, err := m.geo.Geocode(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("geocode destination: %w", err)
	}
	return loc, nil
}

func shortcutLabel(input string) (string, bool) {
	switch input {
	case "1", "home":
		return "home", true
	case "2", "work":
		return "work", true
	}
	return "", false
}

func (m *Machine) refreshEstimate(ctx context.Context, sess *models.Session) error {
	var pickup models.Coordinates
	if sess.Data.PickupCoords != nil {
		pickup = *sess.Data.PickupCoords
	}
	est, err := m.trips.Estimate(ctx, pickup, *sess.Data.DropoffCoords)
	if err != nil {
		return fmt.Errorf("fare estimate: %w", err)
	}
	sess.Data.Estimate = est
	return nil
}

func (m *Machine) handleSelectVehicle(ctx context.Context, sess *models.Session, input string) (Response, error) {
	switch input {
	case "1":
		sess.Data.VehicleType = "boda"
	case "2":
		sess.Data.VehicleType = "economy"
	case "3":
		sess.Data.VehicleType = "xl"
	default:
		return m.render(ctx, sess, m.tr.T("ussd.invalid_option", sess.Language, nil))
	}
	if err := m.refreshEstimate(ctx, sess); err != nil {
		return Response{}, err
	}
	sess.State = models.STATE_CONFIRM_BOOKING
	return m.render(ctx, sess, "")
}

func (m *Machine) handleConfirmBooking(ctx context.Context, sess *models.Session, input string) (Response, error) {
	lang := sess.Language
	switch input {
	case "1":
		return m.createTrip(ctx, sess)
	case "2":
		sess.ClearFlow()
		sess.State = models.STATE_MAIN_MENU
		return m.render(ctx, sess, "")
	case "3":
		sess.PushState()
		sess.State = models.STATE_SELECT_VEHICLE
		return m.render(ctx, sess, "")
	default:
		return m.render(ctx, sess, m.tr.T("ussd.invalid_option", lang, nil))
	}
}

func (m *Machine) createTrip(ctx context.Context, sess *models.Session) (Response, error) {
	lang := sess.Language
	req := clients.TripRequest{
		UserID:         sess.UserID,
		Phone:          sess.PhoneNumber,
		PickupAddress:  sess.Data.PickupAddress,
		DropoffAddress: sess.Data.DropoffAddress,
		VehicleType:    sess.Data.VehicleType,
		Channel:        models.CHANNEL_USSD,
	}
	if sess.Data.PickupCoords != nil {
		req.PickupCoords = *sess.Data.PickupCoords
	}
	if sess.Data.DropoffCoords != nil {
		req.DropoffCoords = *sess.Data.DropoffCoords
	}

	trip, err := m.trips.Create(ctx, req)
	if err != nil {
		// Matching failures come back as a retry menu, not a dead end.
		log.Warn().Err(err).Str("phone", sess.PhoneNumber).Msg("trip create failed")
		return Response{Message: m.tr.T("ussd.no_drivers", lang, nil), ContinueSession: true}, nil
	}
	sess.Data.TripID = trip.ID

	m.sendBookingReceipt(ctx, sess, trip)

	msg := m.tr.T("ussd.booking_confirmed", lang, map[string]string{
		"driver": trip.DriverName,
		"plate":  trip.VehiclePlate,
		"eta":    m.tr.FormatETA(trip.ETAMinutes, lang),
	})
	return Response{Message: msg, ContinueSession: false}, nil
}

// sendBookingReceipt is a best-effort side effect; the booking stands even
// when the receipt can't be delivered.
func (m *Machine) sendBookingReceipt(ctx context.Context, sess *models.Session, trip *models.TripSummary) {
	msg := m.tr.T("sms.booking_receipt", sess.Language, map[string]string{
		"pickup":  tools.Truncate(sess.Data.PickupAddress, confirmAddressChars),
		"dropoff": tools.Truncate(sess.Data.DropoffAddress, confirmAddressChars),
		"driver":  trip.DriverName,
		"plate":   trip.VehiclePlate,
		"eta":     m.tr.FormatETA(trip.ETAMinutes, sess.Language),
	})
	if err := m.sms.SendSMS(ctx, models.OutgoingSMS{
		Recipient: sess.PhoneNumber,
		Message:   msg,
		Priority:  models.SMS_PRIORITY_HIGH,
	}); err != nil {
		log.Warn().Err(err).Str("phone", sess.PhoneNumber).Msg("booking receipt sms failed")
	}
}

func (m *Machine) notRegistered(sess *models.Session) string {
	return m.tr.T("error.not_registered", sess.Language, map[string]string{"shortcode": smsShortcode})
}
