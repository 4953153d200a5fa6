// Package sms turns free-text commands into ride, wallet and account
// actions. Anything with a real-world effect goes through a two-message
// handshake: the first reply carries a short code, and only a CONFIRM with
// that code executes the action.
package sms

import (
	"context"
	"fmt"
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

// DefaultConfirmTTL is how long a confirmation code stays valid.
const DefaultConfirmTTL = 10 * time.Minute

// Pending records are kept in the store past their logical expiry so a
// late CONFIRM gets "expired" rather than "no pending".
const pendingRetention = time.Hour

const pendingKeyPrefix = "sms:pending:"

const codeLength = 4

// Cancellation is free shortly after booking, then charged by how far
// along the match is.
const freeCancelWindow = 2 * time.Minute

var cancelFees = map[string]float64{
	models.TRIP_STATUS_ARRIVING: 200,
	models.TRIP_STATUS_MATCHED:  100,
}

// Handler processes one inbound SMS end to end.
type Handler struct {
	store      store.Store
	tr         *i18n.Translator
	geo        clients.Geocoder
	trips      clients.TripService
	wallet     clients.WalletService
	users      clients.UserService
	places     clients.SavedPlaces
	templates  TemplateSource
	audit      audit.Recorder
	confirmTTL time.Duration
	defLang    string
	shortcode  string
	now        func() time.Time
}

type Deps struct {
	Store           store.Store
	Translator      *i18n.Translator
	Geocoder        clients.Geocoder
	Trips           clients.TripService
	Wallet          clients.WalletService
	Users           clients.UserService
	Places          clients.SavedPlaces
	Templates       TemplateSource
	Audit           audit.Recorder
	ConfirmTTL      time.Duration
	DefaultLanguage string
	Shortcode       string
}

func New(d Deps) *Handler {
	h := &Handler{
		store: d.Store, tr: d.Translator, geo: d.Geocoder, trips: d.Trips,
		wallet: d.Wallet, users: d.Users, places: d.Places,
		templates: d.Templates, audit: d.Audit,
		confirmTTL: d.ConfirmTTL, defLang: d.DefaultLanguage,
		shortcode: d.Shortcode, now: time.Now,
	}
	if h.confirmTTL <= 0 {
		h.confirmTTL = DefaultConfirmTTL
	}
	if h.defLang == "" {
		h.defLang = i18n.DefaultLanguage
	}
	if h.audit == nil {
		h.audit = audit.Nop{}
	}
	return h
}

// HandleIncomingSMS processes one message and returns the reply. It never
// fails toward the transport: internal errors become a localized generic
// reply.
func (h *Handler) HandleIncomingSMS(ctx context.Context, in models.IncomingSMS) models.OutgoingSMS {
	start := h.now()

	phone, err := tools.NormalizeMSISDN(in.Sender)
	if err != nil {
		phone = in.Sender
	}

	var user *models.UserProfile
	if u, err := h.users.FindByPhone(ctx, phone); err != nil {
		log.Warn().Err(err).Str("phone", phone).Msg("sms user lookup failed")
	} else {
		user = u
	}

	lang := h.defLang
	if user != nil && user.Language != "" {
		lang = user.Language
	} else if detected := DetectLanguage(in.Body); detected != "" {
		lang = detected
	}

	cmd := ParseCommand(in.Body)

	text, err := h.execute(ctx, cmd, phone, user, lang)
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Str("command", cmd.Type).Msg("sms command failed")
		text = h.text(ctx, "error.generic", lang, nil)
	}

	out := BuildOutgoing(phone, text, models.SMS_PRIORITY_NORMAL)

	h.audit.Record(models.AuditEvent{
		EventID:     uuid.NewString(),
		Channel:     models.CHANNEL_SMS,
		TransportID: in.ID,
		Phone:       phone,
		Input:       cmd.Type,
		Response:    out.Message,
		LatencyMs:   h.now().Sub(start).Milliseconds(),
	})
	return out
}

func (h *Handler) execute(ctx context.Context, cmd Command, phone string, user *models.UserProfile, lang string) (string, error) {
	// Commands that read or move the user's money or trips need an account.
	switch cmd.Type {
	case CMD_BOOK, CMD_TRACK, CMD_CANCEL, CMD_BALANCE, CMD_CONFIRM, CMD_DRIVER, CMD_SET_HOME, CMD_SET_WORK:
		if user == nil {
			return h.text(ctx, "error.not_registered", lang, map[string]string{"shortcode": h.shortcode}), nil
		}
	}

	switch cmd.Type {
	case CMD_BOOK:
		return h.handleBook(ctx, cmd, phone, user, lang)
	case CMD_TRACK:
		return h.handleTrack(ctx, user, lang)
	case CMD_CANCEL:
		return h.handleCancel(ctx, phone, user, lang)
	case CMD_BALANCE:
		balance, err := h.wallet.Balance(ctx, user.ID)
		if err != nil {
			return "", fmt.Errorf("wallet balance: %w", err)
		}
		return h.text(ctx, "sms.balance", lang, map[string]string{
			"balance": h.tr.FormatMoney(balance, lang),
		}), nil
	case CMD_HELP:
		return h.text(ctx, "sms.help", lang, nil), nil
	case CMD_PRICE:
		return h.handlePrice(ctx, cmd, lang)
	case CMD_REGISTER:
		return h.handleRegister(ctx, cmd, phone, user, lang)
	case CMD_FEEDBACK:
		// The body is already in the audit trail; just acknowledge.
		return h.text(ctx, "sms.feedback_thanks", lang, nil), nil
	case CMD_CONFIRM:
		return h.handleConfirm(ctx, cmd, phone, lang)
	case CMD_DRIVER:
		return h.handleDriver(ctx, user, lang)
	case CMD_SET_HOME:
		return h.handleSetPlace(ctx, cmd, user, lang, "home")
	case CMD_SET_WORK:
		return h.handleSetPlace(ctx, cmd, user, lang, "work")
	default:
		return h.text(ctx, "sms.unknown", lang, nil), nil
	}
}

/************************************************
/**** MARK: BOOKING ****/
/************************************************/

func (h *Handler) handleBook(ctx context.Context, cmd Command, phone string, user *models.UserProfile, lang string) (string, error) {
	var pickupText, dropoffText string
	if len(cmd.Args) == 2 {
		pickupText, dropoffText = cmd.Args[0], cmd.Args[1]
	} else {
		dropoffText = cmd.Args[0]
	}

	payload := models.ConfirmationPayload{UserID: user.ID}

	if pickupText != "" {
		loc, err := h.geo.Geocode(ctx, pickupText)
		if err != nil {
			return "", fmt.Errorf("geocode pickup: %w", err)
		}
		if loc == nil {
			return h.text(ctx, "sms.address_not_found", lang, map[string]string{"address": pickupText}), nil
		}
		payload.PickupCoords = &loc.Coords
		payload.PickupAddress = loc.Address
	} else {
		// No pickup given: the rider's last trip is the best guess we have.
		payload.PickupAddress = "Current location"
		if trips, err := h.trips.Recent(ctx, user.ID, 1); err == nil && len(trips) > 0 && trips[0].PickupAddress != "" {
			payload.PickupAddress = trips[0].PickupAddress
		}
	}

	loc, err := h.geo.Geocode(ctx, dropoffText)
	if err != nil {
		return "", fmt.Errorf("geocode dropoff: %w", err)
	}
	if loc == nil {
		return h.text(ctx, "sms.address_not_found", lang, map[string]string{"address": dropoffText}), nil
	}
	payload.DropoffCoords = &loc.Coords
	payload.DropoffAddress = loc.Address

	var pickup models.Coordinates
	if payload.PickupCoords != nil {
		pickup = *payload.PickupCoords
	}
	est, err := h.trips.Estimate(ctx, pickup, *payload.DropoffCoords)
	if err != nil {
		return "", fmt.Errorf("fare estimate: %w", err)
	}
	payload.Fare = est.Fare

	code, err := h.storePending(ctx, phone, models.CONFIRM_ACTION_BOOK, payload)
	if err != nil {
		return "", err
	}
	return h.text(ctx, "sms.book_confirm", lang, map[string]string{
		"pickup":  payload.PickupAddress,
		"dropoff": payload.DropoffAddress,
		"fare":    h.tr.FormatMoney(est.Fare, lang),
		"eta":     h.tr.FormatETA(est.ETAMinutes, lang),
		"code":    code,
	}), nil
}

func (h *Handler) handleTrack(ctx context.Context, user *models.UserProfile, lang string) (string, error) {
	trip, err := h.trips.GetActive(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("active trip: %w", err)
	}
	if trip == nil {
		return h.text(ctx, "sms.track_none", lang, nil), nil
	}
	return h.text(ctx, "sms.track", lang, map[string]string{
		"status": trip.Status,
		"driver": trip.DriverName,
		"plate":  trip.VehiclePlate,
		"eta":    h.tr.FormatETA(trip.ETAMinutes, lang),
	}), nil
}

func (h *Handler) handleCancel(ctx context.Context, phone string, user *models.UserProfile, lang string) (string, error) {
	trip, err := h.trips.GetActive(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("active trip: %w", err)
	}
	if trip == nil {
		return h.text(ctx, "sms.cancel_none", lang, nil), nil
	}

	fee := h.cancellationFee(trip)
	if fee == 0 {
		if err := h.trips.Cancel(ctx, trip.ID, "rider_cancelled"); err != nil {
			return "", fmt.Errorf("cancel trip: %w", err)
		}
		return h.text(ctx, "sms.cancelled", lang, map[string]string{
			"fee_line": h.text(ctx, "sms.cancel_free", lang, nil),
		}), nil
	}

	// A paid cancellation needs the same explicit yes as a booking.
	payload := models.ConfirmationPayload{UserID: user.ID, TripID: trip.ID, Fee: fee}
	code, err := h.storePending(ctx, phone, models.CONFIRM_ACTION_CANCEL, payload)
	if err != nil {
		return "", err
	}
	return h.text(ctx, "sms.cancel_confirm", lang, map[string]string{
		"fee":  h.tr.FormatMoney(fee, lang),
		"code": code,
	}), nil
}

// cancellationFee is zero inside the free window, then a flat amount by
// trip status.
func (h *Handler) cancellationFee(trip *models.TripSummary) float64 {
	if h.now().Sub(trip.CreatedAt) <= freeCancelWindow {
		return 0
	}
	return cancelFees[trip.Status]
}

func (h *Handler) handlePrice(ctx context.Context, cmd Command, lang string) (string, error) {
	from, err := h.geo.Geocode(ctx, cmd.Args[0])
	if err != nil {
		return "", fmt.Errorf("geocode pickup: %w", err)
	}
	to, err := h.geo.Geocode(ctx, cmd.Args[1])
	if err != nil {
		return "", fmt.Errorf("geocode dropoff: %w", err)
	}
	if from == nil {
		return h.text(ctx, "sms.address_not_found", lang, map[string]string{"address": cmd.Args[0]}), nil
	}
	if to == nil {
		return h.text(ctx, "sms.address_not_found", lang, map[string]string{"address": cmd.Args[1]}), nil
	}
	est, err := h.trips.Estimate(ctx, from.Coords, to.Coords)
	if err != nil {
		return "", fmt.Errorf("fare estimate: %w", err)
	}
	return h.text(ctx, "sms.price", lang, map[string]string{
		"pickup":  from.Address,
		"dropoff": to.Address,
		"fare":    h.tr.FormatMoney(est.Fare, lang),
		"eta":     h.tr.FormatETA(est.ETAMinutes, lang),
	}), nil
}

func (h *Handler) handleRegister(ctx context.Context, cmd Command, phone string, user *models.UserProfile, lang string) (string, error) {
	if user != nil {
		return h.text(ctx, "sms.registered", lang, map[string]string{"name": user.Name}), nil
	}
	created, err := h.users.Register(ctx, phone, cmd.Args[0])
	if err != nil {
		return "", fmt.Errorf("register user: %w", err)
	}
	if lang != h.defLang {
		_ = h.users.SetLanguage(ctx, created.ID, lang)
	}
	return h.text(ctx, "sms.registered", lang, map[string]string{"name": created.Name}), nil
}

func (h *Handler) handleDriver(ctx context.Context, user *models.UserProfile, lang string) (string, error) {
	trip, err := h.trips.GetActive(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("active trip: %w", err)
	}
	if trip == nil || !trip.HasDriver() {
		return h.text(ctx, "sms.driver_none", lang, nil), nil
	}
	return h.text(ctx, "sms.driver", lang, map[string]string{
		"driver":       trip.DriverName,
		"plate":        trip.VehiclePlate,
		"driver_phone": trip.DriverPhone,
	}), nil
}

func (h *Handler) handleSetPlace(ctx context.Context, cmd Command, user *models.UserProfile, lang, label string) (string, error) {
	loc, err := h.geo.Geocode(ctx, cmd.Args[0])
	if err != nil {
		return "", fmt.Errorf("geocode place: %w", err)
	}
	if loc == nil {
		return h.text(ctx, "sms.address_not_found", lang, map[string]string{"address": cmd.Args[0]}), nil
	}
	if err := h.places.Set(ctx, user.ID, label, *loc); err != nil {
		return "", fmt.Errorf("save place: %w", err)
	}
	key := "sms.home_set"
	if label == "work" {
		key = "sms.work_set"
	}
	return h.text(ctx, key, lang, map[string]string{"address": loc.Address}), nil
}
