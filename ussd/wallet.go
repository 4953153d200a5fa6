package ussd

import (
	"context"
	"fmt"
	"strconv"

	"ubilite/models"
	"ubilite/tools"
)

func (m *Machine) handleWalletMenu(ctx context.Context, sess *models.Session, input string) (Response, error) {
	switch input {
	case "1":
		sess.PushState()
		sess.State = models.STATE_WALLET_TOPUP
	case "2":
		sess.PushState()
		sess.State = models.STATE_WALLET_SEND
	case "":
	default:
		return m.render(ctx, sess, m.tr.T("ussd.invalid_option", sess.Language, nil))
	}
	return m.render(ctx, sess, "")
}

func (m *Machine) handleWalletTopUp(ctx context.Context, sess *models.Session, input string) (Response, error) {
	lang := sess.Language
	if input == "" {
		return m.render(ctx, sess, "")
	}
	amount, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return m.render(ctx, sess, m.tr.T("ussd.amount_invalid", lang, nil))
	}
	if amount < minTopUp {
		return m.render(ctx, sess, m.tr.T("ussd.wallet_topup_min", lang, nil))
	}
	if err := m.wallet.InitiateTopUp(ctx, sess.UserID, sess.PhoneNumber, amount); err != nil {
		return Response{}, fmt.Errorf("initiate topup: %w", err)
	}
	msg := m.tr.T("ussd.topup_sent", lang, map[string]string{
		"amount": m.tr.FormatMoney(amount, lang),
	})
	return Response{Message: msg, ContinueSession: false}, nil
}

// handleWalletSend is a two-step collector: recipient phone first, then
// amount. Validation failures re-prompt the same step.
func (m *Machine) handleWalletSend(ctx context.Context, sess *models.Session, input string) (Response, error) {
	lang := sess.Language
	if input == "" {
		return m.render(ctx, sess, "")
	}

	if sess.Data.SendRecipient == "" {
		recipient, err := tools.NormalizeMSISDN(input)
		if err != nil {
			return m.render(ctx, sess, m.tr.T("ussd.invalid_phone", lang, nil))
		}
		sess.Data.SendRecipient = recipient
		return m.render(ctx, sess, "")
	}

	amount, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return m.render(ctx, sess, m.tr.T("ussd.amount_invalid", lang, nil))
	}
	if amount < minTransfer {
		return m.render(ctx, sess, m.tr.T("ussd.wallet_send_min", lang, nil))
	}
	balance, err := m.wallet.Balance(ctx, sess.UserID)
	if err != nil {
		return Response{}, fmt.Errorf("wallet balance: %w", err)
	}
	if amount > balance {
		return m.render(ctx, sess, m.tr.T("ussd.wallet_insufficient", lang, map[string]string{
			"balance": m.tr.FormatMoney(balance, lang),
		}))
	}
	sess.Data.SendAmount = amount
	sess.PushState()
	sess.State = models.STATE_ENTER_PIN
	return m.render(ctx, sess, "")
}

// handleEnterPIN gates the transfer on PIN verification. State is only
// committed once the transfer collaborator succeeds.
func (m *Machine) handleEnterPIN(ctx context.Context, sess *models.Session, input string) (Response, error) {
	lang := sess.Language
	if input == "" {
		return m.render(ctx, sess, "")
	}
	ok, err := m.wallet.VerifyPIN(ctx, sess.UserID, input)
	if err != nil {
		return Response{}, fmt.Errorf("verify pin: %w", err)
	}
	if !ok {
		return m.render(ctx, sess, m.tr.T("ussd.pin_invalid", lang, nil))
	}
	newBalance, err := m.wallet.Transfer(ctx, sess.UserID, sess.Data.SendRecipient, sess.Data.SendAmount)
	if err != nil {
		return Response{}, fmt.Errorf("wallet transfer: %w", err)
	}
	msg := m.tr.T("ussd.transfer_done", lang, map[string]string{
		"amount":    m.tr.FormatMoney(sess.Data.SendAmount, lang),
		"recipient": sess.Data.SendRecipient,
		"balance":   m.tr.FormatMoney(newBalance, lang),
	})
	return Response{Message: msg, ContinueSession: false}, nil
}

func (m *Machine) handleSavedPlaces(ctx context.Context, sess *models.Session, input string) (Response, error) {
	if input == "" || sess.UserID == "" {
		return m.render(ctx, sess, "")
	}
	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 {
		return m.render(ctx, sess, m.tr.T("ussd.invalid_option", sess.Language, nil))
	}
	places, err := m.places.ByUser(ctx, sess.UserID)
	if err != nil {
		return Response{}, fmt.Errorf("saved places: %w", err)
	}
	if idx > len(places) {
		return m.render(ctx, sess, m.tr.T("ussd.invalid_option", sess.Language, nil))
	}
	loc := places[idx-1].Location()

	if sess.Data.SelectingPickup {
		sess.Data.SelectingPickup = false
		sess.Data.PickupCoords = &loc.Coords
		sess.Data.PickupAddress = loc.Address
		sess.PushState()
		sess.State = models.STATE_ENTER_DESTINATION
		return m.render(ctx, sess, "")
	}

	// Outside booking, picking a place starts a booking to it.
	sess.Data.DropoffCoords = &loc.Coords
	sess.Data.DropoffAddress = loc.Address
	sess.Data.PickupAddress = "Current location"
	sess.Data.PickupCoords = nil
	if err := m.refreshEstimate(ctx, sess); err != nil {
		return Response{}, err
	}
	sess.PushState()
	sess.State = models.STATE_CONFIRM_BOOKING
	return m.render(ctx, sess, "")
}

func (m *Machine) handleLanguageSelect(ctx context.Context, sess *models.Session, input string) (Response, error) {
	var lang string
	switch input {
	case "1":
		lang = "en"
	case "2":
		lang = "sw"
	case "3":
		lang = "fr"
	case "":
		return m.render(ctx, sess, "")
	default:
		return m.render(ctx, sess, m.tr.T("ussd.invalid_option", sess.Language, nil))
	}
	sess.Language = lang
	if sess.UserID != "" {
		// Preference persists across sessions for registered users.
		_ = m.users.SetLanguage(ctx, sess.UserID, lang)
	}
	sess.State = models.STATE_MAIN_MENU
	return m.render(ctx, sess, m.tr.T("ussd.language_set", lang, nil))
}
