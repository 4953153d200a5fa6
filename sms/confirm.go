package sms

import (
	"context"
	"fmt"
	"strings"

	"ubilite/clients"
	"ubilite/models"
	"ubilite/store"
	"ubilite/tools"
)

func pendingKey(phone, code string) string {
	return pendingKeyPrefix + phone + ":" + code
}

// storePending writes the half-open handshake. The store TTL outlives the
// logical expiry so a late CONFIRM can be answered with "expired".
func (h *Handler) storePending(ctx context.Context, phone, action string, payload models.ConfirmationPayload) (string, error) {
	now := h.now()
	code := tools.RandomCode(codeLength)
	rec := models.PendingConfirmation{
		Code:      code,
		Phone:     phone,
		Action:    action,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(h.confirmTTL),
	}
	if err := store.SetJSON(ctx, h.store, pendingKey(phone, code), rec, pendingRetention); err != nil {
		return "", fmt.Errorf("store pending confirmation: %w", err)
	}
	return code, nil
}

// PendTransfer opens a wallet-send handshake and returns the reply asking
// for confirmation. Exposed for channels that collect the recipient and
// amount elsewhere but confirm over SMS.
func (h *Handler) PendTransfer(ctx context.Context, phone, userID, recipient string, amount float64, lang string) (string, error) {
	payload := models.ConfirmationPayload{UserID: userID, Recipient: recipient, Amount: amount}
	code, err := h.storePending(ctx, phone, models.CONFIRM_ACTION_SEND, payload)
	if err != nil {
		return "", err
	}
	return h.text(ctx, "sms.send_confirm", lang, map[string]string{
		"amount":    h.tr.FormatMoney(amount, lang),
		"recipient": recipient,
		"code":      code,
	}), nil
}

// handleConfirm consumes a pending record. The delete happens before the
// action runs: a code works at most once, even if the action then fails.
func (h *Handler) handleConfirm(ctx context.Context, cmd Command, phone, lang string) (string, error) {
	var rec *models.PendingConfirmation
	var err error
	if len(cmd.Args) > 0 && cmd.Args[0] != "" {
		rec, err = h.loadPending(ctx, pendingKey(phone, strings.ToUpper(cmd.Args[0])))
	} else {
		rec, err = h.latestPending(ctx, phone)
	}
	if err != nil {
		return "", err
	}
	if rec == nil {
		return h.text(ctx, "sms.no_pending", lang, nil), nil
	}

	if err := h.store.Delete(ctx, pendingKey(phone, rec.Code)); err != nil {
		return "", fmt.Errorf("consume pending confirmation: %w", err)
	}

	if h.now().After(rec.ExpiresAt) {
		return h.text(ctx, "sms.expired", lang, nil), nil
	}

	switch rec.Action {
	case models.CONFIRM_ACTION_BOOK:
		return h.confirmBook(ctx, rec, phone, lang)
	case models.CONFIRM_ACTION_CANCEL:
		return h.confirmCancel(ctx, rec, lang)
	case models.CONFIRM_ACTION_SEND:
		return h.confirmSend(ctx, rec, lang)
	default:
		return "", fmt.Errorf("unknown confirmation action %q", rec.Action)
	}
}

func (h *Handler) loadPending(ctx context.Context, key string) (*models.PendingConfirmation, error) {
	var rec models.PendingConfirmation
	ok, err := store.GetJSON(ctx, h.store, key, &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// latestPending finds the sender's newest pending record for a bare
// CONFIRM with no code.
func (h *Handler) latestPending(ctx context.Context, phone string) (*models.PendingConfirmation, error) {
	keys, err := h.store.Keys(ctx, pendingKeyPrefix+phone+":")
	if err != nil {
		return nil, err
	}
	var latest *models.PendingConfirmation
	for _, key := range keys {
		rec, err := h.loadPending(ctx, key)
		if err != nil {
			return nil, err
		}
		if rec != nil && (latest == nil || rec.CreatedAt.After(latest.CreatedAt)) {
			latest = rec
		}
	}
	return latest, nil
}

func (h *Handler) confirmBook(ctx context.Context, rec *models.PendingConfirmation, phone, lang string) (string, error) {
	req := clients.TripRequest{
		UserID:         rec.Payload.UserID,
		Phone:          phone,
		PickupAddress:  rec.Payload.PickupAddress,
		DropoffAddress: rec.Payload.DropoffAddress,
		Channel:        models.CHANNEL_SMS,
	}
	if rec.Payload.PickupCoords != nil {
		req.PickupCoords = *rec.Payload.PickupCoords
	}
	if rec.Payload.DropoffCoords != nil {
		req.DropoffCoords = *rec.Payload.DropoffCoords
	}
	trip, err := h.trips.Create(ctx, req)
	if err != nil {
		return h.text(ctx, "sms.no_drivers", lang, nil), nil
	}
	return h.text(ctx, "sms.booked", lang, map[string]string{
		"driver":       trip.DriverName,
		"plate":        trip.VehiclePlate,
		"eta":          h.tr.FormatETA(trip.ETAMinutes, lang),
		"driver_phone": trip.DriverPhone,
	}), nil
}

func (h *Handler) confirmCancel(ctx context.Context, rec *models.PendingConfirmation, lang string) (string, error) {
	if err := h.trips.Cancel(ctx, rec.Payload.TripID, "rider_cancelled"); err != nil {
		return "", fmt.Errorf("cancel trip: %w", err)
	}
	feeLine := h.text(ctx, "sms.cancel_free", lang, nil)
	if rec.Payload.Fee > 0 {
		feeLine = h.text(ctx, "sms.cancel_fee_line", lang, map[string]string{
			"fee": h.tr.FormatMoney(rec.Payload.Fee, lang),
		})
	}
	return h.text(ctx, "sms.cancelled", lang, map[string]string{"fee_line": feeLine}), nil
}

func (h *Handler) confirmSend(ctx context.Context, rec *models.PendingConfirmation, lang string) (string, error) {
	balance, err := h.wallet.Transfer(ctx, rec.Payload.UserID, rec.Payload.Recipient, rec.Payload.Amount)
	if err != nil {
		return "", fmt.Errorf("wallet transfer: %w", err)
	}
	return h.text(ctx, "sms.transfer_done", lang, map[string]string{
		"amount":    h.tr.FormatMoney(rec.Payload.Amount, lang),
		"recipient": rec.Payload.Recipient,
		"balance":   h.tr.FormatMoney(balance, lang),
	}), nil
}
