package clients

import (
	"context"
	"net/url"
)

// WalletService is the payments boundary. Transfer returns the new balance.
type WalletService interface {
	Balance(ctx context.Context, userID string) (float64, error)
	VerifyPIN(ctx context.Context, userID, pin string) (bool, error)
	Transfer(ctx context.Context, userID, recipientPhone string, amount float64) (float64, error)
	InitiateTopUp(ctx context.Context, userID, phone string, amount float64) error
}

type HTTPWalletService struct {
	BaseURL string
}

func NewWalletService(baseURL string) *HTTPWalletService {
	return &HTTPWalletService{BaseURL: baseURL}
}

func (w *HTTPWalletService) Balance(ctx context.Context, userID string) (float64, error) {
	var out struct {
		Balance  float64 `json:"balance"`
		Currency string  `json:"currency"`
	}
	if err := getJSON(ctx, w.BaseURL+"/v1/wallets/"+url.PathEscape(userID), &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (w *HTTPWalletService) VerifyPIN(ctx context.Context, userID, pin string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	body := map[string]string{"pin": pin}
	if err := postJSON(ctx, w.BaseURL+"/v1/wallets/"+url.PathEscape(userID)+"/verify-pin", body, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (w *HTTPWalletService) Transfer(ctx context.Context, userID, recipientPhone string, amount float64) (float64, error) {
	var out struct {
		Balance float64 `json:"balance"`
	}
	body := map[string]interface{}{"recipient_phone": recipientPhone, "amount": amount}
	if err := postJSON(ctx, w.BaseURL+"/v1/wallets/"+url.PathEscape(userID)+"/transfers", body, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (w *HTTPWalletService) InitiateTopUp(ctx context.Context, userID, phone string, amount float64) error {
	body := map[string]interface{}{"phone": phone, "amount": amount, "method": "mpesa"}
	return postJSON(ctx, w.BaseURL+"/v1/wallets/"+url.PathEscape(userID)+"/topups", body, nil)
}
