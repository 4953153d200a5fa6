package clients

import (
	"context"
	"errors"
	"net/url"

	"ubilite/models"
)

// UserService is the identity boundary. FindByPhone returns nil for
// unregistered numbers; anonymous USSD/IVR sessions are allowed, SMS
// commands with real-world effect are not.
type UserService interface {
	FindByPhone(ctx context.Context, phone string) (*models.UserProfile, error)
	Register(ctx context.Context, phone, name string) (*models.UserProfile, error)
	SetLanguage(ctx context.Context, userID, lang string) error
}

type HTTPUserService struct {
	BaseURL string
}

func NewUserService(baseURL string) *HTTPUserService {
	return &HTTPUserService{BaseURL: baseURL}
}

func (u *HTTPUserService) FindByPhone(ctx context.Context, phone string) (*models.UserProfile, error) {
	var out models.UserProfile
	err := getJSON(ctx, u.BaseURL+"/v1/users/by-phone/"+url.PathEscape(phone), &out)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (u *HTTPUserService) Register(ctx context.Context, phone, name string) (*models.UserProfile, error) {
	var out models.UserProfile
	body := map[string]string{"phone": phone, "name": name, "channel": "sms"}
	if err := postJSON(ctx, u.BaseURL+"/v1/users", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *HTTPUserService) SetLanguage(ctx context.Context, userID, lang string) error {
	body := map[string]string{"language": lang}
	return postJSON(ctx, u.BaseURL+"/v1/users/"+url.PathEscape(userID)+"/language", body, nil)
}
