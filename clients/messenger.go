package clients

import (
	"context"

	"ubilite/models"
)

// Messenger delivers outbound SMS through the aggregator.
type Messenger interface {
	SendSMS(ctx context.Context, sms models.OutgoingSMS) error
}

type HTTPMessenger struct {
	BaseURL  string
	SenderID string
}

func NewMessenger(baseURL, senderID string) *HTTPMessenger {
	return &HTTPMessenger{BaseURL: baseURL, SenderID: senderID}
}

func (m *HTTPMessenger) SendSMS(ctx context.Context, sms models.OutgoingSMS) error {
	if sms.Sender == "" {
		sms.Sender = m.SenderID
	}
	return postJSON(ctx, m.BaseURL+"/v1/sms", sms, nil)
}

// SavedPlaces stores the user's address shortcuts (home, work, ...). The
// gorm implementation lives in the db package; tests use FakePlaces.
type SavedPlaces interface {
	ByUser(ctx context.Context, userID string) ([]models.SavedPlace, error)
	Set(ctx context.Context, userID, label string, loc models.Location) error
}
