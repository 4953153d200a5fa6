package clients

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"ubilite/models"
)

// HTTPChangeSource reads the platform's per-user change feeds for delta
// sync. Each entity service exposes the same feed shape.
type HTTPChangeSource struct {
	BaseURL string
}

func NewChangeSource(baseURL string) *HTTPChangeSource {
	return &HTTPChangeSource{BaseURL: baseURL}
}

func (s *HTTPChangeSource) Changes(ctx context.Context, userID, entity string, sinceVersion int64, limit int) ([]models.EntityChange, error) {
	var out []models.EntityChange
	u := s.BaseURL + "/v1/changes/" + url.PathEscape(entity) +
		"?user_id=" + url.QueryEscape(userID) +
		"&since=" + strconv.FormatInt(sinceVersion, 10) +
		"&limit=" + strconv.Itoa(limit)
	if err := getJSON(ctx, u, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}
