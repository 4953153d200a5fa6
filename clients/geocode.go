package clients

import (
	"context"
	"errors"
	"net/url"

	"ubilite/models"
)

// Geocoder resolves free-text addresses. A nil Location with nil error means
// "not found" — the channels surface that as a retry branch, not a failure.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Location, error)
}

type HTTPGeocoder struct {
	BaseURL string
}

func NewGeocoder(baseURL string) *HTTPGeocoder {
	return &HTTPGeocoder{BaseURL: baseURL}
}

func (g *HTTPGeocoder) Geocode(ctx context.Context, address string) (*models.Location, error) {
	var out struct {
		Coords  models.Coordinates `json:"coords"`
		Address string             `json:"address"`
	}
	u := g.BaseURL + "/v1/geocode?q=" + url.QueryEscape(address)
	if err := getJSON(ctx, u, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &models.Location{Coords: out.Coords, Address: out.Address}, nil
}
