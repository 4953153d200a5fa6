package clients

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"ubilite/models"
)

// TripRequest is what the channels hand to trip creation.
type TripRequest struct {
	UserID         string              `json:"user_id"`
	Phone          string              `json:"phone"`
	PickupCoords   models.Coordinates  `json:"pickup_coords"`
	PickupAddress  string              `json:"pickup_address"`
	DropoffCoords  models.Coordinates  `json:"dropoff_coords"`
	DropoffAddress string              `json:"dropoff_address"`
	VehicleType    string              `json:"vehicle_type,omitempty"`
	Channel        string              `json:"channel"`
}

// TripService is the ride-service boundary.
type TripService interface {
	Estimate(ctx context.Context, pickup, dropoff models.Coordinates) (*models.FareEstimate, error)
	Create(ctx context.Context, req TripRequest) (*models.TripSummary, error)
	Get(ctx context.Context, id string) (*models.TripSummary, error)
	// GetActive returns nil when the user has no trip in progress.
	GetActive(ctx context.Context, userID string) (*models.TripSummary, error)
	Cancel(ctx context.Context, id, reason string) error
	Recent(ctx context.Context, userID string, limit int) ([]models.TripSummary, error)
}

type HTTPTripService struct {
	BaseURL string
}

func NewTripService(baseURL string) *HTTPTripService {
	return &HTTPTripService{BaseURL: baseURL}
}

func (t *HTTPTripService) Estimate(ctx context.Context, pickup, dropoff models.Coordinates) (*models.FareEstimate, error) {
	var out models.FareEstimate
	body := map[string]interface{}{"pickup": pickup, "dropoff": dropoff}
	if err := postJSON(ctx, t.BaseURL+"/v1/estimates", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTripService) Create(ctx context.Context, req TripRequest) (*models.TripSummary, error) {
	var out models.TripSummary
	if err := postJSON(ctx, t.BaseURL+"/v1/trips", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTripService) Get(ctx context.Context, id string) (*models.TripSummary, error) {
	var out models.TripSummary
	if err := getJSON(ctx, t.BaseURL+"/v1/trips/"+url.PathEscape(id), &out); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTripService) GetActive(ctx context.Context, userID string) (*models.TripSummary, error) {
	var out models.TripSummary
	err := getJSON(ctx, t.BaseURL+"/v1/users/"+url.PathEscape(userID)+"/trips/active", &out)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTripService) Cancel(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	return postJSON(ctx, t.BaseURL+"/v1/trips/"+url.PathEscape(id)+"/cancel", body, nil)
}

func (t *HTTPTripService) Recent(ctx context.Context, userID string, limit int) ([]models.TripSummary, error) {
	var out []models.TripSummary
	u := t.BaseURL + "/v1/users/" + url.PathEscape(userID) + "/trips/recent?limit=" + strconv.Itoa(limit)
	if err := getJSON(ctx, u, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}
