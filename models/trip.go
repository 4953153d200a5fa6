package models

import "time"

/************************************************
/**** MARK: TRIP STATUS ****/
/************************************************/
const TRIP_STATUS_REQUESTED = "requested"
const TRIP_STATUS_MATCHED = "matched"
const TRIP_STATUS_ARRIVING = "arriving"
const TRIP_STATUS_IN_PROGRESS = "in_progress"
const TRIP_STATUS_COMPLETED = "completed"
const TRIP_STATUS_CANCELLED = "cancelled"

// Coordinates is a WGS84 lat/lng pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a geocoded address.
type Location struct {
	Coords  Coordinates `json:"coords"`
	Address string      `json:"address"`
}

// FareEstimate is the pricing engine's answer for a pickup/dropoff pair.
type FareEstimate struct {
	Fare            float64 `json:"fare"`
	Currency        string  `json:"currency"`
	ETAMinutes      int     `json:"eta_minutes"`
	DistanceKm      float64 `json:"distance_km"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
}

// TripSummary is the cross-service projection of a trip, enough for every
// channel to render status and confirmations.
type TripSummary struct {
	ID             string       `json:"id"`
	Status         string       `json:"status"`
	PickupAddress  string       `json:"pickup_address"`
	DropoffAddress string       `json:"dropoff_address"`
	Fare           float64      `json:"fare"`
	Currency       string       `json:"currency"`
	ETAMinutes     int          `json:"eta_minutes"`
	DriverName     string       `json:"driver_name,omitempty"`
	DriverPhone    string       `json:"driver_phone,omitempty"`
	VehiclePlate   string       `json:"vehicle_plate,omitempty"`
	VehicleModel   string       `json:"vehicle_model,omitempty"`
	DriverLocation *Coordinates `json:"driver_location,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// HasDriver reports whether a driver has actually been assigned. Lite
// projections include the driver block only when this is true.
func (t TripSummary) HasDriver() bool {
	return t.DriverName != "" || t.VehiclePlate != ""
}

// UserProfile is what the user service exposes to the channel layer.
type UserProfile struct {
	ID       string `json:"id"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Language string `json:"language"`
	// Data budget tier set from the app: "", "saver", "ultra_saver"
	DataBudget string `json:"data_budget,omitempty"`
}
