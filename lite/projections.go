package lite

import (
	"ubilite/models"
	"ubilite/tools"
)

// Wire address budget. Long Nairobi addresses dominate trip payloads;
// beyond this they stop helping a 2G client.
const liteAddressChars = 30

// LiteDriver is the driver sub-object, present only when a driver is
// actually assigned.
type LiteDriver struct {
	Name  string  `json:"n"`
	Phone string  `json:"ph"`
	Plate string  `json:"vp"`
	Lat   float64 `json:"la,omitempty"`
	Lng   float64 `json:"lo,omitempty"`
}

// LiteTrip is the short-key trip projection for constrained clients.
type LiteTrip struct {
	ID      string      `json:"i"`
	Status  string      `json:"s"`
	Pickup  string      `json:"p"`
	Dropoff string      `json:"d"`
	Fare    float64     `json:"f"`
	ETA     int         `json:"e"`
	Driver  *LiteDriver `json:"dr,omitempty"`
}

// LiteFare is the short-key fare estimate projection.
type LiteFare struct {
	Fare     float64 `json:"f"`
	Currency string  `json:"c"`
	ETA      int     `json:"e"`
	Distance float64 `json:"dk"`
	Surge    float64 `json:"sm,omitempty"`
}

// ProjectTrip reshapes a trip for the wire. The driver block is an
// intentional sparse field: absent until assignment, not an error.
func ProjectTrip(t models.TripSummary) LiteTrip {
	out := LiteTrip{
		ID:      t.ID,
		Status:  t.Status,
		Pickup:  tools.Truncate(t.PickupAddress, liteAddressChars),
		Dropoff: tools.Truncate(t.DropoffAddress, liteAddressChars),
		Fare:    t.Fare,
		ETA:     t.ETAMinutes,
	}
	if t.HasDriver() {
		d := &LiteDriver{Name: t.DriverName, Phone: t.DriverPhone, Plate: t.VehiclePlate}
		if t.DriverLocation != nil {
			d.Lat = t.DriverLocation.Lat
			d.Lng = t.DriverLocation.Lng
		}
		out.Driver = d
	}
	return out
}

func ProjectFare(f models.FareEstimate) LiteFare {
	out := LiteFare{
		Fare:     f.Fare,
		Currency: f.Currency,
		ETA:      f.ETAMinutes,
		Distance: f.DistanceKm,
	}
	if f.SurgeMultiplier > 1 {
		out.Surge = f.SurgeMultiplier
	}
	return out
}
