package clients

import (
	"context"
	"strings"
	"sync"

	"ubilite/models"
)

// In-memory fakes for every collaborator. They back the channel tests and
// local development when the platform services aren't running.

type FakeGeocoder struct {
	// Known maps lowercase address fragments to locations.
	Known map[string]models.Location
}

func NewFakeGeocoder() *FakeGeocoder {
	return &FakeGeocoder{Known: map[string]models.Location{
		"westlands": {Coords: models.Coordinates{Lat: -1.2635, Lng: 36.8029}, Address: "Westlands, Nairobi"},
		"cbd":       {Coords: models.Coordinates{Lat: -1.2833, Lng: 36.8167}, Address: "Nairobi CBD"},
		"kilimani":  {Coords: models.Coordinates{Lat: -1.2906, Lng: 36.7870}, Address: "Kilimani, Nairobi"},
	}}
}

func (g *FakeGeocoder) Geocode(_ context.Context, address string) (*models.Location, error) {
	needle := strings.ToLower(strings.TrimSpace(address))
	for frag, loc := range g.Known {
		if strings.Contains(needle, frag) {
			l := loc
			return &l, nil
		}
	}
	return nil, nil
}

type FakeTripService struct {
	mu         sync.Mutex
	NextTrip   *models.TripSummary
	Active     map[string]*models.TripSummary // userID -> trip
	RecentList map[string][]models.TripSummary
	Est        models.FareEstimate
	CreateErr  error
	Created    []TripRequest
	Cancelled  []string
}

func NewFakeTripService() *FakeTripService {
	return &FakeTripService{
		Active:     make(map[string]*models.TripSummary),
		RecentList: make(map[string][]models.TripSummary),
		Est:        models.FareEstimate{Fare: 350, Currency: "KES", ETAMinutes: 7, DistanceKm: 4.2, SurgeMultiplier: 1.0},
		NextTrip: &models.TripSummary{
			ID: "trip-1", Status: models.TRIP_STATUS_MATCHED,
			DriverName: "James", DriverPhone: "254700000001",
			VehiclePlate: "KDA 123X", ETAMinutes: 7,
		},
	}
}

func (t *FakeTripService) Estimate(_ context.Context, _, _ models.Coordinates) (*models.FareEstimate, error) {
	e := t.Est
	return &e, nil
}

func (t *FakeTripService) Create(_ context.Context, req TripRequest) (*models.TripSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.CreateErr != nil {
		return nil, t.CreateErr
	}
	t.Created = append(t.Created, req)
	trip := *t.NextTrip
	trip.PickupAddress = req.PickupAddress
	trip.DropoffAddress = req.DropoffAddress
	if req.UserID != "" {
		cp := trip
		t.Active[req.UserID] = &cp
	}
	return &trip, nil
}

func (t *FakeTripService) Get(_ context.Context, id string) (*models.TripSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, trip := range t.Active {
		if trip.ID == id {
			cp := *trip
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *FakeTripService) GetActive(_ context.Context, userID string) (*models.TripSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if trip, ok := t.Active[userID]; ok {
		cp := *trip
		return &cp, nil
	}
	return nil, nil
}

func (t *FakeTripService) Cancel(_ context.Context, id, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Cancelled = append(t.Cancelled, id)
	for uid, trip := range t.Active {
		if trip.ID == id {
			delete(t.Active, uid)
		}
	}
	return nil
}

func (t *FakeTripService) Recent(_ context.Context, userID string, limit int) ([]models.TripSummary, error) {
	trips := t.RecentList[userID]
	if len(trips) > limit {
		trips = trips[:limit]
	}
	return trips, nil
}

type FakeWalletService struct {
	mu        sync.Mutex
	Balances  map[string]float64
	PIN       string
	Transfers int
	TopUps    int
}

func NewFakeWalletService() *FakeWalletService {
	return &FakeWalletService{Balances: map[string]float64{}, PIN: "1234"}
}

func (w *FakeWalletService) Balance(_ context.Context, userID string) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Balances[userID], nil
}

func (w *FakeWalletService) VerifyPIN(_ context.Context, _, pin string) (bool, error) {
	return pin == w.PIN, nil
}

func (w *FakeWalletService) Transfer(_ context.Context, userID, _ string, amount float64) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Transfers++
	w.Balances[userID] -= amount
	return w.Balances[userID], nil
}

func (w *FakeWalletService) InitiateTopUp(_ context.Context, _, _ string, _ float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.TopUps++
	return nil
}

type FakeUserService struct {
	mu    sync.Mutex
	Users map[string]*models.UserProfile // phone -> profile
}

func NewFakeUserService() *FakeUserService {
	return &FakeUserService{Users: map[string]*models.UserProfile{}}
}

func (u *FakeUserService) FindByPhone(_ context.Context, phone string) (*models.UserProfile, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if p, ok := u.Users[phone]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (u *FakeUserService) Register(_ context.Context, phone, name string) (*models.UserProfile, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	p := &models.UserProfile{ID: "u-" + phone, Phone: phone, Name: name, Language: "en"}
	u.Users[phone] = p
	cp := *p
	return &cp, nil
}

func (u *FakeUserService) SetLanguage(_ context.Context, userID, lang string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, p := range u.Users {
		if p.ID == userID {
			p.Language = lang
		}
	}
	return nil
}

type FakeMessenger struct {
	mu   sync.Mutex
	Sent []models.OutgoingSMS
}

func NewFakeMessenger() *FakeMessenger {
	return &FakeMessenger{}
}

func (m *FakeMessenger) SendSMS(_ context.Context, sms models.OutgoingSMS) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sms)
	return nil
}

func (m *FakeMessenger) Last() *models.OutgoingSMS {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return &m.Sent[len(m.Sent)-1]
}

type FakePlaces struct {
	mu     sync.Mutex
	Places map[string][]models.SavedPlace // userID -> places
}

func NewFakePlaces() *FakePlaces {
	return &FakePlaces{Places: map[string][]models.SavedPlace{}}
}

func (f *FakePlaces) ByUser(_ context.Context, userID string) ([]models.SavedPlace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SavedPlace(nil), f.Places[userID]...), nil
}

func (f *FakePlaces) Set(_ context.Context, userID, label string, loc models.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	places := f.Places[userID]
	for i := range places {
		if places[i].Label == label {
			places[i].Address = loc.Address
			places[i].Lat = loc.Coords.Lat
			places[i].Lng = loc.Coords.Lng
			f.Places[userID] = places
			return nil
		}
	}
	f.Places[userID] = append(places, models.SavedPlace{
		UserID: userID, Label: label, Address: loc.Address,
		Lat: loc.Coords.Lat, Lng: loc.Coords.Lng,
	})
	return nil
}
