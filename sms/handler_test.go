package sms

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubilite/clients"
	"ubilite/i18n"
	"ubilite/models"
	"ubilite/store"
)

const testPhone = "254712345678"

var codeRe = regexp.MustCompile(`CONFIRM ([A-Z0-9]{4})`)

type testEnv struct {
	h      *Handler
	tr     *i18n.Translator
	trips  *clients.FakeTripService
	wallet *clients.FakeWalletService
	users  *clients.FakeUserService
	places *clients.FakePlaces
	clock  *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tr, err := i18n.New()
	require.NoError(t, err)

	env := &testEnv{
		tr:     tr,
		trips:  clients.NewFakeTripService(),
		wallet: clients.NewFakeWalletService(),
		users:  clients.NewFakeUserService(),
		places: clients.NewFakePlaces(),
	}
	env.users.Users[testPhone] = &models.UserProfile{ID: "u-1", Phone: testPhone, Name: "Jane", Language: "en"}
	env.wallet.Balances["u-1"] = 1500

	base := time.Now()
	env.clock = &base

	env.h = New(Deps{
		Store:      store.NewMemory(),
		Translator: tr,
		Geocoder:   clients.NewFakeGeocoder(),
		Trips:      env.trips,
		Wallet:     env.wallet,
		Users:      env.users,
		Places:     env.places,
		Shortcode:  "40404",
	})
	env.h.now = func() time.Time { return *env.clock }
	return env
}

func (e *testEnv) send(body string) models.OutgoingSMS {
	return e.h.HandleIncomingSMS(context.Background(), models.IncomingSMS{
		ID: "sms-1", Sender: testPhone, Body: body,
	})
}

func TestBookRequiresRegistration(t *testing.T) {
	env := newTestEnv(t)
	out := env.h.HandleIncomingSMS(context.Background(), models.IncomingSMS{
		ID: "sms-1", Sender: "254700999888", Body: "BOOK TO Westlands",
	})
	want := env.tr.T("error.not_registered", "en", map[string]string{"shortcode": "40404"})
	assert.Equal(t, want, out.Message)
	assert.Empty(t, env.trips.Created)
}

func TestBookConfirmHandshake(t *testing.T) {
	env := newTestEnv(t)

	out := env.send("BOOK TO Westlands")
	assert.Contains(t, out.Message, "Westlands")
	assert.Contains(t, out.Message, "KES")
	m := codeRe.FindStringSubmatch(out.Message)
	require.NotNil(t, m, "reply should carry a confirmation code: %q", out.Message)
	code := m[1]

	// Nothing booked until the code comes back.
	assert.Empty(t, env.trips.Created)

	out = env.send("CONFIRM " + code)
	assert.Contains(t, out.Message, "James")
	require.Len(t, env.trips.Created, 1)
	assert.Equal(t, models.CHANNEL_SMS, env.trips.Created[0].Channel)

	// The code is consumed: a second CONFIRM finds nothing.
	out = env.send("CONFIRM " + code)
	assert.Equal(t, env.tr.T("sms.no_pending", "en", nil), out.Message)
	assert.Len(t, env.trips.Created, 1)
}

func TestConfirmWithoutCodeUsesPending(t *testing.T) {
	env := newTestEnv(t)
	env.send("BOOK TO Kilimani")

	out := env.send("CONFIRM")
	assert.Contains(t, out.Message, "James")
	assert.Len(t, env.trips.Created, 1)
}

func TestConfirmExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	out := env.send("BOOK TO Westlands")
	code := codeRe.FindStringSubmatch(out.Message)[1]

	*env.clock = env.clock.Add(DefaultConfirmTTL + time.Minute)

	out = env.send("CONFIRM " + code)
	assert.Equal(t, env.tr.T("sms.expired", "en", nil), out.Message)
	assert.Empty(t, env.trips.Created)

	// Expired consumption is still consumption.
	out = env.send("CONFIRM " + code)
	assert.Equal(t, env.tr.T("sms.no_pending", "en", nil), out.Message)
}

func TestWalletSendConfirmFlow(t *testing.T) {
	env := newTestEnv(t)
	reply, err := env.h.PendTransfer(context.Background(), testPhone, "u-1", "254723000111", 500, "en")
	require.NoError(t, err)
	code := codeRe.FindStringSubmatch(reply)[1]

	out := env.send("CONFIRM " + code)
	assert.Contains(t, out.Message, "KES 500")
	assert.Equal(t, 1, env.wallet.Transfers)

	out = env.send("CONFIRM " + code)
	assert.Equal(t, env.tr.T("sms.no_pending", "en", nil), out.Message)
	assert.Equal(t, 1, env.wallet.Transfers)
}

func TestWalletSendConfirmAfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	reply, err := env.h.PendTransfer(context.Background(), testPhone, "u-1", "254723000111", 500, "en")
	require.NoError(t, err)
	code := codeRe.FindStringSubmatch(reply)[1]

	*env.clock = env.clock.Add(11 * time.Minute)

	out := env.send("CONFIRM " + code)
	assert.Equal(t, env.tr.T("sms.expired", "en", nil), out.Message)
	assert.Equal(t, 0, env.wallet.Transfers)
}

func TestCancelFreeWithinWindow(t *testing.T) {
	env := newTestEnv(t)
	env.trips.Active["u-1"] = &models.TripSummary{
		ID: "trip-9", Status: models.TRIP_STATUS_MATCHED, CreatedAt: *env.clock,
	}

	out := env.send("CANCEL")
	assert.Contains(t, out.Message, "cancelled")
	assert.Contains(t, out.Message, "No fee")
	assert.Equal(t, []string{"trip-9"}, env.trips.Cancelled)
}

func TestCancelFeeTiers(t *testing.T) {
	env := newTestEnv(t)
	env.trips.Active["u-1"] = &models.TripSummary{
		ID: "trip-9", Status: models.TRIP_STATUS_ARRIVING, CreatedAt: env.clock.Add(-10 * time.Minute),
	}

	out := env.send("CANCEL")
	assert.Contains(t, out.Message, "KES 200")
	code := codeRe.FindStringSubmatch(out.Message)[1]
	assert.Empty(t, env.trips.Cancelled, "paid cancel waits for the code")

	out = env.send("CONFIRM " + code)
	assert.Contains(t, out.Message, "KES 200")
	assert.Equal(t, []string{"trip-9"}, env.trips.Cancelled)
}

func TestTrackAndBalance(t *testing.T) {
	env := newTestEnv(t)

	out := env.send("TRACK")
	assert.Equal(t, env.tr.T("sms.track_none", "en", nil), out.Message)

	env.trips.Active["u-1"] = &models.TripSummary{
		ID: "trip-2", Status: models.TRIP_STATUS_ARRIVING,
		DriverName: "James", VehiclePlate: "KDA 123X", ETAMinutes: 3,
	}
	out = env.send("TRACK")
	assert.Contains(t, out.Message, "James")

	out = env.send("BALANCE")
	assert.Contains(t, out.Message, "KES 1,500")
}

func TestRegisterAndSetPlaces(t *testing.T) {
	env := newTestEnv(t)
	phone := "254700111222"

	out := env.h.HandleIncomingSMS(context.Background(), models.IncomingSMS{
		ID: "sms-2", Sender: phone, Body: "REGISTER Otieno",
	})
	assert.Contains(t, out.Message, "Otieno")

	out = env.h.HandleIncomingSMS(context.Background(), models.IncomingSMS{
		ID: "sms-3", Sender: phone, Body: "SET HOME Kilimani",
	})
	assert.Contains(t, out.Message, "Kilimani")

	places, err := env.places.ByUser(context.Background(), "u-"+phone)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "home", places[0].Label)
}

func TestUnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	out := env.send("blah blah")
	assert.Equal(t, env.tr.T("sms.unknown", "en", nil), out.Message)
}

func TestSegments(t *testing.T) {
	short := "Ride booked"
	assert.Equal(t, []string{short}, Segments(short))

	long := strings.Repeat("UBI rides ", 40) // 400 chars, GSM-7
	parts := Segments(long)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), gsm7MultiLen)
	}

	unicode := strings.Repeat("safari njema \U0001F695 ", 10)
	parts = Segments(unicode)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), ucs2MultiLen)
	}
}

func TestBuildOutgoingFirstSegmentOnly(t *testing.T) {
	long := strings.Repeat("UBI rides ", 40)
	out := BuildOutgoing(testPhone, long, models.SMS_PRIORITY_NORMAL)
	assert.Equal(t, Segments(long)[0], out.Message)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "sw", DetectLanguage("Nataka safari kwenda nyumbani tafadhali"))
	assert.Equal(t, "fr", DetectLanguage("Je vais au travail merci"))
	assert.Equal(t, "", DetectLanguage("BOOK TO Westlands"))
}
