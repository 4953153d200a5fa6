package voice

import (
	"context"
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
const testCallSID = "CA-test-1"

type testEnv struct {
	m      *Machine
	pool   *Pool
	trips  *clients.FakeTripService
	wallet *clients.FakeWalletService
	users  *clients.FakeUserService
	places *clients.FakePlaces
	clock  *time.Time
}

func newTestEnv(t *testing.T, agents ...models.CallAgent) *testEnv {
	t.Helper()
	tr, err := i18n.New()
	require.NoError(t, err)

	env := &testEnv{
		trips:  clients.NewFakeTripService(),
		wallet: clients.NewFakeWalletService(),
		users:  clients.NewFakeUserService(),
		places: clients.NewFakePlaces(),
		pool:   NewPool(agents),
	}
	env.users.Users[testPhone] = &models.UserProfile{ID: "u-1", Phone: testPhone, Language: "en"}
	env.wallet.Balances["u-1"] = 800

	base := time.Now()
	env.clock = &base

	env.m = New(Deps{
		Store:      store.NewMemory(),
		Translator: tr,
		Geocoder:   clients.NewFakeGeocoder(),
		Trips:      env.trips,
		Wallet:     env.wallet,
		Users:      env.users,
		Places:     env.places,
		Pool:       env.pool,
	})
	env.m.now = func() time.Time { return *env.clock }
	return env
}

func (e *testEnv) call() []Action {
	return e.m.HandleIncomingCall(context.Background(), CallEvent{
		CallSID: testCallSID, From: testPhone, To: "20880",
	})
}

func spoken(actions []Action) string {
	out := ""
	for _, a := range actions {
		if a.Type == ACTION_SPEAK {
			out += a.Text + "\n"
		}
	}
	return out
}

func hasAction(actions []Action, typ string) bool {
	for _, a := range actions {
		if a.Type == typ {
			return true
		}
	}
	return false
}

func TestIncomingCallPlaysMenu(t *testing.T) {
	env := newTestEnv(t)
	actions := env.call()

	text := spoken(actions)
	assert.Contains(t, text, "Welcome to UBI.")
	assert.Contains(t, text, "Press 1 to book a ride")
	assert.True(t, hasAction(actions, ACTION_GATHER))
}

func TestActiveTripFastTrack(t *testing.T) {
	env := newTestEnv(t)
	env.trips.Active["u-1"] = &models.TripSummary{
		ID: "trip-1", Status: models.TRIP_STATUS_ARRIVING,
		DriverName: "James", VehiclePlate: "KDA 123X", ETAMinutes: 3,
	}

	actions := env.call()
	text := spoken(actions)
	assert.Contains(t, text, "James")
	assert.NotContains(t, text, "Press 1 to book a ride")
}

func TestDTMFBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	env.call()
	ctx := context.Background()

	actions := env.m.HandleDTMF(ctx, testCallSID, "1")
	assert.Contains(t, spoken(actions), "pickup")

	actions = env.m.HandleSpeech(ctx, testCallSID, "Westlands", 0.95)
	assert.Contains(t, spoken(actions), "destination")

	actions = env.m.HandleSpeech(ctx, testCallSID, "Kilimani", 0.95)
	text := spoken(actions)
	assert.Contains(t, text, "Kilimani")
	assert.Contains(t, text, "Press 1 to confirm")

	actions = env.m.HandleDTMF(ctx, testCallSID, "1")
	text = spoken(actions)
	assert.Contains(t, text, "James")
	assert.True(t, hasAction(actions, ACTION_HANGUP))
	require.Len(t, env.trips.Created, 1)
	assert.Equal(t, models.CHANNEL_VOICE, env.trips.Created[0].Channel)
}

func TestSpeechCommandInMainMenu(t *testing.T) {
	env := newTestEnv(t)
	env.call()

	actions := env.m.HandleSpeech(context.Background(), testCallSID, "I want to book a ride", 0.9)
	assert.Contains(t, spoken(actions), "pickup")
}

func TestLowConfidenceSpeechAsksForConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.call()
	ctx := context.Background()

	actions := env.m.HandleSpeech(ctx, testCallSID, "I want to book a ride", 0.4)
	assert.Contains(t, spoken(actions), "I heard: I want to book a ride")
	assert.Empty(t, env.trips.Created)

	// Pressing 1 applies the echoed transcript.
	actions = env.m.HandleDTMF(ctx, testCallSID, "1")
	assert.Contains(t, spoken(actions), "pickup")
}

func TestLowConfidenceSpeechRejected(t *testing.T) {
	env := newTestEnv(t)
	env.call()
	ctx := context.Background()

	env.m.HandleSpeech(ctx, testCallSID, "mumble", 0.3)
	actions := env.m.HandleDTMF(ctx, testCallSID, "2")
	assert.Contains(t, spoken(actions), "Press 1 to book a ride")
}

func TestRetriesEscalateToAgent(t *testing.T) {
	env := newTestEnv(t, models.CallAgent{
		ID: "agent-1", Name: "Grace", Languages: []string{"en"}, Extension: "1001",
	})
	env.call()
	ctx := context.Background()

	env.m.HandleDTMF(ctx, testCallSID, "1")
	env.m.HandleSpeech(ctx, testCallSID, "xyzzy one", 0.9)
	env.m.HandleSpeech(ctx, testCallSID, "xyzzy two", 0.9)

	actions := env.m.HandleSpeech(ctx, testCallSID, "xyzzy three", 0.9)
	assert.True(t, hasAction(actions, ACTION_TRANSFER))
	assert.Contains(t, spoken(actions), "Grace")
}

func TestGlobalCommands(t *testing.T) {
	env := newTestEnv(t)
	env.call()
	ctx := context.Background()

	env.m.HandleDTMF(ctx, testCallSID, "1")

	// "#" repeats the current prompt.
	actions := env.m.HandleDTMF(ctx, testCallSID, "#")
	assert.Contains(t, spoken(actions), "pickup")

	// "0" goes back to the menu.
	actions = env.m.HandleDTMF(ctx, testCallSID, "0")
	assert.Contains(t, spoken(actions), "Press 1 to book a ride")

	// "*" resets from anywhere.
	env.m.HandleDTMF(ctx, testCallSID, "1")
	actions = env.m.HandleDTMF(ctx, testCallSID, "*")
	assert.Contains(t, spoken(actions), "Press 1 to book a ride")
}

func TestAgentQueueWhenAllBusy(t *testing.T) {
	env := newTestEnv(t) // empty pool
	env.call()

	actions := env.m.HandleDTMF(context.Background(), testCallSID, "9")
	text := spoken(actions)
	assert.Contains(t, text, "number 1 in the queue")
	assert.True(t, hasAction(actions, ACTION_PLAY))
	assert.False(t, hasAction(actions, ACTION_TRANSFER))
}

func TestHelpMenuOption(t *testing.T) {
	env := newTestEnv(t)
	env.call()
	ctx := context.Background()

	actions := env.m.HandleDTMF(ctx, testCallSID, "5")
	assert.Contains(t, spoken(actions), "For help")
	assert.True(t, hasAction(actions, ACTION_GATHER))

	// "0" returns to the main menu.
	actions = env.m.HandleDTMF(ctx, testCallSID, "0")
	assert.Contains(t, spoken(actions), "Press 1 to book a ride")
}

func TestWalletMenuSpeaksBalance(t *testing.T) {
	env := newTestEnv(t)
	env.call()

	actions := env.m.HandleDTMF(context.Background(), testCallSID, "3")
	assert.Contains(t, spoken(actions), "KES 800")
}
