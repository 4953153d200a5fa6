package lite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubilite/models"
)

// A small box around central Nairobi.
var nairobiBox = BoundingBox{MinLat: -1.30, MinLng: 36.78, MaxLat: -1.26, MaxLng: 36.83}

// Roughly all of Kenya; far more tiles than any budget allows at z14.
var kenyaBox = BoundingBox{MinLat: -4.7, MinLng: 33.9, MaxLat: 5.0, MaxLng: 41.9}

func TestPlanTilesSmallRegion(t *testing.T) {
	plan, err := PlanTiles(nairobiBox, 14, models.IMAGE_QUALITY_MEDIUM, models.NETWORK_WIFI)
	require.NoError(t, err)
	assert.Equal(t, models.IMAGE_QUALITY_MEDIUM, plan.Quality)
	assert.Equal(t, 14, plan.Zoom)
	assert.NotEmpty(t, plan.Tiles)
	assert.False(t, plan.Truncated)
	for _, tile := range plan.Tiles {
		assert.Equal(t, 14, tile.Z)
	}
}

func TestPlanTilesTruncatesAtBudget(t *testing.T) {
	plan, err := PlanTiles(kenyaBox, 14, models.IMAGE_QUALITY_HIGH, models.NETWORK_WIFI)
	require.NoError(t, err)
	assert.True(t, plan.Truncated)
	assert.Len(t, plan.Tiles, 100)
}

func TestPlanTilesForcesLowQualityOnSlowNetwork(t *testing.T) {
	plan, err := PlanTiles(kenyaBox, 14, models.IMAGE_QUALITY_HIGH, models.NETWORK_GPRS)
	require.NoError(t, err)
	assert.Equal(t, models.IMAGE_QUALITY_LOW, plan.Quality)
	assert.Len(t, plan.Tiles, 20)
	assert.True(t, plan.Truncated)
}

func TestPlanTilesUnknownQualityDefaultsMedium(t *testing.T) {
	plan, err := PlanTiles(nairobiBox, 14, "ultra", models.NETWORK_WIFI)
	require.NoError(t, err)
	assert.Equal(t, models.IMAGE_QUALITY_MEDIUM, plan.Quality)
}

func TestPlanTilesRejectsBadInput(t *testing.T) {
	_, err := PlanTiles(nairobiBox, 0, models.IMAGE_QUALITY_LOW, models.NETWORK_WIFI)
	assert.Error(t, err)

	_, err = PlanTiles(nairobiBox, 25, models.IMAGE_QUALITY_LOW, models.NETWORK_WIFI)
	assert.Error(t, err)

	inverted := BoundingBox{MinLat: 1, MinLng: 37, MaxLat: -1, MaxLng: 36}
	_, err = PlanTiles(inverted, 14, models.IMAGE_QUALITY_LOW, models.NETWORK_WIFI)
	assert.Error(t, err)
}

func TestProjectTrip(t *testing.T) {
	trip := models.TripSummary{
		ID:             "trip-1",
		Status:         models.TRIP_STATUS_ARRIVING,
		PickupAddress:  "A very long pickup address somewhere on Waiyaki Way, Nairobi",
		DropoffAddress: "Kilimani",
		Fare:           350,
		ETAMinutes:     7,
	}

	lite := ProjectTrip(trip)
	assert.LessOrEqual(t, len([]rune(lite.Pickup)), liteAddressChars)
	assert.Nil(t, lite.Driver, "no driver block before assignment")

	trip.DriverName = "James"
	trip.VehiclePlate = "KDA 123X"
	lite = ProjectTrip(trip)
	require.NotNil(t, lite.Driver)
	assert.Equal(t, "KDA 123X", lite.Driver.Plate)
}
