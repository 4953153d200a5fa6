package lite

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrips(n int) []map[string]interface{} {
	trips := make([]map[string]interface{}, n)
	for i := range trips {
		trips[i] = map[string]interface{}{
			"id":              "trip-1234",
			"status":          "driver_arriving",
			"pickup_address":  "Westlands, Waiyaki Way, Nairobi",
			"dropoff_address": "Kilimani, Argwings Kodhek Road",
			"driver_name":     "James Mwangi",
			"vehicle_plate":   "KDA 123X",
			"fare":            350,
			"eta_minutes":     7,
		}
	}
	return trips
}

func TestCompressSmallPayloadStaysIdentity(t *testing.T) {
	c, err := Compress(map[string]string{"status": "ok"})
	require.NoError(t, err)
	assert.Equal(t, EncodingIdentity, c.Encoding)
	assert.Equal(t, c.OriginalSize, c.CompressedSize)
	assert.Equal(t, 1.0, c.CompressionRatio)
}

func TestCompressShrinksRepetitivePayload(t *testing.T) {
	c, err := Compress(sampleTrips(20))
	require.NoError(t, err)
	assert.NotEqual(t, EncodingIdentity, c.Encoding)
	assert.Less(t, c.CompressedSize, c.OriginalSize)
	assert.Less(t, c.CompressionRatio, 1.0)
}

func TestCompressNeverShipsLargerBody(t *testing.T) {
	// A long unique string barely gzips; whatever wins, the wire body must
	// not exceed the plain form.
	var sb strings.Builder
	for i := 0; i < 2000; i++ {
		sb.WriteByte(byte('a' + (i*7+i*i*13)%26))
	}
	c, err := Compress(map[string]string{"blob": sb.String()})
	require.NoError(t, err)
	assert.LessOrEqual(t, c.CompressedSize, c.OriginalSize)
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	trips := sampleTrips(20)
	c, err := Compress(trips)
	require.NoError(t, err)

	v, err := Decompress(c.Encoding, c.Data)
	require.NoError(t, err)

	list, ok := v.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 20)
	first, ok := list[0].(map[string]interface{})
	require.True(t, ok)
	// Dictionary keys come back in their full form regardless of encoding.
	assert.Equal(t, "Westlands, Waiyaki Way, Nairobi", first["pickup_address"])
	assert.Equal(t, "KDA 123X", first["vehicle_plate"])
}

func TestCompressKeepsShortKeyCollisions(t *testing.T) {
	// "s" is the wire abbreviation for "status". A payload carrying both
	// must round-trip with both values intact, so the abbreviation pass is
	// off the table for it.
	rec := map[string]interface{}{
		"status": "completed",
		"s":      "user-supplied-value",
		"notes":  strings.Repeat("repetitive filler text ", 40),
	}
	c, err := Compress(rec)
	require.NoError(t, err)
	assert.NotEqual(t, EncodingMsgpackGzip, c.Encoding)

	v, err := Decompress(c.Encoding, c.Data)
	require.NoError(t, err)
	m, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "completed", m["status"])
	assert.Equal(t, "user-supplied-value", m["s"])
}

func TestDecompressMsgpackGzipExpandsKeys(t *testing.T) {
	abbreviated, err := json.Marshal(map[string]interface{}{
		"i": "trip-1", "s": "completed", "dn": "James", "f": 350,
	})
	require.NoError(t, err)
	data, err := gzipBytes(abbreviated)
	require.NoError(t, err)

	v, err := Decompress(EncodingMsgpackGzip, data)
	require.NoError(t, err)
	m, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "trip-1", m["id"])
	assert.Equal(t, "completed", m["status"])
	assert.Equal(t, "James", m["driver_name"])
}

func TestDecompressUnknownEncoding(t *testing.T) {
	_, err := Decompress("brotli", []byte("x"))
	assert.True(t, errors.Is(err, ErrUnknownEncoding))
}

func TestDecompressRejectsGarbageGzip(t *testing.T) {
	_, err := Decompress(EncodingGzip, []byte("not gzip at all"))
	assert.Error(t, err)
}
