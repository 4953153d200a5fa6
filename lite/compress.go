// Package lite is the low-bandwidth engine behind the lite-client API:
// adaptive compression, entity delta-sync, response caching with ETags,
// short-key wire projections and offline map tile planning.
package lite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Wire encodings. These are protocol constants shared with the lite
// clients; changing them breaks deployed apps.
const (
	EncodingIdentity    = "identity"
	EncodingGzip        = "gzip"
	EncodingMsgpackGzip = "msgpack+gzip"
)

// Payloads smaller than this net-lose under gzip (header overhead plus CPU),
// so they ship as identity.
const compressThreshold = 500

// ErrUnknownEncoding is returned by Decompress for an unrecognized tag.
var ErrUnknownEncoding = fmt.Errorf("unknown encoding")

// Compressed is the result of Compress.
type Compressed struct {
	Encoding         string  `json:"encoding"`
	Data             []byte  `json:"data"`
	OriginalSize     int     `json:"original_size"`
	CompressedSize   int     `json:"compressed_size"`
	CompressionRatio float64 `json:"compression_ratio"`
}

// fieldDict maps common domain field names to one/two-letter wire keys.
// The short keys must stay unique; expansion inverts this table.
var fieldDict = map[string]string{
	"id":              "i",
	"status":          "s",
	"pickup_address":  "pa",
	"dropoff_address": "da",
	"pickup_coords":   "pc",
	"dropoff_coords":  "dc",
	"driver_name":     "dn",
	"driver_phone":    "dp",
	"vehicle_plate":   "vp",
	"vehicle_model":   "vm",
	"fare":            "f",
	"currency":        "c",
	"eta_minutes":     "e",
	"distance_km":     "dk",
	"surge_multiplier": "sm",
	"created_at":      "ca",
	"updated_at":      "ua",
	"phone":           "ph",
	"user_id":         "u",
	"amount":          "a",
	"balance":         "b",
	"version":         "v",
	"entity":          "en",
	"action":          "ac",
	"changes":         "ch",
	"address":         "ad",
	"lat":             "la",
	"lng":             "lo",
	"message":         "m",
	"title":           "t",
}

var fieldDictReverse = func() map[string]string {
	r := make(map[string]string, len(fieldDict))
	for full, short := range fieldDict {
		r[short] = full
	}
	return r
}()

// Compress serializes v and picks the cheapest wire form: identity for small
// payloads, otherwise the smaller of plain gzip and dictionary-abbreviated
// keys followed by gzip (tagged msgpack+gzip on the wire).
func Compress(v interface{}) (*Compressed, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	if len(plain) < compressThreshold {
		return &Compressed{
			Encoding:         EncodingIdentity,
			Data:             plain,
			OriginalSize:     len(plain),
			CompressedSize:   len(plain),
			CompressionRatio: 1.0,
		}, nil
	}

	gzipped, err := gzipBytes(plain)
	if err != nil {
		return nil, err
	}

	encoding, data := EncodingGzip, gzipped

	// A payload that already uses one of the short wire keys would collide
	// with a dictionary key during abbreviation and expand back under the
	// wrong name. Such payloads only ever ship as plain gzip.
	if decoded := decodeJSON(plain); !containsShortKey(decoded) {
		abbreviated, err := json.Marshal(abbreviateKeys(decoded))
		if err != nil {
			return nil, fmt.Errorf("marshal abbreviated payload: %w", err)
		}
		abbrGzipped, err := gzipBytes(abbreviated)
		if err != nil {
			return nil, err
		}
		if len(abbrGzipped) < len(gzipped) {
			encoding, data = EncodingMsgpackGzip, abbrGzipped
		}
	}
	// Incompressible payloads (already-compressed blobs in the JSON) can
	// inflate under gzip; fall back to identity rather than ship a larger body.
	if len(data) >= len(plain) {
		encoding, data = EncodingIdentity, plain
	}

	return &Compressed{
		Encoding:         encoding,
		Data:             data,
		OriginalSize:     len(plain),
		CompressedSize:   len(data),
		CompressionRatio: float64(len(data)) / float64(len(plain)),
	}, nil
}

// Decompress is the structural inverse of Compress, dispatching on the
// encoding tag. The result is the JSON value form of the original payload.
func Decompress(encoding string, data []byte) (interface{}, error) {
	switch encoding {
	case EncodingIdentity:
		return decodeJSONErr(data)
	case EncodingGzip:
		plain, err := gunzipBytes(data)
		if err != nil {
			return nil, err
		}
		return decodeJSONErr(plain)
	case EncodingMsgpackGzip:
		plain, err := gunzipBytes(data)
		if err != nil {
			return nil, err
		}
		v, err := decodeJSONErr(plain)
		if err != nil {
			return nil, err
		}
		return expandKeys(v), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip decode: %w", err)
	}
	defer r.Close()
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip decode: %w", err)
	}
	return plain, nil
}

func decodeJSON(data []byte) interface{} {
	v, _ := decodeJSONErr(data)
	return v
}

func decodeJSONErr(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return v, nil
}

// containsShortKey reports whether any object in v already uses one of the
// dictionary's short keys.
func containsShortKey(v interface{}) bool {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			if _, ok := fieldDictReverse[k]; ok {
				return true
			}
			if containsShortKey(child) {
				return true
			}
		}
	case []interface{}:
		for _, child := range val {
			if containsShortKey(child) {
				return true
			}
		}
	}
	return false
}

// abbreviateKeys rewrites dictionary field names to short keys, recursively.
func abbreviateKeys(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			key := k
			if short, ok := fieldDict[k]; ok {
				key = short
			}
			out[key] = abbreviateKeys(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = abbreviateKeys(child)
		}
		return out
	default:
		return v
	}
}

func expandKeys(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			key := k
			if full, ok := fieldDictReverse[k]; ok {
				key = full
			}
			out[key] = expandKeys(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = expandKeys(child)
		}
		return out
	default:
		return v
	}
}
