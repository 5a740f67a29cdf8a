// Package polyline implements the Google encoded polyline algorithm.
//
// Each coordinate is stored as a delta from the previous point, scaled to
// five decimal places, zig-zag encoded, split into 5-bit groups (low group
// first) with 0x20 as the continuation flag, and biased by 63 into printable
// ASCII.
package polyline

import (
	"errors"
	"fmt"
	"math"

	"github.com/moroccoview/companion/internal/domain"
)

const (
	factor = 1e5
	bias   = 63
	more   = 0x20
	mask   = 0x1f
)

// ErrMalformed is returned when an encoded string is truncated or contains
// bytes outside the encoding alphabet.
var ErrMalformed = errors.New("malformed polyline")

// Decode converts an encoded polyline into its coordinate sequence.
// An empty string decodes to an empty, non-nil slice.
func Decode(s string) ([]domain.LatLng, error) {
	points := make([]domain.LatLng, 0, len(s)/4)
	var lat, lng int64
	for i := 0; i < len(s); {
		dlat, n, err := decodeValue(s[i:])
		if err != nil {
			return nil, fmt.Errorf("polyline.Decode: latitude at offset %d: %w", i, err)
		}
		i += n

		dlng, n, err := decodeValue(s[i:])
		if err != nil {
			return nil, fmt.Errorf("polyline.Decode: longitude at offset %d: %w", i, err)
		}
		i += n

		lat += dlat
		lng += dlng
		points = append(points, domain.LatLng{
			Lat: float64(lat) / factor,
			Lng: float64(lng) / factor,
		})
	}
	return points, nil
}

// Encode converts a coordinate sequence into an encoded polyline.
func Encode(points []domain.LatLng) string {
	buf := make([]byte, 0, len(points)*8)
	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p.Lat * factor))
		lng := int64(math.Round(p.Lng * factor))
		buf = encodeValue(buf, lat-prevLat)
		buf = encodeValue(buf, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return string(buf)
}

// decodeValue reads one zig-zag value and reports how many bytes it consumed.
func decodeValue(s string) (int64, int, error) {
	var result int64
	var shift uint
	for i := 0; i < len(s); i++ {
		b := int64(s[i]) - bias
		if b < 0 || b > 63 {
			return 0, 0, fmt.Errorf("%w: byte %q out of range", ErrMalformed, s[i])
		}
		result |= (b & mask) << shift
		if b < more {
			if result&1 != 0 {
				return ^(result >> 1), i + 1, nil
			}
			return result >> 1, i + 1, nil
		}
		shift += 5
		if shift >= 60 {
			return 0, 0, fmt.Errorf("%w: value too long", ErrMalformed)
		}
	}
	return 0, 0, fmt.Errorf("%w: truncated value", ErrMalformed)
}

func encodeValue(buf []byte, v int64) []byte {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= more {
		buf = append(buf, byte((more|(u&mask))+bias))
		u >>= 5
	}
	return append(buf, byte(u+bias))
}
