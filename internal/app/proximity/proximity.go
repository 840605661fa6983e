// Package proximity computes great-circle distances and filters records by distance from a point.
package proximity

import (
	"math"

	"github.com/placesapp/places-api/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used for all distances.
const EarthRadiusKm = 6371.0

// Nearby pairs a record with its distance from the reference point. The record itself is not modified.
type Nearby[T any] struct {
	Record     T
	DistanceKm float64
}

// DistanceKm returns the great-circle distance between a and b using the spherical law of cosines.
// The cosine is clamped to [-1, 1] so rounding at identical or antipodal points cannot yield NaN.
// Identical points are exactly 0 apart.
func DistanceKm(a, b domain.GeoPoint) float64 {
	if a == b {
		return 0
	}
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLon := radians(b.Lon - a.Lon)

	c := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Acos(clamp(c, -1, 1)) * EarthRadiusKm
}

// FilterNearby keeps the records whose distance from ref is at most maxKm (inclusive), in input order.
// maxKm = +Inf keeps everything; a negative or NaN maxKm keeps nothing.
func FilterNearby[T any](records []T, ref domain.GeoPoint, maxKm float64, pointOf func(T) domain.GeoPoint) []Nearby[T] {
	out := make([]Nearby[T], 0, len(records))
	for _, r := range records {
		d := DistanceKm(ref, pointOf(r))
		if d <= maxKm {
			out = append(out, Nearby[T]{Record: r, DistanceKm: d})
		}
	}
	return out
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
