// Package geo provides the geometric primitives used by zone classification:
// great-circle distance, point-in-polygon and segment intersection.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadius is the equatorial radius in meters used for every distance.
const EarthRadius = 6378137.0

// Distance returns the haversine distance in meters between a and b.
// Points are orb.Point values, i.e. [lon, lat].
func Distance(a, b orb.Point) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon() - a.Lon()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}
