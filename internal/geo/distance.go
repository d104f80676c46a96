// Package geo measures great-circle distances between stops and turns them
// into travel minutes.
package geo

import (
	"errors"
	"math"

	"arrival-windows/internal/gtfs"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// ErrSpeed is returned for non-positive or non-finite speeds.
var ErrSpeed = errors.New("speed must be positive")

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b gtfs.Coordinate) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// TravelMinutes converts a distance to minutes at speedKmh.
func TravelMinutes(distanceKm, speedKmh float64) (float64, error) {
	if !(speedKmh > 0) || math.IsInf(speedKmh, 1) {
		return 0, ErrSpeed
	}
	return distanceKm / speedKmh * 60, nil
}

// Interpolate returns the point a fraction frac of the way from a to b on a
// straight lat/lon line. frac is clamped to [0,1].
func Interpolate(a, b gtfs.Coordinate, frac float64) gtfs.Coordinate {
	if frac <= 0 {
		return a
	}
	if frac >= 1 {
		return b
	}
	return gtfs.Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*frac,
		Lon: a.Lon + (b.Lon-a.Lon)*frac,
	}
}
