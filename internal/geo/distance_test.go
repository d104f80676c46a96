package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrival-windows/internal/gtfs"
)

var (
	manhattan = gtfs.Coordinate{Lat: 40.7128, Lon: -74.0060}
	seattle   = gtfs.Coordinate{Lat: 47.6062, Lon: -122.3321}
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name      string
		a, b      gtfs.Coordinate
		expected  float64
		tolerance float64
	}{
		{"same point", manhattan, manhattan, 0, 1e-12},
		{"one block", manhattan, gtfs.Coordinate{Lat: 40.7138, Lon: -74.0070}, 0.1395, 0.001},
		{"cross country", manhattan, seattle, 3866, 10},
		{"quarter meridian", gtfs.Coordinate{}, gtfs.Coordinate{Lat: 90}, math.Pi / 2 * EarthRadiusKm, 1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceKm(tt.a, tt.b), tt.tolerance)
		})
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	assert.InDelta(t, DistanceKm(manhattan, seattle), DistanceKm(seattle, manhattan), 1e-9)
}

func TestTravelMinutes(t *testing.T) {
	got, err := TravelMinutes(15, 30)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, got, 1e-9)

	for _, speed := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := TravelMinutes(1, speed)
		assert.ErrorIs(t, err, ErrSpeed)
	}
}

func TestInterpolate(t *testing.T) {
	mid := Interpolate(gtfs.Coordinate{Lat: 0, Lon: 0}, gtfs.Coordinate{Lat: 2, Lon: 4}, 0.5)
	assert.InDelta(t, 1.0, mid.Lat, 1e-12)
	assert.InDelta(t, 2.0, mid.Lon, 1e-12)
	assert.Equal(t, manhattan, Interpolate(manhattan, seattle, -1))
	assert.Equal(t, seattle, Interpolate(manhattan, seattle, 2))
}
