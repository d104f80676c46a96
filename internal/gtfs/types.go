package gtfs

import "time"

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Stop is one entry of an ordered stop sequence. Times are "HH:MM" 24-hour
// strings, empty when unknown. Stops are values; nothing mutates them after
// construction.
type Stop struct {
	StopNumber        int        `json:"stopNumber" yaml:"stop_number"`
	Coordinates       Coordinate `json:"coordinates" yaml:"coordinates"`
	ExpectedArrival   string     `json:"expectedArrival,omitempty" yaml:"expected_arrival,omitempty"`
	ExpectedDeparture string     `json:"expectedDeparture,omitempty" yaml:"expected_departure,omitempty"`
	WaitTime          float64    `json:"waitTime,omitempty" yaml:"wait_time,omitempty"` // minutes, 0 if missing
	ActualArrival     string     `json:"actualArrival,omitempty" yaml:"actual_arrival,omitempty"`
	ActualDeparture   string     `json:"actualDeparture,omitempty" yaml:"actual_departure,omitempty"`
	Skipped           bool       `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Resolved reports whether the stop already has an observed arrival that
// collapses its window to a point.
func (s Stop) Resolved() bool {
	return s.ActualArrival != "" && !s.Skipped
}

type Trip struct {
	TripID    string
	RouteID   string
	ServiceID string
}

type ActiveTrip struct {
	Trip
	StartTime time.Time // absolute time (service day, local TZ)
	EndTime   time.Time // absolute time
}

type StopTime struct {
	StopSequence int
	ArrivalSec   int // seconds since midnight (can exceed 24h)
	DepartureSec int // seconds since midnight (can exceed 24h)
	StopID       string
	StopLat      float64
	StopLon      float64
}

// Coordinates returns the stop_time's stop position.
func (st StopTime) Coordinates() Coordinate {
	return Coordinate{Lat: st.StopLat, Lon: st.StopLon}
}
