package predict

import "arrival-windows/internal/gtfs"

// SampleRequest returns a four-stop Lower Manhattan route: the origin, a
// skipped stop, a stop with a recorded arrival, and one ordinary stop.
// Deviations are half an hour each. A fresh value is built on every call.
func SampleRequest() Request {
	stops := []gtfs.Stop{
		{StopNumber: 0, Coordinates: gtfs.Coordinate{Lat: 40.7128, Lon: -74.0060}, ExpectedDeparture: "08:00"},
		{StopNumber: 1, Coordinates: gtfs.Coordinate{Lat: 40.7138, Lon: -74.0070}, ExpectedArrival: "08:30", ExpectedDeparture: "08:35", WaitTime: 5, Skipped: true},
		{StopNumber: 2, Coordinates: gtfs.Coordinate{Lat: 40.7148, Lon: -74.0080}, ExpectedArrival: "09:10", ExpectedDeparture: "09:15", WaitTime: 5, ActualArrival: "09:10", ActualDeparture: "09:15"},
		{StopNumber: 3, Coordinates: gtfs.Coordinate{Lat: 40.7158, Lon: -74.0090}, ExpectedArrival: "09:50"},
	}
	req := NewRequest(gtfs.Coordinate{Lat: 40.7128, Lon: -74.0060}, stops, "08:45", 30)
	req.StdDevTravel = 0.5 * 60
	req.StdDevWait = 0.5 * 60
	return req
}
