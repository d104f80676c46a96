// Package predict computes arrival-time confidence windows for the stops
// ahead of a vehicle.
//
// Every stop is measured straight-line from the vehicle's current position.
// Uncertainty grows stop by stop: each unresolved stop folds one leg of
// travel and wait variance into a running total, and its window is the
// expected arrival plus or minus one standard deviation of that total.
// Stops with an observed arrival are echoed as a point and do not add to the
// running variance, so stops after them carry one leg less of uncertainty.
package predict

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"arrival-windows/internal/geo"
	"arrival-windows/internal/gtfs"
	"arrival-windows/internal/timecodec"
	"arrival-windows/internal/variance"
)

// DefaultStdDev is the travel and wait deviation used by NewRequest.
const DefaultStdDev = 0.5

// ErrConfiguration is returned for unusable speeds, deviations or
// correlation matrices.
var ErrConfiguration = errors.New("invalid prediction configuration")

// Request holds the inputs of one prediction pass. Stops[0] is the origin
// marker and gets no window.
type Request struct {
	Vehicle      gtfs.Coordinate
	Stops        []gtfs.Stop
	CurrentTime  string     // "HH:MM"
	SpeedKmh     float64    // must be > 0
	StdDevTravel float64    // minutes
	StdDevWait   float64    // minutes
	Correlation  mat.Matrix // nil means identity
}

// NewRequest returns a Request with default deviations and no correlation.
func NewRequest(vehicle gtfs.Coordinate, stops []gtfs.Stop, currentTime string, speedKmh float64) Request {
	return Request{
		Vehicle:      vehicle,
		Stops:        stops,
		CurrentTime:  currentTime,
		SpeedKmh:     speedKmh,
		StdDevTravel: DefaultStdDev,
		StdDevWait:   DefaultStdDev,
	}
}

// Predict returns one Window per stop after the first, in route order. A
// sequence of fewer than two stops yields an empty result. On error no
// windows are returned.
func Predict(req Request) ([]Window, error) {
	corr, err := validate(req)
	if err != nil {
		return nil, err
	}
	now, err := timecodec.ParseTime(req.CurrentTime)
	if err != nil {
		return nil, fmt.Errorf("current time: %w", err)
	}
	if err := validateStopTimes(req.Stops); err != nil {
		return nil, err
	}
	if len(req.Stops) < 2 {
		return []Window{}, nil
	}

	p := pass{
		req:     req,
		now:     float64(now),
		acc:     variance.NewAccumulator(corr),
		vTravel: req.StdDevTravel * req.StdDevTravel,
		vWait:   req.StdDevWait * req.StdDevWait,
	}
	windows := make([]Window, 0, len(req.Stops)-1)
	for i := 1; i < len(req.Stops); i++ {
		windows = append(windows, p.stop(i))
	}
	return windows, nil
}

type pass struct {
	req            Request
	now            float64
	acc            *variance.Accumulator
	vTravel, vWait float64
}

func (p *pass) stop(i int) Window {
	s := p.req.Stops[i]
	w := Window{StopNumber: s.StopNumber}

	if s.Resolved() {
		// validated up front
		t, _ := timecodec.ParseTime(s.ActualArrival)
		w.Kind = KindResolved
		w.Range = Range{Min: s.ActualArrival, Max: s.ActualArrival, MinMinutes: t, MaxMinutes: t}
		return w
	}

	travel := p.travelMinutes(s.Coordinates)
	p.acc.Add(p.vTravel, p.vWait)
	sd := p.acc.StdDev()
	cont := arrivalRange(p.now, travel, s.WaitTime, sd)

	if !s.Skipped {
		w.Kind = KindNormal
		w.Range = cont
		return w
	}

	// The vehicle is assumed to reach the next stop first and then detour
	// back, so the return window is anchored at the next stop's arrival.
	w.Kind = KindSkipped
	w.Continue = cont
	w.Return = notAvailable()
	if i+1 < len(p.req.Stops) {
		toNext := p.travelMinutes(p.req.Stops[i+1].Coordinates)
		w.Return = arrivalRange(p.now+toNext, travel, s.WaitTime, sd)
	}
	return w
}

func (p *pass) travelMinutes(to gtfs.Coordinate) float64 {
	// speed validated up front
	m, _ := geo.TravelMinutes(geo.DistanceKm(p.req.Vehicle, to), p.req.SpeedKmh)
	return m
}

// arrivalRange is expected ± sd with both bounds truncated to whole minutes.
func arrivalRange(start, travel, wait, sd float64) Range {
	expected := start + travel + wait
	return newRange(int(expected-sd), int(expected+sd))
}

func validate(req Request) (variance.CorrelationMatrix, error) {
	if !(req.SpeedKmh > 0) || math.IsInf(req.SpeedKmh, 1) {
		return variance.CorrelationMatrix{}, fmt.Errorf("%w: speed %v km/h: %w", ErrConfiguration, req.SpeedKmh, geo.ErrSpeed)
	}
	deviations := []struct {
		name string
		sd   float64
	}{{"travel", req.StdDevTravel}, {"wait", req.StdDevWait}}
	for _, d := range deviations {
		if !(d.sd >= 0) || math.IsInf(d.sd, 1) {
			return variance.CorrelationMatrix{}, fmt.Errorf("%w: %s deviation %v must be a non-negative number", ErrConfiguration, d.name, d.sd)
		}
	}
	corr, err := variance.NewCorrelationMatrix(req.Correlation)
	if err != nil {
		return variance.CorrelationMatrix{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return corr, nil
}

func validateStopTimes(stops []gtfs.Stop) error {
	for _, s := range stops {
		fields := []struct{ name, value string }{
			{"expected_arrival", s.ExpectedArrival},
			{"expected_departure", s.ExpectedDeparture},
			{"actual_arrival", s.ActualArrival},
			{"actual_departure", s.ActualDeparture},
		}
		for _, f := range fields {
			if f.value == "" {
				continue
			}
			if _, err := timecodec.ParseTime(f.value); err != nil {
				return fmt.Errorf("stop %d %s: %w", s.StopNumber, f.name, err)
			}
		}
		if s.WaitTime < 0 || math.IsNaN(s.WaitTime) || math.IsInf(s.WaitTime, 0) {
			return fmt.Errorf("%w: stop %d wait time %v", ErrConfiguration, s.StopNumber, s.WaitTime)
		}
	}
	return nil
}
