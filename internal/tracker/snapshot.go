package tracker

import (
	"time"

	"arrival-windows/internal/geo"
	"arrival-windows/internal/gtfs"
	"arrival-windows/internal/predict"
	"arrival-windows/internal/timecodec"
	"arrival-windows/internal/variance"
)

// Params are the prediction inputs shared by every tracked trip.
type Params struct {
	SpeedKmh     float64
	StdDevTravel float64 // minutes
	StdDevWait   float64 // minutes
	Correlation  float64
}

// Snapshot is a trip's simulated state at one instant.
type Snapshot struct {
	Vehicle  gtfs.Coordinate
	Stops    []gtfs.Stop
	Finished bool
}

// TakeSnapshot places the vehicle on the straight line between the stops it
// is scheduled to be travelling between at now, and marks every stop whose
// scheduled arrival has passed as resolved. The first stop stays the origin
// marker. serviceDay is the midnight the stop_time offsets count from.
func TakeSnapshot(sts []gtfs.StopTime, serviceDay, now time.Time) Snapshot {
	n := len(sts)
	if n == 0 {
		return Snapshot{Finished: true}
	}
	nowSec := int(now.Sub(serviceDay) / time.Second)

	snap := Snapshot{Stops: make([]gtfs.Stop, n)}
	for i, st := range sts {
		s := st.ScheduledStop()
		if i > 0 {
			if a := arrivalSec(st); a > 0 && a <= nowSec {
				s.ActualArrival = timecodec.Format24h(a / 60)
				if d := departureSec(st); d > 0 && d <= nowSec {
					s.ActualDeparture = timecodec.Format24h(d / 60)
				}
			}
		}
		snap.Stops[i] = s
	}

	last := sts[n-1]
	switch {
	case nowSec <= departureSec(sts[0]):
		snap.Vehicle = sts[0].Coordinates()
	case nowSec >= arrivalSec(last):
		snap.Vehicle = last.Coordinates()
		snap.Finished = true
	default:
		snap.Vehicle = position(sts, nowSec)
	}
	return snap
}

func position(sts []gtfs.StopTime, nowSec int) gtfs.Coordinate {
	for i := 0; i+1 < len(sts); i++ {
		from, to := sts[i], sts[i+1]
		if nowSec >= arrivalSec(to) {
			continue
		}
		dep := departureSec(from)
		if nowSec <= dep {
			// dwelling at from
			return from.Coordinates()
		}
		span := arrivalSec(to) - dep
		if span <= 0 {
			return to.Coordinates()
		}
		return geo.Interpolate(from.Coordinates(), to.Coordinates(), float64(nowSec-dep)/float64(span))
	}
	return sts[len(sts)-1].Coordinates()
}

func arrivalSec(st gtfs.StopTime) int {
	if st.ArrivalSec > 0 {
		return st.ArrivalSec
	}
	return st.DepartureSec
}

func departureSec(st gtfs.StopTime) int {
	if st.DepartureSec > 0 {
		return st.DepartureSec
	}
	return st.ArrivalSec
}

// Request builds the prediction request for a snapshot taken at now.
func (p Params) Request(snap Snapshot, now time.Time) predict.Request {
	req := predict.NewRequest(snap.Vehicle, snap.Stops, now.Format("15:04"), p.SpeedKmh)
	req.StdDevTravel = p.StdDevTravel
	req.StdDevWait = p.StdDevWait
	if p.Correlation != 0 {
		req.Correlation = variance.Unit(p.Correlation)
	}
	return req
}
