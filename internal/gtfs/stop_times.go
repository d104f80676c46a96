package gtfs

import "arrival-windows/internal/timecodec"

// ScheduledStop converts a stop_time into a Stop carrying its scheduled
// times. Dwell is the gap between scheduled departure and arrival.
func (st StopTime) ScheduledStop() Stop {
	s := Stop{StopNumber: st.StopSequence, Coordinates: st.Coordinates()}
	if st.ArrivalSec > 0 {
		s.ExpectedArrival = timecodec.Format24h(st.ArrivalSec / 60)
	}
	if st.DepartureSec > 0 {
		s.ExpectedDeparture = timecodec.Format24h(st.DepartureSec / 60)
	}
	if st.ArrivalSec > 0 && st.DepartureSec > st.ArrivalSec {
		s.WaitTime = float64(st.DepartureSec-st.ArrivalSec) / 60
	}
	return s
}
