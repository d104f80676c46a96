package tracker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrival-windows/internal/gtfs"
	"arrival-windows/internal/metrics"
	"arrival-windows/internal/predict"
	"arrival-windows/internal/publisher"
)

var serviceDay = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return serviceDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

func hm(h, m int) int { return h*3600 + m*60 }

func testTrip() []gtfs.StopTime {
	return []gtfs.StopTime{
		{StopSequence: 1, DepartureSec: hm(8, 0), StopID: "A", StopLat: 0, StopLon: 0},
		{StopSequence: 2, ArrivalSec: hm(8, 10), DepartureSec: hm(8, 12), StopID: "B", StopLat: 0, StopLon: 0.1},
		{StopSequence: 3, ArrivalSec: hm(8, 30), StopID: "C", StopLat: 0, StopLon: 0.2},
	}
}

func TestTakeSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		lon      float64
		resolved []bool
		finished bool
	}{
		{"before departure", at(7, 55), 0, []bool{false, false, false}, false},
		{"halfway to B", at(8, 5), 0.05, []bool{false, false, false}, false},
		{"dwelling at B", at(8, 11), 0.1, []bool{false, true, false}, false},
		{"halfway to C", at(8, 21), 0.15, []bool{false, true, false}, false},
		{"arrived", at(8, 30), 0.2, []bool{false, true, true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := TakeSnapshot(testTrip(), serviceDay, tt.now)
			assert.Equal(t, tt.finished, snap.Finished)
			assert.InDelta(t, tt.lon, snap.Vehicle.Lon, 1e-9)
			require.Len(t, snap.Stops, 3)
			for i, want := range tt.resolved {
				assert.Equal(t, want, snap.Stops[i].Resolved(), "stop %d", i)
			}
		})
	}
}

func TestTakeSnapshotRecordsDeparture(t *testing.T) {
	snap := TakeSnapshot(testTrip(), serviceDay, at(8, 11))
	assert.Equal(t, "08:10", snap.Stops[1].ActualArrival)
	assert.Empty(t, snap.Stops[1].ActualDeparture)
	assert.Equal(t, 2.0, snap.Stops[1].WaitTime)

	snap = TakeSnapshot(testTrip(), serviceDay, at(8, 13))
	assert.Equal(t, "08:12", snap.Stops[1].ActualDeparture)
}

func TestTakeSnapshotEmpty(t *testing.T) {
	assert.True(t, TakeSnapshot(nil, serviceDay, at(8, 0)).Finished)
}

func TestParamsRequest(t *testing.T) {
	p := Params{SpeedKmh: 25, StdDevTravel: 1, StdDevWait: 2, Correlation: 0.3}
	req := p.Request(TakeSnapshot(testTrip(), serviceDay, at(8, 5)), at(8, 5))
	assert.Equal(t, "08:05", req.CurrentTime)
	assert.Equal(t, 25.0, req.SpeedKmh)
	assert.Equal(t, 2.0, req.StdDevWait)
	require.NotNil(t, req.Correlation)
	assert.Equal(t, 0.3, req.Correlation.At(0, 1))

	p.Correlation = 0
	assert.Nil(t, p.Request(Snapshot{}, at(8, 5)).Correlation)
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []publisher.WindowsMessage
	err  error
}

func (f *fakePublisher) PublishWindows(msg publisher.WindowsMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

func TestManagerTick(t *testing.T) {
	pub := &fakePublisher{}
	col := metrics.NewCollector(30, time.Second, time.Minute)
	m := NewManager(nil, pub, Params{SpeedKmh: 30, StdDevTravel: 0.5, StdDevWait: 0.5}, time.Second, time.Minute, time.UTC, col)
	trip := gtfs.ActiveTrip{Trip: gtfs.Trip{TripID: "t1", RouteID: "r1"}, StartTime: at(8, 0), EndTime: at(8, 30)}

	assert.False(t, m.tick(trip, testTrip(), serviceDay, at(8, 5)))
	assert.False(t, m.tick(trip, testTrip(), serviceDay, at(8, 11)))
	assert.True(t, m.tick(trip, testTrip(), serviceDay, at(8, 30)))

	require.Len(t, pub.msgs, 2)
	first := pub.msgs[0]
	assert.Equal(t, "t1", first.TripID)
	assert.Equal(t, "r1", first.RouteID)
	assert.Equal(t, "08:05", first.CurrentTime)
	require.Len(t, first.Windows, 2)
	assert.Equal(t, predict.KindNormal, first.Windows[0].Kind)
	assert.Equal(t, 2, first.Windows[0].StopNumber)

	second := pub.msgs[1]
	assert.Equal(t, predict.KindResolved, second.Windows[0].Kind)
	assert.Equal(t, "08:10", second.Windows[0].Range.Min)
	assert.Equal(t, predict.KindNormal, second.Windows[1].Kind)

	assert.Equal(t, 2.0, testutil.ToFloat64(col.Predictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(col.Windows.WithLabelValues("resolved")))
}

func TestManagerTickSurvivesPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats down")}
	m := NewManager(nil, pub, Params{SpeedKmh: 30}, time.Second, time.Minute, time.UTC, nil)
	trip := gtfs.ActiveTrip{Trip: gtfs.Trip{TripID: "t1"}}
	assert.False(t, m.tick(trip, testTrip(), serviceDay, at(8, 5)))
	assert.Len(t, pub.msgs, 1)
}

func TestManagerTickRejectedPrediction(t *testing.T) {
	pub := &fakePublisher{}
	col := metrics.NewCollector(0, time.Second, time.Minute)
	m := NewManager(nil, pub, Params{SpeedKmh: 0}, time.Second, time.Minute, time.UTC, col)
	assert.False(t, m.tick(gtfs.ActiveTrip{}, testTrip(), serviceDay, at(8, 5)))
	assert.Empty(t, pub.msgs)
	assert.Equal(t, 1.0, testutil.ToFloat64(col.PredictionErrors.WithLabelValues("configuration")))
}

func TestManagerStartSkipsInactiveTrips(t *testing.T) {
	m := NewManager(nil, &fakePublisher{}, Params{SpeedKmh: 30}, time.Second, time.Minute, time.UTC, nil)
	past := time.Now().Add(-2 * time.Hour)
	future := time.Now().Add(2 * time.Hour)
	m.Start(t.Context(), []gtfs.ActiveTrip{
		{Trip: gtfs.Trip{TripID: "done"}, StartTime: past, EndTime: past.Add(time.Hour)},
		{Trip: gtfs.Trip{TripID: "later"}, StartTime: future, EndTime: future.Add(time.Hour)},
	})
	assert.Equal(t, 0, m.Running())
	m.Stop()
}
