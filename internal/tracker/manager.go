package tracker

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"arrival-windows/internal/db"
	"arrival-windows/internal/gtfs"
	mmetrics "arrival-windows/internal/metrics"
	"arrival-windows/internal/predict"
	"arrival-windows/internal/publisher"
)

// Publisher receives the windows computed on every tick.
type Publisher interface {
	PublishWindows(msg publisher.WindowsMessage) error
}

// Manager runs one goroutine per active trip, re-predicting and publishing
// its arrival windows every publish interval.
type Manager struct {
	db              *sql.DB
	pub             Publisher
	params          Params
	publishInterval time.Duration
	refreshInterval time.Duration
	tz              *time.Location
	metrics         *mmetrics.Collector

	mu      sync.Mutex
	running map[string]context.CancelFunc // tripID -> cancel
	wg      sync.WaitGroup

	refreshCancel context.CancelFunc
	refreshWG     sync.WaitGroup
}

func NewManager(dbConn *sql.DB, pub Publisher, params Params, publishInterval, refreshInterval time.Duration, tz *time.Location, metrics *mmetrics.Collector) *Manager {
	return &Manager{
		db:              dbConn,
		pub:             pub,
		params:          params,
		publishInterval: publishInterval,
		refreshInterval: refreshInterval,
		tz:              tz,
		metrics:         metrics,
		running:         make(map[string]context.CancelFunc),
	}
}

// Start begins tracking the trips running now.
func (m *Manager) Start(ctx context.Context, trips []gtfs.ActiveTrip) {
	now := time.Now().In(m.tz)
	for _, t := range trips {
		if now.Before(t.StartTime) || now.After(t.EndTime) {
			continue
		}
		m.startTrip(ctx, t)
	}
}

func (m *Manager) startTrip(parent context.Context, t gtfs.ActiveTrip) {
	m.mu.Lock()
	if _, exists := m.running[t.TripID]; exists {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.running[t.TripID] = cancel
	m.wg.Add(1)
	if m.metrics != nil {
		m.metrics.TripsStarted.Inc()
		m.metrics.ActiveTrips.Set(float64(len(m.running)))
	}
	m.mu.Unlock()

	log.Info().Str("trip", t.TripID).Str("route", t.RouteID).Time("start", t.StartTime).Msg("tracking trip")
	go func() {
		defer m.wg.Done()
		if err := m.runTrip(ctx, t); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("trip", t.TripID).Msg("trip tracking failed")
		}
		m.mu.Lock()
		delete(m.running, t.TripID)
		if m.metrics != nil {
			m.metrics.TripsFinished.Inc()
			m.metrics.ActiveTrips.Set(float64(len(m.running)))
		}
		m.mu.Unlock()
	}()
}

func (m *Manager) runTrip(ctx context.Context, t gtfs.ActiveTrip) error {
	sts, err := db.FetchTripStops(ctx, m.db, t.TripID)
	if err != nil {
		return err
	}
	if len(sts) < 2 {
		log.Debug().Str("trip", t.TripID).Int("stops", len(sts)).Msg("nothing to predict")
		return nil
	}
	serviceDay := db.Midnight(t.StartTime)

	tick := time.NewTicker(m.publishInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-tick.C:
			if finished := m.tick(t, sts, serviceDay, now.In(m.tz)); finished {
				log.Info().Str("trip", t.TripID).Msg("trip finished")
				return nil
			}
		}
	}
}

// tick predicts and publishes one update and reports whether the trip has
// reached its last stop.
func (m *Manager) tick(t gtfs.ActiveTrip, sts []gtfs.StopTime, serviceDay, now time.Time) bool {
	snap := TakeSnapshot(sts, serviceDay, now)
	if snap.Finished {
		return true
	}
	req := m.params.Request(snap, now)

	start := time.Now()
	windows, err := predict.Predict(req)
	if m.metrics != nil {
		m.metrics.ObservePrediction(windows, err, time.Since(start))
	}
	if err != nil {
		log.Warn().Err(err).Str("trip", t.TripID).Msg("prediction rejected")
		return false
	}

	msg := publisher.WindowsMessage{
		TripID:      t.TripID,
		RouteID:     t.RouteID,
		Timestamp:   now,
		Vehicle:     snap.Vehicle,
		CurrentTime: req.CurrentTime,
		Windows:     windows,
	}
	if err := m.pub.PublishWindows(msg); err != nil {
		log.Warn().Err(err).Str("trip", t.TripID).Msg("publish failed")
	}
	return false
}

func (m *Manager) Stop() {
	if m.refreshCancel != nil {
		m.refreshCancel()
	}
	m.refreshWG.Wait()
	m.mu.Lock()
	for _, cancel := range m.running {
		cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// StartRefresher periodically starts tracking trips that became active.
func (m *Manager) StartRefresher(parent context.Context) {
	if m.refreshInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.refreshCancel = cancel
	m.refreshWG.Add(1)
	go func() {
		defer m.refreshWG.Done()
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.RefreshActive(ctx); err != nil {
					log.Error().Err(err).Msg("refresh active trips")
				}
			}
		}
	}()
}

// RefreshActive starts every currently running trip not yet tracked.
func (m *Manager) RefreshActive(ctx context.Context) error {
	trips, err := db.FetchActiveTrips(ctx, m.db, time.Now().In(m.tz))
	if err != nil {
		return err
	}
	m.Start(ctx, trips)
	return nil
}

// Running returns the number of trips currently tracked.
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.running)
}
