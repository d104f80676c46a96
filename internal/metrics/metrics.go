package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"arrival-windows/internal/predict"
	"arrival-windows/internal/timecodec"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveTrips   prometheus.Gauge
	TripsStarted  prometheus.Counter
	TripsFinished prometheus.Counter

	Predictions      prometheus.Counter
	PredictionErrors *prometheus.CounterVec // reason label: configuration|format|other
	Windows          *prometheus.CounterVec // kind label: resolved|normal|skipped
	PredictDuration  prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	SpeedKmh        prometheus.Gauge
	PublishInterval prometheus.Gauge // seconds
	RefreshInterval prometheus.Gauge // seconds
}

func NewCollector(speedKmh float64, publishInterval, refreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "windows_active_trips",
			Help: "Number of trips currently tracked.",
		}),
		TripsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "windows_trips_started_total",
			Help: "Total trips whose tracking started.",
		}),
		TripsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "windows_trips_finished_total",
			Help: "Total trips whose tracking finished.",
		}),
		Predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "windows_predictions_total",
			Help: "Total prediction passes run.",
		}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "windows_prediction_errors_total",
			Help: "Prediction passes rejected, by reason.",
		}, []string{"reason"}),
		Windows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "windows_arrival_windows_total",
			Help: "Arrival windows produced, by kind.",
		}, []string{"kind"}),
		PredictDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "windows_predict_duration_seconds",
			Help:    "Duration of one prediction pass.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "windows_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "windows_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "windows_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "windows_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		SpeedKmh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "windows_speed_kmh",
			Help: "Assumed vehicle speed in km/h.",
		}),
		PublishInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "windows_publish_interval_seconds",
			Help: "Publish interval in seconds.",
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "windows_refresh_interval_seconds",
			Help: "Trips refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.ActiveTrips, c.TripsStarted, c.TripsFinished,
		c.Predictions, c.PredictionErrors, c.Windows, c.PredictDuration,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.SpeedKmh, c.PublishInterval, c.RefreshInterval,
	)

	c.SpeedKmh.Set(speedKmh)
	c.PublishInterval.Set(publishInterval.Seconds())
	c.RefreshInterval.Set(refreshInterval.Seconds())

	return c
}

// ObservePrediction records the outcome of one predict.Predict call.
func (c *Collector) ObservePrediction(windows []predict.Window, err error, d time.Duration) {
	c.Predictions.Inc()
	c.PredictDuration.Observe(d.Seconds())
	if err != nil {
		c.PredictionErrors.WithLabelValues(errorReason(err)).Inc()
		return
	}
	for _, w := range windows {
		c.Windows.WithLabelValues(w.Kind.String()).Inc()
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, predict.ErrConfiguration):
		return "configuration"
	case errors.Is(err, timecodec.ErrFormat):
		return "format"
	}
	return "other"
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics listening")
	return srv
}

// NATSPublishedInc and the methods below satisfy publisher.PublisherMetrics.
func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) NATSSetConnected(b bool) {
	if b {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}
