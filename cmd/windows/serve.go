package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"arrival-windows/internal/config"
	"arrival-windows/internal/db"
	"arrival-windows/internal/metrics"
	"arrival-windows/internal/publisher"
	"arrival-windows/internal/tracker"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "track active trips from a GTFS database and publish their windows to NATS",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Database(); err != nil {
				return err
			}
			return serve(c.Context, cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sqlDB, dbName, err := db.OpenForCity(ctx, cfg.DatabaseURL, cfg.City)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	log.Info().Str("database", dbName).Str("city", cfg.City).Msg("connected to gtfs database")

	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.SpeedKmh, cfg.PublishInterval, cfg.TripsRefreshInterval)
		srv := mcol.Serve(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, publisherMetrics(mcol))
	if err != nil {
		return err
	}
	defer pub.Close()

	params := tracker.Params{
		SpeedKmh:     cfg.SpeedKmh,
		StdDevTravel: cfg.StdDevTravel,
		StdDevWait:   cfg.StdDevWait,
		Correlation:  cfg.Correlation,
	}
	mgr := tracker.NewManager(sqlDB, pub, params, cfg.PublishInterval, cfg.TripsRefreshInterval, cfg.Location, mcol)

	now := time.Now().In(cfg.Location)
	trips, err := db.FetchActiveTrips(ctx, sqlDB, now)
	if err != nil {
		return err
	}
	if len(trips) == 0 {
		log.Info().Str("date", now.Format("2006-01-02")).Msg("no active trips")
	}
	mgr.Start(ctx, trips)
	mgr.StartRefresher(ctx)

	<-ctx.Done()
	mgr.Stop()
	log.Info().Msg("shutdown complete")
	return nil
}

// publisherMetrics avoids handing the publisher a typed nil.
func publisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return c
}
