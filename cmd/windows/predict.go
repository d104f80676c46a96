package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"arrival-windows/internal/config"
	"arrival-windows/internal/predict"
	"arrival-windows/internal/report"
	"arrival-windows/internal/stopfile"
	"arrival-windows/internal/variance"
)

var jsonFlag = &cli.BoolFlag{Name: "json", Usage: "print windows as JSON instead of a table"}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "predict windows for the bundled four-stop sample route",
		Flags: []cli.Flag{jsonFlag},
		Action: func(c *cli.Context) error {
			return run(c, predict.SampleRequest())
		},
	}
}

func predictCommand() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "predict windows for a stop sequence read from a YAML or CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "request `FILE` (.yaml, .yml or .csv)", Required: true},
			&cli.StringFlag{Name: "time", Usage: "current time as HH:MM"},
			&cli.Float64Flag{Name: "lat", Usage: "vehicle latitude"},
			&cli.Float64Flag{Name: "lon", Usage: "vehicle longitude"},
			&cli.Float64Flag{Name: "speed", Usage: "vehicle speed in km/h"},
			&cli.Float64Flag{Name: "std-travel", Usage: "travel time standard deviation in minutes"},
			&cli.Float64Flag{Name: "std-wait", Usage: "wait time standard deviation in minutes"},
			&cli.Float64Flag{Name: "correlation", Usage: "correlation between a new leg and the accumulated variance"},
			jsonFlag,
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			doc, err := stopfile.Load(c.String("file"))
			if err != nil {
				return err
			}
			return run(c, buildRequest(c, cfg, doc))
		},
	}
}

// buildRequest layers the request: environment defaults, then the file, then
// flags.
func buildRequest(c *cli.Context, cfg *config.Config, doc stopfile.Document) predict.Request {
	req := doc.Request()
	if doc.SpeedKmh == nil {
		req.SpeedKmh = cfg.SpeedKmh
	}
	if doc.StdDevTravel == nil {
		req.StdDevTravel = cfg.StdDevTravel
	}
	if doc.StdDevWait == nil {
		req.StdDevWait = cfg.StdDevWait
	}
	if doc.Correlation == nil && cfg.Correlation != 0 {
		req.Correlation = variance.Unit(cfg.Correlation)
	}

	if c.IsSet("time") {
		req.CurrentTime = c.String("time")
	}
	if c.IsSet("lat") {
		req.Vehicle.Lat = c.Float64("lat")
	}
	if c.IsSet("lon") {
		req.Vehicle.Lon = c.Float64("lon")
	}
	if c.IsSet("speed") {
		req.SpeedKmh = c.Float64("speed")
	}
	if c.IsSet("std-travel") {
		req.StdDevTravel = c.Float64("std-travel")
	}
	if c.IsSet("std-wait") {
		req.StdDevWait = c.Float64("std-wait")
	}
	if c.IsSet("correlation") {
		req.Correlation = variance.Unit(c.Float64("correlation"))
	}
	return req
}

func run(c *cli.Context, req predict.Request) error {
	windows, err := predict.Predict(req)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	log.Debug().Int("stops", len(req.Stops)).Int("windows", len(windows)).Str("current_time", req.CurrentTime).Msg("predicted")
	if c.Bool("json") {
		return report.WriteJSON(c.App.Writer, windows)
	}
	return report.WriteTable(c.App.Writer, windows)
}
