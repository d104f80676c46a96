// Package stopfile loads prediction requests from YAML documents or CSV stop
// lists.
package stopfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"arrival-windows/internal/gtfs"
	"arrival-windows/internal/predict"
	"arrival-windows/internal/variance"
)

// Document is the file form of a prediction request. Nil deviations fall
// back to predict.DefaultStdDev; a nil correlation means none. A nil speed
// leaves the request speed at 0 for the caller to fill in.
type Document struct {
	Vehicle      *gtfs.Coordinate `yaml:"vehicle"`
	CurrentTime  string           `yaml:"current_time"`
	SpeedKmh     *float64         `yaml:"speed_kmh"`
	StdDevTravel *float64         `yaml:"std_dev_travel"`
	StdDevWait   *float64         `yaml:"std_dev_wait"`
	Correlation  *float64         `yaml:"correlation"`
	Stops        []gtfs.Stop      `yaml:"stops"`
}

// Request converts the document. Without a vehicle position the vehicle is
// placed at the origin stop.
func (d Document) Request() predict.Request {
	var vehicle gtfs.Coordinate
	switch {
	case d.Vehicle != nil:
		vehicle = *d.Vehicle
	case len(d.Stops) > 0:
		vehicle = d.Stops[0].Coordinates
	}
	req := predict.NewRequest(vehicle, d.Stops, d.CurrentTime, 0)
	if d.SpeedKmh != nil {
		req.SpeedKmh = *d.SpeedKmh
	}
	if d.StdDevTravel != nil {
		req.StdDevTravel = *d.StdDevTravel
	}
	if d.StdDevWait != nil {
		req.StdDevWait = *d.StdDevWait
	}
	if d.Correlation != nil {
		req.Correlation = variance.Unit(*d.Correlation)
	}
	return req
}

// Load reads a .yaml/.yml document or a .csv stop list.
func Load(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(f)
	case ".csv":
		stops, err := DecodeCSV(f)
		if err != nil {
			return Document{}, err
		}
		return Document{Stops: stops}, nil
	}
	return Document{}, fmt.Errorf("unsupported stop file %q: want .yaml, .yml or .csv", path)
}

func DecodeYAML(r io.Reader) (Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode yaml: %w", err)
	}
	return doc, nil
}

type csvStop struct {
	StopNumber        int     `csv:"stop_number"`
	Lat               float64 `csv:"lat"`
	Lon               float64 `csv:"lon"`
	ExpectedArrival   string  `csv:"expected_arrival"`
	ExpectedDeparture string  `csv:"expected_departure"`
	WaitTime          string  `csv:"wait_time"`
	ActualArrival     string  `csv:"actual_arrival"`
	ActualDeparture   string  `csv:"actual_departure"`
	Skipped           string  `csv:"skipped"`
}

// DecodeCSV reads a header-led stop list in route order.
func DecodeCSV(r io.Reader) ([]gtfs.Stop, error) {
	var rows []*csvStop
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	stops := make([]gtfs.Stop, 0, len(rows))
	for i, row := range rows {
		s := gtfs.Stop{
			StopNumber:        row.StopNumber,
			Coordinates:       gtfs.Coordinate{Lat: row.Lat, Lon: row.Lon},
			ExpectedArrival:   strings.TrimSpace(row.ExpectedArrival),
			ExpectedDeparture: strings.TrimSpace(row.ExpectedDeparture),
			ActualArrival:     strings.TrimSpace(row.ActualArrival),
			ActualDeparture:   strings.TrimSpace(row.ActualDeparture),
		}
		if v := strings.TrimSpace(row.WaitTime); v != "" {
			wait, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid wait_time %q", i+1, v)
			}
			s.WaitTime = wait
		}
		if v := strings.TrimSpace(row.Skipped); v != "" {
			skipped, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid skipped %q", i+1, v)
			}
			s.Skipped = skipped
		}
		stops = append(stops, s)
	}
	return stops, nil
}
