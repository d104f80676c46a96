package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL          string
	City                 string
	NATSURL              string
	NATSSubjectPrefix    string
	LogNATSSubjects      bool
	PublishInterval      time.Duration
	TripsRefreshInterval time.Duration
	MetricsAddr          string
	Location             *time.Location

	// Prediction parameters
	SpeedKmh     float64
	StdDevTravel float64 // minutes
	StdDevWait   float64 // minutes
	Correlation  float64
}

// Load reads .env (if present) and the environment. Only the prediction
// parameters are needed by the offline commands; Database() validates the
// connection settings for the tracker service.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	// Database URL (cluster DSN): prefer DATABASE_URL / PG_DSN, else build from PG* vars
	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PG_DSN"))
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = dsnFromParts()
	}
	cfg.City = firstNonEmpty(os.Getenv("CITY"), os.Getenv("CITY_NAME"))

	cfg.NATSURL = getenvDefault("NATS_URL", "nats://127.0.0.1:4222")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "windows")
	cfg.LogNATSSubjects = parseBool(os.Getenv("LOG_NATS_SUBJECTS"))

	var err error
	if cfg.PublishInterval, err = positiveDuration("PUBLISH_INTERVAL_MS", time.Millisecond, 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.TripsRefreshInterval, err = positiveDuration("TRIPS_REFRESH_INTERVAL_SEC", time.Second, 60*time.Second); err != nil {
		return nil, err
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	if tzName := os.Getenv("TZ"); tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	}

	if cfg.SpeedKmh, err = floatEnv("SPEED_KMH", 30, func(f float64) bool { return f > 0 }); err != nil {
		return nil, err
	}
	nonNegative := func(f float64) bool { return f >= 0 }
	if cfg.StdDevTravel, err = floatEnv("STD_DEV_TRAVEL_MIN", 0.5, nonNegative); err != nil {
		return nil, err
	}
	if cfg.StdDevWait, err = floatEnv("STD_DEV_WAIT_MIN", 0.5, nonNegative); err != nil {
		return nil, err
	}
	if cfg.Correlation, err = floatEnv("CORRELATION", 0, func(f float64) bool { return f >= -1 && f <= 1 }); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Database reports whether enough connection settings are present to run the
// tracker against a GTFS database.
func (c *Config) Database() error {
	if c.DatabaseURL == "" {
		return errors.New("PGDATABASE or DATABASE_URL must be set (set PGDATABASE=postgres when using CITY)")
	}
	return nil
}

func dsnFromParts() string {
	host := getenvDefault("PGHOST", "127.0.0.1")
	port := getenvDefault("PGPORT", "5432")
	user := getenvDefault("PGUSER", "postgres")
	pass := os.Getenv("PGPASSWORD")
	db := os.Getenv("PGDATABASE")
	// With CITY the base DB only serves the import catalogue.
	if db == "" && os.Getenv("CITY") != "" {
		db = "postgres"
	}
	if db == "" {
		return ""
	}
	sslmode := getenvDefault("PGSSLMODE", "disable")
	if pass != "" {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
	}
	return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
}

func positiveDuration(key string, unit, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return time.Duration(n) * unit, nil
}

func floatEnv(key string, def float64, ok func(float64) bool) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !ok(f) {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
