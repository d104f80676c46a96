package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"arrival-windows/internal/gtfs"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// FetchActiveTrips returns trips running on now's service day with their
// absolute first departure and last arrival.
func FetchActiveTrips(ctx context.Context, db *sql.DB, now time.Time) ([]gtfs.ActiveTrip, error) {
	serviceIDs, err := fetchActiveServiceIDs(ctx, db, now)
	if err != nil {
		return nil, err
	}
	if len(serviceIDs) == 0 {
		return nil, nil
	}

	q := `SELECT trip_id, route_id, service_id FROM trips WHERE service_id = ANY($1)`
	rows, err := db.QueryContext(ctx, q, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	defer rows.Close()

	var trips []gtfs.ActiveTrip
	for rows.Next() {
		var t gtfs.ActiveTrip
		if err := rows.Scan(&t.TripID, &t.RouteID, &t.ServiceID); err != nil {
			return nil, err
		}
		span, err := fetchTripSpan(ctx, db, t.TripID, now)
		if err != nil {
			// trips without stop_times cannot be tracked
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		t.StartTime, t.EndTime = span[0], span[1]
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trips, nil
}

func fetchActiveServiceIDs(ctx context.Context, db *sql.DB, now time.Time) ([]string, error) {
	date := now.Format("2006-01-02")
	dow := int(now.Weekday()) // 0=Sunday

	// calendar has booleans (0/1). calendar_dates has exception_type (1 add, 2 remove)
	q := `
WITH base AS (
  SELECT service_id
  FROM calendar
  WHERE start_date <= $1::date AND end_date >= $1::date
    AND (
      ($2 = 0 AND (sunday::text IN ('1','t','true','available'))) OR
      ($2 = 1 AND (monday::text IN ('1','t','true','available'))) OR
      ($2 = 2 AND (tuesday::text IN ('1','t','true','available'))) OR
      ($2 = 3 AND (wednesday::text IN ('1','t','true','available'))) OR
      ($2 = 4 AND (thursday::text IN ('1','t','true','available'))) OR
      ($2 = 5 AND (friday::text IN ('1','t','true','available'))) OR
      ($2 = 6 AND (saturday::text IN ('1','t','true','available')))
    )
), add_exc AS (
  SELECT service_id FROM calendar_dates WHERE date = $1::date AND (exception_type::text IN ('1','added'))
), rm_exc AS (
  SELECT service_id FROM calendar_dates WHERE date = $1::date AND (exception_type::text IN ('2','removed'))
), merged AS (
  SELECT service_id FROM base
  UNION
  SELECT service_id FROM add_exc
)
SELECT DISTINCT service_id FROM merged
WHERE service_id NOT IN (SELECT service_id FROM rm_exc)
`

	rows, err := db.QueryContext(ctx, q, date, dow)
	if err != nil {
		return nil, fmt.Errorf("query active services: %w", err)
	}
	defer rows.Close()
	var svc []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		svc = append(svc, s)
	}
	return svc, rows.Err()
}

func fetchTripSpan(ctx context.Context, db *sql.DB, tripID string, now time.Time) ([2]time.Time, error) {
	q := `
SELECT COALESCE(MIN(departure_time)::text, MIN(arrival_time)::text) AS start_t,
       COALESCE(MAX(arrival_time)::text, MAX(departure_time)::text) AS end_t
FROM stop_times WHERE trip_id = $1`

	var startS, endS sql.NullString
	if err := db.QueryRowContext(ctx, q, tripID).Scan(&startS, &endS); err != nil {
		return [2]time.Time{}, err
	}
	if !startS.Valid || !endS.Valid {
		return [2]time.Time{}, sql.ErrNoRows
	}

	base := Midnight(now)
	start := base.Add(time.Duration(ParseDaySeconds(startS.String)) * time.Second)
	end := base.Add(time.Duration(ParseDaySeconds(endS.String)) * time.Second)
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	return [2]time.Time{start, end}, nil
}

// FetchTripStops returns a trip's stop_times in stop_sequence order with stop
// coordinates, from stop_lat/stop_lon or a PostGIS stop_loc column.
func FetchTripStops(ctx context.Context, db *sql.DB, tripID string) ([]gtfs.StopTime, error) {
	latlonExists, err := hasColumns(ctx, db, "public", "stops", "stop_lat", "stop_lon")
	if err != nil {
		return nil, fmt.Errorf("introspect stops columns: %w", err)
	}
	latExpr, lonExpr := "s.stop_lat", "s.stop_lon"
	if !latlonExists["stop_lat"] || !latlonExists["stop_lon"] {
		locExists, err := hasColumns(ctx, db, "public", "stops", "stop_loc")
		if err != nil {
			return nil, fmt.Errorf("introspect stops stop_loc: %w", err)
		}
		if !locExists["stop_loc"] {
			return nil, fmt.Errorf("stops table missing expected columns (stop_lat/lon or stop_loc)")
		}
		latExpr, lonExpr = "ST_Y(s.stop_loc::geometry)", "ST_X(s.stop_loc::geometry)"
	}
	q := fmt.Sprintf(`SELECT st.stop_sequence,
                    COALESCE(st.arrival_time::text,''),
                    COALESCE(st.departure_time::text,''),
                    st.stop_id,
                    COALESCE(%s, 0),
                    COALESCE(%s, 0)
             FROM stop_times st
             JOIN stops s ON s.stop_id = st.stop_id
             WHERE st.trip_id = $1
             ORDER BY st.stop_sequence`, latExpr, lonExpr)

	rows, err := db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, fmt.Errorf("query stop_times: %w", err)
	}
	defer rows.Close()

	var sts []gtfs.StopTime
	for rows.Next() {
		var st gtfs.StopTime
		var arr, dep string
		if err := rows.Scan(&st.StopSequence, &arr, &dep, &st.StopID, &st.StopLat, &st.StopLon); err != nil {
			return nil, err
		}
		st.ArrivalSec = ParseDaySeconds(arr)
		st.DepartureSec = ParseDaySeconds(dep)
		sts = append(sts, st)
	}
	return sts, rows.Err()
}

// Midnight returns the start of t's day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDaySeconds parses HH:MM:SS possibly with hours >= 24. Unparseable
// input yields 0, which callers treat as missing.
func ParseDaySeconds(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	sec := 0
	if len(parts) > 2 {
		sec, _ = strconv.Atoi(parts[2])
	}
	total := h*3600 + m*60 + sec
	if total < 0 {
		total = 0
	}
	return total
}

// hasColumns returns a map of requested column names to existence for the given table.
func hasColumns(ctx context.Context, db *sql.DB, schema, table string, cols ...string) (map[string]bool, error) {
	res := make(map[string]bool, len(cols))
	if len(cols) == 0 {
		return res, nil
	}
	for _, c := range cols {
		res[c] = false
	}
	q := `SELECT column_name FROM information_schema.columns
          WHERE table_schema = $1 AND table_name = $2 AND column_name = ANY($3)`
	rows, err := db.QueryContext(ctx, q, schema, table, cols)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res[name] = true
	}
	return res, rows.Err()
}
