package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ResolveLatestImportDBName returns the most recently imported database whose
// name contains city, from public.latest_successful_imports in the catalogue
// database.
func ResolveLatestImportDBName(ctx context.Context, catalogue *sql.DB, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", errors.New("city is required")
	}
	q := `
SELECT db_name
FROM public.latest_successful_imports
WHERE db_name ILIKE '%' || $1 || '%'
ORDER BY imported_at DESC
LIMIT 1`
	var name sql.NullString
	if err := catalogue.QueryRowContext(ctx, q, city).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("no database found for city like %q", city)
		}
		return "", err
	}
	if !name.Valid || name.String == "" {
		return "", fmt.Errorf("empty db_name for city like %q", city)
	}
	return name.String, nil
}

// OpenForCity connects to dsn, or with a city set, to the latest import for
// that city found through the catalogue database on the same cluster.
func OpenForCity(ctx context.Context, dsn, city string) (*sql.DB, string, error) {
	if city != "" {
		catalogueDSN, err := WithDBName(dsn, "postgres")
		if err != nil {
			return nil, "", fmt.Errorf("invalid base DSN: %w", err)
		}
		catalogue, err := Open(catalogueDSN)
		if err != nil {
			return nil, "", fmt.Errorf("open catalogue db: %w", err)
		}
		defer catalogue.Close()
		if err := Ping(ctx, catalogue); err != nil {
			return nil, "", fmt.Errorf("ping catalogue db: %w", err)
		}
		name, err := ResolveLatestImportDBName(ctx, catalogue, city)
		if err != nil {
			return nil, "", err
		}
		if dsn, err = WithDBName(dsn, name); err != nil {
			return nil, "", err
		}
	}
	conn, err := Open(dsn)
	if err != nil {
		return nil, "", err
	}
	if err := Ping(ctx, conn); err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("ping gtfs db: %w", err)
	}
	return conn, databaseName(dsn), nil
}
