package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"urltracker/models"
)

// SQLiteTrackingRepository implements the TrackingRepository interface for SQLite
type SQLiteTrackingRepository struct {
	db *sql.DB
}

// NewSQLiteTrackingRepository creates a new SQLiteTrackingRepository
func NewSQLiteTrackingRepository(db *sql.DB) *SQLiteTrackingRepository {
	return &SQLiteTrackingRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteTrackingRepository) Close() error {
	return r.db.Close()
}

// InsertIfNew writes a new observation unless a row with the identical
// location tuple already exists for the url. The decision is made by the
// UNIQUE constraint, not by a pre-check query, so concurrent writers cannot
// race. Returns true if a row was inserted, false if it was a duplicate.
func (r *SQLiteTrackingRepository) InsertIfNew(ctx context.Context, url string, loc *models.LocationResult, now time.Time) (bool, error) {
	query := `
	INSERT OR IGNORE INTO tracking (
		url, detected_at, geom_lat, geom_lon,
		country, city, isp, org, as_number
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		url, now, loc.Lat, loc.Lon,
		loc.Country, loc.City, loc.ISP, loc.Org, loc.ASNumber,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert observation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// FindByURL returns every observation recorded for a url, earliest first.
// A url that has never been tracked yields an empty slice, not an error.
func (r *SQLiteTrackingRepository) FindByURL(ctx context.Context, url string) ([]models.Observation, error) {
	query := `
	SELECT url, detected_at, geom_lat, geom_lon, country, city, isp, org, as_number
	FROM tracking WHERE url = ? ORDER BY detected_at ASC`

	rows, err := r.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	observations := []models.Observation{}
	for rows.Next() {
		var obs models.Observation
		var lat, lon sql.NullFloat64
		var country, city, isp, org, asNumber sql.NullString

		err := rows.Scan(&obs.URL, &obs.DetectedAt, &lat, &lon, &country, &city, &isp, &org, &asNumber)
		if err != nil {
			return nil, fmt.Errorf("error scanning observation: %w", err)
		}

		if lat.Valid {
			obs.Lat = lat.Float64
		}
		if lon.Valid {
			obs.Lon = lon.Float64
		}
		if country.Valid {
			obs.Country = country.String
		}
		if city.Valid {
			obs.City = city.String
		}
		if isp.Valid {
			obs.ISP = isp.String
		}
		if org.Valid {
			obs.Org = org.String
		}
		if asNumber.Valid {
			obs.ASNumber = asNumber.String
		}

		observations = append(observations, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return observations, nil
}
