package db

import (
	"context"
	"time"

	"urltracker/models"
)

// TrackingRepository defines the interface for observation persistence
type TrackingRepository interface {
	InsertIfNew(ctx context.Context, url string, loc *models.LocationResult, now time.Time) (bool, error)
	FindByURL(ctx context.Context, url string) ([]models.Observation, error)
	Close() error
}
