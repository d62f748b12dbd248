package models

import (
	"time"
)

// LocationResult is the outcome of one successful geo-IP lookup. The resolver
// either fills every field from the lookup service response or returns
// nothing at all; a partially populated result never occurs.
type LocationResult struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Country  string  `json:"country"`
	City     string  `json:"city"`
	ISP      string  `json:"isp"`
	Org      string  `json:"org"`
	ASNumber string  `json:"as"`
}

// Observation is one immutable row of the tracking table: a network location
// seen for a tracked URL at a point in time. Rows are append-only; the store
// never updates or deletes them.
type Observation struct {
	URL        string    `db:"url" json:"url"`
	DetectedAt time.Time `db:"detected_at" json:"detected_at"`
	Lat        float64   `db:"geom_lat" json:"geom_lat"`
	Lon        float64   `db:"geom_lon" json:"geom_lon"`
	Country    string    `db:"country" json:"country"`
	City       string    `db:"city" json:"city"`
	ISP        string    `db:"isp" json:"isp"`
	Org        string    `db:"org" json:"org"`
	ASNumber   string    `db:"as_number" json:"as_number"`
}
