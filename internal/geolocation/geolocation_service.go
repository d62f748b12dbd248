package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"urltracker/models"
)

// ErrNotFound is returned whenever a lookup does not yield a usable location.
// The service being unreachable, answering with a non-200 status and simply
// not knowing the host all look the same to callers.
var ErrNotFound = errors.New("location not found")

const defaultBaseURL = "http://ip-api.com"

// GeolocationService resolves hostnames against an ip-api.com style lookup
// service. Each call is an independent one-shot lookup: no retry, no caching.
type GeolocationService struct {
	baseURL string
	client  *http.Client
}

// NewGeolocationService creates a resolver pointed at ip-api.com.
func NewGeolocationService() *GeolocationService {
	return NewGeolocationServiceWithBaseURL(defaultBaseURL, http.DefaultClient)
}

// NewGeolocationServiceWithBaseURL creates a resolver against an alternate
// lookup endpoint. Tests use this to point at a fake service.
func NewGeolocationServiceWithBaseURL(baseURL string, client *http.Client) *GeolocationService {
	return &GeolocationService{baseURL: baseURL, client: client}
}

type lookupResponse struct {
	Status  string  `json:"status"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	City    string  `json:"city"`
	ISP     string  `json:"isp"`
	Org     string  `json:"org"`
	AS      string  `json:"as"`
}

// Resolve looks up the location of a host. A result is returned only when the
// service answers 200 with status "success"; every other outcome maps to
// ErrNotFound. Transport failures are logged, a clean not-found is not.
func (s *GeolocationService) Resolve(ctx context.Context, host string) (*models.LocationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/json/%s", s.baseURL, host), nil)
	if err != nil {
		log.Errorf("Error building location request for %s: %v", host, err)
		return nil, ErrNotFound
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Errorf("Error fetching location for %s: %v", host, err)
		return nil, ErrNotFound
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrNotFound
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Errorf("Error decoding location response for %s: %v", host, err)
		return nil, ErrNotFound
	}

	if payload.Status != "success" {
		return nil, ErrNotFound
	}

	return &models.LocationResult{
		Lat:      payload.Lat,
		Lon:      payload.Lon,
		Country:  payload.Country,
		City:     payload.City,
		ISP:      payload.ISP,
		Org:      payload.Org,
		ASNumber: payload.AS,
	}, nil
}
