package geolocation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/example.com", r.URL.Path)
		fmt.Fprint(w, `{
			"status": "success",
			"lat": 51.5074,
			"lon": -0.1278,
			"country": "United Kingdom",
			"city": "London",
			"isp": "Example ISP",
			"org": "Example Org",
			"as": "AS12345 Example"
		}`)
	}))
	defer server.Close()

	service := NewGeolocationServiceWithBaseURL(server.URL, server.Client())

	location, err := service.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, 51.5074, location.Lat)
	assert.Equal(t, -0.1278, location.Lon)
	assert.Equal(t, "United Kingdom", location.Country)
	assert.Equal(t, "London", location.City)
	assert.Equal(t, "Example ISP", location.ISP)
	assert.Equal(t, "Example Org", location.Org)
	assert.Equal(t, "AS12345 Example", location.ASNumber)
}

func TestResolve_LookupFailStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "fail", "message": "invalid query"}`)
	}))
	defer server.Close()

	service := NewGeolocationServiceWithBaseURL(server.URL, server.Client())

	location, err := service.Resolve(context.Background(), "not-a-host")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, location)
}

func TestResolve_Non200Response(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	service := NewGeolocationServiceWithBaseURL(server.URL, server.Client())

	location, err := service.Resolve(context.Background(), "example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, location)
}

func TestResolve_ServiceUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	service := NewGeolocationServiceWithBaseURL(server.URL, http.DefaultClient)

	location, err := service.Resolve(context.Background(), "example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, location)
}

func TestResolve_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	service := NewGeolocationServiceWithBaseURL(server.URL, server.Client())

	location, err := service.Resolve(context.Background(), "example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, location)
}
