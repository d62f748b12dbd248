package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urltracker/db"
	"urltracker/internal/geolocation"
	"urltracker/models"
)

// fakeResolver resolves from a fixed host -> result map; unknown hosts fail.
type fakeResolver struct {
	mu        sync.Mutex
	locations map[string]*models.LocationResult
	resolved  []string
}

func (r *fakeResolver) Resolve(ctx context.Context, host string) (*models.LocationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, host)
	if loc, ok := r.locations[host]; ok {
		return loc, nil
	}
	return nil, geolocation.ErrNotFound
}

// fakeRepository records inserts in memory.
type fakeRepository struct {
	mu      sync.Mutex
	inserts []string
	err     error
}

func (f *fakeRepository) InsertIfNew(ctx context.Context, url string, loc *models.LocationResult, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.inserts = append(f.inserts, url)
	return true, nil
}

func (f *fakeRepository) FindByURL(ctx context.Context, url string) ([]models.Observation, error) {
	return []models.Observation{}, nil
}

func (f *fakeRepository) Close() error { return nil }

func location(city string) *models.LocationResult {
	return &models.LocationResult{
		Lat:      1.0,
		Lon:      2.0,
		Country:  "X",
		City:     city,
		ISP:      "Z",
		Org:      "O",
		ASNumber: "AS1",
	}
}

func TestRunOnce_ResolverFailureIsolation(t *testing.T) {
	resolver := &fakeResolver{locations: map[string]*models.LocationResult{
		"a.test": location("A"),
		"c.test": location("C"),
		// b.test missing: resolution fails for it
	}}
	repo := &fakeRepository{}
	service := NewTrackingService([]string{"https://a.test", "https://b.test", "https://c.test"}, resolver, repo)

	service.RunOnce(context.Background())

	assert.Equal(t, []string{"a.test", "b.test", "c.test"}, resolver.resolved)
	assert.Equal(t, []string{"https://a.test", "https://c.test"}, repo.inserts)
}

func TestRunOnce_RepositoryFailureIsolation(t *testing.T) {
	resolver := &fakeResolver{locations: map[string]*models.LocationResult{
		"a.test": location("A"),
		"b.test": location("B"),
	}}
	repo := &fakeRepository{err: fmt.Errorf("disk full")}
	service := NewTrackingService([]string{"https://a.test", "https://b.test"}, resolver, repo)

	// Must not panic or stop early when every insert fails
	service.RunOnce(context.Background())

	assert.Equal(t, []string{"a.test", "b.test"}, resolver.resolved)
	assert.Empty(t, repo.inserts)
}

// blockingResolver holds the first cycle open so overlapping runs can be
// provoked deterministically.
type blockingResolver struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (r *blockingResolver) Resolve(ctx context.Context, host string) (*models.LocationResult, error) {
	r.calls.Add(1)
	r.started <- struct{}{}
	<-r.release
	return nil, geolocation.ErrNotFound
}

func TestRun_CoalescesOverlappingTicks(t *testing.T) {
	resolver := &blockingResolver{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	service := NewTrackingService([]string{"https://a.test"}, resolver, &fakeRepository{})

	firstDone := make(chan struct{})
	go func() {
		service.Run(context.Background())
		close(firstDone)
	}()

	// Wait until the first cycle is mid-flight, then fire a second tick;
	// it must return immediately without resolving anything.
	<-resolver.started
	service.Run(context.Background())
	assert.Equal(t, int32(1), resolver.calls.Load())

	close(resolver.release)
	<-firstDone
	assert.Equal(t, int32(1), resolver.calls.Load())
}

func setupTestRepository(t *testing.T) db.TrackingRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	testDB, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)

	require.NoError(t, db.InitializeSchema(testDB))
	t.Cleanup(func() { testDB.Close() })

	return db.NewSQLiteTrackingRepository(testDB)
}

func TestTracking_EndToEnd(t *testing.T) {
	var city atomic.Value
	city.Store("Y")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"status": "success",
			"lat": 1.0,
			"lon": 2.0,
			"country": "X",
			"city": %q,
			"isp": "Z",
			"org": "O",
			"as": "AS1"
		}`, city.Load())
	}))
	defer server.Close()

	repo := setupTestRepository(t)
	resolver := geolocation.NewGeolocationServiceWithBaseURL(server.URL, server.Client())
	service := NewTrackingService([]string{"https://a.test"}, resolver, repo)
	ctx := context.Background()

	// Two ticks with an identical lookup result leave exactly one row
	service.Run(ctx)
	service.Run(ctx)

	observations, err := repo.FindByURL(ctx, "https://a.test")
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "Y", observations[0].City)
	assert.Equal(t, 1.0, observations[0].Lat)
	assert.Equal(t, 2.0, observations[0].Lon)
	assert.Equal(t, "AS1", observations[0].ASNumber)

	// A third tick with a changed city appends a second row
	city.Store("Y2")
	service.Run(ctx)

	observations, err = repo.FindByURL(ctx, "https://a.test")
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, "Y", observations[0].City)
	assert.Equal(t, "Y2", observations[1].City)
}
