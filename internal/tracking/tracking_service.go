package tracking

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"urltracker/db"
	"urltracker/models"
)

// Resolver translates a hostname into a network location via an external
// lookup.
type Resolver interface {
	Resolve(ctx context.Context, host string) (*models.LocationResult, error)
}

// TrackingService periodically resolves the location of every configured URL
// and records distinct observations.
type TrackingService struct {
	urls       []string
	resolver   Resolver
	repository db.TrackingRepository
	running    atomic.Bool
}

// NewTrackingService creates a tracking service over a static URL list.
func NewTrackingService(urls []string, resolver Resolver, repository db.TrackingRepository) *TrackingService {
	return &TrackingService{
		urls:       urls,
		resolver:   resolver,
		repository: repository,
	}
}

// Run executes one tracking cycle unless a previous one is still in flight,
// in which case the tick is dropped rather than queued. At most one cycle
// runs at a time.
func (s *TrackingService) Run(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		log.Info("Tracking cycle still in progress, skipping tick")
		return
	}
	defer s.running.Store(false)

	s.RunOnce(ctx)
}

// RunOnce processes the configured URL list sequentially, in order. The
// lookup service is rate-limited in practice, so URLs are deliberately not
// resolved in parallel. A failure on one URL never aborts the rest of the
// cycle.
func (s *TrackingService) RunOnce(ctx context.Context) {
	log.Debugf("Running job to track %d URLs", len(s.urls))

	for _, url := range s.urls {
		domain := GetDomain(url)
		log.Debugf("Processing %s", domain)

		location, err := s.resolver.Resolve(ctx, domain)
		if err != nil {
			log.Warnf("Could not get location for %s", domain)
			continue
		}

		inserted, err := s.repository.InsertIfNew(ctx, url, location, time.Now())
		if err != nil {
			log.Errorf("Error recording location for %s: %v", url, err)
			continue
		}

		if inserted {
			log.Debugf("New location recorded for %s", domain)
		} else {
			log.Debugf("Location unchanged for %s", domain)
		}
	}
}
