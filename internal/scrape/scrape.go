package scrape

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/tillg/swm-pool-scraper/internal/enrich"
	"github.com/tillg/swm-pool-scraper/internal/fetch"
	"github.com/tillg/swm-pool-scraper/internal/registry"
)

// Service orchestrates one scrape run: it walks the registry, fetches and
// enriches every active facility, and assembles the run document. Facilities
// are processed sequentially; the limiter spaces out upstream calls.
type Service struct {
	registry *registry.Registry
	fetcher  fetch.Fetcher
	enricher *enrich.Enricher
	limiter  *rate.Limiter
	now      func() time.Time
}

// New creates an orchestrator. ratePerSec bounds how fast the upstream source
// is called.
func New(reg *registry.Registry, fetcher fetch.Fetcher, enricher *enrich.Enricher, ratePerSec float64) *Service {
	return &Service{
		registry: reg,
		fetcher:  fetcher,
		enricher: enricher,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 1),
		now:      time.Now,
	}
}

// Run performs one scrape and returns the aggregated document. The nominal
// timestamp is snapshotted once at the start, so every record of the run
// shares it regardless of per-call latency. A failed or empty fetch for one
// facility yields a closed record and never aborts the run; the run itself
// fails only when the registry is unusable or the context is cancelled.
func (s *Service) Run(ctx context.Context) (*Document, error) {
	facilities := s.registry.Active()
	if len(facilities) == 0 {
		return nil, registry.ErrEmptyRegistry
	}

	started := s.now()
	at := started
	log.Printf("Fetching data for %d facilities", len(facilities))

	doc := &Document{
		ScrapeTimestamp: s.enricher.Localize(at),
		Pools:           []enrich.Occupancy{},
		Saunas:          []enrich.Occupancy{},
		IceRinks:        []enrich.Occupancy{},
	}

	fetched := 0
	for _, fac := range facilities {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("scrape aborted: %w", err)
		}

		reading, err := s.fetcher.Fetch(ctx, fac.OrganizationID)
		switch {
		case err == nil:
			fetched++
		case fetch.NoData(err):
			log.Printf("No data for %s (ID: %d), treating as closed", fac.Name, fac.OrganizationID)
			reading = nil
		default:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("scrape aborted: %w", ctx.Err())
			}
			log.Printf("Warning: fetch failed for %s (ID: %d), treating as closed: %v", fac.Name, fac.OrganizationID, err)
			reading = nil
		}

		doc.add(s.enricher.Enrich(fac, reading, at))
	}

	doc.finalize(s.now().Sub(started))
	log.Printf("Successfully fetched %d/%d facilities", fetched, len(facilities))
	return doc, nil
}
