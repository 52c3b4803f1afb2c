package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"

	"github.com/tillg/swm-pool-scraper/config"
)

// APIFetcher reads occupancy counts from the Ticos gates-counter API, one GET
// per organization id. Transient transport errors and 429/5xx responses are
// retried with backoff; a well-formed empty body is ErrNoData and is not
// retried.
type APIFetcher struct {
	client *resty.Client
	// readings holds recent successful responses so that a scrape and a
	// monitor probe within the same invocation do not hit the API twice
	// for the same facility.
	readings *cache.Cache
}

// NewAPIFetcher creates a fetcher for the configured counting API.
func NewAPIFetcher(cfg *config.ScraperConfig) *APIFetcher {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeaders(cfg.Headers)
	client.SetRetryCount(cfg.Retries)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetRetryMaxWaitTime(5 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
	})

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return &APIFetcher{
		client:   client,
		readings: cache.New(ttl, 2*ttl),
	}
}

// Fetch performs one counter lookup. The API returns a JSON array with at
// most one element per requested organization id; an empty array or a body
// that does not parse is treated as "no data", never as a hard error.
func (f *APIFetcher) Fetch(ctx context.Context, organizationID int) (*Reading, error) {
	key := strconv.Itoa(organizationID)
	if cached, found := f.readings.Get(key); found {
		reading := cached.(Reading)
		return &reading, nil
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("organizationUnitIds", key).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("fetch organization id %d: %w", organizationID, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch organization id %d: unexpected status %d", organizationID, resp.StatusCode())
	}

	var readings []Reading
	if err := json.Unmarshal(resp.Body(), &readings); err != nil {
		log.Printf("Warning: unparseable body for organization id %d, treating as no data: %v", organizationID, err)
		return nil, noDataFor(organizationID)
	}
	if len(readings) == 0 {
		return nil, noDataFor(organizationID)
	}

	reading := readings[0]
	reading.Raw = fmt.Sprintf("%d/%d persons", reading.PersonCount, reading.MaxPersonCount)
	f.readings.Set(key, reading, cache.DefaultExpiration)
	return &reading, nil
}
