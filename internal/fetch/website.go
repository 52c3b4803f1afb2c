package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"

	"github.com/tillg/swm-pool-scraper/config"
	"github.com/tillg/swm-pool-scraper/internal/registry"
)

const pageCacheKey = "occupancy-page"

// occupancyRe matches the "NN % frei" fragment rendered next to each open
// facility.
var occupancyRe = regexp.MustCompile(`(\d+)\s*%\s*frei`)

// WebsiteFetcher is the rendered-page fallback data source. It downloads the
// public occupancy page once per cache TTL, extracts the "NN % frei" figure
// displayed next to each facility name, and answers Fetch calls from that
// snapshot. It needs the registry to map organization ids back to names.
type WebsiteFetcher struct {
	client *resty.Client
	reg    *registry.Registry
	pages  *cache.Cache
}

// NewWebsiteFetcher creates the fallback fetcher for the configured page URL.
func NewWebsiteFetcher(cfg *config.Config, reg *registry.Registry) *WebsiteFetcher {
	client := resty.New()
	client.SetBaseURL(cfg.Website.URL)
	client.SetTimeout(cfg.Scraper.Timeout)
	client.SetHeader("User-Agent", cfg.Scraper.Headers["User-Agent"])
	client.SetRetryCount(cfg.Scraper.Retries)
	client.SetRetryWaitTime(time.Second)

	ttl := time.Duration(cfg.Scraper.CacheTTLSeconds) * time.Second
	return &WebsiteFetcher{
		client: client,
		reg:    reg,
		pages:  cache.New(ttl, 2*ttl),
	}
}

// Fetch resolves the organization id to a facility name and looks the name up
// in the parsed page snapshot. A facility missing from the page is reported
// as ErrNoData, matching the API source's semantics for closed facilities.
func (f *WebsiteFetcher) Fetch(ctx context.Context, organizationID int) (*Reading, error) {
	fac, err := f.reg.Resolve(organizationID)
	if err != nil {
		return nil, err
	}

	levels, err := f.pageLevels(ctx)
	if err != nil {
		return nil, err
	}

	percent, ok := levels[fac.Name]
	if !ok {
		return nil, noDataFor(organizationID)
	}

	free := percent
	return &Reading{
		OrganizationID: organizationID,
		PercentFree:    &free,
		Raw:            fmt.Sprintf("%.0f %% frei", free),
	}, nil
}

// LiveNames returns every facility name currently displayed on the occupancy
// page, including names the registry does not know. The monitor compares
// this list against the registry. Discovery via the page is best effort and
// must not be assumed exhaustive.
func (f *WebsiteFetcher) LiveNames(ctx context.Context) ([]string, error) {
	levels, err := f.pageLevels(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	return names, nil
}

// pageLevels returns the parsed page as facility name -> percent free,
// downloading it only when the cached snapshot has expired.
func (f *WebsiteFetcher) pageLevels(ctx context.Context) (map[string]float64, error) {
	if cached, found := f.pages.Get(pageCacheKey); found {
		return cached.(map[string]float64), nil
	}

	resp, err := f.client.R().SetContext(ctx).Get("")
	if err != nil {
		return nil, fmt.Errorf("fetch occupancy page: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch occupancy page: unexpected status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse occupancy page: %w", err)
	}

	levels := parseOccupancyLevels(doc)
	f.pages.Set(pageCacheKey, levels, cache.DefaultExpiration)
	return levels, nil
}

// parseOccupancyLevels extracts facility name -> percent free pairs from the
// page. Each open facility renders as one block (list item, card) holding
// its name and a "NN % frei" fragment; facilities without a percentage
// (closed) do not appear in the result. Best effort: the markup changes now
// and then, which is exactly why the registry is maintained by hand.
func parseOccupancyLevels(doc *goquery.Document) map[string]float64 {
	levels := make(map[string]float64)

	doc.Find("li,tr,article,section,div").Each(func(_ int, block *goquery.Selection) {
		// Innermost blocks only; a container's text would pair every
		// facility with the first percentage on the page.
		if block.Find("li,tr,article,section,div").Length() > 0 {
			return
		}

		m := occupancyRe.FindStringSubmatch(block.Text())
		if m == nil {
			return
		}
		name := facilityName(block)
		if name == "" {
			return
		}
		if _, seen := levels[name]; seen {
			return
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			levels[name] = v
		}
	})

	return levels
}

// facilityName pulls the facility name out of one occupancy block: the first
// heading if there is one, otherwise the first child text that is neither the
// percentage nor the "Mehr Infos" link.
func facilityName(block *goquery.Selection) string {
	if h := block.Find("h1,h2,h3,h4,h5,h6").First(); h.Length() > 0 {
		return strings.TrimSpace(h.Text())
	}

	name := ""
	block.Children().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		text := strings.TrimSpace(c.Text())
		if text == "" || text == "Mehr Infos" || occupancyRe.MatchString(text) {
			return true
		}
		name = text
		return false
	})
	return name
}
