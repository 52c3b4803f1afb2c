package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillg/swm-pool-scraper/config"
	"github.com/tillg/swm-pool-scraper/internal/registry"
)

const occupancyPage = `<!DOCTYPE html>
<html><body>
<h1>Aktuelle Auslastung</h1>
<ul>
  <li><h3>Nordbad</h3><a href="#">Mehr Infos</a><span>78 % frei</span></li>
  <li><h3>Bad Giesing-Harlaching</h3><a href="#">Mehr Infos</a><span>41 % frei</span></li>
  <li><h3>Olympia-Schwimmhalle</h3><span>12% frei</span></li>
  <li><h3>Westbad</h3><span>geschlossen</span></li>
  <li><h3>Neues Probebad</h3><span>99 % frei</span></li>
</ul>
<script>var junk = "100 % frei";</script>
</body></html>`

func newWebsiteTestFetcher(t *testing.T, serverURL string) (*WebsiteFetcher, *registry.Registry) {
	reg, err := registry.Default()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Website.URL = serverURL
	return NewWebsiteFetcher(cfg, reg), reg
}

func TestWebsiteFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(occupancyPage))
	}))
	defer server.Close()

	f, _ := newWebsiteTestFetcher(t, server.URL)

	// Nordbad pool, org id 30184.
	reading, err := f.Fetch(context.Background(), 30184)
	require.NoError(t, err)
	require.NotNil(t, reading.PercentFree)
	assert.Equal(t, 78.0, *reading.PercentFree)
	assert.Equal(t, 30184, reading.OrganizationID)

	// Westbad renders without a percentage: closed.
	_, err = f.Fetch(context.Background(), 30199)
	assert.True(t, NoData(err))

	// Unknown organization id.
	_, err = f.Fetch(context.Background(), 424242)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestWebsiteFetcher_CachesPage(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(occupancyPage))
	}))
	defer server.Close()

	f, _ := newWebsiteTestFetcher(t, server.URL)

	_, err := f.Fetch(context.Background(), 30184)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), 30195)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "one page download should answer all facilities")
}

func TestWebsiteFetcher_LiveNamesIncludesUnknownFacilities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(occupancyPage))
	}))
	defer server.Close()

	f, _ := newWebsiteTestFetcher(t, server.URL)

	names, err := f.LiveNames(context.Background())
	require.NoError(t, err)

	assert.Contains(t, names, "Nordbad")
	assert.Contains(t, names, "Neues Probebad")
	assert.NotContains(t, names, "Westbad", "closed facilities render without a percentage")
}

func TestParseOccupancyLevels(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(occupancyPage))
	require.NoError(t, err)

	levels := parseOccupancyLevels(doc)

	assert.Equal(t, map[string]float64{
		"Nordbad":                78,
		"Bad Giesing-Harlaching": 41,
		"Olympia-Schwimmhalle":   12,
		"Neues Probebad":         99,
	}, levels)
}
