package internal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillg/swm-pool-scraper/config"
	"github.com/tillg/swm-pool-scraper/internal/enrich"
	"github.com/tillg/swm-pool-scraper/internal/fetch"
	"github.com/tillg/swm-pool-scraper/internal/registry"
	"github.com/tillg/swm-pool-scraper/internal/scrape"
	"github.com/tillg/swm-pool-scraper/internal/storage"
)

// TestScrapeLifecycle runs a full pass against a mocked counting API and
// verifies the persisted artifacts: the JSON document round-trips and the
// consolidated CSV export is idempotent.
func TestScrapeLifecycle(t *testing.T) {
	// The mock API knows two facilities; everything else answers empty.
	counts := map[string]string{
		"30184": `[{"organizationUnitId":30184,"personCount":67,"maxPersonCount":311}]`,  // Nordbad pool
		"30203": `[{"organizationUnitId":30203,"personCount":12,"maxPersonCount":60}]`,   // Michaelibad sauna
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body, ok := counts[r.URL.Query().Get("organizationUnitIds")]
		if !ok {
			body = "[]"
		}
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Scraper.BaseURL = server.URL
	cfg.Scraper.RatePerSec = 10000 // no politeness delay in tests

	reg, err := registry.Default()
	require.NoError(t, err)
	enricher, err := enrich.New(cfg.Scraper.Timezone)
	require.NoError(t, err)
	fetcher := fetch.NewAPIFetcher(&cfg.Scraper)

	svc := scrape.New(reg, fetcher, enricher, cfg.Scraper.RatePerSec)
	doc, err := svc.Run(context.Background())
	require.NoError(t, err)

	// Every active facility appears, open or not.
	assert.Equal(t, len(reg.Active()), doc.Metadata.TotalFacilities)
	assert.Equal(t, 2, doc.Metadata.OpenCount)

	var nordbad *enrich.Occupancy
	for i := range doc.Pools {
		if doc.Pools[i].FacilityName == "Nordbad" {
			nordbad = &doc.Pools[i]
		}
	}
	require.NotNil(t, nordbad)
	assert.True(t, nordbad.IsOpen)
	require.NotNil(t, nordbad.OccupancyPercent)
	assert.Equal(t, 78.5, *nordbad.OccupancyPercent)

	// Summary: Nordbad is the only open pool.
	require.NotNil(t, doc.Summary.BusiestPool)
	assert.Equal(t, "Nordbad", *doc.Summary.BusiestPool)
	require.NotNil(t, doc.Summary.AvgSaunaOccupancy)
	assert.Equal(t, 80.0, *doc.Summary.AvgSaunaOccupancy)

	// Persist and round-trip.
	dir := t.TempDir()
	writer, err := storage.NewWriter(dir)
	require.NoError(t, err)

	path, err := writer.WriteJSON(doc)
	require.NoError(t, err)
	got, err := storage.ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Metadata, got.Metadata)
	assert.Len(t, got.All(), doc.Metadata.TotalFacilities)

	// Export twice; the dedup key keeps the row count stable.
	out := filepath.Join(t.TempDir(), "ml_data.csv")
	n1, err := storage.ExportCSV([]string{dir}, out)
	require.NoError(t, err)
	n2, err := storage.ExportCSV([]string{dir, dir}, out)
	require.NoError(t, err)
	assert.Equal(t, n1, n2)
	assert.Equal(t, doc.Metadata.TotalFacilities, n1)
}
