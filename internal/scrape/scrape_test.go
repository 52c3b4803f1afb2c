package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillg/swm-pool-scraper/internal/enrich"
	"github.com/tillg/swm-pool-scraper/internal/fetch"
	"github.com/tillg/swm-pool-scraper/internal/registry"
)

// fakeFetcher serves canned readings keyed by organization id. Missing ids
// answer with ErrNoData unless failWith overrides that.
type fakeFetcher struct {
	readings map[int]*fetch.Reading
	failWith map[int]error
	calls    []int
}

func (f *fakeFetcher) Fetch(ctx context.Context, organizationID int) (*fetch.Reading, error) {
	f.calls = append(f.calls, organizationID)
	if err, ok := f.failWith[organizationID]; ok {
		return nil, err
	}
	if r, ok := f.readings[organizationID]; ok {
		return r, nil
	}
	return nil, fetch.ErrNoData
}

var testFacilities = []registry.Facility{
	{Name: "Nordbad", Type: registry.TypePool, OrganizationID: 30184, Active: true},
	{Name: "Westbad", Type: registry.TypePool, OrganizationID: 30199, Active: true},
	{Name: "Südbad", Type: registry.TypePool, OrganizationID: 30187, Active: true},
	{Name: "Nordbad", Type: registry.TypeSauna, OrganizationID: 30185, Active: true},
	{Name: "Prinzregentenstadion - Eislaufbahn", Type: registry.TypeIceRink, OrganizationID: 30356, Active: true},
	{Name: "Altes Hallenbad", Type: registry.TypePool, OrganizationID: 30300, Active: false},
}

func newTestService(t *testing.T, fetcher fetch.Fetcher) *Service {
	reg, err := registry.New(testFacilities)
	require.NoError(t, err)
	enricher, err := enrich.New("Europe/Berlin")
	require.NoError(t, err)

	svc := New(reg, fetcher, enricher, 1000)
	svc.now = func() time.Time {
		return time.Date(2026, 1, 19, 8, 28, 47, 0, time.UTC)
	}
	return svc
}

func reading(orgID, count, max int) *fetch.Reading {
	return &fetch.Reading{OrganizationID: orgID, PersonCount: count, MaxPersonCount: max}
}

func TestRun_AggregatesByTypeInRegistryOrder(t *testing.T) {
	fetcher := &fakeFetcher{readings: map[int]*fetch.Reading{
		30184: reading(30184, 67, 311),
		30199: reading(30199, 150, 200),
		30187: reading(30187, 20, 200),
		30185: reading(30185, 5, 40),
		30356: reading(30356, 80, 400),
	}}

	doc, err := newTestService(t, fetcher).Run(context.Background())
	require.NoError(t, err)

	// Only active facilities are scraped, in registry order.
	assert.Equal(t, []int{30184, 30199, 30187, 30185, 30356}, fetcher.calls)

	require.Len(t, doc.Pools, 3)
	assert.Equal(t, "Nordbad", doc.Pools[0].FacilityName)
	assert.Equal(t, "Westbad", doc.Pools[1].FacilityName)
	assert.Equal(t, "Südbad", doc.Pools[2].FacilityName)
	require.Len(t, doc.Saunas, 1)
	require.Len(t, doc.IceRinks, 1)

	assert.Equal(t, 5, doc.Metadata.TotalFacilities)
	assert.Equal(t, 5, doc.Metadata.OpenCount)
	assert.Equal(t, 3, doc.Metadata.PoolsCount)
	assert.Equal(t, 1, doc.Metadata.SaunasCount)
	assert.Equal(t, 1, doc.Metadata.IceRinksCount)
}

func TestRun_SharedTimestampAndLocalTime(t *testing.T) {
	fetcher := &fakeFetcher{readings: map[int]*fetch.Reading{
		30184: reading(30184, 67, 311),
	}}

	doc, err := newTestService(t, fetcher).Run(context.Background())
	require.NoError(t, err)

	// 08:28 UTC is 09:28 Berlin winter time; every record shares the
	// run's nominal timestamp.
	assert.Equal(t, 9, doc.Metadata.Hour)
	assert.Equal(t, 0, doc.Metadata.DayOfWeek)
	for _, occ := range doc.All() {
		assert.True(t, occ.Timestamp.Equal(doc.ScrapeTimestamp))
		assert.Equal(t, 9, occ.Hour)
	}
}

func TestRun_FetchFailureYieldsClosedRecord(t *testing.T) {
	fetcher := &fakeFetcher{
		readings: map[int]*fetch.Reading{
			30184: reading(30184, 67, 311),
		},
		failWith: map[int]error{
			30199: errors.New("connection reset"),
		},
	}

	doc, err := newTestService(t, fetcher).Run(context.Background())
	require.NoError(t, err, "one failed facility must not abort the run")

	require.Len(t, doc.Pools, 3)
	assert.True(t, doc.Pools[0].IsOpen)

	westbad := doc.Pools[1]
	assert.Equal(t, "Westbad", westbad.FacilityName)
	assert.False(t, westbad.IsOpen)
	assert.Nil(t, westbad.OccupancyPercent)

	suedbad := doc.Pools[2] // no data at all
	assert.False(t, suedbad.IsOpen)
}

func TestRun_SummaryOnlyOverOpenFacilities(t *testing.T) {
	fetcher := &fakeFetcher{readings: map[int]*fetch.Reading{
		30184: reading(30184, 67, 311),  // 78.5 % free
		30187: reading(30187, 150, 200), // 25 % free
	}}

	doc, err := newTestService(t, fetcher).Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, doc.Summary.AvgPoolOccupancy)
	assert.InDelta(t, (78.5+25.0)/2, *doc.Summary.AvgPoolOccupancy, 1e-9)
	require.NotNil(t, doc.Summary.BusiestPool)
	assert.Equal(t, "Nordbad", *doc.Summary.BusiestPool)
	require.NotNil(t, doc.Summary.QuietestPool)
	assert.Equal(t, "Südbad", *doc.Summary.QuietestPool)
	assert.Nil(t, doc.Summary.AvgSaunaOccupancy, "no sauna was open")
}

func TestRun_NothingOpenYieldsNullSummary(t *testing.T) {
	fetcher := &fakeFetcher{} // every facility answers with no data

	doc, err := newTestService(t, fetcher).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, doc.Metadata.OpenCount)
	assert.Nil(t, doc.Summary.AvgPoolOccupancy)
	assert.Nil(t, doc.Summary.AvgSaunaOccupancy)
	assert.Nil(t, doc.Summary.BusiestPool)
	assert.Nil(t, doc.Summary.QuietestPool)
}

func TestRun_EmptyRegistryFailsFast(t *testing.T) {
	reg, err := registry.New([]registry.Facility{
		{Name: "Altes Hallenbad", Type: registry.TypePool, OrganizationID: 30300, Active: false},
	})
	require.NoError(t, err)
	enricher, err := enrich.New("Europe/Berlin")
	require.NoError(t, err)

	fetcher := &fakeFetcher{}
	svc := New(reg, fetcher, enricher, 1000)

	doc, err := svc.Run(context.Background())
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, registry.ErrEmptyRegistry)
	assert.Empty(t, fetcher.calls, "no fetch must happen before the registry check")
}

func TestRun_CancelledContextAbortsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{}
	doc, err := newTestService(t, fetcher).Run(ctx)

	assert.Nil(t, doc)
	assert.ErrorIs(t, err, context.Canceled)
}
