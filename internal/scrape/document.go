package scrape

import (
	"time"

	"github.com/tillg/swm-pool-scraper/internal/enrich"
	"github.com/tillg/swm-pool-scraper/internal/registry"
)

// Metadata describes one scrape run.
type Metadata struct {
	TotalFacilities int   `json:"total_facilities"`
	PoolsCount      int   `json:"pools_count"`
	SaunasCount     int   `json:"saunas_count"`
	IceRinksCount   int   `json:"ice_rinks_count"`
	OpenCount       int   `json:"open_count"`
	DurationMS      int64 `json:"duration_ms"`
	Hour            int   `json:"hour"`
	DayOfWeek       int   `json:"day_of_week"`
	IsWeekend       bool  `json:"is_weekend"`
}

// Summary holds run-level statistics, computed only over facilities that were
// open during the run. All fields are null when nothing of the relevant kind
// was open.
type Summary struct {
	AvgPoolOccupancy  *float64 `json:"avg_pool_occupancy"`
	AvgSaunaOccupancy *float64 `json:"avg_sauna_occupancy"`
	BusiestPool       *string  `json:"busiest_pool"`
	QuietestPool      *string  `json:"quietest_pool"`
}

// Document aggregates every enriched record of one run, partitioned by
// facility type. It is written to storage and then discarded.
type Document struct {
	ScrapeTimestamp time.Time          `json:"scrape_timestamp"`
	Metadata        Metadata           `json:"scrape_metadata"`
	Pools           []enrich.Occupancy `json:"pools"`
	Saunas          []enrich.Occupancy `json:"saunas"`
	IceRinks        []enrich.Occupancy `json:"ice_rinks"`
	Summary         Summary            `json:"summary"`
}

// All returns every record of the document, pools first, then saunas, then
// ice rinks, each partition in registry order.
func (d *Document) All() []enrich.Occupancy {
	out := make([]enrich.Occupancy, 0, len(d.Pools)+len(d.Saunas)+len(d.IceRinks))
	out = append(out, d.Pools...)
	out = append(out, d.Saunas...)
	out = append(out, d.IceRinks...)
	return out
}

func (d *Document) add(occ enrich.Occupancy) {
	switch occ.FacilityType {
	case registry.TypePool:
		d.Pools = append(d.Pools, occ)
	case registry.TypeSauna:
		d.Saunas = append(d.Saunas, occ)
	case registry.TypeIceRink:
		d.IceRinks = append(d.IceRinks, occ)
	}
}

// finalize fills in metadata and summary once all records are collected.
func (d *Document) finalize(elapsed time.Duration) {
	all := d.All()
	open := 0
	for _, occ := range all {
		if occ.IsOpen {
			open++
		}
	}

	local := d.ScrapeTimestamp
	dow := (int(local.Weekday()) + 6) % 7
	d.Metadata = Metadata{
		TotalFacilities: len(all),
		PoolsCount:      len(d.Pools),
		SaunasCount:     len(d.Saunas),
		IceRinksCount:   len(d.IceRinks),
		OpenCount:       open,
		DurationMS:      elapsed.Milliseconds(),
		Hour:            local.Hour(),
		DayOfWeek:       dow,
		IsWeekend:       dow >= 5,
	}

	d.Summary = Summary{
		AvgPoolOccupancy:  avgOccupancy(d.Pools),
		AvgSaunaOccupancy: avgOccupancy(d.Saunas),
	}
	d.Summary.BusiestPool, d.Summary.QuietestPool = extremes(d.Pools)
}

// avgOccupancy averages occupancy_percent over open facilities; nil when none
// are open.
func avgOccupancy(records []enrich.Occupancy) *float64 {
	var sum float64
	var n int
	for _, occ := range records {
		if occ.IsOpen && occ.OccupancyPercent != nil {
			sum += *occ.OccupancyPercent
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// extremes returns the open facilities with the highest and lowest
// occupancy_percent. Both are nil when nothing is open.
func extremes(records []enrich.Occupancy) (busiest, quietest *string) {
	var hi, lo *enrich.Occupancy
	for i := range records {
		occ := &records[i]
		if !occ.IsOpen || occ.OccupancyPercent == nil {
			continue
		}
		if hi == nil || *occ.OccupancyPercent > *hi.OccupancyPercent {
			hi = occ
		}
		if lo == nil || *occ.OccupancyPercent < *lo.OccupancyPercent {
			lo = occ
		}
	}
	if hi != nil {
		busiest = &hi.FacilityName
	}
	if lo != nil {
		quietest = &lo.FacilityName
	}
	return busiest, quietest
}
