package enrich

import (
	"fmt"
	"math"
	"time"

	"github.com/tillg/swm-pool-scraper/internal/fetch"
	"github.com/tillg/swm-pool-scraper/internal/registry"
)

// Occupancy is one facility's reading enriched with the calendar features the
// downstream training pipeline consumes. Records are created once per scrape
// per facility and never mutated afterwards.
type Occupancy struct {
	FacilityName string                `json:"pool_name"`
	FacilityType registry.FacilityType `json:"facility_type"`
	// OccupancyPercent is percent free capacity in [0,100], nil when the
	// facility is closed or its maximum capacity is unknown.
	OccupancyPercent *float64  `json:"occupancy_percent"`
	IsOpen           bool      `json:"is_open"`
	Timestamp        time.Time `json:"timestamp"`
	Hour             int       `json:"hour"`
	DayOfWeek        int       `json:"day_of_week"` // Monday=0 .. Sunday=6
	DayName          string    `json:"day_name"`
	IsWeekend        bool      `json:"is_weekend"`
	OccupancyText    string    `json:"occupancy_text"`
	RawOccupancy     string    `json:"raw_occupancy,omitempty"`
}

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Enricher derives calendar/time features in the facilities' local civil time
// zone, so hour and weekday reflect local wall-clock time regardless of where
// the process runs.
type Enricher struct {
	loc *time.Location
}

// New creates an enricher for the named IANA time zone.
func New(timezone string) (*Enricher, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Enricher{loc: loc}, nil
}

// Localize converts a timestamp to the facilities' local civil time zone.
func (e *Enricher) Localize(t time.Time) time.Time {
	return t.In(e.loc)
}

// Enrich turns a raw reading into an enriched record. It is a pure function
// of its inputs: a nil reading yields a closed record, and so does a reading
// without a usable maximum capacity, since it carries no occupancy signal.
func (e *Enricher) Enrich(fac registry.Facility, reading *fetch.Reading, at time.Time) Occupancy {
	local := at.In(e.loc)
	dow := (int(local.Weekday()) + 6) % 7 // Go weekdays start on Sunday

	occ := Occupancy{
		FacilityName:  fac.Name,
		FacilityType:  fac.Type,
		Timestamp:     local,
		Hour:          local.Hour(),
		DayOfWeek:     dow,
		DayName:       dayNames[dow],
		IsWeekend:     dow >= 5,
		OccupancyText: "geschlossen",
	}

	if reading == nil {
		return occ
	}

	occ.RawOccupancy = reading.Raw
	p := percentFree(reading)
	if p == nil {
		return occ
	}

	occ.IsOpen = true
	occ.OccupancyPercent = p
	occ.OccupancyText = fmt.Sprintf("%g %% frei", *p)
	return occ
}

// percentFree computes the free-capacity percentage of a reading, rounded to
// one decimal and clamped to [0,100]. Page-derived readings carry the
// percentage directly; count-based readings derive it, returning nil when the
// maximum capacity is unknown or zero.
func percentFree(reading *fetch.Reading) *float64 {
	if reading.PercentFree != nil {
		p := clamp(math.Round(*reading.PercentFree*10) / 10)
		return &p
	}
	if reading.MaxPersonCount <= 0 {
		return nil
	}

	raw := 100 * (1 - float64(reading.PersonCount)/float64(reading.MaxPersonCount))
	p := clamp(math.Round(raw*10) / 10)
	return &p
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
