package fetch

import (
	"context"
	"errors"
	"fmt"
)

// Reading is a single raw occupancy observation for one facility, as returned
// by a data source. It is transient: the enricher consumes it and the reading
// is discarded.
type Reading struct {
	OrganizationID int    `json:"organizationUnitId"`
	PersonCount    int    `json:"personCount"`
	MaxPersonCount int    `json:"maxPersonCount"`
	// PercentFree is set only for page-derived readings, where the source
	// exposes the already-computed "NN % frei" figure instead of raw counts.
	PercentFree *float64 `json:"-"`
	// Raw preserves the source text the reading was parsed from.
	Raw string `json:"-"`
}

// ErrNoData signals that the source answered but had no reading for the
// facility. Guiding policy: a facility returning no data is presumed
// temporarily closed, not broken. Callers must not retry on it.
var ErrNoData = errors.New("fetch: no data for facility")

// Fetcher retrieves the current occupancy reading for one organization id.
// Both the counting-API source and the rendered-page fallback implement it,
// so the orchestrator is agnostic to which is active.
type Fetcher interface {
	Fetch(ctx context.Context, organizationID int) (*Reading, error)
}

// NoData reports whether err means "facility currently has no data".
func NoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

func noDataFor(organizationID int) error {
	return fmt.Errorf("%w: organization id %d", ErrNoData, organizationID)
}
